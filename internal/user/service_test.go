package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/notify"
	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]*User
	resetHash   map[int64]string
	resetExpiry map[int64]time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:       map[int64]*User{},
		resetHash:   map[int64]string{},
		resetExpiry: map[int64]time.Time{},
	}
}

func (r *memRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ErrEmailAlreadyUsed
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].LastLogin = &at
	return nil
}

func (r *memRepo) UpdateProfile(_ context.Context, id int64, c ProfileChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	if c.FirstName != nil {
		u.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		u.LastName = *c.LastName
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	return nil
}

func (r *memRepo) UpdatePassword(_ context.Context, id int64, oldHash, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.users[id]
	if u.PasswordHash != oldHash {
		return errStaleHash
	}
	u.PasswordHash = newHash
	delete(r.resetHash, id)
	delete(r.resetExpiry, id)
	return nil
}

func (r *memRepo) SetResetToken(_ context.Context, id int64, tokenHash string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetHash[id] = tokenHash
	r.resetExpiry[id] = expires
	return nil
}

func (r *memRepo) ConsumeResetToken(_ context.Context, tokenHash, newHash string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, h := range r.resetHash {
		if h == tokenHash && r.resetExpiry[id].After(now) {
			r.users[id].PasswordHash = newHash
			delete(r.resetHash, id)
			delete(r.resetExpiry, id)
			return id, nil
		}
	}
	return 0, ErrInvalidResetToken
}

// plainHasher keeps tests fast.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (plainHasher) Compare(hash, p string) error {
	if hash != "hashed:"+p {
		return errors.New("mismatch")
	}
	return nil
}

type captureNotifier struct {
	sent []notify.PasswordReset
	err  error
}

func (n *captureNotifier) NotifyPasswordReset(_ context.Context, msg notify.PasswordReset) error {
	n.sent = append(n.sent, msg)
	return n.err
}

type fixture struct {
	svc      *service
	repo     *memRepo
	notifier *captureNotifier
	clock    time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newMemRepo(),
		notifier: &captureNotifier{},
		clock:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.repo, plainHasher{}, f.notifier, "http://app.test/").(*service)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) register(t *testing.T, email string) *User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterRequest{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     email,
		Password:  "secret1",
	})
	require.NoError(t, err)
	return u
}

func tokenFromURL(t *testing.T, url string) string {
	t.Helper()
	i := strings.LastIndex(url, "/")
	require.True(t, i >= 0)
	return url[i+1:]
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Normalizes And Defaults", func(t *testing.T) {
		f := newFixture()
		u, err := f.svc.Register(ctx, RegisterRequest{
			FirstName: "  Alice ",
			LastName:  "Smith",
			Email:     "  Alice@Example.COM ",
			Password:  "secret1",
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice", u.FirstName)
		assert.Equal(t, "alice@example.com", u.Email)
		assert.Equal(t, auth.RoleSales, u.Role)
		assert.True(t, u.IsActive)
		assert.Equal(t, "hashed:secret1", u.PasswordHash)
	})

	t.Run("Duplicate Email Is Case Insensitive", func(t *testing.T) {
		f := newFixture()
		f.register(t, "alice@example.com")
		_, err := f.svc.Register(ctx, RegisterRequest{
			FirstName: "Al", LastName: "Ice", Email: "ALICE@example.com", Password: "secret1",
		})
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})

	t.Run("Reports Every Invalid Field", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Register(ctx, RegisterRequest{
			FirstName: "A", LastName: "", Email: "nope", Password: "123", Role: "boss",
		})
		var verrs validate.Errors
		require.ErrorAs(t, err, &verrs)

		params := map[string]bool{}
		for _, e := range verrs {
			params[e.Param] = true
		}
		for _, p := range []string{"firstName", "lastName", "email", "password", "role"} {
			assert.True(t, params[p], "expected error for %s", p)
		}
	})

	t.Run("Accepts Explicit Role", func(t *testing.T) {
		f := newFixture()
		u, err := f.svc.Register(ctx, RegisterRequest{
			FirstName: "Max", LastName: "Power", Email: "max@example.com", Password: "secret1", Role: "manager",
		})
		require.NoError(t, err)
		assert.Equal(t, auth.RoleManager, u.Role)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.register(t, "alice@example.com")

	t.Run("Success Updates Last Login", func(t *testing.T) {
		u, err := f.svc.Login(ctx, " ALICE@example.com", "secret1")
		require.NoError(t, err)
		require.NotNil(t, u.LastLogin)
		assert.True(t, u.LastLogin.Equal(f.clock))
	})

	t.Run("Wrong Password", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "alice@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unknown Email Gives Same Error", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "ghost@example.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Inactive User", func(t *testing.T) {
		g := newFixture()
		u := g.register(t, "bob@example.com")
		g.repo.users[u.ID].IsActive = false
		_, err := g.svc.Login(ctx, "bob@example.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown Email Is Silent", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.svc.ForgotPassword(ctx, "ghost@example.com"))
		assert.Empty(t, f.notifier.sent)
	})

	t.Run("Issue And Consume", func(t *testing.T) {
		f := newFixture()
		u := f.register(t, "alice@example.com")

		require.NoError(t, f.svc.ForgotPassword(ctx, "Alice@example.com"))
		require.Len(t, f.notifier.sent, 1)
		msg := f.notifier.sent[0]
		assert.Equal(t, "alice@example.com", msg.Email)
		assert.True(t, strings.HasPrefix(msg.ResetURL, "http://app.test/reset-password/"))
		assert.True(t, msg.ExpiresAt.Equal(f.clock.Add(ResetTokenTTL)))

		token := tokenFromURL(t, msg.ResetURL)
		assert.Len(t, token, 64)
		assert.NotEqual(t, token, f.repo.resetHash[u.ID], "only the hash is stored")

		require.NoError(t, f.svc.ResetPassword(ctx, token, "newpass1", "newpass1"))
		_, err := f.svc.Login(ctx, "alice@example.com", "newpass1")
		assert.NoError(t, err)

		err = f.svc.ResetPassword(ctx, token, "another1", "another1")
		assert.ErrorIs(t, err, ErrInvalidResetToken, "token is single use")
	})

	t.Run("New Request Replaces Old Token", func(t *testing.T) {
		f := newFixture()
		f.register(t, "alice@example.com")

		require.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))
		require.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))
		require.Len(t, f.notifier.sent, 2)

		first := tokenFromURL(t, f.notifier.sent[0].ResetURL)
		second := tokenFromURL(t, f.notifier.sent[1].ResetURL)
		assert.ErrorIs(t, f.svc.ResetPassword(ctx, first, "newpass1", "newpass1"), ErrInvalidResetToken)
		assert.NoError(t, f.svc.ResetPassword(ctx, second, "newpass1", "newpass1"))
	})

	t.Run("Expired Token", func(t *testing.T) {
		f := newFixture()
		f.register(t, "alice@example.com")
		require.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))
		token := tokenFromURL(t, f.notifier.sent[0].ResetURL)

		f.clock = f.clock.Add(ResetTokenTTL)
		assert.ErrorIs(t, f.svc.ResetPassword(ctx, token, "newpass1", "newpass1"), ErrInvalidResetToken)
	})

	t.Run("Mismatch", func(t *testing.T) {
		f := newFixture()
		err := f.svc.ResetPassword(ctx, "whatever", "newpass1", "newpass2")
		var verrs validate.Errors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, validate.Errors{
			{Param: "confirmPassword", Msg: "Password confirmation does not match password"},
		}, verrs)
	})

	t.Run("Short And Mismatched Reports Both", func(t *testing.T) {
		f := newFixture()
		err := f.svc.ResetPassword(ctx, "whatever", "123", "456")
		var verrs validate.Errors
		require.ErrorAs(t, err, &verrs)
		require.Len(t, verrs, 2)
		assert.Equal(t, "password", verrs[0].Param)
		assert.Equal(t, "confirmPassword", verrs[1].Param)
	})

	t.Run("Short Password", func(t *testing.T) {
		f := newFixture()
		err := f.svc.ResetPassword(ctx, "whatever", "123", "123")
		var verrs validate.Errors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("Notifier Failure Is Hidden", func(t *testing.T) {
		f := newFixture()
		f.register(t, "alice@example.com")
		f.notifier.err = errors.New("broker down")
		assert.NoError(t, f.svc.ForgotPassword(ctx, "alice@example.com"))
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	u := f.register(t, "alice@example.com")
	actor := u.Identity()

	t.Run("Wrong Current Password", func(t *testing.T) {
		err := f.svc.ChangePassword(ctx, actor, "wrong", "newpass1")
		assert.ErrorIs(t, err, ErrCurrentPasswordIncorrect)
	})

	t.Run("Short New Password", func(t *testing.T) {
		err := f.svc.ChangePassword(ctx, actor, "secret1", "123")
		var verrs validate.Errors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, f.svc.ChangePassword(ctx, actor, "secret1", "newpass1"))
		_, err := f.svc.Login(ctx, "alice@example.com", "newpass1")
		assert.NoError(t, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice@example.com")
	f.register(t, "bob@example.com")

	t.Run("Email Taken", func(t *testing.T) {
		email := "BOB@example.com"
		_, err := f.svc.UpdateProfile(ctx, alice.Identity(), UpdateProfileRequest{Email: &email})
		assert.ErrorIs(t, err, ErrEmailInUse)
	})

	t.Run("Updates Supplied Fields", func(t *testing.T) {
		first := " Alicia "
		u, err := f.svc.UpdateProfile(ctx, alice.Identity(), UpdateProfileRequest{FirstName: &first})
		require.NoError(t, err)
		assert.Equal(t, "Alicia", u.FirstName)
		assert.Equal(t, "Smith", u.LastName)
	})

	t.Run("Same Email Is Fine", func(t *testing.T) {
		email := "alice@example.com"
		_, err := f.svc.UpdateProfile(ctx, alice.Identity(), UpdateProfileRequest{Email: &email})
		assert.NoError(t, err)
	})
}

func TestLoadIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	u := f.register(t, "alice@example.com")

	id, err := f.svc.LoadIdentity(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: u.ID, Email: "alice@example.com", Role: auth.RoleSales}, id)

	_, err = f.svc.LoadIdentity(ctx, 999)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	f.repo.users[u.ID].IsActive = false
	_, err = f.svc.LoadIdentity(ctx, u.ID)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}
