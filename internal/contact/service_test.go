package contact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/organization"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

type memRepo struct {
	nextID     int64
	contacts   map[int64]*Contact
	dependents map[int64]bool
	patches    []Patch
	deleted    []int64
}

func newMemRepo() *memRepo {
	return &memRepo{contacts: map[int64]*Contact{}, dependents: map[int64]bool{}}
}

func (r *memRepo) Create(_ context.Context, c *Contact) error {
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.contacts[c.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*Contact, error) {
	c, ok := r.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memRepo) List(context.Context, Filter) ([]*Contact, int, error) { return nil, 0, nil }

func (r *memRepo) Update(_ context.Context, id int64, p Patch) error {
	c, ok := r.contacts[id]
	if !ok {
		return ErrNotFound
	}
	r.patches = append(r.patches, p)
	if p.OrganizationID.Set {
		c.OrganizationID = p.OrganizationID.Ptr()
	}
	if p.NextFollowUpDate.Set {
		c.NextFollowUpDate = p.NextFollowUpDate.Ptr()
	}
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memRepo) HasDependents(_ context.Context, id int64) (bool, error) {
	return r.dependents[id], nil
}

type knownOrgs struct {
	organization.Service
}

func (knownOrgs) GetByID(_ context.Context, id int64) (*organization.Organization, error) {
	if id != 20 {
		return nil, organization.ErrNotFound
	}
	return &organization.Organization{ID: id, Name: "Acme"}, nil
}

var (
	admin = auth.Identity{UserID: 1, Role: auth.RoleAdmin}
	sales = auth.Identity{UserID: 2, Role: auth.RoleSales}
)

func ptr[T any](v T) *T { return &v }

func TestCreateContact(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo, knownOrgs{})

		c, err := svc.Create(ctx, sales, CreateContactRequest{
			FirstName: " Jane ", LastName: "Doe", Email: " JANE@Example.com ",
		})
		require.NoError(t, err)
		assert.Equal(t, "Jane", c.FirstName)
		assert.Equal(t, "jane@example.com", c.Email)
		assert.Equal(t, StatusProspect, c.Status)
		assert.Equal(t, crm.SourceOther, c.Source)
		assert.Equal(t, crm.PriorityMedium, c.Priority)
		assert.Equal(t, sales.UserID, c.AssignedUserID)
	})

	t.Run("Invalid Fields", func(t *testing.T) {
		svc := NewService(newMemRepo(), knownOrgs{})
		_, err := svc.Create(ctx, sales, CreateContactRequest{
			Email:       "nope",
			Status:      "lead",
			Source:      "tv",
			Priority:    "critical",
			SocialMedia: &crm.SocialProfiles{LinkedIn: "linkedin.com/in/jane"},
		})
		var verrs validate.Errors
		require.ErrorAs(t, err, &verrs)
		var params []string
		for _, e := range verrs {
			params = append(params, e.Param)
		}
		assert.ElementsMatch(t, []string{
			"firstName", "lastName", "email", "status", "source", "priority", "socialMedia.linkedin",
		}, params)
	})

	t.Run("Unknown Organization", func(t *testing.T) {
		repo := newMemRepo()
		svc := NewService(repo, knownOrgs{})
		_, err := svc.Create(ctx, sales, CreateContactRequest{
			FirstName: "Jane", LastName: "Doe", OrganizationID: ptr(int64(99)),
		})
		assert.ErrorIs(t, err, organization.ErrNotFound)
		assert.Empty(t, repo.contacts)
	})
}

func TestUpdateContact(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, knownOrgs{})
	c, err := svc.Create(ctx, sales, CreateContactRequest{
		FirstName: "Jane", LastName: "Doe", OrganizationID: ptr(int64(20)),
	})
	require.NoError(t, err)

	t.Run("Clear Organization", func(t *testing.T) {
		got, err := svc.Update(ctx, sales, c.ID, UpdateContactRequest{OrganizationID: null.Null[int64]()})
		require.NoError(t, err)
		assert.Nil(t, got.OrganizationID)
	})

	t.Run("Email Is Normalized", func(t *testing.T) {
		_, err := svc.Update(ctx, sales, c.ID, UpdateContactRequest{Email: ptr("  Jane.Doe@Example.COM ")})
		require.NoError(t, err)
		last := repo.patches[len(repo.patches)-1]
		require.NotNil(t, last.Email)
		assert.Equal(t, "jane.doe@example.com", *last.Email)
	})

	t.Run("Set Follow Up", func(t *testing.T) {
		when := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
		got, err := svc.Update(ctx, sales, c.ID, UpdateContactRequest{NextFollowUpDate: null.From(when)})
		require.NoError(t, err)
		require.NotNil(t, got.NextFollowUpDate)
		assert.True(t, got.NextFollowUpDate.Equal(when))
	})

	t.Run("Unknown Organization", func(t *testing.T) {
		_, err := svc.Update(ctx, sales, c.ID, UpdateContactRequest{OrganizationID: null.From(int64(7))})
		assert.ErrorIs(t, err, organization.ErrNotFound)
	})

	t.Run("Missing Contact", func(t *testing.T) {
		_, err := svc.Update(ctx, sales, 404, UpdateContactRequest{FirstName: ptr("Jo")})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteContact(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo, knownOrgs{})
	c, _ := svc.Create(ctx, sales, CreateContactRequest{FirstName: "Jane", LastName: "Doe"})

	assert.ErrorIs(t, svc.Delete(ctx, sales, c.ID), auth.ErrForbidden)

	repo.dependents[c.ID] = true
	assert.ErrorIs(t, svc.Delete(ctx, admin, c.ID), ErrHasDependents)

	repo.dependents[c.ID] = false
	require.NoError(t, svc.Delete(ctx, admin, c.ID))
	assert.Equal(t, []int64{c.ID}, repo.deleted)

	assert.ErrorIs(t, svc.Delete(ctx, admin, 999), ErrNotFound)
}
