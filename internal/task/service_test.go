package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/contact"
	"github.com/nekogravitycat/crm-backend/internal/deal"
	"github.com/nekogravitycat/crm-backend/internal/organization"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

type memRepo struct {
	nextID  int64
	tasks   map[int64]*Task
	patches []Patch

	dashNow, dashStart, dashEnd time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{tasks: map[int64]*Task{}}
}

func (r *memRepo) Create(_ context.Context, t *Task) error {
	r.nextID++
	t.ID = r.nextID
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memRepo) List(context.Context, Filter) ([]*Task, int, error) { return nil, 0, nil }

func (r *memRepo) Update(_ context.Context, id int64, p Patch) error {
	t, ok := r.tasks[id]
	if !ok {
		return ErrNotFound
	}
	r.patches = append(r.patches, p)
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.CompletedDate.Set {
		t.CompletedDate = p.CompletedDate.Ptr()
	}
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *memRepo) Dashboard(_ context.Context, now, start, end time.Time) (*Dashboard, error) {
	r.dashNow, r.dashStart, r.dashEnd = now, start, end
	return &Dashboard{Summary: []StatusCount{}}, nil
}

type knownContacts struct {
	contact.Service
}

func (knownContacts) GetByID(_ context.Context, id int64) (*contact.Contact, error) {
	if id != 10 {
		return nil, contact.ErrNotFound
	}
	return &contact.Contact{ID: id}, nil
}

type knownDeals struct {
	deal.Service
}

func (knownDeals) GetByID(_ context.Context, id int64) (*deal.Deal, error) {
	if id != 30 {
		return nil, deal.ErrNotFound
	}
	return &deal.Deal{ID: id}, nil
}

type knownOrgs struct {
	organization.Service
}

func (knownOrgs) GetByID(_ context.Context, id int64) (*organization.Organization, error) {
	if id != 20 {
		return nil, organization.ErrNotFound
	}
	return &organization.Organization{ID: id}, nil
}

var (
	manager = auth.Identity{UserID: 2, Role: auth.RoleManager}
	sales   = auth.Identity{UserID: 5, Role: auth.RoleSales}
	clock   = time.Date(2024, 6, 3, 15, 4, 5, 0, time.Local)
)

func newTestService() (*service, *memRepo) {
	repo := newMemRepo()
	svc := NewService(repo, knownContacts{}, knownDeals{}, knownOrgs{}).(*service)
	svc.now = func() time.Time { return clock }
	return svc, repo
}

func ptr[T any](v T) *T { return &v }

func TestCreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("Creator And Assignee Are The Caller", func(t *testing.T) {
		svc, _ := newTestService()
		task, err := svc.Create(ctx, sales, CreateTaskRequest{Title: "Call back"})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, task.Status)
		assert.Equal(t, sales.UserID, task.AssignedUserID)
		require.NotNil(t, task.CreatedByUserID)
		assert.Equal(t, sales.UserID, *task.CreatedByUserID)
		assert.Nil(t, task.CompletedDate)
	})

	t.Run("Created Completed Gets Date", func(t *testing.T) {
		svc, _ := newTestService()
		task, err := svc.Create(ctx, sales, CreateTaskRequest{Title: "Done", Status: "completed"})
		require.NoError(t, err)
		require.NotNil(t, task.CompletedDate)
		assert.True(t, task.CompletedDate.Equal(clock))
	})

	t.Run("Invalid Fields", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Create(ctx, sales, CreateTaskRequest{
			Status:         "blocked",
			Priority:       "asap",
			EstimatedHours: ptr(-2.0),
			ActualHours:    ptr(-1.0),
		})
		var verrs validate.Errors
		require.ErrorAs(t, err, &verrs)
		var params []string
		for _, e := range verrs {
			params = append(params, e.Param)
		}
		assert.ElementsMatch(t, []string{"title", "status", "priority", "estimatedHours", "actualHours"}, params)
	})

	t.Run("References Checked", func(t *testing.T) {
		svc, repo := newTestService()

		_, err := svc.Create(ctx, sales, CreateTaskRequest{Title: "T", ContactID: ptr(int64(1))})
		assert.ErrorIs(t, err, contact.ErrNotFound)
		_, err = svc.Create(ctx, sales, CreateTaskRequest{Title: "T", DealID: ptr(int64(1))})
		assert.ErrorIs(t, err, deal.ErrNotFound)
		_, err = svc.Create(ctx, sales, CreateTaskRequest{Title: "T", OrganizationID: ptr(int64(1))})
		assert.ErrorIs(t, err, organization.ErrNotFound)
		assert.Empty(t, repo.tasks)

		_, err = svc.Create(ctx, sales, CreateTaskRequest{
			Title: "T", ContactID: ptr(int64(10)), DealID: ptr(int64(30)), OrganizationID: ptr(int64(20)),
		})
		assert.NoError(t, err)
	})
}

func TestUpdateTaskCompletion(t *testing.T) {
	ctx := context.Background()

	t.Run("Completing Stamps Date", func(t *testing.T) {
		svc, _ := newTestService()
		task, _ := svc.Create(ctx, sales, CreateTaskRequest{Title: "T"})

		got, err := svc.Update(ctx, sales, task.ID, UpdateTaskRequest{Status: ptr("completed")})
		require.NoError(t, err)
		require.NotNil(t, got.CompletedDate)
		assert.True(t, got.CompletedDate.Equal(clock))
	})

	t.Run("Caller Date Wins", func(t *testing.T) {
		svc, _ := newTestService()
		task, _ := svc.Create(ctx, sales, CreateTaskRequest{Title: "T"})
		given := clock.Add(-48 * time.Hour)

		got, err := svc.Update(ctx, sales, task.ID, UpdateTaskRequest{
			Status:        ptr("completed"),
			CompletedDate: null.From(given),
		})
		require.NoError(t, err)
		assert.True(t, got.CompletedDate.Equal(given))
	})

	t.Run("Already Completed", func(t *testing.T) {
		svc, repo := newTestService()
		task, _ := svc.Create(ctx, sales, CreateTaskRequest{Title: "T", Status: "completed"})

		_, err := svc.Update(ctx, sales, task.ID, UpdateTaskRequest{Status: ptr("completed")})
		require.NoError(t, err)
		assert.False(t, repo.patches[0].CompletedDate.Set)
	})

	t.Run("Other Status", func(t *testing.T) {
		svc, repo := newTestService()
		task, _ := svc.Create(ctx, sales, CreateTaskRequest{Title: "T"})

		_, err := svc.Update(ctx, sales, task.ID, UpdateTaskRequest{Status: ptr("in_progress")})
		require.NoError(t, err)
		assert.False(t, repo.patches[0].CompletedDate.Set)
	})

	t.Run("Negative Hours", func(t *testing.T) {
		svc, _ := newTestService()
		task, _ := svc.Create(ctx, sales, CreateTaskRequest{Title: "T"})

		_, err := svc.Update(ctx, sales, task.ID, UpdateTaskRequest{ActualHours: null.From(-3.0)})
		var verrs validate.Errors
		assert.ErrorAs(t, err, &verrs)
	})

	t.Run("Hours Beyond Column Range", func(t *testing.T) {
		svc, repo := newTestService()
		task, _ := svc.Create(ctx, sales, CreateTaskRequest{Title: "T"})

		_, err := svc.Update(ctx, sales, task.ID, UpdateTaskRequest{
			EstimatedHours: null.From(1000.0),
			ActualHours:    null.From(999.99),
		})
		var verrs validate.Errors
		require.ErrorAs(t, err, &verrs)
		require.Len(t, verrs, 1)
		assert.Equal(t, "estimatedHours", verrs[0].Param)
		assert.Empty(t, repo.patches)
	})
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	task, _ := svc.Create(ctx, sales, CreateTaskRequest{Title: "T"})

	assert.ErrorIs(t, svc.Delete(ctx, sales, task.ID), auth.ErrForbidden)
	assert.Len(t, repo.tasks, 1)

	require.NoError(t, svc.Delete(ctx, manager, task.ID))
	assert.Empty(t, repo.tasks)

	assert.ErrorIs(t, svc.Delete(ctx, manager, task.ID), ErrNotFound)
}

func TestDashboardUsesLocalDay(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.True(t, repo.dashNow.Equal(clock))
	assert.True(t, repo.dashStart.Equal(time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local)))
	assert.True(t, repo.dashEnd.Equal(time.Date(2024, 6, 3, 23, 59, 59, int(999*time.Millisecond), time.Local)))
}

func TestDayBounds(t *testing.T) {
	start, end := dayBounds(time.Date(2024, 12, 31, 23, 59, 59, 0, time.Local))
	assert.True(t, start.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, 24*time.Hour-time.Millisecond, end.Sub(start))
}
