package task

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/nekogravitycat/crm-backend/internal/db"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
)

// Repository defines methods for accessing task data.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id int64) (*Task, error)
	List(ctx context.Context, filter Filter) ([]*Task, int, error)
	Update(ctx context.Context, id int64, patch Patch) error
	Delete(ctx context.Context, id int64) error
	Dashboard(ctx context.Context, now, dayStart, dayEnd time.Time) (*Dashboard, error)
}

type pgxRepository struct {
	pool db.DBTX
}

// NewPgxRepository creates a new task repository.
func NewPgxRepository(pool db.DBTX) Repository {
	return &pgxRepository{pool: pool}
}

const fromTasks = "tasks t"

var selectColumns = []string{
	"t.id", "t.title", "t.description", "t.status", "t.priority", "t.due_date", "t.completed_date",
	"t.estimated_hours::float8", "t.actual_hours::float8", "t.tags", "t.notes",
	"t.assigned_user_id", "t.created_by_user_id", "t.contact_id", "t.deal_id", "t.organization_id",
	"t.created_at", "t.updated_at",
	"au.first_name", "au.last_name",
	"cu.first_name", "cu.last_name",
	"c.first_name", "c.last_name", "c.email",
	"d.title",
	"o.name",
}

func selectTasks() squirrel.SelectBuilder {
	return db.Psql.Select(selectColumns...).
		From(fromTasks).
		LeftJoin("users au ON au.id = t.assigned_user_id").
		LeftJoin("users cu ON cu.id = t.created_by_user_id").
		LeftJoin("contacts c ON c.id = t.contact_id").
		LeftJoin("deals d ON d.id = t.deal_id").
		LeftJoin("organizations o ON o.id = t.organization_id")
}

func scanTask(row pgx.Row) (*Task, error) {
	var (
		t                                Task
		tags                             []byte
		assignedFirst, assignedLast      *string
		creatorFirst, creatorLast        *string
		contactFirst, contactLast, email *string
		dealTitle, orgName               *string
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.CompletedDate,
		&t.EstimatedHours, &t.ActualHours, &tags, &t.Notes,
		&t.AssignedUserID, &t.CreatedByUserID, &t.ContactID, &t.DealID, &t.OrganizationID,
		&t.CreatedAt, &t.UpdatedAt,
		&assignedFirst, &assignedLast,
		&creatorFirst, &creatorLast,
		&contactFirst, &contactLast, &email,
		&dealTitle,
		&orgName,
	)
	if err != nil {
		return nil, err
	}

	if err := crm.DecodeJSON(tags, &t.Tags); err != nil {
		return nil, err
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.AssignedUser = crm.NewUserRef(&t.AssignedUserID, assignedFirst, assignedLast)
	t.CreatedBy = crm.NewUserRef(t.CreatedByUserID, creatorFirst, creatorLast)
	t.Contact = crm.NewContactRef(t.ContactID, contactFirst, contactLast, email)
	t.Deal = crm.NewDealRef(t.DealID, dealTitle)
	t.Organization = crm.NewOrganizationRef(t.OrganizationID, orgName)
	return &t, nil
}

func (r *pgxRepository) Create(ctx context.Context, t *Task) error {
	tags, err := crm.JSON(t.Tags)
	if err != nil {
		return err
	}

	query, args, err := db.Psql.Insert("tasks").
		Columns(
			"title", "description", "status", "priority", "due_date", "completed_date",
			"estimated_hours", "actual_hours", "tags", "notes",
			"assigned_user_id", "created_by_user_id", "contact_id", "deal_id", "organization_id",
		).
		Values(
			t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.CompletedDate,
			t.EstimatedHours, t.ActualHours, tags, t.Notes,
			t.AssignedUserID, t.CreatedByUserID, t.ContactID, t.DealID, t.OrganizationID,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create task query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("create task failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Task, error) {
	query, args, err := selectTasks().
		Where(squirrel.Eq{"t.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get task query failed: %w", err)
	}

	t, err := scanTask(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByID failed: %w", err)
	}
	return t, nil
}

func filterConditions(f Filter) squirrel.And {
	where := squirrel.And{}
	if f.Status != "" {
		where = append(where, squirrel.Eq{"t.status": f.Status})
	}
	if f.Priority != "" {
		where = append(where, squirrel.Eq{"t.priority": f.Priority})
	}
	if f.AssignedUserID > 0 {
		where = append(where, squirrel.Eq{"t.assigned_user_id": f.AssignedUserID})
	}
	if f.ContactID > 0 {
		where = append(where, squirrel.Eq{"t.contact_id": f.ContactID})
	}
	if f.DealID > 0 {
		where = append(where, squirrel.Eq{"t.deal_id": f.DealID})
	}
	if f.OrganizationID > 0 {
		where = append(where, squirrel.Eq{"t.organization_id": f.OrganizationID})
	}
	if f.Search != "" {
		where = append(where, db.SearchAny(f.Search, "t.title", "t.description"))
	}
	return where
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Task, int, error) {
	where := filterConditions(filter)

	total, err := db.Count(ctx, r.pool, fromTasks, where)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := selectTasks().
		Where(where).
		OrderBy("t.due_date ASC", "t.id ASC").
		Limit(uint64(filter.Limit)).
		Offset(filter.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list tasks query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("List failed: %w", err)
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan failed: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List failed: %w", err)
	}

	return tasks, total, nil
}

func (p Patch) columns() (map[string]any, error) {
	set := map[string]any{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	if p.DueDate.Set {
		set["due_date"] = p.DueDate.Ptr()
	}
	if p.CompletedDate.Set {
		set["completed_date"] = p.CompletedDate.Ptr()
	}
	if p.EstimatedHours.Set {
		set["estimated_hours"] = p.EstimatedHours.Ptr()
	}
	if p.ActualHours.Set {
		set["actual_hours"] = p.ActualHours.Ptr()
	}
	if p.Tags != nil {
		b, err := crm.JSON(*p.Tags)
		if err != nil {
			return nil, err
		}
		set["tags"] = b
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	if p.ContactID.Set {
		set["contact_id"] = p.ContactID.Ptr()
	}
	if p.DealID.Set {
		set["deal_id"] = p.DealID.Ptr()
	}
	if p.OrganizationID.Set {
		set["organization_id"] = p.OrganizationID.Ptr()
	}
	return set, nil
}

func (r *pgxRepository) Update(ctx context.Context, id int64, patch Patch) error {
	set, err := patch.columns()
	if err != nil {
		return err
	}
	set["updated_at"] = squirrel.Expr("now()")

	query, args, err := db.Psql.Update("tasks").
		SetMap(set).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update task query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("Update failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := db.Psql.Delete("tasks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete task query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("Delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var openTask = squirrel.NotEq{"status": []Status{StatusCompleted, StatusCancelled}}

func (r *pgxRepository) Dashboard(ctx context.Context, now, dayStart, dayEnd time.Time) (*Dashboard, error) {
	query, args, err := db.Psql.Select("status", "count(*)").
		From("tasks").
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build dashboard query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Dashboard failed: %w", err)
	}
	defer rows.Close()

	out := &Dashboard{Summary: []StatusCount{}}
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out.Summary = append(out.Summary, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Dashboard failed: %w", err)
	}
	slices.SortFunc(out.Summary, func(a, b StatusCount) int {
		return slices.Index(Statuses, a.Status) - slices.Index(Statuses, b.Status)
	})

	out.OverdueTasks, err = db.Count(ctx, r.pool, "tasks", squirrel.And{
		squirrel.Lt{"due_date": now},
		openTask,
	})
	if err != nil {
		return nil, err
	}

	out.TodayTasks, err = db.Count(ctx, r.pool, "tasks", squirrel.And{
		squirrel.Expr("due_date BETWEEN ? AND ?", dayStart, dayEnd),
		openTask,
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
