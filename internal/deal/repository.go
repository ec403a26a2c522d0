package deal

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/nekogravitycat/crm-backend/internal/db"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
)

// Repository defines methods for accessing deal data.
type Repository interface {
	Create(ctx context.Context, d *Deal) error
	GetByID(ctx context.Context, id int64) (*Deal, error)
	List(ctx context.Context, filter Filter) ([]*Deal, int, error)
	Update(ctx context.Context, id int64, patch Patch) error
	Delete(ctx context.Context, id int64) error
	HasDependents(ctx context.Context, id int64) (bool, error)
	Pipeline(ctx context.Context) ([]StageSummary, error)
}

type pgxRepository struct {
	pool db.DBTX
}

// NewPgxRepository creates a new deal repository.
func NewPgxRepository(pool db.DBTX) Repository {
	return &pgxRepository{pool: pool}
}

const fromDeals = "deals d"

var selectColumns = []string{
	"d.id", "d.title", "d.description", "d.value::float8", "d.currency", "d.stage", "d.probability",
	"d.expected_close_date", "d.actual_close_date", "d.source", "d.priority", "d.tags", "d.notes",
	"d.custom_fields", "d.assigned_user_id", "d.contact_id", "d.organization_id",
	"d.created_at", "d.updated_at",
	"u.first_name", "u.last_name",
	"c.first_name", "c.last_name", "c.email",
	"o.name",
}

func selectDeals() squirrel.SelectBuilder {
	return db.Psql.Select(selectColumns...).
		From(fromDeals).
		LeftJoin("users u ON u.id = d.assigned_user_id").
		LeftJoin("contacts c ON c.id = d.contact_id").
		LeftJoin("organizations o ON o.id = d.organization_id")
}

func scanDeal(row pgx.Row) (*Deal, error) {
	var (
		d                                Deal
		tags, custom                     []byte
		userFirst, userLast              *string
		contactFirst, contactLast, email *string
		orgName                          *string
	)
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.Value, &d.Currency, &d.Stage, &d.Probability,
		&d.ExpectedCloseDate, &d.ActualCloseDate, &d.Source, &d.Priority, &tags, &d.Notes,
		&custom, &d.AssignedUserID, &d.ContactID, &d.OrganizationID,
		&d.CreatedAt, &d.UpdatedAt,
		&userFirst, &userLast,
		&contactFirst, &contactLast, &email,
		&orgName,
	)
	if err != nil {
		return nil, err
	}

	if err := crm.DecodeJSON(tags, &d.Tags); err != nil {
		return nil, err
	}
	if err := crm.DecodeJSON(custom, &d.CustomFields); err != nil {
		return nil, err
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	d.AssignedUser = crm.NewUserRef(&d.AssignedUserID, userFirst, userLast)
	d.Contact = crm.NewContactRef(d.ContactID, contactFirst, contactLast, email)
	d.Organization = crm.NewOrganizationRef(d.OrganizationID, orgName)
	return &d, nil
}

func (r *pgxRepository) Create(ctx context.Context, d *Deal) error {
	tags, err := crm.JSON(d.Tags)
	if err != nil {
		return err
	}
	custom, err := crm.JSON(d.CustomFields)
	if err != nil {
		return err
	}

	query, args, err := db.Psql.Insert("deals").
		Columns(
			"title", "description", "value", "currency", "stage", "probability",
			"expected_close_date", "actual_close_date", "source", "priority", "tags", "notes",
			"custom_fields", "assigned_user_id", "contact_id", "organization_id",
		).
		Values(
			d.Title, d.Description, d.Value, d.Currency, d.Stage, d.Probability,
			d.ExpectedCloseDate, d.ActualCloseDate, d.Source, d.Priority, tags, d.Notes,
			custom, d.AssignedUserID, d.ContactID, d.OrganizationID,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create deal query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return fmt.Errorf("create deal failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Deal, error) {
	query, args, err := selectDeals().
		Where(squirrel.Eq{"d.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get deal query failed: %w", err)
	}

	d, err := scanDeal(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByID failed: %w", err)
	}
	return d, nil
}

func filterConditions(f Filter) squirrel.And {
	where := squirrel.And{}
	if f.Stage != "" {
		where = append(where, squirrel.Eq{"d.stage": f.Stage})
	}
	if f.Priority != "" {
		where = append(where, squirrel.Eq{"d.priority": f.Priority})
	}
	if f.Source != "" {
		where = append(where, squirrel.Eq{"d.source": f.Source})
	}
	if f.AssignedUserID > 0 {
		where = append(where, squirrel.Eq{"d.assigned_user_id": f.AssignedUserID})
	}
	if f.ContactID > 0 {
		where = append(where, squirrel.Eq{"d.contact_id": f.ContactID})
	}
	if f.OrganizationID > 0 {
		where = append(where, squirrel.Eq{"d.organization_id": f.OrganizationID})
	}
	if f.Search != "" {
		where = append(where, db.SearchAny(f.Search, "d.title", "d.description"))
	}
	return where
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Deal, int, error) {
	where := filterConditions(filter)

	total, err := db.Count(ctx, r.pool, fromDeals, where)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := selectDeals().
		Where(where).
		OrderBy("d.expected_close_date ASC", "d.id ASC").
		Limit(uint64(filter.Limit)).
		Offset(filter.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list deals query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("List failed: %w", err)
	}
	defer rows.Close()

	deals := []*Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan failed: %w", err)
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List failed: %w", err)
	}

	return deals, total, nil
}

func (p Patch) columns() (map[string]any, error) {
	set := map[string]any{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Value != nil {
		set["value"] = *p.Value
	}
	if p.Currency != nil {
		set["currency"] = *p.Currency
	}
	if p.Stage != nil {
		set["stage"] = *p.Stage
	}
	if p.Probability != nil {
		set["probability"] = *p.Probability
	}
	if p.ExpectedCloseDate.Set {
		set["expected_close_date"] = p.ExpectedCloseDate.Ptr()
	}
	if p.ActualCloseDate.Set {
		set["actual_close_date"] = p.ActualCloseDate.Ptr()
	}
	if p.Source != nil {
		set["source"] = *p.Source
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
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
	if p.CustomFields.Set {
		b, err := crm.JSON(p.CustomFields.Ptr())
		if err != nil {
			return nil, err
		}
		set["custom_fields"] = b
	}
	if p.ContactID.Set {
		set["contact_id"] = p.ContactID.Ptr()
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

	query, args, err := db.Psql.Update("deals").
		SetMap(set).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update deal query failed: %w", err)
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
	query, args, err := db.Psql.Delete("deals").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete deal query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasDependents
		}
		return fmt.Errorf("Delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const hasDependentsQuery = `SELECT EXISTS (SELECT 1 FROM tasks WHERE deal_id = $1)`

func (r *pgxRepository) HasDependents(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, hasDependentsQuery, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check deal dependents failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) Pipeline(ctx context.Context) ([]StageSummary, error) {
	query, args, err := db.Psql.Select("stage", "count(*)", "COALESCE(sum(value), 0)::float8").
		From("deals").
		GroupBy("stage").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pipeline query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Pipeline failed: %w", err)
	}
	defer rows.Close()

	summary := []StageSummary{}
	for rows.Next() {
		var s StageSummary
		if err := rows.Scan(&s.Stage, &s.Count, &s.TotalValue); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		summary = append(summary, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Pipeline failed: %w", err)
	}

	slices.SortFunc(summary, func(a, b StageSummary) int {
		return a.Stage.position() - b.Stage.position()
	})
	return summary, nil
}
