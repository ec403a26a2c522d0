package organization

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/nekogravitycat/crm-backend/internal/db"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
)

// Repository defines methods for accessing organization data.
type Repository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id int64) (*Organization, error)
	List(ctx context.Context, filter Filter) ([]*Organization, int, error)
	Update(ctx context.Context, id int64, patch Patch) error
	Delete(ctx context.Context, id int64) error
	HasDependents(ctx context.Context, id int64) (bool, error)
}

type pgxRepository struct {
	pool db.DBTX
}

// NewPgxRepository creates a new organization repository.
func NewPgxRepository(pool db.DBTX) Repository {
	return &pgxRepository{pool: pool}
}

const fromOrganizations = "organizations o"

var selectColumns = []string{
	"o.id", "o.name", "o.description", "o.industry", "o.website", "o.phone", "o.email",
	"o.address", "o.size", "o.status", "o.revenue", "o.employees", "o.tags",
	"o.social_profiles", "o.notes", "o.assigned_user_id", "o.created_at", "o.updated_at",
	"u.first_name", "u.last_name",
}

func selectOrganizations() squirrel.SelectBuilder {
	return db.Psql.Select(selectColumns...).
		From(fromOrganizations).
		LeftJoin("users u ON u.id = o.assigned_user_id")
}

func scanOrganization(row pgx.Row) (*Organization, error) {
	var (
		o                     Organization
		address, tags, social []byte
		userFirst, userLast   *string
	)
	err := row.Scan(
		&o.ID, &o.Name, &o.Description, &o.Industry, &o.Website, &o.Phone, &o.Email,
		&address, &o.Size, &o.Status, &o.Revenue, &o.Employees, &tags,
		&social, &o.Notes, &o.AssignedUserID, &o.CreatedAt, &o.UpdatedAt,
		&userFirst, &userLast,
	)
	if err != nil {
		return nil, err
	}

	if err := crm.DecodeJSON(address, &o.Address); err != nil {
		return nil, err
	}
	if err := crm.DecodeJSON(social, &o.SocialProfiles); err != nil {
		return nil, err
	}
	if err := crm.DecodeJSON(tags, &o.Tags); err != nil {
		return nil, err
	}
	if o.Tags == nil {
		o.Tags = []string{}
	}
	o.AssignedUser = crm.NewUserRef(&o.AssignedUserID, userFirst, userLast)
	return &o, nil
}

func (r *pgxRepository) Create(ctx context.Context, org *Organization) error {
	address, err := crm.JSON(org.Address)
	if err != nil {
		return err
	}
	social, err := crm.JSON(org.SocialProfiles)
	if err != nil {
		return err
	}
	tags, err := crm.JSON(org.Tags)
	if err != nil {
		return err
	}

	query, args, err := db.Psql.Insert("organizations").
		Columns(
			"name", "description", "industry", "website", "phone", "email", "address",
			"size", "status", "revenue", "employees", "tags", "social_profiles", "notes",
			"assigned_user_id",
		).
		Values(
			org.Name, org.Description, org.Industry, org.Website, org.Phone, org.Email, address,
			org.Size, org.Status, org.Revenue, org.Employees, tags, social, org.Notes,
			org.AssignedUserID,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create organization query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return fmt.Errorf("create organization failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Organization, error) {
	query, args, err := selectOrganizations().
		Where(squirrel.Eq{"o.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get organization query failed: %w", err)
	}

	org, err := scanOrganization(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByID failed: %w", err)
	}
	return org, nil
}

func filterConditions(f Filter) squirrel.And {
	where := squirrel.And{}
	if f.Status != "" {
		where = append(where, squirrel.Eq{"o.status": f.Status})
	}
	if f.Size != "" {
		where = append(where, squirrel.Eq{"o.size": f.Size})
	}
	if f.Industry != "" {
		where = append(where, squirrel.Eq{"o.industry": f.Industry})
	}
	if f.AssignedUserID > 0 {
		where = append(where, squirrel.Eq{"o.assigned_user_id": f.AssignedUserID})
	}
	if f.Search != "" {
		where = append(where, db.SearchAny(f.Search, "o.name", "o.email", "o.industry"))
	}
	return where
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Organization, int, error) {
	where := filterConditions(filter)

	total, err := db.Count(ctx, r.pool, fromOrganizations, where)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := selectOrganizations().
		Where(where).
		OrderBy("o.created_at DESC", "o.id DESC").
		Limit(uint64(filter.Limit)).
		Offset(filter.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list organizations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("List failed: %w", err)
	}
	defer rows.Close()

	orgs := []*Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan failed: %w", err)
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List failed: %w", err)
	}

	return orgs, total, nil
}

func (p Patch) columns() (map[string]any, error) {
	set := map[string]any{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Industry != nil {
		set["industry"] = *p.Industry
	}
	if p.Website != nil {
		set["website"] = *p.Website
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Address.Set {
		b, err := crm.JSON(p.Address.Ptr())
		if err != nil {
			return nil, err
		}
		set["address"] = b
	}
	if p.Size != nil {
		set["size"] = *p.Size
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.Revenue.Set {
		set["revenue"] = p.Revenue.Ptr()
	}
	if p.Employees.Set {
		set["employees"] = p.Employees.Ptr()
	}
	if p.Tags != nil {
		b, err := crm.JSON(*p.Tags)
		if err != nil {
			return nil, err
		}
		set["tags"] = b
	}
	if p.SocialProfiles.Set {
		b, err := crm.JSON(p.SocialProfiles.Ptr())
		if err != nil {
			return nil, err
		}
		set["social_profiles"] = b
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	return set, nil
}

func (r *pgxRepository) Update(ctx context.Context, id int64, patch Patch) error {
	set, err := patch.columns()
	if err != nil {
		return err
	}
	set["updated_at"] = squirrel.Expr("now()")

	query, args, err := db.Psql.Update("organizations").
		SetMap(set).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update organization query failed: %w", err)
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
	query, args, err := db.Psql.Delete("organizations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete organization query failed: %w", err)
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

const hasDependentsQuery = `SELECT EXISTS (SELECT 1 FROM contacts WHERE organization_id = $1)
	OR EXISTS (SELECT 1 FROM deals WHERE organization_id = $1)
	OR EXISTS (SELECT 1 FROM tasks WHERE organization_id = $1)`

func (r *pgxRepository) HasDependents(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, hasDependentsQuery, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check organization dependents failed: %w", err)
	}
	return exists, nil
}
