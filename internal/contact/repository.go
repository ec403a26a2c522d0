package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/nekogravitycat/crm-backend/internal/db"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
)

// Repository defines methods for accessing contact data.
type Repository interface {
	Create(ctx context.Context, c *Contact) error
	GetByID(ctx context.Context, id int64) (*Contact, error)
	List(ctx context.Context, filter Filter) ([]*Contact, int, error)
	Update(ctx context.Context, id int64, patch Patch) error
	Delete(ctx context.Context, id int64) error
	HasDependents(ctx context.Context, id int64) (bool, error)
}

type pgxRepository struct {
	pool db.DBTX
}

// NewPgxRepository creates a new contact repository.
func NewPgxRepository(pool db.DBTX) Repository {
	return &pgxRepository{pool: pool}
}

const fromContacts = "contacts c"

var selectColumns = []string{
	"c.id", "c.first_name", "c.last_name", "c.email", "c.phone", "c.position", "c.department",
	"c.status", "c.source", "c.priority", "c.tags", "c.notes", "c.address", "c.social_media",
	"c.last_contact_date", "c.next_follow_up_date", "c.assigned_user_id", "c.organization_id",
	"c.created_at", "c.updated_at",
	"u.first_name", "u.last_name", "o.name",
}

func selectContacts() squirrel.SelectBuilder {
	return db.Psql.Select(selectColumns...).
		From(fromContacts).
		LeftJoin("users u ON u.id = c.assigned_user_id").
		LeftJoin("organizations o ON o.id = c.organization_id")
}

func scanContact(row pgx.Row) (*Contact, error) {
	var (
		c                     Contact
		tags, address, social []byte
		userFirst, userLast   *string
		orgName               *string
	)
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Position, &c.Department,
		&c.Status, &c.Source, &c.Priority, &tags, &c.Notes, &address, &social,
		&c.LastContactDate, &c.NextFollowUpDate, &c.AssignedUserID, &c.OrganizationID,
		&c.CreatedAt, &c.UpdatedAt,
		&userFirst, &userLast, &orgName,
	)
	if err != nil {
		return nil, err
	}

	if err := crm.DecodeJSON(tags, &c.Tags); err != nil {
		return nil, err
	}
	if err := crm.DecodeJSON(address, &c.Address); err != nil {
		return nil, err
	}
	if err := crm.DecodeJSON(social, &c.SocialMedia); err != nil {
		return nil, err
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.AssignedUser = crm.NewUserRef(&c.AssignedUserID, userFirst, userLast)
	c.Organization = crm.NewOrganizationRef(c.OrganizationID, orgName)
	return &c, nil
}

func (r *pgxRepository) Create(ctx context.Context, c *Contact) error {
	tags, err := crm.JSON(c.Tags)
	if err != nil {
		return err
	}
	address, err := crm.JSON(c.Address)
	if err != nil {
		return err
	}
	social, err := crm.JSON(c.SocialMedia)
	if err != nil {
		return err
	}

	query, args, err := db.Psql.Insert("contacts").
		Columns(
			"first_name", "last_name", "email", "phone", "position", "department",
			"status", "source", "priority", "tags", "notes", "address", "social_media",
			"last_contact_date", "next_follow_up_date", "assigned_user_id", "organization_id",
		).
		Values(
			c.FirstName, c.LastName, c.Email, c.Phone, c.Position, c.Department,
			c.Status, c.Source, c.Priority, tags, c.Notes, address, social,
			c.LastContactDate, c.NextFollowUpDate, c.AssignedUserID, c.OrganizationID,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create contact query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("create contact failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Contact, error) {
	query, args, err := selectContacts().
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get contact query failed: %w", err)
	}

	c, err := scanContact(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("GetByID failed: %w", err)
	}
	return c, nil
}

func filterConditions(f Filter) squirrel.And {
	where := squirrel.And{}
	if f.Status != "" {
		where = append(where, squirrel.Eq{"c.status": f.Status})
	}
	if f.Priority != "" {
		where = append(where, squirrel.Eq{"c.priority": f.Priority})
	}
	if f.Source != "" {
		where = append(where, squirrel.Eq{"c.source": f.Source})
	}
	if f.AssignedUserID > 0 {
		where = append(where, squirrel.Eq{"c.assigned_user_id": f.AssignedUserID})
	}
	if f.OrganizationID > 0 {
		where = append(where, squirrel.Eq{"c.organization_id": f.OrganizationID})
	}
	if f.Search != "" {
		where = append(where, db.SearchAny(f.Search, "c.first_name", "c.last_name", "c.email"))
	}
	return where
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Contact, int, error) {
	where := filterConditions(filter)

	total, err := db.Count(ctx, r.pool, fromContacts, where)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := selectContacts().
		Where(where).
		OrderBy("c.created_at DESC", "c.id DESC").
		Limit(uint64(filter.Limit)).
		Offset(filter.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list contacts query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("List failed: %w", err)
	}
	defer rows.Close()

	contacts := []*Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan failed: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List failed: %w", err)
	}

	return contacts, total, nil
}

func (p Patch) columns() (map[string]any, error) {
	set := map[string]any{}
	if p.FirstName != nil {
		set["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		set["last_name"] = *p.LastName
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Position != nil {
		set["position"] = *p.Position
	}
	if p.Department != nil {
		set["department"] = *p.Department
	}
	if p.Status != nil {
		set["status"] = *p.Status
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
	if p.Address.Set {
		b, err := crm.JSON(p.Address.Ptr())
		if err != nil {
			return nil, err
		}
		set["address"] = b
	}
	if p.SocialMedia.Set {
		b, err := crm.JSON(p.SocialMedia.Ptr())
		if err != nil {
			return nil, err
		}
		set["social_media"] = b
	}
	if p.LastContactDate.Set {
		set["last_contact_date"] = p.LastContactDate.Ptr()
	}
	if p.NextFollowUpDate.Set {
		set["next_follow_up_date"] = p.NextFollowUpDate.Ptr()
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

	query, args, err := db.Psql.Update("contacts").
		SetMap(set).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update contact query failed: %w", err)
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
	query, args, err := db.Psql.Delete("contacts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete contact query failed: %w", err)
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

const hasDependentsQuery = `SELECT EXISTS (SELECT 1 FROM deals WHERE contact_id = $1)
	OR EXISTS (SELECT 1 FROM tasks WHERE contact_id = $1)`

func (r *pgxRepository) HasDependents(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, hasDependentsQuery, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check contact dependents failed: %w", err)
	}
	return exists, nil
}
