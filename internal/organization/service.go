package organization

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/logger"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

// CreateOrganizationRequest defines the fields accepted on creation.
type CreateOrganizationRequest struct {
	Name           string
	Description    string
	Industry       string
	Website        string
	Phone          string
	Email          string
	Address        *crm.Address
	Size           string
	Status         string
	Revenue        *float64
	Employees      *int
	Tags           []string
	SocialProfiles *crm.SocialProfiles
	Notes          string
}

// UpdateOrganizationRequest defines the fields that can be updated.
type UpdateOrganizationRequest struct {
	Name           *string
	Description    *string
	Industry       *string
	Website        *string
	Phone          *string
	Email          *string
	Address        null.Value[crm.Address]
	Size           *string
	Status         *string
	Revenue        null.Value[float64]
	Employees      null.Value[int]
	Tags           *[]string
	SocialProfiles null.Value[crm.SocialProfiles]
	Notes          *string
}

// Service defines business logic for organizations.
type Service interface {
	Create(ctx context.Context, actor auth.Identity, req CreateOrganizationRequest) (*Organization, error)
	GetByID(ctx context.Context, id int64) (*Organization, error)
	List(ctx context.Context, filter Filter) ([]*Organization, int, error)
	Update(ctx context.Context, actor auth.Identity, id int64, req UpdateOrganizationRequest) (*Organization, error)
	Delete(ctx context.Context, actor auth.Identity, id int64) error
}

type service struct {
	repo Repository
}

// NewService creates a new organization service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// details are the optional text fields shared by create and update.
type details struct {
	description, industry, website, phone, email, notes *string
}

func (d details) check(v *validate.Collector) {
	for _, p := range []*string{d.description, d.industry, d.website, d.phone, d.email, d.notes} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	v.MaxLength("description", d.description, 1000)
	v.MaxLength("industry", d.industry, 100)
	v.URL("website", d.website)
	v.MaxLength("phone", d.phone, 20)
	v.Email("email", d.email)
	v.MaxLength("notes", d.notes, 2000)
}

func checkEmployees(v *validate.Collector, n *int) {
	if n != nil {
		v.Check(*n >= 0 && *n <= math.MaxInt32, "employees", "Employees must be a positive integer")
	}
}

func (s *service) Create(ctx context.Context, actor auth.Identity, req CreateOrganizationRequest) (*Organization, error) {
	org := &Organization{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Industry:       req.Industry,
		Website:        req.Website,
		Phone:          req.Phone,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Address:        req.Address,
		Size:           DefaultSize,
		Status:         DefaultStatus,
		Revenue:        req.Revenue,
		Employees:      req.Employees,
		SocialProfiles: req.SocialProfiles,
		Notes:          req.Notes,
		AssignedUserID: actor.UserID,
	}

	var v validate.Collector
	v.Length("name", org.Name, 1, 100)
	details{&org.Description, &org.Industry, &org.Website, &org.Phone, &org.Email, &org.Notes}.check(&v)
	if req.Size != "" {
		org.Size = Size(req.Size)
		v.Check(org.Size.Valid(), "size", "Invalid organization size")
	}
	if req.Status != "" {
		org.Status = Status(req.Status)
		v.Check(org.Status.Valid(), "status", "Invalid organization status")
	}
	v.Amount("revenue", org.Revenue, validate.MaxMoney)
	checkEmployees(&v, org.Employees)
	org.SocialProfiles.Check(&v, "socialProfiles")
	org.Tags = crm.CleanTags(&v, req.Tags)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, org); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("organization created", zap.Int64("organization_id", org.ID), zap.Int64("user_id", actor.UserID))
	return s.repo.GetByID(ctx, org.ID)
}

func (s *service) GetByID(ctx context.Context, id int64) (*Organization, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Organization, int, error) {
	var v validate.Collector
	filter.Paging.Normalize(&v)
	request.CheckSearch(&v, filter.Search)
	v.Check(filter.Status == "" || filter.Status.Valid(), "status", "Invalid status filter")
	v.Check(filter.Size == "" || filter.Size.Valid(), "size", "Invalid size filter")
	if err := v.Err(); err != nil {
		return nil, 0, err
	}
	filter.Search = strings.TrimSpace(filter.Search)

	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, actor auth.Identity, id int64, req UpdateOrganizationRequest) (*Organization, error) {
	patch := Patch{
		Description:    req.Description,
		Industry:       req.Industry,
		Website:        req.Website,
		Phone:          req.Phone,
		Email:          req.Email,
		Address:        req.Address,
		Revenue:        req.Revenue,
		Employees:      req.Employees,
		SocialProfiles: req.SocialProfiles,
		Notes:          req.Notes,
	}

	var v validate.Collector
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		v.Length("name", name, 1, 100)
		patch.Name = &name
	}
	if patch.Email != nil {
		email := strings.ToLower(*patch.Email)
		patch.Email = &email
	}
	details{patch.Description, patch.Industry, patch.Website, patch.Phone, patch.Email, patch.Notes}.check(&v)
	if req.Size != nil {
		size := Size(*req.Size)
		v.Check(size.Valid(), "size", "Invalid organization size")
		patch.Size = &size
	}
	if req.Status != nil {
		status := Status(*req.Status)
		v.Check(status.Valid(), "status", "Invalid organization status")
		patch.Status = &status
	}
	v.Amount("revenue", patch.Revenue.Ptr(), validate.MaxMoney)
	checkEmployees(&v, patch.Employees.Ptr())
	if patch.SocialProfiles.Valid {
		patch.SocialProfiles.V.Check(&v, "socialProfiles")
	}
	if req.Tags != nil {
		tags := crm.CleanTags(&v, *req.Tags)
		patch.Tags = &tags
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if patch.empty() {
		return s.repo.GetByID(ctx, id)
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("organization updated", zap.Int64("organization_id", id), zap.Int64("user_id", actor.UserID))
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	if !actor.CanDelete() {
		return auth.ErrForbidden
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	// Children are never orphaned or cascaded; they must be moved or removed first.
	busy, err := s.repo.HasDependents(ctx, id)
	if err != nil {
		return err
	}
	if busy {
		return ErrHasDependents
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.WithContext(ctx).Info("organization deleted", zap.Int64("organization_id", id), zap.Int64("user_id", actor.UserID))
	return nil
}

func (p Patch) empty() bool {
	return p.Name == nil && p.Description == nil && p.Industry == nil && p.Website == nil &&
		p.Phone == nil && p.Email == nil && !p.Address.Set && p.Size == nil && p.Status == nil &&
		!p.Revenue.Set && !p.Employees.Set && p.Tags == nil && !p.SocialProfiles.Set && p.Notes == nil
}
