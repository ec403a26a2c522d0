package contact

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/logger"
	"github.com/nekogravitycat/crm-backend/internal/organization"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

// CreateContactRequest defines the fields accepted on creation.
type CreateContactRequest struct {
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Position         string
	Department       string
	Status           string
	Source           string
	Priority         string
	Tags             []string
	Notes            string
	Address          *crm.Address
	SocialMedia      *crm.SocialProfiles
	LastContactDate  *time.Time
	NextFollowUpDate *time.Time
	OrganizationID   *int64
}

// UpdateContactRequest defines the fields that can be updated.
type UpdateContactRequest struct {
	FirstName        *string
	LastName         *string
	Email            *string
	Phone            *string
	Position         *string
	Department       *string
	Status           *string
	Source           *string
	Priority         *string
	Tags             *[]string
	Notes            *string
	Address          null.Value[crm.Address]
	SocialMedia      null.Value[crm.SocialProfiles]
	LastContactDate  null.Value[time.Time]
	NextFollowUpDate null.Value[time.Time]
	OrganizationID   null.Value[int64]
}

// Service defines business logic for contacts.
type Service interface {
	Create(ctx context.Context, actor auth.Identity, req CreateContactRequest) (*Contact, error)
	GetByID(ctx context.Context, id int64) (*Contact, error)
	List(ctx context.Context, filter Filter) ([]*Contact, int, error)
	Update(ctx context.Context, actor auth.Identity, id int64, req UpdateContactRequest) (*Contact, error)
	Delete(ctx context.Context, actor auth.Identity, id int64) error
}

type service struct {
	repo       Repository
	orgService organization.Service
}

// NewService creates a new contact service.
func NewService(repo Repository, orgService organization.Service) Service {
	return &service{repo: repo, orgService: orgService}
}

type details struct {
	email, phone, position, department, notes *string
}

func (d details) check(v *validate.Collector) {
	for _, p := range []*string{d.email, d.phone, d.position, d.department, d.notes} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	if d.email != nil {
		*d.email = strings.ToLower(*d.email)
	}
	v.Email("email", d.email)
	v.MaxLength("phone", d.phone, 20)
	v.MaxLength("position", d.position, 100)
	v.MaxLength("department", d.department, 100)
	v.MaxLength("notes", d.notes, 2000)
}

func (s *service) checkOrganization(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.orgService.GetByID(ctx, *id)
	return err
}

func (s *service) Create(ctx context.Context, actor auth.Identity, req CreateContactRequest) (*Contact, error) {
	c := &Contact{
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Email:            req.Email,
		Phone:            req.Phone,
		Position:         req.Position,
		Department:       req.Department,
		Status:           DefaultStatus,
		Source:           crm.DefaultSource,
		Priority:         crm.DefaultPriority,
		Notes:            req.Notes,
		Address:          req.Address,
		SocialMedia:      req.SocialMedia,
		LastContactDate:  req.LastContactDate,
		NextFollowUpDate: req.NextFollowUpDate,
		AssignedUserID:   actor.UserID,
		OrganizationID:   req.OrganizationID,
	}

	var v validate.Collector
	v.Length("firstName", c.FirstName, 1, 50)
	v.Length("lastName", c.LastName, 1, 50)
	details{&c.Email, &c.Phone, &c.Position, &c.Department, &c.Notes}.check(&v)
	if req.Status != "" {
		c.Status = Status(req.Status)
		v.Check(c.Status.Valid(), "status", "Invalid status")
	}
	if req.Source != "" {
		c.Source = crm.Source(req.Source)
		v.Check(c.Source.Valid(), "source", "Invalid source")
	}
	if req.Priority != "" {
		c.Priority = crm.Priority(req.Priority)
		v.Check(c.Priority.Valid(), "priority", "Invalid priority")
	}
	c.SocialMedia.Check(&v, "socialMedia")
	c.Tags = crm.CleanTags(&v, req.Tags)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.checkOrganization(ctx, c.OrganizationID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("contact created", zap.Int64("contact_id", c.ID), zap.Int64("user_id", actor.UserID))
	return s.repo.GetByID(ctx, c.ID)
}

func (s *service) GetByID(ctx context.Context, id int64) (*Contact, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Contact, int, error) {
	var v validate.Collector
	filter.Paging.Normalize(&v)
	request.CheckSearch(&v, filter.Search)
	v.Check(filter.Status == "" || filter.Status.Valid(), "status", "Invalid status filter")
	v.Check(filter.Priority == "" || filter.Priority.Valid(), "priority", "Invalid priority filter")
	v.Check(filter.Source == "" || filter.Source.Valid(), "source", "Invalid source filter")
	if err := v.Err(); err != nil {
		return nil, 0, err
	}
	filter.Search = strings.TrimSpace(filter.Search)

	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, actor auth.Identity, id int64, req UpdateContactRequest) (*Contact, error) {
	patch := Patch{
		Email:            req.Email,
		Phone:            req.Phone,
		Position:         req.Position,
		Department:       req.Department,
		Notes:            req.Notes,
		Address:          req.Address,
		SocialMedia:      req.SocialMedia,
		LastContactDate:  req.LastContactDate,
		NextFollowUpDate: req.NextFollowUpDate,
		OrganizationID:   req.OrganizationID,
	}

	var v validate.Collector
	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		v.Length("firstName", name, 1, 50)
		patch.FirstName = &name
	}
	if req.LastName != nil {
		name := strings.TrimSpace(*req.LastName)
		v.Length("lastName", name, 1, 50)
		patch.LastName = &name
	}
	details{patch.Email, patch.Phone, patch.Position, patch.Department, patch.Notes}.check(&v)
	if req.Status != nil {
		status := Status(*req.Status)
		v.Check(status.Valid(), "status", "Invalid status")
		patch.Status = &status
	}
	if req.Source != nil {
		source := crm.Source(*req.Source)
		v.Check(source.Valid(), "source", "Invalid source")
		patch.Source = &source
	}
	if req.Priority != nil {
		priority := crm.Priority(*req.Priority)
		v.Check(priority.Valid(), "priority", "Invalid priority")
		patch.Priority = &priority
	}
	if patch.SocialMedia.Valid {
		patch.SocialMedia.V.Check(&v, "socialMedia")
	}
	if req.Tags != nil {
		tags := crm.CleanTags(&v, *req.Tags)
		patch.Tags = &tags
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.checkOrganization(ctx, patch.OrganizationID.Ptr()); err != nil {
		return nil, err
	}

	if patch.empty() {
		return s.repo.GetByID(ctx, id)
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("contact updated", zap.Int64("contact_id", id), zap.Int64("user_id", actor.UserID))
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	if !actor.CanDelete() {
		return auth.ErrForbidden
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

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

	logger.WithContext(ctx).Info("contact deleted", zap.Int64("contact_id", id), zap.Int64("user_id", actor.UserID))
	return nil
}
