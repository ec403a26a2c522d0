package task

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/contact"
	"github.com/nekogravitycat/crm-backend/internal/deal"
	"github.com/nekogravitycat/crm-backend/internal/logger"
	"github.com/nekogravitycat/crm-backend/internal/organization"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

// CreateTaskRequest defines the fields accepted on creation.
type CreateTaskRequest struct {
	Title          string
	Description    string
	Status         string
	Priority       string
	DueDate        *time.Time
	CompletedDate  *time.Time
	EstimatedHours *float64
	ActualHours    *float64
	Tags           []string
	Notes          string
	ContactID      *int64
	DealID         *int64
	OrganizationID *int64
}

// UpdateTaskRequest defines the fields that can be updated.
type UpdateTaskRequest struct {
	Title          *string
	Description    *string
	Status         *string
	Priority       *string
	DueDate        null.Value[time.Time]
	CompletedDate  null.Value[time.Time]
	EstimatedHours null.Value[float64]
	ActualHours    null.Value[float64]
	Tags           *[]string
	Notes          *string
	ContactID      null.Value[int64]
	DealID         null.Value[int64]
	OrganizationID null.Value[int64]
}

// Service defines business logic for tasks.
type Service interface {
	Create(ctx context.Context, actor auth.Identity, req CreateTaskRequest) (*Task, error)
	GetByID(ctx context.Context, id int64) (*Task, error)
	List(ctx context.Context, filter Filter) ([]*Task, int, error)
	Update(ctx context.Context, actor auth.Identity, id int64, req UpdateTaskRequest) (*Task, error)
	Delete(ctx context.Context, actor auth.Identity, id int64) error
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type service struct {
	repo           Repository
	contactService contact.Service
	dealService    deal.Service
	orgService     organization.Service
	now            func() time.Time
}

// NewService creates a new task service.
func NewService(repo Repository, contactService contact.Service, dealService deal.Service, orgService organization.Service) Service {
	return &service{
		repo:           repo,
		contactService: contactService,
		dealService:    dealService,
		orgService:     orgService,
		now:            time.Now,
	}
}

func checkTitle(v *validate.Collector, title string) {
	if title == "" {
		v.Add("title", "Task title is required")
		return
	}
	v.Length("title", title, 1, 200)
}

func checkHours(v *validate.Collector, estimated, actual *float64) {
	v.Amount("estimatedHours", estimated, validate.MaxHours)
	v.Amount("actualHours", actual, validate.MaxHours)
}

func (s *service) checkRefs(ctx context.Context, contactID, dealID, orgID *int64) error {
	if contactID != nil {
		if _, err := s.contactService.GetByID(ctx, *contactID); err != nil {
			return err
		}
	}
	if dealID != nil {
		if _, err := s.dealService.GetByID(ctx, *dealID); err != nil {
			return err
		}
	}
	if orgID != nil {
		if _, err := s.orgService.GetByID(ctx, *orgID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Create(ctx context.Context, actor auth.Identity, req CreateTaskRequest) (*Task, error) {
	creator := actor.UserID
	t := &Task{
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		Status:          DefaultStatus,
		Priority:        crm.DefaultPriority,
		DueDate:         req.DueDate,
		CompletedDate:   req.CompletedDate,
		EstimatedHours:  req.EstimatedHours,
		ActualHours:     req.ActualHours,
		Notes:           strings.TrimSpace(req.Notes),
		AssignedUserID:  actor.UserID,
		CreatedByUserID: &creator,
		ContactID:       req.ContactID,
		DealID:          req.DealID,
		OrganizationID:  req.OrganizationID,
	}

	var v validate.Collector
	checkTitle(&v, t.Title)
	v.Length("description", t.Description, 0, 1000)
	v.Length("notes", t.Notes, 0, 2000)
	checkHours(&v, t.EstimatedHours, t.ActualHours)
	if req.Status != "" {
		t.Status = Status(req.Status)
		v.Check(t.Status.Valid(), "status", "Invalid status")
	}
	if req.Priority != "" {
		t.Priority = crm.Priority(req.Priority)
		v.Check(t.Priority.Valid(), "priority", "Invalid priority")
	}
	t.Tags = crm.CleanTags(&v, req.Tags)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.checkRefs(ctx, t.ContactID, t.DealID, t.OrganizationID); err != nil {
		return nil, err
	}

	if t.Status == StatusCompleted && t.CompletedDate == nil {
		now := s.now()
		t.CompletedDate = &now
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("task created", zap.Int64("task_id", t.ID), zap.Int64("user_id", actor.UserID))
	return s.repo.GetByID(ctx, t.ID)
}

func (s *service) GetByID(ctx context.Context, id int64) (*Task, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Task, int, error) {
	var v validate.Collector
	filter.Paging.Normalize(&v)
	request.CheckSearch(&v, filter.Search)
	v.Check(filter.Status == "" || filter.Status.Valid(), "status", "Invalid status filter")
	v.Check(filter.Priority == "" || filter.Priority.Valid(), "priority", "Invalid priority filter")
	if err := v.Err(); err != nil {
		return nil, 0, err
	}
	filter.Search = strings.TrimSpace(filter.Search)

	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, actor auth.Identity, id int64, req UpdateTaskRequest) (*Task, error) {
	patch := Patch{
		DueDate:        req.DueDate,
		CompletedDate:  req.CompletedDate,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		ContactID:      req.ContactID,
		DealID:         req.DealID,
		OrganizationID: req.OrganizationID,
	}

	var v validate.Collector
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		checkTitle(&v, title)
		patch.Title = &title
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		v.Length("description", desc, 0, 1000)
		patch.Description = &desc
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		v.Length("notes", notes, 0, 2000)
		patch.Notes = &notes
	}
	checkHours(&v, patch.EstimatedHours.Ptr(), patch.ActualHours.Ptr())
	if req.Status != nil {
		status := Status(*req.Status)
		v.Check(status.Valid(), "status", "Invalid status")
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := crm.Priority(*req.Priority)
		v.Check(priority.Valid(), "priority", "Invalid priority")
		patch.Priority = &priority
	}
	if req.Tags != nil {
		tags := crm.CleanTags(&v, *req.Tags)
		patch.Tags = &tags
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, patch.ContactID.Ptr(), patch.DealID.Ptr(), patch.OrganizationID.Ptr()); err != nil {
		return nil, err
	}

	// Entering completed stamps the completion time unless the caller sent one.
	if patch.Status != nil && *patch.Status == StatusCompleted && current.Status != StatusCompleted && !patch.CompletedDate.Set {
		patch.CompletedDate = null.From(s.now())
	}

	if patch.empty() {
		return current, nil
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("task updated", zap.Int64("task_id", id), zap.Int64("user_id", actor.UserID))
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	if !actor.CanDelete() {
		return auth.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.WithContext(ctx).Info("task deleted", zap.Int64("task_id", id), zap.Int64("user_id", actor.UserID))
	return nil
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	start, end := dayBounds(now)
	return s.repo.Dashboard(ctx, now, start, end)
}

// dayBounds returns the first and last millisecond of t's local day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(time.Local)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 0, 1).Add(-time.Millisecond)
}
