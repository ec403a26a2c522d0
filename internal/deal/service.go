package deal

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/contact"
	"github.com/nekogravitycat/crm-backend/internal/logger"
	"github.com/nekogravitycat/crm-backend/internal/organization"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

// CreateDealRequest defines the fields accepted on creation.
type CreateDealRequest struct {
	Title             string
	Description       string
	Value             *float64
	Currency          string
	Stage             string
	Probability       *int
	ExpectedCloseDate *time.Time
	ActualCloseDate   *time.Time
	Source            string
	Priority          string
	Tags              []string
	Notes             string
	CustomFields      crm.CustomFields
	ContactID         *int64
	OrganizationID    *int64
}

// UpdateDealRequest defines the fields that can be updated.
type UpdateDealRequest struct {
	Title             *string
	Description       *string
	Value             *float64
	Currency          *string
	Stage             *string
	Probability       *int
	ExpectedCloseDate null.Value[time.Time]
	ActualCloseDate   null.Value[time.Time]
	Source            *string
	Priority          *string
	Tags              *[]string
	Notes             *string
	CustomFields      null.Value[crm.CustomFields]
	ContactID         null.Value[int64]
	OrganizationID    null.Value[int64]
}

// Service defines business logic for deals.
type Service interface {
	Create(ctx context.Context, actor auth.Identity, req CreateDealRequest) (*Deal, error)
	GetByID(ctx context.Context, id int64) (*Deal, error)
	List(ctx context.Context, filter Filter) ([]*Deal, int, error)
	Update(ctx context.Context, actor auth.Identity, id int64, req UpdateDealRequest) (*Deal, error)
	Delete(ctx context.Context, actor auth.Identity, id int64) error
	Pipeline(ctx context.Context) ([]StageSummary, error)
}

type service struct {
	repo           Repository
	contactService contact.Service
	orgService     organization.Service
	now            func() time.Time
}

// NewService creates a new deal service.
func NewService(repo Repository, contactService contact.Service, orgService organization.Service) Service {
	return &service{
		repo:           repo,
		contactService: contactService,
		orgService:     orgService,
		now:            time.Now,
	}
}

func checkTitle(v *validate.Collector, title string) {
	if title == "" {
		v.Add("title", "Deal title is required")
		return
	}
	v.Length("title", title, 1, 200)
}

func checkAmounts(v *validate.Collector, value *float64, probability *int) {
	v.Amount("value", value, validate.MaxMoney)
	if probability != nil {
		v.Check(*probability >= 0 && *probability <= 100, "probability", "Probability must be between 0 and 100")
	}
}

func normalizeCurrency(v *validate.Collector, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	v.Check(validate.IsCurrencyCode(currency), "currency", "Currency must be a 3 letter code")
	return currency
}

func (s *service) checkRefs(ctx context.Context, contactID, orgID *int64) error {
	if contactID != nil {
		if _, err := s.contactService.GetByID(ctx, *contactID); err != nil {
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

func (s *service) Create(ctx context.Context, actor auth.Identity, req CreateDealRequest) (*Deal, error) {
	d := &Deal{
		Title:             strings.TrimSpace(req.Title),
		Description:       strings.TrimSpace(req.Description),
		Currency:          DefaultCurrency,
		Stage:             DefaultStage,
		Probability:       DefaultProbability,
		ExpectedCloseDate: req.ExpectedCloseDate,
		ActualCloseDate:   req.ActualCloseDate,
		Source:            crm.DefaultSource,
		Priority:          crm.DefaultPriority,
		Notes:             strings.TrimSpace(req.Notes),
		CustomFields:      req.CustomFields,
		AssignedUserID:    actor.UserID,
		ContactID:         req.ContactID,
		OrganizationID:    req.OrganizationID,
	}

	var v validate.Collector
	checkTitle(&v, d.Title)
	v.Length("description", d.Description, 0, 1000)
	v.Length("notes", d.Notes, 0, 2000)
	v.Check(req.Value != nil, "value", "Valid deal value required")
	checkAmounts(&v, req.Value, req.Probability)
	if req.Value != nil {
		d.Value = *req.Value
	}
	if req.Probability != nil {
		d.Probability = *req.Probability
	}
	if req.Currency != "" {
		d.Currency = normalizeCurrency(&v, req.Currency)
	}
	if req.Stage != "" {
		d.Stage = Stage(req.Stage)
		v.Check(d.Stage.Valid(), "stage", "Invalid stage")
	}
	if req.Source != "" {
		d.Source = crm.Source(req.Source)
		v.Check(d.Source.Valid(), "source", "Invalid source")
	}
	if req.Priority != "" {
		d.Priority = crm.Priority(req.Priority)
		v.Check(d.Priority.Valid(), "priority", "Invalid priority")
	}
	d.CustomFields.Check(&v)
	d.Tags = crm.CleanTags(&v, req.Tags)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.checkRefs(ctx, d.ContactID, d.OrganizationID); err != nil {
		return nil, err
	}

	// A deal created already closed counts as entering the closed stage.
	if d.Stage.Closed() && d.ActualCloseDate == nil {
		now := s.now()
		d.ActualCloseDate = &now
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("deal created", zap.Int64("deal_id", d.ID), zap.Int64("user_id", actor.UserID))
	return s.repo.GetByID(ctx, d.ID)
}

func (s *service) GetByID(ctx context.Context, id int64) (*Deal, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Deal, int, error) {
	var v validate.Collector
	filter.Paging.Normalize(&v)
	request.CheckSearch(&v, filter.Search)
	v.Check(filter.Stage == "" || filter.Stage.Valid(), "stage", "Invalid stage filter")
	v.Check(filter.Priority == "" || filter.Priority.Valid(), "priority", "Invalid priority filter")
	v.Check(filter.Source == "" || filter.Source.Valid(), "source", "Invalid source filter")
	if err := v.Err(); err != nil {
		return nil, 0, err
	}
	filter.Search = strings.TrimSpace(filter.Search)

	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, actor auth.Identity, id int64, req UpdateDealRequest) (*Deal, error) {
	patch := Patch{
		Value:             req.Value,
		Probability:       req.Probability,
		ExpectedCloseDate: req.ExpectedCloseDate,
		ActualCloseDate:   req.ActualCloseDate,
		CustomFields:      req.CustomFields,
		ContactID:         req.ContactID,
		OrganizationID:    req.OrganizationID,
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
	checkAmounts(&v, req.Value, req.Probability)
	if req.Currency != nil {
		currency := normalizeCurrency(&v, *req.Currency)
		patch.Currency = &currency
	}
	if req.Stage != nil {
		stage := Stage(*req.Stage)
		v.Check(stage.Valid(), "stage", "Invalid stage")
		patch.Stage = &stage
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
	if patch.CustomFields.Valid {
		patch.CustomFields.V.Check(&v)
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
	if err := s.checkRefs(ctx, patch.ContactID.Ptr(), patch.OrganizationID.Ptr()); err != nil {
		return nil, err
	}

	s.applyTransition(current, &patch)

	if patch.empty() {
		return current, nil
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("deal updated", zap.Int64("deal_id", id), zap.Int64("user_id", actor.UserID))
	return s.repo.GetByID(ctx, id)
}

// applyTransition stamps the close date when the deal enters a closed stage
// and the caller did not provide one.
func (s *service) applyTransition(current *Deal, patch *Patch) {
	if patch.Stage == nil || !patch.Stage.Closed() || *patch.Stage == current.Stage {
		return
	}
	if patch.ActualCloseDate.Set {
		return
	}
	patch.ActualCloseDate = null.From(s.now())
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

	logger.WithContext(ctx).Info("deal deleted", zap.Int64("deal_id", id), zap.Int64("user_id", actor.UserID))
	return nil
}

func (s *service) Pipeline(ctx context.Context) ([]StageSummary, error) {
	return s.repo.Pipeline(ctx)
}
