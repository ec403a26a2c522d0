package http

import (
	"time"

	"github.com/nekogravitycat/crm-backend/internal/deal"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/response"
)

// DealResponse is the JSON form of a deal.
type DealResponse struct {
	ID                int64                `json:"id"`
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	Value             float64              `json:"value"`
	Currency          string               `json:"currency"`
	Stage             deal.Stage           `json:"stage"`
	Probability       int                  `json:"probability"`
	ExpectedCloseDate *time.Time           `json:"expectedCloseDate"`
	ActualCloseDate   *time.Time           `json:"actualCloseDate"`
	Source            crm.Source           `json:"source"`
	Priority          crm.Priority         `json:"priority"`
	Tags              []string             `json:"tags"`
	Notes             string               `json:"notes"`
	CustomFields      crm.CustomFields     `json:"customFields"`
	AssignedUserID    int64                `json:"assignedUserId"`
	AssignedUser      *crm.UserRef         `json:"assignedUser"`
	ContactID         *int64               `json:"contactId"`
	Contact           *crm.ContactRef      `json:"contact"`
	OrganizationID    *int64               `json:"organizationId"`
	Organization      *crm.OrganizationRef `json:"organization"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

func NewDealResponse(d *deal.Deal) DealResponse {
	custom := d.CustomFields
	if custom == nil {
		custom = crm.CustomFields{}
	}
	return DealResponse{
		ID:                d.ID,
		Title:             d.Title,
		Description:       d.Description,
		Value:             d.Value,
		Currency:          d.Currency,
		Stage:             d.Stage,
		Probability:       d.Probability,
		ExpectedCloseDate: d.ExpectedCloseDate,
		ActualCloseDate:   d.ActualCloseDate,
		Source:            d.Source,
		Priority:          d.Priority,
		Tags:              response.NonNil(d.Tags),
		Notes:             d.Notes,
		CustomFields:      custom,
		AssignedUserID:    d.AssignedUserID,
		AssignedUser:      d.AssignedUser,
		ContactID:         d.ContactID,
		Contact:           d.Contact,
		OrganizationID:    d.OrganizationID,
		Organization:      d.Organization,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// DealEnvelope wraps a single deal.
type DealEnvelope struct {
	Message string       `json:"message,omitempty"`
	Deal    DealResponse `json:"deal"`
}

// DealListResponse is the body of GET /deals.
type DealListResponse struct {
	Deals      []DealResponse      `json:"deals"`
	Pagination response.Pagination `json:"pagination"`
}

// StageSummaryResponse is one row of the pipeline summary.
type StageSummaryResponse struct {
	Stage      deal.Stage `json:"stage"`
	Count      int        `json:"count"`
	TotalValue float64    `json:"totalValue"`
}

// PipelineResponse is the body of GET /deals/pipeline.
type PipelineResponse struct {
	Pipeline []StageSummaryResponse `json:"pipeline"`
}

// ListDealsRequest binds the list query string.
type ListDealsRequest struct {
	request.ListParams
	Stage          string `form:"stage" binding:"omitempty,oneof=lead qualified proposal negotiation closed_won closed_lost"`
	Priority       string `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Source         string `form:"source" binding:"omitempty,oneof=website referral social_media cold_call event other"`
	AssignedUserID int64  `form:"assignedUserId" binding:"omitempty,min=1"`
	ContactID      int64  `form:"contactId" binding:"omitempty,min=1"`
	OrganizationID int64  `form:"organizationId" binding:"omitempty,min=1"`
}

// CreateDealRequest is the payload for POST /deals.
type CreateDealRequest struct {
	Title             string                `json:"title" binding:"required,max=200"`
	Description       string                `json:"description" binding:"max=1000"`
	Value             *float64              `json:"value" binding:"required,min=0"`
	Currency          string                `json:"currency" binding:"omitempty,len=3"`
	Stage             string                `json:"stage" binding:"omitempty,oneof=lead qualified proposal negotiation closed_won closed_lost"`
	Probability       *int                  `json:"probability" binding:"omitempty,min=0,max=100"`
	ExpectedCloseDate null.Value[time.Time] `json:"expectedCloseDate"`
	ActualCloseDate   null.Value[time.Time] `json:"actualCloseDate"`
	Source            string                `json:"source" binding:"omitempty,oneof=website referral social_media cold_call event other"`
	Priority          string                `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Tags              []string              `json:"tags"`
	Notes             string                `json:"notes" binding:"max=2000"`
	CustomFields      crm.CustomFields      `json:"customFields"`
	ContactID         *int64                `json:"contactId" binding:"omitempty,min=1"`
	OrganizationID    *int64                `json:"organizationId" binding:"omitempty,min=1"`
}

// UpdateDealRequest is the payload for PUT /deals/:id.
type UpdateDealRequest struct {
	Title             *string                      `json:"title" binding:"omitempty,max=200"`
	Description       *string                      `json:"description" binding:"omitempty,max=1000"`
	Value             *float64                     `json:"value" binding:"omitempty,min=0"`
	Currency          *string                      `json:"currency" binding:"omitempty,len=3"`
	Stage             *string                      `json:"stage" binding:"omitempty,oneof=lead qualified proposal negotiation closed_won closed_lost"`
	Probability       *int                         `json:"probability" binding:"omitempty,min=0,max=100"`
	ExpectedCloseDate null.Value[time.Time]        `json:"expectedCloseDate"`
	ActualCloseDate   null.Value[time.Time]        `json:"actualCloseDate"`
	Source            *string                      `json:"source" binding:"omitempty,oneof=website referral social_media cold_call event other"`
	Priority          *string                      `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Tags              *[]string                    `json:"tags"`
	Notes             *string                      `json:"notes" binding:"omitempty,max=2000"`
	CustomFields      null.Value[crm.CustomFields] `json:"customFields"`
	ContactID         null.Value[int64]            `json:"contactId"`
	OrganizationID    null.Value[int64]            `json:"organizationId"`
}
