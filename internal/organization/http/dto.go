package http

import (
	"time"

	"github.com/nekogravitycat/crm-backend/internal/organization"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/response"
)

// OrganizationResponse is the JSON form of an organization.
type OrganizationResponse struct {
	ID             int64               `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Industry       string              `json:"industry"`
	Website        string              `json:"website"`
	Phone          string              `json:"phone"`
	Email          string              `json:"email"`
	Address        *crm.Address        `json:"address"`
	Size           organization.Size   `json:"size"`
	Status         organization.Status `json:"status"`
	Revenue        *float64            `json:"revenue"`
	Employees      *int                `json:"employees"`
	Tags           []string            `json:"tags"`
	SocialProfiles *crm.SocialProfiles `json:"socialProfiles"`
	Notes          string              `json:"notes"`
	AssignedUserID int64               `json:"assignedUserId"`
	AssignedUser   *crm.UserRef        `json:"assignedUser"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

func NewOrganizationResponse(o *organization.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:             o.ID,
		Name:           o.Name,
		Description:    o.Description,
		Industry:       o.Industry,
		Website:        o.Website,
		Phone:          o.Phone,
		Email:          o.Email,
		Address:        o.Address,
		Size:           o.Size,
		Status:         o.Status,
		Revenue:        o.Revenue,
		Employees:      o.Employees,
		Tags:           response.NonNil(o.Tags),
		SocialProfiles: o.SocialProfiles,
		Notes:          o.Notes,
		AssignedUserID: o.AssignedUserID,
		AssignedUser:   o.AssignedUser,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// OrganizationEnvelope wraps a single organization.
type OrganizationEnvelope struct {
	Message      string               `json:"message,omitempty"`
	Organization OrganizationResponse `json:"organization"`
}

// OrganizationListResponse is the body of GET /organizations.
type OrganizationListResponse struct {
	Organizations []OrganizationResponse `json:"organizations"`
	Pagination    response.Pagination    `json:"pagination"`
}

// ListOrganizationsRequest binds the list query string.
type ListOrganizationsRequest struct {
	request.ListParams
	Status         string `form:"status" binding:"omitempty,oneof=prospect customer partner inactive"`
	Size           string `form:"size" binding:"omitempty,oneof=startup small medium large enterprise"`
	Industry       string `form:"industry" binding:"omitempty,max=100"`
	AssignedUserID int64  `form:"assignedUserId" binding:"omitempty,min=1"`
}

// CreateOrganizationRequest is the payload for POST /organizations.
type CreateOrganizationRequest struct {
	Name           string              `json:"name" binding:"required,max=100"`
	Description    string              `json:"description" binding:"max=1000"`
	Industry       string              `json:"industry" binding:"max=100"`
	Website        string              `json:"website"`
	Phone          string              `json:"phone" binding:"max=20"`
	Email          string              `json:"email" binding:"omitempty,email"`
	Address        *crm.Address        `json:"address"`
	Size           string              `json:"size" binding:"omitempty,oneof=startup small medium large enterprise"`
	Status         string              `json:"status" binding:"omitempty,oneof=prospect customer partner inactive"`
	Revenue        *float64            `json:"revenue" binding:"omitempty,gte=0"`
	Employees      *int                `json:"employees" binding:"omitempty,gte=0"`
	Tags           []string            `json:"tags"`
	SocialProfiles *crm.SocialProfiles `json:"socialProfiles"`
	Notes          string              `json:"notes" binding:"max=2000"`
}

// UpdateOrganizationRequest is the payload for PUT /organizations/:id.
// Absent fields are left unchanged; null clears nullable ones.
type UpdateOrganizationRequest struct {
	Name           *string                        `json:"name" binding:"omitempty,max=100"`
	Description    *string                        `json:"description" binding:"omitempty,max=1000"`
	Industry       *string                        `json:"industry" binding:"omitempty,max=100"`
	Website        *string                        `json:"website"`
	Phone          *string                        `json:"phone" binding:"omitempty,max=20"`
	Email          *string                        `json:"email"`
	Address        null.Value[crm.Address]        `json:"address"`
	Size           *string                        `json:"size" binding:"omitempty,oneof=startup small medium large enterprise"`
	Status         *string                        `json:"status" binding:"omitempty,oneof=prospect customer partner inactive"`
	Revenue        null.Value[float64]            `json:"revenue"`
	Employees      null.Value[int]                `json:"employees"`
	Tags           *[]string                      `json:"tags"`
	SocialProfiles null.Value[crm.SocialProfiles] `json:"socialProfiles"`
	Notes          *string                        `json:"notes" binding:"omitempty,max=2000"`
}
