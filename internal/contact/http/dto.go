package http

import (
	"time"

	"github.com/nekogravitycat/crm-backend/internal/contact"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/response"
)

// ContactResponse is the JSON form of a contact.
type ContactResponse struct {
	ID               int64                `json:"id"`
	FirstName        string               `json:"firstName"`
	LastName         string               `json:"lastName"`
	Email            string               `json:"email"`
	Phone            string               `json:"phone"`
	Position         string               `json:"position"`
	Department       string               `json:"department"`
	Status           contact.Status       `json:"status"`
	Source           crm.Source           `json:"source"`
	Priority         crm.Priority         `json:"priority"`
	Tags             []string             `json:"tags"`
	Notes            string               `json:"notes"`
	Address          *crm.Address         `json:"address"`
	SocialMedia      *crm.SocialProfiles  `json:"socialMedia"`
	LastContactDate  *time.Time           `json:"lastContactDate"`
	NextFollowUpDate *time.Time           `json:"nextFollowUpDate"`
	AssignedUserID   int64                `json:"assignedUserId"`
	AssignedUser     *crm.UserRef         `json:"assignedUser"`
	OrganizationID   *int64               `json:"organizationId"`
	Organization     *crm.OrganizationRef `json:"organization"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

func NewContactResponse(c *contact.Contact) ContactResponse {
	return ContactResponse{
		ID:               c.ID,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Email:            c.Email,
		Phone:            c.Phone,
		Position:         c.Position,
		Department:       c.Department,
		Status:           c.Status,
		Source:           c.Source,
		Priority:         c.Priority,
		Tags:             response.NonNil(c.Tags),
		Notes:            c.Notes,
		Address:          c.Address,
		SocialMedia:      c.SocialMedia,
		LastContactDate:  c.LastContactDate,
		NextFollowUpDate: c.NextFollowUpDate,
		AssignedUserID:   c.AssignedUserID,
		AssignedUser:     c.AssignedUser,
		OrganizationID:   c.OrganizationID,
		Organization:     c.Organization,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// ContactEnvelope wraps a single contact.
type ContactEnvelope struct {
	Message string          `json:"message,omitempty"`
	Contact ContactResponse `json:"contact"`
}

// ContactListResponse is the body of GET /contacts.
type ContactListResponse struct {
	Contacts   []ContactResponse   `json:"contacts"`
	Pagination response.Pagination `json:"pagination"`
}

// ListContactsRequest binds the list query string.
type ListContactsRequest struct {
	request.ListParams
	Status         string `form:"status" binding:"omitempty,oneof=active inactive prospect customer"`
	Priority       string `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Source         string `form:"source" binding:"omitempty,oneof=website referral social_media cold_call event other"`
	AssignedUserID int64  `form:"assignedUserId" binding:"omitempty,min=1"`
	OrganizationID int64  `form:"organizationId" binding:"omitempty,min=1"`
}

// CreateContactRequest is the payload for POST /contacts.
type CreateContactRequest struct {
	FirstName        string                `json:"firstName" binding:"required,max=50"`
	LastName         string                `json:"lastName" binding:"required,max=50"`
	Email            string                `json:"email" binding:"omitempty,email"`
	Phone            string                `json:"phone" binding:"max=20"`
	Position         string                `json:"position" binding:"max=100"`
	Department       string                `json:"department" binding:"max=100"`
	Status           string                `json:"status" binding:"omitempty,oneof=active inactive prospect customer"`
	Source           string                `json:"source" binding:"omitempty,oneof=website referral social_media cold_call event other"`
	Priority         string                `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Tags             []string              `json:"tags"`
	Notes            string                `json:"notes" binding:"max=2000"`
	Address          *crm.Address          `json:"address"`
	SocialMedia      *crm.SocialProfiles   `json:"socialMedia"`
	LastContactDate  null.Value[time.Time] `json:"lastContactDate"`
	NextFollowUpDate null.Value[time.Time] `json:"nextFollowUpDate"`
	OrganizationID   *int64                `json:"organizationId" binding:"omitempty,min=1"`
}

// UpdateContactRequest is the payload for PUT /contacts/:id.
type UpdateContactRequest struct {
	FirstName        *string                        `json:"firstName" binding:"omitempty,max=50"`
	LastName         *string                        `json:"lastName" binding:"omitempty,max=50"`
	Email            *string                        `json:"email"`
	Phone            *string                        `json:"phone" binding:"omitempty,max=20"`
	Position         *string                        `json:"position" binding:"omitempty,max=100"`
	Department       *string                        `json:"department" binding:"omitempty,max=100"`
	Status           *string                        `json:"status" binding:"omitempty,oneof=active inactive prospect customer"`
	Source           *string                        `json:"source" binding:"omitempty,oneof=website referral social_media cold_call event other"`
	Priority         *string                        `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Tags             *[]string                      `json:"tags"`
	Notes            *string                        `json:"notes" binding:"omitempty,max=2000"`
	Address          null.Value[crm.Address]        `json:"address"`
	SocialMedia      null.Value[crm.SocialProfiles] `json:"socialMedia"`
	LastContactDate  null.Value[time.Time]          `json:"lastContactDate"`
	NextFollowUpDate null.Value[time.Time]          `json:"nextFollowUpDate"`
	OrganizationID   null.Value[int64]              `json:"organizationId"`
}
