package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/contact"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/response"
)

type ContactHandler struct {
	service contact.Service
}

func NewContactHandler(service contact.Service) *ContactHandler {
	return &ContactHandler{service: service}
}

// List retrieves a filtered, paginated list of contacts, newest first.
func (h *ContactHandler) List(c *gin.Context) {
	var req ListContactsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	contacts, total, err := h.service.List(c.Request.Context(), contact.Filter{
		Status:         contact.Status(req.Status),
		Priority:       crm.Priority(req.Priority),
		Source:         crm.Source(req.Source),
		AssignedUserID: req.AssignedUserID,
		OrganizationID: req.OrganizationID,
		Search:         req.Search,
		Paging:         req.Paging(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ContactResponse, len(contacts))
	for i, ct := range contacts {
		items[i] = NewContactResponse(ct)
	}

	page := req.Paging().WithDefaults()
	c.JSON(http.StatusOK, ContactListResponse{
		Contacts:   items,
		Pagination: response.NewPagination(page.Page, page.Limit, total),
	})
}

// Get retrieves a single contact by its ID.
func (h *ContactHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	ct, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, ContactEnvelope{Contact: NewContactResponse(ct)})
}

// Create adds a contact assigned to the caller.
func (h *ContactHandler) Create(c *gin.Context) {
	var body CreateContactRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	ct, err := h.service.Create(c.Request.Context(), identity, contact.CreateContactRequest{
		FirstName:        body.FirstName,
		LastName:         body.LastName,
		Email:            body.Email,
		Phone:            body.Phone,
		Position:         body.Position,
		Department:       body.Department,
		Status:           body.Status,
		Source:           body.Source,
		Priority:         body.Priority,
		Tags:             body.Tags,
		Notes:            body.Notes,
		Address:          body.Address,
		SocialMedia:      body.SocialMedia,
		LastContactDate:  body.LastContactDate.Ptr(),
		NextFollowUpDate: body.NextFollowUpDate.Ptr(),
		OrganizationID:   body.OrganizationID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, ContactEnvelope{
		Message: "Contact created successfully",
		Contact: NewContactResponse(ct),
	})
}

// Update modifies the supplied attributes of a contact.
func (h *ContactHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	var body UpdateContactRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	ct, err := h.service.Update(c.Request.Context(), identity, uri.ID, contact.UpdateContactRequest{
		FirstName:        body.FirstName,
		LastName:         body.LastName,
		Email:            body.Email,
		Phone:            body.Phone,
		Position:         body.Position,
		Department:       body.Department,
		Status:           body.Status,
		Source:           body.Source,
		Priority:         body.Priority,
		Tags:             body.Tags,
		Notes:            body.Notes,
		Address:          body.Address,
		SocialMedia:      body.SocialMedia,
		LastContactDate:  body.LastContactDate,
		NextFollowUpDate: body.NextFollowUpDate,
		OrganizationID:   body.OrganizationID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, ContactEnvelope{
		Message: "Contact updated successfully",
		Contact: NewContactResponse(ct),
	})
}

// Delete removes a contact that no deal or task references.
// Access Control: admin or manager.
func (h *ContactHandler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	if err := h.service.Delete(c.Request.Context(), identity, uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contact deleted successfully"})
}
