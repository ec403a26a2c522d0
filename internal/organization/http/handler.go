package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/organization"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/response"
)

type OrganizationHandler struct {
	service organization.Service
}

func NewOrganizationHandler(service organization.Service) *OrganizationHandler {
	return &OrganizationHandler{service: service}
}

// List retrieves a filtered, paginated list of organizations, newest first.
func (h *OrganizationHandler) List(c *gin.Context) {
	var req ListOrganizationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	filter := organization.Filter{
		Status:         organization.Status(req.Status),
		Size:           organization.Size(req.Size),
		Industry:       req.Industry,
		AssignedUserID: req.AssignedUserID,
		Search:         req.Search,
		Paging:         req.Paging(),
	}

	orgs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]OrganizationResponse, len(orgs))
	for i, o := range orgs {
		items[i] = NewOrganizationResponse(o)
	}

	page := req.Paging().WithDefaults()
	c.JSON(http.StatusOK, OrganizationListResponse{
		Organizations: items,
		Pagination:    response.NewPagination(page.Page, page.Limit, total),
	})
}

// Get retrieves a single organization by its ID.
func (h *OrganizationHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	org, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, OrganizationEnvelope{Organization: NewOrganizationResponse(org)})
}

// Create adds an organization owned by the caller.
func (h *OrganizationHandler) Create(c *gin.Context) {
	var body CreateOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	org, err := h.service.Create(c.Request.Context(), identity, organization.CreateOrganizationRequest{
		Name:           body.Name,
		Description:    body.Description,
		Industry:       body.Industry,
		Website:        body.Website,
		Phone:          body.Phone,
		Email:          body.Email,
		Address:        body.Address,
		Size:           body.Size,
		Status:         body.Status,
		Revenue:        body.Revenue,
		Employees:      body.Employees,
		Tags:           body.Tags,
		SocialProfiles: body.SocialProfiles,
		Notes:          body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, OrganizationEnvelope{
		Message:      "Organization created successfully",
		Organization: NewOrganizationResponse(org),
	})
}

// Update modifies the supplied attributes of an organization.
func (h *OrganizationHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	var body UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	org, err := h.service.Update(c.Request.Context(), identity, uri.ID, organization.UpdateOrganizationRequest{
		Name:           body.Name,
		Description:    body.Description,
		Industry:       body.Industry,
		Website:        body.Website,
		Phone:          body.Phone,
		Email:          body.Email,
		Address:        body.Address,
		Size:           body.Size,
		Status:         body.Status,
		Revenue:        body.Revenue,
		Employees:      body.Employees,
		Tags:           body.Tags,
		SocialProfiles: body.SocialProfiles,
		Notes:          body.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, OrganizationEnvelope{
		Message:      "Organization updated successfully",
		Organization: NewOrganizationResponse(org),
	})
}

// Delete removes an organization that no other record references.
// Access Control: admin or manager.
func (h *OrganizationHandler) Delete(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{"message": "Organization deleted successfully"})
}
