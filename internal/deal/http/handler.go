package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/deal"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/response"
)

type DealHandler struct {
	service deal.Service
}

func NewDealHandler(service deal.Service) *DealHandler {
	return &DealHandler{service: service}
}

// List retrieves a filtered, paginated list of deals ordered by expected close date.
func (h *DealHandler) List(c *gin.Context) {
	var req ListDealsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	deals, total, err := h.service.List(c.Request.Context(), deal.Filter{
		Stage:          deal.Stage(req.Stage),
		Priority:       crm.Priority(req.Priority),
		Source:         crm.Source(req.Source),
		AssignedUserID: req.AssignedUserID,
		ContactID:      req.ContactID,
		OrganizationID: req.OrganizationID,
		Search:         req.Search,
		Paging:         req.Paging(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]DealResponse, len(deals))
	for i, d := range deals {
		items[i] = NewDealResponse(d)
	}

	page := req.Paging().WithDefaults()
	c.JSON(http.StatusOK, DealListResponse{
		Deals:      items,
		Pagination: response.NewPagination(page.Page, page.Limit, total),
	})
}

// Pipeline returns deal counts and value per stage in funnel order.
func (h *DealHandler) Pipeline(c *gin.Context) {
	summary, err := h.service.Pipeline(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]StageSummaryResponse, len(summary))
	for i, s := range summary {
		items[i] = StageSummaryResponse{Stage: s.Stage, Count: s.Count, TotalValue: s.TotalValue}
	}
	c.JSON(http.StatusOK, PipelineResponse{Pipeline: items})
}

// Get retrieves a single deal by its ID.
func (h *DealHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, DealEnvelope{Deal: NewDealResponse(d)})
}

// Create opens a deal assigned to the caller.
func (h *DealHandler) Create(c *gin.Context) {
	var body CreateDealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	d, err := h.service.Create(c.Request.Context(), identity, deal.CreateDealRequest{
		Title:             body.Title,
		Description:       body.Description,
		Value:             body.Value,
		Currency:          body.Currency,
		Stage:             body.Stage,
		Probability:       body.Probability,
		ExpectedCloseDate: body.ExpectedCloseDate.Ptr(),
		ActualCloseDate:   body.ActualCloseDate.Ptr(),
		Source:            body.Source,
		Priority:          body.Priority,
		Tags:              body.Tags,
		Notes:             body.Notes,
		CustomFields:      body.CustomFields,
		ContactID:         body.ContactID,
		OrganizationID:    body.OrganizationID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, DealEnvelope{
		Message: "Deal created successfully",
		Deal:    NewDealResponse(d),
	})
}

// Update modifies the supplied attributes of a deal.
func (h *DealHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	var body UpdateDealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	d, err := h.service.Update(c.Request.Context(), identity, uri.ID, deal.UpdateDealRequest{
		Title:             body.Title,
		Description:       body.Description,
		Value:             body.Value,
		Currency:          body.Currency,
		Stage:             body.Stage,
		Probability:       body.Probability,
		ExpectedCloseDate: body.ExpectedCloseDate,
		ActualCloseDate:   body.ActualCloseDate,
		Source:            body.Source,
		Priority:          body.Priority,
		Tags:              body.Tags,
		Notes:             body.Notes,
		CustomFields:      body.CustomFields,
		ContactID:         body.ContactID,
		OrganizationID:    body.OrganizationID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, DealEnvelope{
		Message: "Deal updated successfully",
		Deal:    NewDealResponse(d),
	})
}

// Delete removes a deal that no task references.
// Access Control: admin or manager.
func (h *DealHandler) Delete(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{"message": "Deal deleted successfully"})
}
