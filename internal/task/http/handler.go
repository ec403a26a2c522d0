package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/response"
	"github.com/nekogravitycat/crm-backend/internal/task"
)

type TaskHandler struct {
	service task.Service
}

func NewTaskHandler(service task.Service) *TaskHandler {
	return &TaskHandler{service: service}
}

// List retrieves a filtered, paginated list of tasks ordered by due date.
func (h *TaskHandler) List(c *gin.Context) {
	var req ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BindError(c, err)
		return
	}

	tasks, total, err := h.service.List(c.Request.Context(), task.Filter{
		Status:         task.Status(req.Status),
		Priority:       crm.Priority(req.Priority),
		AssignedUserID: req.AssignedUserID,
		ContactID:      req.ContactID,
		DealID:         req.DealID,
		OrganizationID: req.OrganizationID,
		Search:         req.Search,
		Paging:         req.Paging(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		items[i] = NewTaskResponse(t)
	}

	page := req.Paging().WithDefaults()
	c.JSON(http.StatusOK, TaskListResponse{
		Tasks:      items,
		Pagination: response.NewPagination(page.Page, page.Limit, total),
	})
}

// Dashboard returns per-status counts plus overdue and due-today totals.
func (h *TaskHandler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	summary := make([]StatusCountResponse, len(d.Summary))
	for i, s := range d.Summary {
		summary[i] = StatusCountResponse{Status: s.Status, Count: s.Count}
	}
	c.JSON(http.StatusOK, DashboardResponse{
		Summary:      summary,
		OverdueTasks: d.OverdueTasks,
		TodayTasks:   d.TodayTasks,
	})
}

// Get retrieves a single task by its ID.
func (h *TaskHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, TaskEnvelope{Task: NewTaskResponse(t)})
}

// Create adds a task assigned to and created by the caller.
func (h *TaskHandler) Create(c *gin.Context) {
	var body CreateTaskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	t, err := h.service.Create(c.Request.Context(), identity, task.CreateTaskRequest{
		Title:          body.Title,
		Description:    body.Description,
		Status:         body.Status,
		Priority:       body.Priority,
		DueDate:        body.DueDate.Ptr(),
		CompletedDate:  body.CompletedDate.Ptr(),
		EstimatedHours: body.EstimatedHours,
		ActualHours:    body.ActualHours,
		Tags:           body.Tags,
		Notes:          body.Notes,
		ContactID:      body.ContactID,
		DealID:         body.DealID,
		OrganizationID: body.OrganizationID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, TaskEnvelope{
		Message: "Task created successfully",
		Task:    NewTaskResponse(t),
	})
}

// Update modifies the supplied attributes of a task.
func (h *TaskHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BindError(c, err)
		return
	}

	var body UpdateTaskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BindError(c, err)
		return
	}

	identity, _ := auth.GetIdentity(c)
	t, err := h.service.Update(c.Request.Context(), identity, uri.ID, task.UpdateTaskRequest{
		Title:          body.Title,
		Description:    body.Description,
		Status:         body.Status,
		Priority:       body.Priority,
		DueDate:        body.DueDate,
		CompletedDate:  body.CompletedDate,
		EstimatedHours: body.EstimatedHours,
		ActualHours:    body.ActualHours,
		Tags:           body.Tags,
		Notes:          body.Notes,
		ContactID:      body.ContactID,
		DealID:         body.DealID,
		OrganizationID: body.OrganizationID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, TaskEnvelope{
		Message: "Task updated successfully",
		Task:    NewTaskResponse(t),
	})
}

// Delete removes a task.
// Access Control: admin or manager.
func (h *TaskHandler) Delete(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
