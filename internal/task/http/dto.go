package http

import (
	"time"

	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
	"github.com/nekogravitycat/crm-backend/internal/pkg/response"
	"github.com/nekogravitycat/crm-backend/internal/task"
)

// TaskResponse is the JSON form of a task.
type TaskResponse struct {
	ID              int64                `json:"id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Status          task.Status          `json:"status"`
	Priority        crm.Priority         `json:"priority"`
	DueDate         *time.Time           `json:"dueDate"`
	CompletedDate   *time.Time           `json:"completedDate"`
	EstimatedHours  *float64             `json:"estimatedHours"`
	ActualHours     *float64             `json:"actualHours"`
	Tags            []string             `json:"tags"`
	Notes           string               `json:"notes"`
	AssignedUserID  int64                `json:"assignedUserId"`
	AssignedUser    *crm.UserRef         `json:"assignedUser"`
	CreatedByUserID *int64               `json:"createdByUserId"`
	CreatedBy       *crm.UserRef         `json:"createdBy"`
	ContactID       *int64               `json:"contactId"`
	Contact         *crm.ContactRef      `json:"contact"`
	DealID          *int64               `json:"dealId"`
	Deal            *crm.DealRef         `json:"deal"`
	OrganizationID  *int64               `json:"organizationId"`
	Organization    *crm.OrganizationRef `json:"organization"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func NewTaskResponse(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          t.Status,
		Priority:        t.Priority,
		DueDate:         t.DueDate,
		CompletedDate:   t.CompletedDate,
		EstimatedHours:  t.EstimatedHours,
		ActualHours:     t.ActualHours,
		Tags:            response.NonNil(t.Tags),
		Notes:           t.Notes,
		AssignedUserID:  t.AssignedUserID,
		AssignedUser:    t.AssignedUser,
		CreatedByUserID: t.CreatedByUserID,
		CreatedBy:       t.CreatedBy,
		ContactID:       t.ContactID,
		Contact:         t.Contact,
		DealID:          t.DealID,
		Deal:            t.Deal,
		OrganizationID:  t.OrganizationID,
		Organization:    t.Organization,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// TaskEnvelope wraps a single task.
type TaskEnvelope struct {
	Message string       `json:"message,omitempty"`
	Task    TaskResponse `json:"task"`
}

// TaskListResponse is the body of GET /tasks.
type TaskListResponse struct {
	Tasks      []TaskResponse      `json:"tasks"`
	Pagination response.Pagination `json:"pagination"`
}

type StatusCountResponse struct {
	Status task.Status `json:"status"`
	Count  int         `json:"count"`
}

// DashboardResponse is the body of GET /tasks/dashboard.
type DashboardResponse struct {
	Summary      []StatusCountResponse `json:"summary"`
	OverdueTasks int                   `json:"overdueTasks"`
	TodayTasks   int                   `json:"todayTasks"`
}

// ListTasksRequest binds the list query string.
type ListTasksRequest struct {
	request.ListParams
	Status         string `form:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority       string `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	AssignedUserID int64  `form:"assignedUserId" binding:"omitempty,min=1"`
	ContactID      int64  `form:"contactId" binding:"omitempty,min=1"`
	DealID         int64  `form:"dealId" binding:"omitempty,min=1"`
	OrganizationID int64  `form:"organizationId" binding:"omitempty,min=1"`
}

// CreateTaskRequest is the payload for POST /tasks.
type CreateTaskRequest struct {
	Title          string                `json:"title" binding:"required,max=200"`
	Description    string                `json:"description" binding:"max=1000"`
	Status         string                `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority       string                `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate        null.Value[time.Time] `json:"dueDate"`
	CompletedDate  null.Value[time.Time] `json:"completedDate"`
	EstimatedHours *float64              `json:"estimatedHours" binding:"omitempty,min=0"`
	ActualHours    *float64              `json:"actualHours" binding:"omitempty,min=0"`
	Tags           []string              `json:"tags"`
	Notes          string                `json:"notes" binding:"max=2000"`
	ContactID      *int64                `json:"contactId" binding:"omitempty,min=1"`
	DealID         *int64                `json:"dealId" binding:"omitempty,min=1"`
	OrganizationID *int64                `json:"organizationId" binding:"omitempty,min=1"`
}

// UpdateTaskRequest is the payload for PUT /tasks/:id.
type UpdateTaskRequest struct {
	Title          *string               `json:"title" binding:"omitempty,max=200"`
	Description    *string               `json:"description" binding:"omitempty,max=1000"`
	Status         *string               `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority       *string               `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate        null.Value[time.Time] `json:"dueDate"`
	CompletedDate  null.Value[time.Time] `json:"completedDate"`
	EstimatedHours null.Value[float64]   `json:"estimatedHours"`
	ActualHours    null.Value[float64]   `json:"actualHours"`
	Tags           *[]string             `json:"tags"`
	Notes          *string               `json:"notes" binding:"omitempty,max=2000"`
	ContactID      null.Value[int64]     `json:"contactId"`
	DealID         null.Value[int64]     `json:"dealId"`
	OrganizationID null.Value[int64]     `json:"organizationId"`
}
