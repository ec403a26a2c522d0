package task

import (
	"slices"
	"time"

	"github.com/nekogravitycat/crm-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
)

var ErrNotFound = apperror.NotFound("Task not found")

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

const DefaultStatus = StatusPending

var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool { return slices.Contains(Statuses, s) }

// Open reports whether the task still counts towards overdue and due-today totals.
func (s Status) Open() bool { return s != StatusCompleted && s != StatusCancelled }

// Task is a unit of follow-up work.
type Task struct {
	ID              int64
	Title           string
	Description     string
	Status          Status
	Priority        crm.Priority
	DueDate         *time.Time
	CompletedDate   *time.Time
	EstimatedHours  *float64
	ActualHours     *float64
	Tags            []string
	Notes           string
	AssignedUserID  int64
	AssignedUser    *crm.UserRef
	CreatedByUserID *int64
	CreatedBy       *crm.UserRef
	ContactID       *int64
	Contact         *crm.ContactRef
	DealID          *int64
	Deal            *crm.DealRef
	OrganizationID  *int64
	Organization    *crm.OrganizationRef
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatusCount is one row of the dashboard summary.
type StatusCount struct {
	Status Status
	Count  int
}

// Dashboard summarises the task backlog.
type Dashboard struct {
	Summary      []StatusCount
	OverdueTasks int
	TodayTasks   int
}

// Filter defines filter options for listing tasks.
type Filter struct {
	Status         Status
	Priority       crm.Priority
	AssignedUserID int64
	ContactID      int64
	DealID         int64
	OrganizationID int64
	Search         string
	request.Paging
}

// Patch holds validated column changes. Unset fields are left untouched.
type Patch struct {
	Title          *string
	Description    *string
	Status         *Status
	Priority       *crm.Priority
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

func (p Patch) empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		!p.DueDate.Set && !p.CompletedDate.Set && !p.EstimatedHours.Set && !p.ActualHours.Set &&
		p.Tags == nil && p.Notes == nil && !p.ContactID.Set && !p.DealID.Set && !p.OrganizationID.Set
}
