package contact

import (
	"net/http"
	"slices"
	"time"

	"github.com/nekogravitycat/crm-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/null"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
)

var (
	ErrNotFound      = apperror.NotFound("Contact not found")
	ErrHasDependents = apperror.New(http.StatusConflict, "Contact still has deals or tasks")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusProspect Status = "prospect"
	StatusCustomer Status = "customer"
)

const DefaultStatus = StatusProspect

var Statuses = []Status{StatusActive, StatusInactive, StatusProspect, StatusCustomer}

func (s Status) Valid() bool { return slices.Contains(Statuses, s) }

// Contact is a person the team is in touch with.
type Contact struct {
	ID               int64
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Position         string
	Department       string
	Status           Status
	Source           crm.Source
	Priority         crm.Priority
	Tags             []string
	Notes            string
	Address          *crm.Address
	SocialMedia      *crm.SocialProfiles
	LastContactDate  *time.Time
	NextFollowUpDate *time.Time
	AssignedUserID   int64
	AssignedUser     *crm.UserRef
	OrganizationID   *int64
	Organization     *crm.OrganizationRef
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Filter defines filter options for listing contacts.
type Filter struct {
	Status         Status
	Priority       crm.Priority
	Source         crm.Source
	AssignedUserID int64
	OrganizationID int64
	Search         string
	request.Paging
}

// Patch holds validated column changes. Unset fields are left untouched.
type Patch struct {
	FirstName        *string
	LastName         *string
	Email            *string
	Phone            *string
	Position         *string
	Department       *string
	Status           *Status
	Source           *crm.Source
	Priority         *crm.Priority
	Tags             *[]string
	Notes            *string
	Address          null.Value[crm.Address]
	SocialMedia      null.Value[crm.SocialProfiles]
	LastContactDate  null.Value[time.Time]
	NextFollowUpDate null.Value[time.Time]
	OrganizationID   null.Value[int64]
}

func (p Patch) empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Phone == nil &&
		p.Position == nil && p.Department == nil && p.Status == nil && p.Source == nil &&
		p.Priority == nil && p.Tags == nil && p.Notes == nil && !p.Address.Set &&
		!p.SocialMedia.Set && !p.LastContactDate.Set && !p.NextFollowUpDate.Set && !p.OrganizationID.Set
}
