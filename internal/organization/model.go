package organization

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
	ErrNotFound      = apperror.NotFound("Organization not found")
	ErrHasDependents = apperror.New(http.StatusConflict, "Organization still has contacts, deals or tasks")
)

type Size string

const (
	SizeStartup    Size = "startup"
	SizeSmall      Size = "small"
	SizeMedium     Size = "medium"
	SizeLarge      Size = "large"
	SizeEnterprise Size = "enterprise"
)

const DefaultSize = SizeSmall

var Sizes = []Size{SizeStartup, SizeSmall, SizeMedium, SizeLarge, SizeEnterprise}

func (s Size) Valid() bool { return slices.Contains(Sizes, s) }

type Status string

const (
	StatusProspect Status = "prospect"
	StatusCustomer Status = "customer"
	StatusPartner  Status = "partner"
	StatusInactive Status = "inactive"
)

const DefaultStatus = StatusProspect

var Statuses = []Status{StatusProspect, StatusCustomer, StatusPartner, StatusInactive}

func (s Status) Valid() bool { return slices.Contains(Statuses, s) }

// Organization is a company the team sells to or works with.
type Organization struct {
	ID             int64
	Name           string
	Description    string
	Industry       string
	Website        string
	Phone          string
	Email          string
	Address        *crm.Address
	Size           Size
	Status         Status
	Revenue        *float64
	Employees      *int
	Tags           []string
	SocialProfiles *crm.SocialProfiles
	Notes          string
	AssignedUserID int64
	AssignedUser   *crm.UserRef
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Filter defines filter options for listing organizations.
type Filter struct {
	Status         Status
	Size           Size
	Industry       string
	AssignedUserID int64
	Search         string
	request.Paging
}

// Patch holds validated column changes. Unset fields are left untouched.
type Patch struct {
	Name           *string
	Description    *string
	Industry       *string
	Website        *string
	Phone          *string
	Email          *string
	Address        null.Value[crm.Address]
	Size           *Size
	Status         *Status
	Revenue        null.Value[float64]
	Employees      null.Value[int]
	Tags           *[]string
	SocialProfiles null.Value[crm.SocialProfiles]
	Notes          *string
}
