package deal

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
	ErrNotFound      = apperror.NotFound("Deal not found")
	ErrHasDependents = apperror.New(http.StatusConflict, "Deal still has tasks")
)

// Stage is a position in the sales funnel.
type Stage string

const (
	StageLead        Stage = "lead"
	StageQualified   Stage = "qualified"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageClosedWon   Stage = "closed_won"
	StageClosedLost  Stage = "closed_lost"
)

const DefaultStage = StageLead

// Stages lists the funnel in order.
var Stages = []Stage{StageLead, StageQualified, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost}

func (s Stage) Valid() bool { return slices.Contains(Stages, s) }

// Closed reports whether the deal has been won or lost.
func (s Stage) Closed() bool { return s == StageClosedWon || s == StageClosedLost }

// position is the funnel index, used to order the pipeline summary.
func (s Stage) position() int {
	if i := slices.Index(Stages, s); i >= 0 {
		return i
	}
	return len(Stages)
}

const (
	DefaultCurrency    = "USD"
	DefaultProbability = 10
)

// Deal is a sales opportunity moving through the pipeline.
type Deal struct {
	ID                int64
	Title             string
	Description       string
	Value             float64
	Currency          string
	Stage             Stage
	Probability       int
	ExpectedCloseDate *time.Time
	ActualCloseDate   *time.Time
	Source            crm.Source
	Priority          crm.Priority
	Tags              []string
	Notes             string
	CustomFields      crm.CustomFields
	AssignedUserID    int64
	AssignedUser      *crm.UserRef
	ContactID         *int64
	Contact           *crm.ContactRef
	OrganizationID    *int64
	Organization      *crm.OrganizationRef
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// StageSummary aggregates the deals sitting in one stage.
type StageSummary struct {
	Stage      Stage
	Count      int
	TotalValue float64
}

// Filter defines filter options for listing deals.
type Filter struct {
	Stage          Stage
	Priority       crm.Priority
	Source         crm.Source
	AssignedUserID int64
	ContactID      int64
	OrganizationID int64
	Search         string
	request.Paging
}

// Patch holds validated column changes. Unset fields are left untouched.
type Patch struct {
	Title             *string
	Description       *string
	Value             *float64
	Currency          *string
	Stage             *Stage
	Probability       *int
	ExpectedCloseDate null.Value[time.Time]
	ActualCloseDate   null.Value[time.Time]
	Source            *crm.Source
	Priority          *crm.Priority
	Tags              *[]string
	Notes             *string
	CustomFields      null.Value[crm.CustomFields]
	ContactID         null.Value[int64]
	OrganizationID    null.Value[int64]
}

func (p Patch) empty() bool {
	return p.Title == nil && p.Description == nil && p.Value == nil && p.Currency == nil &&
		p.Stage == nil && p.Probability == nil && !p.ExpectedCloseDate.Set && !p.ActualCloseDate.Set &&
		p.Source == nil && p.Priority == nil && p.Tags == nil && p.Notes == nil &&
		!p.CustomFields.Set && !p.ContactID.Set && !p.OrganizationID.Set
}
