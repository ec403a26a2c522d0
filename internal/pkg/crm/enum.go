// Package crm holds the vocabulary shared by contacts, organizations, deals
// and tasks: closed enumerations, structured sub-records and the shallow
// references used to enrich responses.
package crm

import "slices"

// Enum is implemented by the closed string sets below.
type Enum interface {
	~string
	Valid() bool
}

// Parse converts s into an enum value, reporting whether it is a member.
func Parse[E Enum](s string) (E, bool) {
	e := E(s)
	return e, e.Valid()
}

// Strings renders members for messages and CHECK constraints.
func Strings[E ~string](set []E) []string {
	out := make([]string, len(set))
	for i, e := range set {
		out[i] = string(e)
	}
	return out
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// DefaultPriority applies when a record is created without one.
const DefaultPriority = PriorityMedium

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool { return slices.Contains(Priorities, p) }

// Source records how a contact or deal reached the team.
type Source string

const (
	SourceWebsite     Source = "website"
	SourceReferral    Source = "referral"
	SourceSocialMedia Source = "social_media"
	SourceColdCall    Source = "cold_call"
	SourceEvent       Source = "event"
	SourceOther       Source = "other"
)

const DefaultSource = SourceOther

var Sources = []Source{SourceWebsite, SourceReferral, SourceSocialMedia, SourceColdCall, SourceEvent, SourceOther}

func (s Source) Valid() bool { return slices.Contains(Sources, s) }
