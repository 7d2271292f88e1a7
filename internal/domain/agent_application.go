package domain

import (
	"fmt"
	"time"
)

// ApplicationStatus enumerates lifecycle states for agent applications.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every status in display order.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusApproved,
	ApplicationStatusRejected,
}

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// Answer is a Yes/No capability flag.
type Answer string

const (
	AnswerYes Answer = "Yes"
	AnswerNo  Answer = "No"
)

// WorkHours is the candidate's preferred schedule.
type WorkHours string

const (
	WorkHoursFullTime WorkHours = "Full-time"
	WorkHoursPartTime WorkHours = "Part-time"
)

// DefaultRejectionReason is stored when a reviewer rejects without a reason.
const DefaultRejectionReason = "No reason provided"

// AgentApplication is a candidate's request to become a verification agent.
type AgentApplication struct {
	ID                   string
	Name                 string
	Contact              string
	Email                string
	Address              string
	JobTitle             string
	Experience           int
	Company              string
	InspectionExperience Answer
	FraudExperience      Answer
	WorkHours            WorkHours
	ExpectedSalary       string
	Status               ApplicationStatus
	ReviewedBy           *string
	ReviewedAt           *time.Time
	RejectionReason      *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Age returns the human readable age of the application at now.
func (a *AgentApplication) Age(now time.Time) string {
	return ApplicationAge(a.CreatedAt, now)
}

// ApplicationAge renders elapsed whole days since createdAt.
func ApplicationAge(createdAt, now time.Time) string {
	elapsed := now.Sub(createdAt)
	if elapsed < 0 {
		elapsed = 0
	}
	days := int(elapsed / (24 * time.Hour))
	switch days {
	case 0:
		return "Today"
	case 1:
		return "Yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}
