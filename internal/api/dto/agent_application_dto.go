package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/primewheels/agent-service/internal/domain"
	"github.com/primewheels/agent-service/internal/validation"
)

// Experience accepts years as a JSON number or string.
type Experience string

func (e *Experience) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*e = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = Experience(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*e = Experience(n.String())
	return nil
}

// SubmitAgentApplicationRequest is the form or JSON body of a submission.
type SubmitAgentApplicationRequest struct {
	Name       string     `json:"name" form:"name"`
	Contact    string     `json:"contact" form:"contact"`
	Email      string     `json:"email" form:"email"`
	Address    string     `json:"address" form:"address"`
	JobTitle   string     `json:"jobTitle" form:"jobTitle"`
	Experience Experience `json:"experience" form:"experience"`
	Company    string     `json:"company" form:"company"`
	Inspection string     `json:"inspection" form:"inspection"`
	Fraud      string     `json:"fraud" form:"fraud"`
	WorkHours  string     `json:"workHours" form:"workHours"`
	Salary     string     `json:"salary" form:"salary"`
}

// Input converts the request into the validation input.
func (r SubmitAgentApplicationRequest) Input() validation.AgentApplicationInput {
	return validation.AgentApplicationInput{
		Name:                 r.Name,
		Contact:              r.Contact,
		Email:                r.Email,
		Address:              r.Address,
		JobTitle:             r.JobTitle,
		Experience:           string(r.Experience),
		Company:              r.Company,
		InspectionExperience: r.Inspection,
		FraudExperience:      r.Fraud,
		WorkHours:            r.WorkHours,
		ExpectedSalary:       r.Salary,
	}
}

// RejectApplicationRequest carries the optional reviewer note.
type RejectApplicationRequest struct {
	RejectionReason string `json:"rejectionReason" form:"rejectionReason"`
}

// DashboardQuery captures list query parameters.
type DashboardQuery struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Status string `query:"status"`
}

// SubmitAgentApplicationResponse is returned after a submission.
type SubmitAgentApplicationResponse struct {
	ID     string                   `json:"id"`
	Status domain.ApplicationStatus `json:"status"`
}

// AgentApplicationResponse is the API view of an application.
type AgentApplicationResponse struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	Contact         string                   `json:"contact"`
	Email           string                   `json:"email"`
	Address         string                   `json:"address"`
	JobTitle        string                   `json:"jobTitle"`
	Experience      int                      `json:"experience"`
	Company         string                   `json:"company"`
	Inspection      domain.Answer            `json:"inspection"`
	Fraud           domain.Answer            `json:"fraud"`
	WorkHours       domain.WorkHours         `json:"workHours"`
	Salary          string                   `json:"salary"`
	Status          domain.ApplicationStatus `json:"status"`
	ReviewedBy      *string                  `json:"reviewedBy"`
	ReviewedAt      *time.Time               `json:"reviewedAt"`
	RejectionReason *string                  `json:"rejectionReason"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
	ApplicationAge  string                   `json:"applicationAge"`
}

// ApplicationDetailResponse adds the reviewer's display name.
type ApplicationDetailResponse struct {
	AgentApplicationResponse
	ReviewerName string `json:"reviewerName,omitempty"`
}

// PaginationResponse describes the current list page.
type PaginationResponse struct {
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int64  `json:"total"`
	TotalPages int    `json:"totalPages"`
	HasNext    bool   `json:"hasNext"`
	HasPrev    bool   `json:"hasPrev"`
	Status     string `json:"status"`
}

// StatsResponse counts applications per status.
type StatsResponse struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

// DashboardResponse is the admin dashboard payload.
type DashboardResponse struct {
	Applications []AgentApplicationResponse `json:"applications"`
	Pagination   PaginationResponse         `json:"pagination"`
	Stats        StatsResponse              `json:"stats"`
}

// NewAgentApplicationResponse maps a domain application.
func NewAgentApplicationResponse(app *domain.AgentApplication, now time.Time) AgentApplicationResponse {
	return AgentApplicationResponse{
		ID:              app.ID,
		Name:            app.Name,
		Contact:         app.Contact,
		Email:           app.Email,
		Address:         app.Address,
		JobTitle:        app.JobTitle,
		Experience:      app.Experience,
		Company:         app.Company,
		Inspection:      app.InspectionExperience,
		Fraud:           app.FraudExperience,
		WorkHours:       app.WorkHours,
		Salary:          app.ExpectedSalary,
		Status:          app.Status,
		ReviewedBy:      app.ReviewedBy,
		ReviewedAt:      app.ReviewedAt,
		RejectionReason: app.RejectionReason,
		CreatedAt:       app.CreatedAt,
		UpdatedAt:       app.UpdatedAt,
		ApplicationAge:  app.Age(now),
	}
}

// NewStatsResponse flattens per-status counts.
func NewStatsResponse(stats map[domain.ApplicationStatus]int64) StatsResponse {
	out := StatsResponse{
		Pending:  stats[domain.ApplicationStatusPending],
		Approved: stats[domain.ApplicationStatusApproved],
		Rejected: stats[domain.ApplicationStatusRejected],
	}
	out.Total = out.Pending + out.Approved + out.Rejected
	return out
}
