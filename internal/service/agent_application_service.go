package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/primewheels/agent-service/internal/domain"
	"github.com/primewheels/agent-service/internal/events"
	"github.com/primewheels/agent-service/internal/observability"
	"github.com/primewheels/agent-service/internal/repository"
	"github.com/primewheels/agent-service/internal/validation"
	apperrors "github.com/primewheels/agent-service/pkg/util/errorutil"
)

// User-facing messages shared by the page and JSON flows.
const (
	MsgDuplicateEmail   = "An application with this email already exists"
	MsgAlreadyProcessed = "Application has already been processed"
	MsgNotFound         = "Application not found"
)

// StatusFilterAll disables status filtering on list queries.
const StatusFilterAll = "all"

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// AgentApplicationService coordinates the agent hiring workflow.
type AgentApplicationService struct {
	applications repository.AgentApplicationRepository
	users        repository.UserRepository
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// AgentApplicationDependencies bundles collaborators for the service.
type AgentApplicationDependencies struct {
	ApplicationRepo repository.AgentApplicationRepository
	UserRepo        repository.UserRepository
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	Clock           func() time.Time
}

// ListQuery describes a dashboard page request. Zero values fall back to
// page 1, limit 10 and the pending status.
type ListQuery struct {
	Page   int
	Limit  int
	Status string
}

// ApplicationPage is one page of applications plus paging metadata.
type ApplicationPage struct {
	Items      []domain.AgentApplication
	Status     string
	Total      int64
	Page       int
	Limit      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// ApplicationStats counts applications per status.
type ApplicationStats map[domain.ApplicationStatus]int64

// Total sums every status.
func (s ApplicationStats) Total() int64 {
	var total int64
	for _, n := range s {
		total += n
	}
	return total
}

// Dashboard combines a page of applications with the status counts.
type Dashboard struct {
	Page  *ApplicationPage
	Stats ApplicationStats
}

// ApplicationDetail is a single application with its reviewer resolved.
type ApplicationDetail struct {
	Application  domain.AgentApplication
	ReviewerName string
}

// NewAgentApplicationService constructs the service.
func NewAgentApplicationService(deps AgentApplicationDependencies) *AgentApplicationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AgentApplicationService{
		applications: deps.ApplicationRepo,
		users:        deps.UserRepo,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       logger,
		now:          clock,
	}
}

// Now returns the service clock, used to render application age.
func (s *AgentApplicationService) Now() time.Time {
	return s.now()
}

// Submit validates a candidate's form and stores it as pending.
func (s *AgentApplicationService) Submit(ctx context.Context, input validation.AgentApplicationInput) (*domain.AgentApplication, error) {
	in := validation.Normalize(input)
	if violations := validation.ValidateAgentApplication(in); len(violations) > 0 {
		return nil, violationsError(violations)
	}

	if _, err := s.applications.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewDuplicateEmail(MsgDuplicateEmail)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	experience, _ := validation.ParseExperience(in.Experience)
	app := &domain.AgentApplication{
		Name:                 in.Name,
		Contact:              in.Contact,
		Email:                in.Email,
		Address:              in.Address,
		JobTitle:             in.JobTitle,
		Experience:           experience,
		Company:              in.Company,
		InspectionExperience: domain.Answer(in.InspectionExperience),
		FraudExperience:      domain.Answer(in.FraudExperience),
		WorkHours:            domain.WorkHours(in.WorkHours),
		ExpectedSalary:       in.ExpectedSalary,
		Status:               domain.ApplicationStatusPending,
	}
	if err := s.applications.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDuplicateEmail(MsgDuplicateEmail)
		}
		return nil, err
	}

	s.metrics.ApplicationSubmitted()
	s.publishEvent(ctx, events.Event{
		Type:          events.EventApplicationSubmitted,
		ApplicationID: app.ID,
		Payload: events.ApplicationSubmittedPayload{
			Name:      app.Name,
			Email:     app.Email,
			WorkHours: app.WorkHours,
		},
	})
	return app, nil
}

// List returns a page of applications, newest first.
func (s *AgentApplicationService) List(ctx context.Context, q ListQuery) (*ApplicationPage, error) {
	page, limit := normalizePaging(q.Page, q.Limit)
	filter := repository.ApplicationFilter{Limit: limit, Offset: (page - 1) * limit}

	status := q.Status
	if status == "" {
		status = string(domain.ApplicationStatusPending)
	}
	if status != StatusFilterAll {
		st := domain.ApplicationStatus(status)
		if !st.Valid() {
			return nil, apperrors.NewValidationError("", []apperrors.FieldError{{
				Field:   "status",
				Message: "Status must be one of pending, approved, rejected or all",
			}})
		}
		filter.Status = &st
	}

	total, err := s.applications.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := s.applications.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ApplicationPage{
		Items:      items,
		Status:     status,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

// Stats counts applications per status. Every known status is present.
func (s *AgentApplicationService) Stats(ctx context.Context) (ApplicationStats, error) {
	counts, err := s.applications.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := make(ApplicationStats, len(domain.ApplicationStatuses))
	for _, status := range domain.ApplicationStatuses {
		stats[status] = 0
	}
	for status, n := range counts {
		stats[status] = n
	}
	return stats, nil
}

// Dashboard loads a page and the status counts for the admin view.
func (s *AgentApplicationService) Dashboard(ctx context.Context, q ListQuery) (*Dashboard, error) {
	page, err := s.List(ctx, q)
	if err != nil {
		return nil, err
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Page: page, Stats: stats}, nil
}

// Approve moves a pending application to approved.
func (s *AgentApplicationService) Approve(ctx context.Context, id, reviewerID string) (*domain.AgentApplication, error) {
	app, err := s.transition(ctx, id, reviewerID, domain.ApplicationStatusApproved, nil)
	if err != nil {
		return nil, err
	}
	s.metrics.ApplicationReviewed(string(domain.ApplicationStatusApproved))
	s.publishEvent(ctx, events.Event{
		Type:          events.EventApplicationApproved,
		ApplicationID: app.ID,
		ActorID:       &reviewerID,
		Payload: events.ApplicationReviewedPayload{
			Name:   app.Name,
			Email:  app.Email,
			Status: app.Status,
		},
	})
	return app, nil
}

// Reject moves a pending application to rejected. An empty reason is
// stored as DefaultRejectionReason.
func (s *AgentApplicationService) Reject(ctx context.Context, id, reviewerID, reason string) (*domain.AgentApplication, error) {
	reason = strings.TrimSpace(reason)
	if violations := validation.ValidateRejectionReason(reason); len(violations) > 0 {
		return nil, violationsError(violations)
	}
	if reason == "" {
		reason = domain.DefaultRejectionReason
	}
	app, err := s.transition(ctx, id, reviewerID, domain.ApplicationStatusRejected, &reason)
	if err != nil {
		return nil, err
	}
	s.metrics.ApplicationReviewed(string(domain.ApplicationStatusRejected))
	s.publishEvent(ctx, events.Event{
		Type:          events.EventApplicationRejected,
		ApplicationID: app.ID,
		ActorID:       &reviewerID,
		Payload: events.ApplicationReviewedPayload{
			Name:            app.Name,
			Email:           app.Email,
			Status:          app.Status,
			RejectionReason: reason,
		},
	})
	return app, nil
}

// GetDetail loads one application and resolves the reviewer's name.
func (s *AgentApplicationService) GetDetail(ctx context.Context, id string) (*ApplicationDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound(MsgNotFound)
	}
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound(MsgNotFound)
		}
		return nil, err
	}

	detail := &ApplicationDetail{Application: *app}
	if app.ReviewedBy != nil {
		detail.ReviewerName = s.reviewerName(ctx, *app.ReviewedBy)
	}
	return detail, nil
}

func (s *AgentApplicationService) reviewerName(ctx context.Context, reviewerID string) string {
	if s.users == nil {
		return reviewerID
	}
	user, err := s.users.GetByID(ctx, reviewerID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("resolve reviewer", zap.String("reviewer_id", reviewerID), zap.Error(err))
		}
		return reviewerID
	}
	if name := user.DisplayName(); name != "" {
		return name
	}
	return reviewerID
}

// transition applies a conditional pending -> to update. When nothing
// matched, a follow-up read tells a missing id from a processed one.
func (s *AgentApplicationService) transition(ctx context.Context, id, reviewerID string, to domain.ApplicationStatus, reason *string) (*domain.AgentApplication, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound(MsgNotFound)
	}
	if _, err := uuid.Parse(reviewerID); err != nil {
		return nil, apperrors.NewUnauthorized("reviewer identity required")
	}

	app, err := s.applications.Transition(ctx, id, to, reviewerID, reason)
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	current, err := s.applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound(MsgNotFound)
		}
		return nil, err
	}
	if current.Status != domain.ApplicationStatusPending {
		return nil, apperrors.NewAlreadyProcessed(MsgAlreadyProcessed)
	}
	return nil, fmt.Errorf("transition %s to %s matched no rows while pending", id, to)
}

func (s *AgentApplicationService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func normalizePaging(page, limit int) (int, int) {
	if page <= 0 {
		page = defaultPage
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	// keep (page-1)*limit within a 32-bit OFFSET
	if maxPage := math.MaxInt32/limit + 1; page > maxPage {
		page = maxPage
	}
	return page, limit
}

func violationsError(violations []validation.Violation) error {
	fields := make([]apperrors.FieldError, 0, len(violations))
	for _, v := range violations {
		fields = append(fields, apperrors.FieldError{Field: v.Field, Message: v.Message})
	}
	return apperrors.NewValidationError("", fields)
}
