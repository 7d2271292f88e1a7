package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/primewheels/agent-service/internal/domain"
	"github.com/primewheels/agent-service/internal/events"
	"github.com/primewheels/agent-service/internal/repository"
	"github.com/primewheels/agent-service/internal/validation"
	apperrors "github.com/primewheels/agent-service/pkg/util/errorutil"
)

const (
	reviewerID      = "9b2f6a7e-3c1d-4e5f-8a9b-0c1d2e3f4a5b"
	otherReviewerID = "4c8d2e1f-7a6b-4c3d-9e8f-1a2b3c4d5e6f"
)

type fixture struct {
	svc    *AgentApplicationService
	repo   *repository.MemoryAgentApplicationRepository
	users  *repository.MemoryUserRepository
	events []events.Event
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	f.repo = repository.NewMemoryAgentApplicationRepository()
	f.repo.SetClock(clock)
	f.users = repository.NewMemoryUserRepository(domain.User{ID: reviewerID, Username: "hostadmin", Email: "host@primewheels.test"})

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	record := func(_ context.Context, e events.Event) error {
		f.events = append(f.events, e)
		return nil
	}
	dispatcher.Subscribe(events.EventApplicationSubmitted, record)
	dispatcher.Subscribe(events.EventApplicationApproved, record)
	dispatcher.Subscribe(events.EventApplicationRejected, record)

	f.svc = NewAgentApplicationService(AgentApplicationDependencies{
		ApplicationRepo: f.repo,
		UserRepo:        f.users,
		Dispatcher:      dispatcher,
		Clock:           clock,
	})
	return f
}

func validInput() validation.AgentApplicationInput {
	return validation.AgentApplicationInput{
		Name:                 "Asha Rao",
		Contact:              "9876543210",
		Email:                "Asha@Example.com",
		Address:              "12 MG Road, Pune",
		JobTitle:             "Inspector",
		Experience:           "4",
		Company:              "AutoCheck",
		InspectionExperience: "Yes",
		FraudExperience:      "No",
		WorkHours:            "Full-time",
		ExpectedSalary:       "40000",
	}
}

func (f *fixture) submit(t *testing.T, email string) *domain.AgentApplication {
	t.Helper()
	in := validInput()
	in.Email = email
	app, err := f.svc.Submit(context.Background(), in)
	require.NoError(t, err)
	return app
}

func TestSubmit_StoresPendingApplication(t *testing.T) {
	f := newFixture(t)

	app, err := f.svc.Submit(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, app.ID)
	assert.Equal(t, domain.ApplicationStatusPending, app.Status)
	assert.Equal(t, "asha@example.com", app.Email)
	assert.Equal(t, 4, app.Experience)
	assert.Nil(t, app.ReviewedBy)
	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventApplicationSubmitted, f.events[0].Type)
	assert.Equal(t, app.ID, f.events[0].ApplicationID)
}

func TestSubmit_InvalidContact(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Contact = "12345"

	_, err := f.svc.Submit(context.Background(), in)

	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
	assert.Equal(t, "Contact number must be exactly 10 digits", domainErr.Message)
	require.Len(t, domainErr.Fields, 1)
	assert.Equal(t, "contact", domainErr.Fields[0].Field)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total())
}

func TestSubmit_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "asha@example.com")

	_, err := f.svc.Submit(context.Background(), validInput())

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeDuplicateEmail))
	assert.Equal(t, MsgDuplicateEmail, apperrors.ToDomainError(err).Message)
}

func TestList_DefaultsToPendingNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.submit(t, "one@example.com")
	f.now = f.now.Add(time.Minute)
	second := f.submit(t, "two@example.com")
	f.now = f.now.Add(time.Minute)
	third := f.submit(t, "three@example.com")
	_, err := f.svc.Approve(context.Background(), third.ID, reviewerID)
	require.NoError(t, err)

	page, err := f.svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)

	assert.Equal(t, "pending", page.Status)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Equal(t, first.ID, page.Items[1].ID)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrev)
}

func TestList_PaginationAndAllFilter(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 25; i++ {
		f.now = f.now.Add(time.Second)
		f.submit(t, fmt.Sprintf("agent%02d@example.com", i))
	}

	page, err := f.svc.List(context.Background(), ListQuery{Page: 3, Limit: 10, Status: StatusFilterAll})
	require.NoError(t, err)

	assert.EqualValues(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 5)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)
	assert.Equal(t, "agent04@example.com", page.Items[0].Email)
}

func TestList_CapsLimitAndRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)

	page, err := f.svc.List(context.Background(), ListQuery{Limit: 1000, Page: -2})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)
	assert.Equal(t, 1, page.Page)

	_, err = f.svc.List(context.Background(), ListQuery{Status: "archived"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestList_HugePageIsEmptyNotOverflowed(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.submit(t, fmt.Sprintf("agent%d@example.com", i))
	}

	page, err := f.svc.List(context.Background(), ListQuery{Page: math.MaxInt, Limit: 10, Status: StatusFilterAll})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 3, page.Total)
	assert.Positive(t, page.Page)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)

	p, l := normalizePaging(math.MaxInt, maxLimit)
	assert.Equal(t, maxLimit, l)
	assert.Positive(t, (p-1)*l)
	assert.LessOrEqual(t, (p-1)*l, math.MaxInt32)
}

func TestList_AllTotalMatchesStatsTotal(t *testing.T) {
	f := newFixture(t)
	var ids []string
	for i := 0; i < 7; i++ {
		f.now = f.now.Add(time.Minute)
		ids = append(ids, f.submit(t, fmt.Sprintf("mixed%d@example.com", i)).ID)
	}
	for _, id := range ids[:2] {
		_, err := f.svc.Approve(context.Background(), id, reviewerID)
		require.NoError(t, err)
	}
	for _, id := range ids[2:5] {
		_, err := f.svc.Reject(context.Background(), id, reviewerID, "")
		require.NoError(t, err)
	}

	all, err := f.svc.List(context.Background(), ListQuery{Status: StatusFilterAll, Limit: 2})
	require.NoError(t, err)
	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, stats.Total(), all.Total)
	assert.EqualValues(t, 7, all.Total)
	assert.Equal(t, 4, all.TotalPages)

	var sum int64
	for _, status := range []string{"pending", "approved", "rejected"} {
		page, err := f.svc.List(context.Background(), ListQuery{Status: status})
		require.NoError(t, err)
		assert.Equal(t, stats[domain.ApplicationStatus(status)], page.Total, status)
		sum += page.Total
	}
	assert.Equal(t, all.Total, sum)
}

func TestStats_ZeroFilled(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "a@example.com")
	b := f.submit(t, "b@example.com")
	f.submit(t, "c@example.com")
	_, err := f.svc.Approve(context.Background(), a.ID, reviewerID)
	require.NoError(t, err)
	_, err = f.svc.Reject(context.Background(), b.ID, reviewerID, "")
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 1, stats[domain.ApplicationStatusPending])
	assert.EqualValues(t, 1, stats[domain.ApplicationStatusApproved])
	assert.EqualValues(t, 1, stats[domain.ApplicationStatusRejected])
	assert.EqualValues(t, 3, stats.Total())

	empty, err := newFixture(t).svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Len(t, empty, 3)
	assert.Zero(t, empty.Total())
}

func TestApprove_SetsReviewerAndIsTerminal(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")
	f.now = f.now.Add(time.Hour)

	approved, err := f.svc.Approve(context.Background(), app.ID, reviewerID)
	require.NoError(t, err)

	assert.Equal(t, domain.ApplicationStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, reviewerID, *approved.ReviewedBy)
	require.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, f.now, *approved.ReviewedAt)
	assert.Nil(t, approved.RejectionReason)

	reviewedAt := f.now
	f.now = f.now.Add(2 * time.Hour)

	_, err = f.svc.Approve(context.Background(), app.ID, otherReviewerID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyProcessed))
	assert.Equal(t, MsgAlreadyProcessed, apperrors.ToDomainError(err).Message)

	_, err = f.svc.Reject(context.Background(), app.ID, otherReviewerID, "late")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyProcessed))

	stored, err := f.svc.GetDetail(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusApproved, stored.Application.Status)
	require.NotNil(t, stored.Application.ReviewedBy)
	assert.Equal(t, reviewerID, *stored.Application.ReviewedBy)
	require.NotNil(t, stored.Application.ReviewedAt)
	assert.True(t, reviewedAt.Equal(*stored.Application.ReviewedAt))
	assert.Nil(t, stored.Application.RejectionReason)
}

func TestReject_IsTerminalForLaterReviewers(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")
	f.now = f.now.Add(time.Hour)
	reviewedAt := f.now

	_, err := f.svc.Reject(context.Background(), app.ID, reviewerID, "Incomplete history")
	require.NoError(t, err)

	f.now = f.now.Add(3 * time.Hour)
	_, err = f.svc.Reject(context.Background(), app.ID, otherReviewerID, "Second opinion")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyProcessed))
	_, err = f.svc.Approve(context.Background(), app.ID, otherReviewerID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyProcessed))

	stored, err := f.svc.GetDetail(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusRejected, stored.Application.Status)
	require.NotNil(t, stored.Application.ReviewedBy)
	assert.Equal(t, reviewerID, *stored.Application.ReviewedBy)
	require.NotNil(t, stored.Application.ReviewedAt)
	assert.True(t, reviewedAt.Equal(*stored.Application.ReviewedAt))
	require.NotNil(t, stored.Application.RejectionReason)
	assert.Equal(t, "Incomplete history", *stored.Application.RejectionReason)
	assert.Equal(t, "hostadmin", stored.ReviewerName)
}

func TestReject_DefaultReason(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")

	rejected, err := f.svc.Reject(context.Background(), app.ID, reviewerID, "")
	require.NoError(t, err)

	assert.Equal(t, domain.ApplicationStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "No reason provided", *rejected.RejectionReason)
	require.NotEmpty(t, f.events)
	assert.Equal(t, events.EventApplicationRejected, f.events[len(f.events)-1].Type)
}

func TestReject_BlankReasonUsesDefault(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")

	rejected, err := f.svc.Reject(context.Background(), app.ID, reviewerID, "  \t\n ")
	require.NoError(t, err)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, domain.DefaultRejectionReason, *rejected.RejectionReason)

	other := f.submit(t, "other@example.com")
	rejected, err = f.svc.Reject(context.Background(), other.ID, reviewerID, "  Missing documents  ")
	require.NoError(t, err)
	assert.Equal(t, "Missing documents", *rejected.RejectionReason)
}

func TestReject_ReasonTooLong(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")

	_, err := f.svc.Reject(context.Background(), app.ID, reviewerID, strings.Repeat("x", 501))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	detail, err := f.svc.GetDetail(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusPending, detail.Application.Status)
}

func TestTransition_UnknownAndMalformedIDs(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), "not-a-uuid", reviewerID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = f.svc.Reject(context.Background(), "5f0c2a1e-0000-4000-8000-000000000000", reviewerID, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.Equal(t, MsgNotFound, apperrors.ToDomainError(err).Message)
}

func TestGetDetail_ResolvesReviewerName(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")

	detail, err := f.svc.GetDetail(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.ReviewerName)

	_, err = f.svc.Approve(context.Background(), app.ID, reviewerID)
	require.NoError(t, err)
	detail, err = f.svc.GetDetail(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, "hostadmin", detail.ReviewerName)

	other := f.submit(t, "other@example.com")
	unknown := "11111111-2222-4333-8444-555555555555"
	_, err = f.svc.Approve(context.Background(), other.ID, unknown)
	require.NoError(t, err)
	detail, err = f.svc.GetDetail(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, unknown, detail.ReviewerName)
}

func TestDashboard_CombinesPageAndStats(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "asha@example.com")

	dash, err := f.svc.Dashboard(context.Background(), ListQuery{Status: "approved"})
	require.NoError(t, err)

	assert.Empty(t, dash.Page.Items)
	assert.EqualValues(t, 1, dash.Stats[domain.ApplicationStatusPending])
}

func TestTransition_RequiresReviewerID(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t, "asha@example.com")

	_, err := f.svc.Approve(context.Background(), app.ID, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, err = f.svc.Reject(context.Background(), app.ID, "host-1", "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}
