package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/primewheels/agent-service/internal/api/dto"
	"github.com/primewheels/agent-service/internal/auth"
	"github.com/primewheels/agent-service/internal/domain"
	"github.com/primewheels/agent-service/internal/service"
	apperrors "github.com/primewheels/agent-service/pkg/util/errorutil"
)

// Page locations used by the form flow.
const (
	PathAgentForm      = "/agentForm"
	PathAdminDashboard = "/admin-dashboard"
	PathHome           = "/"
)

const (
	msgSubmitted        = "Your application has been submitted successfully. We will review it and get back to you soon."
	msgApproved         = "Application approved successfully"
	msgRejected         = "Application rejected successfully"
	msgUnexpected       = "Something went wrong. Please try again later."
	layoutMain          = "layouts/main"
	viewAgentForm       = "agent_form"
	viewAdminDashboard  = "admin_dashboard"
	viewApplicationPage = "application_detail"
)

// AgentApplicationsPageHandler serves the form-post-and-redirect flow.
type AgentApplicationsPageHandler struct {
	service *service.AgentApplicationService
	logger  *zap.Logger
}

// NewAgentApplicationsPageHandler constructs handler.
func NewAgentApplicationsPageHandler(svc *service.AgentApplicationService, logger *zap.Logger) *AgentApplicationsPageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentApplicationsPageHandler{service: svc, logger: logger}
}

// AgentForm GET /agentForm.
func (h *AgentApplicationsPageHandler) AgentForm(c *fiber.Ctx) error {
	return c.Render(viewAgentForm, fiber.Map{
		"Title": "Become a PrimeWheels Agent",
		"Flash": PopFlash(c),
	}, layoutMain)
}

// Submit POST /submit-agent-form.
func (h *AgentApplicationsPageHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitAgentApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return RedirectWithFlash(c, PathAgentForm, FlashError, "Please fill in the application form")
	}
	if _, err := h.service.Submit(c.UserContext(), req.Input()); err != nil {
		return h.fail(c, PathAgentForm, err)
	}
	return RedirectWithFlash(c, PathAgentForm, FlashSuccess, msgSubmitted)
}

// Dashboard GET /admin-dashboard.
func (h *AgentApplicationsPageHandler) Dashboard(c *fiber.Ctx) error {
	dash, err := h.service.Dashboard(c.UserContext(), dashboardQuery(c))
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeValidation) {
			return h.fail(c, PathAdminDashboard, err)
		}
		return h.fail(c, PathHome, err)
	}

	now := h.service.Now()
	rows := make([]dto.AgentApplicationResponse, 0, len(dash.Page.Items))
	for i := range dash.Page.Items {
		rows = append(rows, dto.NewAgentApplicationResponse(&dash.Page.Items[i], now))
	}
	principal, _ := auth.PrincipalFromContext(c)
	return c.Render(viewAdminDashboard, fiber.Map{
		"Title":        "Agent Applications",
		"Flash":        PopFlash(c),
		"Applications": rows,
		"Page":         dash.Page,
		"Stats":        dto.NewStatsResponse(dash.Stats),
		"Statuses":     statusFilters(),
		"Reviewer":     principal,
		"PrevPage":     dash.Page.Page - 1,
		"NextPage":     dash.Page.Page + 1,
	}, layoutMain)
}

// Approve POST /approve/:id.
func (h *AgentApplicationsPageHandler) Approve(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if _, err := h.service.Approve(c.UserContext(), c.Params("id"), reviewerID(principal)); err != nil {
		return h.fail(c, PathAdminDashboard, err)
	}
	return RedirectWithFlash(c, PathAdminDashboard, FlashSuccess, msgApproved)
}

// Reject POST /reject/:id.
func (h *AgentApplicationsPageHandler) Reject(c *fiber.Ctx) error {
	var req dto.RejectApplicationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return RedirectWithFlash(c, PathAdminDashboard, FlashError, "Invalid rejection request")
		}
	}
	principal, _ := auth.PrincipalFromContext(c)
	if _, err := h.service.Reject(c.UserContext(), c.Params("id"), reviewerID(principal), req.RejectionReason); err != nil {
		return h.fail(c, PathAdminDashboard, err)
	}
	return RedirectWithFlash(c, PathAdminDashboard, FlashSuccess, msgRejected)
}

// Detail GET /application/:id.
func (h *AgentApplicationsPageHandler) Detail(c *fiber.Ctx) error {
	detail, err := h.service.GetDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, PathAdminDashboard, err)
	}
	return c.Render(viewApplicationPage, fiber.Map{
		"Title":        detail.Application.Name,
		"Flash":        PopFlash(c),
		"Application":  dto.NewAgentApplicationResponse(&detail.Application, h.service.Now()),
		"ReviewerName": detail.ReviewerName,
		"Pending":      detail.Application.Status == domain.ApplicationStatusPending,
	}, layoutMain)
}

// DeniedRedirect sends callers without host access back home.
func DeniedRedirect(c *fiber.Ctx, err error) error {
	return RedirectWithFlash(c, PathHome, FlashError, apperrors.ToDomainError(err).Message)
}

// fail turns a service error into a flash message. Unexpected errors are
// logged and shown generically.
func (h *AgentApplicationsPageHandler) fail(c *fiber.Ctx, location string, err error) error {
	domainErr := apperrors.ToDomainError(err)
	message := domainErr.Message
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		h.logger.Error("page request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		message = msgUnexpected
	}
	return RedirectWithFlash(c, location, FlashError, message)
}

func statusFilters() []string {
	out := make([]string, 0, len(domain.ApplicationStatuses)+1)
	for _, s := range domain.ApplicationStatuses {
		out = append(out, string(s))
	}
	return append(out, service.StatusFilterAll)
}
