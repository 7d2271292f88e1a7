package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/primewheels/agent-service/internal/api/dto"
	"github.com/primewheels/agent-service/internal/auth"
	"github.com/primewheels/agent-service/internal/service"
	apperrors "github.com/primewheels/agent-service/pkg/util/errorutil"
)

// AgentApplicationsAPIHandler serves the JSON variant of the workflow.
type AgentApplicationsAPIHandler struct {
	service *service.AgentApplicationService
}

// NewAgentApplicationsAPIHandler constructs handler.
func NewAgentApplicationsAPIHandler(svc *service.AgentApplicationService) *AgentApplicationsAPIHandler {
	return &AgentApplicationsAPIHandler{service: svc}
}

// Submit POST /api/submit-agent-form.
func (h *AgentApplicationsAPIHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitAgentApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid application payload", nil)
	}
	app, err := h.service.Submit(c.UserContext(), req.Input())
	if err != nil {
		return err
	}
	return respondOK(c, dto.SubmitAgentApplicationResponse{ID: app.ID, Status: app.Status})
}

// Dashboard GET /api/admin-dashboard.
func (h *AgentApplicationsAPIHandler) Dashboard(c *fiber.Ctx) error {
	dash, err := h.service.Dashboard(c.UserContext(), dashboardQuery(c))
	if err != nil {
		return err
	}

	now := h.service.Now()
	items := make([]dto.AgentApplicationResponse, 0, len(dash.Page.Items))
	for i := range dash.Page.Items {
		items = append(items, dto.NewAgentApplicationResponse(&dash.Page.Items[i], now))
	}
	return respondOK(c, dto.DashboardResponse{
		Applications: items,
		Pagination: dto.PaginationResponse{
			Page:       dash.Page.Page,
			Limit:      dash.Page.Limit,
			Total:      dash.Page.Total,
			TotalPages: dash.Page.TotalPages,
			HasNext:    dash.Page.HasNext,
			HasPrev:    dash.Page.HasPrev,
			Status:     dash.Page.Status,
		},
		Stats: dto.NewStatsResponse(dash.Stats),
	})
}

// Approve POST /api/approve/:id.
func (h *AgentApplicationsAPIHandler) Approve(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	app, err := h.service.Approve(c.UserContext(), c.Params("id"), reviewerID(principal))
	if err != nil {
		return err
	}
	return respondOK(c, dto.NewAgentApplicationResponse(app, h.service.Now()))
}

// Reject POST /api/reject/:id.
func (h *AgentApplicationsAPIHandler) Reject(c *fiber.Ctx) error {
	var req dto.RejectApplicationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("Invalid rejection payload", nil)
		}
	}
	principal, _ := auth.PrincipalFromContext(c)
	app, err := h.service.Reject(c.UserContext(), c.Params("id"), reviewerID(principal), req.RejectionReason)
	if err != nil {
		return err
	}
	return respondOK(c, dto.NewAgentApplicationResponse(app, h.service.Now()))
}

// Detail GET /api/application/:id.
func (h *AgentApplicationsAPIHandler) Detail(c *fiber.Ctx) error {
	detail, err := h.service.GetDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respondOK(c, dto.ApplicationDetailResponse{
		AgentApplicationResponse: dto.NewAgentApplicationResponse(&detail.Application, h.service.Now()),
		ReviewerName:             detail.ReviewerName,
	})
}

// dashboardQuery reads paging from the query string. Values that are not
// whole numbers fall back to the defaults.
func dashboardQuery(c *fiber.Ctx) service.ListQuery {
	q := dto.DashboardQuery{
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
		Status: c.Query("status"),
	}
	return service.ListQuery{Page: q.Page, Limit: q.Limit, Status: q.Status}
}

func reviewerID(p *auth.Principal) string {
	if p == nil {
		return ""
	}
	return p.UserID
}
