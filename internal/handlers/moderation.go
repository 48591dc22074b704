package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/agora/backend/internal/apperrors"
	"github.com/emilythestrangee/agora/backend/internal/models"
	"github.com/emilythestrangee/agora/backend/internal/services"
)

// staffRedirect is where non-staff users land when they open moderation pages.
const staffRedirect = "/"

type ModerationHandler struct {
	moderation *services.ModerationService
	users      *services.UserService
	pager      pager
}

func NewModerationHandler(moderation *services.ModerationService, users *services.UserService, p pager) *ModerationHandler {
	return &ModerationHandler{moderation: moderation, users: users, pager: p}
}

func reportJSON(r *models.PostReport) gin.H {
	out := gin.H{
		"id":          r.ID,
		"post_id":     r.PostID,
		"reporter_id": r.ReporterID,
		"reporter":    authorJSON(r.Reporter),
		"report_type": r.ReportType,
		"details":     r.Details,
		"verified":    r.Verified,
		"created_at":  r.CreatedAt,
	}
	if r.Post != nil {
		out["post"] = postJSON(r.Post)
	}
	return out
}

func actionJSON(a *models.AdminAction) gin.H {
	return gin.H{
		"id":             a.ID,
		"report_id":      a.ReportID,
		"action":         a.Action,
		"comment":        a.Comment,
		"staff_id":       a.StaffID,
		"staff":          authorJSON(a.Staff),
		"target_user_id": a.TargetUserID,
		"warnings_after": a.WarningsAfter,
		"created_at":     a.CreatedAt,
	}
}

// fail redirects non-staff with a message and maps everything else.
func (h *ModerationHandler) fail(c *gin.Context, err error) {
	if apperrors.Is(err, services.ErrStaffOnly.Code) {
		redirectWithMessage(c, staffRedirect, services.ErrStaffOnly.Message)
		return
	}
	respondError(c, err)
}

// currentUser loads the caller so the services can check staff status.
func (h *ModerationHandler) currentUser(c *gin.Context) (*models.User, bool) {
	userID, ok := requireUserID(c)
	if !ok {
		return nil, false
	}
	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return user, true
}

// CreateReport reports a post to the staff (PROTECTED - requires authentication)
func (h *ModerationHandler) CreateReport(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.CreateReportRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}

	report, err := h.moderation.Report(c.Request.Context(), postID, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reportJSON(report))
}

// GetReportTypes lists the report categories
func (h *ModerationHandler) GetReportTypes(c *gin.Context) {
	c.JSON(http.StatusOK, models.ReportTypes)
}

// GetReports lists unverified reports, oldest first (STAFF)
func (h *ModerationHandler) GetReports(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	page := h.pager.page(c)
	reports, total, err := h.moderation.Queue(c.Request.Context(), user, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	results := make([]gin.H, 0, len(reports))
	for i := range reports {
		results = append(results, reportJSON(&reports[i]))
	}
	h.pager.respond(c, page, total, results)
}

// GetReport returns a report with its action history (STAFF)
func (h *ModerationHandler) GetReport(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	reportID, ok := paramID(c, "id")
	if !ok {
		return
	}

	report, actions, err := h.moderation.Detail(c.Request.Context(), user, reportID)
	if err != nil {
		h.fail(c, err)
		return
	}
	history := make([]gin.H, 0, len(actions))
	for i := range actions {
		history = append(history, actionJSON(&actions[i]))
	}

	resp := reportJSON(report)
	resp["actions"] = history
	c.JSON(http.StatusOK, resp)
}

// HandleAction applies BAN, DELETE, WARN or DISMISS_REPORT to a report (STAFF)
func (h *ModerationHandler) HandleAction(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	reportID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input models.AdminActionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		// Check staff first so non-staff are redirected whatever they sent.
		if !user.IsStaff {
			h.fail(c, services.ErrStaffOnly)
			return
		}
		bindError(c, err)
		return
	}

	res, err := h.moderation.HandleAdminAction(c.Request.Context(), user, reportID, input.Action, input.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          res.Message,
		"report":           reportJSON(res.Report),
		"admin_action":     actionJSON(res.AdminAction),
		"post_deactivated": res.PostDeactivated,
		"notified":         res.Notified,
	})
}
