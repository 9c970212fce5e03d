package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-api/internal/service"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
	"github.com/campus-hq/academics-api/pkg/response"
)

// SubmissionHandler exposes submission marking and defaulter-work endpoints.
type SubmissionHandler struct {
	submissions *service.SubmissionService
	dashboards  *service.DashboardService
}

// NewSubmissionHandler constructs SubmissionHandler.
func NewSubmissionHandler(submissions *service.SubmissionService, dashboards *service.DashboardService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, dashboards: dashboards}
}

// Types godoc
// @Summary List the submission-type vocabulary
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/types [get]
func (h *SubmissionHandler) Types(c *gin.Context) {
	types, err := h.submissions.Types(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Mark godoc
// @Summary Mark one submission slot for a student
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body service.MarkSubmissionRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions [post]
func (h *SubmissionHandler) Mark(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.MarkSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	submission, err := h.submissions.Mark(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dashboards.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, submission, nil)
}

// ListForStudent godoc
// @Summary List all submission rows for a student
// @Tags Submissions
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/submissions [get]
func (h *SubmissionHandler) ListForStudent(c *gin.Context) {
	rows, err := h.submissions.ListForStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// AssignDefaulterWork godoc
// @Summary Assign extra work to a defaulter
// @Tags Submissions
// @Accept json
// @Produce json
// @Param payload body service.DefaulterWorkRequest true "Defaulter work payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /defaulter-work [post]
func (h *SubmissionHandler) AssignDefaulterWork(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.DefaulterWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.submissions.AssignDefaulterWork(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// CurrentDefaulterWork godoc
// @Summary Latest extra-work record per subject for a student
// @Tags Submissions
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/defaulter-work [get]
func (h *SubmissionHandler) CurrentDefaulterWork(c *gin.Context) {
	records, err := h.submissions.CurrentDefaulterWork(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// CompleteDefaulterWork godoc
// @Summary Mark an extra-work record completed
// @Tags Submissions
// @Param id path string true "Defaulter work ID"
// @Success 204
// @Security BearerAuth
// @Router /defaulter-work/{id}/complete [post]
func (h *SubmissionHandler) CompleteDefaulterWork(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.submissions.CompleteDefaulterWork(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.dashboards.Invalidate(c.Request.Context())
	response.NoContent(c)
}
