package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-api/internal/models"
	"github.com/campus-hq/academics-api/internal/service"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
	"github.com/campus-hq/academics-api/pkg/response"
)

// DashboardHandler exposes the aggregated dashboard views.
type DashboardHandler struct {
	dashboards *service.DashboardService
	classes    *service.ClassService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboards *service.DashboardService, classes *service.ClassService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, classes: classes}
}

// Student godoc
// @Summary The caller's own dashboard
// @Tags Dashboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dashboard, err := h.dashboards.Student(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Roster godoc
// @Summary Reconciled roster for one of the caller's subjects
// @Tags Dashboards
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects/{id}/roster [get]
func (h *DashboardHandler) Roster(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	roster, err := h.dashboards.FacultyRoster(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Department godoc
// @Summary Completion rollups for a department
// @Tags Dashboards
// @Produce json
// @Param id path string true "Department ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /departments/{id}/dashboard [get]
func (h *DashboardHandler) Department(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	departmentID := c.Param("id")
	if actor.Role == models.RoleHOD && (actor.DepartmentID == nil || *actor.DepartmentID != departmentID) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "department is outside your scope"))
		return
	}
	dashboard, err := h.dashboards.Department(c.Request.Context(), departmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// ClassCompletion godoc
// @Summary Completion rollup for one class
// @Tags Dashboards
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id}/completion [get]
func (h *DashboardHandler) ClassCompletion(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if actor.Role == models.RoleClassTeacher && (actor.ClassID == nil || *actor.ClassID != class.ID) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "class is outside your scope"))
		return
	}
	if actor.Role == models.RoleHOD && (actor.DepartmentID == nil || *actor.DepartmentID != class.DepartmentID) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "class is outside your scope"))
		return
	}
	rollup, err := h.dashboards.ClassCompletion(c.Request.Context(), *class)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rollup, nil)
}
