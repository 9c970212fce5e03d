package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-api/internal/service"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
	"github.com/campus-hq/academics-api/pkg/response"
)

// SelectionHandler exposes elective browsing and selection endpoints.
type SelectionHandler struct {
	selections  *service.SelectionService
	eligibility *service.EligibilityService
	students    *service.StudentService
	classes     *service.ClassService
}

// NewSelectionHandler constructs SelectionHandler.
func NewSelectionHandler(selections *service.SelectionService, eligibility *service.EligibilityService, students *service.StudentService, classes *service.ClassService) *SelectionHandler {
	return &SelectionHandler{selections: selections, eligibility: eligibility, students: students, classes: classes}
}

// Electives godoc
// @Summary Elective offerings the caller may choose from
// @Tags Selections
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /electives [get]
func (h *SelectionHandler) Electives(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	student, err := h.students.Get(c.Request.Context(), actor, actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	class, err := h.classes.Get(c.Request.Context(), student.ClassID)
	if err != nil {
		response.Error(c, err)
		return
	}
	offerings, err := h.eligibility.ElectivesFor(c.Request.Context(), class.Year, class.DepartmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, nil)
}

// Select godoc
// @Summary Record one elective category choice
// @Tags Selections
// @Accept json
// @Produce json
// @Param payload body service.SelectRequest true "Selection payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /selections [post]
func (h *SelectionHandler) Select(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	selection, err := h.selections.Select(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, selection, nil)
}

// Status godoc
// @Summary Current selection state of the caller
// @Tags Selections
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /selections [get]
func (h *SelectionHandler) Status(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	selection, state, err := h.selections.Status(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"state": state, "selection": selection}, nil)
}

// Lock godoc
// @Summary Lock the caller's elective selections
// @Tags Selections
// @Success 204
// @Security BearerAuth
// @Router /selections/lock [post]
func (h *SelectionHandler) Lock(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.selections.Lock(c.Request.Context(), actor.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unlock godoc
// @Summary Reopen a student's elective selections
// @Tags Selections
// @Param id path string true "Student ID"
// @Success 204
// @Security BearerAuth
// @Router /students/{id}/selections/unlock [post]
func (h *SelectionHandler) Unlock(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.selections.Unlock(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// StudentStatus godoc
// @Summary Selection state of one student
// @Tags Selections
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/selections [get]
func (h *SelectionHandler) StudentStatus(c *gin.Context) {
	selection, state, err := h.selections.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"state": state, "selection": selection}, nil)
}
