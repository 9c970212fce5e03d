package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-api/internal/models"
	"github.com/campus-hq/academics-api/internal/service"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
	"github.com/campus-hq/academics-api/pkg/response"
)

// SubjectHandler exposes subject, offering, assignment, and catalog
// endpoints.
type SubjectHandler struct {
	subjects *service.SubjectService
	catalog  *service.CatalogService
}

// NewSubjectHandler constructs SubjectHandler.
func NewSubjectHandler(subjects *service.SubjectService, catalog *service.CatalogService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects, catalog: catalog}
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Param classId query string false "Filter by class"
// @Param departmentId query string false "Filter by department"
// @Param type query string false "Filter by subject type"
// @Param search query string false "Search by name or code"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	var filter models.SubjectFilter
	filter.ClassID = c.Query("classId")
	filter.DepartmentID = c.Query("departmentId")
	filter.Type = models.SubjectType(c.Query("type"))
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page, filter.PageSize = paginationFromQuery(c)

	subjects, total, err := h.subjects.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, buildPagination(filter.Page, filter.PageSize, total))
}

// Catalog godoc
// @Summary Subjects visible to the caller, grouped by category
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects/catalog [get]
func (h *SubjectHandler) Catalog(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	buckets, err := h.catalog.SubjectsFor(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, buckets, nil)
}

// Get godoc
// @Summary Get subject detail
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects/{id} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.subjects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Create godoc
// @Summary Create subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body service.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req service.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.subjects.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Update godoc
// @Summary Update subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body service.UpdateSubjectRequest true "Subject payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /subjects/{id} [put]
func (h *SubjectHandler) Update(c *gin.Context) {
	var req service.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.subjects.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Delete godoc
// @Summary Delete subject
// @Tags Subjects
// @Param id path string true "Subject ID"
// @Success 204
// @Security BearerAuth
// @Router /subjects/{id} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	if err := h.subjects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListOfferings godoc
// @Summary List a department's elective offerings
// @Tags Offerings
// @Produce json
// @Param departmentId query string true "Department ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /offerings [get]
func (h *SubjectHandler) ListOfferings(c *gin.Context) {
	departmentID := c.Query("departmentId")
	if departmentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "departmentId is required"))
		return
	}
	offerings, err := h.subjects.ListOfferings(c.Request.Context(), departmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, nil)
}

// CreateOffering godoc
// @Summary Offer an elective subject to a year level
// @Tags Offerings
// @Accept json
// @Produce json
// @Param payload body service.CreateOfferingRequest true "Offering payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /offerings [post]
func (h *SubjectHandler) CreateOffering(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	offering, err := h.subjects.CreateOffering(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offering)
}

type updateOfferingFacultyRequest struct {
	FacultyIDs []string `json:"faculty_ids" binding:"required"`
}

// UpdateOfferingFaculty godoc
// @Summary Replace the approved faculty of an offering
// @Tags Offerings
// @Accept json
// @Param id path string true "Offering ID"
// @Param payload body updateOfferingFacultyRequest true "Faculty ids"
// @Success 204
// @Security BearerAuth
// @Router /offerings/{id}/faculty [put]
func (h *SubjectHandler) UpdateOfferingFaculty(c *gin.Context) {
	var req updateOfferingFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.subjects.UpdateOfferingFaculty(c.Request.Context(), c.Param("id"), req.FacultyIDs); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type setOfferingActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetOfferingActive godoc
// @Summary Toggle an offering's visibility
// @Tags Offerings
// @Accept json
// @Param id path string true "Offering ID"
// @Param payload body setOfferingActiveRequest true "Active flag"
// @Success 204
// @Security BearerAuth
// @Router /offerings/{id}/active [put]
func (h *SubjectHandler) SetOfferingActive(c *gin.Context) {
	var req setOfferingActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.subjects.SetOfferingActive(c.Request.Context(), c.Param("id"), *req.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Link a faculty to a subject for a class
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.AssignSubjectRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments [post]
func (h *SubjectHandler) Assign(c *gin.Context) {
	var req service.AssignSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.subjects.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Unassign godoc
// @Summary Remove a faculty-subject link
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Param facultyId query string true "Faculty ID"
// @Success 204
// @Security BearerAuth
// @Router /assignments/{id} [delete]
func (h *SubjectHandler) Unassign(c *gin.Context) {
	facultyID := c.Query("facultyId")
	if facultyID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "facultyId is required"))
		return
	}
	if err := h.subjects.Unassign(c.Request.Context(), facultyID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
