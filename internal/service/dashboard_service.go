package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campus-hq/academics-api/internal/dto"
	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type dashboardStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type dashboardClassStore interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Class, error)
}

type dashboardDepartmentStore interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type dashboardSubjectResolver interface {
	SubjectsFor(ctx context.Context, actor models.Actor) (*dto.SubjectBuckets, error)
}

type dashboardSubjectStore interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type dashboardSelectionResolver interface {
	Status(ctx context.Context, studentID string) (*models.StudentSelection, models.SelectionState, error)
}

type dashboardCompletionResolver interface {
	AssignedSubjects(ctx context.Context, student models.Student) ([]models.Subject, error)
	Dashboard(ctx context.Context, student models.Student, subjects []models.Subject) (done, total, percent int, err error)
	ForStudents(ctx context.Context, students []models.Student, subjects []models.Subject) ([]dto.StudentCompletion, error)
	RollupClass(ctx context.Context, class models.Class) (dto.CompletionRollup, error)
}

type dashboardRosterResolver interface {
	StudentsFor(ctx context.Context, facultyID, subjectID string) ([]dto.RosterStudent, error)
}

// DashboardService composes the role-specific dashboard views and caches
// them in redis.
type DashboardService struct {
	students     dashboardStudentStore
	classes      dashboardClassStore
	departments  dashboardDepartmentStore
	subjects     dashboardSubjectStore
	catalog      dashboardSubjectResolver
	selections   dashboardSelectionResolver
	completion   dashboardCompletionResolver
	roster       dashboardRosterResolver
	cache        dashboardCache
	cacheEnabled bool
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewDashboardService constructs DashboardService. cache may be nil when
// caching is disabled.
func NewDashboardService(
	students dashboardStudentStore,
	classes dashboardClassStore,
	departments dashboardDepartmentStore,
	subjects dashboardSubjectStore,
	catalog dashboardSubjectResolver,
	selections dashboardSelectionResolver,
	completion dashboardCompletionResolver,
	roster dashboardRosterResolver,
	cache dashboardCache,
	cacheEnabled bool,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		students:     students,
		classes:      classes,
		departments:  departments,
		subjects:     subjects,
		catalog:      catalog,
		selections:   selections,
		completion:   completion,
		roster:       roster,
		cache:        cache,
		cacheEnabled: cacheEnabled && cache != nil,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// Student composes the student dashboard: subject buckets, selection state,
// and the defaulter-weighted completion view.
func (s *DashboardService) Student(ctx context.Context, actor models.Actor) (*dto.StudentDashboard, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%s", actor.ID)
	if s.cacheEnabled {
		var cached dto.StudentDashboard
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	student, err := s.students.FindByID(ctx, actor.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	buckets, err := s.catalog.SubjectsFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	selection, state, err := s.selections.Status(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	// Completion is measured against the student's assigned set (class
	// subjects plus chosen electives), not the full catalog: offered
	// electives they never selected carry no submission slots.
	subjects, err := s.completion.AssignedSubjects(ctx, *student)
	if err != nil {
		return nil, err
	}
	done, total, percent, err := s.completion.Dashboard(ctx, *student, subjects)
	if err != nil {
		return nil, err
	}

	dashboard := &dto.StudentDashboard{
		Student:        *student,
		Defaulter:      student.IsDefaulter(),
		Subjects:       *buckets,
		SelectionState: state,
		Selection:      selection,
		Percent:        percent,
		SlotsDone:      done,
		SlotsTotal:     total,
	}
	s.store(ctx, cacheKey, dashboard)
	return dashboard, nil
}

// FacultyRoster composes the reconciled roster with completion rows for one
// faculty/subject pair.
func (s *DashboardService) FacultyRoster(ctx context.Context, facultyID, subjectID string) (*dto.FacultyRoster, error) {
	cacheKey := fmt.Sprintf("dashboard:roster:%s:%s", facultyID, subjectID)
	if s.cacheEnabled {
		var cached dto.FacultyRoster
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	roster, err := s.roster.StudentsFor(ctx, facultyID, subjectID)
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, len(roster))
	for i, entry := range roster {
		students[i] = entry.Student
	}
	rows, err := s.completion.ForStudents(ctx, students, []models.Subject{*subject})
	if err != nil {
		return nil, err
	}

	result := &dto.FacultyRoster{
		SubjectID: subjectID,
		FacultyID: facultyID,
		Students:  roster,
		Rows:      rows,
	}
	s.store(ctx, cacheKey, result)
	return result, nil
}

// Department composes the department dashboard: the overall rollup plus
// per-class and per-year breakdowns.
func (s *DashboardService) Department(ctx context.Context, departmentID string) (*dto.DepartmentDashboard, error) {
	cacheKey := fmt.Sprintf("dashboard:department:%s", departmentID)
	if s.cacheEnabled {
		var cached dto.DepartmentDashboard
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	department, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	classes, err := s.classes.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}

	classRollups := make([]dto.CompletionRollup, 0, len(classes))
	byYear := make(map[int][]dto.CompletionRollup)
	for _, class := range classes {
		rollup, err := s.completion.RollupClass(ctx, class)
		if err != nil {
			return nil, err
		}
		classRollups = append(classRollups, rollup)
		byYear[class.Year] = append(byYear[class.Year], rollup)
	}

	yearRollups := make([]dto.CompletionRollup, 0, len(byYear))
	for year := 1; year <= 4; year++ {
		parts, ok := byYear[year]
		if !ok {
			continue
		}
		rollup := MergeRollups("year", "", fmt.Sprintf("Year %d", year), parts)
		rollup.Year = year
		yearRollups = append(yearRollups, rollup)
	}

	dashboard := &dto.DepartmentDashboard{
		Department: *department,
		Overall:    MergeRollups("department", department.ID, department.Name, classRollups),
		Classes:    classRollups,
		Years:      yearRollups,
	}
	s.store(ctx, cacheKey, dashboard)
	return dashboard, nil
}

// ClassCompletion returns the per-student rows for a class teacher's view.
// Not cached: the class teacher marks submissions and expects fresh rows.
func (s *DashboardService) ClassCompletion(ctx context.Context, class models.Class) (dto.CompletionRollup, error) {
	return s.completion.RollupClass(ctx, class)
}

// Invalidate drops every cached dashboard. Called after submission marks,
// selection changes, and roster imports.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if !s.cacheEnabled {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) store(ctx context.Context, key string, value interface{}) {
	if !s.cacheEnabled {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
