package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/campus-hq/academics-api/internal/dto"
	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

type completionSubmissionStore interface {
	ListForPairs(ctx context.Context, studentIDs, subjectIDs []string) ([]models.Submission, error)
}

type completionSubjectStore interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
}

type completionSelectionStore interface {
	ListByStudentIDs(ctx context.Context, ids []string) ([]models.StudentSelection, error)
}

type completionStudentStore interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

// CompletionService derives submission-completion views. It owns both
// percentage formulas: the plain complete-subjects share used on staff
// screens, and the defaulter-weighted slot formula used on the student
// dashboard. The two are intentionally not interchangeable.
type CompletionService struct {
	submissions completionSubmissionStore
	subjects    completionSubjectStore
	selections  completionSelectionStore
	students    completionStudentStore
	logger      *zap.Logger
}

// NewCompletionService constructs CompletionService.
func NewCompletionService(submissions completionSubmissionStore, subjects completionSubjectStore, selections completionSelectionStore, students completionStudentStore, logger *zap.Logger) *CompletionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionService{
		submissions: submissions,
		subjects:    subjects,
		selections:  selections,
		students:    students,
		logger:      logger,
	}
}

// markSet accumulates the completed submission rows for one (student, subject)
// pair.
type markSet struct {
	ta            bool
	cie           bool
	defaulterWork bool
}

type pairKey struct {
	studentID string
	subjectID string
}

// subjectComplete applies the per-subject rule: practical subjects need only
// TA, everything else needs TA and CIE.
func subjectComplete(subject models.Subject, marks markSet) bool {
	if subject.Type == models.SubjectPractical {
		return marks.ta
	}
	return marks.ta && marks.cie
}

func roundPercent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

// ForClass computes completion rows for every student in a class. Each
// student's subject set is the class subjects plus their chosen electives.
func (s *CompletionService) ForClass(ctx context.Context, classID string) ([]dto.StudentCompletion, error) {
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	if len(students) == 0 {
		return nil, nil
	}

	classSubjects, err := s.subjects.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class subjects")
	}
	subjectsByStudent, err := s.subjectsWithElectives(ctx, students, classSubjects)
	if err != nil {
		return nil, err
	}
	return s.rows(ctx, students, subjectsByStudent)
}

// ForStudents computes completion rows for the given students against one
// shared subject set. Used by the faculty roster views.
func (s *CompletionService) ForStudents(ctx context.Context, students []models.Student, subjects []models.Subject) ([]dto.StudentCompletion, error) {
	subjectsByStudent := make(map[string][]models.Subject, len(students))
	for _, student := range students {
		subjectsByStudent[student.ID] = subjects
	}
	return s.rows(ctx, students, subjectsByStudent)
}

// AssignedSubjects returns the subject set completion is measured against
// for one student: the class subjects plus their chosen electives. Offered
// electives the student never selected are not part of it.
func (s *CompletionService) AssignedSubjects(ctx context.Context, student models.Student) ([]models.Subject, error) {
	classSubjects, err := s.subjects.ListByClass(ctx, student.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class subjects")
	}
	byStudent, err := s.subjectsWithElectives(ctx, []models.Student{student}, classSubjects)
	if err != nil {
		return nil, err
	}
	return byStudent[student.ID], nil
}

// Dashboard computes the defaulter-weighted slot view for one student.
// Every subject contributes a TA and a CIE slot; defaulters get a third
// defaulter-work slot per subject. Completed submission rows fill slots.
func (s *CompletionService) Dashboard(ctx context.Context, student models.Student, subjects []models.Subject) (done, total, percent int, err error) {
	slotsPerSubject := 2
	if student.IsDefaulter() {
		slotsPerSubject = 3
	}
	total = len(subjects) * slotsPerSubject
	if total == 0 {
		return 0, 0, 0, nil
	}

	marks, err := s.marksFor(ctx, []models.Student{student}, subjects)
	if err != nil {
		return 0, 0, 0, err
	}
	for _, subject := range subjects {
		set := marks[pairKey{studentID: student.ID, subjectID: subject.ID}]
		if set.ta {
			done++
		}
		if set.cie {
			done++
		}
		if student.IsDefaulter() && set.defaulterWork {
			done++
		}
	}
	return done, total, roundPercent(done, total), nil
}

// RollupClass aggregates one class: the share of students with every
// assigned subject complete. Students with no subjects are counted but never
// complete.
func (s *CompletionService) RollupClass(ctx context.Context, class models.Class) (dto.CompletionRollup, error) {
	rows, err := s.ForClass(ctx, class.ID)
	if err != nil {
		return dto.CompletionRollup{}, err
	}
	rollup := rollupRows(rows)
	rollup.Scope = "class"
	rollup.ScopeID = class.ID
	rollup.ScopeName = class.Name
	rollup.Year = class.Year
	return rollup, nil
}

func rollupRows(rows []dto.StudentCompletion) dto.CompletionRollup {
	rollup := dto.CompletionRollup{TotalStudents: len(rows)}
	for _, row := range rows {
		if row.TotalSubjects > 0 && row.CompleteCount == row.TotalSubjects {
			rollup.CompleteStudents++
		}
	}
	rollup.Percent = roundPercent(rollup.CompleteStudents, rollup.TotalStudents)
	return rollup
}

// MergeRollups folds several rollups into one aggregate.
func MergeRollups(scope, scopeID, scopeName string, parts []dto.CompletionRollup) dto.CompletionRollup {
	merged := dto.CompletionRollup{Scope: scope, ScopeID: scopeID, ScopeName: scopeName}
	for _, part := range parts {
		merged.TotalStudents += part.TotalStudents
		merged.CompleteStudents += part.CompleteStudents
	}
	merged.Percent = roundPercent(merged.CompleteStudents, merged.TotalStudents)
	return merged
}

func (s *CompletionService) rows(ctx context.Context, students []models.Student, subjectsByStudent map[string][]models.Subject) ([]dto.StudentCompletion, error) {
	allSubjects := make([]models.Subject, 0)
	seenSubjects := make(map[string]struct{})
	for _, subjects := range subjectsByStudent {
		for _, subject := range subjects {
			if _, ok := seenSubjects[subject.ID]; ok {
				continue
			}
			seenSubjects[subject.ID] = struct{}{}
			allSubjects = append(allSubjects, subject)
		}
	}
	marks, err := s.marksFor(ctx, students, allSubjects)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.StudentCompletion, 0, len(students))
	for _, student := range students {
		subjects := subjectsByStudent[student.ID]
		row := dto.StudentCompletion{
			StudentID:     student.ID,
			StudentName:   student.Name,
			RollNo:        student.RollNo,
			TotalSubjects: len(subjects),
		}
		for _, subject := range subjects {
			set := marks[pairKey{studentID: student.ID, subjectID: subject.ID}]
			complete := subjectComplete(subject, set)
			if complete {
				row.CompleteCount++
			}
			row.Subjects = append(row.Subjects, dto.SubjectCompletion{
				SubjectID:   subject.ID,
				SubjectName: subject.Name,
				SubjectType: subject.Type,
				TADone:      set.ta,
				CIEDone:     set.cie,
				Complete:    complete,
			})
		}
		row.Percent = roundPercent(row.CompleteCount, row.TotalSubjects)
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *CompletionService) marksFor(ctx context.Context, students []models.Student, subjects []models.Subject) (map[pairKey]markSet, error) {
	marks := make(map[pairKey]markSet)
	if len(students) == 0 || len(subjects) == 0 {
		return marks, nil
	}
	studentIDs := make([]string, len(students))
	for i, student := range students {
		studentIDs[i] = student.ID
	}
	subjectIDs := make([]string, len(subjects))
	for i, subject := range subjects {
		subjectIDs[i] = subject.ID
	}
	submissions, err := s.submissions.ListForPairs(ctx, studentIDs, subjectIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submissions")
	}
	for _, submission := range submissions {
		if submission.Status != models.SubmissionCompleted {
			continue
		}
		key := pairKey{studentID: submission.StudentID, subjectID: submission.SubjectID}
		set := marks[key]
		switch submission.TypeName {
		case models.SubmissionTypeTA:
			set.ta = true
		case models.SubmissionTypeCIE:
			set.cie = true
		case models.SubmissionTypeDefaulterWork:
			set.defaulterWork = true
		}
		marks[key] = set
	}
	return marks, nil
}

// subjectsWithElectives unions the class subjects with each student's chosen
// electives.
func (s *CompletionService) subjectsWithElectives(ctx context.Context, students []models.Student, classSubjects []models.Subject) (map[string][]models.Subject, error) {
	studentIDs := make([]string, len(students))
	for i, student := range students {
		studentIDs[i] = student.ID
	}
	selections, err := s.selections.ListByStudentIDs(ctx, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selections")
	}

	electiveIDs := make([]string, 0)
	seen := make(map[string]struct{})
	electivesByStudent := make(map[string][]string, len(selections))
	for _, selection := range selections {
		for _, cat := range models.CategoryOrder {
			subjectID, _ := selection.Category(cat)
			if subjectID == nil {
				continue
			}
			electivesByStudent[selection.StudentID] = append(electivesByStudent[selection.StudentID], *subjectID)
			if _, ok := seen[*subjectID]; !ok {
				seen[*subjectID] = struct{}{}
				electiveIDs = append(electiveIDs, *subjectID)
			}
		}
	}

	electives := make(map[string]models.Subject)
	if len(electiveIDs) > 0 {
		subjects, err := s.subjects.ListByIDs(ctx, electiveIDs)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load elective subjects")
		}
		for _, subject := range subjects {
			electives[subject.ID] = subject
		}
	}

	result := make(map[string][]models.Subject, len(students))
	for _, student := range students {
		subjects := make([]models.Subject, 0, len(classSubjects)+3)
		subjects = append(subjects, classSubjects...)
		for _, id := range electivesByStudent[student.ID] {
			if subject, ok := electives[id]; ok {
				subjects = append(subjects, subject)
			}
		}
		result[student.ID] = subjects
	}
	return result, nil
}
