package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campus-hq/academics-api/internal/dto"
	"github.com/campus-hq/academics-api/internal/models"
	appErrors "github.com/campus-hq/academics-api/pkg/errors"
)

// UnknownFacultyName is shown when a faculty id on an offering does not
// resolve to a user.
const UnknownFacultyName = "Unknown Faculty"

// VisibleCategories returns the elective categories a year level may browse
// and select from. First-year students have no electives.
func VisibleCategories(year int) []models.ElectiveCategory {
	switch year {
	case 2:
		return []models.ElectiveCategory{models.CategoryOE, models.CategoryMDM}
	case 3:
		return []models.ElectiveCategory{models.CategoryOE, models.CategoryMDM, models.CategoryPE}
	case 4:
		return []models.ElectiveCategory{models.CategoryOE, models.CategoryPE}
	}
	return nil
}

// RequiredCategories returns the categories that must be selected before a
// student's choices can be locked. It mirrors the visibility table: every
// visible category is required.
func RequiredCategories(year int) []models.ElectiveCategory {
	return VisibleCategories(year)
}

func categoryVisible(year int, cat models.ElectiveCategory) bool {
	for _, visible := range VisibleCategories(year) {
		if visible == cat {
			return true
		}
	}
	return false
}

type eligibilityOfferingStore interface {
	ListActiveForYear(ctx context.Context, year int, departmentID string) ([]models.OfferedSubjectDetail, error)
}

type eligibilityNameResolver interface {
	ResolveNames(ctx context.Context, ids []string) (map[string]string, error)
}

// EligibilityService resolves the elective offerings a student may choose
// from, keyed off the year-level visibility table.
type EligibilityService struct {
	offerings eligibilityOfferingStore
	users     eligibilityNameResolver
	logger    *zap.Logger
}

// NewEligibilityService constructs EligibilityService.
func NewEligibilityService(offerings eligibilityOfferingStore, users eligibilityNameResolver, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{offerings: offerings, users: users, logger: logger}
}

// ElectivesFor returns the active offerings visible to a student of the given
// year and department, grouped by category. MDM and OE offerings are visible
// across departments; PE offerings are restricted to the student's own
// department.
func (s *EligibilityService) ElectivesFor(ctx context.Context, year int, departmentID string) (*dto.ElectiveOfferings, error) {
	visible := VisibleCategories(year)
	if len(visible) == 0 {
		return &dto.ElectiveOfferings{}, nil
	}

	offerings, err := s.offerings.ListActiveForYear(ctx, year, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offerings")
	}

	facultyIDs := make([]string, 0, len(offerings))
	seen := make(map[string]struct{})
	for _, offering := range offerings {
		for _, id := range offering.FacultyIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			facultyIDs = append(facultyIDs, id)
		}
	}
	names, err := s.users.ResolveNames(ctx, facultyIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve faculty names")
	}

	visibleSet := make(map[models.ElectiveCategory]struct{}, len(visible))
	for _, cat := range visible {
		visibleSet[cat] = struct{}{}
	}

	result := &dto.ElectiveOfferings{}
	for _, offering := range offerings {
		var cat models.ElectiveCategory
		switch classifySubject(offering.SubjectType, offering.SubjectName) {
		case bucketMDM:
			cat = models.CategoryMDM
		case bucketOE:
			cat = models.CategoryOE
		case bucketPE:
			cat = models.CategoryPE
		default:
			continue
		}
		if _, ok := visibleSet[cat]; !ok {
			continue
		}
		if cat == models.CategoryPE && offering.DepartmentID != departmentID {
			continue
		}

		option := dto.ElectiveOption{
			Subject:   offeringSubject(offering),
			OfferedID: offering.ID,
			Semester:  offering.Semester,
		}
		for _, id := range offering.FacultyIDs {
			name, ok := names[id]
			if !ok {
				name = UnknownFacultyName
			}
			option.FacultyOptions = append(option.FacultyOptions, dto.FacultyOption{ID: id, Name: name})
		}

		switch cat {
		case models.CategoryMDM:
			result.MDM = append(result.MDM, option)
		case models.CategoryOE:
			result.OE = append(result.OE, option)
		case models.CategoryPE:
			result.PE = append(result.PE, option)
		}
	}
	return result, nil
}
