package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/registration-etl/internal/etl"
	"github.com/noah-isme/registration-etl/internal/models"
	"github.com/noah-isme/registration-etl/internal/repository"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

const unknownValidationError = "Unknown validation error"

// registrationOutcomeError labels failed registrations in metrics.
const registrationOutcomeError models.RegistrationOutcome = "error"

type registrationStore interface {
	FindStudentIDByEmail(ctx context.Context, email string) (int64, bool, error)
	Register(ctx context.Context, params repository.RegistrationParams) (int64, error)
}

type studentIDCache interface {
	LookupStudentID(ctx context.Context, email string) (int64, bool)
	RememberStudentID(ctx context.Context, email string, id int64)
	ForgetStudentID(ctx context.Context, email string)
}

// RegistrationService registers one student through the same transform rules
// as the batch pipeline, without clearing existing data.
type RegistrationService struct {
	store   registrationStore
	cache   studentIDCache
	metrics *MetricsService
	cfg     etl.Config
	logger  *zap.Logger
}

// NewRegistrationService constructs the service. cache and metrics may be nil.
func NewRegistrationService(store registrationStore, cache studentIDCache, metrics *MetricsService, cfg etl.Config, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{store: store, cache: cache, metrics: metrics, cfg: cfg, logger: logger}
}

// Register validates fields and stores the student. Validation failures and
// existing students are reported through the result outcome; the error is
// reserved for store failures.
func (s *RegistrationService) Register(ctx context.Context, fields map[string]string) (*models.RegistrationResult, error) {
	result, err := s.register(ctx, fields)
	if err != nil {
		s.metrics.ObserveRegistration(registrationOutcomeError)
		return nil, err
	}
	s.metrics.ObserveRegistration(result.Outcome)
	return result, nil
}

func (s *RegistrationService) register(ctx context.Context, fields map[string]string) (*models.RegistrationResult, error) {
	transformed := etl.Transform([]models.RawRecord{models.NewRawRecord(1, fields)}, s.cfg, etl.NopSink{})
	entities := transformed.Entities
	if len(entities.Students) == 0 || len(entities.Departments) == 0 {
		errs := transformed.RejectedMessages()
		if len(errs) == 0 {
			errs = []string{unknownValidationError}
		}
		return &models.RegistrationResult{Outcome: models.RegistrationInvalid, Errors: errs}, nil
	}

	student := entities.Students[0]
	cachedID, cached := s.existingID(ctx, student.Email)
	// The store stays authoritative: a reload whose invalidation failed can
	// leave ids behind that no longer exist.
	id, found, err := s.store.FindStudentIDByEmail(ctx, student.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}
	if found {
		if !cached || cachedID != id {
			s.remember(ctx, student.Email, id)
		}
		return alreadyRegistered(student.Email, id), nil
	}
	if cached {
		s.logger.Warn("dropping stale cached student id", zap.String("email", student.Email), zap.Int64("student_id", cachedID))
		s.forget(ctx, student.Email)
	}

	params := repository.RegistrationParams{Department: entities.Departments[0], Student: student}
	if len(entities.Courses) > 0 && len(entities.Enrollments) > 0 {
		params.Course = &entities.Courses[0]
		params.Enrollment = &entities.Enrollments[0]
	}

	id, err = s.store.Register(ctx, params)
	if errors.Is(err, repository.ErrStudentExists) {
		// lost a race with a concurrent registration of the same email
		existing, found, lookupErr := s.store.FindStudentIDByEmail(ctx, student.Email)
		if lookupErr != nil || !found {
			return nil, appErrors.Clone(appErrors.ErrAlreadyRegistered, "")
		}
		s.remember(ctx, student.Email, existing)
		return alreadyRegistered(student.Email, existing), nil
	}
	if err != nil {
		s.logger.Error("registration failed", zap.String("email", student.Email), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register student")
	}

	s.remember(ctx, student.Email, id)
	result := &models.RegistrationResult{
		Outcome:   models.RegistrationCreated,
		StudentID: id,
		Email:     student.Email,
		Enrolled:  params.Course != nil,
	}
	if params.Course != nil {
		result.CourseName = params.Course.Name
	}
	s.logger.Info("student registered", zap.Int64("student_id", id), zap.String("email", student.Email), zap.Bool("enrolled", result.Enrolled))
	return result, nil
}

func (s *RegistrationService) existingID(ctx context.Context, email string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	return s.cache.LookupStudentID(ctx, email)
}

func (s *RegistrationService) remember(ctx context.Context, email string, id int64) {
	if s.cache != nil {
		s.cache.RememberStudentID(ctx, email, id)
	}
}

func (s *RegistrationService) forget(ctx context.Context, email string) {
	if s.cache != nil {
		s.cache.ForgetStudentID(ctx, email)
	}
}

func alreadyRegistered(email string, id int64) *models.RegistrationResult {
	return &models.RegistrationResult{Outcome: models.RegistrationAlreadyRegistered, StudentID: id, Email: email}
}
