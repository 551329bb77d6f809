package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/internal/repository"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
)

type holidayRepository interface {
	List(ctx context.Context, year int) ([]models.Holiday, error)
	DatesBetween(ctx context.Context, from, to models.Date) (map[string]struct{}, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id string) error
}

// CreateHolidayRequest is the payload for adding a holiday.
type CreateHolidayRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Date        string  `json:"date" validate:"required,isodate"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// HolidayService manages the holiday calendar.
type HolidayService struct {
	repo      holidayRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService constructs a HolidayService.
func NewHolidayService(repo holidayRepository, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{repo: repo, validator: validate, logger: logger}
}

// List returns holidays ordered by date. A zero year lists every holiday.
func (s *HolidayService) List(ctx context.Context, year int) ([]models.Holiday, error) {
	holidays, err := s.repo.List(ctx, year)
	if err != nil {
		return nil, internalError(err, "failed to list holidays")
	}
	return holidays, nil
}

// Create adds a holiday. Only one holiday may fall on a date.
func (s *HolidayService) Create(ctx context.Context, req CreateHolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid holiday payload")
	}
	date, _ := models.ParseDate(req.Date)
	holiday := &models.Holiday{
		Name:        strings.TrimSpace(req.Name),
		Date:        date,
		Description: normalizeOptional(req.Description),
	}
	if err := s.repo.Create(ctx, holiday); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, appErrors.ErrDuplicateHoliday
		}
		return nil, internalError(err, "failed to create holiday")
	}
	s.logger.Info("holiday created", zap.String("date", holiday.Date.String()), zap.String("name", holiday.Name))
	return holiday, nil
}

// Delete removes a holiday.
func (s *HolidayService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return internalError(err, "failed to delete holiday")
	}
	return nil
}

// WorkingDays drops holidays from days.
func (s *HolidayService) WorkingDays(ctx context.Context, days []models.Date) ([]models.Date, error) {
	if len(days) == 0 {
		return days, nil
	}
	holidays, err := s.repo.DatesBetween(ctx, days[0], days[len(days)-1])
	if err != nil {
		return nil, internalError(err, "failed to load holidays")
	}
	working := make([]models.Date, 0, len(days))
	for _, day := range days {
		if _, ok := holidays[day.String()]; !ok {
			working = append(working, day)
		}
	}
	return working, nil
}
