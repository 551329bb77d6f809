package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/hrms-api/internal/models"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
	"github.com/noah-isme/hrms-api/pkg/timeclock"
)

// NewValidator returns a validator with the HR specific tags registered:
// timeofday, yearmonth, isodate and attendance_status.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerValidations(v)
	return v
}

func registerValidations(v *validator.Validate) {
	v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool { //nolint:errcheck
		_, err := timeclock.Parse(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool { //nolint:errcheck
		_, _, err := models.ParseYearMonth(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool { //nolint:errcheck
		_, err := models.ParseDate(fl.Field().String())
		return err == nil
	})
	v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool { //nolint:errcheck
		_, err := models.ParseAttendanceStatus(fl.Field().String())
		return err == nil
	})
}

// validationError converts validator output into a field-level message.
func validationError(err error, fallback string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, describeFieldError(fe))
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, strings.Join(parts, "; "))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fallback)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "timeofday":
		return field + " must be HH:MM or H:MM AM/PM"
	case "yearmonth":
		return field + " must be YYYY-MM"
	case "isodate":
		return field + " must be YYYY-MM-DD"
	case "attendance_status":
		return field + " is not a known attendance status"
	case "email":
		return field + " must be a valid email"
	case "min", "gte":
		return field + " must be at least " + fe.Param()
	case "max", "lte":
		return field + " must be at most " + fe.Param()
	default:
		return field + " is invalid"
	}
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func invalidTime(field, raw string) error {
	return appErrors.Clone(appErrors.ErrInvalidTimeFormat, fmt.Sprintf("invalid %s %q, expected HH:MM or H:MM AM/PM", field, raw))
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseOptionalDate(raw string) (*models.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "dates must be YYYY-MM-DD")
	}
	return &d, nil
}

func buildPagination(page, size, total int) *models.Pagination {
	page, size = models.NormalizePage(page, size)
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
