package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/internal/repository"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
)

type employeeRepository interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, int, error)
	FindByCode(ctx context.Context, code string) (*models.Employee, error)
	ExistsByEmail(ctx context.Context, email string, excludeCode string) (bool, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	SetStatus(ctx context.Context, code string, status models.EmployeeStatus) error
}

// CreateEmployeeRequest represents payload for registering an employee.
type CreateEmployeeRequest struct {
	Name       string   `json:"name" validate:"required,max=100"`
	Email      string   `json:"email" validate:"required,email,max=100"`
	Phone      *string  `json:"phone" validate:"omitempty,max=20"`
	Department *string  `json:"department" validate:"omitempty,max=50"`
	Role       *string  `json:"role" validate:"omitempty,max=50"`
	Address    *string  `json:"address" validate:"omitempty,max=500"`
	JoinDate   *string  `json:"join_date" validate:"omitempty,isodate"`
	BaseSalary *float64 `json:"base_salary" validate:"required,gte=0"`
	Password   *string  `json:"password" validate:"omitempty,min=8,max=72"`
}

// UpdateEmployeeRequest carries the mutable profile fields. The employee
// code and base salary cannot be changed.
type UpdateEmployeeRequest struct {
	Name       string  `json:"name" validate:"required,max=100"`
	Email      string  `json:"email" validate:"required,email,max=100"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	Department *string `json:"department" validate:"omitempty,max=50"`
	Role       *string `json:"role" validate:"omitempty,max=50"`
	Address    *string `json:"address" validate:"omitempty,max=500"`
	JoinDate   *string `json:"join_date" validate:"omitempty,isodate"`
}

// EmployeeService manages employee records.
type EmployeeService struct {
	repo      employeeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEmployeeService constructs an EmployeeService.
func NewEmployeeService(repo employeeRepository, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, validator: validate, logger: logger}
}

// List returns employees plus pagination data.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	employees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list employees")
	}
	return employees, buildPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an employee by code.
func (s *EmployeeService) Get(ctx context.Context, code string) (*models.Employee, error) {
	employee, err := s.repo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEmployeeNotFound
		}
		return nil, internalError(err, "failed to load employee")
	}
	return employee, nil
}

// Create registers a new employee. The code is drawn from the database sequence.
func (s *EmployeeService) Create(ctx context.Context, req CreateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid employee payload")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureUniqueEmail(ctx, email, ""); err != nil {
		return nil, err
	}
	joinDate, err := parseOptionalDate(deref(req.JoinDate))
	if err != nil {
		return nil, err
	}

	employee := &models.Employee{
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		Phone:      normalizeOptional(req.Phone),
		Department: normalizeOptional(req.Department),
		Role:       normalizeOptional(req.Role),
		Address:    normalizeOptional(req.Address),
		JoinDate:   joinDate,
		BaseSalary: *req.BaseSalary,
		Status:     models.EmployeeStatusActive,
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, internalError(err, "failed to hash password")
		}
		hashed := string(hash)
		employee.PasswordHash = &hashed
	}

	if err := s.repo.Create(ctx, employee); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, appErrors.ErrDuplicateEmail
		}
		s.logger.Error("create employee failed", zap.String("email", email), zap.Error(err))
		return nil, internalError(err, "failed to create employee")
	}
	return employee, nil
}

// Update modifies the profile fields of an employee.
func (s *EmployeeService) Update(ctx context.Context, code string, req UpdateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid employee payload")
	}
	employee, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureUniqueEmail(ctx, email, employee.EmployeeID); err != nil {
		return nil, err
	}
	joinDate, err := parseOptionalDate(deref(req.JoinDate))
	if err != nil {
		return nil, err
	}

	employee.Name = strings.TrimSpace(req.Name)
	employee.Email = email
	employee.Phone = normalizeOptional(req.Phone)
	employee.Department = normalizeOptional(req.Department)
	employee.Role = normalizeOptional(req.Role)
	employee.Address = normalizeOptional(req.Address)
	employee.JoinDate = joinDate

	if err := s.repo.Update(ctx, employee); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, appErrors.ErrDuplicateEmail
		}
		return nil, internalError(err, "failed to update employee")
	}
	return employee, nil
}

// SetStatus activates or deactivates an employee. Employees are never deleted.
func (s *EmployeeService) SetStatus(ctx context.Context, code, rawStatus string) (*models.Employee, error) {
	status, ok := models.ParseEmployeeStatus(rawStatus)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Active or Inactive")
	}
	if err := s.repo.SetStatus(ctx, strings.TrimSpace(code), status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrEmployeeNotFound
		}
		return nil, internalError(err, "failed to update employee status")
	}
	return s.Get(ctx, code)
}

func (s *EmployeeService) ensureUniqueEmail(ctx context.Context, email, excludeCode string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeCode)
	if err != nil {
		return internalError(err, "failed to validate email uniqueness")
	}
	if exists {
		return appErrors.ErrDuplicateEmail
	}
	return nil
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
