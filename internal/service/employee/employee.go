package employee

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/models"
	"github.com/esavelyev/staffpass/internal/repository"
)

type EmployeeService struct {
	// Repository to access long term data
	employeeRepo repository.EmployeeRepo
}

func NewService(employeeRepo repository.EmployeeRepo) *EmployeeService {
	return &EmployeeService{
		employeeRepo: employeeRepo,
	}
}

func (s *EmployeeService) CreateEmployee(ctx context.Context, params repository.CreateEmployeeParams) (models.Employee, error) {
	if err := checkRecord(params.Salary.IsNegative(), params.HiredAt.IsZero()); err != nil {
		return models.Employee{}, err
	}

	return s.employeeRepo.CreateEmployee(ctx, params)
}

func (s *EmployeeService) GetEmployee(ctx context.Context, id uuid.UUID) (models.Employee, error) {
	return s.employeeRepo.GetEmployee(ctx, id)
}

func (s *EmployeeService) ListEmployees(ctx context.Context, opts repository.ListEmployeesOpts) ([]models.Employee, error) {
	return s.employeeRepo.ListEmployees(ctx, opts)
}

func (s *EmployeeService) UpdateEmployee(ctx context.Context, id uuid.UUID, params repository.UpdateEmployeeParams) (models.Employee, error) {
	if err := checkRecord(params.Salary.IsNegative(), params.HiredAt.IsZero()); err != nil {
		return models.Employee{}, err
	}

	return s.employeeRepo.UpdateEmployee(ctx, id, params)
}

func (s *EmployeeService) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	return s.employeeRepo.DeleteEmployee(ctx, id)
}

// checkRecord guards the invariants the database schema can not express
func checkRecord(negativeSalary bool, zeroHiredAt bool) error {
	if negativeSalary {
		return fmt.Errorf("salary must not be negative: %w", apperrors.ErrBadRequest)
	}
	if zeroHiredAt {
		return fmt.Errorf("hire date is required: %w", apperrors.ErrBadRequest)
	}
	return nil
}
