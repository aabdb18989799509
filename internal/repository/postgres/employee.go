package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/models"
	"github.com/esavelyev/staffpass/internal/repository"
)

type EmployeeRepo struct {
	DB DBTX
}

const createEmployee = `-- name: CreateEmployee
INSERT INTO employees (id, first_name, last_name, email, department, position, salary, hired_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, first_name, last_name, email, department, position, salary, hired_at, created_at, updated_at
`

func (r *EmployeeRepo) CreateEmployee(ctx context.Context, arg repository.CreateEmployeeParams) (models.Employee, error) {
	rows, _ := r.DB.Query(ctx, createEmployee,
		uuid.New(), arg.FirstName, arg.LastName, arg.Email, arg.Department, arg.Position, arg.Salary, arg.HiredAt)
	employee, err := pgx.CollectOneRow(rows, rowToEmployee)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return employee, apperrors.ErrEmployeeEmailTaken
		}

		return employee, fmt.Errorf("db error: %w", err)
	}

	return employee, nil
}

const getEmployee = `-- name: GetEmployee
SELECT id, first_name, last_name, email, department, position, salary, hired_at, created_at, updated_at
FROM employees
WHERE id = $1
`

func (r *EmployeeRepo) GetEmployee(ctx context.Context, id uuid.UUID) (models.Employee, error) {
	rows, _ := r.DB.Query(ctx, getEmployee, id)
	employee, err := pgx.CollectOneRow(rows, rowToEmployee)

	switch {
	case err == nil:
		return employee, nil
	case errors.Is(err, pgx.ErrNoRows):
		return employee, apperrors.ErrEmployeeNotFound
	default:
		return employee, fmt.Errorf("db error: %w", err)
	}
}

// List employees newest hires first. Department filter and row limit are
// both optional, the SQL treats zero values as "no filter".
const listEmployees = `-- name: ListEmployees
SELECT id, first_name, last_name, email, department, position, salary, hired_at, created_at, updated_at
FROM employees
WHERE ($1 = '' OR department = $1)
ORDER BY hired_at DESC, id
LIMIT NULLIF($2, 0)
`

func (r *EmployeeRepo) ListEmployees(ctx context.Context, opts repository.ListEmployeesOpts) ([]models.Employee, error) {
	rows, _ := r.DB.Query(ctx, listEmployees, opts.Department, opts.Limit)
	employees, err := pgx.CollectRows(rows, rowToEmployee)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return employees, nil
}

const updateEmployee = `-- name: UpdateEmployee
UPDATE employees
SET first_name = $2,
	last_name = $3,
	email = $4,
	department = $5,
	position = $6,
	salary = $7,
	hired_at = $8,
	updated_at = now()
WHERE id = $1
RETURNING id, first_name, last_name, email, department, position, salary, hired_at, created_at, updated_at
`

func (r *EmployeeRepo) UpdateEmployee(ctx context.Context, id uuid.UUID, arg repository.UpdateEmployeeParams) (models.Employee, error) {
	rows, _ := r.DB.Query(ctx, updateEmployee,
		id, arg.FirstName, arg.LastName, arg.Email, arg.Department, arg.Position, arg.Salary, arg.HiredAt)
	employee, err := pgx.CollectOneRow(rows, rowToEmployee)

	switch {
	case err == nil:
		return employee, nil
	case errors.Is(err, pgx.ErrNoRows):
		return employee, apperrors.ErrEmployeeNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return employee, apperrors.ErrEmployeeEmailTaken
		}

		return employee, fmt.Errorf("db error: %w", err)
	}
}

const deleteEmployee = `-- name: DeleteEmployee
DELETE FROM employees
WHERE id = $1
`

func (r *EmployeeRepo) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteEmployee, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrEmployeeNotFound
	}

	return nil
}

func rowToEmployee(row pgx.CollectableRow) (models.Employee, error) {
	var e models.Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Department, &e.Position, &e.Salary, &e.HiredAt, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}
