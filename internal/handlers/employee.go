package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/handlers/render"
	"github.com/esavelyev/staffpass/internal/logger"
	"github.com/esavelyev/staffpass/internal/models"
	"github.com/esavelyev/staffpass/internal/repository"
)

const hiredAtLayout = "2006-01-02"

type employeeRequest struct {
	FirstName  string          `json:"firstName" validate:"required,max=150"`
	LastName   string          `json:"lastName" validate:"required,max=150"`
	Email      string          `json:"email" validate:"required,email"`
	Department string          `json:"department" validate:"required,max=150"`
	Position   string          `json:"position" validate:"required,max=150"`
	Salary     decimal.Decimal `json:"salary"`
	HiredAt    string          `json:"hiredAt" validate:"required,datetime=2006-01-02"`
}

func (r employeeRequest) toParams() repository.CreateEmployeeParams {
	// The datetime validation tag guarantees the layout parses
	hiredAt, _ := time.Parse(hiredAtLayout, r.HiredAt)

	return repository.CreateEmployeeParams{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Department: r.Department,
		Position:   r.Position,
		Salary:     r.Salary,
		HiredAt:    hiredAt,
	}
}

type employeeResponse struct {
	ID         uuid.UUID       `json:"id"`
	FirstName  string          `json:"firstName"`
	LastName   string          `json:"lastName"`
	Email      string          `json:"email"`
	Department string          `json:"department"`
	Position   string          `json:"position"`
	Salary     decimal.Decimal `json:"salary"`
	HiredAt    string          `json:"hiredAt"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func toEmployeeResponse(e models.Employee) employeeResponse {
	return employeeResponse{
		ID:         e.ID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Department: e.Department,
		Position:   e.Position,
		Salary:     e.Salary,
		HiredAt:    e.HiredAt.Format(hiredAtLayout),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// employeeID parses the {id} path segment. Writes BAD_REQUEST on failure.
func employeeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.Error(w, render.CodeBadRequest, "Invalid employee id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func handleCreateEmployee(employeeService employeeService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[employeeRequest](w, r)
		if err != nil {
			return
		}

		employee, err := employeeService.CreateEmployee(r.Context(), data.toParams())
		switch {
		case err == nil:
			render.JSONWithStatus(w, toEmployeeResponse(employee), http.StatusCreated)
		case errors.Is(err, apperrors.ErrEmployeeEmailTaken):
			render.Error(w, render.CodeEmployeeEmailTaken, "Employee email already taken", http.StatusConflict)
		case errors.Is(err, apperrors.ErrBadRequest):
			render.Error(w, render.CodeBadRequest, "Invalid employee record", http.StatusBadRequest)
		default:
			l.Error("Failed to create employee", "error", err)
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetEmployee(employeeService employeeService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := employeeID(w, r)
		if !ok {
			return
		}

		employee, err := employeeService.GetEmployee(r.Context(), id)
		switch {
		case err == nil:
			render.JSON(w, toEmployeeResponse(employee))
		case errors.Is(err, apperrors.ErrEmployeeNotFound):
			render.Error(w, render.CodeEmployeeNotFound, "Employee not found", http.StatusNotFound)
		default:
			l.Error("Failed to get employee", "error", err, "employee_id", id)
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListEmployees(employeeService employeeService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		opts := repository.ListEmployeesOpts{
			Department: r.URL.Query().Get("department"),
		}

		if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
			limit, err := strconv.Atoi(rawLimit)
			if err != nil || limit < 0 {
				render.Error(w, render.CodeBadRequest, "Invalid limit", http.StatusBadRequest)
				return
			}
			opts.Limit = limit
		}

		employees, err := employeeService.ListEmployees(r.Context(), opts)
		if err != nil {
			l.Error("Failed to list employees", "error", err)
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
			return
		}

		list := make([]employeeResponse, 0, len(employees))
		for _, e := range employees {
			list = append(list, toEmployeeResponse(e))
		}
		render.JSON(w, list)
	})
}

func handleUpdateEmployee(employeeService employeeService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := employeeID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[employeeRequest](w, r)
		if err != nil {
			return
		}

		employee, err := employeeService.UpdateEmployee(r.Context(), id, repository.UpdateEmployeeParams(data.toParams()))
		switch {
		case err == nil:
			render.JSON(w, toEmployeeResponse(employee))
		case errors.Is(err, apperrors.ErrEmployeeNotFound):
			render.Error(w, render.CodeEmployeeNotFound, "Employee not found", http.StatusNotFound)
		case errors.Is(err, apperrors.ErrEmployeeEmailTaken):
			render.Error(w, render.CodeEmployeeEmailTaken, "Employee email already taken", http.StatusConflict)
		case errors.Is(err, apperrors.ErrBadRequest):
			render.Error(w, render.CodeBadRequest, "Invalid employee record", http.StatusBadRequest)
		default:
			l.Error("Failed to update employee", "error", err, "employee_id", id)
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeleteEmployee(employeeService employeeService, l logger.Logger) http.Handler {
	type response struct {
		Success bool `json:"success"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := employeeID(w, r)
		if !ok {
			return
		}

		err := employeeService.DeleteEmployee(r.Context(), id)
		switch {
		case err == nil:
			render.JSON(w, response{Success: true})
		case errors.Is(err, apperrors.ErrEmployeeNotFound):
			render.Error(w, render.CodeEmployeeNotFound, "Employee not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete employee", "error", err, "employee_id", id)
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
	})
}
