package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/esavelyev/staffpass/internal/handlers/middleware"
	"github.com/esavelyev/staffpass/internal/logger"
	"github.com/esavelyev/staffpass/internal/models"
	"github.com/esavelyev/staffpass/internal/repository"
	"github.com/esavelyev/staffpass/internal/service/auth"
	"github.com/esavelyev/staffpass/internal/service/auth/tokencodec"
)

// Permissions the employee routes check. Must match the seeded
// role_permissions rows.
const (
	PermissionEmployeesRead  = "employees:read"
	PermissionEmployeesWrite = "employees:write"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	employeeService employeeService,
	l logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)
	requireRead := middleware.RequirePermission(PermissionEmployeesRead)
	requireWrite := middleware.RequirePermission(PermissionEmployeesWrite)

	mux := http.NewServeMux()

	mux.Handle("POST /auth/login", handleLogin(authService, l))
	mux.Handle("POST /auth/refresh", handleRefresh(authService, l))
	mux.Handle("POST /auth/logout", handleLogout(authService, l))
	mux.Handle("GET /auth/me", chain(handleMe(), withAuth))

	mux.Handle("GET /api/employees", chain(handleListEmployees(employeeService, l), withAuth, requireRead))
	mux.Handle("POST /api/employees", chain(handleCreateEmployee(employeeService, l), withAuth, requireWrite))
	mux.Handle("GET /api/employees/{id}", chain(handleGetEmployee(employeeService, l), withAuth, requireRead))
	mux.Handle("PUT /api/employees/{id}", chain(handleUpdateEmployee(employeeService, l), withAuth, requireWrite))
	mux.Handle("DELETE /api/employees/{id}", chain(handleDeleteEmployee(employeeService, l), withAuth, requireWrite))

	return chain(mux, middleware.LoggerMiddleware(l))
}

type authService interface {
	// Login with email and password.
	// Has to return apperrors.ErrInvalidCredentials on any credential failure
	Login(ctx context.Context, email string, password string) (auth.LoginResult, error)

	// Rotate the presented refresh token and issue a fresh pair
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)

	// Revoke a session. Both succeed silently when nothing matches
	Logout(ctx context.Context, sessionID uuid.UUID) error
	LogoutWithToken(ctx context.Context, refreshToken string) error

	// Verify a bearer access token, used by the auth middleware
	VerifyAccess(tokenString string) (tokencodec.AccessClaims, error)
}

type employeeService interface {
	CreateEmployee(ctx context.Context, params repository.CreateEmployeeParams) (models.Employee, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (models.Employee, error)
	ListEmployees(ctx context.Context, opts repository.ListEmployeesOpts) ([]models.Employee, error)
	UpdateEmployee(ctx context.Context, id uuid.UUID, params repository.UpdateEmployeeParams) (models.Employee, error)
	DeleteEmployee(ctx context.Context, id uuid.UUID) error
}
