package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/esavelyev/staffpass/internal/apperrors"
	"github.com/esavelyev/staffpass/internal/handlers/authctx"
	"github.com/esavelyev/staffpass/internal/handlers/render"
	"github.com/esavelyev/staffpass/internal/logger"
)

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	RoleIDs     []string  `json:"roleIds"`
	Permissions []string  `json:"permissions"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type response struct {
		Tokens tokenPairResponse `json:"tokens"`
		User   userResponse      `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := authService.Login(r.Context(), data.Email, data.Password)
		switch {
		case err == nil:
			render.JSON(w, response{
				Tokens: tokenPairResponse{
					AccessToken:  result.Tokens.Access.Value,
					RefreshToken: result.Tokens.Refresh.Value,
				},
				User: userResponse{
					ID:          result.User.ID,
					Email:       result.User.Email,
					RoleIDs:     result.User.RoleIDs,
					Permissions: result.User.Permissions,
				},
			})
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.Error(w, render.CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
		default:
			l.Error("Login failed unexpectedly", "error", err)
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleRefresh(authService authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := authService.Refresh(r.Context(), data.RefreshToken)
		switch {
		case err == nil:
			render.JSON(w, tokenPairResponse{
				AccessToken:  pair.Access.Value,
				RefreshToken: pair.Refresh.Value,
			})
		case errors.Is(err, apperrors.ErrTokenExpired):
			render.Error(w, render.CodeTokenExpired, "Refresh token expired", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrTokenReuseDetected):
			render.Error(w, render.CodeTokenReuseDetected, "Refresh token reuse detected", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrTokenRevoked):
			render.Error(w, render.CodeTokenRevoked, "Refresh token already used", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrSessionRevoked):
			render.Error(w, render.CodeSessionRevoked, "Session revoked", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrSessionNotFound):
			render.Error(w, render.CodeSessionNotFound, "Session not found", http.StatusUnauthorized)
		case errors.Is(err, apperrors.ErrInvalidToken):
			render.Error(w, render.CodeInvalidToken, "Invalid refresh token", http.StatusUnauthorized)
		default:
			l.Error("Refresh failed unexpectedly", "error", err)
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleLogout(authService authService, l logger.Logger) http.Handler {
	type request struct {
		SessionID    string `json:"sessionId" validate:"required_without=RefreshToken,omitempty,uuid"`
		RefreshToken string `json:"refreshToken" validate:"required_without=SessionID"`
	}
	type response struct {
		Success bool `json:"success"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		// Logout never tells the caller whether anything was revoked:
		// failures are logged and the response is success either way
		if data.SessionID != "" {
			if id, err := uuid.Parse(data.SessionID); err == nil {
				if err := authService.Logout(r.Context(), id); err != nil {
					l.Error("Logout failed", "error", err, "session_id", id)
				}
			}
		}
		if data.RefreshToken != "" {
			if err := authService.LogoutWithToken(r.Context(), data.RefreshToken); err != nil {
				l.Error("Logout by token failed", "error", err)
			}
		}

		render.JSON(w, response{Success: true})
	})
}

func handleMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := authctx.FromContext(r.Context())
		if !ok {
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, userResponse{
			ID:          claims.UserID,
			Email:       claims.Email,
			RoleIDs:     claims.RoleIDs,
			Permissions: claims.Permissions,
		})
	})
}
