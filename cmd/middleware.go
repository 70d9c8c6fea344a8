package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"swiftfactureBack/internal/handlers"
	"swiftfactureBack/internal/models"
)

// sessionLookupTimeout bounds refresh-token and role lookups made while
// authenticating a request.
const sessionLookupTimeout = 3 * time.Second

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

func makeResponseJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.logger.Infow("request", "remote", r.RemoteAddr, "proto", r.Proto, "method", r.Method, "uri", r.URL.RequestURI())
		next.ServeHTTP(w, r)
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverError(w, fmt.Errorf("%s", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (app *application) serverError(w http.ResponseWriter, err error) {
	app.logger.Errorw("internal error", "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// authenticate resolves the caller behind an access token. An invalid access
// token falls back to the Refresh-Token header; the re-issued access token is
// returned so the caller can hand it back to the client.
func (app *application) authenticate(ctx context.Context, accessToken, refreshToken string) (*models.Claims, string, error) {
	claims, err := app.userService.ParseAccessToken(accessToken)
	if err == nil {
		return claims, "", nil
	}
	if refreshToken == "" {
		return nil, "", models.ErrInvalidCredentials
	}

	lookupCtx, cancel := context.WithTimeout(ctx, sessionLookupTimeout)
	defer cancel()
	token, claims, err := app.userService.Refresh(lookupCtx, refreshToken)
	if err != nil {
		return nil, "", err
	}
	return claims, token, nil
}

// currentRole reads the role from user_roles so that role changes apply
// without waiting for the access token to expire.
func (app *application) currentRole(ctx context.Context, claims *models.Claims) string {
	lookupCtx, cancel := context.WithTimeout(ctx, sessionLookupTimeout)
	defer cancel()
	role, err := app.roles.GetRole(lookupCtx, claims.UserID)
	if err != nil {
		app.logger.Errorf("auth: role lookup for %s: %v", claims.UserID, err)
		return claims.Role
	}
	return role
}

func (app *application) JWTMiddleware(next http.Handler, requiredRole string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Authorization header missing or invalid", http.StatusUnauthorized)
			return
		}
		accessToken := strings.TrimPrefix(authHeader, "Bearer ")

		claims, renewed, err := app.authenticate(r.Context(), accessToken, r.Header.Get("Refresh-Token"))
		if err != nil {
			http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
			return
		}
		if renewed != "" {
			w.Header().Set("Authorization", "Bearer "+renewed)
		}

		role := app.currentRole(r.Context(), claims)
		if requiredRole == models.RoleAdmin && !models.IsAdminRole(role) {
			http.Error(w, "Forbidden: only admins allowed", http.StatusForbidden)
			return
		}

		ctx := handlers.WithIdentity(r.Context(), claims.UserID, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
