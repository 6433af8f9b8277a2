package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"VinylShop/core/auth"
	"VinylShop/logger"
	"VinylShop/model"
)

type contextKey string

const claimsKey contextKey = "claims"

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// RegisterHandler handles user registration requests
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Password == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{
			Success: false,
			Message: "password cannot be null",
			Errors:  []model.FieldError{{Kind: model.RequiredField, Field: "password", Message: "password cannot be null"}},
		})
		return
	}

	user, err := h.creds.CreateUser(r.Context(), &model.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
	})
	if err != nil {
		writeServiceError(w, "Register", err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		writeServiceError(w, "Register", err)
		return
	}

	logger.Info("[Register] 注册成功", logger.Uint64("userId", user.ID))
	writeData(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// LoginHandler handles user login requests
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("[Login] 解析请求体失败", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.creds.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		logger.Warn("[Login] 登录失败", logger.String("email", req.Email), logger.ErrorField(err))
		writeServiceError(w, "Login", err)
		return
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		writeServiceError(w, "Login", err)
		return
	}

	logger.Info("[Login] 登录成功", logger.Uint64("userId", user.ID))
	writeData(w, http.StatusOK, authResponse{Token: token, User: user})
}

// MeHandler returns the authenticated user's profile.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := ClaimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.creds.Users().GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, "Me", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeData(w, http.StatusOK, user)
}

// AuthMiddleware is a middleware function that checks for a valid JWT token
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := h.tokens.ParseToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// AdminOnly wraps next with AuthMiddleware and rejects non-admin tokens.
func (h *APIHandler) AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		claims, err := ClaimsFromContext(r.Context())
		if err != nil || !claims.IsAdmin {
			writeError(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext extracts the token claims stored by AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, error) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	if !ok {
		return nil, errors.New("claims not found in context")
	}
	return claims, nil
}
