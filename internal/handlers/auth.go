package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	iauth "github.com/productcompass/compass/internal/auth"
	"github.com/productcompass/compass/internal/models"
	"github.com/productcompass/compass/internal/services"
	appErrors "github.com/productcompass/compass/pkg/errors"
	"github.com/productcompass/compass/pkg/metrics"
	"github.com/productcompass/compass/pkg/response"
)

type AuthHandler struct {
	users    *services.UserService
	jwt      *iauth.JWTService
	verifier iauth.IdentityVerifier
}

func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService, verifier iauth.IdentityVerifier) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt, verifier: verifier}
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	DisplayName string `json:"display_name" validate:"omitempty,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type userDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	Federated   bool       `json:"federated"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type sessionResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
		Federated:   u.FederatedID != nil,
		LastLoginAt: u.LastLoginAt,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Register(requestContext(c), services.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.issueSession(c, user, http.StatusCreated, "register")
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password, c.ClientIP())
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("password", "failure").Inc()
		response.Error(c, err)
		return
	}

	h.issueSession(c, user, http.StatusOK, "password")
}

// POST /api/auth/token exchanges a verified federated ID token for a session.
func (h *AuthHandler) Token(c *gin.Context) {
	if h.verifier == nil {
		response.Error(c, appErrors.New("IDENTITY_DISABLED", "Federated login is not configured", http.StatusNotImplemented))
		return
	}

	var req tokenRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	claims, err := h.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("federated", "failure").Inc()
		if errors.Is(err, iauth.ErrIdentityDisabled) {
			response.Error(c, appErrors.New("IDENTITY_DISABLED", "Federated login is not configured", http.StatusNotImplemented))
			return
		}
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.users.FederatedLogin(ctx, claims, c.ClientIP())
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("federated", "failure").Inc()
		response.Error(c, err)
		return
	}

	h.issueSession(c, user, http.StatusOK, "federated")
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserDTO(user))
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=128"`
	Avatar      *string `json:"avatar" validate:"omitempty,max=512"`
}

// PUT /api/auth/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.UpdateProfile(requestContext(c), userID, services.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Avatar:      req.Avatar,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, toUserDTO(user))
}

// DELETE /api/auth/me
func (h *AuthHandler) DeleteMe(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.users.Delete(requestContext(c), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *AuthHandler) issueSession(c *gin.Context, user *models.User, status int, method string) {
	token, err := h.jwt.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	metrics.AuthAttempts.WithLabelValues(method, "success").Inc()
	response.Success(c, status, sessionResponse{Token: token, User: toUserDTO(user)})
}
