package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agruezo/userhub/internal/auth"
	"github.com/agruezo/userhub/internal/cache"
	"github.com/agruezo/userhub/internal/domain/user"
)

// AuthFlows is the slice of the auth service the handler needs.
type AuthFlows interface {
	Register(ctx context.Context, username, email, password string) (user.User, error)
	Login(ctx context.Context, email, password string) (auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Status(ctx context.Context, accessToken string) (user.User, error)
}

type AuthHandler struct {
	svc   AuthFlows
	cache cache.Cache // optional, for user-list invalidation
}

func NewAuthHandler(svc AuthFlows, c cache.Cache) *AuthHandler {
	return &AuthHandler{svc: svc, cache: c}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.svc.Register(cctx, req.Username, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondError(ctx, http.StatusBadRequest, "email_exists", "Sorry. That email already exists.", nil)
			return
		}
		RespondInternal(ctx, "Could not register user")
		return
	}

	if h.cache != nil {
		_ = h.cache.Delete(cctx, usersListCacheKey)
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	pair, err := h.svc.Login(cctx, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User does not exist.")
		case errors.Is(err, auth.ErrInvalidCredentials):
			RespondUnauthorized(ctx, "Email or password is incorrect.")
		default:
			RespondInternal(ctx, "Could not log in")
		}
		return
	}

	ctx.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	pair, err := h.svc.Refresh(cctx, req.RefreshToken)

	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			RespondUnauthorized(ctx, err.Error())
			return
		}
		RespondInternal(ctx, "Could not refresh token")
		return
	}

	ctx.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Status(ctx *gin.Context) {
	token := bearerToken(ctx)

	if token == "" {
		RespondUnauthorized(ctx, auth.ErrInvalidToken.Error())
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.svc.Status(cctx, token)

	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken):
			RespondUnauthorized(ctx, err.Error())
		case errors.Is(err, user.ErrNotFound):
			// valid token whose subject was deleted
			RespondNotFound(ctx, "User does not exist.")
		default:
			RespondInternal(ctx, "Could not fetch user status")
		}
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")

	const prefix = "Bearer "

	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}
