package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agruezo/userhub/internal/cache"
	"github.com/agruezo/userhub/internal/domain/user"
	"github.com/agruezo/userhub/internal/security"
)

const usersListCacheKey = "users:all"

type UsersHandler struct {
	store    user.Store
	cache    cache.Cache // optional
	cacheTTL time.Duration
}

func NewUsersHandler(store user.Store, c cache.Cache, cacheTTL time.Duration) *UsersHandler {
	return &UsersHandler{
		store:    store,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type UpdateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"omitempty,min=8"`
}

// ListUsers serves the full user list in insertion order, from cache when a
// fresh entry exists.
func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	if h.cache != nil {
		if b, err := h.cache.Get(cctx, usersListCacheKey); err == nil {
			etag := etagForBytes(b)

			ctx.Header("ETag", etag)
			ctx.Header("X-Cache", "hit")

			if ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
				ctx.Status(http.StatusNotModified)
				return
			}

			ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
			return
		}
	}

	users, err := h.store.ListAll(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	if users == nil {
		users = []user.User{}
	}

	if h.cache != nil {
		if b, err := json.Marshal(users); err == nil {
			_ = h.cache.Set(cctx, usersListCacheKey, b, h.cacheTTL)
		}
	}

	RespondJSONWithETag(ctx, http.StatusOK, users)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.store.Create(cctx, req.Username, req.Email, hash)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondError(ctx, http.StatusBadRequest, "email_exists", "Sorry. That email already exists.", nil)
			return
		}
		RespondInternal(ctx, "Could not create user")
		return
	}

	h.invalidateListCache(cctx)

	ctx.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf("%s was added!", u.Email)})
}

func (h *UsersHandler) GetUserByID(ctx *gin.Context) {
	id, ok := h.userID(ctx)

	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("User %d does not exist", id))
			return
		}
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id, ok := h.userID(ctx)

	if !ok {
		return
	}

	var req UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("User %d does not exist", id))
			return
		}
		RespondInternal(ctx, "Could not update user")
		return
	}

	u.Username = req.Username
	u.Email = req.Email

	if req.Password != "" {
		hash, err := security.HashPassword(req.Password)

		if err != nil {
			RespondInternal(ctx, "Could not update user")
			return
		}
		u.PasswordHash = hash
	}

	if err := h.store.Update(cctx, u); err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			RespondError(ctx, http.StatusBadRequest, "email_exists", "Sorry. That email already exists.", nil)
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, fmt.Sprintf("User %d does not exist", id))
		default:
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	h.invalidateListCache(cctx)

	ctx.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%d was updated!", id)})
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := h.userID(ctx)

	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("User %d does not exist", id))
			return
		}
		RespondInternal(ctx, "Could not remove user")
		return
	}

	if err := h.store.Delete(cctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("User %d does not exist", id))
			return
		}
		RespondInternal(ctx, "Could not remove user")
		return
	}

	h.invalidateListCache(cctx)

	ctx.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%s was removed!", u.Email)})
}

func (h *UsersHandler) userID(ctx *gin.Context) (int64, bool) {
	raw := ctx.Param("id")

	id, err := strconv.ParseInt(raw, 10, 64)

	if err != nil || id <= 0 {
		RespondNotFound(ctx, fmt.Sprintf("User %s does not exist", raw))
		return 0, false
	}

	return id, true
}

func (h *UsersHandler) invalidateListCache(ctx context.Context) {
	if h.cache != nil {
		_ = h.cache.Delete(ctx, usersListCacheKey)
	}
}
