// Package http exposes user CRUD and rate-change routes.
package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/timeledger/timeledger-backend/internal/logging"
	"github.com/timeledger/timeledger-backend/internal/users/domain"
	"github.com/timeledger/timeledger-backend/internal/users/repository"
)

// RateService resolves effective-dated rates and drops derived report caches
// when a rate write repriced history.
type RateService interface {
	ResolveRate(ctx context.Context, userID string, date time.Time) (decimal.Decimal, error)
	InvalidateAllReports(ctx context.Context)
}

type Handler struct {
	repo  *repository.Repo
	rates RateService
}

func Register(rg *gin.RouterGroup, repo *repository.Repo, rates RateService) {
	h := &Handler{repo: repo, rates: rates}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.POST("/:id/rates", h.addRateChange)
	rg.GET("/:id/rates", h.listRateChanges)
	rg.GET("/:id/effective-rate", h.effectiveRate)
}

func (h *Handler) create(c *gin.Context) {
	var req domain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "name and email are required"})
		return
	}
	if req.CurrentRate.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": domain.ErrNegativeRate.Error()})
		return
	}

	u, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": domain.ErrEmailTaken.Error()})
			return
		}
		serverError(c, "create_user", err, "failed to create user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "user": u})
}

func (h *Handler) list(c *gin.Context) {
	users, err := h.repo.List(c.Request.Context())
	if err != nil {
		serverError(c, "list_users", err, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "users": users})
}

func (h *Handler) get(c *gin.Context) {
	u, err := h.repo.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
			return
		}
		serverError(c, "get_user", err, "failed to get user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

func (h *Handler) update(c *gin.Context) {
	var req domain.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.CurrentRate != nil && req.CurrentRate.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": domain.ErrNegativeRate.Error()})
		return
	}

	u, err := h.repo.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
		case errors.Is(err, domain.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": domain.ErrEmailTaken.Error()})
		default:
			serverError(c, "update_user", err, "failed to update user")
		}
		return
	}

	// A changed current rate reprices every entry the fallback covers.
	if req.CurrentRate != nil {
		h.rates.InvalidateAllReports(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "user": u})
}

func (h *Handler) addRateChange(c *gin.Context) {
	var req domain.CreateRateChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Rate.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": domain.ErrNegativeRate.Error()})
		return
	}
	effective, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "effective_date must be YYYY-MM-DD"})
		return
	}

	rc := &domain.RateChange{
		UserID:        c.Param("id"),
		Rate:          req.Rate,
		EffectiveDate: effective,
		CreatedBy:     strings.TrimSpace(req.CreatedBy),
	}
	if err := h.repo.AddRateChange(c.Request.Context(), rc); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
		case errors.Is(err, domain.ErrDuplicateRateDate):
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": domain.ErrDuplicateRateDate.Error()})
		default:
			serverError(c, "add_rate_change", err, "failed to record rate change")
		}
		return
	}

	// The new rate applies to history from its effective date on; any cached
	// report may now carry stale costs.
	h.rates.InvalidateAllReports(c.Request.Context())

	c.JSON(http.StatusCreated, gin.H{"ok": true, "rate_change": rc})
}

func (h *Handler) listRateChanges(c *gin.Context) {
	userID := c.Param("id")
	if _, err := h.repo.GetUser(c.Request.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
			return
		}
		serverError(c, "list_rate_changes", err, "failed to get user")
		return
	}

	history, err := h.repo.RateHistory(c.Request.Context(), userID)
	if err != nil {
		serverError(c, "list_rate_changes", err, "failed to list rate changes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rate_changes": history})
}

// effectiveRate answers which hourly rate applied for the user on a date.
// The date query parameter (YYYY-MM-DD) defaults to today.
func (h *Handler) effectiveRate(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	userID := c.Param("id")
	rate, err := h.rates.ResolveRate(c.Request.Context(), userID, date)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
			return
		}
		serverError(c, "effective_rate", err, "failed to resolve rate")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"user_id": userID,
		"date":    date.Format("2006-01-02"),
		"rate":    rate,
	})
}

func serverError(c *gin.Context, op string, err error, msg string) {
	logging.FromContext(c.Request.Context()).Errorf(op, "%v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": msg})
}
