// Package http exposes the spending reports over the project routes.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/timeledger/timeledger-backend/internal/logging"
	projectsdomain "github.com/timeledger/timeledger-backend/internal/projects/domain"
	"github.com/timeledger/timeledger-backend/internal/spending/domain"
	"github.com/timeledger/timeledger-backend/internal/spending/report"
)

// Service is the slice of the spending service the handlers need.
type Service interface {
	BuildProjectReport(ctx context.Context, projectID string, asOf time.Time) (*report.ProjectReport, error)
	BudgetStatus(ctx context.Context, projectID string) (*domain.BudgetSnapshot, error)
	RecomputeBudget(ctx context.Context, projectID string) (*domain.BudgetSnapshot, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the spending routes on the projects group.
func (h *Handler) Register(projects *gin.RouterGroup) {
	projects.GET("/:id/report", h.GetReport)
	projects.GET("/:id/budget/status", h.GetBudgetStatus)
	projects.POST("/:id/budget/recompute", h.Recompute)
}

// GetReport returns the assembled spending report for a project. The as_of
// query parameter (YYYY-MM-DD) defaults to today.
func (h *Handler) GetReport(c *gin.Context) {
	projectID := c.Param("id")

	asOf := time.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "as_of must be YYYY-MM-DD"})
			return
		}
		asOf = parsed
	}

	rep, err := h.svc.BuildProjectReport(c.Request.Context(), projectID, asOf)
	if err != nil {
		if errors.Is(err, projectsdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		logging.FromContext(c.Request.Context()).Errorf("build_report", "project=%s: %v", projectID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to build report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "report": rep})
}

// GetBudgetStatus returns the latest budget snapshot, computing one live when
// the project has never been recomputed.
func (h *Handler) GetBudgetStatus(c *gin.Context) {
	snap, err := h.svc.BudgetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, projectsdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		logging.FromContext(c.Request.Context()).Errorf("budget_status", "project=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "failed to get budget status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "status": snap})
}

// Recompute re-evaluates the project's budget and persists the snapshot.
func (h *Handler) Recompute(c *gin.Context) {
	snap, err := h.svc.RecomputeBudget(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, projectsdomain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		logging.FromContext(c.Request.Context()).Errorf("recompute_budget", "project=%s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "recompute failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "status": snap})
}
