// Package http exposes project CRUD and budget routes.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/timeledger/timeledger-backend/internal/logging"
	"github.com/timeledger/timeledger-backend/internal/projects/domain"
	"github.com/timeledger/timeledger-backend/internal/projects/repository"
)

// Invalidator drops a project's cached reports after a write that changes
// its numbers.
type Invalidator interface {
	InvalidateProject(ctx context.Context, projectID string)
}

type Handler struct {
	repo *repository.Repo
	inv  Invalidator
}

func Register(rg *gin.RouterGroup, repo *repository.Repo, inv Invalidator) {
	h := &Handler{repo: repo, inv: inv}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.update)
	rg.PUT("/:id/budget", h.setBudget)
	rg.GET("/:id/budget", h.getBudget)
}

func (h *Handler) create(c *gin.Context) {
	var req domain.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "name is required"})
		return
	}

	p, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		serverError(c, "create_project", err, "failed to create project")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	projects, err := h.repo.List(c.Request.Context())
	if err != nil {
		serverError(c, "list_projects", err, "failed to list projects")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": projects})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.repo.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		serverError(c, "get_project", err, "failed to get project")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) update(c *gin.Context) {
	var req domain.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.repo.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		serverError(c, "update_project", err, "failed to update project")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

// setBudget replaces the project's budget. Quarterly budgets disagreeing
// with the total is allowed; the response carries a warning instead.
func (h *Handler) setBudget(c *gin.Context) {
	projectID := c.Param("id")

	var req domain.SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	for _, d := range []decimal.Decimal{req.Total, req.Q1, req.Q2, req.Q3, req.Q4} {
		if d.Sign() < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "budgets must not be negative"})
			return
		}
	}

	if _, err := h.repo.GetProject(c.Request.Context(), projectID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
			return
		}
		serverError(c, "set_budget", err, "failed to get project")
		return
	}

	b, err := h.repo.SetBudget(c.Request.Context(), projectID, req)
	if err != nil {
		serverError(c, "set_budget", err, "failed to set budget")
		return
	}

	h.inv.InvalidateProject(c.Request.Context(), projectID)

	c.JSON(http.StatusOK, budgetPayload(b))
}

func (h *Handler) getBudget(c *gin.Context) {
	b, err := h.repo.GetBudget(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "budget not set for project"})
			return
		}
		serverError(c, "get_budget", err, "failed to get budget")
		return
	}
	c.JSON(http.StatusOK, budgetPayload(b))
}

func budgetPayload(b *domain.Budget) gin.H {
	payload := gin.H{"ok": true, "budget": b}
	if !b.SumMatchesTotal() {
		payload["warning"] = fmt.Sprintf(
			"quarterly budgets sum to %s but total budget is %s",
			b.QuarterSum(), b.Total,
		)
	}
	return payload
}

func serverError(c *gin.Context, op string, err error, msg string) {
	logging.FromContext(c.Request.Context()).Errorf(op, "%v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": msg})
}
