// Package http exposes time-entry routes: creation and listing live under
// the owning project, edits and deletes address the entry directly.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/timeledger/timeledger-backend/internal/logging"
	"github.com/timeledger/timeledger-backend/internal/timeentries/domain"
	"github.com/timeledger/timeledger-backend/internal/timeentries/repository"
)

// Invalidator drops a project's cached reports after an entry write.
type Invalidator interface {
	InvalidateProject(ctx context.Context, projectID string)
}

type Handler struct {
	repo *repository.TimeEntryRepository
	inv  Invalidator
}

// Register mounts entry routes on the v1 group: nested under projects for
// create/list, top-level under /entries for update/delete.
func Register(api *gin.RouterGroup, repo *repository.TimeEntryRepository, inv Invalidator) {
	h := &Handler{repo: repo, inv: inv}

	api.POST("/projects/:id/entries", h.create)
	api.GET("/projects/:id/entries", h.listByProject)
	api.PATCH("/entries/:id", h.update)
	api.DELETE("/entries/:id", h.delete)
}

func (h *Handler) create(c *gin.Context) {
	projectID := c.Param("id")

	var req domain.CreateTimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "user_id is required"})
		return
	}
	if req.Hours.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": domain.ErrInvalidHours.Error()})
		return
	}
	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "entry_date must be YYYY-MM-DD"})
		return
	}

	entry := &domain.TimeEntry{
		UserID:    req.UserID,
		ProjectID: projectID,
		EntryDate: entryDate,
		Hours:     req.Hours,
		Note:      req.Note,
	}
	if err := h.repo.Create(entry); err != nil {
		if errors.Is(err, domain.ErrBadReference) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": domain.ErrBadReference.Error()})
			return
		}
		serverError(c, "create_entry", err, "failed to create time entry")
		return
	}

	h.inv.InvalidateProject(c.Request.Context(), projectID)

	c.JSON(http.StatusCreated, gin.H{"ok": true, "entry": entry})
}

// listByProject returns a project's entries, optionally bounded by from/to
// query parameters (YYYY-MM-DD, inclusive).
func (h *Handler) listByProject(c *gin.Context) {
	from, ok := dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return
	}

	entries, err := h.repo.ListByProject(c.Param("id"), from, to)
	if err != nil {
		serverError(c, "list_entries", err, "failed to list time entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries})
}

func (h *Handler) update(c *gin.Context) {
	var req domain.UpdateTimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Hours != nil && req.Hours.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": domain.ErrInvalidHours.Error()})
		return
	}
	var entryDate *time.Time
	if req.EntryDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.EntryDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "entry_date must be YYYY-MM-DD"})
			return
		}
		entryDate = &parsed
	}

	entry, err := h.repo.Update(c.Param("id"), entryDate, req.Hours, req.Note)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "time entry not found"})
			return
		}
		serverError(c, "update_entry", err, "failed to update time entry")
		return
	}

	h.inv.InvalidateProject(c.Request.Context(), entry.ProjectID)

	c.JSON(http.StatusOK, gin.H{"ok": true, "entry": entry})
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")

	// Fetch first so the owning project's cache can be dropped.
	entry, err := h.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "time entry not found"})
			return
		}
		serverError(c, "delete_entry", err, "failed to get time entry")
		return
	}

	if err := h.repo.Delete(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "time entry not found"})
			return
		}
		serverError(c, "delete_entry", err, "failed to delete time entry")
		return
	}

	h.inv.InvalidateProject(c.Request.Context(), entry.ProjectID)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": name + " must be YYYY-MM-DD"})
		return nil, false
	}
	return &parsed, true
}

func serverError(c *gin.Context, op string, err error, msg string) {
	logging.FromContext(c.Request.Context()).Errorf(op, "%v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": msg})
}
