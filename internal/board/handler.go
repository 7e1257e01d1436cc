package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler serves the board routes over a Store.
type Handler struct {
	Store *Store
}

// createRequest is the body accepted by POST /api/listings.
type createRequest struct {
	Price        json.RawMessage `json:"price"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Type         string          `json:"type"`
	DurationUnit string          `json:"durationUnit"`
	Location     string          `json:"location"`
	ContactEmail string          `json:"contactEmail"`
	ContactPhone string          `json:"contactPhone"`
}

// RegisterRoutes mounts the board under rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/listings", h.List)
	rg.POST("/listings", h.Create)
	rg.PATCH("/listings/:id/toggle", h.Toggle)
}

// List handles GET /api/listings.
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.All())
}

// Create handles POST /api/listings.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}
	if req.Title == "" || req.Type == "" || missing(req.Price) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, type and price are required."})
		return
	}

	listing := h.Store.Add(Listing{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Type:         req.Type,
		Price:        req.Price,
		DurationUnit: req.DurationUnit,
		Location:     req.Location,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	c.JSON(http.StatusCreated, listing)
}

// Toggle handles PATCH /api/listings/:id/toggle.
func (h *Handler) Toggle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	listing, ok := h.Store.Toggle(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// missing reports whether a price was omitted or given as a blank value:
// null, false, zero, or the empty string.
func missing(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	switch string(raw) {
	case "null", "false", `""`:
		return true
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil && f == 0 {
		return true
	}
	return false
}

// NewRouter builds the board engine with recovery and request logging.
func NewRouter(store *Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	h := &Handler{Store: store}
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("Board request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Serve runs the board on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errorChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errorChan <- fmt.Errorf("failed to start board server: %w", err)
		}
		close(errorChan)
	}()

	slog.Info("Board listening", "addr", addr)

	select {
	case err, ok := <-errorChan:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Error shutting down board server", "error", err)
		return err
	}
	return nil
}
