// Package api exposes the analysis pipeline to the dashboard UI as a JSON
// API. It serves layer handles for tile rendering and area statistics for
// the summary table; it never serves pixels itself.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/burnwatch/burnwatch-api-poc/internal/config"
	"github.com/burnwatch/burnwatch-api-poc/internal/delivery"
	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
	"github.com/burnwatch/burnwatch-api-poc/internal/severity"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	cfg      *config.Config
	analyzer *delivery.Analyzer
	logger   *slog.Logger
}

func NewHandler(cfg *config.Config, eval imagery.Evaluator, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		analyzer: delivery.NewAnalyzer(cfg, eval, logger),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/config", h.getConfig)
	r.GET("/api/analysis", h.getAnalysis)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getConfig(c *gin.Context) {
	legend := make([]gin.H, 0, severity.Classes)
	for class := 0; class < severity.Classes; class++ {
		entry := gin.H{
			"class": class,
			"label": severity.Labels[class],
		}
		if class > 0 {
			entry["min_dnbr"] = severity.Breaks[class-1]
		}
		if class < severity.Classes-1 {
			entry["max_dnbr"] = severity.Breaks[class]
		}
		legend = append(legend, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"region":              h.cfg.ROI,
		"fire_start_date":     h.cfg.FireStartDate.Format("2006-01-02"),
		"default_before_date": h.cfg.DefaultBeforeDate.Format("2006-01-02"),
		"default_after_date":  h.cfg.DefaultAfterDate.Format("2006-01-02"),
		"collection":          h.cfg.CollectionID,
		"scale_meters":        h.cfg.ScaleMeters,
		"legend":              legend,
		"vis":                 h.cfg.Vis,
	})
}

// getAnalysis runs the pipeline for the requested date pair, defaulting
// to the configured dates. Degenerate imagery and unavailable statistics
// still return 200 with the corresponding flags set.
func (h *Handler) getAnalysis(c *gin.Context) {
	req := delivery.Request{
		BeforeDate: h.cfg.DefaultBeforeDate,
		AfterDate:  h.cfg.DefaultAfterDate,
	}

	if s := c.Query("before"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before date, expected YYYY-MM-DD"})
			return
		}
		req.BeforeDate = t
	}
	if s := c.Query("after"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid after date, expected YYYY-MM-DD"})
			return
		}
		req.AfterDate = t
	}
	if !req.BeforeDate.Before(req.AfterDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "before date must precede after date"})
		return
	}

	report, err := h.analyzer.Run(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("analysis failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}
