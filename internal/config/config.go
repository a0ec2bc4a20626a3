// Package config loads the immutable analysis configuration from the
// environment. Every component receives it at construction; nothing in
// the pipeline reads ambient globals, so several fire events can be
// analyzed in one process.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
	"github.com/burnwatch/burnwatch-api-poc/internal/indices"
)

// LayerVis holds the visualization parameters an external tile renderer
// applies to one layer type.
type LayerVis struct {
	Bands   []string `json:"bands,omitempty"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Gamma   float64  `json:"gamma,omitempty"`
	Palette []string `json:"palette,omitempty"`
}

// Config holds all settings for one fire event analysis. Immutable once
// loaded.
type Config struct {
	// Fire event.
	ROI               imagery.Region
	FireStartDate     time.Time
	DefaultBeforeDate time.Time
	DefaultAfterDate  time.Time

	// Composite selection.
	CollectionID      string
	BeforeWindowDays  int
	AfterWindowDays   int
	BeforeMaxCloudPct float64
	AfterMaxCloudPct  float64
	Bands             indices.BandMap

	// Aggregation. ScaleMeters defaults to 30 for performance; the
	// source imagery is natively 10 m.
	ScaleMeters float64
	MaxPixels   int64

	// Imagery service.
	ProjectID    string
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string

	// Surrounding application.
	HTTPAddr                 string
	OutputDir                string
	DiscordErrorWebhookURL   string
	DiscordSuccessWebhookURL string

	// Visualization parameters keyed by layer type: "true_color", "nbr",
	// "dnbr", "burn_severity".
	Vis map[string]LayerVis
}

// Load reads configuration from environment variables, applying the
// reference deployment's defaults (the January 2025 Palisades Fire) where
// unset. Missing imagery service credentials are a fatal configuration
// error.
func Load() (*Config, error) {
	roi, err := parseBBox(envOrDefault("FIRE_BBOX", "-118.65,34.0,-118.45,34.15"))
	if err != nil {
		return nil, err
	}

	fireStart, err := parseDate("FIRE_START_DATE", "2025-01-07")
	if err != nil {
		return nil, err
	}
	beforeDate, err := parseDate("BEFORE_DATE", "2024-11-01")
	if err != nil {
		return nil, err
	}
	afterDate, err := parseDate("AFTER_DATE", "2025-02-01")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ROI:               roi,
		FireStartDate:     fireStart,
		DefaultBeforeDate: beforeDate,
		DefaultAfterDate:  afterDate,

		CollectionID:      envOrDefault("IMAGERY_COLLECTION", "COPERNICUS/S2_SR_HARMONIZED"),
		BeforeWindowDays:  envInt("BEFORE_WINDOW_DAYS", 180),
		AfterWindowDays:   envInt("AFTER_WINDOW_DAYS", 30),
		BeforeMaxCloudPct: envFloat("BEFORE_MAX_CLOUD_PCT", 20),
		AfterMaxCloudPct:  envFloat("AFTER_MAX_CLOUD_PCT", 30),
		Bands: indices.BandMap{
			NIR:   envOrDefault("BAND_NIR", "B8"),
			Red:   envOrDefault("BAND_RED", "B4"),
			SWIR:  envOrDefault("BAND_SWIR", "B12"),
			Green: envOrDefault("BAND_GREEN", "B3"),
		},

		ScaleMeters: envFloat("AGG_SCALE_METERS", 30),
		MaxPixels:   int64(envFloat("AGG_MAX_PIXELS", 1e9)),

		ProjectID:    os.Getenv("IMAGERY_PROJECT_ID"),
		BaseURL:      envOrDefault("IMAGERY_BASE_URL", "https://earthengine.googleapis.com"),
		TokenURL:     envOrDefault("IMAGERY_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		ClientID:     os.Getenv("IMAGERY_CLIENT_ID"),
		ClientSecret: os.Getenv("IMAGERY_CLIENT_SECRET"),

		HTTPAddr:                 envOrDefault("HTTP_ADDR", ":8080"),
		OutputDir:                envOrDefault("OUTPUT_DIR", "data/result"),
		DiscordErrorWebhookURL:   os.Getenv("DISCORD_ERROR_NOTIFICATION_URL"),
		DiscordSuccessWebhookURL: os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL"),

		Vis: defaultVis(),
	}

	if cfg.ScaleMeters <= 0 {
		return nil, errors.New("AGG_SCALE_METERS must be positive")
	}
	if cfg.MaxPixels <= 0 {
		return nil, errors.New("AGG_MAX_PIXELS must be positive")
	}
	if cfg.ProjectID == "" {
		return nil, errors.New("IMAGERY_PROJECT_ID is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("IMAGERY_CLIENT_ID and IMAGERY_CLIENT_SECRET are required")
	}

	return cfg, nil
}

// ClientConfig returns the imagery service client settings.
func (c *Config) ClientConfig() imagery.ClientConfig {
	return imagery.ClientConfig{
		BaseURL:      c.BaseURL,
		ProjectID:    c.ProjectID,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
	}
}

func defaultVis() map[string]LayerVis {
	return map[string]LayerVis{
		"true_color": {
			Bands: []string{"B4", "B3", "B2"},
			Min:   0,
			Max:   3000,
			Gamma: 1.4,
		},
		"nbr": {
			Min:     -1,
			Max:     1,
			Palette: []string{"red", "yellow", "green"},
		},
		"dnbr": {
			Min:     -0.5,
			Max:     1.0,
			Palette: []string{"green", "yellow", "orange", "red", "purple"},
		},
		"burn_severity": {
			Min:     0,
			Max:     5,
			Palette: []string{"white", "green", "yellow", "orange", "red", "purple"},
		},
	}
}

func parseBBox(s string) (imagery.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return imagery.Region{}, fmt.Errorf("FIRE_BBOX must be west,south,east,north, got %q", s)
	}
	coords := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return imagery.Region{}, fmt.Errorf("invalid FIRE_BBOX coordinate %q: %v", p, err)
		}
		coords[i] = v
	}
	return imagery.NewRegion(coords[0], coords[1], coords[2], coords[3])
}

func parseDate(key, fallback string) (time.Time, error) {
	s := envOrDefault(key, fallback)
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %v", key, s, err)
	}
	return t, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return fallback
}
