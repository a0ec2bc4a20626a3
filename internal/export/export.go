// Package export writes analysis artifacts to disk: area statistics as
// CSV and selected layers as GeoTIFF downloads from the imagery service.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/burnwatch/burnwatch-api-poc/internal/area"
	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
	"github.com/burnwatch/burnwatch-api-poc/internal/severity"
	"github.com/gammazero/workerpool"
	"github.com/gocarina/gocsv"
)

// StatRow is one CSV line of the area statistics export.
type StatRow struct {
	Class    string  `csv:"severity_class"`
	Label    string  `csv:"label"`
	Hectares float64 `csv:"hectares"`
}

// WriteStatsCSV writes per-class and total burned areas. Unavailable
// statistics produce an error rather than a misleading file of zeros.
func WriteStatsCSV(path string, stats area.Stats) error {
	if !stats.Available {
		return fmt.Errorf("area statistics unavailable: %s", stats.Reason)
	}

	rows := make([]StatRow, 0, severity.Classes+1)
	for class := 0; class < severity.Classes; class++ {
		rows = append(rows, StatRow{
			Class:    fmt.Sprintf("%d", class),
			Label:    severity.Labels[class],
			Hectares: stats.ClassHectares[class],
		})
	}
	rows = append(rows, StatRow{
		Class:    "burned_total",
		Label:    "Total burned (dNBR >= 0.1)",
		Hectares: stats.BurnedHectares,
	})

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %v", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %v", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("failed to write csv: %v", err)
	}
	return nil
}

// TIFFFetcher materializes a layer as GeoTIFF bytes. Implemented by
// imagery.Client.
type TIFFFetcher interface {
	FetchGeoTIFF(ctx context.Context, img imagery.Image, region imagery.Region, scale float64) ([]byte, error)
}

// DownloadLayers fetches each named layer as a GeoTIFF into dir, running
// up to workers downloads at a time. Files already on disk are skipped.
// Each download is opened and checked before it is kept; invalid files
// are removed. Returns the first error encountered, after all workers
// finish.
func DownloadLayers(ctx context.Context, fetcher TIFFFetcher, layers map[string]imagery.Image, region imagery.Region, scale float64, dir string, workers int, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %v", err)
	}

	wp := workerpool.New(workers)
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for name, img := range layers {
		name, img := name, img
		wp.Submit(func() {
			path := filepath.Join(dir, name+".tif")
			if _, err := os.Stat(path); err == nil {
				logger.Info("layer already downloaded", "layer", name, "path", path)
				return
			}

			data, err := fetcher.FetchGeoTIFF(ctx, img, region, scale)
			if err != nil {
				fail(fmt.Errorf("failed to fetch layer %s: %v", name, err))
				return
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				fail(fmt.Errorf("failed to write layer %s: %v", name, err))
				return
			}

			if err := validateTIFF(path); err != nil {
				os.Remove(path)
				fail(fmt.Errorf("invalid GeoTIFF for layer %s: %v", name, err))
				return
			}
			logger.Info("layer downloaded", "layer", name, "path", path)
		})
	}

	wp.StopWait()
	return firstErr
}

func validateTIFF(path string) error {
	ds, err := godal.Open(path, godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return fmt.Errorf("%s", msg)
	}))
	if err != nil {
		return fmt.Errorf("failed to open: %v", err)
	}
	defer ds.Close()

	structure := ds.Structure()
	if len(ds.Bands()) == 0 || structure.SizeX <= 0 || structure.SizeY <= 0 {
		return fmt.Errorf("empty raster: %d bands, %dx%d", len(ds.Bands()), structure.SizeX, structure.SizeY)
	}
	return nil
}
