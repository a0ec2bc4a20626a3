// Package composite selects cloud-filtered median composites bracketing a
// fire event. Selection only builds a computation graph; nothing is
// fetched until a downstream evaluator call.
package composite

import (
	"time"

	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
)

// CloudProperty is the collection metadata property holding per-item cloud
// cover percentage.
const CloudProperty = "CLOUDY_PIXEL_PERCENTAGE"

// Select filters the collection to items within
// [center - windowBeforeDays, center + windowAfterDays] whose footprint
// intersects the region and whose cloud cover is strictly below
// maxCloudPct, reduces them with a per-pixel median and clips to the
// region. A before-fire composite uses windowAfterDays = 0 and an
// after-fire composite uses windowBeforeDays = 0.
//
// With zero matching items the median yields a fully masked image with an
// empty band list; the band algebra stage treats that as degenerate.
func Select(collectionID string, center time.Time, windowBeforeDays, windowAfterDays int, roi imagery.Region, maxCloudPct float64) imagery.Image {
	start := center.AddDate(0, 0, -windowBeforeDays)
	end := center.AddDate(0, 0, windowAfterDays)

	return imagery.ImageCollection(collectionID).
		FilterDate(start, end).
		FilterBounds(roi).
		FilterLt(CloudProperty, maxCloudPct).
		Median().
		Clip(roi)
}
