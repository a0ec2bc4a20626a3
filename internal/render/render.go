// Package render builds the layer handles consumed by an external
// map-tile renderer and draws PNG artifacts (severity legend, class-area
// summary) for reports.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/burnwatch/burnwatch-api-poc/internal/area"
	"github.com/burnwatch/burnwatch-api-poc/internal/config"
	"github.com/burnwatch/burnwatch-api-poc/internal/imagery"
	"github.com/burnwatch/burnwatch-api-poc/internal/severity"
	"github.com/fogleman/gg"
)

// Layer pairs a named computation graph with the visualization parameters
// a tile renderer should apply to it.
type Layer struct {
	Name       string          `json:"name"`
	Expression json.RawMessage `json:"expression"`
	Vis        config.LayerVis `json:"vis"`
}

func NewLayer(name string, img imagery.Image, vis config.LayerVis) (Layer, error) {
	expr, err := json.Marshal(img)
	if err != nil {
		return Layer{}, fmt.Errorf("failed to encode layer %s: %v", name, err)
	}
	return Layer{Name: name, Expression: expr, Vis: vis}, nil
}

// paletteColors maps the palette names used by the visualization
// parameters to hex colors.
var paletteColors = map[string]string{
	"white":  "#ffffff",
	"green":  "#2e7d32",
	"yellow": "#f9d54a",
	"orange": "#ef8633",
	"red":    "#d13f31",
	"purple": "#6a1b9a",
}

func setNamedColor(dc *gg.Context, name string) {
	hex, ok := paletteColors[name]
	if !ok {
		hex = "#888888"
	}
	dc.SetHexColor(hex)
}

// LegendPNG draws the burn severity legend: one swatch per class with its
// label and dNBR range.
func LegendPNG(path string, vis config.LayerVis) error {
	const (
		width     = 420
		rowHeight = 36
		padding   = 16
		swatch    = 24
	)
	height := padding*2 + rowHeight*severity.Classes + 28

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	dc.SetHexColor("#222222")
	dc.DrawString("Burn severity (dNBR)", padding, padding+10)

	for class := 0; class < severity.Classes; class++ {
		y := float64(padding + 28 + class*rowHeight)

		if class < len(vis.Palette) {
			setNamedColor(dc, vis.Palette[class])
		} else {
			dc.SetHexColor("#888888")
		}
		dc.DrawRectangle(padding, y, swatch, swatch)
		dc.Fill()
		dc.SetHexColor("#222222")
		dc.DrawRectangle(padding, y, swatch, swatch)
		dc.Stroke()

		label := fmt.Sprintf("%d  %s  (%s)", class, severity.Labels[class], classRange(class))
		dc.DrawString(label, padding+swatch+12, y+swatch/2+4)
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save legend image: %v", err)
	}
	return nil
}

func classRange(class int) string {
	switch class {
	case 0:
		return fmt.Sprintf("d < %g", severity.Breaks[0])
	case severity.Classes - 1:
		return fmt.Sprintf("d >= %g", severity.Breaks[len(severity.Breaks)-1])
	default:
		return fmt.Sprintf("%g <= d < %g", severity.Breaks[class-1], severity.Breaks[class])
	}
}

// ClassAreaPNG draws a horizontal bar per severity class, scaled to the
// largest class area.
func ClassAreaPNG(path string, stats area.Stats, vis config.LayerVis) error {
	const (
		width     = 560
		rowHeight = 40
		padding   = 16
		barLeft   = 200
	)
	height := padding*2 + rowHeight*severity.Classes + 28

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	dc.SetHexColor("#222222")
	title := fmt.Sprintf("Area by severity class (total burned: %.0f ha)", stats.BurnedHectares)
	if !stats.Available {
		title = "Area statistics unavailable"
	}
	dc.DrawString(title, padding, padding+10)

	maxArea := 0.0
	for _, ha := range stats.ClassHectares {
		if ha > maxArea {
			maxArea = ha
		}
	}

	for class := 0; class < severity.Classes; class++ {
		y := float64(padding + 28 + class*rowHeight)

		dc.SetHexColor("#222222")
		dc.DrawString(fmt.Sprintf("%d %s", class, severity.Labels[class]), padding, y+rowHeight/2)

		barWidth := 0.0
		if maxArea > 0 {
			barWidth = stats.ClassHectares[class] / maxArea * (width - barLeft - padding - 80)
		}
		if class < len(vis.Palette) {
			setNamedColor(dc, vis.Palette[class])
		} else {
			dc.SetHexColor("#888888")
		}
		dc.DrawRectangle(barLeft, y+8, barWidth, rowHeight-18)
		dc.Fill()

		dc.SetHexColor("#222222")
		dc.DrawString(fmt.Sprintf("%.0f ha", stats.ClassHectares[class]), barLeft+barWidth+8, y+rowHeight/2)
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save class area image: %v", err)
	}
	return nil
}
