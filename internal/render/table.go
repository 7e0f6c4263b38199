// Package render draws a normalized schedule as a PNG table: one row per
// group, one column per unit, blackout cells filled black.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/svitlobot/blackout-notify/internal/schedule"
)

// Table geometry, matching the legacy generator.
const (
	cellWidth      = 40
	cellHeight     = 50
	headerHeight   = 60
	groupColWidth  = 80
	borderWidth    = 2
	titleY         = 10
	bottomPadding  = 10
	halfHourlyCell = 20
)

// Table renders schedule tables. FontPath points at a TTF for the labels;
// when empty or unloadable the renderer falls back to the builtin bitmap
// face.
type Table struct {
	FontPath string
}

// NewTable creates a renderer.
func NewTable(fontPath string) *Table {
	return &Table{FontPath: fontPath}
}

// Render draws the rows for the given groups (all schedule groups, sorted,
// when groups is empty) and writes the PNG to outPath.
func (t *Table) Render(s schedule.Schedule, groups []string, outPath string) error {
	if len(groups) == 0 {
		for g := range s.Groups {
			groups = append(groups, g)
		}
		sort.Strings(groups)
	}
	if len(groups) == 0 {
		return fmt.Errorf("render schedule: no groups to draw")
	}

	cellW := cellWidth
	if s.Units == schedule.UnitsHalfHourly {
		cellW = halfHourlyCell
	}
	width := groupColWidth + s.Units*cellW + borderWidth
	height := headerHeight + len(groups)*cellHeight + borderWidth + titleY + bottomPadding

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	t.setFont(dc)

	// Title: the supplier's display timestamp.
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(s.LastUpdated, float64(width)/2, titleY+10, 0.5, 0.5)

	// Unit headers, labeled by hour.
	unitsPerHour := s.Units / schedule.UnitsHourly
	for i := 0; i < s.Units; i += unitsPerHour {
		x := float64(groupColWidth + i*cellW + cellW*unitsPerHour/2)
		y := float64(headerHeight - 30 + titleY)
		dc.DrawStringAnchored(fmt.Sprintf("%02d", i/unitsPerHour), x, y, 0.5, 0.5)
	}

	for row, group := range groups {
		yStart := float64(headerHeight + row*cellHeight)

		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(group, groupColWidth/2, yStart+cellHeight/2, 0.5, 0.5)

		mask := s.Groups[group].Mask
		if mask.Units == 0 {
			mask.Units = s.Units
		}
		for col := 0; col < s.Units; col++ {
			xStart := float64(groupColWidth + col*cellW)
			dc.DrawRectangle(xStart, yStart, float64(cellW), float64(cellHeight))
			if mask.Blackout(col) {
				dc.SetRGB(0, 0, 0)
			} else {
				dc.SetRGB(1, 1, 1)
			}
			dc.FillPreserve()
			dc.SetRGB(0.5, 0.5, 0.5)
			dc.SetLineWidth(1)
			dc.Stroke()
		}
	}

	// Header separator and outer border.
	dc.SetRGB(0.5, 0.5, 0.5)
	dc.SetLineWidth(2)
	dc.DrawLine(0, headerHeight, float64(width), headerHeight)
	dc.Stroke()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(borderWidth)
	dc.DrawRectangle(0, 0, float64(width-1), float64(height-1))
	dc.Stroke()

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := dc.SavePNG(outPath); err != nil {
		return fmt.Errorf("save schedule table: %w", err)
	}
	return nil
}

func (t *Table) setFont(dc *gg.Context) {
	if t.FontPath != "" {
		if err := dc.LoadFontFace(t.FontPath, 16); err == nil {
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}
