package render

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"github.com/mnemoatlas/atlas-backend/internal/domain"
	"github.com/mnemoatlas/atlas-backend/internal/platform/logger"
)

// Preview renders a static PNG snapshot of a layout result: translucent L2
// domain discs underneath, L1 topic discs above, individual memories as
// small dots. It is a debugging artifact, not a viewer.
func Preview(layout domain.LayoutResult, size int, outPath string, log *logger.Logger) error {
	if size <= 0 {
		size = 2048
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	expand := func(p domain.Position) {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	for _, p := range layout.Positions.L2Clusters {
		expand(p)
	}
	for _, p := range layout.Positions.L1Clusters {
		expand(p)
	}
	for _, p := range layout.Positions.Memories {
		expand(p)
	}
	if math.IsInf(minX, 1) {
		return fmt.Errorf("render: layout has no positions")
	}

	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	const margin = 64.0
	scale := (float64(size) - 2*margin) / span
	toCanvas := func(p domain.Position) (float64, float64) {
		return margin + (p.X-minX)*scale, margin + (p.Y-minY)*scale
	}

	dc := gg.NewContext(size, size)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for key, p := range layout.Positions.L2Clusters {
		x, y := toCanvas(p)
		r := 18.0
		if info, ok := layout.Clusters.L2[key]; ok {
			r = math.Max(18, math.Sqrt(float64(info.TotalSize))*3)
		}
		dc.SetRGBA(0.2, 0.4, 0.8, 0.15)
		dc.DrawCircle(x, y, r)
		dc.Fill()
	}

	for key, p := range layout.Positions.L1Clusters {
		x, y := toCanvas(p)
		r := 6.0
		if info, ok := layout.Clusters.L1[key]; ok {
			r = math.Max(6, math.Sqrt(float64(info.Size))*2)
		}
		dc.SetRGBA(0.1, 0.6, 0.4, 0.5)
		dc.DrawCircle(x, y, r)
		dc.Fill()
	}

	dc.SetRGBA(0.1, 0.1, 0.1, 0.8)
	for _, p := range layout.Positions.Memories {
		x, y := toCanvas(p)
		dc.DrawCircle(x, y, 1.5)
		dc.Fill()
	}

	if err := dc.SavePNG(outPath); err != nil {
		return fmt.Errorf("render: save %s: %w", outPath, err)
	}
	if log != nil {
		log.Info("rendered layout preview", "path", outPath, "size", size)
	}
	return nil
}
