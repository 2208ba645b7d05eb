package ioformat

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/llgcode/draw2d/draw2dimg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/cmrcore/flow4d/pkg/plane"
	"github.com/cmrcore/flow4d/pkg/vec"
)

const (
	heatmapCellPx         = 8
	heatmapOutputWidthPx  = 640
	heatmapLegendHeightPx = 28
)

// WritePlaneHeatmap rasterizes one timestep of a measuring plane's per-cell
// |v| magnitude as a PNG heatmap with a min/max legend (spec.md §8 export
// surface: "export-plane-heatmap"). Cells are filled via draw2d, the legend
// text via freetype against the TrueType font golang.org/x/image ships
// in-module (gofont/goregular), and the whole raster is then scaled to a
// fixed output width via golang.org/x/image/draw.
func WritePlaneHeatmap(path string, p *plane.Plane, st *plane.Statistics, t int) error {
	cellsWidth := p.Nx * heatmapCellPx
	cellsHeight := p.Ny*heatmapCellPx + heatmapLegendHeightPx

	img := image.NewRGBA(image.Rect(0, 0, cellsWidth, cellsHeight))
	gc := draw2dimg.NewGraphicContext(img)
	gc.SetFillColor(color.RGBA{32, 32, 32, 255})
	gc.Clear()

	lo, hi := st.MinVelocity, st.MaxVelocity
	for y := 0; y < p.Ny; y++ {
		for x := 0; x < p.Nx; x++ {
			if !p.InMask(x, y) {
				continue
			}
			v := vec.Norm(p.FlowAt(x, y, t))
			x0, y0 := float64(x*heatmapCellPx), float64(y*heatmapCellPx)

			gc.SetFillColor(divergingColor(v-lo, 0, hi-lo))
			gc.BeginPath()
			gc.MoveTo(x0, y0)
			gc.LineTo(x0+heatmapCellPx, y0)
			gc.LineTo(x0+heatmapCellPx, y0+heatmapCellPx)
			gc.LineTo(x0, y0+heatmapCellPx)
			gc.Close()
			gc.Fill()
		}
	}

	label := fmt.Sprintf("t=%d  |v| in [%.1f, %.1f] mm/s", t, lo, hi)
	if err := drawLegendText(img, label, 4, p.Ny*heatmapCellPx+18); err != nil {
		return err
	}

	outHeight := heatmapOutputWidthPx * cellsHeight / cellsWidth
	out := image.NewRGBA(image.Rect(0, 0, heatmapOutputWidthPx, outHeight))
	draw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Over, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, out); err != nil {
		return err
	}
	return f.Close()
}

func drawLegendText(img *image.RGBA, s string, x, y int) error {
	fnt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(fnt)
	c.SetFontSize(14)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.NewUniform(color.White))
	_, err = c.DrawString(s, freetype.Pt(x, y))
	return err
}
