package ioformat

import (
	"fmt"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/cmrcore/flow4d/pkg/plane"
)

const (
	planeSVGWidth  = 640
	planeSVGHeight = 240
	planeSVGMargin = 32
)

// WritePlaneSVG renders a measuring plane's flow_rate(t) curve as an SVG
// line chart (spec.md §8 export surface: "export-plane-svg"), one polyline
// across all computed timesteps plus a zero-flow reference line.
func WritePlaneSVG(path string, st *plane.Statistics) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	canvas := svg.New(f)
	canvas.Start(planeSVGWidth, planeSVGHeight)
	canvas.Rect(0, 0, planeSVGWidth, planeSVGHeight, "fill:#202020")

	n := len(st.FlowRatePerTime)
	if n == 0 {
		canvas.End()
		return f.Close()
	}

	lo, hi := st.FlowRatePerTime[0], st.FlowRatePerTime[0]
	for _, v := range st.FlowRatePerTime {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		hi = lo + 1
	}

	plotW := planeSVGWidth - 2*planeSVGMargin
	plotH := planeSVGHeight - 2*planeSVGMargin

	toXY := func(i int, v float64) (int, int) {
		x := planeSVGMargin
		if n > 1 {
			x += i * plotW / (n - 1)
		}
		y := planeSVGMargin + plotH - int((v-lo)/(hi-lo)*float64(plotH))
		return x, y
	}

	zeroX0, zeroY := toXY(0, 0)
	zeroX1, _ := toXY(n-1, 0)
	canvas.Line(zeroX0, zeroY, zeroX1, zeroY, "stroke:#606060;stroke-dasharray:4,4")

	xs := make([]int, n)
	ys := make([]int, n)
	for i, v := range st.FlowRatePerTime {
		xs[i], ys[i] = toXY(i, v)
	}
	canvas.Polyline(xs, ys, "fill:none;stroke:#e0c040;stroke-width:2")

	for i, v := range st.FlowRatePerTime {
		fill := divergingHexColor(v, lo, hi)
		canvas.Circle(xs[i], ys[i], 3, fmt.Sprintf("fill:%s;stroke:#101010", fill))
	}

	canvas.Text(planeSVGMargin, 16, fmt.Sprintf("flow_rate(t), %d steps, range [%.2f, %.2f] mm^3/ms", n, lo, hi),
		"fill:#ffffff;font-size:12px")
	canvas.End()
	return f.Close()
}
