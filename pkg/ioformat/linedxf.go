package ioformat

import (
	"fmt"

	"github.com/yofu/dxf"

	"github.com/cmrcore/flow4d/pkg/centerline"
)

// WriteCenterlineDXF writes every extracted line as a connected 3D polyline
// in its own DXF layer (spec.md §8 export surface: "export-line-dxf"), so a
// CAD viewer can overlay the centerlines on the source imaging geometry.
func WriteCenterlineDXF(path string, lines []centerline.Line3D) error {
	d := dxf.NewDrawing()
	for i, line := range lines {
		layer := fmt.Sprintf("centerline_%d", i)
		d.AddLayer(layer, dxf.DefaultColor, dxf.DefaultLineType, true)
		d.ChangeLayer(layer)
		for j := 0; j+1 < len(line.Points); j++ {
			a, b := line.Points[j], line.Points[j+1]
			d.Line(a.X, a.Y, a.Z, b.X, b.Y, b.Z)
		}
	}
	return d.SaveAs(path)
}
