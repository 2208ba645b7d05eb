// Package ioformat exports analysis artifacts (meshes, centerlines,
// measuring-plane cross sections) to the on-disk formats a downstream
// viewer or CAD tool consumes.
//
// Grounded on the teacher's render/inp.go and render/hex8.go
// writeFE/writeHex8mesh: open-the-file, defer-close, propagate the first
// error idiom, generalized from the teacher's own hand-rolled ABAQUS/CalculiX
// text format to real third-party encoders per artifact (3MF, DXF, SVG, PNG)
// since spec.md's export surface targets formats with mature Go libraries
// rather than another bespoke text format.
package ioformat

import (
	"os"

	"github.com/hpinc/go3mf"

	"github.com/cmrcore/flow4d/pkg/mesh"
)

// WriteMesh3MF writes m as a single-object 3MF package to path (spec.md §8
// export surface: "export-mesh3mf").
func WriteMesh3MF(path string, m *mesh.TriangularMesh3D) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	vertices := make([]go3mf.Point3D, len(m.Points))
	for i, p := range m.Points {
		vertices[i] = go3mf.Point3D{float32(p.X), float32(p.Y), float32(p.Z)}
	}

	triangles := make([]go3mf.Triangle, len(m.Triangles))
	for i, t := range m.Triangles {
		triangles[i] = go3mf.Triangle{V1: t.A, V2: t.B, V3: t.C}
	}

	model := new(go3mf.Model)
	model.Resources.Objects = append(model.Resources.Objects, &go3mf.Object{
		ID: 1,
		Mesh: &go3mf.Mesh{
			Vertices:  go3mf.Vertices{Vertex: vertices},
			Triangles: go3mf.Triangles{Triangle: triangles},
		},
	})
	model.Build.Items = append(model.Build.Items, &go3mf.Item{ObjectID: 1})

	enc := go3mf.NewEncoder(f)
	if err := enc.Encode(model); err != nil {
		return err
	}
	return f.Close()
}
