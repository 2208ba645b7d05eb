package ioformat

import (
	"bufio"
	"os"

	"github.com/cmrcore/flow4d/pkg/graphcut"
)

// The graph-cut "cap-file" is a `cmd/flow4d`-only binary layout (spec.md §6
// names `graphcut --cap-file <path>` but leaves the file format to the
// implementation): u32 ndims, u32 dims[ndims], then one (f64 sourceCap, f64
// sinkCap) pair per node in row-major flat order, then u32 numEdges, then
// (u32 p, u32 q, f64 capPQ, f64 capQP) per grid-adjacent node pair.

// WriteGraphCutCapFile writes a lattice's terminal and edge capacities to
// path, for round-tripping through ReadGraphCutCapFile.
func WriteGraphCutCapFile(path string, dims []int, terminalCaps [][2]float64, edges []GraphCutEdgeCap) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeU32(w, uint32(len(dims))); err != nil {
		return err
	}
	for _, d := range dims {
		if err := writeU32(w, uint32(d)); err != nil {
			return err
		}
	}
	for _, c := range terminalCaps {
		if err := writeF64s(w, c[0], c[1]); err != nil {
			return err
		}
	}
	if err := writeU32(w, uint32(len(edges))); err != nil {
		return err
	}
	for _, e := range edges {
		if err := writeU32(w, uint32(e.P)); err != nil {
			return err
		}
		if err := writeU32(w, uint32(e.Q)); err != nil {
			return err
		}
		if err := writeF64s(w, e.CapPQ, e.CapQP); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// GraphCutEdgeCap is one directed-pair edge capacity record, p and q given
// as flat node indices into the lattice (spec.md §4.3's NodeAt ordering).
type GraphCutEdgeCap struct {
	P, Q         int
	CapPQ, CapQP float64
}

// ReadGraphCutCapFile builds a *graphcut.Graph from a cap-file written by
// WriteGraphCutCapFile.
func ReadGraphCutCapFile(path string) (*graphcut.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	ndims, err := readU32(r)
	if err != nil {
		return nil, err
	}
	dims := make([]int, ndims)
	n := 1
	for i := range dims {
		d, err := readU32(r)
		if err != nil {
			return nil, err
		}
		dims[i] = int(d)
		n *= int(d)
	}

	g := graphcut.New(dims)
	for node := 0; node < n; node++ {
		sourceCap, err := readF64(r)
		if err != nil {
			return nil, err
		}
		sinkCap, err := readF64(r)
		if err != nil {
			return nil, err
		}
		g.SetTerminalCapacity(node, sourceCap, sinkCap)
	}

	numEdges, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numEdges; i++ {
		p, err := readU32(r)
		if err != nil {
			return nil, err
		}
		q, err := readU32(r)
		if err != nil {
			return nil, err
		}
		capPQ, err := readF64(r)
		if err != nil {
			return nil, err
		}
		capQP, err := readF64(r)
		if err != nil {
			return nil, err
		}
		g.SetEdgeCapacities(int(p), int(q), capPQ, capQP)
	}
	return g, nil
}
