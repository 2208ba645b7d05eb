package graphcut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRun3x3LatticeIsolatesCorner exercises spec.md §8 scenario 3: terminal
// capacities source->(0,0)=10, (2,2)->sink=10, inter-node capacities 1 except
// every edge touching (1,1) which is 0. The min-cut value is 2, isolating
// {(0,0)} from {(2,2)}.
func TestRun3x3LatticeIsolatesCorner(t *testing.T) {
	g := New([]int{3, 3})

	node := func(x, y int) int { return g.NodeAt(x, y) }

	g.SetTerminalCapacity(node(0, 0), 10, 0)
	g.SetTerminalCapacity(node(2, 2), 0, 10)

	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			p := node(x, y)
			if x+1 < 3 {
				q := node(x+1, y)
				cap := 1.0
				if x == 1 || x+1 == 1 {
					if y == 1 {
						cap = 0
					}
				}
				g.SetEdgeCapacity(p, q, cap)
			}
			if y+1 < 3 {
				q := node(x, y+1)
				cap := 1.0
				if y == 1 || y+1 == 1 {
					if x == 1 {
						cap = 0
					}
				}
				g.SetEdgeCapacity(p, q, cap)
			}
		}
	}
	// Every edge incident to (1,1) is 0, regardless of direction.
	for _, n := range []int{node(0, 1), node(2, 1), node(1, 0), node(1, 2)} {
		g.SetEdgeCapacity(node(1, 1), n, 0)
	}

	flow := g.Run()
	assert.InDelta(t, 2.0, flow, 1e-9)

	assert.True(t, g.IsSourceSide(node(0, 0)))
	assert.False(t, g.IsSourceSide(node(2, 2)))
}

func TestRunSatisfiesInvariants(t *testing.T) {
	g := New([]int{3, 3})
	node := func(x, y int) int { return g.NodeAt(x, y) }
	g.SetTerminalCapacity(node(0, 0), 10, 0)
	g.SetTerminalCapacity(node(2, 2), 0, 10)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			p := node(x, y)
			if x+1 < 3 {
				g.SetEdgeCapacity(p, node(x+1, y), 1)
			}
			if y+1 < 3 {
				g.SetEdgeCapacity(p, node(x, y+1), 1)
			}
		}
	}

	total := g.Run()
	require.GreaterOrEqual(t, total, 0.0)

	require.Empty(t, g.orphanQueue)
	require.False(t, g.grow())

	for n := 0; n < g.NumNodes(); n++ {
		assert.False(t, g.active[n] && g.set[n] == Free, "node %d is both active and free", n)
	}
}

// TestRunDisconnectedSourceNeverReachesSink covers a lattice where source and
// sink capacities exist but every inter-node edge is zero: no augmenting path
// can ever form, so the algorithm must converge with zero flow instead of
// looping forever.
func TestRunDisconnectedSourceNeverReachesSink(t *testing.T) {
	g := New([]int{2, 2})
	node := func(x, y int) int { return g.NodeAt(x, y) }
	g.SetTerminalCapacity(node(0, 0), 5, 0)
	g.SetTerminalCapacity(node(1, 1), 0, 5)

	flow := g.Run()
	assert.Equal(t, 0.0, flow)
	assert.True(t, g.IsSourceSide(node(0, 0)))
	assert.False(t, g.IsSourceSide(node(1, 1)))
}

func TestEdgeCapacitiesRejectNonAdjacentNodes(t *testing.T) {
	g := New([]int{3, 3})
	assert.Panics(t, func() {
		g.SetEdgeCapacity(g.NodeAt(0, 0), g.NodeAt(2, 2), 1)
	})
}
