package smooth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cmrcore/flow4d/pkg/vec"
)

func v3Ops() Ops[vec.V3] {
	return Ops[vec.V3]{Add: vec.V3Add, Sub: vec.V3Sub, Scale: vec.V3Scale}
}

func TestBinomialNoOpOnSmallKernel(t *testing.T) {
	pts := []vec.V3{vec.New(0, 0, 0), vec.New(1, 1, 1), vec.New(2, 2, 2)}
	out := Binomial(pts, v3Ops(), 10, 1)
	assert.Equal(t, pts, out)
}

func TestBinomialNoOpOnZeroIterations(t *testing.T) {
	pts := []vec.V3{vec.New(0, 0, 0), vec.New(5, 5, 5)}
	out := Binomial(pts, v3Ops(), 0, 5)
	assert.Equal(t, pts, out)
}

func TestBinomialPreservesBorders(t *testing.T) {
	pts := make([]vec.V3, 20)
	for i := range pts {
		pts[i] = vec.New(float64(i), 0, 0)
	}
	out := Binomial(pts, v3Ops(), 5, 5)
	assert.Equal(t, pts[0], out[0])
	assert.Equal(t, pts[1], out[1])
	assert.Equal(t, pts[len(pts)-1], out[len(pts)-1])
}

func TestBinomialSmoothsCollinearLineUnchanged(t *testing.T) {
	pts := make([]vec.V3, 20)
	for i := range pts {
		pts[i] = vec.New(float64(i), 0, 0)
	}
	out := Binomial(pts, v3Ops(), 5, 5)
	for i, p := range out {
		assert.InDelta(t, pts[i].X, p.X, 1e-9)
	}
}

func TestLambdaMuBumpRemoval(t *testing.T) {
	pts := make([]vec.V3, 100)
	for i := range pts {
		pts[i] = vec.New(float64(i), 0, 0)
	}
	pts[50].Y = 1.0 // single outlier

	out := LambdaMu(pts, v3Ops(), 50, 3, 0.5, -0.53)

	neighborMeanY := (out[49].Y + out[51].Y) / 2
	residual := out[50].Y - neighborMeanY
	if residual < 0 {
		residual = -residual
	}
	assert.Less(t, residual, 0.05)
}

func TestLambdaMuNoOpWhenWeightsZero(t *testing.T) {
	pts := []vec.V3{vec.New(0, 0, 0), vec.New(1, 1, 1), vec.New(2, 2, 2)}
	out := LambdaMu(pts, v3Ops(), 10, 3, 0, 0)
	assert.Equal(t, pts, out)
}

func TestLambdaMuMonotonicSecondDifferenceDecrease(t *testing.T) {
	pts := make([]vec.V3, 30)
	for i := range pts {
		pts[i] = vec.New(float64(i), 0, 0)
	}
	pts[15].Y = 3.0

	secondDiffSumSq := func(ps []vec.V3) float64 {
		sum := 0.0
		for i := 1; i < len(ps)-1; i++ {
			d := vec.Sub(vec.Add(ps[i-1], ps[i+1]), vec.Scale(2, ps[i]))
			n := vec.Norm(d)
			sum += n * n
		}
		return sum
	}

	before := secondDiffSumSq(pts)
	out := LambdaMu(pts, v3Ops(), 100, 3, 0.5, -0.53)
	after := secondDiffSumSq(out)

	assert.LessOrEqual(t, after, before)
}

func TestBinomialWeightsSumToOne(t *testing.T) {
	w := binomialWeights(5)
	sum := 0.0
	for _, x := range w {
		sum += x
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	// symmetric
	assert.InDelta(t, w[0], w[len(w)-1], 1e-9)
}
