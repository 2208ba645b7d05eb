package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
}

func TestMedianOdd(t *testing.T) {
	assert.InDelta(t, 2.0, Median([]float64{3, 1, 2}), 1e-9)
}

func TestMedianEven(t *testing.T) {
	assert.InDelta(t, 2.5, Median([]float64{1, 2, 3, 4}), 1e-9)
}

func TestMinMax(t *testing.T) {
	min, max := MinMax([]float64{4, -2, 7, 0})
	assert.Equal(t, -2.0, min)
	assert.Equal(t, 7.0, max)
}

func TestOtsuConstantInputReturnsThatValue(t *testing.T) {
	assert.Equal(t, 5.0, Otsu([]float64{5, 5, 5}))
}

func TestOtsuSeparatesTwoClusters(t *testing.T) {
	values := make([]float64, 0, 200)
	for i := 0; i < 100; i++ {
		values = append(values, 0.0+float64(i)*0.001) // cluster near 0
	}
	for i := 0; i < 100; i++ {
		values = append(values, 10.0+float64(i)*0.001) // cluster near 10
	}
	threshold := Otsu(values)
	assert.Greater(t, threshold, 0.5)
	assert.Less(t, threshold, 9.5)
}
