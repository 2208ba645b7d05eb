package workerpool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelForVisitsEveryIndexExactlyOnce(t *testing.T) {
	p := New(4)
	defer p.Close()

	const n = 2501
	var counts [n]int32
	p.ParallelFor(n, func(i int) {
		atomic.AddInt32(&counts[i], 1)
	})

	for i, c := range counts {
		assert.Equal(t, int32(1), c, "index %d", i)
	}
}

func TestParallelForEmptyRangeIsNoOp(t *testing.T) {
	p := New(2)
	defer p.Close()

	called := false
	p.ParallelFor(0, func(i int) { called = true })
	assert.False(t, called)
}

func TestParallelForSumsCorrectly(t *testing.T) {
	p := New(8)
	defer p.Close()

	const n = 1000
	var total int64
	p.ParallelFor(n, func(i int) {
		atomic.AddInt64(&total, int64(i))
	})

	want := int64(0)
	for i := 0; i < n; i++ {
		want += int64(i)
	}
	assert.Equal(t, want, total)
}
