// Package smooth provides Taubin lambda/mu smoothing and binomial smoothing
// over arbitrary vector-like sequences (point lists, sequences of local
// coordinate frame matrices).
//
// Grounded on `original_source/include/bkAlgorithm/smooth.h`: the two-buffer
// alternation, the forced-odd kernel size, and the border-copy policy are
// carried over directly. Since Go has no operator overloading, the "+ - *"
// requirement of spec.md §4.5 is satisfied with an explicit Ops[T] table of
// functions rather than a constraint interface — vec.V3 and vec.Mat3 are
// plain structs with no arithmetic methods, so a functional vtable is the
// idiomatic substitute.
package smooth

// Ops supplies the vector-space operations a sequence element type T must
// support for smoothing: addition, subtraction, and scalar multiplication.
type Ops[T any] struct {
	Add   func(a, b T) T
	Sub   func(a, b T) T
	Scale func(f float64, v T) T
}

func (o Ops[T]) lerp(a, b T, t float64) T {
	return o.Add(a, o.Scale(t, o.Sub(b, a)))
}

// binomialWeights returns the kernel_size binomial coefficients C(ks-1, i)
// normalized to sum to 1.
func binomialWeights(ks int) []float64 {
	n := ks - 1
	coeffs := make([]float64, ks)
	coeffs[0] = 1
	for i := 1; i <= n; i++ {
		coeffs[i] = coeffs[i-1] * float64(n-i+1) / float64(i)
	}
	sum := 0.0
	for _, c := range coeffs {
		sum += c
	}
	for i := range coeffs {
		coeffs[i] /= sum
	}
	return coeffs
}

// forceOdd mirrors the C++ `ks = kernel_size + (kernel_size % 2 == 0 ? 1 : 0)`.
func forceOdd(kernelSize int) int {
	if kernelSize%2 == 0 {
		return kernelSize + 1
	}
	return kernelSize
}

// Binomial smooths points into a new slice (the input is not modified) using a
// symmetric binomial kernel of the given size, iterated `iterations` times.
// kernel_size < 2 or iterations == 0 is a documented no-op: the input is
// returned unchanged (spec.md §9 Open Question 3 / SPEC_FULL §12.3).
func Binomial[T any](points []T, ops Ops[T], iterations, kernelSize int) []T {
	out := make([]T, len(points))
	copy(out, points)

	if iterations == 0 || kernelSize < 2 || len(points) == 0 {
		return out
	}

	ks := forceOdd(kernelSize)
	half := ks / 2
	weights := binomialWeights(ks)

	bufA := make([]T, len(points))
	copy(bufA, points)
	bufB := make([]T, len(points))
	copy(bufB, points)

	src, dst := bufA, bufB
	n := len(points)
	for it := 0; it < iterations; it++ {
		for i := 0; i < n; i++ {
			if i < half || i >= n-half {
				dst[i] = src[i]
				continue
			}
			var acc T
			first := true
			for k := -half; k <= half; k++ {
				w := weights[k+half]
				term := ops.Scale(w, src[i+k])
				if first {
					acc = term
					first = false
				} else {
					acc = ops.Add(acc, term)
				}
			}
			dst[i] = acc
		}
		src, dst = dst, src
	}
	copy(out, src)
	return out
}

// LambdaMu applies Taubin lambda/mu smoothing: at each iteration every
// interior point moves toward its neighborhood mean (excluding itself) by
// lambda on even iterations and mu on odd iterations, suppressing shrinkage
// while denoising. kernel_size < 1, iterations == 0, or lambda == mu == 0 is
// a documented no-op.
func LambdaMu[T any](points []T, ops Ops[T], iterations, kernelSize int, lambda, mu float64) []T {
	out := make([]T, len(points))
	copy(out, points)

	if iterations == 0 || kernelSize < 1 || (lambda == 0 && mu == 0) || len(points) == 0 {
		return out
	}

	ks := forceOdd(kernelSize)
	half := ks / 2
	n := len(points)

	bufA := make([]T, n)
	copy(bufA, points)
	bufB := make([]T, n)
	copy(bufB, points)

	src, dst := bufA, bufB
	for it := 0; it < iterations; it++ {
		w := lambda
		if it%2 != 0 {
			w = mu
		}
		for i := 0; i < n; i++ {
			if i < half || i >= n-half {
				dst[i] = src[i]
				continue
			}
			var sum T
			first := true
			count := 0
			for k := -half; k <= half; k++ {
				if k == 0 {
					continue
				}
				if first {
					sum = src[i+k]
					first = false
				} else {
					sum = ops.Add(sum, src[i+k])
				}
				count++
			}
			mean := ops.Scale(1.0/float64(count), sum)
			dst[i] = ops.Add(src[i], ops.Scale(w, ops.Sub(mean, src[i])))
		}
		src, dst = dst, src
	}
	copy(out, src)
	return out
}
