package cpu

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"

	"github.com/hydra-ml/hydra/internal/tensor"
)

// matmulBlock is the cache-blocking factor for the matmul kernels, picked
// once at startup from the CPU's vector width so the inner loops stay in
// registers on AVX-capable machines.
var matmulBlock = func() int {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		return 128
	case cpuid.CPU.Supports(cpuid.AVX2):
		return 64
	default:
		return 32
	}
}()

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		matmulBlocked(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n)
	case tensor.Float64:
		matmulBlocked(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// matmulBlocked computes C[i,j] = sum_k A[i,k] * B[k,j] with cache
// blocking along k. The j loop over a contiguous row of B autovectorizes.
func matmulBlocked[T float32 | float64](c, a, b []T, m, k, n int) {
	for i := range c {
		c[i] = 0
	}

	for k0 := 0; k0 < k; k0 += matmulBlock {
		kEnd := min(k0+matmulBlock, k)
		for i := 0; i < m; i++ {
			cRow := c[i*n : (i+1)*n]
			for kIdx := k0; kIdx < kEnd; kIdx++ {
				aVal := a[i*k+kIdx]
				bRow := b[kIdx*n : (kIdx+1)*n]
				for j := range cRow {
					cRow[j] += aVal * bRow[j]
				}
			}
		}
	}
}
