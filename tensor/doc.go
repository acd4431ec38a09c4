// Copyright 2025 Hydra ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the type-safe tensor operations the Hydra
// builders compile against.
//
// Tensors are generic over their element type and backend:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Rand[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
//
// The Backend interface abstracts the compute device; the cpu package
// provides a pure Go implementation.
package tensor
