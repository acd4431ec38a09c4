// Copyright 2025 Hydra ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layer primitives the net builders assemble:
// linear, convolutional, recurrent and normalization layers,
// activations, containers and the weight initialization catalog.
package nn
