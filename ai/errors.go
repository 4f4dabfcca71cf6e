// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidDimensions is returned when the configured dimensionality is not positive.
	ErrInvalidDimensions = errors.New("dimensions must be greater than 0")

	// ErrDimensionMismatch indicates the embedding service returned a vector
	// whose length differs from the index dimensionality. This signals a
	// configuration error (wrong model vs. wrong index), not a transient
	// fault, so callers must not retry.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrSynthesis indicates the answer generation service failed.
	ErrSynthesis = errors.New("answer synthesis failed")
)

// DimensionError reports the expected and actual vector lengths of a failed
// dimensionality check. It unwraps to ErrDimensionMismatch.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Want, e.Got)
}

func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}
