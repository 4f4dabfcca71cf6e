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


package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrRepositoryRequired is returned when a document repository is not provided.
	ErrRepositoryRequired = errors.New("document repository required")

	// ErrGatewayRequired is returned when an embedding gateway is not provided.
	ErrGatewayRequired = errors.New("embedding gateway required")

	// ErrDecode is returned when payload bytes are not valid UTF-8 text.
	ErrDecode = errors.New("payload is not valid UTF-8 text")

	// ErrEmptyName is returned when the source name is empty.
	ErrEmptyName = errors.New("source name is empty")
)

// Stage identifies the pipeline stage an ingestion failed in.
type Stage string

const (
	StageDecode Stage = "decode"
	StageEmbed  Stage = "embed"
	StageStore  Stage = "store"
)

// StageError wraps an error with the pipeline stage it occurred in, so a
// caller can tell a malformed payload from an embedding or storage failure.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingestion stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
