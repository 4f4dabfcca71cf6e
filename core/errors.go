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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyID indicates a document has no identifier.
	ErrEmptyID = errors.New("document ID is empty")

	// ErrEmptyFilename indicates a document has no filename.
	ErrEmptyFilename = errors.New("document filename is empty")

	// ErrFilenameNotBase indicates a filename still carries path separators.
	ErrFilenameNotBase = errors.New("document filename must be a base name")

	// ErrVectorLength indicates a vector does not match the declared dimensionality.
	ErrVectorLength = errors.New("vector length does not match index dimensionality")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)
