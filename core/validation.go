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

import (
	"fmt"
	"strings"
	"time"
)

// ValidateDocument validates a Document against the index contract.
//
// Validation rules:
//   - ID must not be empty
//   - Filename must not be empty and must be a base name (no path separators)
//   - Vector length must equal dims; a mismatch is never truncated or padded
//   - Timestamp must not be in the future
func ValidateDocument(doc *Document, dims int) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyID)
	}

	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}

	if strings.ContainsAny(doc.Filename, `/\`) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDocument, ErrFilenameNotBase, doc.Filename)
	}

	if len(doc.Vector) != dims {
		return fmt.Errorf("%w: %w: expected %d, got %d",
			ErrInvalidDocument, ErrVectorLength, dims, len(doc.Vector))
	}

	if !IsValidTimestamp(doc.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
