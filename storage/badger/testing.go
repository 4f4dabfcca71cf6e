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


package badger

import "github.com/poiesic/logsight/storage"

// NewMemoryRepository creates an in-memory document repository with an
// in-memory text index for testing. Returns repo, backend, and error.
// Caller must close the repo and backend when done.
func NewMemoryRepository(dims int) (storage.DocumentRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	textIndex, err := NewMemoryTextIndex()
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	repo, err := NewDocumentRepository(backend, dims, WithTextIndex(textIndex))
	if err != nil {
		textIndex.Close()
		backend.Close()
		return nil, nil, err
	}

	return repo, backend, nil
}

// NewMemoryVectorRepository creates an in-memory document repository without a
// text index, for exercising vector-only deployments.
func NewMemoryVectorRepository(dims int) (storage.DocumentRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	repo, err := NewDocumentRepository(backend, dims)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return repo, backend, nil
}
