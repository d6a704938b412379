// Copyright 2026 SystemCCG
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

// Stores bundles every repository sharing one backend.
type Stores struct {
	Versions *VersionRepository
	Chunks   *ChunkRepository
	Queue    *QueueRepository
	Archive  *ArchiveRepository
	Progress *ProgressRepository
	Graph    *GraphRepository
	Backend  *Backend
}

// Close releases the repositories and the underlying backend.
func (s *Stores) Close() error {
	if err := s.Queue.Close(); err != nil {
		s.Backend.Close()
		return err
	}
	return s.Backend.Close()
}

// NewMemoryStores creates a full set of in-memory repositories for testing.
// Caller must close the returned stores when done.
func NewMemoryStores(queueOpts ...QueueOption) (*Stores, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	queueRepo, err := NewQueueRepository(backend, queueOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Stores{
		Versions: NewVersionRepository(backend),
		Chunks:   NewChunkRepository(backend),
		Queue:    queueRepo,
		Archive:  NewArchiveRepository(backend),
		Progress: NewProgressRepository(backend),
		Graph:    NewGraphRepository(backend),
		Backend:  backend,
	}, nil
}
