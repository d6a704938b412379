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


package storage

import (
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocumentVersion serializes a DocumentVersion to bytes.
func MarshalDocumentVersion(version *core.DocumentVersion) []byte {
	buf := make([]byte, core.DocumentVersionMUS.Size(*version))
	core.DocumentVersionMUS.Marshal(*version, buf)
	return buf
}

// UnmarshalDocumentVersion deserializes a DocumentVersion from bytes.
func UnmarshalDocumentVersion(data []byte) (*core.DocumentVersion, error) {
	version, _, err := core.DocumentVersionMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalQueueEntry serializes a QueueEntry to bytes.
func MarshalQueueEntry(entry *core.QueueEntry) []byte {
	buf := make([]byte, core.QueueEntryMUS.Size(*entry))
	core.QueueEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalQueueEntry deserializes a QueueEntry from bytes.
func UnmarshalQueueEntry(data []byte) (*core.QueueEntry, error) {
	entry, _, err := core.QueueEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalArchiveRecord serializes an ArchiveRecord to bytes.
func MarshalArchiveRecord(record *core.ArchiveRecord) []byte {
	buf := make([]byte, core.ArchiveRecordMUS.Size(*record))
	core.ArchiveRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalArchiveRecord deserializes an ArchiveRecord from bytes.
func UnmarshalArchiveRecord(data []byte) (*core.ArchiveRecord, error) {
	record, _, err := core.ArchiveRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalStageProgress serializes a StageProgress to bytes.
func MarshalStageProgress(progress *core.StageProgress) []byte {
	buf := make([]byte, core.StageProgressMUS.Size(*progress))
	core.StageProgressMUS.Marshal(*progress, buf)
	return buf
}

// UnmarshalStageProgress deserializes a StageProgress from bytes.
func UnmarshalStageProgress(data []byte) (*core.StageProgress, error) {
	progress, _, err := core.StageProgressMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// MarshalEpisode serializes an Episode to bytes.
func MarshalEpisode(ep *core.Episode) []byte {
	buf := make([]byte, core.EpisodeMUS.Size(*ep))
	core.EpisodeMUS.Marshal(*ep, buf)
	return buf
}

// UnmarshalEpisode deserializes an Episode from bytes.
func UnmarshalEpisode(data []byte) (*core.Episode, error) {
	ep, _, err := core.EpisodeMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &ep, nil
}

// MarshalEntity serializes an Entity to bytes.
func MarshalEntity(entity *core.Entity) []byte {
	buf := make([]byte, core.EntityMUS.Size(*entity))
	core.EntityMUS.Marshal(*entity, buf)
	return buf
}

// UnmarshalEntity deserializes an Entity from bytes.
func UnmarshalEntity(data []byte) (*core.Entity, error) {
	entity, _, err := core.EntityMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// MarshalRelation serializes a Relation to bytes.
func MarshalRelation(relation *core.Relation) []byte {
	buf := make([]byte, core.RelationMUS.Size(*relation))
	core.RelationMUS.Marshal(*relation, buf)
	return buf
}

// UnmarshalRelation deserializes a Relation from bytes.
func UnmarshalRelation(data []byte) (*core.Relation, error) {
	relation, _, err := core.RelationMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &relation, nil
}
