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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
	"github.com/systemccg/flourisha-00-ai-brain-sub006/graph"
)

// stage is one step of the ingestion chain. A stage whose done predicate
// reports true is skipped on retry. Every run must tolerate being replayed,
// because a crash can strike between the side effect and the progress
// write that records it.
type stage struct {
	name string
	done func(*core.StageProgress) bool
	run  func(ctx context.Context) error
}

// pipelineRun carries the state of one Process call across stages.
type pipelineRun struct {
	pipeline   *Pipeline
	item       *core.ContentItem
	version    int
	prog       *core.StageProgress
	chunkCount int
	logger     *slog.Logger
}

// stages returns the ordered chain: vector, then graph, then archive.
// Promotion happens after the chain, outside any stage.
func (r *pipelineRun) stages() []stage {
	return []stage{
		{
			name: "vector",
			done: func(p *core.StageProgress) bool { return p.VectorDone },
			run:  r.vectorStage,
		},
		{
			name: "graph",
			done: func(p *core.StageProgress) bool { return p.GraphDone },
			run:  r.graphStage,
		},
		{
			name: "archive",
			done: func(p *core.StageProgress) bool { return p.ArchiveDone },
			run:  r.archiveStage,
		},
	}
}

// vectorStage chunks the text, embeds every chunk and replaces the
// version's chunk set in one transaction. Empty text stores an empty set;
// the version and its episode still exist without vector entries.
func (r *pipelineRun) vectorStage(ctx context.Context) error {
	p := r.pipeline

	texts, err := p.chunker.Chunk(ctx, r.item.Text)
	if err != nil {
		return fmt.Errorf("chunking content: %w", err)
	}

	rows := make([]*core.Chunk, len(texts))
	if len(texts) > 0 {
		vectors, err := p.embedChunks(ctx, texts)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for i, text := range texts {
			rows[i] = &core.Chunk{
				TenantId:   r.item.TenantId,
				DocumentId: r.item.DocumentID(),
				Version:    r.version,
				Index:      i,
				Text:       text,
				Vector:     vectors[i],
				CreatedAt:  now,
			}
		}
	}

	if err := p.chunks.ReplaceChunks(ctx, r.item.TenantId, r.item.DocumentID(), r.version, rows); err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}
	if err := p.versions.SetChunkCount(ctx, r.item.TenantId, r.item.DocumentID(), r.version, len(rows)); err != nil {
		return fmt.Errorf("recording chunk count: %w", err)
	}

	r.chunkCount = len(rows)
	r.prog.VectorDone = true
	return nil
}

// graphStage submits the version's episode. The returned reference lands
// in the progress record before anything else runs, so a replayed entry
// cannot create a second episode.
func (r *pipelineRun) graphStage(ctx context.Context) error {
	ref, err := r.pipeline.backend.AddEpisode(ctx, r.buildEpisode())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGraphBackend, err)
	}

	r.prog.GraphDone = true
	r.prog.EpisodeRef = ref
	return nil
}

// buildEpisode shapes the graph submission: title, full text, and a
// deterministic summary cut from the normalized text.
func (r *pipelineRun) buildEpisode() *core.Episode {
	occurred := r.item.SubmittedAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	return &core.Episode{
		TenantId:   r.item.TenantId,
		DocumentId: r.item.DocumentID(),
		Version:    r.version,
		Name:       r.item.Title,
		Body:       r.item.Text,
		Summary:    graph.Snippet(core.NormalizeContent(r.item.Text), graph.SnippetRunes),
		Source:     r.item.SourceType,
		OccurredAt: occurred,
		CreatedAt:  time.Now().UTC(),
	}
}

// archiveStage stores the unmodified text with its metadata.
func (r *pipelineRun) archiveStage(ctx context.Context) error {
	metadata := make(map[string]string, len(r.item.Metadata)+1)
	for k, v := range r.item.Metadata {
		metadata[k] = v
	}
	metadata["chunk_count"] = strconv.Itoa(r.chunkCount)

	record := &core.ArchiveRecord{
		TenantId:   r.item.TenantId,
		DocumentId: r.item.DocumentID(),
		Version:    r.version,
		Title:      r.item.Title,
		Text:       r.item.Text,
		SourceType: r.item.SourceType,
		SourceId:   r.item.SourceId,
		ProjectId:  r.item.ProjectId,
		Metadata:   metadata,
		ArchivedAt: time.Now().UTC(),
	}
	if err := r.pipeline.archive.PutRecord(ctx, record); err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}

	r.prog.ArchiveDone = true
	return nil
}
