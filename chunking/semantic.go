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


package chunking

import (
	"context"
	"strings"
	"time"

	"github.com/systemccg/flourisha-00-ai-brain-sub006/ai"
)

// DefaultDetectorTimeout bounds how long one boundary detection call may take
// before the chunker gives up and falls back.
const DefaultDetectorTimeout = 30 * time.Second

// SemanticChunker groups paragraphs into topical sections chosen by an
// ai.BoundaryDetector. Detection failures are never surfaced; the chunker
// falls back to deterministic paragraph chunking instead.
type SemanticChunker struct {
	detector ai.BoundaryDetector
	fallback *ParagraphChunker
	timeout  time.Duration
	cfg      config
}

var _ Chunker = (*SemanticChunker)(nil)

// WithDetectorTimeout sets the per-call deadline for boundary detection.
// Default is DefaultDetectorTimeout.
func WithDetectorTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.detectorTimeout = d
		return nil
	}
}

// NewSemanticChunker creates a chunker that asks detector where topics shift.
func NewSemanticChunker(detector ai.BoundaryDetector, opts ...Option) (*SemanticChunker, error) {
	if detector == nil {
		return nil, ErrDetectorRequired
	}

	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	timeout := cfg.detectorTimeout
	if timeout <= 0 {
		timeout = DefaultDetectorTimeout
	}

	return &SemanticChunker{
		detector: detector,
		fallback: &ParagraphChunker{cfg: cfg},
		timeout:  timeout,
		cfg:      cfg,
	}, nil
}

// Chunk splits text into chunks along detected topic boundaries.
func (s *SemanticChunker) Chunk(ctx context.Context, text string) ([]string, error) {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil, nil
	}
	if len(paragraphs) == 1 {
		return s.cfg.chunkFragments(paragraphs)
	}

	dctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	boundaries, err := s.detector.DetectBoundaries(dctx, paragraphs)
	if err != nil {
		s.cfg.logger.Warn("boundary detection failed, using paragraph fallback", "err", err)
		return s.fallback.Chunk(ctx, text)
	}

	return s.cfg.chunkFragments(groupSections(paragraphs, boundaries))
}

// groupSections joins the paragraphs between consecutive boundaries into one
// fragment each. Out-of-range or out-of-order boundary indexes are ignored.
func groupSections(paragraphs []string, boundaries []int) []string {
	sections := make([]string, 0, len(boundaries)+1)
	start := 0
	for _, b := range boundaries {
		if b <= start || b >= len(paragraphs) {
			continue
		}
		sections = append(sections, strings.Join(paragraphs[start:b], chunkSeparator))
		start = b
	}
	sections = append(sections, strings.Join(paragraphs[start:], chunkSeparator))
	return sections
}
