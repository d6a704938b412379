package chunking

import "context"

// ParagraphChunker splits text deterministically on blank-line paragraph
// boundaries, merging adjacent paragraphs forward until the ceiling.
type ParagraphChunker struct {
	cfg config
}

var _ Chunker = (*ParagraphChunker)(nil)

// NewParagraphChunker creates a deterministic paragraph chunker.
func NewParagraphChunker(opts ...Option) (*ParagraphChunker, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &ParagraphChunker{cfg: cfg}, nil
}

// Chunk splits text into chunks on paragraph boundaries.
func (p *ParagraphChunker) Chunk(ctx context.Context, text string) ([]string, error) {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil, nil
	}
	return p.cfg.chunkFragments(paragraphs)
}
