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
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultMinChars is the smallest size a non-final chunk may have.
	DefaultMinChars = 400

	// DefaultMaxChars is the hard upper bound on chunk size.
	DefaultMaxChars = 1000

	// chunkSeparator joins fragments that are merged into one chunk.
	chunkSeparator = "\n\n"
)

// Chunker splits document text into ordered chunks for embedding.
// Implementations must be safe for concurrent use.
type Chunker interface {
	// Chunk splits text into ordered chunks respecting the size bounds:
	// no chunk exceeds the maximum and only the final chunk may fall below
	// the minimum. Whitespace-only text yields zero chunks and no error.
	Chunk(ctx context.Context, text string) ([]string, error)
}

// config holds the sizing knobs shared by all chunkers.
type config struct {
	minChars        int
	maxChars        int
	detectorTimeout time.Duration
	splitter        textsplitter.RecursiveCharacter
	logger          *slog.Logger
}

// Option configures a chunker.
type Option func(*config) error

// WithBounds sets the chunk size bounds in characters.
// Defaults are DefaultMinChars and DefaultMaxChars.
func WithBounds(minChars, maxChars int) Option {
	return func(c *config) error {
		if minChars < 1 || maxChars < minChars {
			return ErrInvalidBounds
		}
		c.minChars = minChars
		c.maxChars = maxChars
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

func newConfig(opts ...Option) (config, error) {
	c := config{
		minChars: DefaultMinChars,
		maxChars: DefaultMaxChars,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return config{}, err
		}
	}

	// The splitter handles single runs longer than the ceiling, trying
	// sentence and word boundaries before cutting between characters.
	c.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.maxChars),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
	return c, nil
}

// chunkFragments packs ordered fragments into chunks within the bounds.
func (c *config) chunkFragments(fragments []string) ([]string, error) {
	chunks, err := c.pack(fragments)
	if err != nil {
		return nil, err
	}
	return c.mergeShort(chunks), nil
}

// pack greedily merges fragments forward until the next fragment would push
// the chunk past the ceiling. Oversized fragments are split first; the final
// piece stays in the buffer so following fragments can still merge into it.
func (c *config) pack(fragments []string) ([]string, error) {
	var chunks []string
	var buf string

	flush := func() {
		if buf != "" {
			chunks = append(chunks, buf)
			buf = ""
		}
	}

	for _, frag := range fragments {
		if runeLen(frag) > c.maxChars {
			flush()
			pieces, err := c.splitter.SplitText(frag)
			if err != nil {
				return nil, err
			}
			if len(pieces) == 0 {
				continue
			}
			chunks = append(chunks, pieces[:len(pieces)-1]...)
			buf = pieces[len(pieces)-1]
			continue
		}

		switch {
		case buf == "":
			buf = frag
		case runeLen(buf)+len(chunkSeparator)+runeLen(frag) <= c.maxChars:
			buf += chunkSeparator + frag
		default:
			flush()
			buf = frag
		}
	}
	flush()

	return chunks, nil
}

// mergeShort repairs undersized chunks by merging them into the following
// chunk, splitting the merged text when it exceeds the ceiling. Only the
// final chunk may remain below the floor.
func (c *config) mergeShort(chunks []string) []string {
	if len(chunks) < 2 {
		return chunks
	}

	result := make([]string, 0, len(chunks))
	i := 0
	for i < len(chunks) {
		cur := chunks[i]
		for runeLen(cur) < c.minChars && i+1 < len(chunks) {
			merged := cur + chunkSeparator + chunks[i+1]
			i++
			if runeLen(merged) <= c.maxChars {
				cur = merged
				continue
			}
			// Emit a full head and keep merging the tail forward.
			head, tail := c.splitAt(merged)
			result = append(result, head)
			cur = tail
		}
		result = append(result, cur)
		i++
	}
	return result
}

// splitAt cuts s so the head lands between the floor and the ceiling and the
// tail fits under the ceiling, preferring a whitespace boundary and falling
// back to a hard cut.
func (c *config) splitAt(s string) (head, tail string) {
	runes := []rune(s)

	lo := c.minChars
	if rem := len(runes) - c.maxChars; rem > lo {
		lo = rem
	}

	cut := c.maxChars
	for j := c.maxChars; j > lo; j-- {
		if unicode.IsSpace(runes[j]) {
			cut = j
			break
		}
	}

	head = strings.TrimSpace(string(runes[:cut]))
	tail = strings.TrimSpace(string(runes[cut:]))
	return head, tail
}

// splitParagraphs splits text on blank lines, trimming each paragraph and
// dropping empty ones. Returns nil for whitespace-only input.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var paragraphs []string
	var cur []string

	flush := func() {
		if len(cur) == 0 {
			return
		}
		p := strings.TrimSpace(strings.Join(cur, "\n"))
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
		cur = cur[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()

	return paragraphs
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
