// Package chunker splits extracted page text into overlapping fragments
// suitable for embedding and citation.
package chunker

import "github.com/teamdocs/rag-backend/internal/entity"

// overlap is the number of characters each fragment reaches back into the
// previous stride, preserving sentence continuity across hard cuts.
const overlap = 50

// Split cuts text into fragments of roughly size characters. Starting at
// offset 0 it advances in strides of size; every fragment except the first
// spans from max(0, offset-50) to offset+size, so consecutive fragments
// overlap by up to 50 characters. Boundaries are purely positional, with no
// word or sentence awareness.
//
// Split is deterministic: the same inputs always produce the same fragments.
// Empty text yields no fragments; text shorter than size yields exactly one.
// Offsets count characters (runes), never bytes, so multi-byte text is cut
// on character boundaries.
func Split(text string, size int) ([]string, error) {
	if size <= 0 {
		return nil, entity.ErrInvalidChunkSize
	}
	if len(text) == 0 {
		return nil, nil
	}

	runes := []rune(text)
	fragments := make([]string, 0, (len(runes)+size-1)/size)
	for offset := 0; offset < len(runes); offset += size {
		start := offset - overlap
		if start < 0 {
			start = 0
		}
		end := offset + size
		if end > len(runes) {
			end = len(runes)
		}
		fragments = append(fragments, string(runes[start:end]))
	}

	return fragments, nil
}
