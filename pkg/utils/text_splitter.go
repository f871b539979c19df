package utils

import "strings"

// Chunk is one slice of a split document. Start and End are rune offsets
// into the original text, kept so ingestion can record chunk positions.
type Chunk struct {
	Text  string
	Start int
	End   int
}

// chunkDelimiters are tried in order when looking for a natural break
// near the end of a chunk. Sentence boundaries first, then whitespace.
var chunkDelimiters = []string{". ", "! ", "? ", "\n\n", "\n", " "}

// SplitText splits a long string into chunks of approximately 'chunkSize'
// characters with 'overlap' characters of shared context at boundaries.
// Chunks prefer to break at a sentence or word boundary; when none is
// found the chunk is cut at the hard size limit. The start position is
// clamped to always advance, so the split terminates even when a chunk
// window contains no delimiter at all.
func SplitText(text string, chunkSize int, overlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	runes := []rune(text)
	totalLen := len(runes)

	if totalLen <= chunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []Chunk{{Text: trimmed, Start: 0, End: totalLen}}
	}

	var chunks []Chunk
	start := 0

	for start < totalLen {
		end := start + chunkSize

		if end < totalLen {
			// Back up to the nearest natural boundary inside the window
			if boundary, delimLen := lastDelimiter(runes, start, end); boundary != -1 {
				end = boundary + delimLen
			}
		} else {
			end = totalLen
		}

		chunkText := strings.TrimSpace(string(runes[start:end]))
		if chunkText != "" {
			chunks = append(chunks, Chunk{Text: chunkText, Start: start, End: end})
		}

		if end >= totalLen {
			break
		}

		next := end - overlap
		if next <= start {
			// Forward progress guarantee: a short boundary step must never
			// rewind behind the previous start
			next = start + 1
		}
		start = next
	}

	return chunks
}

// lastDelimiter finds the rightmost occurrence of any chunk delimiter in
// runes[start:end), trying delimiters in priority order. Returns the
// boundary rune index and the delimiter length, or (-1, 0) when none matches.
func lastDelimiter(runes []rune, start, end int) (int, int) {
	window := string(runes[start:end])
	for _, delim := range chunkDelimiters {
		if idx := strings.LastIndex(window, delim); idx != -1 {
			// Delimiters are ASCII-only, so map the byte index back to a
			// rune offset by counting runes in the prefix
			runeIdx := len([]rune(window[:idx]))
			return start + runeIdx, len(delim)
		}
	}
	return -1, 0
}
