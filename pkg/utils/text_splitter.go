package utils

import "strings"

// SplitWords splits text into chunks of approximately chunkSize words with
// an overlap of words shared between adjacent chunks. Overlap preserves
// context across chunk boundaries for embedding.
func SplitWords(text string, chunkSize int, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	words := strings.Fields(text)

	var chunks []string
	start := 0
	for start < len(words) {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
		start = end - overlap
	}

	// Whitespace-only input still yields one chunk so the caller always
	// has something to index.
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
