package utils

import (
	"strings"
	"testing"
)

func TestSplitWords(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		chunkSize  int
		overlap    int
		wantChunks int
	}{
		{
			name:       "empty text falls back to whole input",
			text:       "",
			chunkSize:  500,
			overlap:    50,
			wantChunks: 1,
		},
		{
			name:       "short text fits in one chunk",
			text:       "hello world from sphere",
			chunkSize:  500,
			overlap:    50,
			wantChunks: 1,
		},
		{
			name:       "exact chunk size",
			text:       strings.Repeat("word ", 10),
			chunkSize:  10,
			overlap:    2,
			wantChunks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitWords(tt.text, tt.chunkSize, tt.overlap)
			if len(got) != tt.wantChunks {
				t.Errorf("chunk count = %d, want %d", len(got), tt.wantChunks)
			}
		})
	}
}

func TestSplitWordsOverlap(t *testing.T) {
	words := make([]string, 25)
	for i := range words {
		words[i] = "w" + strings.Repeat("x", i%3)
	}
	text := strings.Join(words, " ")

	chunks := SplitWords(text, 10, 3)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Each consecutive pair must share the overlap words.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		tail := prev[len(prev)-3:]
		head := cur[:3]
		for j := range tail {
			if tail[j] != head[j] {
				t.Errorf("chunk %d overlap mismatch: tail %v, head %v", i, tail, head)
				break
			}
		}
	}

	// No word may be lost.
	last := strings.Fields(chunks[len(chunks)-1])
	if last[len(last)-1] != words[len(words)-1] {
		t.Errorf("last word = %q, want %q", last[len(last)-1], words[len(words)-1])
	}
}

func TestSplitWordsWhitespaceOnly(t *testing.T) {
	chunks := SplitWords("   \n\t  ", 500, 50)
	if len(chunks) != 1 {
		t.Fatalf("chunk count = %d, want 1", len(chunks))
	}
}
