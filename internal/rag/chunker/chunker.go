// Package chunker splits knowledge text into overlapping word windows sized
// for the embedding model. The approximate token count is the word count.
package chunker

import (
	"strings"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
)

// Split windows text into chunks of config.ChunkWindowWords words with
// config.ChunkOverlapWords words of overlap between neighbours. Text at or
// under the window size comes back as a single chunk, verbatim. The window
// slides until its start reaches the end of the text, so the final chunk may
// be shorter than a full window.
func Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if len(words) <= config.ChunkWindowWords {
		return []string{text}
	}

	step := config.ChunkWindowWords - config.ChunkOverlapWords
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + config.ChunkWindowWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
