package chunker

import (
	"regexp"
	"strconv"
	"strings"
)

// Chunk is one retrievable passage of a document page.
type Chunk struct {
	ID   string
	Text string
	Page int
}

// SentenceChunker splits page text into sentence-based chunks with overlap,
// so neighboring chunks share trailing context.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	// The window must advance by at least one sentence per chunk.
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// ChunkPage splits one page of text. Chunk IDs embed the document ID,
// page number and chunk index so vector IDs stay unique per document.
func (c *SentenceChunker) ChunkPage(documentID string, page int, content string) []Chunk {
	sentences := c.splitter.FindAllString(content, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var chunks []Chunk
	i := 0
	idx := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, Chunk{
			ID:   documentID + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(idx),
			Text: strings.Join(sentences[i:end], " "),
			Page: page,
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		if i < 0 {
			i = 0
		}
		idx++
	}
	return chunks
}
