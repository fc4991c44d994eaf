package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkPage_EmptyContent(t *testing.T) {
	c := NewSentenceChunker(5, 1)
	assert.Nil(t, c.ChunkPage("doc1", 1, "   "))
}

func TestChunkPage_NoSentenceTerminators(t *testing.T) {
	c := NewSentenceChunker(5, 1)
	chunks := c.ChunkPage("doc1", 1, "just a fragment without punctuation")
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a fragment without punctuation", chunks[0].Text)
	assert.Equal(t, "doc1:1:0", chunks[0].ID)
	assert.Equal(t, 1, chunks[0].Page)
}

func TestChunkPage_OverlapSharesSentences(t *testing.T) {
	c := NewSentenceChunker(2, 1)
	chunks := c.ChunkPage("doc1", 3, "One. Two. Three. Four.")
	require.Len(t, chunks, 3)
	assert.Equal(t, "One. Two.", chunks[0].Text)
	assert.Equal(t, "Two. Three.", chunks[1].Text)
	assert.Equal(t, "Three. Four.", chunks[2].Text)
	assert.Equal(t, "doc1:3:1", chunks[1].ID)
}

func TestChunkPage_OversizedOverlapStillAdvances(t *testing.T) {
	c := NewSentenceChunker(2, 5)
	chunks := c.ChunkPage("doc1", 1, "One. Two. Three.")
	require.Len(t, chunks, 2)
	assert.Equal(t, "One. Two.", chunks[0].Text)
	assert.Equal(t, "Two. Three.", chunks[1].Text)
}

func TestChunkPage_DefaultsOnBadConfig(t *testing.T) {
	c := NewSentenceChunker(0, -1)
	chunks := c.ChunkPage("doc1", 1, "A. B. C.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A. B. C.", chunks[0].Text)
}
