package chunker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChaptersFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chapters.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadChapters(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		path := writeChaptersFile(t, `[
			{"chapter_number": 1, "chapter_title": "One", "content": "text", "chunks": [{"text": "text", "token_count": 10}]}
		]`)

		chapters, err := LoadChapters(path)
		require.NoError(t, err)
		require.Len(t, chapters, 1)
		assert.Equal(t, 1, chapters[0].Number)
		assert.Equal(t, "One", chapters[0].Title)
		require.Len(t, chapters[0].Chunks, 1)
		assert.Equal(t, 10, chapters[0].Chunks[0].TokenCount)
	})

	t.Run("wrapper object", func(t *testing.T) {
		path := writeChaptersFile(t, `{"chapters": [{"chapter_number": 2, "content": "x"}]}`)

		chapters, err := LoadChapters(path)
		require.NoError(t, err)
		require.Len(t, chapters, 1)
		assert.Equal(t, 2, chapters[0].Number)
	})

	t.Run("wrapper without chapters", func(t *testing.T) {
		path := writeChaptersFile(t, `{"metadata": {}}`)

		_, err := LoadChapters(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadChapters(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeChaptersFile(t, "not json")

		_, err := LoadChapters(path)
		assert.Error(t, err)
	})
}
