package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	t.Run("plain JSON object", func(t *testing.T) {
		p := Extract(`{"name": "Alyosha"}`)
		assert.Equal(t, Parsed, p.Status)
		assert.Equal(t, `{"name": "Alyosha"}`, p.Raw)
	})

	t.Run("JSON wrapped in prose", func(t *testing.T) {
		response := "Here is the analysis you asked for:\n\n" +
			`{"themes": ["faith", "doubt"]}` +
			"\n\nLet me know if you need more."
		p := Extract(response)
		require.Equal(t, Parsed, p.Status)
		assert.Equal(t, `{"themes": ["faith", "doubt"]}`, p.Raw)
	})

	t.Run("JSON in markdown fence", func(t *testing.T) {
		response := "```json\n{\"emotion\": \"anguished\"}\n```"
		p := Extract(response)
		require.Equal(t, Parsed, p.Status)
		assert.Equal(t, `{"emotion": "anguished"}`, p.Raw)
	})

	t.Run("nested objects take the outermost span", func(t *testing.T) {
		response := `text {"outer": {"inner": 1}} trailing`
		p := Extract(response)
		require.Equal(t, Parsed, p.Status)
		assert.Equal(t, `{"outer": {"inner": 1}}`, p.Raw)
	})

	t.Run("no braces", func(t *testing.T) {
		p := Extract("I cannot produce JSON for this passage.")
		assert.Equal(t, Empty, p.Status)
		assert.Empty(t, p.Raw)
	})

	t.Run("empty response", func(t *testing.T) {
		p := Extract("")
		assert.Equal(t, Empty, p.Status)
	})

	t.Run("closing brace before opening brace", func(t *testing.T) {
		p := Extract("} mismatched {")
		assert.Equal(t, Empty, p.Status)
	})

	t.Run("invalid JSON between braces", func(t *testing.T) {
		p := Extract(`{"name": "Mitya",}`)
		assert.Equal(t, Malformed, p.Status)
		assert.Equal(t, `{"name": "Mitya",}`, p.Raw)
	})

	t.Run("truncated object", func(t *testing.T) {
		p := Extract(`{"scenes": [{"scene_id": }`)
		assert.Equal(t, Malformed, p.Status)
	})
}

func TestPayloadDecode(t *testing.T) {
	t.Run("decodes parsed payload", func(t *testing.T) {
		p := Extract(`{"speaker": "Ivan", "count": 3}`)
		require.Equal(t, Parsed, p.Status)

		var out struct {
			Speaker string `json:"speaker"`
			Count   int    `json:"count"`
		}
		err := p.Decode(&out)
		require.NoError(t, err)
		assert.Equal(t, "Ivan", out.Speaker)
		assert.Equal(t, 3, out.Count)
	})

	t.Run("refuses empty payload", func(t *testing.T) {
		p := Extract("no json here")
		var out map[string]any
		err := p.Decode(&out)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("refuses malformed payload", func(t *testing.T) {
		p := Extract(`{"broken": }`)
		var out map[string]any
		err := p.Decode(&out)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "malformed")
	})

	t.Run("type mismatch surfaces unmarshal error", func(t *testing.T) {
		p := Extract(`{"count": "not a number"}`)
		require.Equal(t, Parsed, p.Status)

		var out struct {
			Count int `json:"count"`
		}
		err := p.Decode(&out)
		assert.Error(t, err)
	})
}
