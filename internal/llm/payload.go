package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status classifies the outcome of extracting a JSON payload from model output.
type Status int

const (
	// Parsed means a syntactically valid JSON object was found.
	Parsed Status = iota
	// Empty means the response contained no JSON object at all.
	Empty
	// Malformed means braces were found but the span between them is not
	// valid JSON.
	Malformed
)

func (s Status) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case Empty:
		return "empty"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Payload is the result of scanning model output for an embedded JSON object.
type Payload struct {
	Status Status
	// Raw holds the extracted JSON text when Status is Parsed, and the span
	// that failed to parse when Status is Malformed.
	Raw string
}

// Extract scans free-form model output for a JSON object. Models often wrap
// JSON in prose or markdown fences, so the scan takes everything between the
// first '{' and the last '}' in the response.
func Extract(response string) Payload {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start == -1 || end == -1 || end < start {
		return Payload{Status: Empty}
	}

	raw := response[start : end+1]
	if !json.Valid([]byte(raw)) {
		return Payload{Status: Malformed, Raw: raw}
	}

	return Payload{Status: Parsed, Raw: raw}
}

// Decode unmarshals a parsed payload into v. It is an error to decode a
// payload whose Status is not Parsed.
func (p Payload) Decode(v any) error {
	if p.Status != Parsed {
		return fmt.Errorf("cannot decode %s payload", p.Status)
	}
	if err := json.Unmarshal([]byte(p.Raw), v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}
