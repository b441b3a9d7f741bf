package chunker

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadChapters reads extracted chapters from a JSON file. Both a bare
// chapter array and a wrapper object with a "chapters" field are
// accepted.
func LoadChapters(path string) ([]Chapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chapters file: %w", err)
	}

	var chapters []Chapter
	if err := json.Unmarshal(data, &chapters); err == nil {
		return chapters, nil
	}

	var wrapper struct {
		Chapters []Chapter `json:"chapters"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parse chapters file: %w", err)
	}
	if len(wrapper.Chapters) == 0 {
		return nil, fmt.Errorf("no chapters found in %s", path)
	}
	return wrapper.Chapters, nil
}
