package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CleanJSONBlock strips markdown code fences and any preamble before the first
// JSON object or array.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// drop a language tag on the fence line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			tag := text[:idx]
			if len(tag) < 20 && !strings.ContainsAny(tag, " {[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if start := strings.IndexAny(text, "{["); start > 0 {
		text = text[start:]
	}
	return text
}

// DecodeJSON cleans an LLM response and unmarshals it into T.
func DecodeJSON[T any](text string) (*T, error) {
	var out T
	if err := json.Unmarshal([]byte(CleanJSONBlock(text)), &out); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}
	return &out, nil
}
