package chat

import (
	"encoding/json"
)

// FallbackReply is shown when a webhook reply carries no usable text.
const FallbackReply = "Sorry, I couldn't process that."

// replyFields lists the reply fields in order of preference.
var replyFields = []string{"output", "response", "message"}

// NormalizeReply extracts the assistant text from a webhook reply. The reply
// may be an array of result objects (the first is used), a single object or
// a plain string. Object fields are read in the order output, response,
// message and the first non-empty string wins.
func NormalizeReply(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return FallbackReply
	}

	text := ""
	switch data := v.(type) {
	case []any:
		if len(data) > 0 {
			if obj, ok := data[0].(map[string]any); ok {
				text = pickField(obj)
			}
		}
	case map[string]any:
		text = pickField(data)
	case string:
		text = data
	}

	if text == "" {
		return FallbackReply
	}
	return text
}

func pickField(obj map[string]any) string {
	for _, name := range replyFields {
		if s, ok := obj[name].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
