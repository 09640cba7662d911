package paper

import (
	"bytes"
	"encoding/json"
)

// Choices is the list of selectable answers for a question.
//
// The backend stores choices as a serialized string column, so the same
// field arrives either as a JSON array or as a string holding an encoded
// array. Decoding never fails: anything that is not a list of strings
// becomes an empty list and the question is treated as free text.
type Choices []string

// UnmarshalJSON implements json.Unmarshaler with fallback semantics.
func (c *Choices) UnmarshalJSON(data []byte) error {
	*c = ParseChoices(data)
	return nil
}

// MarshalJSON always encodes as an array, never null.
func (c Choices) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(c))
}

// ParseChoices decodes raw JSON into a list of choices. It accepts an array
// of strings or a string containing a JSON-encoded array of strings. Any
// other input, including null and malformed JSON, yields an empty list.
func ParseChoices(raw []byte) Choices {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Choices{}
	}

	switch raw[0] {
	case '[':
		return decodeList(raw)
	case '"':
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return Choices{}
		}
		inner := bytes.TrimSpace([]byte(encoded))
		if len(inner) == 0 || inner[0] != '[' {
			return Choices{}
		}
		return decodeList(inner)
	}
	return Choices{}
}

func decodeList(raw []byte) Choices {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return Choices{}
	}
	if list == nil {
		return Choices{}
	}
	return Choices(list)
}
