package generation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DecodeReply parses the text of a model reply into generic JSON values.
// Markdown code fences around the JSON are tolerated; anything else that is
// not a single JSON value yields ErrInvalidResponse.
func DecodeReply(text string) (any, error) {
	body := stripFence(strings.TrimSpace(text))
	if body == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrInvalidResponse)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var reply any
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON reply: %v", ErrInvalidResponse, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON reply", ErrInvalidResponse)
	}
	return reply, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
