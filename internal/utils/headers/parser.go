package headers

import (
	"fmt"
	"net/http"
	"strings"
)

// reserved headers are set by the transport itself: cookies come from the session
// and the agent from --user-agent.
var reserved = map[string]bool{
	"Cookie":     true,
	"User-Agent": true,
}

// Parse converts header strings ("Key: Value") into a map with canonical keys
func Parse(h []string) (map[string]string, error) {
	m := make(map[string]string, len(h))
	for _, hdr := range h {
		key, value, ok := strings.Cut(hdr, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed header %q, expected \"Key: Value\"", hdr)
		}
		m[http.CanonicalHeaderKey(key)] = strings.TrimSpace(value)
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate rejects headers the transport owns
func Validate(m map[string]string) error {
	for key := range m {
		if reserved[http.CanonicalHeaderKey(key)] {
			return fmt.Errorf("header %s cannot be overridden", key)
		}
	}
	return nil
}
