package logger

import (
	"fmt"
	"log/slog"
)

// DefaultMaxValueLen is the default cap for payload attributes.
const DefaultMaxValueLen = 256

// payloadKeys are attribute keys that may carry whole serialized snapshots.
var payloadKeys = map[string]bool{
	"actual":   true,
	"expected": true,
	"value":    true,
	"content":  true,
	"styles":   true,
}

// truncatePayload shortens string payload attributes longer than maxLen.
func truncatePayload(a slog.Attr, maxLen int) slog.Attr {
	if !payloadKeys[a.Key] || a.Value.Kind() != slog.KindString {
		return a
	}
	s := a.Value.String()
	if len(s) <= maxLen {
		return a
	}
	return slog.String(a.Key, fmt.Sprintf("%s…(%d bytes)", s[:maxLen], len(s)))
}
