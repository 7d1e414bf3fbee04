// Package pagination implements the opaque keyset cursors used by list
// endpoints. A cursor pins the (date, created_at) position of the last row
// served, so pages stay stable while new rows arrive.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// EncodeToken packs the keyset position into an opaque token.
func EncodeToken(date time.Time, createdAt time.Time) string {
	raw := date.Format(timeFormat) + "|" + createdAt.Format(timeFormat)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeToken unpacks a token produced by EncodeToken. Tokens from clients are
// untrusted input; any malformed token is rejected rather than interpreted.
func DecodeToken(token string) (time.Time, time.Time, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid pagination token: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid pagination token: missing separator")
	}
	date, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid pagination token: %w", err)
	}
	createdAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid pagination token: %w", err)
	}
	return date, createdAt, nil
}
