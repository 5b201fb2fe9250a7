package handler

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/statmon/internal/collector/storage"
)

// DecodeStatCursor parses a cursor produced by EncodeStatCursor.
// An empty string yields a nil cursor.
func DecodeStatCursor(cursorStr string) (*storage.StatCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	receivedAt, id, ok := strings.Cut(string(decoded), "|")
	if !ok || id == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	nanos, err := strconv.ParseInt(receivedAt, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid receivedAt in cursor: %w", err)
	}

	return &storage.StatCursor{
		ReceivedAt: time.Unix(0, nanos).UTC(),
		ID:         id,
	}, nil
}

// EncodeStatCursor encodes the position after the given row
func EncodeStatCursor(cursor *storage.StatCursor) string {
	cs := fmt.Sprintf("%d|%s", cursor.ReceivedAt.UnixNano(), cursor.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(cs))
}
