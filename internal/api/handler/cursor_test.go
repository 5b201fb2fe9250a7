package handler

import (
	"testing"
	"time"

	"github.com/cuongbtq/statmon/internal/collector/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatCursor_RoundTrip(t *testing.T) {
	want := &storage.StatCursor{
		ReceivedAt: time.Date(2026, 2, 3, 4, 5, 6, 789, time.UTC),
		ID:         "5b7a8f0e-3c1d-4f5e-8a9b-0c1d2e3f4a5b",
	}

	encoded := EncodeStatCursor(want)
	assert.NotContains(t, encoded, "=")

	got, err := DecodeStatCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.ReceivedAt.Equal(got.ReceivedAt))
}

func TestDecodeStatCursor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantNil bool
		wantErr string
	}{
		{name: "empty", input: "", wantNil: true},
		{name: "not base64", input: "***", wantErr: "invalid cursor encoding"},
		{name: "missing separator", input: "bm90LWEtY3Vyc29y", wantErr: "invalid cursor format"},
		{name: "bad timestamp", input: "YWJjfGlkLTE", wantErr: "invalid receivedAt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, err := DecodeStatCursor(tt.input)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, cursor)
			}
		})
	}
}
