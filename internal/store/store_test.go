package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_EncodeDecodeRoundTrip(t *testing.T) {
	c := Cursor{OrderedKey: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), ID: uuid.New()}
	encoded := c.Encode()
	assert.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.True(t, decoded.OrderedKey.Equal(c.OrderedKey))
	assert.Equal(t, c.ID, decoded.ID)
}

func TestDecodeCursor_Empty(t *testing.T) {
	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Equal(t, Cursor{}, decoded)
}

func TestDecodeCursor_Malformed(t *testing.T) {
	_, err := DecodeCursor("not-valid-base64!!")
	assert.Error(t, err)

	validB64NoColon := "aGVsbG8=" // "hello", no ':' separator
	_, err = DecodeCursor(validB64NoColon)
	assert.Error(t, err)
}

func TestPageRequest_NormalizedSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, PageRequest{}.normalizedSize())
	assert.Equal(t, 50, PageRequest{PageSize: 50}.normalizedSize())
	assert.Equal(t, MaxPageSize, PageRequest{PageSize: MaxPageSize + 500}.normalizedSize())
}
