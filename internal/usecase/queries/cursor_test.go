//go:build unit

package queries_test

import (
	"encoding/base64"
	"testing"
	"time"

	"approval-engine/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfterCursor(t *testing.T) {
	t.Run("マイクロ秒に丸めて往復できる", func(t *testing.T) {
		at := time.Date(2024, 1, 15, 10, 0, 0, 123456789, time.UTC)
		id := uuid.New()

		gotAt, gotID, err := queries.DecodeAfterCursor(queries.EncodeAfterCursor(at, id))

		require.NoError(t, err)
		assert.True(t, at.Truncate(time.Microsecond).Equal(gotAt), "got %s", gotAt)
		assert.Equal(t, id, gotID)
	})

	invalid := map[string]string{
		"空文字":      "",
		"base64でない": "%%%",
		"版が違う":     base64.URLEncoding.EncodeToString([]byte("v2:1-" + uuid.NewString())),
		"区切りが無い":   base64.URLEncoding.EncodeToString([]byte("v1:123")),
		"時刻が数値でない": base64.URLEncoding.EncodeToString([]byte("v1:abc-" + uuid.NewString())),
		"UUIDが不正":   base64.URLEncoding.EncodeToString([]byte("v1:123-nope")),
	}
	for name, cursor := range invalid {
		t.Run(name, func(t *testing.T) {
			_, _, err := queries.DecodeAfterCursor(cursor)
			assert.Error(t, err)
		})
	}
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, queries.DefaultListLimit, queries.ValidateLimit(0))
	assert.Equal(t, queries.DefaultListLimit, queries.ValidateLimit(-5))
	assert.Equal(t, 50, queries.ValidateLimit(50))
	assert.Equal(t, queries.MaxListLimit, queries.ValidateLimit(queries.MaxListLimit+1))
}
