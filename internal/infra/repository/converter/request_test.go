//go:build unit

package converter

import (
	"testing"
	"time"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemToDomain(t *testing.T) {
	tests := []struct {
		name        string
		row         ItemRow
		wantErr     bool
		wantParams  map[string]any
		wantOptions map[string]any
		wantID      *int64
	}{
		{
			name: "update with params",
			row: ItemRow{
				ID:         uuid.New(),
				Event:      "update",
				TargetType: "User",
				TargetID:   pgtype.Int8{Int64: 42, Valid: true},
				Params:     []byte(`{"name":"Ada"}`),
				Options:    []byte(`{}`),
			},
			wantParams: map[string]any{"name": "Ada"},
			wantID:     ptrInt64(42),
		},
		{
			name: "create without target id",
			row: ItemRow{
				ID:         uuid.New(),
				Event:      "create",
				TargetType: "User",
				Params:     []byte(`{"email":"a@example.com"}`),
			},
			wantParams: map[string]any{"email": "a@example.com"},
		},
		{
			name: "perform keeps its options",
			row: ItemRow{
				ID:            uuid.New(),
				Event:         "perform",
				TargetType:    "User",
				TargetID:      pgtype.Int8{Int64: 7, Valid: true},
				OperationName: "callback_change_email",
				Params:        []byte(`{}`),
				Options:       []byte(`{"email":"b@example.com"}`),
			},
			wantOptions: map[string]any{"email": "b@example.com"},
			wantID:      ptrInt64(7),
		},
		{
			name:    "corrupt params",
			row:     ItemRow{ID: uuid.New(), Event: "update", TargetType: "User", Params: []byte(`{`)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := ItemToDomain(tt.row)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.row.ID, item.ID())
			assert.Equal(t, approval.Event(tt.row.Event), item.Event())
			assert.Equal(t, tt.row.OperationName, item.OperationName())
			assert.Equal(t, orEmpty(tt.wantParams), item.Params())
			assert.Equal(t, orEmpty(tt.wantOptions), item.Options())
			assert.Equal(t, tt.wantID, item.TargetID())
		})
	}
}

func TestRequestToDomain(t *testing.T) {
	requestedAt := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	responder := uuid.New()
	row := RequestRow{
		ID:            uuid.New(),
		RequestType:   "lock_user",
		AccessScope:   "system",
		State:         approval.StateRejected.Code(),
		DisplayStatus: approval.DisplayStatusHidden.Code(),
		RequestUserID: uuid.New(),
		RespondUserID: pgconv.UUIDToPgtype(responder),
		RequestedAt:   pgconv.TimeToPgtype(requestedAt),
	}

	t.Run("success", func(t *testing.T) {
		req, err := RequestToDomain(row, nil, nil)

		require.NoError(t, err)
		assert.Equal(t, approval.RequestTypeLockUser, req.RequestType())
		assert.Equal(t, approval.StateRejected, req.State())
		assert.Equal(t, approval.StateRejected, req.PersistedState())
		assert.Equal(t, approval.DisplayStatusHidden, req.DisplayStatus())
		assert.Equal(t, &responder, req.RespondUserID())
		assert.Nil(t, req.ParentRequestID())
		assert.Nil(t, req.ExecutedAt())
		assert.True(t, requestedAt.Equal(req.RequestedAt()))
	})

	t.Run("unknown state code", func(t *testing.T) {
		bad := row
		bad.State = 99

		_, err := RequestToDomain(bad, nil, nil)

		assert.Error(t, err)
	})

	t.Run("unknown display status code", func(t *testing.T) {
		bad := row
		bad.DisplayStatus = 99

		_, err := RequestToDomain(bad, nil, nil)

		assert.Error(t, err)
	})
}

func TestEncodeMap(t *testing.T) {
	raw, err := EncodeMap(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))

	raw, err = EncodeMap(map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, string(raw))

	decoded, err := decodeMap([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func ptrInt64(v int64) *int64 { return &v }

// items hand out an empty map for absent params and options
func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
