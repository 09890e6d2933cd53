//go:build unit

package approval_test

import (
	"testing"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/pkg/ptr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActionItem(t *testing.T) {
	cases := []struct {
		name   string
		params approval.ActionItemParams
		fields []string
	}{
		{
			name: "createはID無しでOK",
			params: approval.ActionItemParams{
				Event:  approval.EventCreate,
				Target: approval.Target{Type: "User"},
				Params: map[string]any{"name": "Ada"},
			},
		},
		{
			name: "updateはID必須",
			params: approval.ActionItemParams{
				Event:  approval.EventUpdate,
				Target: approval.Target{Type: "User"},
				Params: map[string]any{"name": "Ada"},
			},
			fields: []string{"target_id"},
		},
		{
			name: "updateはparams必須",
			params: approval.ActionItemParams{
				Event:  approval.EventUpdate,
				Target: approval.Target{Type: "User", ID: ptr.Of(int64(1))},
			},
			fields: []string{"params"},
		},
		{
			name: "destroyはID必須",
			params: approval.ActionItemParams{
				Event:  approval.EventDestroy,
				Target: approval.Target{Type: "Terminal"},
			},
			fields: []string{"target_id"},
		},
		{
			name: "performはID無しでもOK",
			params: approval.ActionItemParams{
				Event:         approval.EventPerform,
				Target:        approval.Target{Type: "User"},
				OperationName: "callback_lock",
			},
		},
		{
			name: "不明なイベントと種別無しNG",
			params: approval.ActionItemParams{
				Event: "explode",
			},
			fields: []string{"event", "target_type"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			item, err := approval.NewActionItem(c.params)

			if c.fields == nil {
				require.NoError(t, err)
				require.NotNil(t, item)
				return
			}
			require.Nil(t, item)
			require.ErrorIs(t, err, approval.ErrValidation)
			assert.ElementsMatch(t, c.fields, fieldsOf(t, err))
		})
	}
}

func TestActionItem_ResolveTarget(t *testing.T) {
	item, err := approval.NewActionItem(approval.ActionItemParams{
		Event:  approval.EventCreate,
		Target: approval.Target{Type: "User"},
		Params: map[string]any{"name": "Ada"},
	})
	require.NoError(t, err)
	assert.False(t, item.Target().HasID())
	assert.Equal(t, "User", item.Target().Key())

	item.ResolveTarget(99)

	require.NotNil(t, item.TargetID())
	assert.Equal(t, int64(99), *item.TargetID())
	assert.True(t, item.TargetResolved())
	assert.Equal(t, "User#99", item.Target().Key())
}

func TestActionItem_ParamsAreCopied(t *testing.T) {
	src := map[string]any{"name": "Ada"}
	item, err := approval.NewActionItem(approval.ActionItemParams{
		Event:  approval.EventUpdate,
		Target: approval.Target{Type: "User", ID: ptr.Of(int64(1))},
		Params: src,
	})
	require.NoError(t, err)

	src["name"] = "Eve"
	got := item.Params()
	got["email"] = "x@example.com"

	assert.Equal(t, map[string]any{"name": "Ada"}, item.Params())
}

func TestTarget_Equal(t *testing.T) {
	a := approval.Target{Type: "User", ID: ptr.Of(int64(42))}

	assert.True(t, a.Equal(approval.Target{Type: "User", ID: ptr.Of(int64(42))}))
	assert.False(t, a.Equal(approval.Target{Type: "User", ID: ptr.Of(int64(43))}))
	assert.False(t, a.Equal(approval.Target{Type: "Merchant", ID: ptr.Of(int64(42))}))
	assert.False(t, a.Equal(approval.Target{Type: "User"}))
}
