//go:build unit

package approval_test

import (
	"errors"
	"testing"
	"time"

	"approval-engine/internal/domain/approval"
	"approval-engine/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var e *approval.Error
	require.True(t, errors.As(err, &e), "expected *approval.Error, got %T", err)
	return e.Fields
}

func TestNewRequest(t *testing.T) {
	t.Run("基本成功ケース", func(t *testing.T) {
		b := builder.NewRequestBuilder()

		req, err := b.BuildDomain()
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, req.ID())
		assert.Equal(t, approval.StatePending, req.State())
		assert.Equal(t, approval.DisplayStatusDisplayed, req.DisplayStatus())
		assert.Equal(t, approval.ScopeSystem, req.AccessScope())
		assert.Equal(t, b.RequestUserID, req.RequestUserID())
		assert.Equal(t, b.Now, req.RequestedAt())
		assert.Nil(t, req.RespondUserID())
		assert.Nil(t, req.ExecutedAt())
		assert.True(t, req.IsNew())
		require.Len(t, req.Items(), 1)
		require.Len(t, req.Comments(), 1)
		assert.Equal(t, req.ID(), req.Comments()[0].RequestID())
		assert.Equal(t, "rename after marriage", req.InitialComment().Content())
	})

	cases := []struct {
		name   string
		mutate func(*builder.RequestBuilder)
		field  string
	}{
		{
			name:   "アイテム無しNG",
			mutate: func(b *builder.RequestBuilder) { b.WithoutItems() },
			field:  "items",
		},
		{
			name:   "コメント無しNG",
			mutate: func(b *builder.RequestBuilder) { b.WithReason("") },
			field:  "comments",
		},
		{
			name:   "スコープ無しNG",
			mutate: func(b *builder.RequestBuilder) { b.WithScope("") },
			field:  "access_scope",
		},
		{
			name:   "無効なスコープNG",
			mutate: func(b *builder.RequestBuilder) { b.WithScope("galaxy") },
			field:  "access_scope",
		},
		{
			name:   "無効なリクエスト種別NG",
			mutate: func(b *builder.RequestBuilder) { b.WithType("launch_rocket") },
			field:  "request_type",
		},
		{
			name:   "申請者無しNG",
			mutate: func(b *builder.RequestBuilder) { b.WithRequester(uuid.Nil).WithReason("") },
			field:  "request_user_id",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req, err := builder.NewRequestBuilder().With(c.mutate).BuildDomain()

			require.Nil(t, req)
			require.ErrorIs(t, err, approval.ErrValidation)
			assert.Contains(t, fieldsOf(t, err), c.field)
		})
	}

	t.Run("複数の検証エラーをまとめて返す", func(t *testing.T) {
		_, err := builder.NewRequestBuilder().WithoutItems().WithScope("").BuildDomain()

		require.ErrorIs(t, err, approval.ErrValidation)
		assert.ElementsMatch(t, []string{"access_scope", "items"}, fieldsOf(t, err))
	})
}

func TestNewRequest_Hierarchy(t *testing.T) {
	parent, err := builder.NewRequestBuilder().WithScope(approval.ScopeMerchant).BuildDomain()
	require.NoError(t, err)

	child, err := builder.NewRequestBuilder().
		WithScope(approval.ScopeSystem).
		WithParent(parent).
		WithUpdate("User", 7, map[string]any{"name": "Lin"}).
		BuildDomain()
	require.NoError(t, err)

	require.NotNil(t, child.ParentRequestID())
	assert.Equal(t, parent.ID(), *child.ParentRequestID())
	assert.Equal(t, approval.ScopeMerchant, child.AccessScope(), "child inherits the parent's scope")
	assert.True(t, child.HasParent())

	family, ok := approval.FamilyOf(child)
	require.True(t, ok)
	assert.Equal(t, approval.Family{ParentID: parent.ID(), MemberID: child.ID()}, family)

	_, ok = approval.FamilyOf(parent)
	assert.False(t, ok)
}

func TestRequest_Transitions(t *testing.T) {
	checker := uuid.New()

	t.Run("承認OK", func(t *testing.T) {
		req, err := builder.NewRequestBuilder().BuildPersisted(approval.StatePending, nil)
		require.NoError(t, err)

		require.NoError(t, req.Approve(checker))
		assert.Equal(t, approval.StateApproved, req.State())
		assert.Equal(t, approval.StatePending, req.PersistedState())
		require.NotNil(t, req.RespondUserID())
		assert.Equal(t, checker, *req.RespondUserID())

		req.MarkPersisted()
		assert.ErrorIs(t, req.Approve(checker), approval.ErrAlreadyPerformed)
		assert.ErrorIs(t, req.Reject(checker), approval.ErrAlreadyPerformed)
		assert.ErrorIs(t, req.Cancel(req.RequestUserID()), approval.ErrAlreadyPerformed)
	})

	t.Run("却下OK", func(t *testing.T) {
		req, err := builder.NewRequestBuilder().BuildPersisted(approval.StatePending, nil)
		require.NoError(t, err)

		require.NoError(t, req.Reject(checker))
		assert.Equal(t, approval.StateRejected, req.State())
		assert.Equal(t, checker, *req.RespondUserID())
	})

	t.Run("申請者による取消OK", func(t *testing.T) {
		req, err := builder.NewRequestBuilder().BuildPersisted(approval.StatePending, nil)
		require.NoError(t, err)

		require.NoError(t, req.Cancel(req.RequestUserID()))
		assert.Equal(t, approval.StateCancelled, req.State())
		assert.Equal(t, req.RequestUserID(), *req.RespondUserID())
	})

	t.Run("申請者以外の取消NG", func(t *testing.T) {
		req, err := builder.NewRequestBuilder().BuildPersisted(approval.StatePending, nil)
		require.NoError(t, err)

		err = req.Cancel(uuid.New())
		require.ErrorIs(t, err, approval.ErrAuthorization)
		assert.Equal(t, approval.StatePending, req.State())
		assert.Nil(t, req.RespondUserID())
	})

	for _, state := range []approval.State{approval.StateCancelled, approval.StateRejected, approval.StateExecuted} {
		t.Run("永続化済み"+state.String()+"からの遷移NG", func(t *testing.T) {
			req, err := builder.NewRequestBuilder().BuildPersisted(state, nil)
			require.NoError(t, err)

			kind, ok := approval.KindOf(req.Approve(checker))
			require.True(t, ok)
			assert.Equal(t, approval.KindAlreadyPerformed, kind)
			assert.ErrorIs(t, req.Reject(checker), approval.ErrAlreadyPerformed)
			assert.ErrorIs(t, req.Cancel(req.RequestUserID()), approval.ErrAlreadyPerformed)
			assert.ErrorIs(t, req.Execute(time.Now(), func(*approval.ActionItem) error { return nil }), approval.ErrAlreadyPerformed)
			assert.Equal(t, state, req.State())
		})
	}
}

func TestRequest_Execute(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	twoItems := builder.NewRequestBuilder().With(func(b *builder.RequestBuilder) {
		b.Items = append(b.Items, approval.ActionItemParams{
			Event:  approval.EventCreate,
			Target: approval.Target{Type: "User"},
			Params: map[string]any{"name": "Lin", "email": "lin@example.com"},
		})
	})

	t.Run("承認済みの実行OK", func(t *testing.T) {
		req, err := twoItems.BuildPersisted(approval.StateApproved, nil)
		require.NoError(t, err)

		var applied []approval.Event
		err = req.Execute(now, func(item *approval.ActionItem) error {
			applied = append(applied, item.Event())
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, []approval.Event{approval.EventUpdate, approval.EventCreate}, applied, "items run in order")
		assert.Equal(t, approval.StateExecuted, req.State())
		require.NotNil(t, req.ExecutedAt())
		assert.Equal(t, now, *req.ExecutedAt())
	})

	t.Run("途中失敗で状態は進まない", func(t *testing.T) {
		req, err := twoItems.BuildPersisted(approval.StateApproved, nil)
		require.NoError(t, err)

		boom := approval.NewUnexistResourceError("User", 42)
		calls := 0
		err = req.Execute(now, func(*approval.ActionItem) error {
			calls++
			return boom
		})
		require.ErrorIs(t, err, approval.ErrUnexistResource)

		assert.Equal(t, 1, calls, "items after the failure are never attempted")
		assert.Equal(t, approval.StateApproved, req.State())
		assert.Nil(t, req.ExecutedAt())
	})

	t.Run("未承認の実行NG", func(t *testing.T) {
		req, err := twoItems.BuildPersisted(approval.StatePending, nil)
		require.NoError(t, err)

		err = req.Execute(now, func(*approval.ActionItem) error { return nil })
		require.ErrorIs(t, err, approval.ErrValidation)
		assert.Equal(t, []string{"state"}, fieldsOf(t, err))
	})

	t.Run("承認と同時の実行OK", func(t *testing.T) {
		req, err := twoItems.BuildPersisted(approval.StatePending, nil)
		require.NoError(t, err)

		require.NoError(t, req.Approve(uuid.New()))
		require.NoError(t, req.Execute(now, func(*approval.ActionItem) error { return nil }))
		assert.Equal(t, approval.StateExecuted, req.State())
		assert.Equal(t, approval.StatePending, req.PersistedState())
	})
}

func TestRequest_UnsavedComments(t *testing.T) {
	req, err := builder.NewRequestBuilder().BuildPersisted(approval.StatePending, nil)
	require.NoError(t, err)
	assert.Empty(t, req.UnsavedComments())

	checker := uuid.New()
	c, err := approval.NewComment(checker, "looks fine", approval.DefaultCommentMaximum, time.Now())
	require.NoError(t, err)
	req.AddComment(c)

	unsaved := req.UnsavedComments()
	require.Len(t, unsaved, 1)
	assert.Equal(t, req.ID(), unsaved[0].RequestID())

	req.MarkPersisted()
	assert.Empty(t, req.UnsavedComments())
}

func TestRequest_SnapshotRoundTrip(t *testing.T) {
	req, err := builder.NewRequestBuilder().BuildDomain()
	require.NoError(t, err)

	restored := approval.FromSnapshot(req.Snapshot())

	assert.Equal(t, req.Snapshot(), restored.Snapshot())
	assert.False(t, restored.IsNew())
	assert.Equal(t, approval.StatePending, restored.PersistedState())
}
