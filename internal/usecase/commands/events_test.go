//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"approval-engine/internal/domain/approval"
	"approval-engine/internal/pkg/clock"
	"approval-engine/internal/usecase/commands"
	"approval-engine/internal/usecase/shared"
	"approval-engine/tests/common/builder"
	commandsmock "approval-engine/tests/mock/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC)

	req, err := builder.NewRequestBuilder().BuildDomain()
	require.NoError(t, err)

	t.Run("通知の後に監査を記録する", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		notifier := commandsmock.NewMockNotifier(ctrl)
		hook := commandsmock.NewMockAuditHook(ctrl)

		gomock.InOrder(
			notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Do(func(_ context.Context, evt approval.Notification) {
				assert.Equal(t, approval.TopicRequestCreated, evt.Topic)
				assert.Equal(t, req.ID(), evt.Request.ID)
				assert.Equal(t, now, evt.OccurredAt)
				require.NotNil(t, evt.Comment)
				assert.Equal(t, evt.Comment, evt.Latest)
			}),
			hook.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, entry shared.AuditEntry) error {
				assert.Equal(t, req.ID(), entry.RequestID)
				assert.Equal(t, req.RequestUserID(), entry.ActorID)
				assert.Nil(t, entry.Before)
				assert.Equal(t, now, entry.RecordedAt)
				return nil
			}),
		)

		p := commands.NewEventPublisher(notifier, hook, clock.NewMockClock(now))
		p.Publish(ctx, approval.TopicRequestCreated, req, req.RequestUserID(), nil, nil)
	})

	t.Run("通知のパニックは握りつぶされ監査は続く", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		notifier := commandsmock.NewMockNotifier(ctrl)
		hook := commandsmock.NewMockAuditHook(ctrl)

		notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Do(func(context.Context, approval.Notification) {
			panic("mail relay down")
		})
		hook.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

		p := commands.NewEventPublisher(notifier, hook, clock.NewMockClock(now))
		assert.NotPanics(t, func() {
			p.Publish(ctx, approval.TopicRequestApproved, req, req.RequestUserID(), nil, nil)
		})
	})

	t.Run("監査の失敗は呼び出し元に伝わらない", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		hook := commandsmock.NewMockAuditHook(ctrl)
		hook.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		p := commands.NewEventPublisher(nil, hook, clock.NewMockClock(now))
		assert.NotPanics(t, func() {
			p.Publish(ctx, approval.TopicRequestRejected, req, req.RequestUserID(), nil, nil)
		})
	})

	t.Run("実行失敗イベントは原因を運ぶ", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		notifier := commandsmock.NewMockNotifier(ctrl)
		cause := approval.NewUnexistResourceError("User", 42)

		notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Do(func(_ context.Context, evt approval.Notification) {
			assert.Equal(t, approval.TopicRequestExecutionFailed, evt.Topic)
			assert.ErrorIs(t, evt.Err, approval.ErrUnexistResource)
		})

		p := commands.NewEventPublisher(notifier, nil, clock.NewMockClock(now))
		p.Publish(ctx, approval.TopicRequestExecutionFailed, req, req.RequestUserID(), nil, cause)
	})
}
