//go:build unit

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"approval-engine/internal/domain/approval"
	"approval-engine/tests/common/builder"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	topics []approval.Topic
}

func (r *recordingNotifier) Notify(_ context.Context, evt approval.Notification) {
	r.topics = append(r.topics, evt.Topic)
}

type panickingNotifier struct{}

func (panickingNotifier) Notify(context.Context, approval.Notification) {
	panic("smtp down")
}

func notification(t *testing.T, topic approval.Topic, after time.Duration) approval.Notification {
	t.Helper()
	req, err := builder.NewRequestBuilder().BuildDomain()
	require.NoError(t, err)
	return approval.NewNotification(topic, req, uuid.New(), req.RequestedAt().Add(after))
}

func TestFanout(t *testing.T) {
	first, last := &recordingNotifier{}, &recordingNotifier{}
	f := NewFanout(first, panickingNotifier{}, last)

	assert.NotPanics(t, func() {
		f.Notify(context.Background(), notification(t, approval.TopicRequestCreated, 0))
	})

	assert.Equal(t, []approval.Topic{approval.TopicRequestCreated}, first.topics)
	assert.Equal(t, []approval.Topic{approval.TopicRequestCreated}, last.topics, "a panicking notifier does not stop the others")
}

func TestLogNotifier(t *testing.T) {
	t.Run("info for regular events", func(t *testing.T) {
		var buf bytes.Buffer
		n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))
		evt := notification(t, approval.TopicRequestApproved, time.Minute)

		n.Notify(context.Background(), evt)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "INFO", line["level"])
		assert.Equal(t, "request.approved", line["topic"])
		assert.Equal(t, evt.Request.ID.String(), line["request_id"])
		assert.Equal(t, "rename after marriage", line["comment"])
		assert.NotContains(t, line, "error")
	})

	t.Run("warn with the cause for failed executions", func(t *testing.T) {
		var buf bytes.Buffer
		n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))
		evt := notification(t, approval.TopicRequestExecutionFailed, time.Minute)
		evt.Err = errors.New("user 42 does not exist")

		n.Notify(context.Background(), evt)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "WARN", line["level"])
		assert.Equal(t, "user 42 does not exist", line["error"])
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	ctx := context.Background()

	m.Notify(ctx, notification(t, approval.TopicRequestCreated, 0))
	m.Notify(ctx, notification(t, approval.TopicRequestApproved, 90*time.Second))
	m.Notify(ctx, notification(t, approval.TopicRequestExecutionFailed, 2*time.Minute))

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	var observations uint64
	for _, mf := range families {
		switch mf.GetName() {
		case "approval_requests_events_total":
			for _, metric := range mf.GetMetric() {
				for _, label := range metric.GetLabel() {
					if label.GetName() == "topic" {
						counts[label.GetValue()] += metric.GetCounter().GetValue()
					}
				}
			}
		case "approval_requests_resolution_seconds":
			for _, metric := range mf.GetMetric() {
				observations += metric.GetHistogram().GetSampleCount()
			}
		}
	}

	assert.Equal(t, map[string]float64{
		"request.created":          1,
		"request.approved":         1,
		"request.execution_failed": 1,
	}, counts)
	assert.Equal(t, uint64(1), observations, "only resolving events are timed")
}
