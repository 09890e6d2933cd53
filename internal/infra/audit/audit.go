// Package audit keeps the append-only trail of committed request mutations.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"approval-engine/internal/pkg/errs"
	"approval-engine/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/wI2L/jsondiff"
)

// Record is one trail entry. Before is empty for creations; Patch is the
// RFC 6902 diff from Before (or {}) to After.
type Record struct {
	RequestID  uuid.UUID       `json:"request_id"`
	Action     string          `json:"action"`
	ActorID    uuid.UUID       `json:"actor_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after"`
	Patch      jsondiff.Patch  `json:"patch"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type Sink interface {
	Append(ctx context.Context, rec Record) error
}

// Log turns audit entries into records and appends them to a sink. Entries
// whose snapshots do not differ are dropped.
type Log struct {
	sink Sink
}

func NewLog(sink Sink) *Log {
	return &Log{sink: sink}
}

var emptyDocument = json.RawMessage(`{}`)

func (l *Log) Record(ctx context.Context, entry shared.AuditEntry) error {
	rec, changed, err := Build(entry)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := l.sink.Append(ctx, rec); err != nil {
		return errs.Wrapf(err, "append audit record for %s", entry.RequestID)
	}
	return nil
}

// Build renders entry as a Record and reports whether anything changed.
func Build(entry shared.AuditEntry) (Record, bool, error) {
	after, err := json.Marshal(entry.After)
	if err != nil {
		return Record{}, false, errs.Wrap(err, "marshal after snapshot")
	}

	var before json.RawMessage
	source := emptyDocument
	if entry.Before != nil {
		before, err = json.Marshal(entry.Before)
		if err != nil {
			return Record{}, false, errs.Wrap(err, "marshal before snapshot")
		}
		source = before
	}

	patch, err := jsondiff.CompareJSON(source, after)
	if err != nil {
		return Record{}, false, errs.Wrap(err, "diff snapshots")
	}

	rec := Record{
		RequestID:  entry.RequestID,
		Action:     string(entry.Action),
		ActorID:    entry.ActorID,
		Before:     before,
		After:      after,
		Patch:      patch,
		RecordedAt: entry.RecordedAt,
	}
	return rec, len(patch) > 0, nil
}
