package repository

import (
	"context"
	"encoding/json"

	"approval-engine/internal/infra"
	"approval-engine/internal/infra/audit"
	"approval-engine/internal/infra/db"
	"approval-engine/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AuditRepository struct {
	db db.DBTX
}

func NewAuditRepository(dbtx db.DBTX) *AuditRepository {
	return &AuditRepository{db: dbtx}
}

func (r *AuditRepository) Append(ctx context.Context, rec audit.Record) error {
	patch, err := json.Marshal(rec.Patch)
	if err != nil {
		return infra.WrapRepoErr("failed to encode audit patch", err, infra.KindDBFailure)
	}
	var before []byte
	if len(rec.Before) > 0 {
		before = rec.Before
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO approval_audit_logs (request_id, action, actor_id, before, after, patch, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.RequestID, rec.Action, rec.ActorID, before, []byte(rec.After), patch, pgconv.TimeToPgtype(rec.RecordedAt))
	if err != nil {
		return infra.WrapRepoErr("failed to append audit record", err)
	}
	return nil
}

// History returns the trail of one request in insertion order.
func (r *AuditRepository) History(ctx context.Context, requestID uuid.UUID) ([]audit.Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT request_id, action, actor_id, before, after, patch, recorded_at
		FROM approval_audit_logs WHERE request_id = $1 ORDER BY id`, requestID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list audit records", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (audit.Record, error) {
		var (
			rec   audit.Record
			patch []byte
		)
		if err := row.Scan(&rec.RequestID, &rec.Action, &rec.ActorID, &rec.Before, &rec.After, &patch, &rec.RecordedAt); err != nil {
			return audit.Record{}, err
		}
		rec.RecordedAt = rec.RecordedAt.UTC()
		return rec, json.Unmarshal(patch, &rec.Patch)
	})
	if err != nil {
		return nil, infra.WrapRepoErr("failed to scan audit records", err)
	}
	return records, nil
}
