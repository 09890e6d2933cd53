package uow

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"approval-engine/internal/infra/repository"
	"approval-engine/internal/pkg/errs"
	"approval-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errRetriesExhausted = errs.New("approval transaction failed after retries")

// retryable SQLSTATEs: serialization_failure, deadlock_detected
var retryableCodes = map[string]struct{}{
	"40001": {},
	"40P01": {},
}

type retryPolicy struct {
	attempts int
	base     time.Duration
}

// backoff doubles per attempt with up to 20% jitter.
func (p retryPolicy) backoff(attempt int) time.Duration {
	wait := p.base << attempt
	return wait + time.Duration(rand.Int64N(int64(wait)/5+1))
}

type PostgresUoW struct {
	pool  *pgxpool.Pool
	retry retryPolicy
}

func NewPostgresUoW(pool *pgxpool.Pool) *PostgresUoW {
	return &PostgresUoW{pool: pool, retry: retryPolicy{attempts: 4, base: 100 * time.Millisecond}}
}

// Within runs fn in a ReadCommitted transaction. Respond paths lock the
// request row with FOR UPDATE and Save re-checks the stored state, so a
// stronger isolation level is not needed.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

	var err error
	for attempt := 0; attempt < u.retry.attempts; attempt++ {
		err = pgx.BeginTxFunc(ctx, u.pool, opts, func(dbtx pgx.Tx) error {
			return fn(ctx, &pgTx{dbtx: dbtx})
		})
		if !isRetryable(err) {
			return err
		}

		wait := u.retry.backoff(attempt)
		slog.Warn("retrying approval transaction",
			"attempt", attempt+1,
			"wait_ms", wait.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	slog.Error("approval transaction failed after retries",
		"attempts", u.retry.attempts,
		"error", err.Error())
	return errs.Mark(err, errRetriesExhausted)
}

func (u *PostgresUoW) CommandReads() shared.CommandReads {
	return repository.NewRequestReads(u.pool)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	_, ok := retryableCodes[pgErr.Code]
	return ok
}

type pgTx struct {
	dbtx pgx.Tx

	requests *repository.RequestRepository
	reads    *repository.RequestReads
}

func (t *pgTx) Requests() shared.RequestRepository {
	if t.requests == nil {
		t.requests = repository.NewRequestRepository(t.dbtx)
	}
	return t.requests
}

func (t *pgTx) Reads() shared.CommandReads {
	if t.reads == nil {
		t.reads = repository.NewRequestReads(t.dbtx)
	}
	return t.reads
}
