//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// role ids seeded by SeedReferenceData
const (
	RoleOperator int64 = 1
	RoleApprover int64 = 2
)

// access types as stored in approval_access_control_roles
const (
	accessMaker   int16 = 1
	accessChecker int16 = 2
)

func AssignRole(t *testing.T, db DBLike, userID uuid.UUID, roleID int64) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		"INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", userID, roleID)
	require.NoError(t, err)
}

// CreateUserWithRoles returns a fresh user id holding the given roles.
func CreateUserWithRoles(t *testing.T, db DBLike, roleIDs ...int64) uuid.UUID {
	t.Helper()

	userID := uuid.New()
	for _, roleID := range roleIDs {
		AssignRole(t, db, userID, roleID)
	}
	return userID
}

// GrantAccess creates the access control row for (requestType, scope) if missing
// and binds makers and checkers to it.
func GrantAccess(t *testing.T, db DBLike, requestType, scope string, makers, checkers []int64) int64 {
	t.Helper()

	ctx := context.Background()
	var id int64
	err := db.QueryRow(ctx, `
		INSERT INTO approval_access_controls (request_type, access_scope) VALUES ($1, $2)
		ON CONFLICT (request_type, access_scope) DO UPDATE SET request_type = EXCLUDED.request_type
		RETURNING id`, requestType, scope).Scan(&id)
	require.NoError(t, err)

	bind := func(roleIDs []int64, access int16) {
		for _, roleID := range roleIDs {
			_, err := db.Exec(ctx, `
				INSERT INTO approval_access_control_roles (access_control_id, role_id, access_type)
				VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, id, roleID, access)
			require.NoError(t, err)
		}
	}
	bind(makers, accessMaker)
	bind(checkers, accessChecker)
	return id
}

func CreateManagedUser(t *testing.T, db DBLike, name, email string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(context.Background(),
		"INSERT INTO managed_users (name, email) VALUES ($1, $2) RETURNING id", name, email).Scan(&id)
	require.NoError(t, err)
	return id
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO roles (id, name) VALUES
		    (1, 'operator'),
		    (2, 'approver')
		ON CONFLICT (id) DO NOTHING;
	`)
	if err != nil {
		return err
	}

	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
