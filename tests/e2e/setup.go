//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"approval-engine/cmd/bootstrap"
	"approval-engine/cmd/bootstrap/components"
	"approval-engine/internal/infra/db"
	"approval-engine/internal/pkg/config"
	"approval-engine/tests/common/dbtest"

	"github.com/docker/go-connections/nat"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
)

const (
	pgUser     = "approval"
	pgPassword = "approval"
	pgPort     = "5432/tcp"
)

// one container per test binary; every suite gets its own database in it
var (
	containerOnce sync.Once
	container     testcontainers.Container
	containerErr  error
)

type endpoint struct {
	host string
	port nat.Port
}

func (e endpoint) dsn(database string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, e.host, e.port.Port(), database)
}

// SharedSuite boots the whole approval service against a fresh database.
type SharedSuite struct {
	suite.Suite
	Router *gin.Engine
	DB     *pgxpool.Pool
	Config config.Config
}

func (s *SharedSuite) SetupSuite() {
	t := s.T()
	gin.SetMode(gin.TestMode)

	ep := postgresEndpoint(t)
	dbCfg := createDatabase(t, ep)

	cfg := config.NewTestConfig()
	cfg.DB = dbCfg
	cfg.DB.AutoMigrate = true
	cfg.Approval.Storage = config.StoragePostgres

	s.Router, s.Config = startApp(t, cfg)

	pool, closePool, err := db.Connect(dbCfg)
	require.NoError(t, err, "failed to connect to the suite database")
	t.Cleanup(closePool)
	s.DB = pool

	require.NoError(t, dbtest.SeedReferenceData(pool), "failed to seed roles")
}

// SetupSubTest truncates approval and target tables so subtests stay independent.
func (s *SharedSuite) SetupSubTest() {
	require.NoError(s.T(), dbtest.ResetDB(s.DB), "failed to reset database state")
}

func postgresEndpoint(t *testing.T) endpoint {
	t.Helper()
	containerOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		container, containerErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "postgres:17",
				ExposedPorts: []string{pgPort},
				Env: map[string]string{
					"POSTGRES_USER":     pgUser,
					"POSTGRES_PASSWORD": pgPassword,
					"POSTGRES_DB":       "postgres",
				},
				Tmpfs: map[string]string{"/var/lib/postgresql/data": "rw,size=256m"},
				Cmd:   []string{"postgres", "-c", "fsync=off", "-c", "synchronous_commit=off", "-c", "max_connections=200"},
				WaitingFor: wait.ForSQL(pgPort, "pgx", func(host string, port nat.Port) string {
					return endpoint{host: host, port: port}.dsn("postgres")
				}).WithStartupTimeout(time.Minute),
				Labels: map[string]string{"purpose": "approval-e2e"},
			},
			Started: true,
		})
	})
	require.NoError(t, containerErr, "failed to start postgres container")

	ctx := context.Background()
	port, err := container.MappedPort(ctx, pgPort)
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)
	return endpoint{host: host, port: port}
}

func createDatabase(t *testing.T, ep endpoint) config.DBConfig {
	t.Helper()
	name := "approval_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	admin, err := pgxpool.New(ctx, ep.dsn("postgres"))
	require.NoError(t, err, "failed to open admin connection")
	defer admin.Close()

	// concurrent CREATE DATABASE calls can collide on the template lock
	for attempt := 1; ; attempt++ {
		_, err = admin.Exec(ctx, "CREATE DATABASE "+name)
		if err == nil || attempt == 5 {
			break
		}
		slog.Warn("retrying database creation", "database", name, "attempt", attempt, "error", err.Error())
		time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
	}
	require.NoError(t, err, "failed to create suite database")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		admin, err := pgxpool.New(ctx, ep.dsn("postgres"))
		if err != nil {
			return
		}
		defer admin.Close()
		if _, err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+name+" WITH (FORCE)"); err != nil {
			slog.Warn("failed to drop suite database", "database", name, "error", err.Error())
		}
	})

	return config.DBConfig{
		Host:     ep.host,
		Port:     ep.port.Port(),
		User:     pgUser,
		Password: pgPassword,
		DBName:   name,
		SSLMode:  "disable",
		TimeZone: "UTC",
	}
}

// startApp runs the production fx graph with the given config; migrations
// are applied by the DB module on start.
func startApp(t *testing.T, cfg config.Config) (*gin.Engine, config.Config) {
	t.Helper()
	var (
		router *gin.Engine
		got    config.Config
	)
	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(func() *gin.Engine { return gin.New() }),
		bootstrap.LoggerModule,
		bootstrap.DBModule,
		bootstrap.JWTModule,
		components.NotifyModule,
		components.UseCaseModule,
		components.HandlerModule,
		fx.Populate(&router, &got),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx), "failed to start approval service")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			slog.Warn("failed to stop approval service", "error", err.Error())
		}
	})
	return router, got
}
