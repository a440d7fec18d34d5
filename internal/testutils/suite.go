package testutils

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"testing"
	"time"

	"gift-exchange-backend/internal/config"
	"gift-exchange-backend/internal/database"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const (
	pgUser     = "exchange"
	pgPassword = "exchange"
	pgDatabase = "gift_exchange_test"
)

// exchangeTables are truncated between tests, children first.
var exchangeTables = []string{"members", "groups", "users"}

// postgres is the one container shared by every integration suite of a test
// binary.
var postgres struct {
	once     sync.Once
	err      error
	pool     *dockertest.Pool
	resource *dockertest.Resource
	db       *gorm.DB
	cfg      *config.Config
}

// BaseTestSuite gives a suite access to the shared database.
type BaseTestSuite struct {
	suite.Suite
	DB     *gorm.DB
	Config *config.Config
}

// SetupTestSuite starts Postgres on first use and migrates the exchange schema.
func SetupTestSuite(t *testing.T) *BaseTestSuite {
	postgres.once.Do(func() { postgres.err = startPostgres() })
	if postgres.err != nil {
		t.Fatalf("postgres test container: %v", postgres.err)
	}
	return &BaseTestSuite{DB: postgres.db, Config: postgres.cfg}
}

// RunMain runs the package tests and removes the container afterwards, also
// when the run is interrupted.
func RunMain(m *testing.M, pkg string) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Printf("%s: interrupted, removing postgres container", pkg)
		CleanupSharedContainer()
		os.Exit(1)
	}()

	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// CleanupSharedContainer closes the pool and purges the container.
func CleanupSharedContainer() {
	if postgres.db != nil {
		if sqlDB, err := postgres.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		postgres.db = nil
	}
	if postgres.pool == nil || postgres.resource == nil {
		return
	}
	if err := postgres.pool.Purge(postgres.resource); err != nil {
		log.Printf("purge %s: %v", postgres.resource.Container.Name, err)
	}
	postgres.pool, postgres.resource = nil, nil
}

func (s *BaseTestSuite) SetupTest()         { s.CleanTestDB() }
func (s *BaseTestSuite) TearDownTest()      { s.CleanTestDB() }
func (s *BaseTestSuite) TeardownTestSuite() { s.CleanTestDB() }

// CleanTestDB empties the exchange tables.
func (s *BaseTestSuite) CleanTestDB() {
	if s.DB == nil {
		return
	}
	m := s.DB.Migrator()
	for _, table := range exchangeTables {
		if m.HasTable(table) {
			s.DB.Exec(`TRUNCATE TABLE "` + table + `" CASCADE`)
		}
	}
}

func startPostgres() error {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return fmt.Errorf("connect to docker: %w", err)
	}
	pool.MaxWait = 2 * time.Minute
	postgres.pool = pool

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_USER=" + pgUser,
			"POSTGRES_PASSWORD=" + pgPassword,
			"POSTGRES_DB=" + pgDatabase,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return fmt.Errorf("run postgres: %w", err)
	}
	postgres.resource = resource

	dsn := fmt.Sprintf("postgres://%s:%s@127.0.0.1:%s/%s?sslmode=disable",
		pgUser, pgPassword, resource.GetPort("5432/tcp"), pgDatabase)

	err = pool.Retry(func() error {
		// pgx answers as soon as the server accepts connections; gorm's
		// Initialize would also run migrations on a half-started server.
		std, err := sql.Open("pgx", dsn)
		if err != nil {
			return err
		}
		defer std.Close()
		if err := std.Ping(); err != nil {
			return err
		}

		db, err := database.Initialize(dsn, nil)
		if err != nil {
			return err
		}
		postgres.db = db
		return nil
	})
	if err != nil {
		return fmt.Errorf("wait for postgres: %w", err)
	}

	postgres.cfg = &config.Config{
		Environment:      "test",
		Port:             "8080",
		LogLevel:         "debug",
		DatabaseDriver:   config.DriverPostgres,
		DatabaseURL:      dsn,
		JWTSecret:        TestJWTSecret,
		MaxGroupMembers:  50,
		MatchMaxAttempts: 10,
	}
	return nil
}
