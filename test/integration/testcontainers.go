package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pu0238/vote-me/pkg/audit"
	"github.com/pu0238/vote-me/pkg/caller"
	"github.com/pu0238/vote-me/pkg/config"
	"github.com/pu0238/vote-me/pkg/oracle"
	"github.com/pu0238/vote-me/pkg/oracle/local"
	"github.com/pu0238/vote-me/pkg/oracle/remote"
	"github.com/pu0238/vote-me/pkg/server"
	"github.com/pu0238/vote-me/pkg/server/endpoints"
	"github.com/pu0238/vote-me/pkg/service"
	gormstore "github.com/pu0238/vote-me/pkg/store/gorm"
)

// oracleSeed is the master seed of the test oracle.
var oracleSeed = bytes.Repeat([]byte{0x42}, local.MinSeedSize)

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB            *gorm.DB
	RawDB         *sql.DB
	Container     testcontainers.Container
	ServerURL     string
	DatabaseURL   string
	HTTPClient    *http.Client
	Cancel        context.CancelFunc
	ServerProcess *exec.Cmd
	InlineServer  *server.Server
	OracleServer  *httptest.Server
}

// NewTestContext creates a new test context with PostgreSQL testcontainer.
// Modes:
//   - Binary mode (default): Set VOTEME_BINARY to the path of the votemectl binary
//   - Inline mode: Set VOTEME_INLINE=1 to run the server in-process (no binary needed)
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	inlineMode := os.Getenv("VOTEME_INLINE") == "1"
	binaryPath := os.Getenv("VOTEME_BINARY")

	if !inlineMode && binaryPath == "" {
		return nil, fmt.Errorf("Either VOTEME_BINARY or VOTEME_INLINE=1 is required.\n\nBinary mode:\n  go build -o votemectl ./cmd/votemectl\n  INTEGRATION_TEST=1 VOTEME_BINARY=$(pwd)/votemectl go test -v ./test/integration/...\n\nInline mode:\n  INTEGRATION_TEST=1 VOTEME_INLINE=1 go test -v ./test/integration/...")
	}

	if !inlineMode {
		if _, err := os.Stat(binaryPath); err != nil {
			return nil, fmt.Errorf("VOTEME_BINARY path does not exist: %s", binaryPath)
		}
		log.Printf("Using binary: %s", binaryPath)
	} else {
		log.Println("Using inline server mode")
	}

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("voteme_test"),
		tcpostgres.WithUsername("voteme"),
		tcpostgres.WithPassword("voteme"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://voteme:voteme@%s:%s/voteme_test?sslmode=disable", host, port.Port())

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rawDB, err := db.DB()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}

	if err := runMigrations(rawDB, migrationsDir); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	serverPort := "18080"
	serverURL := fmt.Sprintf("http://127.0.0.1:%s", serverPort)

	tc := &TestContext{
		DB:          db,
		RawDB:       rawDB,
		Container:   pgContainer,
		ServerURL:   serverURL,
		DatabaseURL: connStr,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}

	if inlineMode {
		err = tc.startInlineServer(serverPort)
	} else {
		err = tc.startBinary(binaryPath, serverPort)
	}
	if err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	if err := waitForServer(serverURL, 30*time.Second); err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return tc, nil
}

// startInlineServer runs the server in-process against the container
// database, signing through a remote oracle served by httptest.
func (tc *TestContext) startInlineServer(port string) error {
	o, err := local.New(oracleSeed, oracle.NetworkRegtest)
	if err != nil {
		return err
	}
	tc.OracleServer = httptest.NewServer(remote.NewHandler(o, o.KeyID(), config.DefaultSignFee))

	client, err := remote.New(remote.Options{
		URL:       tc.OracleServer.URL,
		Network:   oracle.NetworkRegtest,
		Fee:       config.DefaultSignFee,
		Timeout:   5 * time.Second,
		CacheSize: 128,
		CacheTTL:  time.Minute,
	})
	if err != nil {
		return err
	}

	st := gormstore.New(tc.DB)
	svc := service.New(st, oracle.Metered(client, config.DefaultSignFee), service.Options{
		Audit: func(audit.Event) {},
	})
	provider := caller.NewHeaderProvider("", func(ip string) bool { return ip == "127.0.0.1" })
	cfg := &config.VoteMeConfig{AppName: service.DefaultAppName, Network: "regtest", Store: config.StorePostgres}

	s := server.NewServer(svc, st, provider, cfg, "127.0.0.1", port)
	endpoints.RegisterAll(s)
	tc.InlineServer = s
	tc.Cancel = func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}

	go func() {
		_ = s.Start()
	}()
	return nil
}

// startBinary starts the votemectl server binary
func (tc *TestContext) startBinary(binaryPath, port string) error {
	configDir, err := os.MkdirTemp("", "voteme-config")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Use --no-migrate since we already ran migrations in the test setup
	cmd := exec.CommandContext(ctx, binaryPath, "server", "--no-migrate", "-b", "127.0.0.1", "-p", port)
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+tc.DatabaseURL,
		"VOTEME_CONFIG_PATH="+configDir,
		"VOTEME_STORE=postgres",
		"VOTEME_TRUSTED_PROXIES=127.0.0.1",
		"VOTEME_ORACLE_SEED="+base64.StdEncoding.EncodeToString(oracleSeed),
		"VOTEME_AUDIT_ENABLED=false",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		_ = os.RemoveAll(configDir)
		return fmt.Errorf("failed to start binary: %w", err)
	}

	tc.ServerProcess = cmd
	tc.Cancel = func() {
		cancel()
		_ = os.RemoveAll(configDir)
	}
	return nil
}

// waitForServer polls the server until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Reset empties every table between scenarios.
func (tc *TestContext) Reset() error {
	return tc.DB.Exec(`TRUNCATE identities, votings, voting_voters RESTART IDENTITY CASCADE`).Error
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.Cancel != nil {
		tc.Cancel()
	}
	if tc.ServerProcess != nil && tc.ServerProcess.Process != nil {
		_ = tc.ServerProcess.Process.Kill()
		_ = tc.ServerProcess.Wait()
	}
	if tc.OracleServer != nil {
		tc.OracleServer.Close()
	}
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	paths := []string{
		"../..",
		"..",
		".",
	}

	for _, p := range paths {
		goMod := filepath.Join(p, "go.mod")
		if _, err := os.Stat(goMod); err == nil {
			return filepath.Abs(p)
		}
	}

	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

// runMigrations executes the up migrations in version order
func runMigrations(db *sql.DB, migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s: %w", filepath.Base(file), err)
		}
	}

	return nil
}
