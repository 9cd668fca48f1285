package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pu0238/vote-me/pkg/caller"
	"github.com/pu0238/vote-me/pkg/config"
	"github.com/pu0238/vote-me/pkg/db"
	"github.com/pu0238/vote-me/pkg/oracle"
	"github.com/pu0238/vote-me/pkg/oracle/local"
	"github.com/pu0238/vote-me/pkg/oracle/remote"
	"github.com/pu0238/vote-me/pkg/server"
	"github.com/pu0238/vote-me/pkg/server/endpoints"
	"github.com/pu0238/vote-me/pkg/service"
	"github.com/pu0238/vote-me/pkg/store"
	gormstore "github.com/pu0238/vote-me/pkg/store/gorm"
	"github.com/pu0238/vote-me/pkg/store/memory"
)

const (
	publicKeyCacheSize = 4096
	publicKeyCacheTTL  = time.Hour
	jwksRefresh        = 15 * time.Minute
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the VoteMe application server",
	Long: `Run the VoteMe application server.

With the default configuration the server keeps its state in memory and
signs with an in-process oracle seeded from VOTEME_ORACLE_SEED. Set
store: postgres (and DATABASE_URL) for persistent state, and oracle_url
to use a remote oracle instead.

With the postgres store, database migrations are run on startup. Use
--no-migrate to skip.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		st, err := openStore(cfg, !noMigrate)
		if err != nil {
			return err
		}

		o, err := buildOracle(cfg)
		if err != nil {
			return err
		}

		provider, err := buildCallerProvider(cfg)
		if err != nil {
			return err
		}

		svc := service.New(st, o, service.Options{
			AppName:  cfg.AppName,
			TokenTTL: cfg.TokenLifetime(),
		})

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(svc, st, provider, cfg, host, port)
		endpoints.RegisterAll(s)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Reloads only affect trusted_proxies; everything else needs a restart.
		go func() {
			if err := config.Watch(ctx, nil); err != nil {
				log.Printf("Config watch disabled: %v", err)
			}
		}()

		errs := make(chan error, 1)
		go func() {
			log.Printf("Running server at http://%s:%s...\n", host, port)
			errs <- s.Start()
		}()

		select {
		case err := <-errs:
			return err
		case <-ctx.Done():
			log.Println("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return s.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}

func openStore(cfg *config.VoteMeConfig, migrate bool) (store.Store, error) {
	if cfg.Store != config.StorePostgres {
		log.Println("Using in-memory store; state is lost on restart")
		return memory.New(), nil
	}

	if migrate {
		log.Println("Running database migrations...")
		if err := runMigrations(); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	database, err := db.Connect(db.Config{})
	if err != nil {
		return nil, err
	}
	st := gormstore.New(database)

	// Pending rows left by a process that stopped mid-registration would
	// hold their usernames, and the Admin role, forever.
	purged, err := st.PurgePending(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to purge pending identities: %w", err)
	}
	if purged > 0 {
		log.Printf("Removed %d unfinished registration(s)", purged)
	}
	return st, nil
}

func buildOracle(cfg *config.VoteMeConfig) (oracle.Oracle, error) {
	network, err := cfg.OracleNetwork()
	if err != nil {
		return nil, err
	}

	var o oracle.Oracle
	if cfg.OracleURL != "" {
		o, err = remote.New(remote.Options{
			URL:       cfg.OracleURL,
			Network:   network,
			Fee:       cfg.SignFee,
			Timeout:   cfg.OracleCallTimeout(),
			CacheSize: publicKeyCacheSize,
			CacheTTL:  publicKeyCacheTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create oracle client: %w", err)
		}
		log.Printf("Using remote oracle at %s (key %s)", cfg.OracleURL, network.KeyID().Name)
	} else {
		seed, err := oracleSeed()
		if err != nil {
			return nil, err
		}
		o, err = local.New(seed, network)
		if err != nil {
			return nil, err
		}
		log.Printf("Using in-process oracle (key %s)", network.KeyID().Name)
	}

	return oracle.Metered(o, cfg.SignFee), nil
}

func oracleSeed() ([]byte, error) {
	seedB64, ok := os.LookupEnv("VOTEME_ORACLE_SEED")
	if !ok {
		return nil, fmt.Errorf("VOTEME_ORACLE_SEED environment variable is required")
	}
	seed, err := base64.StdEncoding.DecodeString(seedB64)
	if err != nil {
		return nil, fmt.Errorf("bad VOTEME_ORACLE_SEED: %w", err)
	}
	return seed, nil
}

func buildCallerProvider(cfg *config.VoteMeConfig) (caller.Provider, error) {
	if cfg.CallerJWKSURI != "" {
		log.Printf("Attesting callers with JWT assertions from %s", cfg.CallerJWKSURI)
		return caller.NewJWTProvider(cfg.CallerJWKSURI, cfg.CallerJWTIssuer, cfg.OracleCallTimeout(), jwksRefresh)
	}

	// Read trusted proxies on every request so config reloads apply.
	return caller.NewHeaderProvider(cfg.CallerHeader, func(ip string) bool {
		return config.Get().IsTrustedProxy(ip)
	}), nil
}
