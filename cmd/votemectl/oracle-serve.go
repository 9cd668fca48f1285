package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/spf13/cobra"

	"github.com/pu0238/vote-me/pkg/config"
	"github.com/pu0238/vote-me/pkg/oracle/local"
	"github.com/pu0238/vote-me/pkg/oracle/remote"
)

// oracleServeCmd represents the oracle serve command
var oracleServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a seeded oracle over HTTP",
	Long: `Serve the in-process oracle over the remote oracle protocol.

The oracle signs with keys derived from VOTEME_ORACLE_SEED for the
configured network, and charges sign_fee cycles per signature.

Example:
  votemectl oracle serve --port 9000
  VOTEME_ORACLE_URL=http://localhost:9000 votemectl server`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		network, err := cfg.OracleNetwork()
		if err != nil {
			return err
		}

		seed, err := oracleSeed()
		if err != nil {
			return err
		}
		o, err := local.New(seed, network)
		if err != nil {
			return err
		}

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		srv := &http.Server{
			Handler:      handlers.LoggingHandler(os.Stdout, remote.NewHandler(o, o.KeyID(), cfg.SignFee)),
			Addr:         host + ":" + port,
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errs := make(chan error, 1)
		go func() {
			log.Printf("Serving oracle key %s at http://%s:%s...\n", o.KeyID().Name, host, port)
			errs <- srv.ListenAndServe()
		}()

		select {
		case err := <-errs:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	oracleCmd.AddCommand(oracleServeCmd)
	oracleServeCmd.Flags().StringP("port", "p", "9000", "oracle listen port")
	oracleServeCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "oracle bind address")
}
