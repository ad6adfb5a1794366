package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/noelruault/lazyeip/internal/api"
	"github.com/noelruault/lazyeip/internal/aws"
	"github.com/noelruault/lazyeip/internal/config"
	"github.com/noelruault/lazyeip/internal/logging"
	"github.com/noelruault/lazyeip/internal/server"
	"github.com/noelruault/lazyeip/internal/store"
)

type rootOptions struct {
	configPath string
	apiURL     string
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.APIURL = opts.apiURL
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "lazyeip",
		Short: "Terminal panel for EC2 instances and elastic IPs",
		Long: `lazyeip manages saved AWS credentials, EC2 instances and elastic IPs
through the lazyeip REST backend. Run "lazyeip serve" to start the backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			return runTUI(cfg)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "path to the config file")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "backend base URL (overrides api_url)")

	cmd.AddCommand(newServeCmd(opts))
	return cmd
}

func runTUI(cfg *config.Config) error {
	// The terminal belongs to bubbletea, so records only go to the file.
	logger, closer, err := logging.New(cfg.Log, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("starting panel", "api_url", cfg.APIURL, "guard_stale_loads", cfg.GuardStaleLoads)
	client := api.NewClient(cfg.APIURL, logger)

	p := tea.NewProgram(initialModel(cfg, client, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST backend",
		Long: `Serve the credential, instance and elastic IP API. Credentials are kept
in an age-encrypted file; the identity is created on first start.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			return runServer(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides [server] listen)")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger, closer, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	identity, err := store.LoadOrCreateIdentity(cfg.Server.IdentityFile)
	if err != nil {
		return err
	}
	creds, err := store.Open(cfg.Server.CredentialsDB, identity)
	if err != nil {
		return err
	}

	srv := server.New(creds, newEC2Client, logger)
	if cfg.Server.VerifyCredentials {
		srv.Verify = aws.VerifyIdentity
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("backend listening", "addr", cfg.Server.Listen, "credentials_db", cfg.Server.CredentialsDB)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newEC2Client(ctx context.Context, region, accessKey, secretKey string) (server.EC2, error) {
	client, err := aws.NewClientWithStaticCredentials(ctx, region, accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
