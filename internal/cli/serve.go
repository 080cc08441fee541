package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/icq-rps-backend/internal/config"
	"github.com/DoyleJ11/icq-rps-backend/internal/httpapi"
	"github.com/DoyleJ11/icq-rps-backend/internal/hub"
	"github.com/DoyleJ11/icq-rps-backend/internal/logging"
	"github.com/DoyleJ11/icq-rps-backend/internal/store"
)

const shutdownTimeout = 10 * time.Second

type ServeOptions struct {
	*RootOptions
	Addr string
}

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Long: `Run the game server. Configuration comes from the environment
(ADDR, LOG_LEVEL, LOG_FORMAT, DATABASE_URL, SQLITE_PATH, ANNIHILATION_WIN,
TRAP_RULE, RULES_FILE) and an optional .env file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}

func runServe(parent context.Context, opts *ServeOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Addr = opts.Addr
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal, err := store.Open(ctx, store.Config{DatabaseURL: cfg.DatabaseURL, SQLitePath: cfg.SQLitePath})
	if err != nil {
		return err
	}
	if journal == nil {
		log.Warn("no DATABASE_URL or SQLITE_PATH; games are kept in memory only")
	}

	hubOpts := []hub.Option{hub.WithLogger(log.Named("hub"))}
	if journal != nil {
		hubOpts = append(hubOpts, hub.WithJournal(journal))
	}
	h := hub.NewHub(ctx, hubOpts...)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.SetupRoutes(h, cfg.Rules, log.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.Addr),
			zap.Bool("annihilation_win", cfg.Rules.AnnihilationWin),
			zap.String("trap_rule", string(cfg.Rules.Trap)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs error
		errs = multierr.Append(errs, srv.Shutdown(shutdownCtx))
		select {
		case h.Inbox() <- hub.ShutdownHub{}:
		case <-h.Done():
		}
		<-h.Done()
		if journal != nil {
			errs = multierr.Append(errs, journal.Close())
		}
		return errs
	})
	return g.Wait()
}
