package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xaenox/club-assistant/internal/api"
	"github.com/xaenox/club-assistant/internal/bot"
	"github.com/xaenox/club-assistant/internal/models"
	"github.com/xaenox/club-assistant/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var cfgFile string

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Fatal("Command failed", zap.Error(err))
	}
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "club-assistant",
		Short:         "Chat assistant that answers club members and escalates to a human operator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")

	root.AddCommand(
		newServeCmd(logger),
		newRouteCmd(logger),
		newHoursCmd(logger),
		newValidateCmd(),
	)
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

func newServeCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and, when http.addr is set, the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Telegram.Token == "" && cfg.HTTP.Addr == "" {
				return errors.New("nothing to serve: set telegram.token or http.addr")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r, store, err := buildRouter(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			g, ctx := errgroup.WithContext(ctx)

			if cfg.Telegram.Token != "" {
				b, err := bot.New(cfg.Telegram.Token, r, cfg.Operator.ChatID, logger.Named("bot"))
				if err != nil {
					return err
				}
				g.Go(func() error { return b.Start(ctx) })
			}

			if cfg.HTTP.Addr != "" {
				srv := api.NewServer(cfg.HTTP.Addr, api.NewHandler(r, logger.Named("api")))
				g.Go(func() error { return srv.Run(ctx) })
			}

			logger.Info("Assistant started", zap.String("org", cfg.Org.Name))
			return g.Wait()
		},
	}
}

func newRouteCmd(logger *zap.Logger) *cobra.Command {
	var (
		conversation string
		at           string
	)
	cmd := &cobra.Command{
		Use:   "route [text]",
		Short: "Route one message and print the decision as JSON",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			now, err := parseInstant(at)
			if err != nil {
				return err
			}

			r, store, err := buildRouter(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			out := r.Dispatch(cmd.Context(), strings.Join(args, " "), models.ConversationID(conversation), now)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&conversation, "conversation", "cli", "conversation id")
	cmd.Flags().StringVar(&at, "at", "", "wall clock as RFC 3339 (default now)")
	return cmd
}

func newHoursCmd(logger *zap.Logger) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "hours",
		Short: "Report whether operators are on duty",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			now, err := parseInstant(at)
			if err != nil {
				return err
			}
			gate, err := loadGate(cfg)
			if err != nil {
				return err
			}

			local := now.In(gate.Location())
			state := "closed"
			if gate.IsStaffed(now) {
				state = "staffed"
			}
			logger.Debug("Checked business hours", zap.Time("at", local), zap.String("state", state))
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", local.Weekday(), local.Format("2006-01-02 15:04 MST"), state)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "wall clock as RFC 3339 (default now)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and reply tables without starting anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if _, err := loadTable(cfg); err != nil {
				return err
			}
			if _, err := loadGate(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration ok")
			return nil
		},
	}
}

func parseInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", s, err)
	}
	return t, nil
}
