package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zapdesk/zapdesk/internal/azdo"
	"github.com/zapdesk/zapdesk/internal/board"
	"github.com/zapdesk/zapdesk/internal/config"
	"github.com/zapdesk/zapdesk/internal/report"
	"github.com/zapdesk/zapdesk/internal/tips"
	"github.com/zapdesk/zapdesk/internal/tui"
	"github.com/zapdesk/zapdesk/internal/webhook"
)

var (
	// CLI flags
	configFlag  string
	projectFlag string
	typeFlag    string
	tagFlag     string
	addrFlag    string
	monthFlag   string
	amountFlag  int64
	commentFlag string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "zapdesk",
		Short: "Support ticketing on top of Azure DevOps work items",
		Long: `zapdesk turns an Azure DevOps project into a support desk.

Interactive kanban board with keyboard-driven drag and drop, an inbound
email webhook that opens tickets, and monthly KPI reports.

Authentication:
  1. Environment variable: set AZURE_DEVOPS_PAT (or AZURE_DEVOPS_EXT_PAT)
  2. Azure CLI: run 'az login' with the azure-devops extension

The credential must have work item read/write access.`,
		RunE: runBoard,
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to the configuration file. Defaults to zapdesk.yaml in . or ~/.config/zapdesk.")
	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", "", "Azure DevOps project name. Skips the project picker.")
	rootCmd.PersistentFlags().StringVar(&typeFlag, "type", "", "Work item type used for tickets.")
	rootCmd.PersistentFlags().StringVar(&tagFlag, "tag", "", "Tag that marks work items as support tickets.")

	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Open the kanban board (default)",
		RunE:  runBoard,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the inbound email webhook server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address, e.g. :8700.")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print the monthly KPI report",
		RunE:  runReport,
	}
	reportCmd.Flags().StringVar(&monthFlag, "month", "", "Month to report on, YYYY-MM. Defaults to the current month.")

	tipCmd := &cobra.Command{
		Use:   "tip <agent>",
		Short: "Fetch a Lightning invoice to tip an agent",
		Args:  cobra.ExactArgs(1),
		RunE:  runTip,
	}
	tipCmd.Flags().Int64Var(&amountFlag, "amount", 1000, "Tip amount in satoshis.")
	tipCmd.Flags().StringVar(&commentFlag, "comment", "", "Comment attached to the tip.")

	rootCmd.AddCommand(boardCmd, serveCmd, reportCmd, tipCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if projectFlag != "" {
		cfg.DevOps.Project = projectFlag
	}
	if typeFlag != "" {
		cfg.DevOps.WorkItemType = typeFlag
	}
	if tagFlag != "" {
		cfg.DevOps.SupportTag = tagFlag
	}
	return cfg, nil
}

func newClient(cfg *config.Config) (*azdo.Client, error) {
	client, err := azdo.New(cfg.DevOps.OrganizationURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure DevOps client: %w\n\nSet AZURE_DEVOPS_PAT or run 'az login'", err)
	}
	return client, nil
}

func runBoard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	// The TUI owns the terminal; keep log noise out of it.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s := board.NewStore(logger)
	ctx := context.Background()

	app := tui.NewAppModel(client, s, ctx, cfg.DevOps.Project, cfg.DevOps.WorkItemType, cfg.DevOps.SupportTag)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}

	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DevOps.Project == "" {
		return fmt.Errorf("devops.project is required for serve")
	}
	if addrFlag != "" {
		cfg.Webhook.Addr = addrFlag
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	srv := webhook.NewServer(webhook.Config{
		Addr:           cfg.Webhook.Addr,
		Project:        cfg.DevOps.Project,
		WorkItemType:   cfg.DevOps.WorkItemType,
		SupportTag:     cfg.DevOps.SupportTag,
		JWTSecret:      cfg.Webhook.JWTSecret,
		AllowedOrigins: cfg.Webhook.AllowedOrigins,
	}, client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})

	logger.Info("webhook server listening", "addr", cfg.Webhook.Addr)
	return g.Wait()
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DevOps.Project == "" {
		return fmt.Errorf("devops.project is required for report")
	}

	month := time.Now().UTC()
	if monthFlag != "" {
		month, err = time.Parse("2006-01", monthFlag)
		if err != nil {
			return fmt.Errorf("invalid --month %q, want YYYY-MM: %w", monthFlag, err)
		}
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	wiql := azdo.SupportQuery(cfg.DevOps.WorkItemType, cfg.DevOps.SupportTag)
	tickets, err := client.QueryTickets(ctx, cfg.DevOps.Project, wiql)
	if err != nil {
		return fmt.Errorf("failed to query tickets: %w", err)
	}

	k := report.Compute(month, tickets, cfg.Report.SLATargets)

	store, err := report.OpenSnapshotStore(cfg.Report.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer store.Close()

	var trend *report.Trend
	prev, err := store.Load(report.MonthKey(month.AddDate(0, -1, 0)))
	if err == nil {
		t := report.CompareMonths(k, prev)
		trend = &t
	}

	if err := store.Save(k); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	fmt.Print(report.Render(k, trend))
	return nil
}

func runTip(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	agent := args[0]
	address, ok := cfg.Tips.Agents[agent]
	if !ok {
		if len(cfg.Tips.Agents) == 0 {
			return fmt.Errorf("no agents configured under tips.agents")
		}
		return fmt.Errorf("no lightning address configured for agent %q", agent)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client := tips.NewClient(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	invoice, err := client.Tip(ctx, address, amountFlag, commentFlag)
	if err != nil {
		return fmt.Errorf("failed to fetch invoice for %s: %w", address, err)
	}

	fmt.Printf("Invoice for %d sats to %s (%s):\n\n%s\n", amountFlag, agent, address, invoice)
	return nil
}
