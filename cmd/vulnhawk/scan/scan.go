package scan

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	appconfig "vulnhawk/internal/config"
	"vulnhawk/internal/metrics"
	"vulnhawk/internal/notification"
	"vulnhawk/internal/profiles"
	"vulnhawk/pkg/history"
	"vulnhawk/pkg/logger"
	"vulnhawk/pkg/report"
	"vulnhawk/pkg/scan"
	"vulnhawk/pkg/scanner"
)

// Config holds the scan command configuration
type Config struct {
	Target       string
	RequestFile  string
	Tools        []string
	Profile      string
	Project      string
	ProfilesPath string
	OutputDir    string
	Formats      []string
	Timeout      time.Duration
	Parallelism  int
	Verbose      bool
	NoColor      bool
}

// App represents the scan command application
type App struct {
	config        *Config
	logger        *logger.Logger
	discordClient *notification.DiscordNotifier
	orchestrator  *scanner.Orchestrator
	renderer      *report.Renderer
}

// NewApp creates a new application instance
func NewApp(config *Config) (*App, error) {
	logLevel := logrus.InfoLevel
	if config.Verbose {
		logLevel = logrus.DebugLevel
	}
	appLogger := logger.NewLogger(logLevel)

	cfg := appconfig.LoadConfig()

	var discordClient *notification.DiscordNotifier
	if cfg.DiscordToken != "" {
		var err error
		discordClient, err = notification.NewDiscordNotifier(cfg.DiscordToken, cfg.DiscordChannel)
		if err != nil {
			appLogger.WithError(err).Warn("Failed to initialize Discord client")
		} else {
			appLogger.Info("Discord notifications enabled")
		}
	}

	store, err := history.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	opts := []scanner.OptFunc{
		scanner.WithHistory(store),
		scanner.WithMetrics(metrics.NewRecorder()),
		scanner.WithOutputRoot(cfg.OutputRoot),
	}
	if discordClient != nil {
		opts = append(opts, scanner.WithNotifier(discordClient))
	}

	return &App{
		config:        config,
		logger:        appLogger,
		discordClient: discordClient,
		orchestrator:  scanner.New(opts...),
		renderer:      report.NewRenderer(),
	}, nil
}

// Close cleans up application resources
func (a *App) Close() error {
	if a.discordClient != nil {
		return a.discordClient.Close()
	}
	return nil
}

// Run executes the scan and prints the console report.
func (a *App) Run(ctx context.Context) error {
	req, err := a.buildRequest()
	if err != nil {
		return err
	}

	profileStore, err := profiles.Load(a.config.ProfilesPath)
	if err != nil {
		return err
	}
	if err := profileStore.Apply(req); err != nil {
		return err
	}

	result, scanErr := a.orchestrator.Scan(ctx, req)
	if result == nil {
		return scanErr
	}

	out, err := a.renderer.RenderText(result, report.TextOptions{
		Detailed: true,
		Color:    !a.config.NoColor,
	})
	if err != nil {
		return err
	}
	fmt.Print(out)

	if len(a.config.Formats) > 0 {
		formats := make([]report.Format, 0, len(a.config.Formats))
		for _, f := range a.config.Formats {
			formats = append(formats, report.Format(f))
		}
		paths, err := a.renderer.WriteReports(result, result.OutputDir, formats)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Printf("Report written: %s\n", path)
		}
	}

	return scanErr
}

// buildRequest assembles the scan request from flags, layered over a
// request file when one is given. Flags win over the file.
func (a *App) buildRequest() (*scan.Request, error) {
	req := &scan.Request{}

	if a.config.RequestFile != "" {
		data, err := os.ReadFile(a.config.RequestFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read request file: %w", err)
		}
		if err := yaml.Unmarshal(data, req); err != nil {
			return nil, fmt.Errorf("failed to parse request file: %w", err)
		}
	}

	if a.config.Target != "" {
		req.Target = a.config.Target
	}
	if len(a.config.Tools) > 0 {
		req.Tools = a.config.Tools
	}
	if a.config.Profile != "" {
		req.Profile = a.config.Profile
	}
	if a.config.Project != "" {
		req.Project = a.config.Project
	}
	if a.config.OutputDir != "" {
		req.OutputDir = a.config.OutputDir
	}
	if a.config.Timeout > 0 {
		req.Timeout = a.config.Timeout
	}
	if a.config.Parallelism > 0 {
		req.Parallelism = a.config.Parallelism
	}
	return req, nil
}

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	config := &Config{}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run security tools against a target",
		Long:  `Run the selected security tools against a target, aggregate their findings and write unified reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			app, err := NewApp(config)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer func() {
				if closeErr := app.Close(); closeErr != nil {
					app.logger.WithError(closeErr).Error("Error closing application")
				}
			}()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigChan
				app.logger.WithFields(logger.Fields{
					"signal": sig.String(),
				}).Info("Received shutdown signal")
				cancel()
			}()

			return app.Run(ctx)
		},
	}

	scanCmd.Flags().StringVarP(&config.Target, "target", "t", "", "Target URL, hostname or IP")
	scanCmd.Flags().StringVar(&config.RequestFile, "request", "", "YAML file describing the scan request")
	scanCmd.Flags().StringSliceVar(&config.Tools, "tools", nil, "Tools to run, in order (e.g. nikto,nuclei)")
	scanCmd.Flags().StringVarP(&config.Profile, "profile", "p", "", "Scan profile to apply")
	scanCmd.Flags().StringVar(&config.Project, "project", "", "Project to record this scan under")
	scanCmd.Flags().StringVar(&config.ProfilesPath, "profiles-file", "", "YAML file with additional scan profiles")
	scanCmd.Flags().StringVarP(&config.OutputDir, "output", "o", "", "Output directory (default scans/scan_<id>)")
	scanCmd.Flags().StringSliceVar(&config.Formats, "format", nil, "Additional report formats to write (csv,xml,markdown,text)")
	scanCmd.Flags().DurationVar(&config.Timeout, "timeout", 0, "Per-tool timeout (default 10m, clamped per tool)")
	scanCmd.Flags().IntVar(&config.Parallelism, "parallel", 0, "Number of tools to run concurrently (default sequential)")
	scanCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Enable verbose logging")
	scanCmd.Flags().BoolVar(&config.NoColor, "no-color", false, "Disable colored console output")

	return scanCmd
}

// NewToolsCommand creates the tools command
func NewToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the supported security tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			fmt.Println("Supported tools:")
			for _, name := range scanner.New().Tools() {
				fmt.Printf("  • %s\n", name)
			}
			return nil
		},
	}
}

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg := appconfig.LoadConfig()
			store, err := history.NewFileStore(cfg.DataDir)
			if err != nil {
				return err
			}

			entries, err := store.Recent(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No scans recorded")
				return nil
			}

			for _, e := range entries {
				fmt.Printf("%s  %-9s  %-30s  %d finding(s)  %s\n",
					e.StartedAt.Format("2006-01-02 15:04"), e.Status, e.Target, e.Summary.Total, e.ScanID)
			}
			return nil
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of scans to list")
	return historyCmd
}
