package server

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vulnhawk/api/routes"
	"vulnhawk/internal/analyst"
	"vulnhawk/internal/artifacts"
	"vulnhawk/internal/config"
	"vulnhawk/internal/dao"
	"vulnhawk/internal/database"
	"vulnhawk/internal/metrics"
	"vulnhawk/internal/notification"
	"vulnhawk/internal/profiles"
	"vulnhawk/internal/services"
	"vulnhawk/pkg/history"
	"vulnhawk/pkg/scanner"
)

type ServerOpts struct {
	Port         int
	Host         string
	ProfilesPath string
}

func NewServerCommand() *cobra.Command {
	opts := &ServerOpts{}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the vulnhawk API server",
		Long:  `Start the vulnhawk server to launch and track scans over a REST API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			cfg := config.LoadConfig()

			// Postgres when configured, flat files otherwise.
			var store history.Store
			if cfg.DBHost != "" {
				db, err := database.InitDB(cfg)
				if err != nil {
					return err
				}
				store = dao.NewScanDAO(db)
			} else {
				fileStore, err := history.NewFileStore(cfg.DataDir)
				if err != nil {
					return err
				}
				store = fileStore
				logrus.Infof("DB_HOST not set - using file history at %s", fileStore.Dir())
			}

			scannerOpts := []scanner.OptFunc{
				scanner.WithHistory(store),
				scanner.WithMetrics(metrics.NewRecorder()),
				scanner.WithOutputRoot(cfg.OutputRoot),
				scanner.WithParallelism(cfg.Parallelism),
			}

			var downstream []scanner.Notifier
			if cfg.DiscordToken != "" {
				notifier, err := notification.NewDiscordNotifier(cfg.DiscordToken, cfg.DiscordChannel)
				if err != nil {
					logrus.Warnf("Failed to initialize Discord client: %v", err)
				} else {
					defer notifier.Close()
					downstream = append(downstream, notifier)
				}
			}

			var analystClient *analyst.Client
			if cfg.OpenAIKey != "" {
				analystClient = analyst.NewClient(cfg.OpenAIKey, cfg.OpenAIModel)
				logrus.Info("AI scan summaries enabled")
			}

			var uploader *artifacts.Store
			if cfg.MinioEndpoint != "" {
				artifactStore, err := artifacts.New(cmd.Context(), cfg.MinioEndpoint, cfg.MinioBucket,
					cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
				if err != nil {
					logrus.Warnf("Failed to initialize artifact storage: %v", err)
				} else {
					uploader = artifactStore
					logrus.Infof("Artifact uploads enabled to bucket %s", cfg.MinioBucket)
				}
			}

			if analystClient != nil || uploader != nil || len(downstream) > 0 {
				post := services.NewPostProcessor(analystClient, uploader, downstream...)
				scannerOpts = append(scannerOpts, scanner.WithNotifier(post))
			}

			profileStore, err := profiles.Load(opts.ProfilesPath)
			if err != nil {
				return err
			}

			orchestrator := scanner.New(scannerOpts...)
			scanService := services.NewScanService(orchestrator, store, cfg.OutputRoot)

			host := opts.Host
			if host == "" {
				host = cfg.ServerHost
			}
			port := opts.Port
			if port == 0 {
				port = cfg.ServerPort
			}

			router := routes.InitRouter(scanService, profileStore)
			return router.Run(fmt.Sprintf("%s:%d", host, port))
		},
	}

	serverCmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "Port to listen on (default 8080)")
	serverCmd.Flags().StringVarP(&opts.Host, "host", "H", "", "Address to bind to (default 0.0.0.0)")
	serverCmd.Flags().StringVar(&opts.ProfilesPath, "profiles-file", "", "YAML file with additional scan profiles")

	return serverCmd
}
