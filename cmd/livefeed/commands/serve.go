package commands

import (
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/livefeedai/livefeed/internal/api"
	"github.com/livefeedai/livefeed/internal/config"
	"github.com/livefeedai/livefeed/internal/describe"
	"github.com/livefeedai/livefeed/internal/gate"
	"github.com/livefeedai/livefeed/internal/logger"
	"github.com/livefeedai/livefeed/internal/mailbox"
	"github.com/livefeedai/livefeed/internal/output"
	"github.com/livefeedai/livefeed/internal/source"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the livefeed agent",
	Long: `Start the livefeed agent: capture frames from the configured source,
gate them on scene change, and describe emitted frames via the remote
inference server.`,
	Example: `  # Start with the default config
  livefeed serve

  # Capture an X11 region instead of a network camera
  livefeed serve --config x11.yaml

  # Start with debug logging
  livefeed serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}

	// Override port from flag if provided
	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			configMgr.SetPort(port)
		}
	}

	// Override log level from flag if provided
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			configMgr.SetLogLevel(level)
		}
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, true)
	log := logger.WithComponent("serve")
	log.Info().Str("config", configMgr.GetConfigPath()).Msg("Configuration loaded")

	// Emitted-frame preview
	preview := output.NewMJPEGOutput()
	if err := preview.Start(); err != nil {
		return fmt.Errorf("failed to start preview output: %w", err)
	}
	defer preview.Stop()

	// Downstream: mailbox -> describe worker -> inference server
	box := mailbox.New()
	client := describe.NewClient(cfg.Inference)
	cache, err := describe.NewCache(cfg.Inference.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to create description cache: %w", err)
	}

	// The frame gate: emission hands the frame to the preview stream and the
	// describer mailbox, both non-blocking.
	frameGate := gate.New(gateConfig(cfg.Gate), func(frame *image.RGBA, at time.Time) {
		preview.WriteFrame(frame)
		box.Publish(&mailbox.Frame{Image: frame, At: at})
	})

	sources := source.NewRouter()

	// The worker broadcasts through the server; the server reports the
	// worker's last result. Both exist before either runs.
	var server *api.Server
	worker := describe.NewWorker(box, client, cache, func(d describe.Description) {
		server.Broadcast(d)
	})
	server = api.NewServer(configMgr, frameGate, worker, client, box, sources, preview)
	worker.Start()

	// Capture callback is the single writer of gate state.
	if err := sources.Start(cfg.Source, func(frame *image.RGBA, at time.Time) {
		frameGate.Process(frame)
	}); err != nil {
		worker.Stop()
		return fmt.Errorf("failed to start capture: %w", err)
	}

	go func() {
		if err := server.Start(cfg.ServerPort); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	log.Info().
		Int("port", cfg.ServerPort).
		Str("inference", cfg.Inference.BaseURL).
		Msg("livefeed is running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down gracefully")
	sources.Stop()
	frameGate.Stop()
	worker.Stop()
	return nil
}

func gateConfig(cfg config.GateConfig) gate.Config {
	return gate.Config{
		ChangeThreshold:    cfg.ChangeThreshold,
		MinInterval:        time.Duration(cfg.MinIntervalSeconds * float64(time.Second)),
		MaxInterval:        time.Duration(cfg.MaxIntervalSeconds * float64(time.Second)),
		IntervalMultiplier: cfg.IntervalMultiplier,
		HistorySize:        cfg.HistorySize,
	}
}
