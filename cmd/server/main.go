// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/hiitbox/internal/api/connect"
	"github.com/osa030/hiitbox/internal/app/cue"
	"github.com/osa030/hiitbox/internal/app/session"
	"github.com/osa030/hiitbox/internal/infra/audio"
	"github.com/osa030/hiitbox/internal/infra/config"
	"github.com/osa030/hiitbox/internal/infra/logger"
)

var (
	app        = kingpin.New("hiitbox-server", "hiitbox interval training server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-cues command
	listCuesCmd = app.Command("list-cues", "List audio cues and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listCuesCmd.FullCommand() {
		printCues()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	player, err := audio.NewPlayerFromConfig(cfg.Audio)
	if err != nil {
		return errors.Wrap(err, "failed to create audio player")
	}
	cues := cue.NewDispatcher(player, cue.Config{PlayTimeout: cfg.PlayTimeout()})
	defer cues.Close()

	sessionMgr, err := session.NewManager(session.Config{
		Workout:           cfg.WorkoutConfiguration(),
		HeartbeatInterval: cfg.HeartbeatInterval(),
	}, cues)
	if err != nil {
		return errors.Wrap(err, "failed to create session manager")
	}

	if !cfg.ControlEnabled() {
		zlog.Warn().Msg("Control token not configured, commands are not authenticated")
	}
	router := apiconnect.NewRouter(apiconnect.NewWorkoutService(sessionMgr), cfg.Control.Token)

	serverAddr := cfg.Server.Addr
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")
	defer executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
		sessionMgr.Reset()
	case err := <-serverErrCh:
		sessionMgr.Close()
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close session manager first to terminate active streams
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}

// printCues prints the audio cues and the file names the exec player expects.
func printCues() {
	fmt.Println("Audio Cues:")
	for _, c := range cue.All() {
		kind := "signal"
		if c.Alarm {
			kind = "alarm"
		}
		fmt.Printf("  %-10s - %-6s %v\n", c.Name, kind, c.Duration)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
