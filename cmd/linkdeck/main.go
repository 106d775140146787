// Command linkdeck is the terminal client: it lists the link collection from
// a linkdeck server and drives the delete controls through the optimistic
// delete interaction.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linkdeck/linkdeck/internal/client/api"
	"github.com/linkdeck/linkdeck/internal/infrastructure/config"
	"github.com/linkdeck/linkdeck/internal/infrastructure/logger"
	"github.com/linkdeck/linkdeck/internal/tui"
	"go.uber.org/zap"
)

func main() {
	serverURL := flag.String("server", "", "linkdeck server URL (overrides config)")
	token := flag.String("token", "", "bearer token for authenticated servers (overrides config)")
	configPath := flag.String("config", "", "path to a config file (default: search ./config.toml, ./configs, /etc/linkdeck)")
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	target := cfg.Client.ServerURL
	if *serverURL != "" {
		target = *serverURL
	}
	bearer := cfg.Client.Token
	if *token != "" {
		bearer = *token
	}

	// The terminal owns stdout, so diagnostics go to a file-backed logger
	// only when configured away from stdout; otherwise they are dropped.
	log := zap.NewNop()
	if cfg.Log.Output != "stdout" && cfg.Log.Output != "stderr" {
		if fileLog, err := logger.New(&logger.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cfg.Log.Output,
		}); err == nil {
			log = fileLog
			defer func() { _ = logger.Sync(log) }()
		}
	}

	client := api.NewClient(target,
		api.WithToken(bearer),
		api.WithLogger(log))

	program := tea.NewProgram(tui.NewModel(client, log), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "linkdeck: %v\n", err)
		os.Exit(1)
	}
}
