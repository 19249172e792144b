// Nikki is a daily journaling bot for Matrix.
//
// Configuration comes from an optional YAML file named by NIKKI_CONFIG,
// overlaid by environment variables.
//
// Required environment variables:
//
//	MATRIX_HOMESERVER       - Matrix homeserver URL (e.g. "https://matrix.org")
//	MATRIX_USER_ID          - bot's Matrix ID (e.g. "@nikki:matrix.org")
//	MATRIX_ACCESS_TOKEN     - bot's Matrix access token
//
// Optional environment variables:
//
//	NIKKI_CONFIG            - path to a YAML config file
//	NIKKI_ALLOWED_USERS     - comma-separated Matrix IDs allowed to use the bot
//	NIKKI_STORE             - journal storage: "sqlite" (default) or "file"
//	DATABASE_PATH           - SQLite database path (default: ./nikki.db)
//	NIKKI_JOURNAL_FILE      - JSON journal path for the file store (default: ./data/journals.json)
//	NIKKI_CHECKIN_SCHEDULE  - cron expression for the daily check-in (default: "0 20 * * *")
//	NIKKI_CHECKIN_EXPIRY    - how long a check-in waits for an answer (default: 1h)
//	NIKKI_PREVIEW_LENGTH    - characters shown per entry in /edit (default: 40)
//	HTTP_ADDR               - health/status listen address (disabled when empty)
//	LOG_LEVEL               - "debug", "info", "warn", "error" (default: "info")
//	LOG_FORMAT              - "text" or "json" (default: "text")
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bdobrica/nikki/common/version"
	"github.com/bdobrica/nikki/internal/nikki/app"
	"github.com/bdobrica/nikki/internal/nikki/config"
	"github.com/bdobrica/nikki/internal/nikki/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	observability.Setup(cfg.LogLevel, cfg.LogFormat, cfg.Matrix.AccessToken)
	slog.Info("starting", "version", version.Info())

	nikki, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize nikki", "err", err)
		os.Exit(1)
	}
	defer nikki.Stop()

	if err := nikki.Run(); err != nil {
		slog.Error("nikki exited with error", "err", err)
		nikki.Stop()
		os.Exit(1)
	}
}
