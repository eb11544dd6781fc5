// migrate applies the embedded SQL migrations; run with go run ./cmd/migrate.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/svco/mentoring-server-go/internal/config"
	"github.com/svco/mentoring-server-go/internal/database"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	if err := database.Migrate(cfg.DatabaseURL, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
