package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/manifestd/internal/daemon"
	"github.com/danmuck/manifestd/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a manifestd TOML config")
	manifestPath := flag.String("manifest", "", "manifest file, overrides the config")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := daemon.DefaultServiceConfig()
	if path := strings.TrimSpace(*configPath); path != "" {
		loaded, err := loadServiceConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "manifestd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if path := strings.TrimSpace(*manifestPath); path != "" {
		cfg.ManifestPath = path
	}
	if token := strings.TrimSpace(os.Getenv("MANIFESTD_ADMIN_TOKEN")); token != "" {
		cfg.AdminToken = token
	}

	svc := daemon.NewService(cfg)
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "manifestd: %v\n", err)
		os.Exit(1)
	}
}
