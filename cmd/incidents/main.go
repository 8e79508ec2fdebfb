package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/shenikar/incident_tracking_system/internal/client"
	"github.com/shenikar/incident_tracking_system/internal/config"
	"github.com/shenikar/incident_tracking_system/internal/tui"
)

func main() {
	apiURLFlag := flag.String("api", "", "base URL of the incident API (overrides API_BASE_URL)")
	flag.Parse()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *apiURLFlag != "" {
		cfg.APIBaseURL = *apiURLFlag
	}

	api := client.New(cfg.APIBaseURL, cfg.APITimeout)

	if err := tui.Run(api); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
