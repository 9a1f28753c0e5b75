package bootstrap

import (
	"context"

	"allowcast/internal/config"
	"allowcast/internal/database"
	"allowcast/internal/jobs/maintenance"
	jobruntime "allowcast/internal/jobs/runtime"

	"github.com/charmbracelet/log"
)

func Setup(ctx context.Context) {
	config.ReadSettings()

	if _, err := database.SetupDB(); err != nil {
		log.Fatalf("failed to set up database: %v", err)
	}
	config.SetIntervals()

	// Routines

	go jobruntime.StartAddressDiscovery(ctx)
	go maintenance.StartRetentionRoutine(ctx)
}
