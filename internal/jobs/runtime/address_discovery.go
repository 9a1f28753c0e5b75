package runtime

import (
	"context"
	"io"
	"net/http"
	"time"

	"allowcast/internal/config"
	"allowcast/internal/support"

	"github.com/charmbracelet/log"
)

const (
	lookupTimeout      = 10 * time.Second
	lookupMaxBodyBytes = 64 << 10
)

var lookupClient = &http.Client{Timeout: lookupTimeout}

// StartAddressDiscovery keeps the current public address fresh by polling the
// configured lookup endpoint. The engine treats an empty current address as
// "unavailable" and falls back to stored seeds, so failures here only degrade
// suggestions, never block them.
func StartAddressDiscovery(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	RefreshCurrentAddress(ctx)

	updates := config.LookupIntervalUpdates()
	interval := config.GetLookupInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case newInterval := <-updates:
			if newInterval != interval {
				interval = newInterval
				ticker.Reset(interval)
			}
		case <-ticker.C:
			RefreshCurrentAddress(ctx)
		}
	}
}

// RefreshCurrentAddress performs one lookup round trip and stores the first
// IPv4 address found in the response body.
func RefreshCurrentAddress(ctx context.Context) {
	lookupURL := config.GetConfig().Lookup.URL
	if lookupURL == "" {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		log.Error("Error building address lookup request:", err)
		return
	}

	resp, err := lookupClient.Do(req)
	if err != nil {
		log.Error("Error checking public address:", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, lookupMaxBodyBytes))
	if err != nil {
		log.Error("Error reading address lookup response:", err)
		return
	}

	ip := support.FindIP(string(body))
	if _, ok := support.ParseDottedQuad(ip); !ok {
		log.Warn("Address lookup returned no usable IPv4", "url", lookupURL)
		return
	}

	if config.GetCurrentIp() != ip {
		log.Infof("Found IP! Current IP: %s", ip)
		config.SetCurrentIp(ip)
	}
}
