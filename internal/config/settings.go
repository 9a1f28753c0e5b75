package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

type Config struct {
	Lookup struct {
		URL   string `json:"url"`
		Timer Timer  `json:"timer"`
	} `json:"lookup"`

	Capacity struct {
		MaxTracked int `json:"max_tracked"`
	} `json:"capacity"`

	Suggestion struct {
		Spread             int `json:"spread"`
		PerPrefixTarget    int `json:"per_prefix_target"`
		AttemptCeiling     int `json:"attempt_ceiling"`
		SameSegmentPercent int `json:"same_segment_percent"`
		DefaultTargetCount int `json:"default_target_count"`
		SeedCacheSeconds   int `json:"seed_cache_seconds"`
	} `json:"suggestion"`

	Retention struct {
		StaleAfterDays        int   `json:"stale_after_days"`
		InactiveInferredMax   int   `json:"inactive_inferred_max"`
		InactiveInferredFloor int   `json:"inactive_inferred_floor"`
		Timer                 Timer `json:"timer"`
	} `json:"retention"`
}

type Timer struct {
	Days    uint32 `json:"days"`
	Hours   uint32 `json:"hours"`
	Minutes uint32 `json:"minutes"`
	Seconds uint32 `json:"seconds"`
}

const settingsFilePath = "data/settings.json"

var (
	//go:embed default_settings.json
	defaultConfig []byte

	configValue atomic.Value
	currentIp   atomic.Value
	configMu    sync.Mutex

	InProductionMode bool
)

func init() {
	configValue.Store(Config{})
	currentIp.Store("")
}

func ReadSettings() {
	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Settings file not found, creating with default configuration")

			if err := os.MkdirAll("data", os.ModePerm); err != nil {
				log.Error("Error creating directory for settings file:", err)
				return
			}

			if err := os.WriteFile(settingsFilePath, defaultConfig, os.ModePerm); err != nil {
				log.Error("Error writing default settings file:", err)
				return
			}

			data = defaultConfig
		} else {
			log.Error("Error reading settings file:", err)
			return
		}
	}

	var newConfig Config
	if err := json.Unmarshal(data, &newConfig); err != nil {
		log.Error("Error unmarshalling settings file:", err)
		return
	}

	if err := applyConfigUpdate(newConfig, configUpdateOptions{source: "file"}); err != nil {
		log.Error("Error applying configuration from settings file:", err)
		return
	}

	log.Debug("Settings file loaded successfully")
}

func SetConfig(newConfig Config) {
	if err := applyConfigUpdate(newConfig, configUpdateOptions{persistToFile: true, broadcast: true, source: "local"}); err != nil {
		log.Error("Error applying configuration update:", err)
		return
	}

	log.Debug("Configuration updated and written to file successfully")
}

type configUpdateOptions struct {
	persistToFile bool
	broadcast     bool
	source        string
}

func applyConfigUpdate(newConfig Config, opts configUpdateOptions) error {
	configMu.Lock()
	defer configMu.Unlock()

	configValue.Store(newConfig)
	SetIntervals()

	var errs []error

	if opts.persistToFile {
		data, err := json.MarshalIndent(newConfig, "", "  ")
		if err != nil {
			log.Error("Error marshalling new configuration:", err)
			errs = append(errs, err)
		} else if err := os.WriteFile(settingsFilePath, data, os.ModePerm); err != nil {
			log.Error("Error writing new configuration to file:", err)
			errs = append(errs, err)
		}
	}

	if opts.broadcast {
		payload, err := json.Marshal(newConfig)
		if err != nil {
			log.Error("Error serializing configuration for broadcast:", err)
			errs = append(errs, err)
		} else if err := broadcastConfigUpdate(payload); err != nil {
			log.Error("Error broadcasting configuration update:", err)
			errs = append(errs, err)
		}
	}

	if opts.source != "" {
		log.Debug("Configuration applied", "source", opts.source)
	} else {
		log.Debug("Configuration applied")
	}

	return errors.Join(errs...)
}

func GetConfig() Config {
	return configValue.Load().(Config)
}

// MaxTracked returns the ceiling on active, operator-curated records.
func (c Config) MaxTracked() int {
	if c.Capacity.MaxTracked <= 0 {
		return 120
	}
	return c.Capacity.MaxTracked
}

func (c Config) SuggestionSpread() int {
	if c.Suggestion.Spread <= 0 {
		return 10
	}
	return c.Suggestion.Spread
}

func (c Config) PerPrefixTarget() int {
	if c.Suggestion.PerPrefixTarget <= 0 {
		return 20
	}
	return c.Suggestion.PerPrefixTarget
}

func (c Config) AttemptCeiling() int {
	if c.Suggestion.AttemptCeiling <= 0 {
		return 100
	}
	return c.Suggestion.AttemptCeiling
}

func (c Config) SameSegmentPercent() int {
	if c.Suggestion.SameSegmentPercent <= 0 || c.Suggestion.SameSegmentPercent > 100 {
		return 70
	}
	return c.Suggestion.SameSegmentPercent
}

func (c Config) InactiveInferredBounds() (max, floor int) {
	max = c.Retention.InactiveInferredMax
	if max <= 0 {
		max = 1000
	}
	floor = c.Retention.InactiveInferredFloor
	if floor <= 0 || floor > max {
		floor = max * 9 / 10
	}
	return max, floor
}

func SetProductionMode(productionMode bool) {
	InProductionMode = productionMode
}

func GetCurrentIp() string {
	return currentIp.Load().(string)
}

func SetCurrentIp(ip string) {
	currentIp.Store(ip)
}
