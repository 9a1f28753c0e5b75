package suggest

import (
	"errors"
	"time"

	"allowcast/internal/config"
	"allowcast/internal/database"
	"allowcast/internal/domain"
	"allowcast/internal/support"

	"github.com/charmbracelet/log"
)

// seedGroup is one provenance bucket of known-good addresses, in priority
// order: the current observed address first, then manual, error-derived and
// history records.
type seedGroup struct {
	name      string
	addresses []string
}

// GenerateCandidates assembles an allow-list prefill of up to targetCount
// addresses: every known seed first, then freshly generated neighbour
// candidates persisted as inferred records. The returned error is only
// non-nil when the store itself is unreachable; an empty result with a nil
// error means there was genuinely nothing to suggest.
func (e *Engine) GenerateCandidates(targetCount int) ([]string, error) {
	return e.generate(config.GetCurrentIp(), targetCount)
}

func (e *Engine) generate(currentAddress string, targetCount int) ([]string, error) {
	if targetCount <= 0 {
		return nil, nil
	}

	groups, err := e.seedGroups(currentAddress)
	if err != nil {
		return nil, err
	}

	used := make(map[string]struct{})
	result := make([]string, 0, targetCount)
	for _, group := range groups {
		for _, addr := range group.addresses {
			if _, seen := used[addr]; seen {
				continue
			}
			used[addr] = struct{}{}
			result = append(result, addr)
		}
	}

	// Seeds alone can satisfy the request; nothing is generated or written.
	if len(result) >= targetCount {
		return result[:targetCount], nil
	}

	// Suggestions from earlier passes are stale once a new pass begins.
	if _, _, err := database.PruneInferred(); err != nil {
		if errors.Is(err, database.ErrNoDatabase) {
			return nil, err
		}
		log.Error("Failed to prune inferred records before generation", "error", err)
	}
	e.cache.invalidate()

	prefixes := seedPrefixes(groups)
	if len(prefixes) == 0 {
		return result, nil
	}

	cfg := config.GetConfig()
	spread := cfg.SuggestionSpread()
	perPrefix := cfg.PerPrefixTarget()

	// Generation pass: diversified candidates around each (group, prefix)
	// pairing, persisted as inferred records.
	for _, group := range groups {
		for _, prefix := range prefixes {
			if len(result) >= targetCount {
				break
			}
			seed, ok := firstSeedInPrefix(group, prefix)
			if !ok {
				continue
			}
			candidates := e.diversifiedExcluding(seed, perPrefix, spread, used)
			if err := e.persistCandidates(candidates, used, &result, targetCount); err != nil {
				return nil, err
			}
		}
	}

	// Retry pass: same seeds and prefixes against the grown exclusion set,
	// appending without touching the store, until the target is met or
	// generation stalls.
	for attempt := 0; attempt < cfg.AttemptCeiling() && len(result) < targetCount; attempt++ {
		progressed := false
		for _, group := range groups {
			for _, prefix := range prefixes {
				if len(result) >= targetCount {
					break
				}
				seed, ok := firstSeedInPrefix(group, prefix)
				if !ok {
					continue
				}
				for _, addr := range e.diversifiedExcluding(seed, perPrefix, spread, used) {
					if len(result) >= targetCount {
						break
					}
					used[addr] = struct{}{}
					result = append(result, addr)
					progressed = true
				}
			}
		}
		if !progressed {
			break
		}
	}

	// Last resort: uniformly random last octets within the known prefixes.
	maxAttempts := cfg.AttemptCeiling() * len(prefixes)
	for attempt := 0; attempt < maxAttempts && len(result) < targetCount; attempt++ {
		addr := support.JoinPrefix(prefixes[attempt%len(prefixes)], e.randomOctet())
		if _, seen := used[addr]; seen {
			continue
		}
		if err := e.persistCandidates([]string{addr}, used, &result, targetCount); err != nil {
			return nil, err
		}
	}

	if len(result) > targetCount {
		result = result[:targetCount]
	}
	return result, nil
}

// persistCandidates registers each candidate as an inferred record and
// appends it to the result. A failure to persist one candidate skips it; only
// an unreachable store aborts the batch.
func (e *Engine) persistCandidates(candidates []string, used map[string]struct{}, result *[]string, targetCount int) error {
	for _, addr := range candidates {
		if len(*result) >= targetCount {
			return nil
		}
		if _, seen := used[addr]; seen {
			continue
		}

		res, err := database.RegisterAddress(addr, domain.ProvenanceInferred)
		if err != nil {
			if errors.Is(err, database.ErrNoDatabase) {
				return err
			}
			log.Warn("Skipping candidate, persistence failed", "address", addr, "error", err)
			continue
		}
		if res == database.RegisterRejected {
			continue
		}

		used[addr] = struct{}{}
		*result = append(*result, addr)
	}
	return nil
}

func (e *Engine) seedGroups(currentAddress string) ([]seedGroup, error) {
	stored, cached := e.cache.get()
	if !cached {
		for _, prov := range []domain.Provenance{
			domain.ProvenanceManual,
			domain.ProvenanceErrorDerived,
			domain.ProvenanceHistory,
		} {
			records, err := database.GetActiveRecords(prov)
			if err != nil {
				return nil, err
			}
			addresses := make([]string, 0, len(records))
			for _, record := range records {
				addresses = append(addresses, record.Address)
			}
			stored = append(stored, seedGroup{name: string(prov), addresses: addresses})
		}

		ttl := time.Duration(config.GetConfig().Suggestion.SeedCacheSeconds) * time.Second
		if ttl <= 0 {
			ttl = time.Minute
		}
		e.cache.set(stored, ttl)
	}

	groups := make([]seedGroup, 0, len(stored)+1)
	if _, ok := support.ParseDottedQuad(currentAddress); ok {
		groups = append(groups, seedGroup{name: "current", addresses: []string{currentAddress}})
	}
	return append(groups, stored...), nil
}

// seedPrefixes lists the distinct /24 prefixes across all seed groups in
// first-seen order.
func seedPrefixes(groups []seedGroup) []string {
	seen := make(map[string]struct{})
	var prefixes []string
	for _, group := range groups {
		for _, addr := range group.addresses {
			prefix, _, ok := support.SplitPrefix(addr)
			if !ok {
				continue
			}
			if _, dup := seen[prefix]; dup {
				continue
			}
			seen[prefix] = struct{}{}
			prefixes = append(prefixes, prefix)
		}
	}
	return prefixes
}

func firstSeedInPrefix(group seedGroup, prefix string) (string, bool) {
	for _, addr := range group.addresses {
		seedPrefix, _, ok := support.SplitPrefix(addr)
		if ok && seedPrefix == prefix {
			return addr, true
		}
	}
	return "", false
}
