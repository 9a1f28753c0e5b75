package config

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultLookupInterval    = 15 * time.Minute
	defaultRetentionInterval = 6 * time.Hour
)

var (
	lookupInterval     atomic.Value
	retentionInterval  atomic.Value
	lookupListeners    []chan time.Duration
	retentionListeners []chan time.Duration
	listenersMu        sync.Mutex
)

func init() {
	lookupInterval.Store(defaultLookupInterval)
	retentionInterval.Store(defaultRetentionInterval)
}

func SetIntervals() {
	cfg := GetConfig()
	setLookupInterval(calculateInterval(cfg.Lookup.Timer, defaultLookupInterval))
	setRetentionInterval(calculateInterval(cfg.Retention.Timer, defaultRetentionInterval))
}

func calculateInterval(timer Timer, fallback time.Duration) time.Duration {
	if timer.Days == 0 && timer.Hours == 0 && timer.Minutes == 0 && timer.Seconds == 0 {
		return fallback
	}
	return CalculateBetweenTime(timer)
}

// CalculateBetweenTime converts a Timer into a duration, clamped to at least
// one second.
func CalculateBetweenTime(timer Timer) time.Duration {
	intervalMs := CalculateMillisecondsOfPeriod(timer)

	minInterval := uint64(1000)
	if intervalMs < minInterval {
		intervalMs = minInterval
	}

	return time.Duration(intervalMs) * time.Millisecond
}

func CalculateMillisecondsOfPeriod(timer Timer) uint64 {
	return uint64(timer.Days)*24*60*60*1000 +
		uint64(timer.Hours)*60*60*1000 +
		uint64(timer.Minutes)*60*1000 +
		uint64(timer.Seconds)*1000
}

func GetLookupInterval() time.Duration {
	return lookupInterval.Load().(time.Duration)
}

func LookupIntervalUpdates() <-chan time.Duration {
	ch := make(chan time.Duration, 1)
	listenersMu.Lock()
	lookupListeners = append(lookupListeners, ch)
	listenersMu.Unlock()

	ch <- GetLookupInterval()
	return ch
}

func setLookupInterval(interval time.Duration) {
	if interval <= 0 {
		interval = defaultLookupInterval
	}

	if GetLookupInterval() == interval {
		return
	}

	lookupInterval.Store(interval)
	notifyListeners(lookupListeners, interval)
}

func GetRetentionInterval() time.Duration {
	return retentionInterval.Load().(time.Duration)
}

func RetentionIntervalUpdates() <-chan time.Duration {
	ch := make(chan time.Duration, 1)
	listenersMu.Lock()
	retentionListeners = append(retentionListeners, ch)
	listenersMu.Unlock()

	ch <- GetRetentionInterval()
	return ch
}

func setRetentionInterval(interval time.Duration) {
	if interval <= 0 {
		interval = defaultRetentionInterval
	}

	if GetRetentionInterval() == interval {
		return
	}

	retentionInterval.Store(interval)
	notifyListeners(retentionListeners, interval)
}

func notifyListeners(listeners []chan time.Duration, interval time.Duration) {
	listenersMu.Lock()
	defer listenersMu.Unlock()
	for _, ch := range listeners {
		select {
		case ch <- interval:
		default:
		}
	}
}
