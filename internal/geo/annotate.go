package geo

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oschwald/geoip2-golang"
	"golang.org/x/sync/singleflight"
)

const (
	geoLiteDataDir         = "data/geolite"
	geoLiteCountryFilename = "GeoLite2-Country.mmdb"
)

type dnsCacheEntry struct {
	names   []string
	expires time.Time
}

var (
	countryDB *geoip2.Reader
	initOnce  sync.Once

	dnsCache       sync.Map
	dnsLookupGroup singleflight.Group
	dnsCacheTTL    = 12 * time.Hour
)

func loadCountryDB() {
	path := filepath.Join(geoLiteDataDir, geoLiteCountryFilename)
	if _, err := os.Stat(path); err != nil {
		log.Debug("GeoLite country database not present, annotations disabled", "path", path)
		return
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		log.Warn("Failed to open GeoLite country database", "path", path, "error", err)
		return
	}
	countryDB = reader
}

// Country returns the country name for ip, or an empty string when no GeoLite
// database is available locally.
func Country(ip string) string {
	initOnce.Do(loadCountryDB)
	if countryDB == nil {
		return ""
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}

	record, err := countryDB.Country(parsed)
	if err != nil {
		return ""
	}
	return record.Country.Names["en"]
}

// Hostname returns the first reverse-DNS name of ip, cached. Lookup failures
// are cached as empty results so unresolvable addresses are not re-queried.
func Hostname(ip string) string {
	names := getCachedDNS(ip)
	if len(names) == 0 {
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}

func getCachedDNS(ip string) []string {
	now := time.Now()
	if entry, ok := dnsCache.Load(ip); ok {
		cachedEntry := entry.(dnsCacheEntry)
		if now.Before(cachedEntry.expires) {
			return cachedEntry.names
		}
	}

	result, err, _ := dnsLookupGroup.Do(ip, func() (interface{}, error) {
		names, err := net.LookupAddr(ip)
		if err != nil {
			return []string{}, nil
		}
		return names, nil
	})
	if err != nil {
		result = []string{}
	}

	names := result.([]string)
	dnsCache.Store(ip, dnsCacheEntry{
		names:   names,
		expires: now.Add(dnsCacheTTL),
	})
	return names
}
