package suggest

import (
	"errors"
	"fmt"
	"testing"

	"allowcast/internal/database"
	"allowcast/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSuggestTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.AddressRecord{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	database.DB = db
	t.Cleanup(func() {
		database.DB = nil
	})

	return db
}

func seedAddress(t *testing.T, address string, prov domain.Provenance) {
	t.Helper()

	res, err := database.RegisterAddress(address, prov)
	if err != nil {
		t.Fatalf("seed %s: %v", address, err)
	}
	if res != database.RegisterCreated {
		t.Fatalf("seed %s = %s, want created", address, res)
	}
}

func countInferred(t *testing.T, db *gorm.DB, activeOnly bool) int64 {
	t.Helper()

	query := db.Model(&domain.AddressRecord{}).Where("provenance = ?", domain.ProvenanceInferred)
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		t.Fatalf("count inferred: %v", err)
	}
	return count
}

func TestGenerate_SeedsAloneSatisfyTarget(t *testing.T) {
	db := setupSuggestTestDB(t)
	e := NewEngine()

	seedAddress(t, "10.20.0.1", domain.ProvenanceManual)
	seedAddress(t, "10.20.0.2", domain.ProvenanceErrorDerived)
	seedAddress(t, "10.20.0.3", domain.ProvenanceHistory)

	got, err := e.generate("", 3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	want := []string{"10.20.0.1", "10.20.0.2", "10.20.0.3"}
	if len(got) != len(want) {
		t.Fatalf("generate returned %d addresses, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("address %d = %s, want %s", i, got[i], want[i])
		}
	}

	// Satisfying the request from seeds must not touch the store.
	if count := countInferred(t, db, false); count != 0 {
		t.Fatalf("%d inferred records written by a read-only pass", count)
	}
}

func TestGenerate_CurrentAddressLeadsResult(t *testing.T) {
	setupSuggestTestDB(t)
	e := NewEngine()

	seedAddress(t, "10.21.0.1", domain.ProvenanceManual)

	got, err := e.generate("203.0.113.77", 2)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got) != 2 || got[0] != "203.0.113.77" || got[1] != "10.21.0.1" {
		t.Fatalf("generate = %v, want current address first", got)
	}
}

func TestGenerate_PersistsInferredCandidates(t *testing.T) {
	db := setupSuggestTestDB(t)
	e := NewEngine()

	got, err := e.generate("203.0.113.10", 30)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(got) != 30 {
		t.Fatalf("generate returned %d addresses, want 30", len(got))
	}
	if got[0] != "203.0.113.10" {
		t.Fatalf("first address = %s, want the current address", got[0])
	}
	assertDistinctValid(t, "", got)

	for _, addr := range got[1:] {
		var record domain.AddressRecord
		err := db.Where("address = ?", addr).First(&record).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			t.Fatalf("lookup %s: %v", addr, err)
		}
		if err == nil && record.Provenance != domain.ProvenanceInferred {
			t.Fatalf("candidate %s stored with provenance %s", addr, record.Provenance)
		}
	}

	// The generation pass writes one diversified batch for the seed prefix;
	// the retry pass appends without persisting.
	if count := countInferred(t, db, true); count == 0 || count > 30 {
		t.Fatalf("%d active inferred records after generation", count)
	}
}

func TestGenerate_RepeatRunsReuseRows(t *testing.T) {
	db := setupSuggestTestDB(t)
	e := NewEngine()

	if _, err := e.generate("203.0.113.10", 30); err != nil {
		t.Fatalf("first generate: %v", err)
	}
	var afterFirst int64
	db.Model(&domain.AddressRecord{}).Count(&afterFirst)

	if _, err := e.generate("203.0.113.10", 30); err != nil {
		t.Fatalf("second generate: %v", err)
	}
	var afterSecond int64
	db.Model(&domain.AddressRecord{}).Count(&afterSecond)

	if afterFirst != afterSecond {
		t.Fatalf("repeat generation grew the store from %d to %d rows", afterFirst, afterSecond)
	}

	var addresses, distinct int64
	db.Model(&domain.AddressRecord{}).Count(&addresses)
	db.Model(&domain.AddressRecord{}).Distinct("address").Count(&distinct)
	if addresses != distinct {
		t.Fatalf("store holds %d rows but %d distinct addresses", addresses, distinct)
	}
}

func TestGenerate_PruneRunsBeforeGeneration(t *testing.T) {
	db := setupSuggestTestDB(t)
	e := NewEngine()

	seedAddress(t, "10.22.0.200", domain.ProvenanceInferred)

	if _, err := e.generate("203.0.113.10", 25); err != nil {
		t.Fatalf("generate: %v", err)
	}

	var record domain.AddressRecord
	if err := db.Where("address = ?", "10.22.0.200").First(&record).Error; err != nil {
		t.Fatalf("lookup stale inferred record: %v", err)
	}
	if record.Active {
		t.Fatal("stale inferred record survived the pre-generation prune")
	}
}

func TestGenerate_EmptyStoreEmptyResult(t *testing.T) {
	setupSuggestTestDB(t)
	e := NewEngine()

	got, err := e.generate("", 10)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("generate without seeds = %v, want empty", got)
	}
}

func TestGenerate_ZeroTarget(t *testing.T) {
	setupSuggestTestDB(t)
	e := NewEngine()

	got, err := e.generate("203.0.113.10", 0)
	if err != nil || got != nil {
		t.Fatalf("generate with zero target = %v, %v, want nil, nil", got, err)
	}
}

func TestGenerate_StoreUnavailable(t *testing.T) {
	database.DB = nil
	e := NewEngine()

	_, err := e.generate("203.0.113.10", 5)
	if !errors.Is(err, database.ErrNoDatabase) {
		t.Fatalf("generate without store = %v, want ErrNoDatabase", err)
	}
}
