package database

import (
	"errors"
	"fmt"
	"time"

	"allowcast/internal/config"
	"allowcast/internal/domain"
	"allowcast/internal/support"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Keep large deletes under Postgres parameter limits.
const deleteChunkSize = 5000

var ErrNoDatabase = errors.New("database: connection not configured")

// RegisterResult is the outcome of a single RegisterAddress call. Business
// rule violations (malformed address, capacity ceiling) surface here, not as
// errors; a non-nil error always means the storage layer failed.
type RegisterResult int

const (
	RegisterRejected RegisterResult = iota
	RegisterCreated
	RegisterUpdated
	RegisterReactivated
	RegisterUnchanged
)

func (r RegisterResult) String() string {
	switch r {
	case RegisterCreated:
		return "created"
	case RegisterUpdated:
		return "updated"
	case RegisterReactivated:
		return "reactivated"
	case RegisterUnchanged:
		return "unchanged"
	default:
		return "rejected"
	}
}

// RegisterAddress records an observation of address under the given
// provenance. An existing row for the same address is never duplicated; the
// incoming provenance is resolved against it by precedence (manual and
// error-derived entries are never overwritten, history can be promoted,
// inferred suggestions can be promoted or reactivated).
func RegisterAddress(address string, prov domain.Provenance) (RegisterResult, error) {
	if _, ok := support.ParseDottedQuad(address); !ok {
		log.Debug("Rejected malformed address", "address", address)
		return RegisterRejected, nil
	}

	result, err := registerOnce(address, prov)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent writer won the insert race; the unique constraint on
		// address converts this call into the update path on retry.
		result, err = registerOnce(address, prov)
	}
	return result, err
}

func registerOnce(address string, prov domain.Provenance) (RegisterResult, error) {
	if DB == nil {
		return RegisterRejected, ErrNoDatabase
	}

	tx := DB.Begin()
	if tx.Error != nil {
		return RegisterRejected, fmt.Errorf("database: begin register: %w", tx.Error)
	}
	defer transactionRollbackHandler(tx)

	now := time.Now()

	var existing *domain.AddressRecord
	var record domain.AddressRecord
	err := tx.Where("address = ?", address).First(&record).Error
	switch {
	case err == nil:
		existing = &record
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		tx.Rollback()
		return RegisterRejected, fmt.Errorf("database: lookup address: %w", err)
	}

	res := resolveRegistration(existing, prov)

	if prov.CountsTowardCapacity() && addsTrackedRow(existing, res) {
		var count int64
		if err := tx.Model(&domain.AddressRecord{}).
			Where("active = ? AND provenance <> ?", true, domain.ProvenanceInferred).
			Count(&count).Error; err != nil {
			tx.Rollback()
			return RegisterRejected, fmt.Errorf("database: count tracked records: %w", err)
		}

		if count+1 > int64(config.GetConfig().MaxTracked()) {
			tx.Rollback()
			log.Warn("Tracked address ceiling reached, registration rejected",
				"address", address, "limit", config.GetConfig().MaxTracked())
			return RegisterRejected, nil
		}
	}

	// A newly registered manual address replaces the previous one, which is
	// kept as an active history entry. This never fails the registration
	// itself.
	if prov == domain.ProvenanceManual {
		if err := demoteActiveManual(tx, address, now); err != nil {
			tx.Rollback()
			return RegisterRejected, fmt.Errorf("database: demote manual record: %w", err)
		}
	}

	if res.mutate {
		if existing == nil {
			record = domain.AddressRecord{
				Address:    address,
				Provenance: res.provenance,
				Active:     true,
			}
			if err := tx.Create(&record).Error; err != nil {
				tx.Rollback()
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return RegisterRejected, err
				}
				return RegisterRejected, fmt.Errorf("database: create record: %w", err)
			}
		} else {
			if err := tx.Model(&record).Updates(map[string]any{
				"provenance": res.provenance,
				"active":     true,
				"updated_at": now,
			}).Error; err != nil {
				tx.Rollback()
				return RegisterRejected, fmt.Errorf("database: update record: %w", err)
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return RegisterRejected, fmt.Errorf("database: commit register: %w", err)
	}

	return res.result, nil
}

type registration struct {
	result     RegisterResult
	provenance domain.Provenance
	mutate     bool
}

// resolveRegistration applies the source-precedence rules: row = state of the
// existing record, incoming = requested provenance.
func resolveRegistration(existing *domain.AddressRecord, incoming domain.Provenance) registration {
	if existing == nil {
		return registration{result: RegisterCreated, provenance: incoming, mutate: true}
	}

	switch existing.Provenance {
	case domain.ProvenanceManual, domain.ProvenanceErrorDerived:
		// Operator-entered and failure-observed addresses are authoritative.
		return registration{result: RegisterUnchanged, provenance: existing.Provenance}

	case domain.ProvenanceHistory:
		if incoming == domain.ProvenanceManual || incoming == domain.ProvenanceErrorDerived {
			return registration{result: RegisterUpdated, provenance: incoming, mutate: true}
		}
		return registration{result: RegisterUnchanged, provenance: existing.Provenance}

	case domain.ProvenanceInferred:
		if !existing.Active {
			if incoming == domain.ProvenanceInferred {
				return registration{result: RegisterReactivated, provenance: incoming, mutate: true}
			}
			return registration{result: RegisterUpdated, provenance: incoming, mutate: true}
		}
		if incoming == domain.ProvenanceManual || incoming == domain.ProvenanceErrorDerived {
			return registration{result: RegisterUpdated, provenance: incoming, mutate: true}
		}
		return registration{result: RegisterUnchanged, provenance: existing.Provenance}
	}

	return registration{result: RegisterUnchanged, provenance: existing.Provenance}
}

// addsTrackedRow reports whether applying res turns the row into an active,
// capacity-counted record that was not one before.
func addsTrackedRow(existing *domain.AddressRecord, res registration) bool {
	if !res.mutate || !res.provenance.CountsTowardCapacity() {
		return false
	}
	return existing == nil || !existing.Active || !existing.Provenance.CountsTowardCapacity()
}

func demoteActiveManual(tx *gorm.DB, address string, now time.Time) error {
	return tx.Model(&domain.AddressRecord{}).
		Where("provenance = ? AND active = ? AND address <> ?", domain.ProvenanceManual, true, address).
		Updates(map[string]any{
			"provenance": domain.ProvenanceHistory,
			"updated_at": now,
		}).Error
}

// GetActiveRecords returns active records, newest-created first, optionally
// filtered to the given provenances.
func GetActiveRecords(provenances ...domain.Provenance) ([]domain.AddressRecord, error) {
	if DB == nil {
		return nil, ErrNoDatabase
	}

	query := DB.Where("active = ?", true)
	if len(provenances) > 0 {
		query = query.Where("provenance IN ?", provenances)
	}

	var records []domain.AddressRecord
	if err := query.Order("created_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("database: list active records: %w", err)
	}
	return records, nil
}

// DeactivateRecordByID soft-deletes a record. The returned bool reports
// whether the record exists; deactivating an already-inactive record succeeds
// without a write.
func DeactivateRecordByID(id uint64) (bool, error) {
	return deactivateRecord("id = ?", id)
}

func DeactivateRecordByAddress(address string) (bool, error) {
	return deactivateRecord("address = ?", address)
}

func deactivateRecord(condition string, value any) (bool, error) {
	if DB == nil {
		return false, ErrNoDatabase
	}

	var record domain.AddressRecord
	if err := DB.Where(condition, value).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("database: lookup record: %w", err)
	}

	if !record.Active {
		return true, nil
	}

	if err := DB.Model(&record).Updates(map[string]any{
		"active":     false,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return false, fmt.Errorf("database: deactivate record: %w", err)
	}
	return true, nil
}

// DeactivateRecords soft-deletes a set of records by id and returns how many
// rows changed.
func DeactivateRecords(ids []uint64) (int64, error) {
	if DB == nil {
		return 0, ErrNoDatabase
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := DB.Model(&domain.AddressRecord{}).
		Where("id IN ? AND active = ?", ids, true).
		Updates(map[string]any{
			"active":     false,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("database: deactivate records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// PruneInferred marks every active inferred suggestion stale and, when the
// retained inactive pool exceeds its bound, permanently deletes the
// oldest-updated excess down to the configured floor. This is the only
// deletion path in the store.
func PruneInferred() (deactivated, deleted int64, err error) {
	if DB == nil {
		return 0, 0, ErrNoDatabase
	}

	maxInactive, floor := config.GetConfig().InactiveInferredBounds()

	tx := DB.Begin()
	if tx.Error != nil {
		return 0, 0, fmt.Errorf("database: begin prune: %w", tx.Error)
	}
	defer transactionRollbackHandler(tx)

	res := tx.Model(&domain.AddressRecord{}).
		Where("provenance = ? AND active = ?", domain.ProvenanceInferred, true).
		Updates(map[string]any{
			"active":     false,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		tx.Rollback()
		return 0, 0, fmt.Errorf("database: deactivate inferred records: %w", res.Error)
	}
	deactivated = res.RowsAffected

	var inactiveCount int64
	if err := tx.Model(&domain.AddressRecord{}).
		Where("provenance = ? AND active = ?", domain.ProvenanceInferred, false).
		Count(&inactiveCount).Error; err != nil {
		tx.Rollback()
		return 0, 0, fmt.Errorf("database: count inactive inferred: %w", err)
	}

	if inactiveCount > int64(maxInactive) {
		excess := inactiveCount - int64(floor)

		var ids []uint64
		if err := tx.Model(&domain.AddressRecord{}).
			Where("provenance = ? AND active = ?", domain.ProvenanceInferred, false).
			Order("updated_at ASC").
			Limit(int(excess)).
			Pluck("id", &ids).Error; err != nil {
			tx.Rollback()
			return 0, 0, fmt.Errorf("database: select prune candidates: %w", err)
		}

		for start := 0; start < len(ids); start += deleteChunkSize {
			end := start + deleteChunkSize
			if end > len(ids) {
				end = len(ids)
			}
			res := tx.Where("id IN ?", ids[start:end]).Delete(&domain.AddressRecord{})
			if res.Error != nil {
				tx.Rollback()
				return 0, 0, fmt.Errorf("database: delete pruned records: %w", res.Error)
			}
			deleted += res.RowsAffected
		}
	}

	if err := tx.Commit().Error; err != nil {
		return 0, 0, fmt.Errorf("database: commit prune: %w", err)
	}

	if deactivated > 0 || deleted > 0 {
		log.Debug("Pruned inferred records", "deactivated", deactivated, "deleted", deleted)
	}
	return deactivated, deleted, nil
}

// DeactivateStaleRecords soft-deletes active records whose last observation
// predates cutoff. The manual entry is exempt; an operator removes it
// explicitly or by registering a replacement.
func DeactivateStaleRecords(cutoff time.Time) (int64, error) {
	if DB == nil {
		return 0, ErrNoDatabase
	}

	res := DB.Model(&domain.AddressRecord{}).
		Where("active = ? AND provenance <> ? AND updated_at < ?", true, domain.ProvenanceManual, cutoff).
		Updates(map[string]any{
			"active":     false,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("database: deactivate stale records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CountActiveRecords counts active records, optionally excluding inferred
// suggestions (the capacity-relevant count).
func CountActiveRecords(excludeInferred bool) (int64, error) {
	if DB == nil {
		return 0, ErrNoDatabase
	}

	query := DB.Model(&domain.AddressRecord{}).Where("active = ?", true)
	if excludeInferred {
		query = query.Where("provenance <> ?", domain.ProvenanceInferred)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("database: count active records: %w", err)
	}
	return count, nil
}

// CountActiveByProvenance breaks the active record count down per provenance.
func CountActiveByProvenance() (map[domain.Provenance]int64, error) {
	if DB == nil {
		return nil, ErrNoDatabase
	}

	var rows []struct {
		Provenance domain.Provenance
		Total      int64
	}
	if err := DB.Model(&domain.AddressRecord{}).
		Select("provenance, COUNT(*) AS total").
		Where("active = ?", true).
		Group("provenance").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("database: count by provenance: %w", err)
	}

	counts := make(map[domain.Provenance]int64, len(rows))
	for _, row := range rows {
		counts[row.Provenance] = row.Total
	}
	return counts, nil
}
