package domain

import "time"

// Provenance records why an address entered the store.
type Provenance string

const (
	ProvenanceManual       Provenance = "manual"
	ProvenanceErrorDerived Provenance = "error"
	ProvenanceHistory      Provenance = "history"
	ProvenanceInferred     Provenance = "inferred"
)

// ParseProvenance maps a wire/provenance string to its typed value.
func ParseProvenance(raw string) (Provenance, bool) {
	switch Provenance(raw) {
	case ProvenanceManual, ProvenanceErrorDerived, ProvenanceHistory, ProvenanceInferred:
		return Provenance(raw), true
	}
	return "", false
}

// CountsTowardCapacity reports whether records of this provenance are subject
// to the tracked-address ceiling. Inferred suggestions are disposable and
// exempt.
func (p Provenance) CountsTowardCapacity() bool {
	return p != ProvenanceInferred
}

type AddressRecord struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Address    string     `gorm:"size:45;not null;uniqueIndex" json:"address"`
	Provenance Provenance `gorm:"size:20;not null;index" json:"provenance"`
	Active     bool       `gorm:"not null;default:true;index" json:"active"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
