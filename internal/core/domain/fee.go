package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// FeeAssessment is the outcome of the local occupancy-fee formula.
// DurationDays counts both boundary days; TotalCZK is rounded half-up
// to whole crowns.
type FeeAssessment struct {
	AreaM2          float64 `json:"area_m2"`
	DurationDays    int     `json:"duration_days"`
	RateCZKPerM2Day float64 `json:"rate_czk_per_m2_day"`
	TotalCZK        int64   `json:"total_czk"`
	VariableSymbol  string  `json:"variable_symbol,omitempty"`
}

// VariableSymbolFor derives the 10-digit payment identifier banks use
// to pair incoming transfers with a draft. Deterministic per draft id.
func VariableSymbolFor(draftID string) string {
	sum := sha256.Sum256([]byte(draftID))
	n := binary.BigEndian.Uint64(sum[:8]) % 10_000_000_000
	return fmt.Sprintf("%010d", n)
}
