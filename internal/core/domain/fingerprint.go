package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint addresses an extraction result by what produced it:
// the exact document bytes, the modality, and the model identifier.
// The model is part of the key so a model upgrade invalidates by
// missing instead of serving stale fields. No timestamp goes in.
func Fingerprint(content []byte, modality Modality, model string) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(modality))
	h.Write([]byte{0})
	h.Write([]byte(model))
	return hex.EncodeToString(h.Sum(nil))
}
