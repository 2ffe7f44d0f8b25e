package audit

import (
	"crypto/sha256"
	"encoding/base64"
	"sort"
)

// Fingerprinter derives a non-reversible identifier from a secret value so
// audit entries can reference credentials and envelopes without storing them.
type Fingerprinter func(value string) string

const (
	DefaultFingerprintType    = "default"
	CredentialFingerprintType = "credential"
	EnvelopeFingerprintType   = "envelope"
)

var fingerprintRegistry = map[string]Fingerprinter{
	DefaultFingerprintType: func(_ string) string {
		return "(n/a)"
	},
}

func RegisterFingerprinter(valueType string, fn Fingerprinter) {
	fingerprintRegistry[valueType] = fn
}

func RegisteredFingerprinterTypes() []string {
	types := make([]string, 0, len(fingerprintRegistry))
	for t := range fingerprintRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func CalculateFingerprint(valueType, value string) string {
	fn, ok := fingerprintRegistry[valueType]
	if !ok {
		fn = fingerprintRegistry[DefaultFingerprintType]
	}
	return fn(value)
}

func init() {
	RegisterFingerprinter(CredentialFingerprintType, calculateSHA256Fingerprint)
	RegisterFingerprinter(EnvelopeFingerprintType, calculateSHA256Fingerprint)
}

func calculateSHA256Fingerprint(value string) string {
	hash := sha256.Sum256([]byte(value))
	return base64.StdEncoding.EncodeToString(hash[:])
}
