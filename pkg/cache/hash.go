package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Keyer generates cache keys for reefrank artifacts.
type Keyer interface {
	// CentralityKey returns the key for centrality vectors derived from the
	// connectivity matrix with the given content hash.
	CentralityKey(matrixHash string, opts CentralityKeyOpts) string

	// RunKey returns the key for a serialized rank run.
	RunKey(runID string) string
}

// CentralityKeyOpts holds the parameters that change centrality output.
type CentralityKeyOpts struct {
	KatzAlpha float64 `json:"katz_alpha"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// CentralityKey implements Keyer.
func (DefaultKeyer) CentralityKey(matrixHash string, opts CentralityKeyOpts) string {
	return hashKey("centrality", matrixHash, opts)
}

// RunKey implements Keyer.
func (DefaultKeyer) RunKey(runID string) string {
	return "run:" + runID
}
