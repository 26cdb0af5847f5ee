package collector

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// ownerIDLength is the number of hex characters kept from the digest
const ownerIDLength = 16

// OwnerCell holds the owner id of a run. The first non-empty value set wins
// and later values are ignored.
type OwnerCell struct {
	mu    sync.Mutex
	value string
	set   bool
}

// Set stores id if the cell is still empty. It reports whether id was stored.
func (c *OwnerCell) Set(id string) bool {
	if id == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return false
	}
	c.value = id
	c.set = true
	return true
}

// Get returns the stored owner id, or an empty string if none was set
func (c *OwnerCell) Get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// AnonymizeOwnerID returns the leading hex characters of the sha256 digest
// of an account id. The empty string maps to itself.
func AnonymizeOwnerID(accountID string) string {
	if accountID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(accountID))
	return hex.EncodeToString(sum[:])[:ownerIDLength]
}
