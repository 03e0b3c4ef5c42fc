package domain

import "strings"

// SaltRecord is the durable record of a sentinel salt and its commitment.
// The commitment is the keccak256 hash of the salt and acts as the unique key.
type SaltRecord struct {
	Commitment string  `json:"commitment"`
	Salt       string  `json:"salt"`
	PoolID     *uint64 `json:"poolId,omitempty"`
	Revealed   bool    `json:"revealed,omitempty"`
	Label      string  `json:"label,omitempty"`
	CreatedAt  int64   `json:"createdAt,omitempty"`
	ImportedAt int64   `json:"importedAt,omitempty"`
}

// StoreDump is the full content of the salt store, the persisted file layout
// and the payload of the operator-only dump endpoint.
type StoreDump struct {
	Commits map[string]SaltRecord `json:"commits"`
	Pools   map[uint64]string     `json:"pools"`
}

// IsHex32 reports whether s is a 0x-prefixed 32-byte hex string.
func IsHex32(s string) bool {
	if len(s) != 66 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
