package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// canonicalJSON marshals v deterministically. encoding/json already emits map
// keys in sorted order and struct fields in declaration order, which is all
// the stability the content-addressing scheme needs.
func canonicalJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("domain: value not canonicalizable: %v", err))
	}
	return b
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
