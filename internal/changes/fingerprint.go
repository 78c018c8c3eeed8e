package changes

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a hex BLAKE2b-256 digest of the canonical JSON encoding
// of m. encoding/json sorts map keys, so equal maps share a fingerprint.
func Fingerprint(m ChangeMap) (string, error) {
	if m == nil {
		m = ChangeMap{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode change map: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
