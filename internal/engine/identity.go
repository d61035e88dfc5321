package engine

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digests of the reference models shipped with the service. Any other model
// is treated as custom-trained and gets the custom normalization preset.
var bundledDigests = map[string]bool{
	"33b5cd351ee94e73a6bf8fa18c415ed8b819b3ffd342e267c30d8ad8334e34e8": true,
	"b8f2ad9cbc1f2e3922a6cb9459e30824e7e2467f3fb4fd61420640e34ea0bf68": true,
}

// Digest returns the hex SHA-256 of the model bytes.
func Digest(model []byte) string {
	sum := sha256.Sum256(model)
	return hex.EncodeToString(sum[:])
}

// IsCustom reports whether the model bytes are not one of the bundled reference models.
func IsCustom(model []byte) bool {
	return !bundledDigests[Digest(model)]
}
