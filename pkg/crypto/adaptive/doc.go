// Package adaptive provides authenticated encryption for statevault records.
//
// Supported algorithms:
//
//   - AES-GCM: preferred when hardware AES support is available
//   - ChaCha20-Poly1305: fallback for other platforms
//
// Keys come from raw key material or an Argon2id-stretched passphrase, and
// are always passed through HKDF-SHA256 with a purpose string before use:
//
//	c, err := adaptive.FromConfig(adaptive.KeyConfig{
//		Passphrase: pass,
//		Salt:       salt,
//		Purpose:    "statevault/record",
//	})
//	sealed, err := c.Encrypt(plaintext, aad)
package adaptive
