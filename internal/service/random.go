package service

import (
	crand "crypto/rand"
	"encoding/hex"
)

func randomHex(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		fallback := make([]byte, n)
		for i := range fallback {
			fallback[i] = byte('A' + (i % 26))
		}
		return hex.EncodeToString(fallback)
	}
	return hex.EncodeToString(buf)
}
