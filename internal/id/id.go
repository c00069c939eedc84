package id

import "crypto/rand"

const chars = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateID creates a unique 16-character alphanumeric ID.
func GenerateID() string {
	return random(16)
}

// Suffix creates a short 8-character ID for Block Kit element IDs,
// where uniqueness only matters within a single message.
func Suffix() string {
	return random(8)
}

func random(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = chars[b[i]%byte(len(chars))]
	}
	return string(b)
}
