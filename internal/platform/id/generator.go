package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Generator creates opaque IDs suitable for external references. The prefix
// names the entity kind, so an ID is recognizable in logs without a lookup.
type Generator interface {
	NewID(prefix string) (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID(prefix string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	encoded := hex.EncodeToString(buf)
	if prefix == "" {
		return encoded, nil
	}
	return prefix + "-" + encoded, nil
}
