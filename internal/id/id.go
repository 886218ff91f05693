// Package id generates short prefixed identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// alphabet avoids look-alike characters so IDs can be read off a log line.
const alphabet = "23456789abcdefghijkmnpqrstuvwxyz"

// size keeps IDs short; they only need to be unique among the sessions of
// one machine.
const size = 12

// Prefixes of the identifiers in use.
const (
	PrefixSession = "ses"
	PrefixBatch   = "bat"
)

// Generate creates an ID of the form prefix-xxxxxxxxxxxx.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
