package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefix for graph content hashes. The version suffix allows the
// algorithm to change later.
const DomainGraph = "namedtensor/graph/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GraphHash computes the content hash of a compiled graph. Two graphs with
// the same tensors and operations in the same order hash equally; the
// graph's name is part of the hash.
//
// Struct fields marshal in declaration order and names are NFC-normalised
// by the compiler, so encoding/json output is already canonical here.
func GraphHash(g Graph) (string, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("GraphHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGraph, data), nil
}

// MustGraphHash is like GraphHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustGraphHash(g Graph) string {
	h, err := GraphHash(g)
	if err != nil {
		panic(err)
	}
	return h
}
