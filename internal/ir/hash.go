package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainTerm    = "eqsat/term/v1"
	DomainRuleset = "eqsat/ruleset/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TermHash computes the content identity of a term.
// Structurally equal terms hash equally regardless of how they were built.
func TermHash(t Term) (string, error) {
	canonical, err := MarshalCanonical(t.String())
	if err != nil {
		return "", fmt.Errorf("TermHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTerm, canonical), nil
}

// RulesetHash computes the content identity of an ordered rule list.
// Reordering rules changes the hash because rule order changes runs.
func RulesetHash(rules []RuleSpec) (string, error) {
	canonical, err := MarshalCanonical(RulesToCanonical(rules))
	if err != nil {
		return "", fmt.Errorf("RulesetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleset, canonical), nil
}
