// Package ir provides the shared vocabulary types for eqsat.
//
// This package contains the term language, class identifiers, match
// substitutions and authored rule descriptions. All other internal packages
// import ir; ir imports nothing internal. This keeps IR the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Terms are flat, post-order node lists; children always refer to
//     earlier nodes, so the last node is the root.
//   - Operator names are interned Symbols; comparison is an integer compare.
//   - Canonical JSON (RFC 8785) is the only serialization used for
//     content-addressed identity (TermHash, RulesetHash).
//   - All JSON tags use snake_case.
package ir
