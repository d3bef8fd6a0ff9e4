// Package canon produces canonical JSON and content-addressed identities.
//
// Canonical JSON sorts object keys by UTF-16 code units, disables HTML
// escaping, NFC-normalizes strings and writes floats in their shortest
// round-trip form. The same value always serializes to the same bytes, so
// hashes of parameter sets are stable across runs and platforms.
//
// Identities are SHA-256 over a versioned domain prefix, a 0x00 separator and
// the canonical bytes.
package canon
