// Package digest computes content digests for guard checks and
// selector hash matching: SHA-256 over UTF-8 bytes, encoded as
// truncated base64 (primary) or truncated hex (fallback).
package digest

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"jsedit/internal/bytemap"
)

// Config controls digest encoding and truncation length.
type Config struct {
	// Encoding is "base64" (default/primary) or "hex" (fallback).
	Encoding string
	// Length is the number of encoded characters to keep. 0 means
	// keep the full encoded digest.
	Length int
}

// DefaultConfig is the primary encoding and truncation: base64,
// truncated to 12 characters — the hash prefix length used throughout
// CLI output.
func DefaultConfig() Config {
	return Config{Encoding: "base64", Length: 12}
}

// CreateDigest computes a full SHA-256 digest over text and encodes it
// per cfg.
func CreateDigest(cfg Config, text string) string {
	sum := sha256.Sum256([]byte(text))
	return encode(cfg, sum[:])
}

// ComputeHash computes the digest of the slice of source described by
// span, using the byte endpoints (digests are defined over bytes, not
// code units, so multibyte content digests consistently regardless of
// mapper direction).
func ComputeHash(cfg Config, m *bytemap.Mapper, span bytemap.Span) string {
	return CreateDigest(cfg, m.SliceString(span))
}

func encode(cfg Config, sum []byte) string {
	var encoded string
	switch cfg.Encoding {
	case "hex":
		encoded = hex.EncodeToString(sum)
	default:
		encoded = base64.RawURLEncoding.EncodeToString(sum)
	}
	if cfg.Length > 0 && cfg.Length < len(encoded) {
		return encoded[:cfg.Length]
	}
	return encoded
}

// CandidateForms returns the hash in every encoding the selector
// engine is willing to compare against: a hash typed by a user (or
// embedded in a plan/selector) may be base64 or hex, full-length or
// truncated. Matching is done by prefix membership in either set,
// since truncation is lossy and cannot be round-tripped.
func CandidateForms(sum [sha256.Size]byte) []string {
	return []string{
		base64.RawURLEncoding.EncodeToString(sum[:]),
		hex.EncodeToString(sum[:]),
	}
}

// Matches reports whether candidate (a hash value supplied by a user,
// possibly truncated, possibly hex or base64) is consistent with the
// full digest of text. It tries both encodings and accepts a prefix
// match of any length the candidate actually specifies.
func Matches(text, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}
	sum := sha256.Sum256([]byte(text))
	for _, form := range CandidateForms(sum) {
		if strings.HasPrefix(form, candidate) {
			return true
		}
	}
	return false
}

// NormalizeCandidates expands a list of hash filter values (as typed
// in a selector's hash= clause) into a set tolerant of encoding choice:
// for each input value, attempts a hex-decode and a base64-decode
// round trip and folds the re-encoded forms in, so "hash:DEADBEEF.."
// and "hash:3q2-7w.." referring to the same bytes both resolve.
func NormalizeCandidates(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values)*2)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out[v] = struct{}{}
		if raw, err := hex.DecodeString(v); err == nil {
			out[base64.RawURLEncoding.EncodeToString(raw)] = struct{}{}
		}
		if raw, err := base64.RawURLEncoding.DecodeString(v); err == nil {
			out[hex.EncodeToString(raw)] = struct{}{}
		}
	}
	return out
}
