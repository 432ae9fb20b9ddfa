// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warren Contributors

// Package digest computes the stable 32-bit state digest used for replay
// identity. The digest is FNV-1a over a canonical JSON rendering of a value:
// object keys in ascending lexicographic order, array order preserved,
// numbers in shortest round-trip form. It is a fingerprint, not a
// cryptographic hash.
package digest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/oops"
)

// FNV-1a 32-bit parameters, shared with the generation seed mixer.
const (
	fnvOffset32 uint32 = 0x811C9DC5
	fnvPrime32  uint32 = 0x01000193
)

// Sum returns the 8-hex-character lowercase digest of v.
// Values must be JSON-serializable; struct fields follow their json tags.
func Sum(v any) (string, error) {
	data, err := Canonical(v)
	if err != nil {
		return "", err
	}

	h := fnvOffset32
	for _, b := range data {
		h ^= uint32(b)
		h *= fnvPrime32
	}
	return fmt.Sprintf("%08x", h), nil
}

// Canonical returns the canonical JSON encoding of v. The value is first
// marshaled with encoding/json (applying struct tags), then re-rendered with
// sorted object keys and verbatim number literals.
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, oops.Code("DIGEST_MARSHAL_FAILED").Wrap(err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, oops.Code("DIGEST_DECODE_FAILED").Wrap(err)
	}

	var sb strings.Builder
	if err := writeCanonical(&sb, tree); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// writeCanonical renders a decoded JSON tree deterministically.
func writeCanonical(sb *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if val {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case json.Number:
		// Number literals pass through as marshaled; encoding/json already
		// emits the shortest round-trip form.
		sb.WriteString(val.String())
	case string:
		return writeString(sb, val)
	case []any:
		sb.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeCanonical(sb, elem); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeString(sb, k); err != nil {
				return err
			}
			sb.WriteByte(':')
			if err := writeCanonical(sb, val[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	default:
		return oops.Code("DIGEST_UNSUPPORTED_TYPE").
			With("type", fmt.Sprintf("%T", v)).
			Errorf("cannot canonicalize value")
	}
	return nil
}

// writeString escapes a string the way encoding/json does, so every
// implementation of the digest agrees on string bytes.
func writeString(sb *strings.Builder, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return oops.Code("DIGEST_STRING_FAILED").Wrap(err)
	}
	sb.Write(b)
	return nil
}
