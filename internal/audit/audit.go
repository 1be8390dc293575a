// Package audit computes reproducible digests of programs and their inputs.
package audit

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/tupa-lang/tupa/internal/ast"
)

// Canonicalize encodes v as canonical JSON: object keys sorted, no
// insignificant whitespace, no HTML escaping, numbers kept as written.
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode audit payload")
	}

	// Round-trip through generic values so struct field order does not leak
	// into the output.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, errors.Wrap(err, "failed to normalize audit payload")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, errors.Wrap(err, "failed to encode canonical payload")
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Digest returns the hex BLAKE2b-256 digest of the canonical form of v.
func Digest(v any) (string, error) {
	data, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Hash digests a program together with the toolchain version and, when
// non-nil, its inputs.
func Hash(version string, prog *ast.Program, inputs any) (string, error) {
	payload := map[string]any{
		"version": version,
		"ast":     ast.ToJSON(prog),
	}
	if inputs != nil {
		payload["inputs"] = inputs
	}
	return Digest(payload)
}
