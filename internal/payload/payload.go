// Package payload loads an export file and parses it into a generic value.
// The parsed value feeds schema detection; the raw bytes are kept so the
// typed decoders can unmarshal the same document again.
package payload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Encoding is the serialization a payload was parsed from.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

// Payload is an immutable parsed export file.
type Payload struct {
	Path     string
	Filename string
	Encoding Encoding
	Size     int64
	Raw      []byte
	Value    any
}

// ParseError reports raw text that is not valid JSON or YAML. Fatal for
// the file; there is no partial recovery.
type ParseError struct {
	Filename string
	Encoding Encoding
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s as %s: %v", e.Filename, e.Encoding, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads the whole file and parses it. The read completes before
// parsing begins; nothing downstream touches the filesystem again.
func Load(path string) (*Payload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	p, err := Parse(raw, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	p.Path = path
	p.Size = int64(len(raw))
	return p, nil
}

// Parse decodes raw bytes, choosing the decoder from the filename
// extension: .yaml/.yml parse as YAML, everything else as JSON.
func Parse(raw []byte, filename string) (*Payload, error) {
	enc := encodingFor(filename)

	var v any
	switch enc {
	case EncodingYAML:
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, &ParseError{Filename: filename, Encoding: enc, Err: err}
		}
		v = normalizeYAML(v)
	default:
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, &ParseError{Filename: filename, Encoding: enc, Err: err}
		}
	}

	return &Payload{
		Filename: filename,
		Encoding: enc,
		Size:     int64(len(raw)),
		Raw:      raw,
		Value:    v,
	}, nil
}

func encodingFor(filename string) Encoding {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return EncodingYAML
	}
	return EncodingJSON
}

// normalizeYAML rewrites yaml.v3 output so detection and decoding see the
// same shapes a JSON parse would produce: map keys become strings and
// integer scalars stay comparable with JSON's float64 numbers.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}

// JSON returns the payload re-encoded as JSON. YAML payloads go through
// this so the typed decoders only ever see one wire format.
func (p *Payload) JSON() ([]byte, error) {
	if p.Encoding == EncodingJSON {
		return p.Raw, nil
	}
	b, err := json.Marshal(p.Value)
	if err != nil {
		return nil, fmt.Errorf("re-encode %s: %w", p.Filename, err)
	}
	return b, nil
}
