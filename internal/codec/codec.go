// Package codec implements the format registry an IOContext uses to decode
// fetched bytes into a typed record and encode that record back to bytes
// for storage. The original collection engine resolved this dynamically at
// runtime via reflection over function signatures (contentio.py's
// reg_input/reg_output registries keyed by format name); Go's type system
// lets this be an explicit, compile-time-checked Codec[T] instead, so a
// mismatched codec/record type is a build failure, not a runtime one.
package codec

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Codec decodes raw bytes into T and encodes T back to bytes, for one named
// wire format (e.g. "json", "jsonl", "csv").
type Codec[T any] interface {
	Format() string
	Decode(raw []byte) (T, error)
	Encode(v T) ([]byte, error)
}

// Registry holds Codec[T] instances keyed by format name. Registration
// happens once at configuration time, before any IOContext is constructed —
// concurrent registration during a run is not supported, matching the
// write-once-before-start discipline used for storage engines and buffer
// limits.
type Registry[T any] struct {
	mu     sync.RWMutex
	codecs map[string]Codec[T]
}

// NewRegistry creates an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{codecs: make(map[string]Codec[T])}
}

// Register adds a codec under its own Format() name.
func (r *Registry[T]) Register(c Codec[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[c.Format()] = c
}

// Lookup returns the codec registered for format, or ok=false.
func (r *Registry[T]) Lookup(format string) (Codec[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[format]
	return c, ok
}

// MustLookup is Lookup but panics on a missing format — used at
// configuration time where a missing codec is a build-time mistake, not a
// runtime condition to recover from.
func (r *Registry[T]) MustLookup(format string) Codec[T] {
	c, ok := r.Lookup(format)
	if !ok {
		panic(fmt.Sprintf("codec: no %q codec registered", format))
	}
	return c
}

// --- Built-in JSON codec, for T = map[string]any (the common case for API
// data collectors) ---

// JSONCodec decodes/encodes a single JSON object.
type JSONCodec struct{}

func (JSONCodec) Format() string { return "json" }

func (JSONCodec) Decode(raw []byte) (map[string]any, error) {
	var v map[string]any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}

func (JSONCodec) Encode(v map[string]any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return b, nil
}

// JSONArrayCodec decodes/encodes a JSON array of objects — the common shape
// for a paginated listing endpoint's response body.
type JSONArrayCodec struct{}

func (JSONArrayCodec) Format() string { return "json_array" }

func (JSONArrayCodec) Decode(raw []byte) ([]map[string]any, error) {
	var v []map[string]any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode json array: %w", err)
	}
	return v, nil
}

func (JSONArrayCodec) Encode(v []map[string]any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json array: %w", err)
	}
	return b, nil
}

// CSVCodec decodes/encodes a single CSV record as a string slice.
type CSVCodec struct{}

func (CSVCodec) Format() string { return "csv" }

func (CSVCodec) Decode(raw []byte) ([]string, error) {
	r := csv.NewReader(strings.NewReader(string(raw)))
	rec, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	return rec, nil
}

func (CSVCodec) Encode(v []string) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(v); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}
