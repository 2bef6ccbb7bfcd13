package codec

import "testing"

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry[map[string]any]()
	r.Register(JSONCodec{})

	c, ok := r.Lookup("json")
	if !ok {
		t.Fatal("expected json codec to be registered")
	}

	decoded, err := c.Decode([]byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["a"].(float64) != 1 {
		t.Fatalf("unexpected decode result: %v", decoded)
	}

	encoded, err := c.Encode(decoded)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if len(encoded) == 0 {
		t.Fatal("expected non-empty encoded bytes")
	}
}

func TestRegistryLookupMissingFormat(t *testing.T) {
	r := NewRegistry[map[string]any]()
	if _, ok := r.Lookup("xml"); ok {
		t.Fatal("expected xml format to be unregistered")
	}
}

func TestJSONArrayCodecRoundTrip(t *testing.T) {
	c := JSONArrayCodec{}
	raw := []byte(`[{"id":1},{"id":2}]`)
	decoded, err := c.Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 records, got %d", len(decoded))
	}

	encoded, err := c.Encode(decoded)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	redecoded, err := c.Decode(encoded)
	if err != nil {
		t.Fatalf("unexpected re-decode error: %v", err)
	}
	if len(redecoded) != 2 {
		t.Fatalf("round trip lost records: %v", redecoded)
	}
}
