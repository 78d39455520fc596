package fact

import (
	"testing"
)

func TestMarshalCanonical_SortsObjectKeys(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"zulu":  "z",
		"alpha": "a",
		"mike":  "m",
	})
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	want := `{"alpha":"a","mike":"m","zulu":"z"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestMarshalCanonical_NestedDeterminism(t *testing.T) {
	v := map[string]any{
		"outer": map[string]any{"b": int64(2), "a": int64(1)},
		"list":  []any{"x", int64(7), true},
	}
	first, err := MarshalCanonical(v)
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(v)
		if err != nil {
			t.Fatalf("MarshalCanonical() iteration %d failed: %v", i, err)
		}
		if string(again) != string(first) {
			t.Fatalf("iteration %d produced different bytes: %s vs %s", i, again, first)
		}
	}
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" as the precomposed rune vs "e" + combining acute accent.
	composed := "café"
	decomposed := "café"

	a, err := MarshalCanonical(composed)
	if err != nil {
		t.Fatalf("MarshalCanonical(composed) failed: %v", err)
	}
	b, err := MarshalCanonical(decomposed)
	if err != nil {
		t.Fatalf("MarshalCanonical(decomposed) failed: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("NFC forms serialize differently: %s vs %s", a, b)
	}
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical("<a> & <b>")
	if err != nil {
		t.Fatalf("MarshalCanonical() failed: %v", err)
	}
	want := `"<a> & <b>"`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	if _, err := MarshalCanonical(map[string]any{"score": 0.5}); err == nil {
		t.Error("expected error for float value, got nil")
	}
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	if _, err := MarshalCanonical(map[string]any{"gone": nil}); err == nil {
		t.Error("expected error for null value, got nil")
	}
}

func TestMarshalCanonical_RejectsUnsupportedTypes(t *testing.T) {
	if _, err := MarshalCanonical(struct{ X int }{1}); err == nil {
		t.Error("expected error for struct value, got nil")
	}
}
