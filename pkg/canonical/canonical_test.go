package canonical

import (
	"strings"
	"testing"
)

func TestMarshalSortsKeys(t *testing.T) {
	got, err := Marshal(map[string]any{"zeta": 1, "alpha": 2, "mid": 3})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"alpha":2,"mid":3,"zeta":1}`
	if string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestMarshalSortsNestedKeys(t *testing.T) {
	got, err := Marshal(map[string]any{
		"outer": map[string]any{"b": []any{map[string]any{"y": 1, "x": 2}}, "a": 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"outer":{"a":0,"b":[{"x":2,"y":1}]}}`
	if string(got) != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestMarshalNoHTMLEscaping(t *testing.T) {
	got, err := Marshal(map[string]string{"q": `a<b && c>d`})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(got), `<`) || strings.Contains(string(got), `&`) {
		t.Errorf("HTML escaping leaked into canonical output: %s", got)
	}
}

func TestTransformIdempotent(t *testing.T) {
	raw := []byte(`{
		"b": [1, 2.5, 3],
		"a": {"nested": true},
		"c": null
	}`)
	once, err := Transform(raw)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Transform(once)
	if err != nil {
		t.Fatal(err)
	}
	if string(once) != string(twice) {
		t.Errorf("Transform not idempotent:\n once: %s\ntwice: %s", once, twice)
	}
	if strings.ContainsAny(string(once), " \n\t") {
		t.Errorf("canonical form contains insignificant whitespace: %s", once)
	}
}

func TestTransformPreservesNumberText(t *testing.T) {
	// json.Number passthrough: the source spelling survives, so 0.35 can
	// never come back as 0.35000000000000003.
	got, err := Transform([]byte(`{"t":0.35,"n":-2,"big":12345678901234567890}`))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"0.35", "-2", "12345678901234567890"} {
		if !strings.Contains(string(got), want) {
			t.Errorf("number %s not preserved in %s", want, got)
		}
	}
}

func TestTransformRejectsInvalid(t *testing.T) {
	if _, err := Transform([]byte(`{"a":`)); err == nil {
		t.Error("expected decode error for truncated JSON")
	}
}

func TestHashStable(t *testing.T) {
	h1, err := Hash(map[string]int{"a": 1, "b": 2})
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := Hash(map[string]int{"b": 2, "a": 1})
	if h1 != h2 {
		t.Error("hash differs for equal maps")
	}
	h3, _ := Hash(map[string]int{"a": 1, "b": 3})
	if h1 == h3 {
		t.Error("hash collision for different content")
	}
	if len(h1) != 64 {
		t.Errorf("hash length %d, want 64", len(h1))
	}
}

func TestMarshalArraysKeepOrder(t *testing.T) {
	got, err := Marshal([]int{3, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "[3,1,2]" {
		t.Errorf("array order changed: %s", got)
	}
}
