package snaptest

import (
	"strings"
	"testing"
)

type label struct{ text string }

func (l label) String() string { return "label:" + l.text }

func TestDefaultSerializer(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "<button/>", "<button/>"},
		{"bytes", []byte("raw"), "raw"},
		{"stringer", label{"ok"}, "label:ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DefaultSerializer(tt.value)
			if err != nil {
				t.Fatalf("DefaultSerializer() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DefaultSerializer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpewSerializer_Stable(t *testing.T) {
	type props struct {
		Label string
		Tags  map[string]int
		Next  *props
	}
	v := props{Label: "ok", Tags: map[string]int{"b": 2, "a": 1, "c": 3}, Next: &props{Label: "child"}}

	first, err := SpewSerializer(v)
	if err != nil {
		t.Fatalf("SpewSerializer() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := SpewSerializer(v)
		if again != first {
			t.Fatalf("SpewSerializer() not stable:\n%s\n---\n%s", first, again)
		}
	}

	if strings.Index(first, `"a"`) > strings.Index(first, `"b"`) {
		t.Errorf("map keys not sorted:\n%s", first)
	}
	if strings.Contains(first, "0x") {
		t.Errorf("pointer address leaked:\n%s", first)
	}
	if strings.HasSuffix(first, "\n") {
		t.Errorf("trailing newline kept:\n%q", first)
	}
}

func TestJSONSerializer(t *testing.T) {
	got, err := JSONSerializer(map[string]string{"html": "<b>&</b>"})
	if err != nil {
		t.Fatalf("JSONSerializer() error = %v", err)
	}
	want := "{\n  \"html\": \"<b>&</b>\"\n}"
	if got != want {
		t.Errorf("JSONSerializer() = %q, want %q", got, want)
	}

	if _, err := JSONSerializer(make(chan int)); err == nil {
		t.Error("JSONSerializer(chan) should fail")
	}
}
