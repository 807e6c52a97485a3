package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestContent_SetKeepsInsertionOrder(t *testing.T) {
	c := NewContent()
	c.Set("b 1", "B")
	c.Set("a 1", "A")
	c.Set("b 1", "B2")

	if got, want := c.Keys(), []string{"b 1", "a 1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if v, _ := c.Get("b 1"); v != "B2" {
		t.Errorf("Get(b 1) = %q, want %q", v, "B2")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestContent_NilReceiver(t *testing.T) {
	var c *Content
	if _, ok := c.Get("x"); ok {
		t.Error("Get on nil content should report absent")
	}
	if c.Len() != 0 || c.Keys() != nil {
		t.Error("nil content should be empty")
	}
}

func TestContent_ZeroValueSet(t *testing.T) {
	var c Content
	c.Set("t 1", "v")

	if got, ok := c.Get("t 1"); !ok || got != "v" {
		t.Errorf("Get() = %q, %v, want v, true", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestContent_JSONRoundTrip(t *testing.T) {
	c := NewContent()
	c.Set("z 1", "button")
	c.Set("a 1", "line1\nline2 \"quoted\"")
	c.Set(MetaCSSClassName, "btn")

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"z 1":"button","a 1":"line1\nline2 \"quoted\"","cssClassName":"btn"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	got := NewContent()
	if err := json.Unmarshal(data, got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !got.Equal(c) {
		t.Errorf("round trip mismatch: %v vs %v", got.Keys(), c.Keys())
	}
}

func TestContent_UnmarshalRejectsNonObject(t *testing.T) {
	tests := []string{`[]`, `{"a": 1}`, `"x"`}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			c := NewContent()
			if err := json.Unmarshal([]byte(in), c); err == nil {
				t.Errorf("Unmarshal(%s) should fail", in)
			}
		})
	}
}

func TestContent_Clone(t *testing.T) {
	c := NewContent()
	c.Set("t 1", "old")
	clone := c.Clone()
	clone.Set("t 1", "new")

	if v, _ := c.Get("t 1"); v != "old" {
		t.Errorf("Clone should be independent, original = %q", v)
	}
	if c.Equal(clone) {
		t.Error("Equal should detect the changed value")
	}
}

func TestSnapshotKey(t *testing.T) {
	if got := SnapshotKey("renders default", 1); got != "renders default 1" {
		t.Errorf("SnapshotKey() = %q", got)
	}
	if !(Task{}).IsZero() {
		t.Error("zero Task should report IsZero")
	}
}

func TestIsMetaKey(t *testing.T) {
	for key, want := range map[string]bool{
		MetaCSSClassName:   true,
		MetaDecorator:      true,
		"renders button 1": false,
		"":                 false,
	} {
		if got := IsMetaKey(key); got != want {
			t.Errorf("IsMetaKey(%q) = %v, want %v", key, got, want)
		}
	}
}
