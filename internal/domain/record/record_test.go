package record

import (
	"encoding/json"
	"testing"
)

func TestKey(t *testing.T) {
	r := Record{Title: "Postgres", SourceURL: "https://pg.example"}
	if r.Key() != "https://pg.example" {
		t.Errorf("expected URL key, got %q", r.Key())
	}

	r = Record{Title: "Postgres"}
	if r.Key() != "title:Postgres" {
		t.Errorf("expected title fallback key, got %q", r.Key())
	}
}

func TestStringList_Array(t *testing.T) {
	var s StringList
	if err := json.Unmarshal([]byte(`["a","b"]`), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 2 || s[0] != "a" || s[1] != "b" {
		t.Errorf("unexpected list: %v", s)
	}
}

func TestStringList_Scalar(t *testing.T) {
	var s StringList
	if err := json.Unmarshal([]byte(`"weather"`), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 1 || s[0] != "weather" {
		t.Errorf("unexpected list: %v", s)
	}
}

func TestStringList_EmptyScalar(t *testing.T) {
	var s StringList
	if err := json.Unmarshal([]byte(`""`), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil list for empty string, got %v", s)
	}
}

func TestStringList_Invalid(t *testing.T) {
	var s StringList
	if err := json.Unmarshal([]byte(`42`), &s); err == nil {
		t.Fatal("expected error for non-string value")
	}
}
