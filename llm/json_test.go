package llm_test

import (
	"errors"
	"testing"

	"github.com/skinbuddy/concierge/llm"
)

type planShape struct {
	Intent string `json:"intent"`
	Title  string `json:"title_hint"`
}

func TestDecodeJSONClean(t *testing.T) {
	var v planShape
	err := llm.DecodeJSON(`{"intent":"create","title_hint":"Sunscreen"}`, &v)
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if v.Intent != "create" || v.Title != "Sunscreen" {
		t.Errorf("Unexpected decode: %+v", v)
	}
}

func TestDecodeJSONSalvagesFencedObject(t *testing.T) {
	raw := "Here is the plan:\n```json\n{\"intent\": \"delete\"}\n```\nLet me know!"
	var v planShape
	if err := llm.DecodeJSON(raw, &v); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if v.Intent != "delete" {
		t.Errorf("Intent = %q", v.Intent)
	}
}

func TestDecodeJSONNoObject(t *testing.T) {
	var v planShape
	err := llm.DecodeJSON("I cannot answer that.", &v)
	if !errors.Is(err, llm.ErrNoJSON) {
		t.Errorf("Expected ErrNoJSON, got %v", err)
	}
}
