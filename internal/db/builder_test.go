package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_VectorIndex(t *testing.T) {
	def, err := NewIndex("smartsearch:idx").
		Prefix("smartsearch:default:").
		Tag("content_type").
		VectorHNSW("__vector", 1024, DistanceCosine, 16, 200).As("vector").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if def.Name != "smartsearch:idx" {
		t.Errorf("Name = %q", def.Name)
	}
	if len(def.Prefixes) != 1 || def.Prefixes[0] != "smartsearch:default:" {
		t.Errorf("Prefixes = %v", def.Prefixes)
	}
	if len(def.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(def.Fields))
	}

	tag := def.Fields[0]
	if tag.Type != IndexFieldTag || tag.Alias != "" {
		t.Errorf("unexpected tag field %+v", tag)
	}

	vec := def.Fields[1]
	if vec.Type != IndexFieldVector {
		t.Errorf("expected vector field, got %v", vec.Type)
	}
	if vec.Alias != "vector" {
		t.Errorf("Alias = %q, want vector", vec.Alias)
	}
	if vec.VectorDim != 1024 || vec.VectorDistance != DistanceCosine {
		t.Errorf("unexpected vector params %+v", vec)
	}
	if vec.VectorM != 16 || vec.VectorEFConstruct != 200 {
		t.Errorf("unexpected HNSW params M=%d EF=%d", vec.VectorM, vec.VectorEFConstruct)
	}
}

func TestIndexBuilder_AsWithoutFields(t *testing.T) {
	b := NewIndex("idx").As("ignored")
	if _, err := b.Build(); err == nil {
		t.Error("expected error for index without fields")
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *IndexBuilder
		wantErr string
	}{
		{"empty name", NewIndex("").Tag("f"), "index name is required"},
		{"invalid name", NewIndex("bad name!").Tag("f"), "invalid characters"},
		{"no fields", NewIndex("idx"), "at least one field"},
		{"zero dim", NewIndex("idx").VectorHNSW("v", 0, DistanceCosine, 0, 0), "positive DIM"},
		{"duplicate", NewIndex("idx").Tag("a").Tag("a"), "duplicate field name"},
		{"duplicate alias", NewIndex("idx").Tag("vector").VectorHNSW("__vector", 3, DistanceCosine, 0, 0).As("vector"), "duplicate field name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestIndexBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewIndex("").MustBuild()
}

func TestIndexDefinition_String(t *testing.T) {
	def := NewIndex("idx").
		Prefix("p:").
		Tag("content_type").
		VectorHNSW("__vector", 4, DistanceCosine, 0, 0).As("vector").
		MustBuild()

	want := "FT.CREATE idx ON HASH PREFIX p: SCHEMA content_type TAG __vector AS vector VECTOR HNSW"
	if got := def.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for _, s := range []string{"idx", "smartsearch:idx", "a_b-c"} {
		if !IsValidIdentifier(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range []string{"", "a b", "a/b", "a.b"} {
		if IsValidIdentifier(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
