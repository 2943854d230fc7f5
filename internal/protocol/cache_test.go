package protocol

import (
	"testing"
)

func TestNormalizePreview(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"plain", "one\ntwo", []string{"one", "two"}},
		{"reset breaks line", "\x1b[31mred\x1b[mnext", []string{"\x1b[31mred", "next"}},
		{"reset swallows preceding newlines", "a\r\n\x1b[mb", []string{"a", "b"}},
		{"tabs become two spaces", "a\tb", []string{"a  b"}},
		{"empty", "", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePreview(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].String() != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i].String(), tt.want[i])
				}
			}
		})
	}
}

func TestPreviewCache_StoreAndLookup(t *testing.T) {
	cache := NewPreviewCache()
	if _, ok := cache.Lookup(1); ok {
		t.Fatal("expected miss on empty cache")
	}

	if deduped := cache.Store(1, "a\nb"); deduped {
		t.Error("first store should not be deduped")
	}
	lines, ok := cache.Lookup(1)
	if !ok || len(lines) != 2 {
		t.Fatalf("Lookup = %v, %v", lines, ok)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d", cache.Len())
	}
}

func TestPreviewCache_DedupesIdenticalCapture(t *testing.T) {
	cache := NewPreviewCache()
	cache.Store(1, "same")
	first, _ := cache.Lookup(1)

	if deduped := cache.Store(1, "same"); !deduped {
		t.Error("identical capture should be deduped")
	}
	if cache.Hits(1) != 1 {
		t.Errorf("Hits = %d, want 1", cache.Hits(1))
	}
	again, _ := cache.Lookup(1)
	if &first[0] != &again[0] {
		t.Error("deduped capture should keep the parsed lines")
	}
}

func TestPreviewCache_Overwrites(t *testing.T) {
	cache := NewPreviewCache()
	cache.Store(1, "old")
	if deduped := cache.Store(1, "new"); deduped {
		t.Error("changed capture should not be deduped")
	}
	lines, _ := cache.Lookup(1)
	if lines[0].String() != "new" {
		t.Errorf("line = %q, want new", lines[0].String())
	}
	if cache.Hits(1) != 0 {
		t.Errorf("Hits reset expected, got %d", cache.Hits(1))
	}
	all := cache.All()
	if len(all) != 1 || all[1][0].String() != "new" {
		t.Errorf("All = %v", all)
	}
}
