package models

import (
	"testing"
)

func TestPlainText(t *testing.T) {
	tokens := Tokens{
		TextToken("Click "),
		{Kind: TokenTagOpen, Name: "b"},
		TextToken("Save"),
		{Kind: TokenTagClose, Name: "b"},
		TextToken(" to continue"),
		{Kind: TokenPlaceholder, Name: "x1"},
	}
	if got := tokens.PlainText(); got != "Click Save to continue" {
		t.Errorf("PlainText() = %q", got)
	}
}

func TestMatchKey(t *testing.T) {
	tests := []struct {
		name   string
		tokens Tokens
		want   string
	}{
		{
			name:   "case folded",
			tokens: Tokens{TextToken("HELLO World")},
			want:   "hello world",
		},
		{
			name:   "whitespace collapsed and trimmed",
			tokens: Tokens{TextToken("  hello \t\n  world  ")},
			want:   "hello world",
		},
		{
			name: "markers dropped",
			tokens: Tokens{
				{Kind: TokenTagOpen, Name: "b"},
				TextToken("Hello"),
				{Kind: TokenTagClose, Name: "b"},
			},
			want: "hello",
		},
		{
			// Composed e-acute and e followed by combining acute
			// normalize to the same key.
			name:   "unicode normalization",
			tokens: Tokens{TextToken("Café")},
			want:   Tokens{TextToken("Café")}.MatchKey(),
		},
		{
			name:   "empty",
			tokens: Tokens{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tokens.MatchKey(); got != tt.want {
				t.Errorf("MatchKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagsSignature(t *testing.T) {
	tests := []struct {
		name   string
		tokens Tokens
		want   string
	}{
		{
			name:   "text only",
			tokens: Tokens{TextToken("plain")},
			want:   "",
		},
		{
			name: "ordered markers",
			tokens: Tokens{
				{Kind: TokenTagOpen, Name: "b"},
				TextToken("bold"),
				{Kind: TokenTagClose, Name: "b"},
				{Kind: TokenPlaceholder, Name: "x1"},
			},
			want: "tag_open:b|tag_close:b|placeholder:x1",
		},
		{
			name: "marker order matters",
			tokens: Tokens{
				{Kind: TokenPlaceholder, Name: "x1"},
				{Kind: TokenTagOpen, Name: "b"},
				{Kind: TokenTagClose, Name: "b"},
			},
			want: "placeholder:x1|tag_open:b|tag_close:b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tokens.TagsSignature(); got != tt.want {
				t.Errorf("TagsSignature() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSourceHash(t *testing.T) {
	base := SourceHash("hello world", "")

	if len(base) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(base))
	}
	if again := SourceHash("hello world", ""); again != base {
		t.Errorf("hash must be deterministic: %s vs %s", base, again)
	}
	if tagged := SourceHash("hello world", "tag_open:b|tag_close:b"); tagged == base {
		t.Errorf("differing tags signature must change the hash")
	}
	if other := SourceHash("hello word", ""); other == base {
		t.Errorf("differing match key must change the hash")
	}

	// Same words split across tokens hash identically.
	a := Tokens{TextToken("Hello world")}
	b := Tokens{TextToken("Hello "), TextToken("world")}
	if a.SourceHash() != b.SourceHash() {
		t.Errorf("token boundaries must not affect the hash")
	}
}

func TestSegmentDerivedFields(t *testing.T) {
	source := Tokens{
		{Kind: TokenTagOpen, Name: "b"},
		TextToken("Hello  WORLD"),
		{Kind: TokenTagClose, Name: "b"},
	}
	seg := NewSegment("file-1", 3, source)

	if seg.Status != StatusNew {
		t.Errorf("new segment must start in status new, got %s", seg.Status)
	}
	if seg.MatchKey != "hello world" {
		t.Errorf("MatchKey = %q", seg.MatchKey)
	}
	if seg.TagsSignature != "tag_open:b|tag_close:b" {
		t.Errorf("TagsSignature = %q", seg.TagsSignature)
	}
	if seg.SrcHash != SourceHash(seg.MatchKey, seg.TagsSignature) {
		t.Errorf("stored hash must equal the hash of the stored inputs")
	}

	// Replacing the source and rederiving keeps the fields consistent.
	seg.SourceTokens = Tokens{TextToken("Other text")}
	seg.RederiveSourceFields()
	if seg.SrcHash != seg.SourceTokens.SourceHash() {
		t.Errorf("rederived hash out of sync with source tokens")
	}
}

func TestSegmentStatusValid(t *testing.T) {
	for _, s := range []SegmentStatus{StatusNew, StatusDraft, StatusTranslated, StatusReviewed, StatusConfirmed} {
		if !s.Valid() {
			t.Errorf("%s must be valid", s)
		}
	}
	if SegmentStatus("frobnicated").Valid() {
		t.Error("unknown status must be invalid")
	}
	if SegmentStatus("").Valid() {
		t.Error("empty status must be invalid")
	}
}
