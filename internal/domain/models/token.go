package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// TokenKind discriminates the token union.
type TokenKind string

const (
	// TokenText is a run of plain text.
	TokenText TokenKind = "text"

	// TokenTagOpen is an opening inline formatting tag, e.g. <b>.
	TokenTagOpen TokenKind = "tag_open"

	// TokenTagClose is a closing inline formatting tag.
	TokenTagClose TokenKind = "tag_close"

	// TokenPlaceholder is a self-contained inline marker (variable,
	// line break, image), carried through translation unchanged.
	TokenPlaceholder TokenKind = "placeholder"
)

// Token is one unit of rich segment content: either plain text or an
// inline marker. An ordered Tokens sequence models source/target content
// losslessly, including non-text markers.
type Token struct {
	Kind TokenKind `json:"kind"`
	Text string    `json:"text,omitempty"` // text tokens only
	Name string    `json:"name,omitempty"` // marker name, e.g. "b", "x1"
	Attr string    `json:"attr,omitempty"` // optional raw marker attributes
}

// Tokens is an ordered sequence of tokens, persisted as JSONB.
type Tokens []Token

// TextToken builds a plain-text token.
func TextToken(text string) Token {
	return Token{Kind: TokenText, Text: text}
}

// IsText reports whether the token carries plain text.
func (t Token) IsText() bool {
	return t.Kind == TokenText
}

// PlainText concatenates the text tokens, dropping all inline markers.
func (ts Tokens) PlainText() string {
	var b strings.Builder
	for _, t := range ts {
		if t.IsText() {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// MatchKey returns the normalized plain text used as the basis for
// content hashing: Unicode NFC, case-folded, whitespace collapsed to
// single spaces and trimmed.
func (ts Tokens) MatchKey() string {
	folded := cases.Fold().String(norm.NFC.String(ts.PlainText()))
	return strings.Join(strings.Fields(folded), " ")
}

// TagsSignature returns a canonical string summarizing the structure and
// order of the non-text tokens. Two token sequences with the same words
// but different markup produce different signatures.
func (ts Tokens) TagsSignature() string {
	var parts []string
	for _, t := range ts {
		if t.IsText() {
			continue
		}
		parts = append(parts, string(t.Kind)+":"+t.Name)
	}
	return strings.Join(parts, "|")
}

// SourceHash derives the deterministic content hash from a match key and
// tags signature. Two segments are "the same source" iff their hashes are
// equal. The hash is never stored independently of its inputs; recomputing
// it must always reproduce the stored value.
func SourceHash(matchKey, tagsSignature string) string {
	sum := sha256.Sum256([]byte(matchKey + "\x1f" + tagsSignature))
	return hex.EncodeToString(sum[:])
}

// SourceHash is a convenience over the sequence's own derived fields.
func (ts Tokens) SourceHash() string {
	return SourceHash(ts.MatchKey(), ts.TagsSignature())
}
