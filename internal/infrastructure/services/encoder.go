package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/sophialabs/redirectlint/internal/domain/redirect"
)

// DefaultSplicePattern locates the encoded list in the redirect script. The
// second group is the payload that gets replaced.
const DefaultSplicePattern = `(list\s*=\s*")([A-Za-z0-9+/=]*)(")`

// ErrDelimiterNotFound indicates the splice pattern did not match the script.
var ErrDelimiterNotFound = errors.New("encoded list delimiter not found")

// EncodeList serializes pairs as compact JSON and encodes the result as
// standard base64. HTML characters are not escaped.
func EncodeList(pairs []redirect.Pair) (string, error) {
	if pairs == nil {
		pairs = []redirect.Pair{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(pairs); err != nil {
		return "", fmt.Errorf("failed to encode redirects: %w", err)
	}
	return base64.StdEncoding.EncodeToString(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// DecodeList reverses EncodeList.
func DecodeList(encoded string) ([]redirect.Pair, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	var pairs []redirect.Pair
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode redirects: %w", err)
	}
	return pairs, nil
}

// Splicer replaces the payload group of the first pattern match.
type Splicer struct {
	re *regexp.Regexp
}

// NewSplicer compiles pattern, which must have exactly three groups:
// prefix, payload, suffix.
func NewSplicer(pattern string) (*Splicer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid splice pattern: %w", err)
	}
	if re.NumSubexp() != 3 {
		return nil, fmt.Errorf("splice pattern must have 3 groups, has %d", re.NumSubexp())
	}
	return &Splicer{re: re}, nil
}

// Current returns the payload currently in content.
func (s *Splicer) Current(content []byte) (string, bool) {
	loc := s.re.FindSubmatchIndex(content)
	if loc == nil || loc[4] < 0 {
		return "", false
	}
	return string(content[loc[4]:loc[5]]), true
}

// Splice returns content with the payload of the first match replaced by payload.
func (s *Splicer) Splice(content []byte, payload string) ([]byte, error) {
	loc := s.re.FindSubmatchIndex(content)
	if loc == nil || loc[4] < 0 {
		return nil, ErrDelimiterNotFound
	}
	out := make([]byte, 0, len(content)-(loc[5]-loc[4])+len(payload))
	out = append(out, content[:loc[4]]...)
	out = append(out, payload...)
	out = append(out, content[loc[5]:]...)
	return out, nil
}
