// Package payload pulls the JSON state documents that client-rendered boards embed in
// their pages and walks them looking for job-shaped objects.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// MaxDepth bounds Walk; state trees from real pages nest well under this.
const MaxDepth = 15

// Documents returns every decodable state document in the page: the
// script#__NEXT_DATA__ block when present, otherwise any script mentioning
// __APOLLO_STATE__ or window.__NEXT_DATA__ with its outermost {...} decoded.
// Scripts that fail to decode are skipped and reported in errs.
func Documents(doc *goquery.Document) (docs []any, errs []error) {
	scripts := doc.Find("script#__NEXT_DATA__")
	embedded := scripts.Length() > 0
	if !embedded {
		scripts = doc.Find("script").FilterFunction(func(_ int, s *goquery.Selection) bool {
			t := s.Text()
			return strings.Contains(t, "__APOLLO_STATE__") || strings.Contains(t, "window.__NEXT_DATA__")
		})
	}

	scripts.Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !embedded {
			start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
			if start < 0 || end <= start {
				return
			}
			text = text[start : end+1]
		}
		v, err := Decode([]byte(text))
		if err != nil {
			errs = append(errs, err)
			return
		}
		docs = append(docs, v)
	})
	return docs, errs
}

// Decode parses JSON keeping numbers as json.Number so ids and epochs survive intact.
func Decode(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

// Walk calls visit for every object in v, parents before children, descending at most
// maxDepth levels. Object keys are visited in sorted order so results are stable.
func Walk(v any, maxDepth int, visit func(obj map[string]any)) {
	walk(v, 0, maxDepth, visit)
}

func walk(v any, depth, maxDepth int, visit func(map[string]any)) {
	if depth > maxDepth {
		return
	}
	switch t := v.(type) {
	case map[string]any:
		visit(t)
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(t[k], depth+1, maxDepth, visit)
		}
	case []any:
		for _, item := range t {
			walk(item, depth+1, maxDepth, visit)
		}
	}
}

// HasAny reports whether obj has any of keys.
func HasAny(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

// Mentions reports whether any key or string value under obj contains needle,
// case-insensitively. It stops at the first hit.
func Mentions(obj map[string]any, needle string) bool {
	return mentions(obj, strings.ToLower(needle))
}

func mentions(v any, needle string) bool {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if strings.Contains(strings.ToLower(k), needle) || mentions(child, needle) {
				return true
			}
		}
	case []any:
		for _, child := range t {
			if mentions(child, needle) {
				return true
			}
		}
	case string:
		return strings.Contains(strings.ToLower(t), needle)
	}
	return false
}

// First returns the first key whose value renders to a non-empty string.
func First(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := Text(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

// Name reads a field that is either a plain string or an object carrying "name".
func Name(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		switch t := obj[k].(type) {
		case map[string]any:
			if s := Text(t["name"]); s != "" {
				return s
			}
		default:
			if s := Text(t); s != "" {
				return s
			}
		}
	}
	return ""
}

// Text renders a decoded JSON value: strings trimmed, numbers verbatim, lists of
// strings joined with ", ", other composites as compact JSON. null and false are "".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := Text(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Timestamp reads a date field. Epoch numbers (seconds or milliseconds) become RFC3339
// in UTC; strings pass through for the normalizer to interpret.
func Timestamp(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		switch t := obj[k].(type) {
		case json.Number:
			if ts, ok := epoch(t); ok {
				return ts
			}
		case float64:
			if ts, ok := epoch(json.Number(strconv.FormatFloat(t, 'f', -1, 64))); ok {
				return ts
			}
		default:
			if s := Text(t); s != "" {
				return s
			}
		}
	}
	return ""
}

func epoch(n json.Number) (string, bool) {
	f, err := n.Float64()
	if err != nil || f <= 0 {
		return "", false
	}
	sec := int64(f)
	if f > 1e12 {
		sec = int64(f / 1000)
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339), true
}
