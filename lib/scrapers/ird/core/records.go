package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformedPayload = errors.New("malformed payload")

// Record is one JSON object returned by the portal, the handlers return loose
// ExtJS stores whose field sets vary between filings so they are kept as maps.
type Record map[string]any

// SliceArray cuts out everything between the first "[" and the last "]"
// (inclusive), the list handlers wrap their rows in an ExtJS envelope that
// is not always valid JSON.
func SliceArray(body string) (string, error) {
	start := strings.Index(body, "[")
	end := strings.LastIndex(body, "]")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no json array in response", ErrMalformedPayload)
	}
	return body[start : end+1], nil
}

// SliceDetail extracts the object of a VAT return detail envelope, which
// looks like `{"<name>":{...},"success":true}`. the result is a one element
// JSON array.
func SliceDetail(body string) (string, error) {
	start := strings.Index(body, ":{")
	end := strings.LastIndex(body, "},")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no detail object in response", ErrMalformedPayload)
	}
	return "[" + body[start+1:end+1] + "]", nil
}

func newDecoder(text string) *json.Decoder {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	return dec
}

// DecodeRecords decodes a JSON array of objects, numbers are kept as json.Number.
func DecodeRecords(text string) ([]Record, error) {
	var out []Record
	err := newDecoder(text).Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return out, nil
}

// DecodeRecord decodes a single JSON object.
func DecodeRecord(text string) (Record, error) {
	var out Record
	err := newDecoder(text).Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: expected an object", ErrMalformedPayload)
	}
	return out, nil
}

// KeyOf returns the value of `field` as a map key, the portal sends the same
// submission number as a string in one handler and a number in another.
func KeyOf(rec Record, field string) (string, bool) {
	switch v := rec[field].(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

// Index keys entries by `keyField`, entries without a key are dropped and a
// later duplicate replaces an earlier one.
func Index(entries []Record, keyField string) map[string]Record {
	out := make(map[string]Record, len(entries))
	for _, entry := range entries {
		key, ok := KeyOf(entry, keyField)
		if !ok {
			continue
		}
		merged := make(Record, len(entry))
		for k, v := range entry {
			merged[k] = v
		}
		out[key] = merged
	}
	return out
}

// Merge copies the fields of every entry onto the record in dst with the same
// key, fields already present are overwritten. entries whose key is not in dst
// are ignored.
func Merge(dst map[string]Record, entries []Record, keyField string) {
	for _, entry := range entries {
		key, ok := KeyOf(entry, keyField)
		if !ok {
			continue
		}
		existing, ok := dst[key]
		if !ok {
			continue
		}
		for k, v := range entry {
			existing[k] = v
		}
	}
}

// Flatten turns groups of records into rows that all share the same columns
// (the union over every record), missing fields are nil. each row also gets
// `rowLabel` set to the record's `rowField`.
func Flatten(groups [][]Record, rowLabel, rowField string) []Record {
	columns := map[string]struct{}{}
	for _, group := range groups {
		for _, rec := range group {
			for k := range rec {
				columns[k] = struct{}{}
			}
		}
	}

	rows := []Record{}
	for _, group := range groups {
		for _, rec := range group {
			row := make(Record, len(columns)+1)
			row[rowLabel] = rec[rowField]
			for column := range columns {
				row[column] = rec[column]
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// Encode renders v as indented JSON without escaping html, the portal's
// values contain "&" in trade names.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(v)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
