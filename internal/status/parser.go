// Package status decodes lift status documents.
//
// A document is a JSON object whose "lifts" member maps lift names to a
// status string or null:
//
//	{"updated": "...", "lifts": {"Combettes": "open", "Derby": null}}
//
// Entries are returned in document order, including repeated names, so the
// caller can apply them in sequence and let later entries win.
package status

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/smazurov/liftlights/internal/lifts"
)

const liftsKey = "lifts"

// Entry is one (name, status) pair from a document.
type Entry struct {
	Name   string
	Report lifts.Report
}

// Parse decodes payload into entries. Malformed JSON, a missing or null
// lifts member, or a lifts member that is not an object all return an
// *Error and no entries.
func Parse(payload []byte) ([]Entry, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, newError(ErrCodeMalformed, "empty payload", nil)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var entries []Entry
	found := false

	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		if key != liftsKey {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, newError(ErrCodeMalformed, fmt.Sprintf("invalid value for %q", key), err)
			}
			continue
		}

		// A repeated lifts member replaces the earlier one.
		entries, err = readLifts(dec)
		if err != nil {
			return nil, err
		}
		found = true
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, newError(ErrCodeMalformed, "trailing data after document", err)
	}

	if !found {
		return nil, newError(ErrCodeMissingLifts, "document has no lifts member", nil)
	}
	return entries, nil
}

// readLifts consumes the lifts value. The decoder is positioned just before it.
func readLifts(dec *json.Decoder) ([]Entry, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, newError(ErrCodeMalformed, "invalid lifts value", err)
	}

	switch tok {
	case nil:
		return nil, newError(ErrCodeMissingLifts, "lifts is null", nil)
	case json.Delim('{'):
	default:
		return nil, newError(ErrCodeMissingLifts, fmt.Sprintf("lifts is not an object (%v)", tok), nil)
	}

	entries := make([]Entry, 0)
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, newError(ErrCodeMalformed, fmt.Sprintf("invalid status for %q", name), err)
		}

		entries = append(entries, Entry{Name: name, Report: decodeReport(raw)})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return entries, nil
}

// decodeReport converts a raw status value. Non-string values are kept as
// their JSON text so they surface as unrecognized statuses.
func decodeReport(raw json.RawMessage) lifts.Report {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return lifts.Absent()
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return lifts.Reported(lifts.Status(trimmed))
	}
	return lifts.Reported(lifts.Status(s))
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", newError(ErrCodeMalformed, "invalid object key", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", newError(ErrCodeMalformed, fmt.Sprintf("unexpected token %v", tok), nil)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return newError(ErrCodeMalformed, fmt.Sprintf("expected %q", want), err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return newError(ErrCodeMalformed, fmt.Sprintf("expected %q, got %v", want, tok), nil)
	}
	return nil
}
