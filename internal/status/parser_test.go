package status

import (
	"errors"
	"reflect"
	"testing"

	"github.com/smazurov/liftlights/internal/lifts"
)

func TestParse_DocumentOrder(t *testing.T) {
	payload := []byte(`{
		"resort": "Les Gets",
		"lifts": {"Derby": "closed", "Combettes": "open", "Pleney": null, "Derby": "hold"},
		"updated": "2025-01-27T10:30:00Z"
	}`)

	entries, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []Entry{
		{Name: "Derby", Report: lifts.Reported(lifts.StatusClosed)},
		{Name: "Combettes", Report: lifts.Reported(lifts.StatusOpen)},
		{Name: "Pleney", Report: lifts.Absent()},
		{Name: "Derby", Report: lifts.Reported(lifts.StatusHold)},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("Parse() = %+v\nwant %+v", entries, want)
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantCode string
	}{
		{"empty", "", ErrCodeMalformed},
		{"whitespace", "  \n", ErrCodeMalformed},
		{"not json", "{not json", ErrCodeMalformed},
		{"truncated", `{"lifts":{"Derby":"open"`, ErrCodeMalformed},
		{"top level array", `["Derby"]`, ErrCodeMalformed},
		{"trailing data", `{"lifts":{}} {}`, ErrCodeMalformed},
		{"missing lifts", `{"status":"ok"}`, ErrCodeMissingLifts},
		{"null lifts", `{"lifts":null}`, ErrCodeMissingLifts},
		{"lifts array", `{"lifts":["Derby"]}`, ErrCodeMissingLifts},
		{"lifts string", `{"lifts":"Derby"}`, ErrCodeMissingLifts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Parse([]byte(tt.payload))
			if entries != nil {
				t.Errorf("Parse() entries = %v, want nil", entries)
			}

			var se *Error
			if !errors.As(err, &se) {
				t.Fatalf("Parse() error = %v, want *Error", err)
			}
			if se.Code != tt.wantCode {
				t.Errorf("Parse() code = %s, want %s", se.Code, tt.wantCode)
			}
		})
	}
}

func TestParse_EmptyLifts(t *testing.T) {
	entries, err := Parse([]byte(`{"lifts":{}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Parse() = %v, want no entries", entries)
	}
}

func TestParse_NonStringStatus(t *testing.T) {
	entries, err := Parse([]byte(`{"lifts":{"Derby":3,"Nyon":{"state":"open"}}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Parse() returned %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if !e.Report.Present || e.Report.Status.Known() {
			t.Errorf("entry %q = %+v, want present and unrecognized", e.Name, e.Report)
		}
	}
}

func TestParse_LastLiftsMemberWins(t *testing.T) {
	entries, err := Parse([]byte(`{"lifts":{"Derby":"open"},"lifts":{"Nyon":"closed"}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []Entry{{Name: "Nyon", Report: lifts.Reported(lifts.StatusClosed)}}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("Parse() = %+v, want %+v", entries, want)
	}
}
