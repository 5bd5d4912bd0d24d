package model

import (
	"encoding/json"
	"testing"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want ProcessingStatus
	}{
		{"pending", StatusPending},
		{"PROCESSING", StatusProcessing},
		{" Completed ", StatusCompleted},
		{"failed", StatusFailed},
		{"archived", ProcessingStatus("archived")},
	}
	for _, tc := range cases {
		if got := ParseStatus(tc.raw); got != tc.want {
			t.Fatalf("ParseStatus(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []ProcessingStatus{StatusPending, StatusProcessing} {
		if s.IsTerminal() {
			t.Fatalf("%q should not be terminal", s)
		}
	}
	for _, s := range []ProcessingStatus{StatusCompleted, StatusFailed} {
		if !s.IsTerminal() {
			t.Fatalf("%q should be terminal", s)
		}
	}
}

func TestEnvelopeDefersDataDecoding(t *testing.T) {
	raw := `{"success": true, "message": "ok", "data": {"id": 42, "status": "pending", "progress": 0}}`
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatal(err)
	}
	if !env.Success {
		t.Fatal("expected success")
	}
	var st UploadStatus
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatal(err)
	}
	if st.ID != 42 || st.Status != StatusPending {
		t.Fatalf("unexpected payload: %+v", st)
	}
}
