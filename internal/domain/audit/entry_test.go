package audit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mcpshield/mcpshield/internal/domain/redact"
)

func TestEntry_MarshalLine(t *testing.T) {
	ts := time.Date(2026, 2, 15, 10, 30, 0, 0, time.UTC)
	entry := Entry{
		Timestamp:         Timestamp(ts),
		UpstreamTool:      "database_query",
		ComplianceProfile: "GDPR",
		InputParameters:   `{"query":"SELECT * FROM users"}`,
		OutputSizeBytes:   2048,
		RedactionCount:    5,
		RedactedTypes:     []string{"email", "ssn"},
		ExecutionTimeMS:   234,
		Status:            StatusSuccess,
	}

	got, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"timestamp":"2026-02-15T10:30:00.000Z",` +
		`"upstream_tool":"database_query",` +
		`"compliance_profile":"GDPR",` +
		`"input_parameters":"{\"query\":\"SELECT * FROM users\"}",` +
		`"output_size_bytes":2048,` +
		`"redaction_count":5,` +
		`"redacted_types":["email","ssn"],` +
		`"execution_time_ms":234,` +
		`"status":"success"}`
	if string(got) != want {
		t.Errorf("line = %s\nwant   %s", got, want)
	}
}

func TestEntry_ErrorFieldOmittedOnSuccess(t *testing.T) {
	data, err := json.Marshal(Entry{Status: StatusSuccess, RedactedTypes: []string{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("success entry carries error field: %s", data)
	}

	data, err = json.Marshal(Entry{Status: StatusError, Error: "upstream timeout", RedactedTypes: []string{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"error":"upstream timeout"`) {
		t.Errorf("error entry missing error field: %s", data)
	}
}

func TestEntry_EmptyTypesMarshalAsArray(t *testing.T) {
	data, err := json.Marshal(Entry{RedactedTypes: []string{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"redacted_types":[]`) {
		t.Errorf("empty types should marshal as [], got %s", data)
	}
}

func TestTimestamp_RoundTrip(t *testing.T) {
	orig := Timestamp(time.Date(2026, 2, 15, 10, 30, 0, 123_000_000, time.UTC))
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2026-02-15T10:30:00.123Z"` {
		t.Errorf("marshaled = %s", data)
	}

	var back Timestamp
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Time().Equal(orig.Time()) {
		t.Errorf("round trip = %v, want %v", back.Time(), orig.Time())
	}
}

func TestTimestamp_NonUTCMarshalsAsUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	ts := Timestamp(time.Date(2026, 2, 15, 11, 30, 0, 0, loc))
	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2026-02-15T10:30:00.000Z"` {
		t.Errorf("marshaled = %s, want UTC normalization", data)
	}
}

func TestTruncateParams(t *testing.T) {
	short := strings.Repeat("x", MaxInputParamsBytes)
	if got := TruncateParams(short); got != short {
		t.Error("value at the cap must pass through")
	}

	long := strings.Repeat("x", MaxInputParamsBytes+100)
	got := TruncateParams(long)
	if !strings.HasSuffix(got, "...[truncated]") {
		t.Errorf("missing marker: %q", got[len(got)-30:])
	}
	if len(got) != MaxInputParamsBytes+len("...[truncated]") {
		t.Errorf("len = %d", len(got))
	}
}

func TestTruncateParams_RuneSafe(t *testing.T) {
	long := strings.Repeat("€", 200) // 600 bytes, cap falls mid-rune
	got := TruncateParams(long)
	body := strings.TrimSuffix(got, "...[truncated]")
	if body == got {
		t.Fatal("missing marker")
	}
	if len(body) > MaxInputParamsBytes {
		t.Errorf("body is %d bytes, over the cap", len(body))
	}
	if strings.ContainsRune(body, '�') {
		t.Error("cut split a rune")
	}
}

func TestSummaryHolder_WriteOnce(t *testing.T) {
	ctx, holder := NewSummaryContext(context.Background())

	got, ok := SummaryFromContext(ctx)
	if !ok || got != holder {
		t.Fatal("holder not retrievable from context")
	}
	if _, set := holder.Get(); set {
		t.Error("fresh holder reports a summary")
	}

	first := redact.NewSummary()
	first.Record(redact.TagEmail, 2)
	if !holder.Attach(first) {
		t.Error("first attach rejected")
	}

	second := redact.NewSummary()
	second.Record(redact.TagSSN, 9)
	if holder.Attach(second) {
		t.Error("second attach accepted")
	}

	sum, set := holder.Get()
	if !set || sum != first {
		t.Error("holder does not retain the first summary")
	}
}

func TestSummaryFromContext_Absent(t *testing.T) {
	if _, ok := SummaryFromContext(context.Background()); ok {
		t.Error("bare context reports a holder")
	}
}
