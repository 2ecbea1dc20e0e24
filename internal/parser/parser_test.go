package parser

import (
	"bytes"
	"testing"
)

func TestClassifyJSON(t *testing.T) {
	sample := [][]byte{
		[]byte(`{"level":"info","msg":"starting up","ts":"2024-01-01T00:00:00Z"}`),
		[]byte(`{"level":"warn","msg":"retrying","ts":"2024-01-01T00:00:01Z"}`),
	}
	format, avg := classify(sample)
	if format != FormatJSON {
		t.Fatalf("classify = %s, want json", format)
	}
	if avg < HighConfidenceThreshold {
		t.Errorf("avg confidence = %f, want >= %f", avg, HighConfidenceThreshold)
	}
}

func TestClassifyLogfmt(t *testing.T) {
	sample := [][]byte{
		[]byte(`level=info msg="starting up" ts=2024-01-01T00:00:00Z`),
		[]byte(`level=warn msg="retrying" attempt=2`),
	}
	format, _ := classify(sample)
	if format != FormatLogfmt {
		t.Fatalf("classify = %s, want logfmt", format)
	}
}

func TestClassifyPlainTextFallback(t *testing.T) {
	sample := [][]byte{
		[]byte(`just some free text with no structure at all`),
	}
	format, _ := classify(sample)
	if format != FormatPlainText {
		t.Fatalf("classify = %s, want plaintext", format)
	}
}

func TestParseJSONPreservesFieldOrder(t *testing.T) {
	line := []byte(`{"level":"error","code":42,"msg":"boom","region":"us-east-1"}`)
	pl, err := Parse(FormatJSON, line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pl.Level != "error" || pl.Message != "boom" {
		t.Fatalf("pl = %+v, want level=error msg=boom", pl)
	}
	wantOrder := []string{"code", "region"}
	if len(pl.Fields) != len(wantOrder) {
		t.Fatalf("Fields = %+v, want %d entries", pl.Fields, len(wantOrder))
	}
	for i, k := range wantOrder {
		if pl.Fields[i].Key != k {
			t.Errorf("Fields[%d].Key = %q, want %q", i, pl.Fields[i].Key, k)
		}
	}
}

func TestParseLogfmt(t *testing.T) {
	line := []byte(`level=info msg="request served" status=200 path=/healthz`)
	pl, err := Parse(FormatLogfmt, line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pl.Level != "info" || pl.Message != "request served" {
		t.Fatalf("pl = %+v", pl)
	}
}

func TestParseSyslogExtractsPriority(t *testing.T) {
	line := []byte(`<34>Oct 11 22:14:15 host app: something happened`)
	pl, err := Parse(FormatSyslog, line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pl.Fields) != 1 || pl.Fields[0].Key != "priority" || pl.Fields[0].Value != "34" {
		t.Fatalf("pl.Fields = %+v, want priority=34", pl.Fields)
	}
}

func TestParseHTTPExtractsRequestDetail(t *testing.T) {
	line := []byte(`127.0.0.1 - - [10/Oct/2023:13:55:36 +0000] "GET /status HTTP/1.1" 200 612`)
	pl, err := Parse(FormatHTTP, line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pl.Request == nil {
		t.Fatal("pl.Request is nil")
	}
	if pl.Request.Method != "GET" || pl.Request.Path != "/status" || pl.Request.StatusCode != 200 {
		t.Fatalf("pl.Request = %+v", pl.Request)
	}
}

func TestParseHTTPFallsBackToPlainOnMismatch(t *testing.T) {
	line := []byte(`not an http access log line`)
	pl, err := Parse(FormatHTTP, line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pl.Request != nil {
		t.Fatalf("pl.Request = %+v, want nil", pl.Request)
	}
	if pl.Message != string(line) {
		t.Errorf("pl.Message = %q, want fallback to raw line", pl.Message)
	}
}

func TestParseStripsANSI(t *testing.T) {
	line := []byte("\x1b[31merror:\x1b[0m something failed")
	pl, err := Parse(FormatPlainText, line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if bytes.Contains([]byte(pl.Message), []byte{0x1b}) {
		t.Errorf("Message still contains ANSI escapes: %q", pl.Message)
	}
	if !bytes.Equal(pl.RawContent, line) {
		t.Error("RawContent should preserve the original bytes including ANSI codes")
	}
}

func TestParseNonUTF8PreservesRawButEmptiesMessage(t *testing.T) {
	line := []byte{0xff, 0xfe, 0x00, 0x01}
	pl, err := Parse(FormatPlainText, line)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pl.Message != "" {
		t.Errorf("Message = %q, want empty for non-UTF8 input", pl.Message)
	}
	if !bytes.Equal(pl.RawContent, line) {
		t.Error("RawContent should be preserved even when non-UTF8")
	}
}

func TestParseRejectsOversizedLine(t *testing.T) {
	line := bytes.Repeat([]byte{'a'}, MaxLineSize+1)
	_, err := Parse(FormatPlainText, line)
	if err != ErrLineTooLarge {
		t.Fatalf("err = %v, want ErrLineTooLarge", err)
	}
}

func TestCacheLocksInHighConfidenceFormat(t *testing.T) {
	c := New()
	lines := [][]byte{
		[]byte(`{"level":"info","msg":"one","ts":"t"}`),
		[]byte(`{"level":"info","msg":"two","ts":"t"}`),
		[]byte(`{"level":"info","msg":"three","ts":"t"}`),
		[]byte(`{"level":"info","msg":"four","ts":"t"}`),
		[]byte(`{"level":"info","msg":"five","ts":"t"}`),
	}
	var lastFormat Format
	for _, l := range lines {
		_, format, err := c.ParseLine("c1", l)
		if err != nil {
			t.Fatalf("ParseLine: %v", err)
		}
		lastFormat = format
	}
	if lastFormat != FormatJSON {
		t.Fatalf("lastFormat = %s, want json", lastFormat)
	}
	e := c.entries["c1"]
	if e.tag != tagHigh {
		t.Errorf("tag = %v, want tagHigh after %d matching JSON lines", e.tag, DetectionSampleSize)
	}
}

func TestCacheRefinesProvisionalLockAfterAdaptiveWindow(t *testing.T) {
	c := New()
	// Ambiguous-ish logfmt-looking lines that should lock in provisionally,
	// then the following AdaptiveRefinementSize lines confirm/adjust it.
	// Three of four tokens are key=value: logfmt confidence 0.75, between
	// the medium and high thresholds.
	logfmtLine := []byte(`level=info msg=hello n=1 trailing`)
	for i := 0; i < DetectionSampleSize; i++ {
		if _, _, err := c.ParseLine("c2", logfmtLine); err != nil {
			t.Fatalf("ParseLine: %v", err)
		}
	}
	e := c.entries["c2"]
	if e.tag == tagNone {
		t.Fatal("expected a lock after DetectionSampleSize lines")
	}

	for i := 0; i < AdaptiveRefinementSize; i++ {
		if _, _, err := c.ParseLine("c2", logfmtLine); err != nil {
			t.Fatalf("ParseLine: %v", err)
		}
	}
	// After refinement the consistent logfmt sample should have been
	// re-evaluated without error; tag must still be set.
	if c.entries["c2"].tag == tagNone {
		t.Error("expected entry to remain locked after refinement window")
	}
}

func TestCacheEvictRemovesEntry(t *testing.T) {
	c := New()
	c.ParseLine("c3", []byte("hello"))
	if _, ok := c.entries["c3"]; !ok {
		t.Fatal("expected entry for c3 before evict")
	}
	c.Evict("c3")
	if _, ok := c.entries["c3"]; ok {
		t.Error("entry for c3 still present after Evict")
	}
}

func TestStatsSnapshotComputesSuccessRate(t *testing.T) {
	var s Stats
	for i := 0; i < 75; i++ {
		s.RecordSuccess()
	}
	for i := 0; i < 25; i++ {
		s.RecordFailure()
	}
	snap := s.Snapshot()
	if snap.TotalParsed != 75 {
		t.Errorf("TotalParsed = %d, want 75", snap.TotalParsed)
	}
	if snap.SuccessRate != 0.75 {
		t.Errorf("SuccessRate = %f, want 0.75", snap.SuccessRate)
	}
}

func TestStatsDockerFailureResetsOnSuccess(t *testing.T) {
	var s Stats
	s.RecordDockerFailure()
	s.RecordDockerFailure()
	s.RecordDockerFailure()
	if s.Snapshot().DockerConsecutiveFailures != 3 {
		t.Fatalf("DockerConsecutiveFailures = %d, want 3", s.Snapshot().DockerConsecutiveFailures)
	}
	s.RecordDockerSuccess()
	if s.Snapshot().DockerConsecutiveFailures != 0 {
		t.Errorf("DockerConsecutiveFailures = %d, want 0 after success", s.Snapshot().DockerConsecutiveFailures)
	}
}
