package export

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"logpanel/internal/model"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var testTime = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func sampleEntries() []model.LogEntry {
	ts := testTime.UnixMilli()
	return []model.LogEntry{
		{ID: "1", Timestamp: ts, Level: model.LevelInfo, Message: "started", Category: "System", Source: "Main"},
		{ID: "2", Timestamp: ts + 1000, Level: model.LevelError, Message: "failed <db>", Category: "Database", Source: "Conn",
			Details: map[string]any{"code": "E1", "retry": true}},
		{ID: "3", Timestamp: ts + 2000, Level: model.LevelWarn, Message: "slow", Category: "System", Source: "Monitor"},
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	entries := sampleEntries()
	out, err := Logs(entries, Options{Format: FormatJSON, Levels: []model.Level{model.LevelError, model.LevelWarn}})
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}
	if !strings.Contains(out, "\n  {") {
		t.Fatalf("json output is not pretty printed: %s", out)
	}

	var decoded []model.LogEntry
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("json output does not parse: %v", err)
	}
	want := entries[1:]
	if !reflect.DeepEqual(decoded, want) {
		t.Fatalf("round trip mismatch\nwant: %#v\ngot:  %#v", want, decoded)
	}
}

func TestExportJSONEmpty(t *testing.T) {
	out, err := Logs(nil, Options{Format: FormatJSON})
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}
	if out != "[]" {
		t.Fatalf("expected empty array, got %q", out)
	}
}

func TestExportCSVEscapesQuotes(t *testing.T) {
	entry := model.LogEntry{
		ID: "x", Timestamp: testTime.UnixMilli(), Level: model.LevelWarn,
		Category: "Sys", Source: "App", Message: `say "hi"`,
	}
	out, err := Logs([]model.LogEntry{entry}, Options{Format: FormatCSV, Location: time.UTC})
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}

	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %q", out)
	}
	if lines[0] != "时间,级别,分类,来源,消息" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	want := `2025/3/4 05:06:07,warn,Sys,App,"say ""hi"""`
	if lines[1] != want {
		t.Fatalf("unexpected row\nwant: %q\ngot:  %q", want, lines[1])
	}
}

func TestExportCSVDetails(t *testing.T) {
	out, err := Logs(sampleEntries()[:2], Options{Format: FormatCSV, IncludeDetails: true, Location: time.UTC})
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}
	lines := strings.Split(out, "\n")
	if lines[0] != "时间,级别,分类,来源,消息,详情" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], `,"started",""""""`) {
		t.Fatalf("missing details should encode an empty json string: %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], `,"{""code"":""E1"",""retry"":true}"`) {
		t.Fatalf("details column unexpected: %q", lines[2])
	}
}

func TestExportText(t *testing.T) {
	out, err := Logs(sampleEntries(), Options{Format: FormatTXT, IncludeDetails: true, Location: time.UTC})
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}
	expected := strings.Join([]string{
		"[2025/3/4 05:06:07] INFO [System/Main] started",
		"[2025/3/4 05:06:08] ERROR [Database/Conn] failed <db>",
		`  详情: {"code":"E1","retry":true}`,
		"[2025/3/4 05:06:09] WARN [System/Monitor] slow",
	}, "\n")
	if out != expected {
		t.Fatalf("text output mismatch\nexpected: %q\nactual:   %q", expected, out)
	}
}

func TestExportDateRangeAndFallback(t *testing.T) {
	ts := testTime.UnixMilli()
	out, err := Logs(sampleEntries(), Options{
		Format:    Format("xml"),
		DateRange: &DateRange{Start: ts + 1000, End: ts + 2000},
	})
	if err != nil {
		t.Fatalf("Logs returned error: %v", err)
	}
	var decoded []model.LogEntry
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("unknown format should fall back to json: %v", err)
	}
	if len(decoded) != 2 || decoded[0].ID != "2" || decoded[1].ID != "3" {
		t.Fatalf("date range should be inclusive, got %#v", decoded)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("CSV"); err != nil || f != FormatCSV {
		t.Fatalf("ParseFormat CSV unexpected: %v %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if FormatTXT.MIMEType() != "text/plain" || FormatCSV.Extension() != "csv" || Format("").MIMEType() != "application/json" {
		t.Fatalf("unexpected format metadata")
	}
}

func TestTimestampedFilename(t *testing.T) {
	got := TimestampedFilename("logs", "csv", testTime)
	if got != "logs_2025-03-04_05-06-07.csv" {
		t.Fatalf("unexpected filename: %s", got)
	}
	a := NewArtifact("logs", FormatTXT, "x", testTime)
	if a.Filename != "logs_2025-03-04_05-06-07.txt" || a.MIMEType != "text/plain;charset=utf-8" {
		t.Fatalf("unexpected artifact: %#v", a)
	}
}

func TestWriteArtifactCompression(t *testing.T) {
	dir := t.TempDir()
	a := NewArtifact("logs", FormatTXT, "hello export", testTime)

	plain, err := WriteArtifact(dir, a, CompressionNone)
	if err != nil {
		t.Fatalf("WriteArtifact returned error: %v", err)
	}
	if data, _ := os.ReadFile(plain); string(data) != "hello export" {
		t.Fatalf("unexpected plain content: %q", data)
	}

	gz, err := WriteArtifact(dir, a, CompressionGzip)
	if err != nil {
		t.Fatalf("WriteArtifact gzip returned error: %v", err)
	}
	if filepath.Ext(gz) != ".gz" {
		t.Fatalf("unexpected gzip path: %s", gz)
	}
	f, err := os.Open(gz)
	if err != nil {
		t.Fatalf("open gzip: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	if data, _ := io.ReadAll(zr); string(data) != "hello export" {
		t.Fatalf("unexpected gzip content: %q", data)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, "zstd content", CompressionZstd); err != nil {
		t.Fatalf("Encode zstd returned error: %v", err)
	}
	dec, err := zstd.NewReader(&buf)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()
	if data, _ := io.ReadAll(dec); string(data) != "zstd content" {
		t.Fatalf("unexpected zstd content: %q", data)
	}

	if _, err := ParseCompression("brotli"); err == nil {
		t.Fatal("expected error for unknown compression")
	}
}

func TestFormatters(t *testing.T) {
	now := testTime
	if got := RelativeTime(now.UnixMilli()-500, now, time.UTC); got != "刚刚" {
		t.Fatalf("unexpected relative time: %s", got)
	}
	if got := RelativeTime(now.Add(-3*time.Minute).UnixMilli(), now, time.UTC); got != "3分钟前" {
		t.Fatalf("unexpected relative time: %s", got)
	}
	if got := RelativeTime(now.Add(-8*24*time.Hour).UnixMilli(), now, time.UTC); got != "2025/02/24 05:06:07" {
		t.Fatalf("old timestamps should render in full: %s", got)
	}
	if got := FormatTimestamp(now.UnixMilli(), TimestampTime, now, time.UTC); got != "05:06:07" {
		t.Fatalf("unexpected time format: %s", got)
	}
	if got := FormatMessage("a\tb\nc", 0); got != `a\tb\nc` {
		t.Fatalf("unexpected message escape: %s", got)
	}
	if got := FormatMessage("abcdefghij", 6); got != "abc..." {
		t.Fatalf("unexpected truncation: %s", got)
	}
	if got := FormatDetails(map[string]any{"a": 1}, true); got != `{"a":1}` {
		t.Fatalf("unexpected compact details: %s", got)
	}
	if got := FormatDetails(nil, false); got != "" {
		t.Fatalf("nil details should be empty: %q", got)
	}
	if got := FormatFileSize(1536); got != "1.5 KB" {
		t.Fatalf("unexpected file size: %s", got)
	}
	if got := FormatFileSize(0); got != "0 Bytes" {
		t.Fatalf("unexpected zero file size: %s", got)
	}
}
