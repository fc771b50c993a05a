// Package ingest reads and writes log entries as JSON Lines.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/valyala/fastjson"

	"logpanel/internal/model"
)

// ErrMissingMessage is reported for records without a message.
var ErrMissingMessage = errors.New("record has no message")

// ReadResult holds decoded entries and per-record problems that did not stop
// the read.
type ReadResult struct {
	Entries  []model.LogEntry
	Warnings []error
}

// ReadFile decodes the JSONL file at path.
func ReadFile(path string) (ReadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return ReadResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	res, err := Read(file)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Read decodes one record, or an array of records, per line. Blank lines are
// skipped; malformed records become warnings.
func Read(r io.Reader) (ReadResult, error) {
	var (
		res    ReadResult
		parser fastjson.Parser
		lineNo int
	)
	scanner := newScanner(r)
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		v, err := parser.ParseBytes(line)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Errorf("line %d: %w", lineNo, err))
			continue
		}
		res.collect(v, fmt.Sprintf("line %d", lineNo))
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("scan log file: %w", err)
	}
	return res, nil
}

// Decode parses a JSON document holding a single record or an array of records.
func Decode(data []byte) (ReadResult, error) {
	var parser fastjson.Parser
	v, err := parser.ParseBytes(data)
	if err != nil {
		return ReadResult{}, fmt.Errorf("invalid json: %w", err)
	}
	var res ReadResult
	res.collect(v, "body")
	return res, nil
}

func (res *ReadResult) collect(v *fastjson.Value, where string) {
	if v.Type() == fastjson.TypeArray {
		items, _ := v.Array()
		for i, item := range items {
			res.add(item, fmt.Sprintf("%s[%d]", where, i))
		}
		return
	}
	res.add(v, where)
}

func (res *ReadResult) add(v *fastjson.Value, where string) {
	entry, err := decodeEntry(v)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Errorf("%s: %w", where, err))
		return
	}
	res.Entries = append(res.Entries, entry)
}

func decodeEntry(v *fastjson.Value) (model.LogEntry, error) {
	if v.Type() != fastjson.TypeObject {
		return model.LogEntry{}, fmt.Errorf("expected object, got %s", v.Type())
	}

	level, err := model.ParseLevel(string(v.GetStringBytes("level")))
	if err != nil {
		return model.LogEntry{}, err
	}
	message := string(v.GetStringBytes("message"))
	if message == "" {
		message = string(v.GetStringBytes("msg"))
	}
	if message == "" {
		return model.LogEntry{}, ErrMissingMessage
	}
	ts, err := parseTimestamp(v.Get("timestamp"))
	if err != nil {
		return model.LogEntry{}, err
	}

	entry := model.LogEntry{
		ID:        string(v.GetStringBytes("id")),
		Timestamp: ts,
		Level:     level,
		Message:   message,
		Category:  string(v.GetStringBytes("category")),
		Source:    string(v.GetStringBytes("source")),
		Stack:     string(v.GetStringBytes("stack")),
	}
	if details := v.Get("details"); details != nil && details.Type() != fastjson.TypeNull {
		var decoded any
		if err := json.Unmarshal(details.MarshalTo(nil), &decoded); err != nil {
			return model.LogEntry{}, fmt.Errorf("decode details: %w", err)
		}
		entry.Details = decoded
	}
	return entry, nil
}

// parseTimestamp accepts epoch milliseconds as a number or numeric string, or
// an RFC 3339 string. A missing value yields 0.
func parseTimestamp(v *fastjson.Value) (int64, error) {
	if v == nil {
		return 0, nil
	}
	switch v.Type() {
	case fastjson.TypeNull:
		return 0, nil
	case fastjson.TypeNumber:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("timestamp: %w", err)
		}
		return int64(f), nil
	case fastjson.TypeString:
		raw := string(v.GetStringBytes())
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return ms, nil
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return 0, fmt.Errorf("timestamp %q: %w", raw, err)
		}
		return t.UnixMilli(), nil
	default:
		return 0, fmt.Errorf("timestamp has unsupported type %s", v.Type())
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// Allow large detail payloads.
	const maxCapacity = 8 * 1024 * 1024
	buf := make([]byte, 1024)
	scanner.Buffer(buf, maxCapacity)
	return scanner
}

// Write encodes entries as JSON Lines.
func Write(w io.Writer, entries []model.LogEntry) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("encode entry %s: %w", entry.ID, err)
		}
	}
	return nil
}

// WriteFile writes entries to path as JSON Lines, replacing any existing file.
func WriteFile(path string, entries []model.LogEntry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	w := bufio.NewWriter(file)
	if err := Write(w, entries); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("flush log file: %w", err)
	}
	return file.Close()
}
