package parser

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/thisisjab/clefzilla/fault"
	"github.com/thisisjab/clefzilla/source"
)

func TestStreamMatchesBulkOrder(t *testing.T) {
	p := New(Config{})

	bulk, err := p.ParseAll(source.FromString(threeValid))
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}

	reader := p.Stream(source.FromString(threeValid))
	defer reader.Close()

	for i := 0; ; i++ {
		event, err := reader.Next()
		if err == io.EOF {
			if i != len(bulk.Events) {
				t.Fatalf("stream produced %d events, bulk %d", i, len(bulk.Events))
			}
			return
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if event.LineNumber != bulk.Events[i].LineNumber || event.Message != bulk.Events[i].Message {
			t.Errorf("event %d differs between stream and bulk", i)
		}
	}
}

func TestStreamIsLazy(t *testing.T) {
	lines := make([]string, 10000)
	for i := range lines {
		lines[i] = fmt.Sprintf(`{"@t":"2023-06-01T12:00:00Z","@m":"event %d"}`, i)
	}
	src := &fakeSource{lines: lines}
	reader := New(Config{}).Stream(src)
	defer reader.Close()

	if src.reads != 0 {
		t.Fatalf("creating the reader read %d lines", src.reads)
	}

	if _, err := reader.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if src.reads != 1 {
		t.Errorf("one pull read %d lines, want 1", src.reads)
	}

	if _, err := reader.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if src.reads != 2 {
		t.Errorf("two pulls read %d lines, want 2", src.reads)
	}
}

func TestStreamStrictFaultIsTerminal(t *testing.T) {
	src := &fakeSource{lines: strings.Split(strings.TrimRight(withBadThirdLine, "\n"), "\n")}
	reader := New(Config{}).Stream(src)

	for i := 0; i < 2; i++ {
		if _, err := reader.Next(); err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
	}

	_, err := reader.Next()
	if fault.CodeOf(err) != fault.MalformedLineCode || fault.LineOf(err) != 3 {
		t.Fatalf("expected malformed fault for line 3, got %v", err)
	}
	if !src.closed {
		t.Error("source not released on terminal fault")
	}

	// The fault is sticky: no further pulls succeed.
	_, again := reader.Next()
	if again != err {
		t.Errorf("second pull returned %v, want the same fault", again)
	}
}

func TestStreamLenientSkips(t *testing.T) {
	src := &fakeSource{lines: strings.Split(strings.TrimRight(withBadThirdLine, "\n"), "\n")}
	reader := New(Config{Lenient: true}).Stream(src)
	defer reader.Close()

	var got []string
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, event.Message)
	}

	if len(got) != 3 || got[2] != "four" {
		t.Errorf("events = %v", got)
	}
	if reader.Skipped() != 1 {
		t.Errorf("Skipped = %d, want 1", reader.Skipped())
	}
}

func TestStreamClosesOnEOF(t *testing.T) {
	src := &fakeSource{lines: []string{`{"@t":"2023-06-01T12:00:00Z"}`}}
	reader := New(Config{}).Stream(src)

	if _, err := reader.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Fatalf("want io.EOF, got %v", err)
	}
	if !src.closed {
		t.Error("source not released on exhaustion")
	}
	// EOF stays EOF.
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("pull after EOF = %v", err)
	}
}

func TestStreamAbandonReleasesSource(t *testing.T) {
	src := &fakeSource{lines: strings.Split(strings.TrimRight(threeValid, "\n"), "\n")}
	reader := New(Config{}).Stream(src)

	if _, err := reader.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !src.closed {
		t.Error("source not released on abandonment")
	}
	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("pull after Close = %v, want io.EOF", err)
	}
	// Close is idempotent.
	if err := reader.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestStreamSourceAccessFault(t *testing.T) {
	src := &fakeSource{lines: []string{`{"@t":"2023-06-01T12:00:00Z"}`, "x"}, failAt: 2}
	reader := New(Config{}).Stream(src)

	if _, err := reader.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	_, err := reader.Next()
	if fault.CodeOf(err) != fault.SourceAccessCode {
		t.Errorf("expected source access fault, got %v", err)
	}
	if !src.closed {
		t.Error("source not released on read error")
	}
}
