package source

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/thisisjab/clefzilla/fault"
)

func readAll(t *testing.T, src LineSource) []string {
	t.Helper()
	defer src.Close()

	var lines []string
	for {
		line, err := src.Next()
		if err == io.EOF {
			return lines
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		lines = append(lines, line)
	}
}

func TestFromStringLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lf", "a\nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"blank lines kept", "a\n\nb\n", []string{"a", "", "b"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAll(t, FromString(tt.input))
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNextAfterCloseIsEOF(t *testing.T) {
	src := FromString("a\nb\n")
	if _, err := src.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := src.Next(); err != io.EOF {
		t.Errorf("Next after Close = %v, want io.EOF", err)
	}
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.clef")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenUTF8(t *testing.T) {
	path := writeFile(t, []byte("{\"@m\":\"héllo\"}\n"))
	src, err := Open(path, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	lines := readAll(t, src)
	if len(lines) != 1 || lines[0] != `{"@m":"héllo"}` {
		t.Errorf("lines = %q", lines)
	}
}

func TestOpenUTF8WithBOM(t *testing.T) {
	path := writeFile(t, append([]byte{0xEF, 0xBB, 0xBF}, []byte("{\"@m\":\"x\"}\n")...))
	src, err := Open(path, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	lines := readAll(t, src)
	if len(lines) != 1 || lines[0] != `{"@m":"x"}` {
		t.Errorf("BOM should be stripped, lines = %q", lines)
	}
}

func TestOpenUTF16LE(t *testing.T) {
	text := "{\"@m\":\"x\"}\n"
	data := []byte{0xFF, 0xFE} // BOM
	for _, r := range text {
		data = append(data, byte(r), 0)
	}

	path := writeFile(t, data)
	src, err := Open(path, "utf-16le")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	lines := readAll(t, src)
	if len(lines) != 1 || lines[0] != `{"@m":"x"}` {
		t.Errorf("lines = %q", lines)
	}
}

func TestOpenLatin1(t *testing.T) {
	// "é" is 0xE9 in ISO 8859-1.
	path := writeFile(t, []byte{'{', '"', '@', 'm', '"', ':', '"', 0xE9, '"', '}', '\n'})
	src, err := Open(path, "latin-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	lines := readAll(t, src)
	if len(lines) != 1 || lines[0] != `{"@m":"é"}` {
		t.Errorf("lines = %q", lines)
	}
}

func TestOpenFaults(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.clef"), "")
	if fault.CodeOf(err) != fault.SourceAccessCode {
		t.Errorf("missing file: %v", err)
	}

	path := writeFile(t, []byte("x\n"))
	_, err = Open(path, "klingon")
	if fault.CodeOf(err) != fault.SourceAccessCode {
		t.Errorf("unknown encoding: %v", err)
	}
}
