package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/thisisjab/clefzilla/fault"
)

// Open opens a CLEF file and decodes it with the named encoding. The empty
// name means UTF-8. A leading byte order mark always wins over the hint.
func Open(path string, encodingName string) (LineSource, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fault.New(fault.SourceAccessCode, fmt.Sprintf("cannot open %s", path)).
			WithOriginal(err)
	}

	var r io.Reader = transform.NewReader(f, unicode.BOMOverride(enc.NewDecoder()))
	return &fileSource{inner: FromReader(r), f: f, path: path}, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "utf-16le", "utf16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be", "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fault.New(fault.SourceAccessCode, fmt.Sprintf("unsupported encoding %q", name))
	}
}

type fileSource struct {
	inner  LineSource
	f      *os.File
	path   string
	closed bool
}

func (s *fileSource) Next() (string, error) {
	line, err := s.inner.Next()
	if err != nil && err != io.EOF {
		return "", fault.New(fault.SourceAccessCode, fmt.Sprintf("cannot read %s", s.path)).
			WithOriginal(err)
	}
	return line, err
}

func (s *fileSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}
