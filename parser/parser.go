package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/thisisjab/clefzilla/entity"
	"github.com/thisisjab/clefzilla/fault"
	"github.com/thisisjab/clefzilla/source"
)

type Config struct {
	// Lenient parsing collects or skips bad lines instead of aborting, and
	// tolerates a missing @t (the timestamp stays unset). It never defaults
	// a field that failed conversion: the whole line is rejected.
	Lenient bool `yaml:"lenient"`
}

// Parser converts CLEF lines into events. It is stateless: one parser can
// serve any number of concurrent parse operations.
type Parser struct {
	cfg Config
}

func New(cfg Config) *Parser {
	return &Parser{cfg: cfg}
}

func (p *Parser) Lenient() bool {
	return p.cfg.Lenient
}

// ParseLine parses one line into an event. Blank lines produce (nil, nil).
// lineNumber is 1-based and is only used for provenance and diagnostics.
func (p *Parser) ParseLine(line string, lineNumber int) (*entity.Event, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, malformed(lineNumber, line, err)
	}
	// JSON null decodes into a nil map without an error; it is still not an
	// object.
	if raw == nil {
		return nil, malformed(lineNumber, line, fmt.Errorf("JSON null is not an object"))
	}
	if dec.More() {
		return nil, malformed(lineNumber, line, fmt.Errorf("trailing data after JSON object"))
	}

	event := entity.Event{
		UserFields: make(map[string]entity.Value),
		LineNumber: lineNumber,
		RawLine:    line,
	}

	for key, value := range raw {
		reified, user := classify(key)
		if reified == "" {
			event.UserFields[user] = entity.ValueOf(value)
			continue
		}
		if err := setReified(&event, reified, value, lineNumber, line); err != nil {
			return nil, err
		}
	}

	if !event.HasTimestamp() && !p.cfg.Lenient {
		return nil, invalidField(lineNumber, FieldTimestamp, line,
			fmt.Errorf("missing required timestamp"))
	}

	return &event, nil
}

func setReified(event *entity.Event, field string, value any, lineNumber int, line string) error {
	switch field {
	case FieldTimestamp:
		s, ok := value.(string)
		if !ok {
			return invalidField(lineNumber, field, line, fmt.Errorf("timestamp must be a string"))
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return invalidField(lineNumber, field, line, err)
		}
		event.Timestamp = ts
	case FieldLevel:
		s, ok := value.(string)
		if !ok {
			return invalidField(lineNumber, field, line, fmt.Errorf("level must be a string"))
		}
		event.Level = s
	case FieldMessage:
		s, ok := value.(string)
		if !ok {
			return invalidField(lineNumber, field, line, fmt.Errorf("message must be a string"))
		}
		event.Message = s
	case FieldMessageTemplate:
		s, ok := value.(string)
		if !ok {
			return invalidField(lineNumber, field, line, fmt.Errorf("message template must be a string"))
		}
		event.MessageTemplate = s
	case FieldException:
		event.Exception = entity.ValueOf(value)
	case FieldEventID:
		event.EventID = entity.ValueOf(value)
	case FieldRenderings:
		event.Renderings = entity.ValueOf(value)
	}
	return nil
}

// Result is the outcome of a bulk parse. Failures is only populated in
// lenient mode; strict mode aborts on the first fault instead.
type Result struct {
	Events   []entity.Event
	Failures []error
}

// ParseAll eagerly parses every line of the source, in file order, and
// closes the source before returning. Strict mode returns the first parse
// fault with no partial result; source read errors always abort.
func (p *Parser) ParseAll(src source.LineSource) (Result, error) {
	defer src.Close()

	var res Result
	lineNumber := 0
	for {
		line, err := src.Next()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return Result{}, sourceAccess(err)
		}
		lineNumber++

		event, err := p.ParseLine(line, lineNumber)
		if err != nil {
			if p.cfg.Lenient {
				res.Failures = append(res.Failures, err)
				continue
			}
			return Result{}, err
		}
		if event != nil {
			res.Events = append(res.Events, *event)
		}
	}
}

func malformed(lineNumber int, line string, err error) error {
	return fault.New(fault.MalformedLineCode, fmt.Sprintf("line %d is not a valid JSON object", lineNumber)).
		WithMetadata(fault.LineInfo{Line: lineNumber, Raw: line}).
		WithOriginal(err)
}

func invalidField(lineNumber int, field string, line string, err error) error {
	return fault.New(fault.InvalidFieldCode, fmt.Sprintf("line %d has an invalid %s field", lineNumber, field)).
		WithMetadata(fault.FieldInfo{Line: lineNumber, Field: field, Raw: line}).
		WithOriginal(err)
}

func sourceAccess(err error) error {
	if fault.CodeOf(err) == fault.SourceAccessCode {
		return err
	}
	return fault.New(fault.SourceAccessCode, "cannot read from source").WithOriginal(err)
}
