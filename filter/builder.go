package filter

import (
	"fmt"
	"regexp"
	"time"

	"github.com/thisisjab/clefzilla/entity"
	"github.com/thisisjab/clefzilla/fault"
)

// Builder accumulates filter criteria through chained calls and compiles
// them into one conjunctive predicate. Configuring the same criterion twice
// replaces the earlier value (per user field name for the field matchers).
// All validation (pattern compilation, time-range sanity, script loading)
// happens in Build, never during evaluation.
type Builder struct {
	level    string
	hasLevel bool

	start    time.Time
	hasStart bool
	end      time.Time
	hasEnd   bool

	message       string
	hasMessage    bool
	template      string
	hasTemplate   bool
	exception     string
	hasException  bool
	renderings    string
	hasRenderings bool

	eventID *entity.Value

	fieldEquals  map[string]string
	fieldMatches map[string]string

	script string
}

func NewBuilder() *Builder {
	return &Builder{
		fieldEquals:  make(map[string]string),
		fieldMatches: make(map[string]string),
	}
}

// Level filters by log level, case-insensitively.
func (b *Builder) Level(level string) *Builder {
	b.level = level
	b.hasLevel = true
	return b
}

// StartTime keeps events at or after start (inclusive).
func (b *Builder) StartTime(start time.Time) *Builder {
	b.start = start
	b.hasStart = true
	return b
}

// EndTime keeps events at or before end (inclusive).
func (b *Builder) EndTime(end time.Time) *Builder {
	b.end = end
	b.hasEnd = true
	return b
}

// Message keeps events whose rendered message contains the regexp pattern.
func (b *Builder) Message(pattern string) *Builder {
	b.message = pattern
	b.hasMessage = true
	return b
}

// MessageTemplate keeps events whose template contains the pattern.
func (b *Builder) MessageTemplate(pattern string) *Builder {
	b.template = pattern
	b.hasTemplate = true
	return b
}

// Exception keeps events whose exception payload contains the pattern.
func (b *Builder) Exception(pattern string) *Builder {
	b.exception = pattern
	b.hasException = true
	return b
}

// Renderings keeps events whose renderings payload contains the pattern.
func (b *Builder) Renderings(pattern string) *Builder {
	b.renderings = pattern
	b.hasRenderings = true
	return b
}

// EventID keeps events carrying exactly this event id.
func (b *Builder) EventID(id entity.Value) *Builder {
	b.eventID = &id
	return b
}

// UserField keeps events whose user field name has exactly this string
// representation. Independent per field name; all configured fields must
// hold.
func (b *Builder) UserField(name, value string) *Builder {
	delete(b.fieldMatches, name)
	b.fieldEquals[name] = value
	return b
}

// UserFieldPattern keeps events whose user field matches the regexp
// pattern. Replaces an earlier matcher for the same field name.
func (b *Builder) UserFieldPattern(name, pattern string) *Builder {
	delete(b.fieldEquals, name)
	b.fieldMatches[name] = pattern
	return b
}

// Script adds a Lua predicate loaded from path; the script must define
// match_event(event) returning a boolean. See ScriptPredicate.
func (b *Builder) Script(path string) *Builder {
	b.script = path
	return b
}

// Build compiles the configured criteria into one predicate. An empty
// builder compiles to the identity filter. Invalid patterns, an inverted
// time range, and unloadable scripts fail here with a filter_config fault.
func (b *Builder) Build() (Predicate, error) {
	var preds []Predicate

	if b.hasStart && b.hasEnd && b.start.After(b.end) {
		return nil, fault.New(fault.FilterConfigCode,
			fmt.Sprintf("start time %s is after end time %s",
				b.start.Format(time.RFC3339), b.end.Format(time.RFC3339)))
	}

	if b.hasLevel {
		// An empty level is indistinguishable from an unset attribute and
		// would compile to a predicate that never matches.
		if b.level == "" {
			return nil, fault.New(fault.FilterConfigCode, "level cannot be empty")
		}
		preds = append(preds, Level(b.level))
	}
	if b.hasStart {
		preds = append(preds, StartTime(b.start))
	}
	if b.hasEnd {
		preds = append(preds, EndTime(b.end))
	}

	for _, c := range []struct {
		set     bool
		name    string
		pattern string
		pred    func(*regexp.Regexp) Predicate
	}{
		{b.hasMessage, "message", b.message, Message},
		{b.hasTemplate, "message template", b.template, MessageTemplate},
		{b.hasException, "exception", b.exception, Exception},
		{b.hasRenderings, "renderings", b.renderings, Renderings},
	} {
		if !c.set {
			continue
		}
		re, err := compilePattern(c.name, c.pattern)
		if err != nil {
			return nil, err
		}
		preds = append(preds, c.pred(re))
	}

	if b.eventID != nil {
		preds = append(preds, EventID(*b.eventID))
	}

	for name, value := range b.fieldEquals {
		preds = append(preds, UserFieldEquals(name, value))
	}
	for name, pattern := range b.fieldMatches {
		re, err := compilePattern(fmt.Sprintf("user field %q", name), pattern)
		if err != nil {
			return nil, err
		}
		preds = append(preds, UserFieldMatches(name, re))
	}

	if b.script != "" {
		p, err := ScriptPredicate(b.script)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	return And(preds...), nil
}

func compilePattern(name, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fault.New(fault.FilterConfigCode, fmt.Sprintf("%s pattern cannot be empty", name))
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fault.New(fault.FilterConfigCode,
			fmt.Sprintf("invalid %s pattern %q", name, pattern)).WithOriginal(err)
	}
	return re, nil
}
