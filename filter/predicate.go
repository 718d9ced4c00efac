package filter

import (
	"regexp"
	"time"

	"github.com/thisisjab/clefzilla/entity"
)

// Predicate is one boolean test over a single event. Predicates never fail
// for data reasons: a missing field or an incompatible type simply does not
// match.
type Predicate func(entity.Event) bool

// And combines predicates conjunctively. And() is the identity filter that
// matches every event.
func And(preds ...Predicate) Predicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return func(e entity.Event) bool {
		for _, p := range preds {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

// Level matches events whose level equals the given one, ignoring case.
// Events without a level never match.
func Level(level string) Predicate {
	return func(e entity.Event) bool {
		return e.LevelEquals(level)
	}
}

// StartTime matches events at or after start. Events without a timestamp
// never match.
func StartTime(start time.Time) Predicate {
	return func(e entity.Event) bool {
		return e.HasTimestamp() && !e.Timestamp.Before(start)
	}
}

// EndTime matches events at or before end. Events without a timestamp
// never match.
func EndTime(end time.Time) Predicate {
	return func(e entity.Event) bool {
		return e.HasTimestamp() && !e.Timestamp.After(end)
	}
}

// Message matches events whose rendered message contains the pattern.
// Events without a message never match.
func Message(re *regexp.Regexp) Predicate {
	return func(e entity.Event) bool {
		return e.Message != "" && re.MatchString(e.Message)
	}
}

// MessageTemplate matches against the pre-substitution template.
func MessageTemplate(re *regexp.Regexp) Predicate {
	return func(e entity.Event) bool {
		return e.MessageTemplate != "" && re.MatchString(e.MessageTemplate)
	}
}

// Exception matches against the string form of the exception payload.
func Exception(re *regexp.Regexp) Predicate {
	return func(e entity.Event) bool {
		return !e.Exception.IsZero() && re.MatchString(e.Exception.String())
	}
}

// Renderings matches against the string form of the renderings payload.
func Renderings(re *regexp.Regexp) Predicate {
	return func(e entity.Event) bool {
		return !e.Renderings.IsZero() && re.MatchString(e.Renderings.String())
	}
}

// EventID matches events carrying exactly this event id.
func EventID(id entity.Value) Predicate {
	return func(e entity.Event) bool {
		return !e.EventID.IsZero() && e.EventID.Equal(id)
	}
}

// UserFieldEquals matches events whose user field has exactly the given
// string representation. Absent fields never match.
func UserFieldEquals(name, value string) Predicate {
	return func(e entity.Event) bool {
		v, ok := e.UserField(name)
		return ok && v.String() == value
	}
}

// UserFieldMatches matches the pattern against the user field's string
// representation. Absent fields never match.
func UserFieldMatches(name string, re *regexp.Regexp) Predicate {
	return func(e entity.Event) bool {
		v, ok := e.UserField(name)
		return ok && re.MatchString(v.String())
	}
}
