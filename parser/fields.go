package parser

import "strings"

// Reified CLEF field names. Keys with the @ marker prefix are standardized
// by the format; everything else is a user-defined field.
const (
	FieldTimestamp       = "@t"
	FieldMessage         = "@m"
	FieldMessageTemplate = "@mt"
	FieldLevel           = "@l"
	FieldException       = "@x"
	FieldEventID         = "@i"
	FieldRenderings      = "@r"
)

// escapePrefix marks user fields whose name genuinely begins with "@":
// "@@Foo" on the wire is the user field "@Foo".
const escapePrefix = "@@"

var reifiedFields = map[string]struct{}{
	FieldTimestamp:       {},
	FieldMessage:         {},
	FieldMessageTemplate: {},
	FieldLevel:           {},
	FieldException:       {},
	FieldEventID:         {},
	FieldRenderings:      {},
}

// classify partitions a top-level key: a recognized reified field name, or
// the (possibly unescaped) user-field name. Exactly one of the two return
// values is non-empty.
func classify(key string) (reified string, user string) {
	if _, ok := reifiedFields[key]; ok {
		return key, ""
	}
	if strings.HasPrefix(key, escapePrefix) {
		return "", key[1:]
	}
	return "", key
}
