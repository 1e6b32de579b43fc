package routing

import "strings"

// Kind discriminates the predicate value union.
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindBool
	KindMap
	KindSequence
)

// Value is a tagged union over the shapes a predicate lookup can produce:
// string, number, boolean, nested mapping, sequence, or absent. Predicate
// evaluation never touches untyped dynamic values directly; everything is
// normalized through FromAny first so that "absent" is an explicit state
// rather than a nil panic.
type Value struct {
	kind    Kind
	str     string
	num     float64
	boolean bool
	mapping map[string]any
	seq     []any
}

// Absent is the zero Value; a lookup that walks off the data returns it.
var Absent = Value{kind: KindAbsent}

// FromAny normalizes a dynamically typed value (typically JSON-decoded) into
// a Value. All numeric widths collapse to float64, matching JSON semantics;
// unknown types map to absent.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Absent
	case string:
		return Value{kind: KindString, str: t}
	case bool:
		return Value{kind: KindBool, boolean: t}
	case float64:
		return Value{kind: KindNumber, num: t}
	case float32:
		return Value{kind: KindNumber, num: float64(t)}
	case int:
		return Value{kind: KindNumber, num: float64(t)}
	case int32:
		return Value{kind: KindNumber, num: float64(t)}
	case int64:
		return Value{kind: KindNumber, num: float64(t)}
	case map[string]any:
		return Value{kind: KindMap, mapping: t}
	case []any:
		return Value{kind: KindSequence, seq: t}
	case []string:
		seq := make([]any, len(t))
		for i, s := range t {
			seq[i] = s
		}
		return Value{kind: KindSequence, seq: seq}
	default:
		return Absent
	}
}

// Kind returns the union tag.
func (v Value) Kind() Kind {
	return v.kind
}

// Equal reports strict equality: same kind, same scalar content. There is no
// cross-kind coercion and string comparison is case-sensitive. Mappings and
// sequences never compare equal as scalars.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.boolean == other.boolean
	default:
		return false
	}
}

// Contains reports whether a sequence Value has a member equal to want.
func (v Value) Contains(want Value) bool {
	if v.kind != KindSequence {
		return false
	}
	for _, item := range v.seq {
		if FromAny(item).Equal(want) {
			return true
		}
	}
	return false
}

// resolvePath resolves a dotted field path against a ticket context. The
// first segment selects a top-level context field; the "data" segment walks
// the nested Data mapping with the remaining segments. Any absent segment
// yields Absent, which a predicate treats as "no match", not an error.
func resolvePath(ticket *TicketContext, path string) Value {
	segments := strings.Split(path, ".")
	head, rest := segments[0], segments[1:]

	switch head {
	case "requestType":
		return scalarField(string(ticket.RequestType), rest)
	case "priority":
		return scalarField(string(ticket.Priority), rest)
	case "customerEmail":
		return scalarField(ticket.CustomerEmail, rest)
	case "summary":
		return scalarField(ticket.Summary, rest)
	case "data":
		return walkMapping(ticket.Data, rest)
	default:
		return Absent
	}
}

// scalarField returns a string field value, or Absent if the path tries to
// descend into a scalar.
func scalarField(value string, rest []string) Value {
	if len(rest) > 0 {
		return Absent
	}
	return Value{kind: KindString, str: value}
}

// walkMapping descends a nested mapping segment by segment. A bare "data"
// key (no remaining segments) resolves to the mapping itself.
func walkMapping(mapping map[string]any, segments []string) Value {
	if mapping == nil {
		return Absent
	}
	if len(segments) == 0 {
		return Value{kind: KindMap, mapping: mapping}
	}
	current := FromAny(mapping)
	for _, segment := range segments {
		if current.kind != KindMap {
			return Absent
		}
		child, ok := current.mapping[segment]
		if !ok {
			return Absent
		}
		current = FromAny(child)
	}
	return current
}
