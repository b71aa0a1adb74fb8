package value

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collator backs Compare's string ordering. collate.Collator.CompareString
// mutates internal iterator buffers, so the shared instance needs a mutex
// around every call — concurrent renders (spec §5) would otherwise race on
// it through the relational operators.
var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Und)
)

// Compare orders two Data values for the expression relational operators
// ("<", ">", "<=", ">="). It returns -1, 0, or 1.
// Strings are ordered with a locale-aware collator rather than raw byte
// comparison, so ordering is well-defined across accented/mixed-case input
// instead of an accident of UTF-8 byte values. Numbers compare numerically.
// Any other pairing (differing kinds, collections, errors, lazy) is not
// orderable and returns 0.
func Compare(a, b Data) int {
	switch {
	case a.kind == KindString && b.kind == KindString:
		collatorMu.Lock()
		defer collatorMu.Unlock()
		return collator.CompareString(a.s, b.s)
	case a.kind == KindInt && b.kind == KindInt:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		default:
			return 0
		}
	case isNumeric(a.kind) && isNumeric(b.kind):
		af, bf := numeric(a), numeric(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

func isNumeric(k Kind) bool { return k == KindInt || k == KindDouble }

func numeric(d Data) float64 {
	if d.kind == KindInt {
		return float64(d.i)
	}
	return d.f
}
