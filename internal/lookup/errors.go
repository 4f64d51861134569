package lookup

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/shopfloor/internal/db"
)

// Kind classifies lookup failures for the response boundary.
type Kind int

const (
	// KindStore is an underlying data-store failure.
	KindStore Kind = iota
	// KindInvalidArgument is missing or malformed caller input.
	KindInvalidArgument
	// KindTimeout is a query that exceeded its deadline.
	KindTimeout
	// KindNotFound is a missing account record. Empty search or parts results
	// are never KindNotFound.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	default:
		return "store"
	}
}

// Sentinel roots of the classified kinds.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
)

// Error is a classified lookup failure. Op names the failing operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return "lookup: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err. Unclassified errors count as store failures
// unless they carry a deadline.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	if db.IsTimeout(err) {
		return KindTimeout
	}
	return KindStore
}

func invalidArgument(op, msg string) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: eris.Wrap(ErrInvalidArgument, msg)}
}

func notFound(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Err: eris.Wrap(ErrNotFound, msg)}
}

func storeFailure(op string, err error, msg string) error {
	kind := KindStore
	if db.IsTimeout(err) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Op: op, Err: eris.Wrap(err, msg)}
}
