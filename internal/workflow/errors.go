package workflow

import "net/http"

type Kind int

const (
	// KindNotFound: project, stage or user absent.
	KindNotFound Kind = iota + 1
	// KindForbidden: the actor may not act on this project.
	KindForbidden
	// KindRejected: a business rule refused the transition.
	KindRejected
	// KindInvalid: malformed input, e.g. an empty block reason.
	KindInvalid
)

// Error is the engine's error type. NotFound and Forbidden propagate before
// any side effect; Rejected and Invalid are raised before any mutation is
// attempted, so a failed request never leaves a partial ledger update.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindRejected:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func errNotFound(msg string) *Error  { return &Error{Kind: KindNotFound, Message: msg} }
func errForbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }
func errRejected(msg string) *Error  { return &Error{Kind: KindRejected, Message: msg} }
func errInvalid(msg string) *Error   { return &Error{Kind: KindInvalid, Message: msg} }
