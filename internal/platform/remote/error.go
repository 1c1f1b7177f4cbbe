package remote

import "fmt"

// Kind classifies a failure from an upstream API so that handlers can map it
// to the right HTTP response without inspecting message text.
type Kind int

const (
	// KindRemote is an unclassified upstream failure (5xx after retries,
	// transport error, undecodable body).
	KindRemote Kind = iota
	// KindNotFound covers 404 responses and the known deployment quirk of a
	// 404 miscoded as a 400 with an "is not a valid id format" message.
	KindNotFound
	// KindLocked is a 403 on write: the record is associated with a
	// published dataset and must be exported manually instead.
	KindLocked
	// KindBadRequest is a genuine 400 from the upstream.
	KindBadRequest
	// KindUnauthorized is a 401/expired token.
	KindUnauthorized
)

// Error is the typed failure contract for all upstream calls. A call either
// returns a parsed document or an *Error; callers never retry themselves.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream: %s (status %d)", e.Message, e.Status)
}

// NotFound reports whether err is an upstream record-not-found failure.
func NotFound(err error) bool {
	re, ok := err.(*Error)
	return ok && re.Kind == KindNotFound
}
