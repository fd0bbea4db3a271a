package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/renato0307/modshell/internal/domain"
)

// Kind classifies task failures
type Kind string

const (
	KindInvalidArchive Kind = "invalid-archive"
	KindIO             Kind = "io"
	KindMetaRequired   Kind = "meta-required"
	KindMissingMeta    Kind = "missing-meta"
	KindOther          Kind = "other"
	KindTransport      Kind = "transport"
	KindUnknownMod     Kind = "unknown-mod"
)

var knownKinds = map[Kind]bool{
	KindInvalidArchive: true,
	KindIO:             true,
	KindMetaRequired:   true,
	KindMissingMeta:    true,
	KindOther:          true,
	KindTransport:      true,
	KindUnknownMod:     true,
}

// Error is the single failure type returned by the runner. Transport faults
// and in-band error payloads both end up here.
type Error struct {
	Err     error
	Kind    Kind
	Message string
	Op      string
	Trace   string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a task error, or "" when err is not one
func KindOf(err error) Kind {
	var taskErr *Error
	if errors.As(err, &taskErr) {
		return taskErr.Kind
	}
	return ""
}

// IsKind reports whether err is a task error of the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Payload is the in-band failure shape a backend returns instead of a result
type Payload struct {
	Backtrace string `json:"backtrace,omitempty"`
	Error     Kind   `json:"error"`
	Msg       string `json:"msg"`
}

// NewPayload describes a backend error as an in-band failure payload
func NewPayload(err error) Payload {
	return Payload{
		Backtrace: chain(err),
		Error:     kindFor(err),
		Msg:       err.Error(),
	}
}

func kindFor(err error) Kind {
	var taskErr *Error
	switch {
	case errors.As(err, &taskErr):
		return taskErr.Kind
	case errors.Is(err, domain.ErrMissingMeta):
		return KindMissingMeta
	case errors.Is(err, domain.ErrInvalidArchive):
		return KindInvalidArchive
	case errors.Is(err, domain.ErrMetaRequired):
		return KindMetaRequired
	case errors.Is(err, domain.ErrModNotFound):
		return KindUnknownMod
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return KindIO
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return KindIO
	}
	return KindOther
}

// chain renders the wrapped error chain, outermost first
func chain(err error) string {
	var lines []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		lines = append(lines, e.Error())
	}
	if len(lines) < 2 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// decodeFailure detects an in-band failure payload. Only a JSON object with
// a non-empty "error" or "backtrace" field counts; anything else is a result.
func decodeFailure(op string, raw json.RawMessage) (*Error, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	_, hasError := fields["error"]
	_, hasTrace := fields["backtrace"]
	if !hasError && !hasTrace {
		return nil, false
	}

	var p struct {
		Backtrace string `json:"backtrace"`
		Error     any    `json:"error"`
		Msg       string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}

	kind := KindOther
	msg := p.Msg
	switch v := p.Error.(type) {
	case string:
		if v == "" && p.Backtrace == "" {
			return nil, false
		}
		if knownKinds[Kind(v)] {
			kind = Kind(v)
		} else if msg == "" {
			msg = v
		}
	case nil:
		if p.Backtrace == "" {
			return nil, false
		}
	default:
		// Some backends put the whole message under "error"
		if msg == "" {
			msg = fmt.Sprint(v)
		}
	}
	if msg == "" {
		msg = p.Backtrace
	}

	return &Error{Kind: kind, Message: msg, Op: op, Trace: p.Backtrace}, true
}
