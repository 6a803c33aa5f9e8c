// Package wlerr defines the error kinds the connection and its proxies
// surface, per the runtime's error handling design.
package wlerr

import "fmt"

// Kind classifies a runtime error so callers can branch with errors.Is
// instead of string matching.
type Kind int

const (
	// KindEnvironmentMissing means a required environment variable was
	// absent at connection construction.
	KindEnvironmentMissing Kind = iota
	// KindConnectFailed means the socket connection was refused.
	KindConnectFailed
	// KindDisconnected means the peer closed the socket, or the local
	// end was shut down.
	KindDisconnected
	// KindUnsupportedProtocol means a requested interface name is not in
	// the advertised registry.
	KindUnsupportedProtocol
	// KindInvalidArgument means a buffer/pool size mismatch, unknown
	// format, unknown MIME type, or malformed target selector.
	KindInvalidArgument
	// KindProgrammerError means double registration, re-binding a bound
	// proxy, or binding before initial sync.
	KindProgrammerError
	// KindCodecError means a malformed message header.
	KindCodecError
)

func (k Kind) String() string {
	switch k {
	case KindEnvironmentMissing:
		return "environment-missing"
	case KindConnectFailed:
		return "connect-failed"
	case KindDisconnected:
		return "disconnected"
	case KindUnsupportedProtocol:
		return "unsupported-protocol"
	case KindInvalidArgument:
		return "invalid-argument"
	case KindProgrammerError:
		return "programmer-error"
	case KindCodecError:
		return "codec-error"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind so it can be classified by
// errors.As without parsing the message text.
type Error struct {
	Kind      Kind
	Message   string
	Underlying error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, underlying error) *Error {
	return &Error{Kind: kind, Message: message, Underlying: underlying}
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is lets errors.Is(err, wlerr.Disconnected) work against a bare Kind
// sentinel created with New and no Underlying.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel values for errors.Is comparisons against a specific kind,
// regardless of message.
var (
	Disconnected        = &Error{Kind: KindDisconnected}
	CodecError          = &Error{Kind: KindCodecError}
	UnsupportedProtocol = &Error{Kind: KindUnsupportedProtocol}
	ProgrammerError     = &Error{Kind: KindProgrammerError}
	InvalidArgument     = &Error{Kind: KindInvalidArgument}
)
