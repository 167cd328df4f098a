package domain

import "errors"

// Error kinds. Concrete errors wrap one of these with fmt.Errorf("%w: ...").
var (
	ErrNetwork          = errors.New("network error")
	ErrProtocol         = errors.New("protocol error")
	ErrPermission       = errors.New("microphone permission denied")
	ErrEncode           = errors.New("audio encode error")
	ErrDecode           = errors.New("audio decode error")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ErrorCodeOf maps an error to the code surfaced to the UI.
func ErrorCodeOf(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrNetwork):
		return ErrorCodeNetwork
	case errors.Is(err, ErrProtocol):
		return ErrorCodeProtocol
	case errors.Is(err, ErrPermission):
		return ErrorCodePermission
	case errors.Is(err, ErrEncode):
		return ErrorCodeEncode
	case errors.Is(err, ErrDecode):
		return ErrorCodeDecode
	case errors.Is(err, ErrNotAuthenticated):
		return ErrorCodeNotAuthenticated
	default:
		return ErrorCodeInternal
	}
}
