package wire

import "errors"

// Parse errors, one package-level sentinel per distinct framing failure
// rather than ad hoc fmt.Errorf in the hot path.
var (
	ErrNeedMoreData           = errors.New("wire: need more data")
	ErrMalformedRequestLine   = errors.New("wire: malformed request-line")
	ErrMalformedStatusLine    = errors.New("wire: malformed status-line")
	ErrMalformedTarget        = errors.New("wire: malformed request-target")
	ErrMethodNotImplemented   = errors.New("wire: method not implemented")
	ErrVersionNotSupported    = errors.New("wire: HTTP version not supported")
	ErrMalformedHeaders       = errors.New("wire: malformed header section")
	ErrMalformedContentLength = errors.New("wire: malformed Content-Length")
	ErrContentLengthOverflow  = errors.New("wire: Content-Length overflow")
)

// StatusFor maps a parse failure to the status code an error reply
// synthesized for it should carry.
func StatusFor(err error) StatusCode {
	switch err {
	case ErrMethodNotImplemented:
		return StatusNotImplemented
	case ErrVersionNotSupported:
		return StatusHTTPVersionNotSupported
	case ErrMalformedRequestLine, ErrMalformedTarget, ErrMalformedHeaders, ErrMalformedContentLength, ErrContentLengthOverflow:
		return StatusBadRequest
	default:
		return StatusInternalServerError
	}
}
