package codec

import "errors"

// Errors returned by codec operations.
var (
	// ErrUnknownKind indicates a record carries an unrecognized type tag.
	ErrUnknownKind = errors.New("unknown command kind")

	// ErrMalformedRecord indicates a record is structurally invalid.
	ErrMalformedRecord = errors.New("malformed history record")

	// ErrBadVersion indicates a payload was encoded with an unsupported
	// format version.
	ErrBadVersion = errors.New("unsupported payload version")

	// ErrCorruptPayload indicates a packed payload cannot be decoded.
	ErrCorruptPayload = errors.New("corrupt command payload")
)
