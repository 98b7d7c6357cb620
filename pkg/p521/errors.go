package p521

import (
	"github.com/pkg/errors"

	"github.com/smallyu/go-p521/internal/crypto/curve"
)

// Sentinel errors returned by this package. Callers match them with
// errors.Is; the concrete error may carry additional context.
var (
	// ErrInvalidEncoding is returned when a byte string is not a valid
	// encoding of the expected type.
	ErrInvalidEncoding = errors.New("p521: invalid encoding")

	// ErrPointNotOnCurve is returned when a decoded coordinate pair does
	// not satisfy the curve equation.
	ErrPointNotOnCurve = errors.New("p521: point not on curve")

	// ErrNoSquareRoot is returned when a compressed x coordinate has no
	// matching y on the curve.
	ErrNoSquareRoot = errors.New("p521: compressed x coordinate not on curve")

	// ErrInvalidScalar is returned when a scalar encoding is zero or not
	// below the group order.
	ErrInvalidScalar = errors.New("p521: scalar out of range")

	// ErrSignatureInvalid is returned by verification when the signature
	// does not match the digest and public key.
	ErrSignatureInvalid = errors.New("p521: invalid signature")

	// ErrNonceExhausted is returned when signing repeatedly produced a
	// degenerate r or s. With an honest nonce source this never happens.
	ErrNonceExhausted = errors.New("p521: nonce generation exhausted")
)

// wrapCurveError translates a decoding failure from the curve layer into the
// public error vocabulary, keeping msg as context.
func wrapCurveError(err error, msg string) error {
	switch {
	case errors.Is(err, curve.ErrPointNotOnCurve):
		return errors.Wrap(ErrPointNotOnCurve, msg)
	case errors.Is(err, curve.ErrNoSquareRoot):
		return errors.Wrap(ErrNoSquareRoot, msg)
	default:
		return errors.Wrap(ErrInvalidEncoding, msg)
	}
}
