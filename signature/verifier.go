package signature

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Header names carrying the delivery signature and its timestamp.
const (
	HeaderSignature = "X-Renderbase-Signature"
	HeaderTimestamp = "X-Renderbase-Timestamp"
)

// DefaultTolerance bounds the clock skew accepted between sender and receiver.
const DefaultTolerance = 5 * time.Minute

// Verification failures.
var (
	ErrMissingSignature  = errors.New("signature: missing signature or timestamp header")
	ErrInvalidTimestamp  = errors.New("signature: invalid timestamp")
	ErrTimestampTooOld   = errors.New("signature: timestamp outside tolerance")
	ErrSignatureMismatch = errors.New("signature: no matching signature")
)

// Verifier checks signed deliveries against a shared secret.
type Verifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier returns a Verifier for secret. A non-positive tolerance uses
// DefaultTolerance.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance, now: time.Now}
}

// VerifyHeaders checks payload against the raw header values.
func (v *Verifier) VerifyHeaders(payload []byte, timestampHeader, signatureHeader string) error {
	timestampHeader = strings.TrimSpace(timestampHeader)
	signatureHeader = strings.TrimSpace(signatureHeader)
	if timestampHeader == "" || signatureHeader == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}

	skew := v.now().Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.tolerance {
		return ErrTimestampTooOld
	}

	for _, candidate := range strings.Split(signatureHeader, ",") {
		if Verify(payload, v.secret, ts, strings.TrimSpace(candidate)) {
			return nil
		}
	}
	return ErrSignatureMismatch
}
