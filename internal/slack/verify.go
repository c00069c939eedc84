package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// Headers Slack signs every webhook request with.
const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"
)

var (
	ErrMissingHeaders = errors.New("missing signature headers")
	ErrBadTimestamp   = errors.New("malformed request timestamp")
	ErrStaleTimestamp = errors.New("request timestamp outside freshness window")
	ErrBadSignature   = errors.New("signature mismatch")
)

// Verifier checks the v0 HMAC signing scheme: the signature header must
// equal "v0=" + hex(HMAC-SHA256(secret, "v0:<timestamp>:<body>")), and the
// timestamp must be within the freshness window to block replays.
type Verifier struct {
	secret []byte
	maxAge time.Duration
}

func NewVerifier(secret string, maxAge time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), maxAge: maxAge}
}

// Verify fails closed: any missing, malformed, stale, or mismatching input
// yields an error and the request must be rejected.
func (v *Verifier) Verify(now time.Time, body []byte, timestamp, signature string) error {
	if timestamp == "" || signature == "" {
		return ErrMissingHeaders
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrBadTimestamp
	}

	age := now.Sub(time.Unix(ts, 0))
	if age < 0 {
		age = -age
	}
	if age > v.maxAge {
		return ErrStaleTimestamp
	}

	if !hmac.Equal([]byte(v.Sign(timestamp, body)), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

// Sign computes the expected signature for a timestamp/body pair.
func (v *Verifier) Sign(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}
