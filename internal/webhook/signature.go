package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifySignature checks a webhook delivery's authenticity. The signature
// header carries a hex-encoded HMAC-SHA256 of the exact raw request body
// under the shared secret. Comparison is constant time; malformed encoding
// and empty secrets verify as false, never as errors.
//
// This must run against the raw bytes before any JSON parsing; re-encoding
// a parsed body does not round-trip byte-for-byte.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" {
		return false
	}

	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(sig, mac.Sum(nil))
}

// SignBody computes the hex-encoded signature for a body, for outbound
// test traffic and replay tooling.
func SignBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
