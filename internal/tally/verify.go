package tally

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader is the request header carrying the provider's signature.
const SignatureHeader = "tally-signature"

// Verifier checks that a webhook body was signed with the shared secret.
// Secrets are injected at construction so handlers never reach into the
// environment.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify compares the supplied signature against base64(HMAC-SHA256(body)).
// Fails closed: empty secret, empty signature, or any mismatch returns false.
// The body must be the raw request bytes; re-serialized JSON is not
// guaranteed to byte-match what the provider signed.
func (v *Verifier) Verify(body []byte, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(Sign(v.secret, body)))
}

// Sign computes the provider's signature for body. Exported for tests and
// the local replay tooling.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
