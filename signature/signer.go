// Package signature verifies HMAC-SHA256 signatures on inbound webhook
// deliveries from the document service.
//
// The signed content is "{timestamp}.{payload}" and signatures are versioned
// as "v1=<hex>". A signature header may carry several comma-separated
// signatures while a secret is being rotated.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sign generates the v1 HMAC-SHA256 signature for payload.
func Sign(payload []byte, secret string, timestamp int64) string {
	content := fmt.Sprintf("%d.%s", timestamp, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(content))
	return "v1=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the v1 signature of payload.
func Verify(payload []byte, secret string, timestamp int64, sig string) bool {
	expected := Sign(payload, secret, timestamp)
	return hmac.Equal([]byte(expected), []byte(sig))
}
