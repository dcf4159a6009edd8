package settlement

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// VerifySignature reports whether signature equals the hex-encoded
// HMAC-SHA256 of "{gatewayOrderID}|{gatewayPaymentID}" under secret. This is
// the scheme Razorpay uses to sign payment callbacks.
func VerifySignature(secret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s", gatewayOrderID, gatewayPaymentID)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
