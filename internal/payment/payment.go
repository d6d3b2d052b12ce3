// Package payment is the boundary to the third-party payment gateway. The
// core consumes exactly two contracts: order creation and signature
// verification. Accounts are never created or renewed unless verification
// passes.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Gateway is what the account flows depend on.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency string) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// HMACGateway implements the gateway's signature scheme: HMAC-SHA256 over
// "orderId|paymentId" keyed by the shared secret, hex encoded.
type HMACGateway struct {
	keyID  string
	secret []byte
}

func NewHMACGateway(keyID, secret string) *HMACGateway {
	return &HMACGateway{keyID: keyID, secret: []byte(secret)}
}

func (g *HMACGateway) CreateOrder(_ context.Context, amount int64, currency string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("order amount must be positive")
	}
	if currency == "" {
		return "", fmt.Errorf("order currency is required")
	}
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order id: %w", err)
	}
	return "order_" + hex.EncodeToString(buf), nil
}

// VerifySignature checks the gateway callback signature in constant time.
func (g *HMACGateway) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
