package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	g := NewHMACGateway("key-id", "secret")
	ctx := context.Background()

	t.Run("generates unique prefixed ids", func(t *testing.T) {
		first, err := g.CreateOrder(ctx, 49900, "INR")
		require.NoError(t, err)
		second, err := g.CreateOrder(ctx, 49900, "INR")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(first, "order_"))
		assert.NotEqual(t, first, second)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := g.CreateOrder(ctx, 0, "INR")
		assert.Error(t, err)
		_, err = g.CreateOrder(ctx, -1, "INR")
		assert.Error(t, err)
	})

	t.Run("rejects missing currency", func(t *testing.T) {
		_, err := g.CreateOrder(ctx, 49900, "")
		assert.Error(t, err)
	})
}

func TestVerifySignature(t *testing.T) {
	g := NewHMACGateway("key-id", "secret")

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("order_abc|pay_xyz"))
	valid := hex.EncodeToString(mac.Sum(nil))

	t.Run("accepts the gateway's signature", func(t *testing.T) {
		assert.True(t, g.VerifySignature("order_abc", "pay_xyz", valid))
	})

	t.Run("rejects a tampered payment id", func(t *testing.T) {
		assert.False(t, g.VerifySignature("order_abc", "pay_other", valid))
	})

	t.Run("rejects a signature made with another secret", func(t *testing.T) {
		other := hmac.New(sha256.New, []byte("other-secret"))
		other.Write([]byte("order_abc|pay_xyz"))
		forged := hex.EncodeToString(other.Sum(nil))
		assert.False(t, g.VerifySignature("order_abc", "pay_xyz", forged))
	})

	t.Run("rejects empty inputs", func(t *testing.T) {
		assert.False(t, g.VerifySignature("", "pay_xyz", valid))
		assert.False(t, g.VerifySignature("order_abc", "", valid))
		assert.False(t, g.VerifySignature("order_abc", "pay_xyz", ""))
	})
}
