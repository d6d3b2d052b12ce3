package mailer

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogMailerSuppressesBody(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(slog.New(slog.NewTextHandler(&buf, nil)))

	err := m.Send(context.Background(), "asha@example.com", "Password reset",
		"reset token: super-secret-token")
	require.NoError(t, err)

	logged := buf.String()
	assert.Contains(t, logged, "asha@example.com")
	assert.Contains(t, logged, "Password reset")
	assert.NotContains(t, logged, "super-secret-token")
}

func TestNewSMTPMailerAuth(t *testing.T) {
	t.Run("no credentials means no auth", func(t *testing.T) {
		m := NewSMTPMailer("mail.example.com:587", "noreply@example.com", "", "")
		assert.Nil(t, m.auth)
	})

	t.Run("credentials build plain auth against the host", func(t *testing.T) {
		m := NewSMTPMailer("mail.example.com:587", "noreply@example.com", "user", "pass")
		assert.NotNil(t, m.auth)
	})
}
