package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	require.Equal(t, "an***@example.com", Email("anna@example.com"))
	require.Equal(t, "***@example.com", Email("ab@example.com"))
	require.Equal(t, "***", Email("not-an-email"))
	require.Equal(t, "***", Email(""))
}

func TestTokenAndPassword(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[REDACTED_TOKEN]", Token())
	require.Equal(t, "[REDACTED_PASSWORD]", Password())
}
