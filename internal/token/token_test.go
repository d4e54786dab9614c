package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// makeToken собирает структурно корректный JWT с заданным exp.
// Подпись любая: пакет token её не проверяет.
func makeToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("unit-secret"))
	require.NoError(t, err)

	return signed
}

func TestDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Unix()
	raw := makeToken(t, jwt.MapClaims{
		"exp":  exp,
		"sub":  "42",
		"role": "admin",
	})

	claims, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "42", claims["sub"])
	require.Equal(t, "admin", claims["role"])
	require.EqualValues(t, exp, claims["exp"])
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"not-a-token",
		"only.two",
		"a.b.c.d",
		"x.%%%not-base64%%%.y",
	} {
		_, err := Decode(raw)
		require.Error(t, err, "token %q", raw)
		require.ErrorIs(t, err, ErrMalformedToken)
	}
}

func TestIsExpired_MalformedAlwaysExpired(t *testing.T) {
	t.Parallel()

	require.True(t, IsExpired("garbage"))
	require.True(t, IsExpired(""))
}

func TestIsExpired_NoExpClaim(t *testing.T) {
	t.Parallel()

	raw := makeToken(t, jwt.MapClaims{"sub": "1"})
	require.True(t, IsExpired(raw))
}

func TestIsExpired_PastAndFuture(t *testing.T) {
	t.Parallel()

	past := makeToken(t, jwt.MapClaims{"exp": time.Now().Unix() - 1})
	require.True(t, IsExpired(past))

	future := makeToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	require.False(t, IsExpired(future))
}

func TestIsExpired_WithinSkew(t *testing.T) {
	t.Parallel()

	// Формально жив ещё 10 секунд, но внутри 30-секундного запаса.
	raw := makeToken(t, jwt.MapClaims{"exp": time.Now().Add(10 * time.Second).Unix()})
	require.True(t, IsExpired(raw))
}

func TestTimeUntilExpiration_UndecodableIsZero(t *testing.T) {
	t.Parallel()

	require.Equal(t, time.Duration(0), TimeUntilExpiration("garbage"))
}

func TestTimeUntilExpiration_ExpiredIsZero(t *testing.T) {
	t.Parallel()

	raw := makeToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	require.Equal(t, time.Duration(0), TimeUntilExpiration(raw))
}

func TestTimeUntilExpiration_Future(t *testing.T) {
	t.Parallel()

	raw := makeToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	remaining := TimeUntilExpiration(raw)
	require.Greater(t, remaining, 59*time.Minute)
	require.LessOrEqual(t, remaining, time.Hour)
}

func TestWillExpireSoon_ThresholdEquivalence(t *testing.T) {
	t.Parallel()

	threshold := 5 * time.Minute

	inside := makeToken(t, jwt.MapClaims{"exp": time.Now().Add(4 * time.Minute).Unix()})
	require.True(t, WillExpireSoon(inside, threshold))
	require.LessOrEqual(t, TimeUntilExpiration(inside), threshold)

	outside := makeToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	require.False(t, WillExpireSoon(outside, threshold))
	require.Greater(t, TimeUntilExpiration(outside), threshold)
}

func TestWillExpireSoon_DefaultThreshold(t *testing.T) {
	t.Parallel()

	soon := makeToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})
	require.True(t, WillExpireSoon(soon, 0))

	later := makeToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	require.False(t, WillExpireSoon(later, 0))
}
