package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func jwtApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected("secret"))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": c.Locals("user_id"), "role": c.Locals("user_role")})
	})
	return app
}

func TestJWTProtectedStoresOperator(t *testing.T) {
	token := signed(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
		"sub":   "12",
		"roles": []interface{}{" Recruiter ", "admin"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	resp, err := jwtApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"expired":        "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no expiry":      "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": "1"}),
		"wrong secret":   "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "1", "exp": future}),
		"unsigned":       "Bearer " + signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "1", "exp": future}),
		"no subject":     "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"role": "admin", "exp": future}),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := jwtApp().Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}
