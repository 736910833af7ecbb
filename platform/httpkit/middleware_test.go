package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type testJWTConfig struct{ secret string }

func (c testJWTConfig) GetJWTAccessSecret() string { return c.secret }

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func accessClaims(roles ...string) jwt.MapClaims {
	roleList := make([]interface{}, len(roles))
	for i, role := range roles {
		roleList[i] = role
	}
	return jwt.MapClaims{
		"sub":   uuid.NewString(),
		"type":  "access",
		"roles": roleList,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func protectedRouter(cfg testJWTConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	group := engine.Group("/admin")
	group.Use(AuthRequired(cfg))
	group.Use(RequireRole(RoleAdmin))
	group.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetIdentity(c).UserID})
	})
	return engine
}

func doRequest(engine *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequiredAcceptsValidAdminToken(t *testing.T) {
	cfg := testJWTConfig{secret: testSecret}
	engine := protectedRouter(cfg)

	token := signToken(t, testSecret, accessClaims(RoleAdmin))
	rec := doRequest(engine, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	engine := protectedRouter(testJWTConfig{secret: testSecret})

	rec := doRequest(engine, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredRejectsWrongSecret(t *testing.T) {
	engine := protectedRouter(testJWTConfig{secret: testSecret})

	token := signToken(t, "other-secret", accessClaims(RoleAdmin))
	rec := doRequest(engine, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredRejectsNonAccessToken(t *testing.T) {
	engine := protectedRouter(testJWTConfig{secret: testSecret})

	claims := accessClaims(RoleAdmin)
	claims["type"] = "refresh"
	token := signToken(t, testSecret, claims)
	rec := doRequest(engine, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a refresh token, got %d", rec.Code)
	}
}

func TestAuthRequiredRejectsExpiredToken(t *testing.T) {
	engine := protectedRouter(testJWTConfig{secret: testSecret})

	claims := accessClaims(RoleAdmin)
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	token := signToken(t, testSecret, claims)
	rec := doRequest(engine, "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an expired token, got %d", rec.Code)
	}
}

func TestRequireRoleRejectsNonAdmin(t *testing.T) {
	engine := protectedRouter(testJWTConfig{secret: testSecret})

	token := signToken(t, testSecret, accessClaims("customer"))
	rec := doRequest(engine, "Bearer "+token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-admin, got %d", rec.Code)
	}
}
