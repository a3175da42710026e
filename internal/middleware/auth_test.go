package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func driverScopedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	driver := r.Group("/api/driver")
	driver.Use(func(c *gin.Context) {
		// Stand-in for AuthMiddleware: identity comes from a header so
		// the test controls the stored account type directly.
		c.Set("userId", uint(1))
		c.Set("userType", c.GetHeader("X-Test-User-Type"))
	})
	driver.Use(RequireUserType("driver"))
	driver.GET("/rides", func(c *gin.Context) {
		c.JSON(200, gin.H{"rides": []string{}})
	})
	return r
}

func TestRequireUserTypeRedirectsRider(t *testing.T) {
	r := driverScopedRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/driver/rides", nil)
	req.Header.Set("X-Test-User-Type", "rider")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != 403 {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["redirect"] != "/driver/login" {
		t.Fatalf("expected redirect to /driver/login, got %q", body["redirect"])
	}
}

func TestRequireUserTypeAllowsDriver(t *testing.T) {
	r := driverScopedRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/driver/rides", nil)
	req.Header.Set("X-Test-User-Type", "driver")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
