package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMiddleware(t *testing.T) (*Middleware, *Service) {
	t.Helper()
	svc, _, _ := setupService(t)
	return NewMiddleware(svc, nil), svc
}

func TestMiddleware_PublicPaths(t *testing.T) {
	middleware, _ := setupMiddleware(t)

	publicPaths := []string{
		"/health",
		"/ping",
		"/auth/login",
		"/auth/verify-email",
		"/auth/reset-password",
	}

	for _, path := range publicPaths {
		t.Run(path, func(t *testing.T) {
			router := gin.New()
			router.Use(middleware.Handler())
			router.GET(path, func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status 200 for public path %s, got %d", path, rr.Code)
			}
		})
	}
}

func TestMiddleware_ProtectedPath_Returns401(t *testing.T) {
	middleware, _ := setupMiddleware(t)

	for _, path := range []string{"/api/books", "/authors"} {
		router := gin.New()
		router.Use(middleware.Handler())
		router.GET(path, func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rr.Code)
		}
	}
}

func TestMiddleware_BearerAuth_ValidToken(t *testing.T) {
	middleware, svc := setupMiddleware(t)
	user := createVerifiedUser(t, svc, "bearer@example.com", "secret1")

	token, err := svc.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var gotID uint
	var gotEmail string
	var gotType AuthType
	router := gin.New()
	router.Use(middleware.Handler())
	router.GET("/api/me", func(c *gin.Context) {
		gotID = GetUserID(c)
		gotEmail = GetUserEmail(c)
		gotType = GetAuthType(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if gotID != user.ID {
		t.Errorf("Expected user ID %d, got %d", user.ID, gotID)
	}
	if gotEmail != "bearer@example.com" {
		t.Errorf("Expected email in context, got %q", gotEmail)
	}
	if gotType != AuthTypeBearer {
		t.Errorf("Expected bearer auth type, got %s", gotType)
	}
}

func TestMiddleware_BearerAuth_InvalidOrMalformed(t *testing.T) {
	middleware, _ := setupMiddleware(t)

	headers := []string{
		"Bearer invalid-token",
		"Basic dXNlcjpwYXNz",
		"Bearer",
		"bearer ",
	}

	for _, header := range headers {
		t.Run(header, func(t *testing.T) {
			router := gin.New()
			router.Use(middleware.Handler())
			router.GET("/api/me", func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			req.Header.Set("Authorization", header)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rr.Code)
			}
		})
	}
}

func TestMiddleware_RequireRole(t *testing.T) {
	middleware, _ := setupMiddleware(t)

	tests := []struct {
		name       string
		role       entities.UserRole
		wantStatus int
	}{
		{"admin allowed", entities.UserRoleAdmin, http.StatusOK},
		{"user forbidden", entities.UserRoleUser, http.StatusForbidden},
		{"anonymous forbidden", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				if tt.role != "" {
					c.Set(ContextKeyRole, tt.role)
				}
				c.Next()
			})
			router.POST("/api/genres", middleware.RequireRole(entities.UserRoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/genres", nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestContextHelpers_Anonymous(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetUserID(c) != 0 {
		t.Error("Expected user ID 0")
	}
	if GetUserEmail(c) != "" {
		t.Error("Expected empty email")
	}
	if GetUserRole(c) != "" {
		t.Error("Expected empty role")
	}
	if GetAuthType(c) != AuthTypeNone {
		t.Error("Expected AuthTypeNone")
	}
	if IsAuthenticated(c) {
		t.Error("Anonymous request should not be authenticated")
	}
}
