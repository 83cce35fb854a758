package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func requestWithRoles(roles []string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if roles != nil {
		ctx := context.WithValue(req.Context(), UserRolesKey, roles)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []string
		required []string
		allowed  bool
	}{
		{"exact match", []string{"counselor"}, []string{"counselor"}, true},
		{"one of several", []string{"billing"}, []string{"counselor", "billing"}, true},
		{"admin always passes", []string{"admin"}, []string{"supervisor"}, true},
		{"wrong role", []string{"billing"}, []string{"counselor"}, false},
		{"no roles", nil, []string{"counselor"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := requestWithRoles(tt.roles)
			called := false
			handler := RequireRole(tt.required...)(func(c echo.Context) error {
				called = true
				return c.NoContent(http.StatusOK)
			})

			err := handler(c)
			if tt.allowed {
				if err != nil || !called {
					t.Fatalf("expected handler to run, err = %v", err)
				}
				return
			}
			if called {
				t.Fatal("handler ran without the required role")
			}
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %v", err)
			}
		})
	}
}
