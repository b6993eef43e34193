package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gym-service/internal/rbac"

	"github.com/labstack/echo/v4"
)

const scopeGym = "GYMAAA111BB"

// runGymContext drives GymContext with a prepared request and the
// context values Authenticate would have stored.
func runGymContext(t *testing.T, req *http.Request, role rbac.Role, gymID string) int {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("role", role)
	c.Set("gym_id", gymID)

	handler := GymContext(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return rec.Code
}

func TestGymContextScopeEnforcement(t *testing.T) {
	tests := []struct {
		name    string
		role    rbac.Role
		gymID   string
		target  string
		body    string
		headers map[string]string
		want    int
	}{
		{
			name:   "staff with scope and no supplied id",
			role:   rbac.RoleStaff,
			gymID:  scopeGym,
			target: "/api/members",
			want:   http.StatusOK,
		},
		{
			name:   "superadmin has no gym context",
			role:   rbac.RoleSuperAdmin,
			gymID:  "",
			target: "/api/members",
			want:   http.StatusForbidden,
		},
		{
			name:   "scoped role missing scope",
			role:   rbac.RoleStaff,
			gymID:  "",
			target: "/api/members",
			want:   http.StatusForbidden,
		},
		{
			name:   "matching query id is ignored",
			role:   rbac.RoleStaff,
			gymID:  scopeGym,
			target: "/api/members?gymId=" + scopeGym,
			want:   http.StatusOK,
		},
		{
			name:   "mismatched query id",
			role:   rbac.RoleStaff,
			gymID:  scopeGym,
			target: "/api/members?gymId=GYMOTHER000",
			want:   http.StatusForbidden,
		},
		{
			name:    "mismatched header id",
			role:    rbac.RoleGymOwner,
			gymID:   scopeGym,
			target:  "/api/members",
			headers: map[string]string{"X-Gym-ID": "GYMOTHER000"},
			want:    http.StatusForbidden,
		},
		{
			name:   "mismatched body id",
			role:   rbac.RoleStaff,
			gymID:  scopeGym,
			target: "/api/members",
			body:   `{"gymId":"GYMOTHER000","personalInfo":{"name":"A","phone":"1"}}`,
			want:   http.StatusForbidden,
		},
		{
			name:   "matching body id is ignored",
			role:   rbac.RoleStaff,
			gymID:  scopeGym,
			target: "/api/members",
			body:   `{"gymId":"` + scopeGym + `"}`,
			want:   http.StatusOK,
		},
		{
			name:   "body without gym id passes",
			role:   rbac.RoleStaff,
			gymID:  scopeGym,
			target: "/api/members",
			body:   `{"planId":3}`,
			want:   http.StatusOK,
		},
		{
			name:   "malformed body passes to the handler",
			role:   rbac.RoleStaff,
			gymID:  scopeGym,
			target: "/api/members",
			body:   "not json",
			want:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reqBody io.Reader
			method := http.MethodGet
			if tt.body != "" {
				reqBody = strings.NewReader(tt.body)
				method = http.MethodPost
			}
			req := httptest.NewRequest(method, tt.target, reqBody)
			if tt.body != "" {
				req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			}
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			got := runGymContext(t, req, tt.role, tt.gymID)
			if got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGymContextMismatchedPathParam(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("gymId")
	c.SetParamValues("GYMOTHER000")
	c.Set("role", rbac.RoleStaff)
	c.Set("gym_id", scopeGym)

	handler := GymContext(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestGymContextBodyStaysReadable(t *testing.T) {
	body := `{"gymId":"` + scopeGym + `","notes":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	var seen string
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("role", rbac.RoleStaff)
	c.Set("gym_id", scopeGym)

	handler := GymContext(func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		seen = string(b)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen != body {
		t.Errorf("handler read body %q, want %q", seen, body)
	}
}

func TestRequireSuperAdmin(t *testing.T) {
	tests := []struct {
		role rbac.Role
		want int
	}{
		{rbac.RoleSuperAdmin, http.StatusOK},
		{rbac.RoleGymOwner, http.StatusForbidden},
		{rbac.RoleStaff, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/gyms", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Set("role", tt.role)

			handler := RequireSuperAdmin(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := handler(c); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		role    interface{}
		allowed []rbac.Role
		want    int
	}{
		{"role in set", rbac.RoleGymOwner, []rbac.Role{rbac.RoleSuperAdmin, rbac.RoleGymOwner}, http.StatusOK},
		{"role not in set", rbac.RoleTrainer, []rbac.Role{rbac.RoleSuperAdmin, rbac.RoleGymOwner}, http.StatusForbidden},
		{"no role in context", nil, []rbac.Role{rbac.RoleGymOwner}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.role != nil {
				c.Set("role", tt.role)
			}

			handler := Authorize(tt.allowed...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := handler(c); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name string
		role rbac.Role
		perm rbac.Permission
		want int
	}{
		{"staff can scan", rbac.RoleStaff, rbac.PermScanQR, http.StatusOK},
		{"trainer cannot scan", rbac.RoleTrainer, rbac.PermScanQR, http.StatusForbidden},
		{"member has nothing", rbac.RoleMember, rbac.PermViewMembers, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/attendance/scan", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Set("role", tt.role)

			handler := RequirePermission(tt.perm)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := handler(c); err != nil {
				t.Fatalf("handler error = %v", err)
			}
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
