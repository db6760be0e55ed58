package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", PermQuizTake, true},
		{"student", PermLibraryManage, false},
		{"student", PermNotificationsView, false},
		{"teacher", PermLibraryManage, true},
		{"teacher", PermNotificationsView, true},
		{"teacher", PermSettingsManage, false},
		{"admin", PermSettingsManage, true},
		{"", PermQuizTake, false},
	}
	for _, c := range cases {
		if got := Default.Has(c.role, c.perm); got != c.want {
			t.Errorf("Has(%q,%q)=%v want %v", c.role, c.perm, got, c.want)
		}
	}
}

func TestPrefixPattern(t *testing.T) {
	c := NewChecker(map[string][]string{"editor": {"library:*"}})
	if !c.Has("editor", PermLibraryManage) || c.Has("editor", PermSettingsManage) {
		t.Fatal("prefix pattern mismatch")
	}
}

func TestRequire(t *testing.T) {
	h := Require(PermSettingsManage)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPut, "/branding", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "teacher")))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("teacher should be forbidden, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), "admin")))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin should pass, got %d", rec.Code)
	}
}

func TestAny(t *testing.T) {
	c := NewChecker(map[string][]string{"editor": {"library:*"}})
	if !c.Any("editor", PermQuizTake, PermLibraryManage) {
		t.Fatal("editor holds one of the permissions")
	}
	if c.Any("editor", PermQuizTake, PermSettingsManage) || c.Any("editor") {
		t.Fatal("editor holds none of the permissions")
	}
}

func TestRequireAny(t *testing.T) {
	h := RequireAny(PermNotificationsView, PermSettingsManage)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cases := []struct {
		role string
		want int
	}{
		{"student", http.StatusForbidden},
		{"teacher", http.StatusOK},
		{"admin", http.StatusOK},
		{"", http.StatusForbidden},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req.WithContext(WithRole(req.Context(), c.role)))
		if rec.Code != c.want {
			t.Errorf("role %q: got %d want %d", c.role, rec.Code, c.want)
		}
	}
}
