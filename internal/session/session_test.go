package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	var seen string
	router.GET("/probe", func(c *gin.Context) {
		id, ok := FromContext(c)
		if !ok {
			t.Errorf("session id missing from context")
		}
		seen = id
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, ck := range resp.Cookies() {
		if ck.Name == CookieName {
			return ck
		}
	}
	return nil
}

func TestMiddlewareIssuesCookieForNewVisitor(t *testing.T) {
	router, seen := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))

	ck := sessionCookie(t, rec.Result())
	if ck == nil {
		t.Fatalf("no session cookie issued")
	}
	if !validID(ck.Value) {
		t.Fatalf("issued id %q is not 32 hex chars", ck.Value)
	}
	if !ck.HttpOnly {
		t.Fatalf("session cookie should be HttpOnly")
	}
	if *seen != ck.Value {
		t.Fatalf("context id %q does not match cookie %q", *seen, ck.Value)
	}
}

func TestMiddlewareKeepsExistingSession(t *testing.T) {
	router, seen := newTestRouter(t)

	id, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: id})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if ck := sessionCookie(t, rec.Result()); ck != nil {
		t.Fatalf("valid session should not be reissued, got cookie %q", ck.Value)
	}
	if *seen != id {
		t.Fatalf("context id %q, want %q", *seen, id)
	}
}

func TestMiddlewareReplacesMalformedCookie(t *testing.T) {
	router, seen := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-session-id"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	ck := sessionCookie(t, rec.Result())
	if ck == nil {
		t.Fatalf("malformed cookie should be replaced")
	}
	if ck.Value == "not-a-session-id" || !validID(ck.Value) {
		t.Fatalf("replacement id %q invalid", ck.Value)
	}
	if *seen != ck.Value {
		t.Fatalf("context id %q does not match new cookie %q", *seen, ck.Value)
	}
}

func TestNewIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
