package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bigkaa/hashirwa/internal/auth"
)

// TestAdminKeyFromRequest проверяет извлечение ключа: заголовок
// имеет приоритет над query-параметром.
func TestAdminKeyFromRequest(t *testing.T) {
	cases := []struct {
		name   string
		header string
		query  string
		want   string
	}{
		{"только заголовок", "secret", "", "secret"},
		{"только query", "", "secret", "secret"},
		{"заголовок приоритетнее", "from-header", "from-query", "from-header"},
		{"ключ отсутствует", "", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url := "/admin"
			if tc.query != "" {
				url += "?k=" + tc.query
			}
			r := httptest.NewRequest(http.MethodGet, url, nil)
			if tc.header != "" {
				r.Header.Set(AdminKeyHeader, tc.header)
			}

			if got := AdminKeyFromRequest(r); got != tc.want {
				t.Errorf("AdminKeyFromRequest = %q, ожидался %q", got, tc.want)
			}
		})
	}
}

// TestAdminAuth_ValidKey проверяет пропуск запроса с верным ключом
// и установку флага авторизации в контексте.
func TestAdminAuth_ValidKey(t *testing.T) {
	authorizer := auth.New("secret")
	handlerCalled := false

	handler := AdminAuth(authorizer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		if !Authorized(r.Context()) {
			t.Error("Authorized(ctx) = false, ожидался true")
		}
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/records/1/approve", nil)
	r.Header.Set(AdminKeyHeader, "secret")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	if !handlerCalled {
		t.Error("handler не вызван при верном ключе")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, ожидался 200", w.Code)
	}
}

// TestAdminAuth_InvalidKey проверяет 403 при неверном или отсутствующем ключе.
func TestAdminAuth_InvalidKey(t *testing.T) {
	authorizer := auth.New("secret")

	for _, key := range []string{"", "wrong"} {
		handlerCalled := false
		handler := AdminAuth(authorizer)(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			handlerCalled = true
		}))

		r := httptest.NewRequest(http.MethodPost, "/api/v1/records/1/approve", nil)
		if key != "" {
			r.Header.Set(AdminKeyHeader, key)
		}
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		if handlerCalled {
			t.Errorf("key=%q: handler вызван при неверном ключе", key)
		}
		if w.Code != http.StatusForbidden {
			t.Errorf("key=%q: status = %d, ожидался 403", key, w.Code)
		}
	}
}
