package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAPIKeyGuardsMutatingAPIRequests(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash key: %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := APIKey(string(hashed))(next)

	cases := []struct {
		name   string
		method string
		path   string
		key    string
		want   int
	}{
		{"get passes", http.MethodGet, "/api/videos", "", http.StatusNoContent},
		{"post without key", http.MethodPost, "/api/videos", "", http.StatusUnauthorized},
		{"delete wrong key", http.MethodDelete, "/api/videos/1", "nope", http.StatusUnauthorized},
		{"patch with key", http.MethodPatch, "/api/videos/1/status", "s3cret", http.StatusNoContent},
		{"post outside api", http.MethodPost, "/health", "", http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.key != "" {
				req.Header.Set(APIKeyHeader, tc.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestAPIKeyDisabledWithoutHash(t *testing.T) {
	called := false
	handler := APIKey("  ")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/videos/1", nil))
	if !called {
		t.Fatal("expected request to reach handler when guard is disabled")
	}
}

func TestHashAPIKey(t *testing.T) {
	hashed, err := HashAPIKey("token")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hashed), []byte("token")) != nil {
		t.Fatal("expected hash to verify")
	}
}
