package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{
			name:   "valid token",
			token:  "secret",
			header: "Bearer secret",
			want:   http.StatusOK,
		},
		{
			name:   "wrong token",
			token:  "secret",
			header: "Bearer nope",
			want:   http.StatusUnauthorized,
		},
		{
			name:   "missing header",
			token:  "secret",
			header: "",
			want:   http.StatusUnauthorized,
		},
		{
			name:   "unconfigured token closes the group",
			token:  "",
			header: "Bearer anything",
			want:   http.StatusForbidden,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := BearerToken(tc.token)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
