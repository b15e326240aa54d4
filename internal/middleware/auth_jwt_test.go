package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret"

func tenantEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(TenantFromContext(r.Context()) + "|" + LocaleFromContext(r.Context())))
	})
}

func TestTenantAuthAcceptsValidToken(t *testing.T) {
	token, err := SignJWT(testSecret, TokenClaims{Sub: "acme", Locale: "sv-SE", Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	TenantAuth(testSecret)(tenantEcho()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "acme|sv" {
		t.Fatalf("body = %q", got)
	}
}

func TestTenantAuthRejects(t *testing.T) {
	valid, _ := SignJWT(testSecret, TokenClaims{Sub: "acme"})
	expired, _ := SignJWT(testSecret, TokenClaims{Sub: "acme", Exp: time.Now().Add(-time.Minute).Unix()})
	noSubject, _ := SignJWT(testSecret, TokenClaims{Locale: "en"})
	otherKey, _ := SignJWT("other", TokenClaims{Sub: "acme"})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "wrong scheme", header: "Basic " + valid},
		{name: "bad signature", header: "Bearer " + otherKey},
		{name: "expired", header: "Bearer " + expired},
		{name: "no subject", header: "Bearer " + noSubject},
		{name: "garbage", header: "Bearer a.b"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			TenantAuth(testSecret)(tenantEcho()).ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error.Code != "unauthorized" {
				t.Fatalf("unexpected body %q", rec.Body.String())
			}
		})
	}
}

func TestVerifyJWTRejectsOtherAlgorithms(t *testing.T) {
	token, _ := SignJWT(testSecret, TokenClaims{Sub: "acme"})
	parts := strings.Split(token, ".")
	// re-sign a forged header so only the algorithm check can reject it
	forgedHeader := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0"
	data := forgedHeader + "." + parts[1]
	forged := data + "." + hmacSign(testSecret, data)
	if _, err := VerifyJWT(testSecret, forged, time.Now()); err == nil {
		t.Fatal("expected alg none to be rejected")
	}
}

func TestInternalOnly(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{name: "disabled without secret", secret: "", header: "anything", want: http.StatusNotFound},
		{name: "wrong secret", secret: "s3cret", header: "nope", want: http.StatusUnauthorized},
		{name: "missing header", secret: "s3cret", want: http.StatusUnauthorized},
		{name: "match", secret: "s3cret", header: "s3cret", want: http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.header != "" {
				req.Header.Set(InternalSecretHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			InternalOnly(tc.secret)(ok).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
