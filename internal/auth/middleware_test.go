package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "admin")
	if err != nil {
		t.Fatalf("GenerateJWT returned error: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT returned error: %v", err)
	}

	if claims["role"] != "admin" {
		t.Fatalf("role claim = %v, want admin", claims["role"])
	}
	if userID, ok := claims["user_id"].(float64); !ok || uint(userID) != 42 {
		t.Fatalf("user_id claim = %v, want 42", claims["user_id"])
	}
}

func TestValidateJWT_RejectsGarbage(t *testing.T) {
	if _, err := ValidateJWT("not-a-token"); err == nil {
		t.Fatal("ValidateJWT accepted a malformed token")
	}
}

func TestGetUserIDFromRequest(t *testing.T) {
	token, err := GenerateJWT(7, "user")
	if err != nil {
		t.Fatalf("GenerateJWT returned error: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	userID, err := GetUserIDFromRequest(r)
	if err != nil {
		t.Fatalf("GetUserIDFromRequest returned error: %v", err)
	}
	if userID != 7 {
		t.Fatalf("GetUserIDFromRequest returned %d, want 7", userID)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := GetUserIDFromRequest(r); err == nil {
		t.Fatal("GetUserIDFromRequest accepted a request without a token")
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("request without token got status %d, want 401", w.Code)
	}

	token, err := GenerateJWT(1, "user")
	if err != nil {
		t.Fatalf("GenerateJWT returned error: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("request with token got status %d, want 200", w.Code)
	}
}

func TestIsAdmin(t *testing.T) {
	handler := IsAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	userToken, err := GenerateJWT(1, "user")
	if err != nil {
		t.Fatalf("GenerateJWT returned error: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin request got status %d, want 403", w.Code)
	}

	adminToken, err := GenerateJWT(2, "admin")
	if err != nil {
		t.Fatalf("GenerateJWT returned error: %v", err)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("admin request got status %d, want 200", w.Code)
	}
}

func TestIsValidEmail(t *testing.T) {
	for _, email := range []string{"user@example.com", "first.last+tag@sub.domain.org"} {
		if !IsValidEmail(email) {
			t.Fatalf("IsValidEmail rejected %s", email)
		}
	}

	for _, email := range []string{"", "plain", "missing@tld", "@example.com", "user@.com"} {
		if IsValidEmail(email) {
			t.Fatalf("IsValidEmail accepted %s", email)
		}
	}
}
