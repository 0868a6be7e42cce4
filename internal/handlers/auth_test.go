package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/consulatcore/scheduling/libs/auth"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.SignHS256(auth.Claims{
		Sub:   "user-1",
		OrgID: "org-1",
		Role:  role,
		Exp:   time.Now().Add(time.Hour).Unix(),
		Iat:   time.Now().Unix(),
	}, testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRequireStaff(t *testing.T) {
	v := NewTokenVerifier(testSecret, nil)

	var gotClaims *auth.Claims
	protected := v.RequireStaff(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("agent token admitted", func(t *testing.T) {
		gotClaims = nil
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "agent"))
		rec := httptest.NewRecorder()
		protected(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if gotClaims == nil || gotClaims.OrgID != "org-1" || gotClaims.Sub != "user-1" {
			t.Fatalf("claims not propagated: %+v", gotClaims)
		}
	})

	t.Run("missing token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		protected(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("citizen role forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "citizen"))
		rec := httptest.NewRecorder()
		protected(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "agent")+"x")
		rec := httptest.NewRecorder()
		protected(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}
