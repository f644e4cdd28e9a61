package calendar

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleCallbackSuccess(t *testing.T) {
	req := httptest.NewRequest("GET", "/?state=abc&code=authcode", nil)
	w := httptest.NewRecorder()

	res := handleCallback(w, req, "abc")
	if res.err != nil {
		t.Fatalf("handleCallback failed: %v", res.err)
	}
	if res.code != "authcode" {
		t.Errorf("code = %q, want %q", res.code, "authcode")
	}
	if !strings.Contains(w.Body.String(), authSuccessMessage) {
		t.Errorf("response body = %q, want the completion message", w.Body.String())
	}
}

func TestHandleCallbackStateMismatch(t *testing.T) {
	req := httptest.NewRequest("GET", "/?state=evil&code=authcode", nil)
	w := httptest.NewRecorder()

	res := handleCallback(w, req, "abc")
	if res.err == nil {
		t.Fatal("expected state mismatch error, got nil")
	}
	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleCallbackProviderError(t *testing.T) {
	req := httptest.NewRequest("GET", "/?error=access_denied&state=abc", nil)
	w := httptest.NewRecorder()

	res := handleCallback(w, req, "abc")
	if res.err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(res.err.Error(), "access_denied") {
		t.Errorf("error = %v, want it to carry the provider error code", res.err)
	}
}

func TestHandleCallbackMissingCode(t *testing.T) {
	req := httptest.NewRequest("GET", "/?state=abc", nil)
	w := httptest.NewRecorder()

	res := handleCallback(w, req, "abc")
	if res.err == nil {
		t.Fatal("expected missing-code error, got nil")
	}
}
