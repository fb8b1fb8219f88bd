package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestErrorHandlerPassesThroughHealthyHandlers(t *testing.T) {
	t.Parallel()

	mw := ErrorHandler(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	mw.ServeHTTP(w, httptest.NewRequest("GET", "/ok", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want handler's own status", w.Code)
	}
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	t.Parallel()

	panics := []struct {
		name string
		fn   http.HandlerFunc
	}{
		{"string panic", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}},
		{"nil map write", func(w http.ResponseWriter, r *http.Request) {
			var m map[string]string
			m["k"] = "v"
		}},
	}

	for _, tt := range panics {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw := ErrorHandler(zap.NewNop())(tt.fn)

			w := httptest.NewRecorder()
			mw.ServeHTTP(w, httptest.NewRequest("GET", "/panics", nil))

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", w.Code)
			}

			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not the error envelope: %v", err)
			}
			if body.Success {
				t.Error("success = true in an error response")
			}
			if body.Path != "/panics" {
				t.Errorf("path = %q", body.Path)
			}
			if body.Message == "boom" {
				t.Error("panic value leaked to the client")
			}
		})
	}
}
