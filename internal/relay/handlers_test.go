package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/gin-gonic/gin"

	"github.com/relaymesh/push-relay/internal/session"
)

func newTestRouter(factory *fakeFactory) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewHandler(newTestService(factory), testLogger())

	router := gin.New()
	router.POST("/api/send", handler.SendNotification)
	return router
}

func performSend(t *testing.T, router *gin.Engine, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/send", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestSendNotificationSuccess(t *testing.T) {
	router := newTestRouter(&fakeFactory{})

	recorder := performSend(t, router, validRequest(t))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	var result RelayResult
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not a RelayResult: %v", err)
	}
	if !result.Success || result.MessageID == "" {
		t.Errorf("expected a successful result with a message ID, got %+v", result)
	}
}

func TestSendNotificationRejectsMissingFields(t *testing.T) {
	router := newTestRouter(&fakeFactory{})

	recorder := performSend(t, router, map[string]string{
		"token": "device-token",
		"title": "no credential blob",
	})

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing fields, got %d", recorder.Code)
	}
}

func TestSendNotificationStatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		dispatch session.DispatchKind
		want     int
	}{
		{"token not registered", session.DispatchTokenNotRegistered, http.StatusBadRequest},
		{"invalid token format", session.DispatchInvalidTokenFormat, http.StatusBadRequest},
		{"authentication", session.DispatchAuthentication, http.StatusUnauthorized},
		{"timeout", session.DispatchTimeout, http.StatusRequestTimeout},
		{"generic", session.DispatchGeneric, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			factory := &fakeFactory{
				sendFunc: func(ctx context.Context, msg *messaging.Message) (string, error) {
					return "", &session.DispatchError{Kind: tc.dispatch, Err: errors.New("scripted failure")}
				},
			}
			router := newTestRouter(factory)

			recorder := performSend(t, router, validRequest(t))

			if recorder.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestSendNotificationDecryptionFailureIs400(t *testing.T) {
	router := newTestRouter(&fakeFactory{})

	req := validRequest(t)
	req.FirebaseConfig = "bm90IGEgcmVhbCBjaXBoZXJ0ZXh0ISE=" // valid base64, garbage ciphertext

	recorder := performSend(t, router, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for undecryptable blob, got %d", recorder.Code)
	}

	var result RelayResult
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not a RelayResult: %v", err)
	}
	if result.Kind != FailureDecryption {
		t.Errorf("expected %s, got %s", FailureDecryption, result.Kind)
	}
}
