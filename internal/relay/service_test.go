package relay

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"firebase.google.com/go/v4/messaging"

	"github.com/relaymesh/push-relay/internal/credential"
	"github.com/relaymesh/push-relay/internal/encryption"
	"github.com/relaymesh/push-relay/internal/logger"
	"github.com/relaymesh/push-relay/internal/session"
)

const testSecretKey = "relay-test-secret"

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: slog.LevelError})
}

func validCredentialFields() map[string]interface{} {
	return map[string]interface{}{
		"type":         "service_account",
		"project_id":   "p",
		"private_key":  "...BEGIN PRIVATE KEY...",
		"client_email": "a@b.com",
	}
}

func encryptedCredential(t *testing.T, fields map[string]interface{}, key string) string {
	t.Helper()
	blob, err := encryption.Encrypt(fields, key)
	if err != nil {
		t.Fatalf("failed to encrypt test credential: %v", err)
	}
	return blob
}

// fakeSession lets tests script the provider boundary.
type fakeSession struct {
	name     string
	sendFunc func(ctx context.Context, msg *messaging.Message) (string, error)
	closed   bool
}

func (s *fakeSession) Name() string { return s.name }

func (s *fakeSession) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	return s.sendFunc(ctx, msg)
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

type fakeFactory struct {
	initErr  error
	sendFunc func(ctx context.Context, msg *messaging.Message) (string, error)
	sessions []*fakeSession
}

func (f *fakeFactory) NewSession(ctx context.Context, name string, cred credential.Credential) (session.Session, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	sendFunc := f.sendFunc
	if sendFunc == nil {
		sendFunc = func(ctx context.Context, msg *messaging.Message) (string, error) {
			return "fcm-message-id", nil
		}
	}
	sess := &fakeSession{name: name, sendFunc: sendFunc}
	f.sessions = append(f.sessions, sess)
	return sess, nil
}

func newTestService(factory *fakeFactory) *Service {
	log := testLogger()
	return NewService(testSecretKey, session.NewManager(factory, log), log)
}

func validRequest(t *testing.T) RelayRequest {
	return RelayRequest{
		FirebaseConfig: encryptedCredential(t, validCredentialFields(), testSecretKey),
		Token:          "device-token",
		Title:          "hello",
		Body:           "world",
	}
}

func TestRelaySuccess(t *testing.T) {
	factory := &fakeFactory{}
	service := newTestService(factory)

	result := service.Relay(context.Background(), validRequest(t))

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.MessageID == "" {
		t.Error("expected a non-empty message ID")
	}
	if result.DurationMs < 0 {
		t.Errorf("duration must be non-negative, got %d", result.DurationMs)
	}
	if len(factory.sessions) != 1 || !factory.sessions[0].closed {
		t.Error("session should have been created and torn down")
	}
}

func TestRelayBuildsEnvelopedMessage(t *testing.T) {
	var captured *messaging.Message
	factory := &fakeFactory{
		sendFunc: func(ctx context.Context, msg *messaging.Message) (string, error) {
			captured = msg
			return "id", nil
		},
	}
	service := newTestService(factory)

	req := validRequest(t)
	service.Relay(context.Background(), req)

	if captured == nil {
		t.Fatal("no message reached the provider boundary")
	}
	if captured.Token != req.Token {
		t.Errorf("token mismatch: %q", captured.Token)
	}
	if captured.Notification.Title != req.Title || captured.Notification.Body != req.Body {
		t.Errorf("notification content mismatch: %+v", captured.Notification)
	}
	if captured.Data["source"] != messageSource || captured.Data["protocol_version"] != protocolVersion {
		t.Errorf("metadata envelope missing: %v", captured.Data)
	}
	if captured.Data["sent_at"] == "" {
		t.Error("envelope should carry a timestamp")
	}
	if captured.Android == nil || captured.Android.Priority != "high" {
		t.Error("delivery hints should request high priority")
	}
	if captured.APNS == nil || captured.APNS.Payload.Aps.Badge == nil {
		t.Error("delivery hints should carry a badge count")
	}
}

func TestRelayWrongKey(t *testing.T) {
	factory := &fakeFactory{}
	service := newTestService(factory)

	req := validRequest(t)
	req.FirebaseConfig = encryptedCredential(t, validCredentialFields(), "a-different-key")

	result := service.Relay(context.Background(), req)

	if result.Success || result.Kind != FailureDecryption {
		t.Fatalf("expected decryption failure, got %+v", result)
	}
	if len(factory.sessions) != 0 {
		t.Error("no session should be created when decryption fails")
	}
	if strings.Contains(result.Detail, testSecretKey) {
		t.Error("failure detail must never contain the secret key")
	}
}

func TestRelayInvalidCredentialType(t *testing.T) {
	factory := &fakeFactory{}
	service := newTestService(factory)

	fields := validCredentialFields()
	fields["type"] = "user_account"

	req := validRequest(t)
	req.FirebaseConfig = encryptedCredential(t, fields, testSecretKey)

	result := service.Relay(context.Background(), req)

	if result.Success || result.Kind != FailureInvalidCredential {
		t.Fatalf("expected invalid-credential failure, got %+v", result)
	}

	found := false
	for _, e := range result.ValidationErrors {
		if strings.Contains(e, "service_account") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the type mismatch to be itemized, got %v", result.ValidationErrors)
	}
	if len(factory.sessions) != 0 {
		t.Error("no session should be created for an invalid credential")
	}
}

func TestRelayTokenNotRegistered(t *testing.T) {
	factory := &fakeFactory{
		sendFunc: func(ctx context.Context, msg *messaging.Message) (string, error) {
			return "", &session.DispatchError{
				Kind: session.DispatchTokenNotRegistered,
				Err:  errors.New("registration-token-not-registered"),
			}
		},
	}
	service := newTestService(factory)

	result := service.Relay(context.Background(), validRequest(t))

	if result.Success || result.Kind != FailureTokenNotRegistered {
		t.Fatalf("expected token-not-registered failure, got %+v", result)
	}
	if len(factory.sessions) != 1 || !factory.sessions[0].closed {
		t.Error("the session must still be torn down after a dispatch failure")
	}
}

func TestRelayDispatchKindMapping(t *testing.T) {
	cases := []struct {
		dispatch session.DispatchKind
		want     FailureKind
	}{
		{session.DispatchInvalidTokenFormat, FailureInvalidTokenFormat},
		{session.DispatchAuthentication, FailureAuthentication},
		{session.DispatchTimeout, FailureProviderTimeout},
		{session.DispatchGeneric, FailureProvider},
	}

	for _, tc := range cases {
		t.Run(string(tc.dispatch), func(t *testing.T) {
			factory := &fakeFactory{
				sendFunc: func(ctx context.Context, msg *messaging.Message) (string, error) {
					return "", &session.DispatchError{Kind: tc.dispatch, Err: errors.New("provider said no")}
				},
			}
			service := newTestService(factory)

			result := service.Relay(context.Background(), validRequest(t))

			if result.Kind != tc.want {
				t.Errorf("expected %s, got %s", tc.want, result.Kind)
			}
		})
	}
}

func TestRelaySessionInitFailure(t *testing.T) {
	factory := &fakeFactory{initErr: errors.New("malformed key material")}
	service := newTestService(factory)

	result := service.Relay(context.Background(), validRequest(t))

	if result.Success || result.Kind != FailureSessionInit {
		t.Fatalf("expected session-init failure, got %+v", result)
	}
}
