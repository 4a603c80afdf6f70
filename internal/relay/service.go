// Package relay sequences decrypt → validate → dispatch → cleanup for one
// inbound request, translating each phase's failure into a caller-facing
// RelayResult. The relay is single-shot: no retries, no queuing, nothing
// retained across requests.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"firebase.google.com/go/v4/messaging"

	"github.com/relaymesh/push-relay/internal/credential"
	"github.com/relaymesh/push-relay/internal/encryption"
	"github.com/relaymesh/push-relay/internal/logger"
	"github.com/relaymesh/push-relay/internal/session"
)

// Metadata envelope attached to every outbound message.
const (
	messageSource   = "push-relay"
	protocolVersion = "1"
)

// defaultBadge is the badge count hint sent to iOS devices.
var defaultBadge = 1

// Service is the relay orchestrator.
type Service struct {
	secretKey string
	sessions  *session.Manager
	logger    *logger.Logger
}

// NewService creates the orchestrator. secretKey is the process-wide
// decryption secret; it is held in memory for the process lifetime and
// never logged.
func NewService(secretKey string, sessions *session.Manager, log *logger.Logger) *Service {
	return &Service{
		secretKey: secretKey,
		sessions:  sessions,
		logger:    log.WithComponent("relay"),
	}
}

// Relay performs one end-to-end relay attempt. Phase failures short-circuit
// to a failure result; a dispatch failure still gets its session torn down
// by the session manager before this returns.
func (s *Service) Relay(ctx context.Context, req RelayRequest) RelayResult {
	log := s.logger.WithContext(ctx)
	start := time.Now()

	// Phase 1: decrypt. The specific failing stage is logged at debug only;
	// the caller sees one opaque kind.
	raw, err := encryption.Decrypt(req.FirebaseConfig, s.secretKey)
	if err != nil {
		log.Debug("credential decryption failed", slog.String("error", err.Error()))
		return failure(FailureDecryption, "unable to decrypt credential payload")
	}

	// Phase 2: validate before anything trusts the credential.
	cred := credential.Parse(raw)
	if result := credential.Validate(cred); !result.IsValid {
		log.Info("credential failed validation", slog.Int("violations", len(result.Errors)))
		return RelayResult{
			Kind:             FailureInvalidCredential,
			Detail:           strings.Join(result.Errors, "; "),
			ValidationErrors: result.Errors,
		}
	}

	// Phase 3: build the outbound message fresh for this request.
	message := buildMessage(req)

	// Phase 4: dispatch through a single-use session; teardown is the
	// session manager's guarantee.
	messageID, err := s.sessions.WithSession(ctx, cred, func(ctx context.Context, sess session.Session) (string, error) {
		return sess.Send(ctx, message)
	})
	if err != nil {
		return s.classifyDispatchFailure(ctx, err)
	}

	log.Info("notification relayed",
		slog.String("message_id", messageID),
		slog.Duration("duration", time.Since(start)))

	return RelayResult{
		Success:    true,
		MessageID:  messageID,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// buildMessage assembles the provider message: recipient and content from
// the request, plus the fixed metadata envelope and delivery hints.
func buildMessage(req RelayRequest) *messaging.Message {
	return &messaging.Message{
		Token: req.Token,
		Notification: &messaging.Notification{
			Title: req.Title,
			Body:  req.Body,
		},
		Data: map[string]string{
			"sent_at":          time.Now().UTC().Format(time.RFC3339),
			"source":           messageSource,
			"protocol_version": protocolVersion,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: &defaultBadge,
				},
			},
		},
	}
}

// classifyDispatchFailure maps session/dispatch errors onto result kinds.
// Error details from the provider may reference key material, so only
// fixed detail strings reach the caller.
func (s *Service) classifyDispatchFailure(ctx context.Context, err error) RelayResult {
	log := s.logger.WithContext(ctx)
	log.Debug("dispatch failed", slog.String("error", err.Error()))

	if errors.Is(err, session.ErrSessionInit) {
		return failure(FailureSessionInit, "provider rejected the credential during session setup")
	}

	var dispatchErr *session.DispatchError
	if errors.As(err, &dispatchErr) {
		switch dispatchErr.Kind {
		case session.DispatchTokenNotRegistered:
			return failure(FailureTokenNotRegistered, "device token is not registered with the provider")
		case session.DispatchInvalidTokenFormat:
			return failure(FailureInvalidTokenFormat, "device token was rejected as malformed")
		case session.DispatchAuthentication:
			return failure(FailureAuthentication, "provider rejected the credential for this send")
		case session.DispatchTimeout:
			return failure(FailureProviderTimeout, "provider did not respond in time")
		default:
			return failure(FailureProvider, "provider reported a delivery failure")
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return failure(FailureProviderTimeout, "provider did not respond in time")
	}

	return failure(FailureProvider, "unexpected dispatch failure")
}
