// Package session manages short-lived authenticated provider sessions.
// Each relay request acquires its own session, uses it for exactly one
// dispatch, and releases it before the request completes.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"firebase.google.com/go/v4/messaging"

	"github.com/relaymesh/push-relay/internal/credential"
	"github.com/relaymesh/push-relay/internal/logger"
)

// ErrSessionInit is returned when the provider rejects the credential
// before a session exists. No teardown happens in that case.
var ErrSessionInit = errors.New("session initialization failed")

// teardownTimeout bounds the teardown network call so a wedged provider
// cannot hold the request open indefinitely.
const teardownTimeout = 5 * time.Second

// Session is a single-use authenticated handle bound to one credential.
type Session interface {
	// Name returns the process-unique session identifier.
	Name() string
	// Send dispatches one message and returns the provider message ID.
	// A session accepts exactly one Send; further calls fail.
	Send(ctx context.Context, message *messaging.Message) (string, error)
	// Close tears the session down. Idempotent.
	Close(ctx context.Context) error
}

// Factory constructs provider sessions from validated credentials.
type Factory interface {
	NewSession(ctx context.Context, name string, cred credential.Credential) (Session, error)
}

// Manager owns the acquire → use → guaranteed-release lifecycle.
// The uniqueness counter is the only state shared across concurrent calls.
type Manager struct {
	factory Factory
	logger  *logger.Logger
	counter atomic.Uint64
}

// NewManager creates a session manager backed by the given factory.
func NewManager(factory Factory, log *logger.Logger) *Manager {
	return &Manager{
		factory: factory,
		logger:  log.WithComponent("session-manager"),
	}
}

// WithSession creates a session for cred, runs op with it, and tears the
// session down no matter how op ends. A teardown failure is logged as a
// warning and never replaces op's outcome. The session is owned by this
// call alone and must not outlive it.
func (m *Manager) WithSession(
	ctx context.Context,
	cred credential.Credential,
	op func(ctx context.Context, sess Session) (string, error),
) (string, error) {
	name := m.nextSessionName()
	ctx = logger.WithSessionName(ctx, name)
	log := m.logger.WithContext(ctx)

	sess, err := m.factory.NewSession(ctx, name, cred)
	if err != nil {
		log.Debug("session construction rejected", slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: %v", ErrSessionInit, err)
	}

	// Teardown runs on success, dispatch failure, and panic alike.
	// context.WithoutCancel keeps the teardown attempt alive when the
	// caller's request context was already cancelled (best effort).
	defer func() {
		teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()

		if cerr := sess.Close(teardownCtx); cerr != nil {
			log.Warn("session teardown failed",
				slog.String("session", name),
				slog.String("error", cerr.Error()))
		}
	}()

	return op(ctx, sess)
}

// sessionNameCharset is used for the random suffix of session names.
const sessionNameCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// nextSessionName builds a process-unique session identifier. The atomic
// counter is the uniqueness guarantee; the timestamp and random suffix
// keep names distinct across process restarts and replicas.
func (m *Manager) nextSessionName() string {
	seq := m.counter.Add(1)
	return fmt.Sprintf("relay-%d-%d-%s", seq, time.Now().UnixMilli(), randomSuffix(6))
}

func randomSuffix(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	for i := range b {
		b[i] = sessionNameCharset[int(b[i])%len(sessionNameCharset)]
	}
	return string(b)
}
