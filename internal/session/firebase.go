package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/relaymesh/push-relay/internal/credential"
	"github.com/relaymesh/push-relay/internal/logger"
)

// FirebaseFactory builds sessions backed by a throwaway Firebase app.
// Each session gets its own app instance initialized from the decrypted
// credential, so nothing is cached or shared between requests.
type FirebaseFactory struct {
	logger *logger.Logger
}

// NewFirebaseFactory creates a Firebase-backed session factory.
func NewFirebaseFactory(log *logger.Logger) *FirebaseFactory {
	return &FirebaseFactory{
		logger: log.WithComponent("firebase-session"),
	}
}

// NewSession initializes a Firebase app and messaging client from the
// credential. The raw credential JSON is handed to the SDK byte-for-byte
// and never retained past the session.
func (f *FirebaseFactory) NewSession(ctx context.Context, name string, cred credential.Credential) (Session, error) {
	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: cred.ProjectID()},
		option.WithCredentialsJSON(cred.Raw),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	f.logger.WithContext(ctx).Debug("firebase session initialized",
		slog.String("session", name),
		slog.String("project_id", cred.ProjectID()))

	return &firebaseSession{
		name:   name,
		client: client,
	}, nil
}

// firebaseSession is a single-use messaging handle.
type firebaseSession struct {
	name   string
	client *messaging.Client
	used   atomic.Bool
	closed atomic.Bool
}

func (s *firebaseSession) Name() string {
	return s.name
}

func (s *firebaseSession) Send(ctx context.Context, message *messaging.Message) (string, error) {
	if s.closed.Load() {
		return "", &DispatchError{Kind: DispatchGeneric, Err: errors.New("session is closed")}
	}
	if !s.used.CompareAndSwap(false, true) {
		return "", &DispatchError{Kind: DispatchGeneric, Err: errors.New("session already used for a dispatch")}
	}

	id, err := s.client.Send(ctx, message)
	if err != nil {
		return "", classifyProviderError(err)
	}

	return id, nil
}

// Close releases the session. The Go Admin SDK keeps no global app
// registry, so teardown drops the client reference and marks the handle
// unusable.
func (s *firebaseSession) Close(ctx context.Context) error {
	s.closed.Store(true)
	s.client = nil
	return nil
}

// classifyProviderError maps an FCM send failure onto the relay's dispatch
// error taxonomy.
func classifyProviderError(err error) *DispatchError {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errorutils.IsDeadlineExceeded(err):
		return &DispatchError{Kind: DispatchTimeout, Err: err}
	case messaging.IsUnregistered(err):
		return &DispatchError{Kind: DispatchTokenNotRegistered, Err: err}
	case errorutils.IsInvalidArgument(err):
		return &DispatchError{Kind: DispatchInvalidTokenFormat, Err: err}
	case messaging.IsThirdPartyAuthError(err) || errorutils.IsUnauthenticated(err) || errorutils.IsPermissionDenied(err):
		return &DispatchError{Kind: DispatchAuthentication, Err: err}
	default:
		return &DispatchError{Kind: DispatchGeneric, Err: err}
	}
}
