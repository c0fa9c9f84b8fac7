// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/osa030/hiitbox/internal/app/notification"
	"github.com/osa030/hiitbox/internal/app/session"
	"github.com/osa030/hiitbox/internal/domain/workout"
)

// WorkoutService implements the WorkoutService RPC.
type WorkoutService struct {
	session *session.Manager
}

// NewWorkoutService creates a new WorkoutService.
func NewWorkoutService(session *session.Manager) *WorkoutService {
	return &WorkoutService{
		session: session,
	}
}

// Start handles start requests. The response reports whether the state changed.
func (s *WorkoutService) Start(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[wrapperspb.BoolValue], error) {
	return connect.NewResponse(wrapperspb.Bool(s.session.Start())), nil
}

// Pause handles pause requests.
func (s *WorkoutService) Pause(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[wrapperspb.BoolValue], error) {
	return connect.NewResponse(wrapperspb.Bool(s.session.Pause())), nil
}

// Reset handles reset requests.
func (s *WorkoutService) Reset(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[wrapperspb.BoolValue], error) {
	return connect.NewResponse(wrapperspb.Bool(s.session.Reset())), nil
}

// GetStatus returns the current session status.
func (s *WorkoutService) GetStatus(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	st, err := StatusToStruct(s.session.Status())
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(st), nil
}

// Configure applies the given configuration fields and returns the
// resulting configuration. Omitted fields keep their current value.
func (s *WorkoutService) Configure(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	cfg, err := ApplyConfiguration(s.session.Status().Configuration, req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.session.Configure(cfg); err != nil {
		if workout.IsConfigurationError(err) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	zlog.Info().Msgf("workout: configured: high=%d low=%d cycles=%d",
		cfg.HighIntensitySeconds, cfg.LowIntensitySeconds, cfg.CycleCount)

	res, err := ConfigurationToStruct(cfg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(res), nil
}

// Subscribe streams notifications until the client goes away or the
// session manager closes. The first message is the current state.
func (s *WorkoutService) Subscribe(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
	stream *connect.ServerStream[structpb.Struct],
) error {
	adapter := newNotificationStreamAdapter(stream.Send)
	subscriptionID, err := s.session.Subscribe(adapter)
	if err != nil {
		adapter.close()
		return connect.NewError(connect.CodeUnavailable, err)
	}
	defer s.session.Unsubscribe(subscriptionID)
	// Runs first: a send that outlived its broadcast timeout must not
	// touch the stream after the handler returns.
	defer adapter.close()

	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}
	return nil
}

var errStreamClosed = errors.New("notification stream closed")

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	send   func(*structpb.Struct) error
	closed bool
}

func newNotificationStreamAdapter(send func(*structpb.Struct) error) *notificationStreamAdapter {
	return &notificationStreamAdapter{send: send}
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	msg, err := NotificationToStruct(n)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errStreamClosed
	}
	return a.send(msg)
}

// close waits for an in-flight Send and rejects later ones.
func (a *notificationStreamAdapter) close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}
