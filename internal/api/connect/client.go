package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client is a client for WorkoutService.
type Client struct {
	start     *connect.Client[emptypb.Empty, wrapperspb.BoolValue]
	pause     *connect.Client[emptypb.Empty, wrapperspb.BoolValue]
	reset     *connect.Client[emptypb.Empty, wrapperspb.BoolValue]
	getStatus *connect.Client[emptypb.Empty, structpb.Struct]
	configure *connect.Client[structpb.Struct, structpb.Struct]
	subscribe *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewClient creates a WorkoutService client for baseURL. A non-empty
// controlToken is sent with every unary call.
func NewClient(httpClient connect.HTTPClient, baseURL, controlToken string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{
		connect.WithInterceptors(NewControlTokenClientInterceptor(controlToken)),
	}, opts...)

	return &Client{
		start:     connect.NewClient[emptypb.Empty, wrapperspb.BoolValue](httpClient, baseURL+StartProcedure, opts...),
		pause:     connect.NewClient[emptypb.Empty, wrapperspb.BoolValue](httpClient, baseURL+PauseProcedure, opts...),
		reset:     connect.NewClient[emptypb.Empty, wrapperspb.BoolValue](httpClient, baseURL+ResetProcedure, opts...),
		getStatus: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetStatusProcedure, opts...),
		configure: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+ConfigureProcedure, opts...),
		subscribe: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+SubscribeProcedure, opts...),
	}
}

// Start starts or continues the session. It reports whether the state changed.
func (c *Client) Start(ctx context.Context) (bool, error) {
	return c.command(ctx, c.start)
}

// Pause pauses the session.
func (c *Client) Pause(ctx context.Context) (bool, error) {
	return c.command(ctx, c.pause)
}

// Reset resets the session.
func (c *Client) Reset(ctx context.Context) (bool, error) {
	return c.command(ctx, c.reset)
}

func (c *Client) command(ctx context.Context, client *connect.Client[emptypb.Empty, wrapperspb.BoolValue]) (bool, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return false, err
	}
	return resp.Msg.GetValue(), nil
}

// GetStatus returns the current session status.
func (c *Client) GetStatus(ctx context.Context) (map[string]any, error) {
	resp, err := c.getStatus.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.AsMap(), nil
}

// Configure sends the given configuration fields and returns the resulting
// configuration.
func (c *Client) Configure(ctx context.Context, fields map[string]any) (map[string]any, error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	resp, err := c.configure.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg.AsMap(), nil
}

// Subscribe opens the notification stream. The caller must close it.
func (c *Client) Subscribe(ctx context.Context) (*connect.ServerStreamForClient[structpb.Struct], error) {
	return c.subscribe.CallServerStream(ctx, connect.NewRequest(&emptypb.Empty{}))
}
