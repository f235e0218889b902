// Package notify forwards engine lifecycle events to the node editor UI
// over a socket.io connection. It is an optional adapter: the engine knows
// nothing about it beyond the Observer interface.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	ctyjson "github.com/zclconf/go-cty/cty/json"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/gatewai-dev/gatewai/internal/ctxlog"
	"github.com/gatewai-dev/gatewai/internal/engine"
	"github.com/gatewai-dev/gatewai/internal/graph"
)

const connectTimeout = 10 * time.Second

// Notifier is an engine.Observer that emits "node:start",
// "node:processed" and "node:error" events to a socket.io endpoint.
type Notifier struct {
	manager *socket.Manager
	io      *socket.Socket
}

var _ engine.Observer = (*Notifier)(nil)

// New connects to the given socket.io URL and namespace. It blocks until
// the connection is established or ctx/the connect timeout expires.
func New(ctx context.Context, rawURL, namespace string) (*Notifier, error) {
	logger := ctxlog.FromContext(ctx).With("component", "notify", "url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse events URL: %w", err)
	}
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		logger.Info("Connected to event sink.", "namespace", namespace, "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		var err error
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			} else {
				err = fmt.Errorf("connect_error: %v", errs[0])
			}
		}
		select {
		case connected <- err:
		default:
		}
	})

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("failed to connect to event sink: %w", err)
		}
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out connecting to event sink at %s", rawURL)
	case <-ctx.Done():
		io.Disconnect()
		return nil, ctx.Err()
	}

	return &Notifier{manager: manager, io: io}, nil
}

// Close disconnects from the event sink.
func (n *Notifier) Close() {
	n.io.Disconnect()
}

// OnNodeStart implements engine.Observer.
func (n *Notifier) OnNodeStart(ev engine.NodeStartEvent) {
	inputs := make(map[string]any, len(ev.Inputs))
	for handleID, in := range ev.Inputs {
		inputs[handleID] = map[string]any{
			"connectionValid": in.ConnectionValid,
			"value":           outputPayload(in.Value),
		}
	}
	n.io.Emit("node:start", map[string]any{
		"nodeId": ev.NodeID,
		"inputs": inputs,
	})
}

// OnNodeProcessed implements engine.Observer.
func (n *Notifier) OnNodeProcessed(ev engine.NodeProcessedEvent) {
	var outputs []any
	if ev.Result != nil {
		for i := range ev.Result.Outputs {
			outputs = append(outputs, outputPayload(&ev.Result.Outputs[i]))
		}
	}
	n.io.Emit("node:processed", map[string]any{
		"nodeId":  ev.NodeID,
		"outputs": outputs,
	})
}

// OnNodeError implements engine.Observer.
func (n *Notifier) OnNodeError(ev engine.NodeErrorEvent) {
	n.io.Emit("node:error", map[string]any{
		"nodeId": ev.NodeID,
		"error":  ev.Err.Error(),
	})
}

func outputPayload(item *graph.OutputItem) any {
	if item == nil {
		return nil
	}
	payload := map[string]any{
		"handleId": item.HandleID,
		"type":     string(item.Type),
	}
	if b, err := ctyjson.Marshal(item.Value, item.Value.Type()); err == nil {
		payload["value"] = string(b)
	}
	return payload
}
