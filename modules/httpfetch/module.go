// Package httpfetch provides the builtin node type that fetches a URL and
// exposes the response body as text.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/gatewai-dev/gatewai/internal/ctxlog"
	"github.com/gatewai-dev/gatewai/internal/graph"
	"github.com/gatewai-dev/gatewai/internal/registry"
)

const defaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response body is read into a result.
const maxBodyBytes = 8 << 20

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register binds the http.fetch node type to its processor.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor("http.fetch", onFetch)
}

func onFetch(ctx context.Context, node *graph.Node, inputs map[string]graph.ResolvedInput) (*graph.Result, error) {
	logger := ctxlog.FromContext(ctx).With("processor", "http.fetch", "nodeID", node.ID)

	url, ok := graph.ConfigString(node.Config, "url")
	if !ok {
		return nil, fmt.Errorf("node '%s': config attribute 'url' must be a string", node.ID)
	}

	timeout := defaultTimeout
	if raw, ok := graph.ConfigString(node.Config, "timeout"); ok {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			logger.Warn("Failed to parse timeout, using default.", "timeout", raw, "error", err)
		} else {
			timeout = parsed
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("node '%s': invalid request: %w", node.ID, err)
	}

	logger.Debug("Fetching URL.", "url", url)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("node '%s': request failed: %w", node.ID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("node '%s': reading response failed: %w", node.ID, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("node '%s': unexpected status %d from %s", node.ID, resp.StatusCode, url)
	}

	return &graph.Result{Outputs: []graph.OutputItem{
		{
			HandleID: graph.HandleID(node.ID, "body"),
			Type:     graph.TypeText,
			Value:    cty.StringVal(string(body)),
		},
		{
			HandleID: graph.HandleID(node.ID, "status"),
			Type:     graph.TypeText,
			Value:    cty.StringVal(resp.Status),
		},
	}}, nil
}
