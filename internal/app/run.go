package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/gatewai-dev/gatewai/internal/ctxlog"
	"github.com/gatewai-dev/gatewai/internal/engine"
	"github.com/gatewai-dev/gatewai/internal/notify"
)

// Run pushes the loaded pipeline into a fresh engine, drains it to
// quiescence, and reports per-node outcomes. It returns an error naming the
// failed nodes, wrapping the first failure as the root cause.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	eng := engine.New(a.registry,
		engine.WithMaxConcurrency(a.config.MaxConcurrency),
		engine.WithLogger(a.logger),
	)
	defer eng.Destroy()

	if a.config.EventsURL != "" {
		notifier, err := notify.New(ctx, a.config.EventsURL, a.config.EventsNamespace)
		if err != nil {
			return fmt.Errorf("failed to start event bridge: %w", err)
		}
		defer notifier.Close()
		eng.Subscribe(notifier)
	}

	a.logger.Info("Starting pipeline execution.", "nodes", len(a.snapshot.Nodes))
	eng.UpdateGraph(a.snapshot)
	if err := eng.Quiesce(ctx); err != nil {
		return fmt.Errorf("execution interrupted: %w", err)
	}
	a.logger.Info("Pipeline reached quiescence.")

	return a.report(eng)
}

// report prints each node's outcome and collects failures.
func (a *App) report(eng *engine.Engine) error {
	ids := make([]string, 0, len(a.snapshot.Nodes))
	for _, n := range a.snapshot.Nodes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)

	var failedNodes []string
	var rootCauseError error
	for _, id := range ids {
		st := eng.NodeState(id)
		if st == nil {
			continue
		}
		if st.Err != nil {
			a.logger.Error("Node failed execution.", "nodeID", id, "error", st.Err)
			failedNodes = append(failedNodes, id)
			if rootCauseError == nil {
				rootCauseError = st.Err
			}
			continue
		}
		if st.Result != nil {
			for _, item := range st.Result.Outputs {
				fmt.Fprintf(a.outW, "%s (%s) = %s\n", item.HandleID, item.Type, formatValue(item.Value))
			}
		}
	}

	if rootCauseError != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failedNodes, ", "), rootCauseError)
	}
	return nil
}

// formatValue renders strings bare and everything else as JSON.
func formatValue(v cty.Value) string {
	if v.Type() == cty.String && !v.IsNull() {
		return v.AsString()
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(b)
}
