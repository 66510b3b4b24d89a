package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cadrehq/cadre/internal/llm"
)

// parseResponse turns a planner's raw text into a typed value. Direct
// JSON extraction and unmarshal is the primary path: it preserves agent
// name strings byte-for-byte, which matters because names are later
// matched by exact equality against the worker registry. Only when the
// raw text cannot be parsed does the planner's structured-generation
// capability run as a repair pass, accepting whatever sanitization it
// applies.
func parseResponse[T any](ctx context.Context, planner llm.AugmentedLLM, raw string, params *llm.RequestParams) (*T, error) {
	block, err := llm.ExtractJSONBlock(raw)
	if err == nil {
		var out T
		if uerr := json.Unmarshal([]byte(block), &out); uerr == nil {
			return &out, nil
		} else {
			err = uerr
		}
	}
	log.Printf("[orchestrator] planner output not directly parseable (%v), attempting structured repair; raw: %s", err, raw)

	var repaired T
	if rerr := planner.GenerateStructured(ctx, raw, &repaired, params); rerr != nil {
		return nil, fmt.Errorf("repair planner output: %w", rerr)
	}
	return &repaired, nil
}
