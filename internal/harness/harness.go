package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"

	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/storefront/internal/domain"
	"github.com/roach88/storefront/internal/storefront"
	"github.com/roach88/storefront/internal/testutil"
)

// Harness executes one scenario against one storefront.
type Harness struct {
	sf     *storefront.Storefront
	seq    int64
	logger *slog.Logger
}

// Run executes a scenario and returns its result.
//
// Each run opens a fresh database in a temporary directory with a
// deterministic clock and token generator. Setup failures abort the run with
// an error; flow and assertion failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "storefront-scenario-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sf, err := storefront.Open(ctx, storefront.Config{
		Path:       filepath.Join(dir, "scenario.db"),
		BcryptCost: bcrypt.MinCost,
		SkipSeed:   !scenario.Seed,
		Logger:     logger,
		Clock:      testutil.NewDeterministicClock(),
		Tokens:     testutil.NewSequenceTokenGenerator(scenario.TokenPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storefront: %w", err)
	}
	defer sf.Close()

	h := &Harness{sf: sf, logger: logger}
	result := NewResult()

	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{Storefront: sf, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) next() int64 {
	h.seq++
	return h.seq
}

// invoke runs one action and records it in the trace. It returns the
// output case and the normalized output.
func (h *Harness) invoke(ctx context.Context, name string, args map[string]interface{}, result *Result) (string, interface{}, error) {
	fn, ok := actions[name]
	if !ok {
		return "", nil, fmt.Errorf("unknown action %q", name)
	}
	var traceArgs interface{}
	if len(args) > 0 {
		traceArgs = args
	}
	result.AddInvocationTrace(name, traceArgs, h.next())

	out, opErr := fn(ctx, h.sf, args)
	if opErr != nil {
		outputCase := string(domain.CodeOf(opErr))
		if outputCase == "" {
			return "", nil, opErr
		}
		var de *domain.Error
		errors.As(opErr, &de)
		failure := map[string]interface{}{"error": de.Message}
		result.AddCompletionTrace(outputCase, failure, h.next())
		return outputCase, failure, nil
	}

	norm, err := normalize(out)
	if err != nil {
		return "", nil, err
	}
	result.AddCompletionTrace(CaseSuccess, norm, h.next())
	return CaseSuccess, norm, nil
}

// executeSetup runs setup steps. Any failure aborts the scenario.
func (h *Harness) executeSetup(ctx context.Context, setup []ActionStep, result *Result) error {
	for i, step := range setup {
		outputCase, out, err := h.invoke(ctx, step.Action, step.Args, result)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		if outputCase != CaseSuccess {
			return fmt.Errorf("setup step %d: %s failed with %s: %v", i, step.Action, outputCase, out)
		}
		h.logger.Info("setup step completed", "step", i, "action", step.Action)
	}
	return nil
}

// executeFlow runs flow steps and checks their expect clauses.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		outputCase, out, err := h.invoke(ctx, step.Invoke, step.Args, result)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		expectedCase := CaseSuccess
		if step.Expect != nil {
			expectedCase = step.Expect.Case
		}
		if outputCase != expectedCase {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected case %s, got %s (%v)", i, step.Invoke, expectedCase, outputCase, out))
			continue
		}

		if step.Expect != nil && len(step.Expect.Result) > 0 {
			for _, key := range sortedKeys(step.Expect.Result) {
				want, err := normalize(step.Expect.Result[key])
				if err != nil {
					return fmt.Errorf("flow step %d: %w", i, err)
				}
				got, _ := lookup(out, key)
				if !subset(want, got) {
					result.AddError(fmt.Sprintf("flow[%d] %s: result %q = %v, want %v", i, step.Invoke, key, got, want))
				}
			}
		}

		h.logger.Info("flow step completed", "step", i, "action", step.Invoke, "output_case", outputCase)
	}
	return nil
}

func lookup(v interface{}, key string) (interface{}, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	val, ok := m[key]
	return val, ok
}

// subset reports whether actual contains expected: maps match on expected
// keys only, slices element by element with equal length, scalars exactly.
func subset(expected, actual interface{}) bool {
	switch exp := expected.(type) {
	case map[string]interface{}:
		act, ok := actual.(map[string]interface{})
		if !ok {
			return false
		}
		for k, v := range exp {
			if !subset(v, act[k]) {
				return false
			}
		}
		return true
	case []interface{}:
		act, ok := actual.([]interface{})
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !subset(exp[i], act[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(expected, actual)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
