package harness

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/storefront/internal/storefront"
)

// identifier matches table and column names that may be spliced into SQL.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError describes a failed assertion. Trace, when set, is listed
// below the expected and actual outcome.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&b, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&b, "  Actual: %s\n", e.Actual)
	if len(e.Trace) > 0 {
		b.WriteString("\nFull trace:\n")
		for i, ev := range e.Trace {
			if ev.Type == EventInvocation {
				fmt.Fprintf(&b, "  [%d] %s %v\n", i+1, ev.ActionURI, ev.Args)
			}
		}
	}
	return b.String()
}

// invocations returns the positions (1-based) of every invocation of action.
func invocations(trace []TraceEvent, action string) []int {
	var pos []int
	for i, ev := range trace {
		if ev.Type == EventInvocation && ev.ActionURI == action {
			pos = append(pos, i+1)
		}
	}
	return pos
}

// assertTraceContains passes if some invocation of the action carries at
// least the given args.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, p := range invocations(trace, a.Action) {
		if len(a.Args) == 0 || subset(a.Args, trace[p-1].Args) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s with args %v", a.Action, a.Args),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder passes if the first invocations of the listed actions
// appear in that order. Other actions may come in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	first := make([]int, len(a.Actions))
	for i, action := range a.Actions {
		pos := invocations(trace, action)
		if len(pos) == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", a.Actions),
				Actual:   "missing action: " + action,
				Trace:    trace,
			}
		}
		first[i] = pos[0]
	}
	for i := 1; i < len(first); i++ {
		if first[i-1] >= first[i] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", a.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					a.Actions[i-1], first[i-1], a.Actions[i], first[i]),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	if n := len(invocations(trace, a.Action)); n != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Action),
			Actual:   fmt.Sprintf("%d occurrences", n),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState requires exactly one row of a.Table matching a.Where,
// and checks the columns named in a.Expect against it.
func assertFinalState(ctx context.Context, sf *storefront.Storefront, a Assertion) error {
	if !identifier.MatchString(a.Table) {
		return fmt.Errorf("invalid table name %q", a.Table)
	}

	q := "SELECT * FROM " + a.Table
	var (
		conds []string
		args  []interface{}
	)
	for _, col := range sortedKeys(a.Where) {
		if !identifier.MatchString(col) {
			return fmt.Errorf("invalid column name %q in where clause", col)
		}
		conds = append(conds, col+" = ?")
		args = append(args, a.Where[col])
	}
	where := "(no conditions)"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
		q += " WHERE " + where
	}

	row, err := singleRow(ctx, sf.Store.DB(), q, args...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s %v", a.Table, where, args),
			Actual:   err.Error(),
		}
	}

	for _, col := range sortedKeys(a.Expect) {
		got, ok := row[col]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", col),
				Actual:   fmt.Sprintf("columns of %s: %v", a.Table, sortedKeys(row)),
			}
		}
		if want := a.Expect[col]; !columnEquals(want, got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (%T)", col, want, want),
				Actual:   fmt.Sprintf("field %q = %v (%T)", col, got, got),
			}
		}
	}
	return nil
}

// singleRow runs q and returns its only row keyed by column name.
func singleRow(ctx context.Context, db *sql.DB, q string, args ...interface{}) (map[string]interface{}, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("row not found")
	}
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	if rows.Next() {
		return nil, fmt.Errorf("multiple rows matched")
	}

	row := make(map[string]interface{}, len(cols))
	for i, c := range cols {
		row[c] = vals[i]
	}
	return row, nil
}

// columnEquals compares a YAML value with what the SQLite driver scanned.
// Money columns are TEXT, so numbers and strings are compared by their
// printed form; integers come back as int64.
func columnEquals(want, got interface{}) bool {
	if want == nil || got == nil {
		return want == nil && got == nil
	}
	if b, ok := got.([]byte); ok {
		got = string(b)
	}
	switch w := want.(type) {
	case bool:
		if n, ok := got.(int64); ok {
			return w == (n != 0)
		}
		return got == w
	case int, int64, float64:
		switch got.(type) {
		case int64, float64, string:
			return fmt.Sprint(w) == fmt.Sprint(got)
		}
		return false
	case string:
		s, ok := got.(string)
		return ok && s == w
	}
	return fmt.Sprint(want) == fmt.Sprint(got)
}

// AssertionContext gives final_state assertions access to the store.
type AssertionContext struct {
	Storefront *storefront.Storefront
	Ctx        context.Context
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			if actx == nil || actx.Storefront == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
				break
			}
			ctx := actx.Ctx
			if ctx == nil {
				ctx = context.Background()
			}
			err = assertFinalState(ctx, actx.Storefront, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}
