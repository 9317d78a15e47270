// Package resolve expands $[path] reference templates inside a task's
// fields against the live WorkflowInstance tree. A reference that stands
// alone as an entire string value is replaced by the resolved value
// verbatim, preserving its native JSON type; a reference embedded inside a
// larger string is stringified and spliced in. An unresolved path is
// substituted with nil and logged as a warning — it never fails the task.
package resolve

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xraph/loom/tree"
)

const (
	refOpen  = "$["
	refClose = ']'
)

// Task resolves every reference inside task.Parameters against root,
// mutating Parameters in place. root is marshaled once into a generic
// value tree so that dotted paths ("environment.HOME",
// "tasks.a.parameters.x", "tasks.a.tasks.b.parameters.y[0]") address it
// exactly as the definition author sees it.
//
// Parameters is the only field scanned: the other fields on Task (the
// handler string, the boolean skipIf/errorIf gates, etc.) are structural — read by the scheduler itself rather than handed to a
// handler — so templating it would resolve against values that do not
// exist yet at gate-evaluation time. User-authored, handler-visible data
// only ever lives in Parameters.
func Task(logger *slog.Logger, root *tree.WorkflowInstance, task *tree.Task) error {
	if logger == nil {
		logger = slog.Default()
	}

	if len(task.Parameters) == 0 {
		return nil
	}

	ctx, err := buildContext(root)
	if err != nil {
		return fmt.Errorf("resolve: snapshot instance: %w", err)
	}

	r := &resolver{ctx: ctx, logger: logger}

	for k, v := range task.Parameters {
		task.Parameters[k] = r.resolveValue(v)
	}

	return nil
}

func buildContext(root *tree.WorkflowInstance) (map[string]any, error) {
	data, err := json.Marshal(root)
	if err != nil {
		return nil, err
	}

	var ctx map[string]any
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, err
	}

	return ctx, nil
}

type resolver struct {
	ctx    map[string]any
	logger *slog.Logger
}

// resolveValue recurses through arbitrarily nested maps/slices, resolving
// every string leaf. Non-string, non-container leaves pass through
// unchanged.
func (r *resolver) resolveValue(v any) any {
	switch val := v.(type) {
	case string:
		return r.resolveString(val)
	case map[string]any:
		for k, child := range val {
			val[k] = r.resolveValue(child)
		}

		return val
	case []any:
		for i, child := range val {
			val[i] = r.resolveValue(child)
		}

		return val
	default:
		return v
	}
}

// resolveString implements the standalone-vs-embedded contract: if s is
// exactly one reference with no surrounding text, the resolved value
// replaces it in full (type preserved). Otherwise every reference found
// in s is stringified and spliced into the surrounding text.
func (r *resolver) resolveString(s string) any {
	refs := findReferences(s)
	if len(refs) == 0 {
		return s
	}

	if len(refs) == 1 && refs[0].start == 0 && refs[0].end == len(s) {
		val, ok := r.resolve(refs[0].path)
		if !ok {
			r.logger.Warn("resolve: unresolved reference", "path", refs[0].path)

			return nil
		}

		return val
	}

	var b strings.Builder

	last := 0
	for _, ref := range refs {
		b.WriteString(s[last:ref.start])

		val, ok := r.resolve(ref.path)
		if !ok {
			r.logger.Warn("resolve: unresolved reference", "path", ref.path)
			b.WriteString("")
		} else {
			b.WriteString(stringify(val))
		}

		last = ref.end
	}

	b.WriteString(s[last:])

	return b.String()
}

func (r *resolver) resolve(path string) (any, bool) {
	return lookup(r.ctx, parsePath(path))
}

type reference struct {
	path       string
	start, end int
}

// findReferences scans s for $[...] occurrences, tracking bracket depth so
// that index subscripts such as $[tasks.a.parameters.y[0]] are not cut off
// at the inner ']'.
func findReferences(s string) []reference {
	var refs []reference

	i := 0
	for i < len(s) {
		idx := strings.Index(s[i:], refOpen)
		if idx < 0 {
			break
		}

		start := i + idx
		depth := 1
		j := start + len(refOpen)

		for j < len(s) && depth > 0 {
			switch s[j] {
			case '[':
				depth++
			case refClose:
				depth--
			}
			j++
		}

		if depth != 0 {
			break
		}

		refs = append(refs, reference{
			path:  s[start+len(refOpen) : j-1],
			start: start,
			end:   j,
		})

		i = j
	}

	return refs
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}

		return string(data)
	}
}
