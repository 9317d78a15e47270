package tree

// VisitFunc is called once per task during a Walk. name is the task's key
// within its parent mapping; path is the dot-separated ancestry from the
// tasks root (e.g. "parent.child"). Returning false halts the entire
// traversal, propagating the halt up through every enclosing call.
type VisitFunc func(path string, name string, task *Task) bool

// Walk performs a depth-first, pre-order traversal of tasks in insertion
// order (per order, falling back to map iteration when order omits a key),
// invoking visit for each task. If deep is true, Walk recurses into each
// task's children before moving to the next sibling. A false return from
// visit stops the traversal immediately; Walk itself then returns false.
//
// This is the single traversal primitive that status queries, merging
// (via Find), and the scheduler's runnable collection build on.
func Walk(order []string, tasks map[string]*Task, deep bool, visit VisitFunc) bool {
	return walk("", order, tasks, deep, visit)
}

func walk(prefix string, order []string, tasks map[string]*Task, deep bool, visit VisitFunc) bool {
	for _, name := range orderedNames(order, tasks) {
		task := tasks[name]
		if task == nil {
			continue
		}

		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		if !visit(path, name, task) {
			return false
		}

		if deep && len(task.Tasks) > 0 {
			if !walk(path, task.Order, task.Tasks, deep, visit) {
				return false
			}
		}
	}

	return true
}

// OrderedNames returns the keys of tasks in the order recorded by order,
// followed by any keys present in tasks but missing from order (appended
// in indeterminate map-iteration order, which only arises for
// hand-constructed trees that bypassed Validate). Exported so callers
// outside this package (the scheduler's frontier walk) can iterate a
// single level without a full deep Walk.
func OrderedNames(order []string, tasks map[string]*Task) []string {
	return orderedNames(order, tasks)
}

func orderedNames(order []string, tasks map[string]*Task) []string {
	seen := make(map[string]bool, len(order))
	names := make([]string, 0, len(tasks))

	for _, name := range order {
		if _, ok := tasks[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	if len(names) == len(tasks) {
		return names
	}

	for name := range tasks {
		if !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	return names
}

// Find returns the first task named name anywhere in the tree, searched
// depth-first in insertion order, along with its dotted path. It reports
// false if no task of that name exists.
func Find(order []string, tasks map[string]*Task, name string) (*Task, string, bool) {
	var (
		found     *Task
		foundPath string
	)

	Walk(order, tasks, true, func(path string, n string, task *Task) bool {
		if n == name {
			found = task
			foundPath = path

			return false
		}

		return true
	})

	return found, foundPath, found != nil
}
