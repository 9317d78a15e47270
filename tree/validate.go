package tree

// Validate walks the full tree and assigns TaskWaiting to any task with an
// empty Status, and backfills Order from map iteration for any mapping
// that lacks one (so hand-built trees — e.g. unmarshaled definitions — get
// a deterministic, if arbitrary, scan order on first validation). It also
// coerces a nil Tasks mapping to an empty one so Walk never sees a nil map.
func Validate(inst *WorkflowInstance) {
	if inst.Tasks == nil {
		inst.Tasks = map[string]*Task{}
	}

	inst.Order = backfillOrder(inst.Order, inst.Tasks)
	validateChildren(inst.Tasks)

	if inst.PreWorkflow != nil {
		validateTask(inst.PreWorkflow)
	}
	if inst.PostWorkflow != nil {
		validateTask(inst.PostWorkflow)
	}

	if inst.Status == "" {
		inst.Status = InstanceOpen
	}
}

func validateChildren(tasks map[string]*Task) {
	for _, t := range tasks {
		validateTask(t)
	}
}

func validateTask(t *Task) {
	if t.Status == "" {
		t.Status = TaskWaiting
	}

	if t.Tasks != nil {
		t.Order = backfillOrder(t.Order, t.Tasks)
		validateChildren(t.Tasks)
	}
}

// backfillOrder returns order unchanged if it already accounts for every
// key in tasks; otherwise it appends any missing keys.
func backfillOrder(order []string, tasks map[string]*Task) []string {
	if len(order) == len(tasks) {
		ok := true
		seen := make(map[string]bool, len(order))

		for _, name := range order {
			if _, exists := tasks[name]; !exists || seen[name] {
				ok = false

				break
			}
			seen[name] = true
		}

		if ok {
			return order
		}
	}

	out := make([]string, 0, len(tasks))
	seen := make(map[string]bool, len(order))

	for _, name := range order {
		if _, exists := tasks[name]; exists && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}

	for name := range tasks {
		if !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}

	return out
}
