package tree

// AnyPaused reports whether any task reachable from tasks has status
// TaskPaused.
func AnyPaused(order []string, tasks map[string]*Task) bool {
	paused := false

	Walk(order, tasks, true, func(_ string, _ string, t *Task) bool {
		if t.Status == TaskPaused {
			paused = true

			return false
		}

		return true
	})

	return paused
}

// AllCompleted reports whether every top-level task in tasks has status
// TaskCompleted. It does not recurse: a completed parent already implies
// its descendants are completed (invariant 3).
func AllCompleted(tasks map[string]*Task) bool {
	for _, t := range tasks {
		if t.Status != TaskCompleted {
			return false
		}
	}

	return true
}

// SyncInstanceStatus derives WorkflowInstance.Status from its top-level
// tasks: completed iff every top-level task is completed, error iff any
// top-level task (recursively) is in error, otherwise open.
func SyncInstanceStatus(inst *WorkflowInstance) {
	if AllCompleted(inst.Tasks) {
		inst.Status = InstanceCompleted

		return
	}

	errored := false
	Walk(inst.Order, inst.Tasks, true, func(_ string, _ string, t *Task) bool {
		if t.Status == TaskError {
			errored = true

			return false
		}

		return true
	})

	if errored {
		inst.Status = InstanceError

		return
	}

	inst.Status = InstanceOpen
}
