package engine

import (
	"time"

	"github.com/xraph/loom/tree"
)

// mergeTask applies an injection-bundle patch onto the first matching
// task in the live tree (§4.F "update"): parameters, status, errorIf,
// skipIf, and child tasks are replaced wholesale; timeCompleted and
// totalDuration are stamped against the patch's arrival, since an
// injected patch always represents an externally-delivered result (or a
// caller-driven re-dispatch via status=executing).
func mergeTask(target, patch *tree.Task) {
	target.Parameters = patch.Parameters
	target.Status = patch.Status
	target.ErrorIf = patch.ErrorIf
	target.SkipIf = patch.SkipIf
	target.Tasks = patch.Tasks
	target.Order = patch.Order

	now := time.Now().UTC()
	target.TimeCompleted = &now

	if target.TimeStarted != nil {
		target.TotalDuration = now.Sub(*target.TimeStarted)
	}
}
