package tree

import "encoding/json"

// Clone performs a deep copy of inst via a JSON marshal/unmarshal round
// trip. The execution driver clones every inbound instance so that a
// caller's copy is never mutated by the engine or a handler.
func Clone(inst *WorkflowInstance) (*WorkflowInstance, error) {
	data, err := json.Marshal(inst)
	if err != nil {
		return nil, err
	}

	out := &WorkflowInstance{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}

	return out, nil
}
