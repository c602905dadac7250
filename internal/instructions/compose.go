package instructions

import (
	"fmt"

	"github.com/iqbalbaharum/hyper-sdk/internal/coder"
)

// checkComposition walks a batch in execution order and rejects recent
// references the engine could not resolve unambiguously. Each reference must
// point at a creation earlier in the batch, and only one reference per kind
// may follow any one creation.
func checkComposition(batch []Instruction) error {
	var (
		created = make(map[EntityKind]bool)
		claimed = make(map[EntityKind]int)
	)

	for i, ix := range batch {
		for _, kind := range ix.references() {
			if !created[kind] {
				return fmt.Errorf("%w: instruction %d (%s) references the recent %s before any is created", coder.ErrCompose, i, ix.OpCode(), kind)
			}

			if prev, ok := claimed[kind]; ok {
				return fmt.Errorf("%w: instructions %d and %d both reference the recent %s", coder.ErrCompose, prev, i, kind)
			}

			claimed[kind] = i
		}

		for _, kind := range ix.creates() {
			created[kind] = true
			delete(claimed, kind)
		}
	}

	return nil
}
