package fractal

import (
	"context"

	apperrors "github.com/agbru/fractree/internal/errors"
)

// PartialResult is a worker's encoded subtree, tagged with the submission
// index of its task.
type PartialResult struct {
	Task    int
	Payload Payload
}

// Worker generates the subtree of one task. Implementations must be safe for
// concurrent use with distinct tasks.
type Worker interface {
	Run(ctx context.Context, task TaskDescriptor) (PartialResult, error)
}

// WorkerFunc adapts a plain function to the Worker interface.
type WorkerFunc func(ctx context.Context, task TaskDescriptor) (PartialResult, error)

// Run calls f(ctx, task).
func (f WorkerFunc) Run(ctx context.Context, task TaskDescriptor) (PartialResult, error) {
	return f(ctx, task)
}

// Bridge is the production Worker. It emits the task's subtree directly
// into the configured encoding and checks the result against the predicted
// size.
type Bridge struct {
	Encoding Encoding
}

// Run generates and encodes the subtree of task.
//
// Parameters:
//   - ctx: Checked before generation starts.
//   - task: The task to generate.
//
// Returns:
//   - PartialResult: The encoded subtree.
//   - error: The context error, or a SizeInvariantError when the number of
//     emitted branches differs from task.ExpectedSize.
func (b Bridge) Run(ctx context.Context, task TaskDescriptor) (PartialResult, error) {
	if err := ctx.Err(); err != nil {
		return PartialResult{}, err
	}

	var payload Payload
	switch b.Encoding {
	case EncodingFixed:
		buf := make([]float64, FixedRecordFields*task.ExpectedSize)
		end := fillFixedSubtree(buf, 0, task.Pose, task.Params)
		if end != len(buf) {
			return PartialResult{}, apperrors.SizeInvariantError{
				Task:     task.Index,
				Expected: task.ExpectedSize,
				Actual:   end / FixedRecordFields,
			}
		}
		payload = Payload{Encoding: EncodingFixed, Fixed: buf}
	default:
		buf := make([]byte, 0, PackedRecordSize*task.ExpectedSize)
		buf = appendPackedSubtree(buf, task.Pose, task.Params)
		payload = Payload{Encoding: EncodingPacked, Packed: buf}
		if n := payload.Len(); n != task.ExpectedSize {
			return PartialResult{}, apperrors.SizeInvariantError{Task: task.Index, Expected: task.ExpectedSize, Actual: n}
		}
	}
	return PartialResult{Task: task.Index, Payload: payload}, nil
}
