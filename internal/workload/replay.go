package workload

import (
	"fmt"
	"time"
)

// Target is the vocabulary a container adapter must implement to replay a
// Script against it. cmd/ccc-bench provides one adapter per container
// (pq, handlemap, ordermap); methods not meaningful for a given container
// return [status.ErrArgument]-wrapped errors where they have an error
// result (e.g. Push on a map) and report a miss otherwise (e.g. Get on a
// pq), and are simply not used by scripts targeting that container.
type Target interface {
	Push(value int64) error
	Pop() (int64, error)
	Front() (int64, bool)
	Get(key int64) (int64, bool)
	InsertOrAssign(key, value int64) error
	TryInsert(key, value int64) error
	Remove(key int64) (int64, bool)
	Clear()
}

// OpStat aggregates timing for every Op of a given Kind in a replay.
type OpStat struct {
	Kind    Kind
	Count   int
	Elapsed time.Duration
}

// Result is the outcome of replaying a Script against a Target.
type Result struct {
	Name    string
	Total   int
	Elapsed time.Duration
	PerOp   []OpStat
}

// Replay executes every Op in script against target in order, stopping
// and returning an error at the first operation that fails. Lookups that
// simply miss (Get/Remove on an absent key, Front on an empty container)
// are not errors — only a non-nil error return from the Target method
// aborts the replay. Whether Pop on an empty container returns an error
// is up to the Target.
func Replay(script Script, target Target) (Result, error) {
	stats := make(map[Kind]*OpStat)
	order := make([]Kind, 0, 8)

	start := time.Now()

	for i, op := range script.Ops {
		opStart := time.Now()

		var err error

		switch op.Kind {
		case Push:
			err = target.Push(op.Value)
		case Pop:
			_, err = target.Pop()
		case Front:
			target.Front()
		case Get:
			target.Get(op.Key)
		case InsertOrAssign:
			err = target.InsertOrAssign(op.Key, op.Value)
		case TryInsert:
			err = target.TryInsert(op.Key, op.Value)
		case Remove:
			target.Remove(op.Key)
		case Clear:
			target.Clear()
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownOp, op.Kind)
		}

		if err != nil {
			return Result{}, fmt.Errorf("workload: op %d (%s): %w", i, op, err)
		}

		stat, ok := stats[op.Kind]
		if !ok {
			stat = &OpStat{Kind: op.Kind}
			stats[op.Kind] = stat
			order = append(order, op.Kind)
		}

		stat.Count++
		stat.Elapsed += time.Since(opStart)
	}

	result := Result{Name: script.Name, Total: len(script.Ops), Elapsed: time.Since(start)}
	for _, k := range order {
		result.PerOp = append(result.PerOp, *stats[k])
	}

	return result, nil
}
