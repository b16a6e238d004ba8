package pipeline

import (
	"container/heap"
	"slices"
)

// Plan is a statically checked stage order.
type Plan struct {
	inputs []string
	stages []Stage
}

// New checks that stages can run in the given order over a dataset with the
// given input columns: every stage input is an input column or an output of
// an earlier stage, and every output has exactly one producer.
func New(inputs []string, stages ...Stage) (*Plan, error) {
	produced := make(map[string]string, len(inputs))
	for _, c := range inputs {
		produced[c] = ""
	}
	for _, s := range stages {
		for _, in := range s.Inputs() {
			if _, ok := produced[in]; !ok {
				return nil, &DependencyError{Stage: s.Name(), Column: in, Kind: ErrMissingProducer}
			}
		}
		for _, out := range s.Outputs() {
			if _, ok := produced[out]; ok {
				return nil, &DependencyError{Stage: s.Name(), Column: out, Kind: ErrDuplicateProducer}
			}
			produced[out] = s.Name()
		}
	}
	return &Plan{inputs: slices.Clone(inputs), stages: slices.Clone(stages)}, nil
}

// Stages returns the checked order.
func (p *Plan) Stages() []Stage { return slices.Clone(p.stages) }

// Producers maps each derived column to the stage that writes it.
func (p *Plan) Producers() map[string]string {
	out := map[string]string{}
	for _, s := range p.stages {
		for _, c := range s.Outputs() {
			out[c] = s.Name()
		}
	}
	return out
}

// Sort derives an order from declared columns alone. Among stages whose
// inputs are ready, the one declared first runs first, so the result is
// deterministic and keeps an already valid order unchanged.
func Sort(inputs []string, stages []Stage) ([]Stage, error) {
	isInput := make(map[string]bool, len(inputs))
	for _, c := range inputs {
		isInput[c] = true
	}
	producer := map[string]int{}
	for i, s := range stages {
		for _, out := range s.Outputs() {
			if _, dup := producer[out]; dup || isInput[out] {
				return nil, &DependencyError{Stage: s.Name(), Column: out, Kind: ErrDuplicateProducer}
			}
			producer[out] = i
		}
	}

	indegree := make([]int, len(stages))
	dependents := make([][]int, len(stages))
	for i, s := range stages {
		seen := map[int]bool{}
		for _, in := range s.Inputs() {
			if isInput[in] {
				continue
			}
			p, ok := producer[in]
			if !ok {
				return nil, &DependencyError{Stage: s.Name(), Column: in, Kind: ErrMissingProducer}
			}
			if p == i {
				return nil, &DependencyError{Stage: s.Name(), Column: in, Kind: ErrCycle}
			}
			if seen[p] {
				continue
			}
			seen[p] = true
			indegree[i]++
			dependents[p] = append(dependents[p], i)
		}
	}

	ready := &indexHeap{}
	for i, d := range indegree {
		if d == 0 {
			heap.Push(ready, i)
		}
	}
	out := make([]Stage, 0, len(stages))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		out = append(out, stages[i])
		for _, d := range dependents[i] {
			indegree[d]--
			if indegree[d] == 0 {
				heap.Push(ready, d)
			}
		}
	}
	if len(out) != len(stages) {
		for i, d := range indegree {
			if d > 0 {
				return nil, &DependencyError{Stage: stages[i].Name(), Kind: ErrCycle}
			}
		}
	}
	return out, nil
}

type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
