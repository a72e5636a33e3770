package arbitration

// RoundRobin is a separable input-first allocator. Each input port first
// picks one of its requests, then each output port picks one of the inputs
// that chose it. Both stages use a rotating pointer that moves past the
// winner once a grant is made, so a persistent requester is eventually
// served.
type RoundRobin struct {
	numTags    int
	numInputs  int
	inputPtrs  []int
	outputPtrs []int
}

// Allocate implements Allocator.
func (a *RoundRobin) Allocate(requests []Request) []Request {
	inputWinners := make(map[int]Request)

	for _, r := range requests {
		w, found := inputWinners[r.Input]
		if !found || a.distance(r.Tag, a.inputPtrs[r.Input], a.numTags) <
			a.distance(w.Tag, a.inputPtrs[r.Input], a.numTags) {
			inputWinners[r.Input] = r
		}
	}

	outputWinners := make(map[int]Request)

	for in := 0; in < a.numInputs; in++ {
		r, found := inputWinners[in]
		if !found {
			continue
		}

		w, found := outputWinners[r.Output]
		ptr := a.outputPtrs[r.Output]

		if !found || a.distance(r.Input, ptr, a.numInputs) <
			a.distance(w.Input, ptr, a.numInputs) {
			outputWinners[r.Output] = r
		}
	}

	grants := make([]Request, 0, len(outputWinners))

	for in := 0; in < a.numInputs; in++ {
		r, found := inputWinners[in]
		if !found || outputWinners[r.Output] != r {
			continue
		}

		grants = append(grants, r)
		a.inputPtrs[r.Input] = (r.Tag + 1) % a.numTags
		a.outputPtrs[r.Output] = (r.Input + 1) % a.numInputs
	}

	return grants
}

func (a *RoundRobin) distance(index, ptr, n int) int {
	return ((index-ptr)%n + n) % n
}
