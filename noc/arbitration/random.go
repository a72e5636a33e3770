package arbitration

import "math/rand"

// Random is a separable input-first allocator that breaks every tie with a
// random draw.
type Random struct {
	rng        *rand.Rand
	numOutputs int
}

// Allocate implements Allocator.
func (a *Random) Allocate(requests []Request) []Request {
	byInput := make(map[int][]Request)
	var inputs []int

	for _, r := range requests {
		if _, found := byInput[r.Input]; !found {
			inputs = append(inputs, r.Input)
		}

		byInput[r.Input] = append(byInput[r.Input], r)
	}

	byOutput := make([][]Request, a.numOutputs)

	for _, in := range inputs {
		candidates := byInput[in]
		r := candidates[a.rng.Intn(len(candidates))]
		byOutput[r.Output] = append(byOutput[r.Output], r)
	}

	var grants []Request

	for _, contenders := range byOutput {
		if len(contenders) == 0 {
			continue
		}

		grants = append(grants, contenders[a.rng.Intn(len(contenders))])
	}

	return grants
}
