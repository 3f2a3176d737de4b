package workload

import (
	"fmt"
	"math/rand"
	"sort"
)

// categorical draws one key from a weighted mix.
// Keys are sorted so a seed yields the same draws regardless of map order.
type categorical struct {
	keys []string
	cum  []float64
}

func newCategorical(weights map[string]float64) (*categorical, error) {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	c := &categorical{keys: keys, cum: make([]float64, len(keys))}
	total := 0.0
	for i, k := range keys {
		w := weights[k]
		if w < 0 {
			return nil, fmt.Errorf("negative weight %f for %q", w, k)
		}
		total += w
		c.cum[i] = total
	}
	if total <= 0 {
		return nil, fmt.Errorf("weights sum to zero")
	}
	return c, nil
}

func (c *categorical) sample(rng *rand.Rand) string {
	u := rng.Float64() * c.cum[len(c.cum)-1]
	i := sort.Search(len(c.cum), func(i int) bool { return c.cum[i] > u })
	if i == len(c.keys) {
		i = len(c.keys) - 1
	}
	return c.keys[i]
}
