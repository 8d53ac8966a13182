package forecast

import (
	"math/rand"
	"sync"
	"time"
)

// RandSource supplies the jitter entropy. Injecting it keeps forecasts
// deterministic under test: production uses a time-seeded source, tests a
// fixed-seed one.
type RandSource interface {
	Float64() float64 // uniform in [0,1)
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	v := s.r.Float64()
	s.mu.Unlock()
	return v
}

// NewRandSource returns a concurrency-safe time-seeded source.
func NewRandSource() RandSource {
	return &lockedSource{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededSource returns a concurrency-safe source with a fixed seed.
func NewSeededSource(seed int64) RandSource {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}
