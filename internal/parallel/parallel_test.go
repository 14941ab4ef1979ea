package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 63, 64, 65, 1000, 12345} {
		seen := make([]int32, n)
		For(n, func(worker, start, end int) {
			if worker < 0 || worker >= Workers(n) {
				t.Errorf("worker %d out of range", worker)
			}
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, s := range seen {
			if s != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, s)
			}
		}
	}
}

func TestReductions(t *testing.T) {
	const n = 10000
	got := MaxFloat(n, func(i int) float64 { return float64((i * 7919) % n) })
	if got != n-1 {
		t.Errorf("max got %g, want %d", got, n-1)
	}
	count := Count(n, func(i int) bool { return i%3 == 0 })
	if count != 3334 {
		t.Errorf("count got %d, want 3334", count)
	}
	if MaxFloat(0, nil) != 0 || Count(0, nil) != 0 {
		t.Error("empty reductions should be zero")
	}
}
