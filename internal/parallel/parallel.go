// Package parallel runs data parallel loops over index ranges.
package parallel

import (
	"runtime"
	"sync"
)

// minChunk is the smallest range handed to a worker.
const minChunk = 64

// Workers returns the number of workers used to process n items.
func Workers(n int) int { return WorkersGrain(n, minChunk) }

// WorkersGrain returns the number of workers used to process n items
// in ranges of at least grain items.
func WorkersGrain(n, grain int) int {
	if grain < 1 {
		grain = 1
	}
	w := runtime.GOMAXPROCS(0)
	if max := (n + grain - 1) / grain; max < w {
		w = max
	}
	if w < 1 {
		w = 1
	}
	return w
}

// For calls fn over disjoint ranges covering [0,n). worker is the
// index of the range in [0, Workers(n)) so callers can keep per-worker
// partial results without locking. For returns after every call returns.
func For(n int, fn func(worker, start, end int)) { ForGrain(n, minChunk, fn) }

// ForGrain is like For with ranges of at least grain items.
// worker is in [0, WorkersGrain(n, grain)).
func ForGrain(n, grain int, fn func(worker, start, end int)) {
	if n <= 0 {
		return
	}
	w := WorkersGrain(n, grain)
	if w == 1 {
		fn(0, 0, n)
		return
	}
	chunk := (n + w - 1) / w
	var wg sync.WaitGroup
	for i := 0; i < w; i++ {
		start := i * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			fn(worker, start, end)
		}(i, start, end)
	}
	wg.Wait()
}

// MaxFloat returns the maximum of f(i) over [0,n). It returns
// 0 when n is zero.
func MaxFloat(n int, f func(i int) float64) float64 {
	partial := make([]float64, Workers(n))
	For(n, func(worker, start, end int) {
		max := partial[worker]
		for i := start; i < end; i++ {
			if v := f(i); v > max {
				max = v
			}
		}
		partial[worker] = max
	})
	var max float64
	for _, v := range partial {
		if v > max {
			max = v
		}
	}
	return max
}

// Count returns the number of i in [0,n) for which f returns true.
func Count(n int, f func(i int) bool) int {
	partial := make([]int, Workers(n))
	For(n, func(worker, start, end int) {
		count := 0
		for i := start; i < end; i++ {
			if f(i) {
				count++
			}
		}
		partial[worker] = count
	})
	total := 0
	for _, c := range partial {
		total += c
	}
	return total
}
