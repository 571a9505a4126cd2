// Package resourcemon samples CPU% and RSS for a running child process
// concurrently with its execution. Grounded on
// github.com/shirou/gopsutil/v3/process, the library the
// newrelic-infrastructure-agent example repo uses throughout
// pkg/metrics/process/* for the same per-pid CPU/memory harvesting —
// here repurposed from periodic fleet telemetry to a single short-lived
// sample window bounded by one evaluation's lifetime.
package resourcemon

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/edirooss/codeeval-server/internal/evalmodel"
)

// DefaultInterval is the sampling period, per spec §4.2.
const DefaultInterval = 100 * time.Millisecond

// Sampler polls one pid's CPU% and RSS until Stop is called. Start
// returns immediately with a *Sampler whose background goroutine updates
// its internal evalmodel.ResourceStats in place; Stats returns a copy
// and is meant to be called after Stop (Stop blocks until the goroutine
// commits its final averages, so Stop followed by Stats needs no extra
// synchronization from the caller).
type Sampler struct {
	stats evalmodel.ResourceStats
	mu    chan struct{} // 1-buffered mutex-by-channel guarding stats reads after Stop
	done  chan struct{}
	stop  context.CancelFunc
}

// Start begins sampling pid at interval. If the pid cannot be attached
// to immediately (process already gone), it returns a zeroed, already-stopped
// Sampler rather than nil or an error — spec §9 standardizes on always
// returning a zeroed struct, never nil, when monitoring could not attach.
func Start(pid int, interval time.Duration) *Sampler {
	s := &Sampler{
		mu:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	s.mu <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		cancel()
		close(s.done)
		return s
	}

	go s.run(ctx, proc, interval)
	return s
}

func (s *Sampler) run(ctx context.Context, proc *process.Process, interval time.Duration) {
	defer close(s.done)

	// First CPU sample is discarded: OS convention, the first read is
	// always zero (spec §4.2).
	_, _ = proc.CPUPercent()

	var cpuSamples, memSamples []float64

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.commit(cpuSamples, memSamples)
			return
		case <-ticker.C:
		}

		cpu, err := proc.CPUPercent()
		if err != nil {
			// Process gone or access denied: halt silently, keep what
			// we have.
			s.commit(cpuSamples, memSamples)
			return
		}
		if cpu > 0 {
			cpuSamples = append(cpuSamples, cpu)
			if cpu > s.stats.PeakCPUPercent {
				s.stats.PeakCPUPercent = cpu
			}
		}

		mem, err := proc.MemoryInfo()
		if err != nil {
			s.commit(cpuSamples, memSamples)
			return
		}
		memMB := float64(mem.RSS) / (1024 * 1024)
		memSamples = append(memSamples, memMB)
		if memMB > s.stats.PeakMemoryMB {
			s.stats.PeakMemoryMB = memMB
		}
	}
}

func (s *Sampler) commit(cpuSamples, memSamples []float64) {
	<-s.mu
	defer func() { s.mu <- struct{}{} }()

	if len(cpuSamples) > 0 {
		s.stats.CPUPercent = mean(cpuSamples)
	}
	if len(memSamples) > 0 {
		s.stats.MemoryMB = mean(memSamples)
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Stop raises the stop signal and blocks until the sampler goroutine has
// committed its final averages — the Go-idiomatic equivalent of spec
// §4.2's "callers must raise stop_signal and yield briefly (~100ms)
// before reading final averages": an explicit wait on the sampler's own
// completion is strictly stronger than a fixed sleep (§9 prefers this
// where available), so Stop blocks on s.done instead of sleeping.
func (s *Sampler) Stop() {
	s.stop()
	<-s.done
}

// Stats returns a snapshot of the gathered statistics. Call after Stop.
func (s *Sampler) Stats() evalmodel.ResourceStats {
	<-s.mu
	defer func() { s.mu <- struct{}{} }()
	return s.stats
}
