// Package evalmodel defines the request/response shapes of the
// code-evaluation service: the Sample a caller submits, the TestSpec it
// may carry, and the Verdict/ResourceStats the engine produces.
package evalmodel

import "fmt"

// Source identifies which benchmark a Sample originated from.
type Source string

const (
	SourceHumanEval     Source = "human-eval"
	SourceMBPP          Source = "mbpp"
	SourceLiveCodeBench Source = "livecodebench"
)

// Lang identifies the language a Sample's code is written in.
type Lang string

const (
	LangPython     Lang = "python"
	LangJavaScript Lang = "javascript"
	LangTypeScript Lang = "typescript"
)

// DefaultMemoryLimitMB is applied when a Sample omits memory_limit.
const DefaultMemoryLimitMB = 1024

// TestSpec pairs stdin-style inputs with expected outputs for the
// LiveCodeBench function-call and stdio comparator modes.
type TestSpec struct {
	Inputs  []string `json:"inputs" binding:"required"`
	Outputs []string `json:"outputs" binding:"required"`
	FnName  *string  `json:"fn_name,omitempty"`
}

// Validate enforces the one precondition common to both comparator
// modes: inputs and outputs travel in lockstep.
func (t *TestSpec) Validate() error {
	if len(t.Inputs) != len(t.Outputs) {
		return fmt.Errorf("number of inputs and outputs mismatch")
	}
	return nil
}

// Sample is one evaluation request. It is immutable once constructed and
// discarded after the reply is sent; nothing about it is persisted beyond
// the optional idempotency cache keyed by UUID.
type Sample struct {
	UUID         string         `json:"uuid" binding:"required"`
	Source       Source         `json:"source" binding:"required,oneof=human-eval mbpp livecodebench"`
	Code         string         `json:"code" binding:"required"`
	Lang         Lang           `json:"lang"`
	Test         *TestSpec      `json:"test,omitempty"`
	Timeout      *float64       `json:"timeout,omitempty"`
	MemoryLimit  int            `json:"memory_limit"`
	Kwargs       map[string]any `json:"kwargs,omitempty"`
}

// ApplyDefaults fills in zero-valued fields the caller may have omitted,
// mirroring the Python Sample's field defaults.
func (s *Sample) ApplyDefaults() {
	if s.Lang == "" {
		s.Lang = LangPython
	}
	if s.MemoryLimit <= 0 {
		s.MemoryLimit = DefaultMemoryLimitMB
	}
}

// Verdict is the pass/fail outcome of one evaluation. Msg is empty on
// success; on failure it begins with "failed: " (or "failed [exit N]: ")
// per the verdict string grammar.
type Verdict struct {
	Status bool   `json:"status"`
	Msg    string `json:"msg"`
}

// Failedf builds a Verdict whose Msg begins with "failed: ".
func Failedf(format string, args ...any) Verdict {
	return Verdict{Status: false, Msg: "failed: " + fmt.Sprintf(format, args...)}
}

// Passed is the single success Verdict value.
var Passed = Verdict{Status: true, Msg: ""}

// ResourceStats is telemetry gathered concurrently with a child's
// execution. All four fields are well-defined, non-negative, finite
// numbers; if sampling never started they stay zero rather than nil.
type ResourceStats struct {
	CPUPercent     float64 `json:"cpu_percent"`
	PeakCPUPercent float64 `json:"peak_cpu_percent"`
	MemoryMB       float64 `json:"memory_mb"`
	PeakMemoryMB   float64 `json:"peak_memory_mb"`
}

// ResourceMetrics is the wire shape returned to HTTP callers (§6).
type ResourceMetrics struct {
	AvgCPUPercent  float64 `json:"avg_cpu_percent"`
	PeakCPUPercent float64 `json:"peak_cpu_percent"`
	AvgMemoryMB    float64 `json:"avg_memory_mb"`
	PeakMemoryMB   float64 `json:"peak_memory_mb"`
}

// ToMetrics adapts internal ResourceStats to the HTTP response shape.
func (r ResourceStats) ToMetrics() ResourceMetrics {
	return ResourceMetrics{
		AvgCPUPercent:  r.CPUPercent,
		PeakCPUPercent: r.PeakCPUPercent,
		AvgMemoryMB:    r.MemoryMB,
		PeakMemoryMB:   r.PeakMemoryMB,
	}
}
