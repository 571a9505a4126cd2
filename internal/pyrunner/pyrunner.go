// Package pyrunner spawns the embedded Python driver script that
// implements the reliability guard, stdio harness, and test comparator
// (§4.3, §4.4, §4.6) — logic that must stay in Python because it leans
// on ast.parse/ast.unparse and monkeypatching, which a statically
// compiled Go process cannot usefully reproduce (spec §9's
// re-architecture note). The Go side only ever speaks the instruction/
// verdict JSON protocol below; it never inspects Python internals.
package pyrunner

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

//go:embed driver.py
var driverSource string

// WriteDriver materializes the embedded driver script into dir,
// returning its path. Called once per child spawn so each invocation
// gets a fresh, uncorrupted copy regardless of what the evaluated code
// does to its own temp directory (in code mode the driver chdir's into a
// *separate* tempdir before exec'ing user code; test mode runs in the
// child's working directory, so that isolation is not relied on for the
// script file itself).
func WriteDriver(dir string) (string, error) {
	path := filepath.Join(dir, "driver.py")
	if err := os.WriteFile(path, []byte(driverSource), 0o500); err != nil {
		return "", fmt.Errorf("write driver script: %w", err)
	}
	return path, nil
}

// Instruction is the single JSON value the Go parent writes to the
// child's fd 3 before it starts executing.
type Instruction struct {
	Mode          string   `json:"mode"` // "code" or "test"
	Code          string   `json:"code"`
	MemoryLimitMB int      `json:"memory_limit_mb,omitempty"`
	Inputs        []string `json:"inputs,omitempty"`
	Outputs       []string `json:"outputs,omitempty"`
	FnName        *string  `json:"fn_name,omitempty"`
}

// Result is the single JSON line the child writes to fd 4 before
// exiting — the Go-side shape of spec §6's "(bool ok, string msg)"
// child protocol.
type Result struct {
	Ok  bool   `json:"ok"`
	Msg string `json:"msg"`
}

// Command builds an *exec.Cmd for `pythonBin driverPath` wired with the
// fd-3/fd-4 pipe pair, and returns the two ends the parent must drive:
// instrIn is the write end of fd 3 (write the Instruction, then close
// it so the child's read loop sees EOF), and resultOut is the read end
// of fd 4 (read until EOF, then parse the single JSON line as Result).
// The caller must close cmd.ExtraFiles after Start, or resultOut never
// reaches EOF.
// This mirrors the teacher's pipes() helper in
// internal/infrastructure/processmgr/process.go: allocate everything
// up front, and close every already-opened end if a later step fails so
// no descriptor leaks.
func Command(pythonBin, driverPath string) (cmd *exec.Cmd, instrIn *os.File, resultOut *os.File, err error) {
	instrR, instrW, err := os.Pipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("instruction pipe: %w", err)
	}
	resultR, resultW, err := os.Pipe()
	if err != nil {
		_ = instrR.Close()
		_ = instrW.Close()
		return nil, nil, nil, fmt.Errorf("result pipe: %w", err)
	}

	cmd = exec.Command(pythonBin, driverPath)
	// fd 3 = instrR (child's read end), fd 4 = resultW (child's write end).
	cmd.ExtraFiles = []*os.File{instrR, resultW}

	return cmd, instrW, resultR, nil
}

// WriteInstruction JSON-encodes instr and writes it to the child's
// instruction pipe, then closes the write end so the child's read loop
// observes EOF.
func WriteInstruction(instrIn *os.File, instr Instruction) error {
	defer instrIn.Close()
	enc, err := json.Marshal(instr)
	if err != nil {
		return fmt.Errorf("marshal instruction: %w", err)
	}
	if _, err := instrIn.Write(enc); err != nil {
		return fmt.Errorf("write instruction: %w", err)
	}
	return nil
}

// ReadResult reads the child's single JSON verdict line from its result
// pipe. Returns an error only for infrastructure failures (pipe closed
// with no data, malformed JSON) — per §7, these are rendered by the
// caller as "failed: [<kind>] <detail>", never surfaced as a 5xx.
func ReadResult(resultOut *os.File) (Result, error) {
	defer resultOut.Close()
	data, err := readAll(resultOut)
	if err != nil {
		return Result{}, fmt.Errorf("read result: %w", err)
	}
	if len(data) == 0 {
		return Result{}, fmt.Errorf("no result from subprocess")
	}
	var r Result
	if err := json.Unmarshal(trimTrailingNewline(data), &r); err != nil {
		return Result{}, fmt.Errorf("decode result: %w", err)
	}
	return r, nil
}

func readAll(f *os.File) ([]byte, error) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := f.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			return buf, nil // EOF or closed pipe: return whatever we got
		}
	}
}

func trimTrailingNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
