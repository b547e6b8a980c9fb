package driver

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rinha/interpreter-go/pkg/ast"
	"rinha/interpreter-go/pkg/interpreter"
)

// ProgramResult is the outcome of one corpus program. Output is kept in
// memory only; history records the digest.
type ProgramResult struct {
	Program string `json:"program"`
	Passed  bool   `json:"passed"`
	Output  string `json:"-"`
	Digest  string `json:"digest"`
	Message string `json:"message,omitempty"`
	Checked bool   `json:"checked"`
}

// Suite runs every program document found under a corpus directory.
type Suite struct {
	Dir         string
	Programs    []string
	StrictArity bool
}

// Run evaluates each document against a fresh interpreter and, where a
// sibling .out file exists, compares the captured output line for line.
// Programs without an expectation pass when they evaluate cleanly; their
// output digest is still recorded so later runs can spot drift.
func (s *Suite) Run() ([]ProgramResult, error) {
	paths, err := s.collect()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("suite: no program documents under %s", s.Dir)
	}

	results := make([]ProgramResult, 0, len(paths))
	for _, path := range paths {
		results = append(results, s.runOne(path))
	}
	return results, nil
}

func (s *Suite) collect() ([]string, error) {
	allow := make(map[string]bool, len(s.Programs))
	for _, name := range s.Programs {
		allow[name] = true
	}

	var paths []string
	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".rinha.json") {
			return nil
		}
		if len(allow) > 0 && !allow[programName(path)] {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("suite: walk %s: %w", s.Dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *Suite) runOne(path string) ProgramResult {
	result := ProgramResult{Program: programName(path)}
	slog.Debug("running corpus program", slog.String("program", result.Program))

	file, err := ast.LoadFile(path)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	var out bytes.Buffer
	opts := []interpreter.Option{interpreter.WithOutput(&out)}
	if s.StrictArity {
		opts = append(opts, interpreter.WithStrictArity())
	}
	runErr := interpreter.NewProgram(file).Run(interpreter.NewInterpreter(opts...))

	result.Output = out.String()
	result.Digest = outputDigest(result.Output)
	if runErr != nil {
		result.Message = runErr.Error()
		return result
	}

	want, err := os.ReadFile(strings.TrimSuffix(path, ".rinha.json") + ".out")
	if err != nil {
		if !os.IsNotExist(err) {
			result.Message = err.Error()
			return result
		}
		result.Passed = true
		return result
	}
	result.Checked = true
	if result.Output != string(want) {
		result.Message = fmt.Sprintf("output mismatch: got %q, want %q", result.Output, want)
		return result
	}
	result.Passed = true
	return result
}

func programName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".rinha.json")
}

func outputDigest(output string) string {
	sum := sha256.Sum256([]byte(output))
	return hex.EncodeToString(sum[:])
}
