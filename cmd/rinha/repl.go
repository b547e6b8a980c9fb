package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"rinha/interpreter-go/pkg/ast"
	"rinha/interpreter-go/pkg/interpreter"
	"rinha/interpreter-go/pkg/runtime"
)

const (
	historyFile = ".rinha_history"
	promptMain  = "rinha> "
	promptCont  = "  ...> "
	replBanner  = "rinha REPL. One JSON node document per line; Ctrl+C cancels input, Ctrl+D exits. Type :help for commands."
	replHelp    = `
REPL commands:
  :help            Show this help
  :quit / :exit    Exit the REPL
  :env             List the current bindings
  :load <file>     Evaluate a program document in this session
  :reset           Discard all bindings
`
)

func runREPL(args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "rinha repl does not take arguments (received %s)\n", strings.Join(args, " "))
		return 2
	}
	fmt.Println(replBanner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	interp := interpreter.NewInterpreter()

	for {
		doc, ok := readDocument(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(doc)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			if done := handleReplCommand(interp, ln, trimmed); done {
				break
			}
			continue
		}

		value, err := evalDocument(interp, doc)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(runtime.Display(value))

		ln.AppendHistory(strings.ReplaceAll(doc, "\n", " "))
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// readDocument accumulates lines until they form complete JSON. A syntax
// error at the end of the buffer means the document is still open, so the
// prompt switches to the continuation form and reading goes on.
func readDocument(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the buffered input; the user starts over.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		trimmed := strings.TrimSpace(src)
		if trimmed == "" || strings.HasPrefix(trimmed, ":") {
			return src, true
		}
		if looksTruncated(src) {
			continue
		}
		return src, true
	}
}

// looksTruncated classifies decode errors that mean "need more input".
func looksTruncated(src string) bool {
	var doc any
	err := json.Unmarshal([]byte(src), &doc)
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "unexpected end of JSON input")
}

// evalDocument accepts either a whole program document (with an
// "expression" key) or a bare node document.
func evalDocument(interp *interpreter.Interpreter, doc string) (runtime.Value, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return nil, err
	}
	if _, isProgram := raw["expression"]; isProgram {
		file, err := ast.DecodeFile([]byte(doc))
		if err != nil {
			return nil, err
		}
		return interp.Evaluate(file.Expression)
	}
	node, err := ast.DecodeNode(raw)
	if err != nil {
		return nil, err
	}
	return interp.Evaluate(node)
}

func handleReplCommand(interp *interpreter.Interpreter, ln *liner.State, line string) (exit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Print(replHelp)

	case ":quit", ":exit":
		return true

	case ":reset":
		*interp = *interpreter.NewInterpreter()
		fmt.Println("environment cleared.")

	case ":env":
		printBindings(interp.Environment())

	case ":load":
		if len(fields) < 2 {
			fmt.Println("usage: :load <file>")
			return false
		}
		path := fields[1]
		file, err := ast.LoadFile(path)
		if err != nil {
			fmt.Println(err)
			return false
		}
		value, err := interp.Evaluate(file.Expression)
		if err != nil {
			fmt.Println(err)
			return false
		}
		fmt.Println(runtime.Display(value))
		ln.AppendHistory(fmt.Sprintf(":load %s", path))

	default:
		fmt.Println("unknown command. Type :help for help.")
	}
	return false
}

func printBindings(env *runtime.Environment) {
	keys := env.Keys()
	if len(keys) == 0 {
		fmt.Println("no bindings.")
		return
	}
	for _, name := range keys {
		value, err := env.Get(name)
		if err != nil {
			continue
		}
		fmt.Printf("%s = %s\n", name, runtime.Display(value))
	}
}
