package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kr/pretty"

	"rinha/interpreter-go/pkg/ast"
	"rinha/interpreter-go/pkg/driver"
	"rinha/interpreter-go/pkg/interpreter"
)

const cliToolVersion = "rinha-cli 0.0.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage(os.Stdout)
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runProgram(args[1:])
	case "ast":
		return runDumpTree(args[1:])
	case "repl":
		return runREPL(args[1:])
	case "suite":
		return runSuite(args[1:])
	default:
		// `rinha prog.rinha.json` behaves like `rinha run prog.rinha.json`.
		return runProgram(args)
	}
}

func runProgram(args []string) int {
	flags := flag.NewFlagSet("rinha run", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	configPath := flags.String("config", "", "configuration file (rinha.yml in the working directory when present)")
	strictArity := flags.Bool("strict-arity", false, "reject calls whose argument count differs from the parameter count")
	debug := flags.Bool("debug", false, "log debug diagnostics to stderr")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "rinha run: unexpected arguments: %s\n", strings.Join(flags.Args()[1:], " "))
		return 2
	}
	setupLogging(*debug)

	config, err := driver.ResolveConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rinha: %v\n", err)
		return 1
	}
	source := config.Source
	if flags.NArg() == 1 {
		source = flags.Arg(0)
	}

	file, err := ast.LoadFile(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rinha: %v\n", err)
		return 1
	}

	var opts []interpreter.Option
	if *strictArity || config.StrictArity {
		opts = append(opts, interpreter.WithStrictArity())
	}
	if err := interpreter.NewProgram(file).Run(interpreter.NewInterpreter(opts...)); err != nil {
		fmt.Fprintf(os.Stderr, "rinha: %v\n", err)
		return 1
	}
	return 0
}

func runDumpTree(args []string) int {
	flags := flag.NewFlagSet("rinha ast", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	configPath := flags.String("config", "", "configuration file (rinha.yml in the working directory when present)")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "rinha ast: unexpected arguments: %s\n", strings.Join(flags.Args()[1:], " "))
		return 2
	}

	config, err := driver.ResolveConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rinha: %v\n", err)
		return 1
	}
	source := config.Source
	if flags.NArg() == 1 {
		source = flags.Arg(0)
	}

	file, err := ast.LoadFile(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rinha: %v\n", err)
		return 1
	}
	pretty.Println(file)
	return 0
}

func runSuite(args []string) int {
	flags := flag.NewFlagSet("rinha suite", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	configPath := flags.String("config", "", "configuration file (rinha.yml in the working directory when present)")
	strictArity := flags.Bool("strict-arity", false, "reject calls whose argument count differs from the parameter count")
	localDir := flags.String("dir", "", "run programs from a local directory instead of fetching the corpus")
	noHistory := flags.Bool("no-history", false, "skip recording this run and the regression diff")
	debug := flags.Bool("debug", false, "log debug diagnostics to stderr")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "rinha suite: unexpected arguments: %s\n", strings.Join(flags.Args(), " "))
		return 2
	}
	setupLogging(*debug)

	config, err := driver.ResolveConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rinha: %v\n", err)
		return 1
	}

	corpusDir := *localDir
	commit := ""
	if corpusDir == "" {
		if config.Suite.Repo == "" {
			fmt.Fprintln(os.Stderr, "rinha suite: no corpus repository configured and no --dir given")
			return 1
		}
		fetcher, err := driver.NewFetcher("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "rinha: %v\n", err)
			return 1
		}
		checkout, err := fetcher.Fetch(config.Suite.Repo, config.Suite.Revision)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rinha: %v\n", err)
			return 1
		}
		corpusDir = filepath.Join(checkout.Dir, config.Suite.Dir)
		commit = checkout.Commit
	}

	suite := &driver.Suite{
		Dir:         corpusDir,
		Programs:    config.Suite.Programs,
		StrictArity: *strictArity || config.StrictArity,
	}
	results, err := suite.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rinha: %v\n", err)
		return 1
	}

	failed := printSuiteReport(os.Stdout, results)

	regressed := false
	if !*noHistory {
		current := driver.RunRecord{
			Timestamp: time.Now().UTC(),
			Commit:    commit,
			Results:   results,
		}
		diff, err := recordSuiteRun(config.History.Path, current)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rinha: %v\n", err)
			return 1
		}
		regressed = printRunDiff(os.Stdout, diff)
	}

	if failed > 0 || regressed {
		return 1
	}
	return 0
}

func recordSuiteRun(historyPath string, current driver.RunRecord) (driver.RunDiff, error) {
	history, err := driver.OpenHistory(historyPath)
	if err != nil {
		return driver.RunDiff{}, err
	}
	defer history.Close()

	var diff driver.RunDiff
	if prev, found, err := history.LastRun(); err != nil {
		return driver.RunDiff{}, err
	} else if found {
		diff = driver.DiffRuns(prev, current)
	}
	if err := history.Record(current); err != nil {
		return driver.RunDiff{}, err
	}
	return diff, nil
}

func printSuiteReport(w io.Writer, results []driver.ProgramResult) int {
	failed := 0
	for _, result := range results {
		status := "ok"
		switch {
		case !result.Passed:
			status = "FAIL"
			failed++
		case !result.Checked:
			status = "ok (no expectation)"
		}
		fmt.Fprintf(w, "%-32s %s\n", result.Program, status)
		if result.Message != "" {
			fmt.Fprintf(w, "    %s\n", result.Message)
		}
	}
	fmt.Fprintf(w, "%d programs, %d failed\n", len(results), failed)
	return failed
}

func printRunDiff(w io.Writer, diff driver.RunDiff) bool {
	for _, name := range diff.NewlyFailing {
		fmt.Fprintf(w, "regression: %s passed in the previous run\n", name)
	}
	for _, name := range diff.NewlyPassing {
		fmt.Fprintf(w, "fixed: %s failed in the previous run\n", name)
	}
	for _, name := range diff.Drifted {
		fmt.Fprintf(w, "drift: %s output changed since the previous run\n", name)
	}
	return len(diff.NewlyFailing) > 0
}

func setupLogging(debug bool) {
	if !debug {
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  rinha run [--config rinha.yml] [--strict-arity] [file.rinha.json]")
	fmt.Fprintln(w, "  rinha ast [file.rinha.json]")
	fmt.Fprintln(w, "  rinha repl")
	fmt.Fprintln(w, "  rinha suite [--config rinha.yml] [--dir path] [--no-history]")
	fmt.Fprintln(w, "  rinha version")
	fmt.Fprintln(w, "  rinha <file.rinha.json>")
}
