// Package main provides ccc-bench, a benchmark tool that replays a
// workload script against one of the three containers and reports
// per-operation timings.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/flatcontainers/ccc/internal/workload"
)

// config holds all benchmark configuration.
type config struct {
	Container string
	Workload  string
	Report    string
	Capacity  int
	Grows     bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ccc-bench: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config{}

	fs := flag.NewFlagSet("ccc-bench", flag.ContinueOnError)
	fs.StringVar(&cfg.Container, "container", "pq", "container to benchmark: pq, handlemap, or ordermap")
	fs.StringVar(&cfg.Workload, "workload", "", "path to a JSONC workload script (required)")
	fs.StringVar(&cfg.Report, "report", "", "path to write a YAML report (optional)")
	fs.IntVar(&cfg.Capacity, "capacity", 1024, "initial container capacity")
	fs.BoolVar(&cfg.Grows, "grows", true, "allow the container to grow past its initial capacity")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: ccc-bench --workload=<file> [flags]\n\n")
		fmt.Fprint(os.Stderr, "Replays a workload script against one of this module's containers.\n\n")
		fmt.Fprint(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.Workload == "" {
		fs.Usage()
		return fmt.Errorf("ccc-bench: --workload is required")
	}

	data, err := os.ReadFile(cfg.Workload)
	if err != nil {
		return fmt.Errorf("reading workload: %w", err)
	}

	script, err := workload.ParseJSONC(data)
	if err != nil {
		return fmt.Errorf("parsing workload: %w", err)
	}

	target, err := newTarget(cfg.Container, cfg.Capacity, cfg.Grows)
	if err != nil {
		return err
	}

	result, err := workload.Replay(script, target)
	if err != nil {
		return fmt.Errorf("replaying workload: %w", err)
	}

	printResult(os.Stdout, cfg.Container, result)

	if cfg.Report != "" {
		if err := writeReport(cfg.Report, cfg.Container, result); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}

		fmt.Fprintf(os.Stderr, "wrote %s\n", cfg.Report)
	}

	return nil
}

func newTarget(container string, capacity int, grows bool) (workload.Target, error) {
	switch container {
	case "pq":
		return newPQTarget(capacity, grows), nil
	case "handlemap":
		return newHandlemapTarget(capacity, grows)
	case "ordermap":
		return newOrdermapTarget(capacity, grows)
	default:
		return nil, fmt.Errorf("unknown container %q (want pq, handlemap, or ordermap)", container)
	}
}

func printResult(w io.Writer, container string, result workload.Result) {
	fmt.Fprintf(w, "container: %s\n", container)
	fmt.Fprintf(w, "workload:  %s\n", result.Name)
	fmt.Fprintf(w, "total ops: %d in %v\n\n", result.Total, result.Elapsed.Round(time.Microsecond))

	for _, stat := range result.PerOp {
		perOp := time.Duration(0)
		if stat.Count > 0 {
			perOp = stat.Elapsed / time.Duration(stat.Count)
		}

		fmt.Fprintf(w, "  %-18s %8d ops  %12v total  %10v/op\n", stat.Kind, stat.Count, stat.Elapsed.Round(time.Microsecond), perOp)
	}
}

// report is the YAML shape written to --report.
type report struct {
	Container string         `yaml:"container"`
	Workload  string         `yaml:"workload"`
	Total     int            `yaml:"total_ops"`
	Elapsed   string         `yaml:"elapsed"`
	PerOp     []reportOpStat `yaml:"per_op"`
}

type reportOpStat struct {
	Kind    string `yaml:"kind"`
	Count   int    `yaml:"count"`
	Elapsed string `yaml:"elapsed"`
}

func writeReport(path, container string, result workload.Result) error {
	rep := report{
		Container: container,
		Workload:  result.Name,
		Total:     result.Total,
		Elapsed:   result.Elapsed.String(),
	}

	for _, stat := range result.PerOp {
		rep.PerOp = append(rep.PerOp, reportOpStat{
			Kind:    string(stat.Kind),
			Count:   stat.Count,
			Elapsed: stat.Elapsed.String(),
		})
	}

	out, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	return atomic.WriteFile(path, bytes.NewReader(out))
}
