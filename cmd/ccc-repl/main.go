// ccc-repl is an interactive shell for poking at a live container
// instance through the Entry/Handle protocol.
//
// Usage:
//
//	ccc-repl --container=pq|handlemap|ordermap [--capacity=N] [--grows]
//
// Commands (pq session):
//
//	push <v>              Push a value
//	pop                    Pop the front value
//	front                  Show the front value without removing it
//
// Commands (handlemap / ordermap sessions):
//
//	put <k> <v>            insert_or_assign: insert or overwrite
//	try <k> <v>            try_insert: insert only if k is absent
//	get <k>                Look up k
//	entry <k>              Show the Entry protocol's view of k (Occupied/Vacant)
//	del <k>                Remove k
//
// Commands (ordermap session only, except that ascend on a handlemap
// lists its entries in slot order):
//
//	range <lo> <hi>        Ascending scan over [lo, hi)
//	rrange <hi> <lo>       Descending scan over (lo, hi]
//	ascend                 Full ascending scan
//	descend                Full descending scan
//
// Commands (all sessions):
//
//	len                    Count live entries
//	validate               Run the container's internal invariant check
//	clear                  Remove every entry
//	help                   Show this help
//	exit / quit / q        Exit
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "ccc-repl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		container string
		capacity  int
		grows     bool
	)

	fs := flag.NewFlagSet("ccc-repl", flag.ContinueOnError)
	fs.StringVar(&container, "container", "pq", "container to open: pq, handlemap, or ordermap")
	fs.IntVar(&capacity, "capacity", 16, "initial container capacity")
	fs.BoolVar(&grows, "grows", true, "allow the container to grow past its initial capacity")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: ccc-repl --container=pq|handlemap|ordermap [flags]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	sess, err := newSession(container, capacity, grows)
	if err != nil {
		return err
	}

	repl := &REPL{session: sess, container: container}

	return repl.Run()
}

// REPL is the interactive command loop, modeled on cmd/sloty's liner-based
// shell over a stateful store.
type REPL struct {
	session   session
	container string
	liner     *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".ccc-repl_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("ccc-repl - %s (type 'help' for commands)\n\n", r.container)

	for {
		line, err := r.liner.Prompt(r.container + "> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		fields := strings.Fields(line)
		cmd := strings.ToLower(fields[0])
		args := fields[1:]

		if cmd == "exit" || cmd == "quit" || cmd == "q" {
			fmt.Println("Bye!")
			r.saveHistory()

			return nil
		}

		r.dispatch(cmd, args)
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"push", "pop", "front",
		"put", "try", "get", "entry", "del",
		"range", "rrange", "ascend", "descend",
		"len", "validate", "clear", "help",
		"exit", "quit", "q",
	}

	lower := strings.ToLower(line)

	var completions []string

	for _, c := range commands {
		if strings.HasPrefix(c, lower) {
			completions = append(completions, c)
		}
	}

	return completions
}

func (r *REPL) dispatch(cmd string, args []string) {
	switch cmd {
	case "help", "?":
		r.printHelp()
	case "push":
		r.cmdPush(args)
	case "pop":
		r.cmdPop()
	case "front":
		r.cmdFront()
	case "put":
		r.cmdPut(args)
	case "try":
		r.cmdTry(args)
	case "get":
		r.cmdGet(args)
	case "entry":
		r.cmdEntry(args)
	case "del":
		r.cmdDel(args)
	case "range":
		r.cmdRange(args)
	case "rrange":
		r.cmdRRange(args)
	case "ascend":
		r.cmdAscend()
	case "descend":
		r.cmdDescend()
	case "len":
		fmt.Printf("Live entries: %d\n", r.session.Len())
	case "validate":
		r.cmdValidate()
	case "clear":
		r.session.Clear()
		fmt.Println("OK: cleared")
	default:
		fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
	}
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  push <v>               Push a value (pq only)")
	fmt.Println("  pop                    Pop the front value (pq only)")
	fmt.Println("  front                  Show the front value (pq; smallest key's value for ordermap)")
	fmt.Println("  put <k> <v>            insert_or_assign")
	fmt.Println("  try <k> <v>            try_insert")
	fmt.Println("  get <k>                Look up a key")
	fmt.Println("  entry <k>              Show the Entry protocol's view of a key")
	fmt.Println("  del <k>                Remove a key")
	fmt.Println("  range <lo> <hi>        Ascending scan over [lo, hi) (ordermap only)")
	fmt.Println("  rrange <hi> <lo>       Descending scan over (lo, hi] (ordermap only)")
	fmt.Println("  ascend / descend       Full ordered scan (ordermap only; ascend on handlemap lists slot order)")
	fmt.Println("  len                    Count live entries")
	fmt.Println("  validate               Check internal invariants")
	fmt.Println("  clear                  Remove every entry")
	fmt.Println("  help                   Show this help")
	fmt.Println("  exit / quit / q        Exit")
}

func parseInt64(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}

	return v, nil
}

func (r *REPL) cmdPush(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: push <v>")
		return
	}

	v, err := parseInt64(args[0])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	if err := r.session.Push(v); err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Printf("OK: pushed %d\n", v)
}

func (r *REPL) cmdPop() {
	v, ok, err := r.session.Pop()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	if !ok {
		fmt.Println("(empty)")
		return
	}

	fmt.Printf("%d\n", v)
}

func (r *REPL) cmdFront() {
	v, ok := r.session.Front()
	if !ok {
		fmt.Println("(empty)")
		return
	}

	fmt.Printf("%d\n", v)
}

func (r *REPL) cmdPut(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: put <k> <v>")
		return
	}

	k, err := parseInt64(args[0])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	v, err := parseInt64(args[1])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	if err := r.session.Put(k, v); err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Printf("OK: put %d=%d\n", k, v)
}

func (r *REPL) cmdTry(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: try <k> <v>")
		return
	}

	k, err := parseInt64(args[0])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	v, err := parseInt64(args[1])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	stored, err := r.session.TryInsert(k, v)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Printf("OK: %d=%d (entry now holds %d)\n", k, v, stored)
}

func (r *REPL) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: get <k>")
		return
	}

	k, err := parseInt64(args[0])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	v, ok := r.session.Get(k)
	if !ok {
		fmt.Println("(not found)")
		return
	}

	fmt.Printf("%d\n", v)
}

func (r *REPL) cmdEntry(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: entry <k>")
		return
	}

	k, err := parseInt64(args[0])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	status := r.session.Entry(k)
	fmt.Println(status)
}

func (r *REPL) cmdDel(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: del <k>")
		return
	}

	k, err := parseInt64(args[0])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	v, ok := r.session.Remove(k)
	if !ok {
		fmt.Printf("OK: %d did not exist\n", k)
		return
	}

	fmt.Printf("OK: removed %d=%d\n", k, v)
}

func (r *REPL) cmdRange(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: range <lo> <hi>")
		return
	}

	lo, err := parseInt64(args[0])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	hi, err := parseInt64(args[1])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	rows, err := r.session.Range(lo, hi)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	printRows(rows)
}

func (r *REPL) cmdRRange(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: rrange <hi> <lo>")
		return
	}

	hi, err := parseInt64(args[0])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	lo, err := parseInt64(args[1])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	rows, err := r.session.RRange(hi, lo)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	printRows(rows)
}

func (r *REPL) cmdAscend() {
	rows, err := r.session.Ascend()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	printRows(rows)
}

func (r *REPL) cmdDescend() {
	rows, err := r.session.Descend()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	printRows(rows)
}

func (r *REPL) cmdValidate() {
	if err := r.session.Validate(); err != nil {
		fmt.Println("INVALID:", err)
		return
	}

	fmt.Println("OK: valid")
}
