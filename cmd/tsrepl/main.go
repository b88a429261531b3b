// tsrepl is a simple CLI for interacting with a series.SortedSeries[int64,
// string] in memory, with an optional on-disk snapshot.
//
// Usage:
//
//	tsrepl                    Start empty
//	tsrepl <snapshot-file>    Load an existing snapshot, if present
//
// Commands (in REPL):
//
//	put <key> <value>        Insert or update an entry (add if new, set if existing)
//	addlast <key> <value>    Insert as the new strict maximum
//	addfirst <key> <value>   Insert as the new strict minimum
//	get <key>                Retrieve an entry by key
//	del <key>                Delete an entry by key
//	first                    Show the smallest entry
//	last                     Show the largest entry
//	seek <key> <dir>         tryFind(key, dir); dir is one of eq lt le gt ge
//	range <key> <dir>        Remove every key on the named side of key
//	scan [limit]             Walk the series with a cursor from the start
//	append <other-file> <policy>   Append another snapshot's entries; policy is
//	                         one of throw drop ignore require
//	seal                     Seal the series (no further mutation ever)
//	save <file>              Atomically snapshot to file
//	load <file>              Replace the in-memory series with a snapshot
//	info                     Show size/sealed status
//	help                     Show this help
//	exit / quit / q          Exit
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

	"github.com/go-tseries/tseries/series"
	"github.com/go-tseries/tseries/snapshot"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var snapPath string
	if len(os.Args) >= 2 {
		snapPath = os.Args[1]
	}

	s := series.New[int64, string](series.Int64Comparer{})

	if snapPath != "" {
		if _, err := os.Stat(snapPath); err == nil {
			loaded, err := snapshot.Load[int64, string](snapPath, series.Int64Comparer{}, series.RawInt64Codec{}, series.RawBytesCodec{})
			if err != nil {
				return fmt.Errorf("loading snapshot: %w", err)
			}

			s = loaded
		}
	}

	repl := &REPL{series: s, snapPath: snapPath}

	return repl.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	series   *series.SortedSeries[int64, string]
	snapPath string
	liner    *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".tsrepl_history")
}

func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Println("tsrepl - series CLI")
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("tsrepl> ")
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

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil
		case "help", "?":
			r.printHelp()
		case "put":
			r.cmdPut(args)
		case "addlast":
			r.cmdAddLast(args)
		case "addfirst":
			r.cmdAddFirst(args)
		case "get":
			r.cmdGet(args)
		case "del", "delete":
			r.cmdDelete(args)
		case "first":
			r.cmdFirst()
		case "last":
			r.cmdLast()
		case "seek":
			r.cmdSeek(args)
		case "range":
			r.cmdRange(args)
		case "scan":
			r.cmdScan(args)
		case "append":
			r.cmdAppend(args)
		case "seal":
			r.cmdSeal()
		case "save":
			r.cmdSave(args)
		case "load":
			r.cmdLoad(args)
		case "info":
			r.cmdInfo()
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
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
		"put", "addlast", "addfirst", "get", "del", "delete",
		"first", "last", "seek", "range", "scan", "append",
		"seal", "save", "load", "info", "help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  put <key> <value>            Insert or update an entry")
	fmt.Println("  addlast <key> <value>        Insert as the new strict maximum")
	fmt.Println("  addfirst <key> <value>       Insert as the new strict minimum")
	fmt.Println("  get <key>                    Retrieve an entry by key")
	fmt.Println("  del <key>                    Delete an entry by key")
	fmt.Println("  first                        Show the smallest entry")
	fmt.Println("  last                         Show the largest entry")
	fmt.Println("  seek <key> <dir>             tryFind(key, dir); dir: eq lt le gt ge")
	fmt.Println("  range <key> <dir>            Remove every key on the named side")
	fmt.Println("  scan [limit]                 Walk the series with a cursor")
	fmt.Println("  append <other-file> <policy> Append a snapshot; policy: throw drop ignore require")
	fmt.Println("  seal                         Seal the series")
	fmt.Println("  save <file>                  Atomically snapshot to file")
	fmt.Println("  load <file>                  Replace the in-memory series with a snapshot")
	fmt.Println("  info                         Show size/sealed status")
	fmt.Println("  help                         Show this help")
	fmt.Println("  exit / quit / q              Exit")
}

func parseDirection(s string) (series.Direction, bool) {
	switch strings.ToLower(s) {
	case "eq":
		return series.EQ, true
	case "lt":
		return series.LT, true
	case "le":
		return series.LE, true
	case "gt":
		return series.GT, true
	case "ge":
		return series.GE, true
	default:
		return 0, false
	}
}

func parseAppendPolicy(s string) (series.AppendPolicy, bool) {
	switch strings.ToLower(s) {
	case "throw":
		return series.ThrowOnOverlap, true
	case "drop":
		return series.DropOldOverlap, true
	case "ignore":
		return series.IgnoreEqualOverlap, true
	case "require":
		return series.RequireEqualOverlap, true
	default:
		return 0, false
	}
}

func (r *REPL) cmdPut(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: put <key> <value>")

		return
	}

	k, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing key: %v\n", err)

		return
	}

	inserted, err := r.series.Set(k, strings.Join(args[1:], " "))
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if inserted {
		fmt.Printf("OK: inserted %d\n", k)
	} else {
		fmt.Printf("OK: updated %d\n", k)
	}
}

func (r *REPL) cmdAddLast(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: addlast <key> <value>")

		return
	}

	k, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing key: %v\n", err)

		return
	}

	if err := r.series.AddLast(k, strings.Join(args[1:], " ")); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: appended %d\n", k)
}

func (r *REPL) cmdAddFirst(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: addfirst <key> <value>")

		return
	}

	k, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing key: %v\n", err)

		return
	}

	if err := r.series.AddFirst(k, strings.Join(args[1:], " ")); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: prepended %d\n", k)
}

func (r *REPL) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get <key>")

		return
	}

	k, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing key: %v\n", err)

		return
	}

	v, err := r.series.Get(k)
	if err != nil {
		fmt.Printf("(not found)\n")

		return
	}

	fmt.Printf("%d -> %q\n", k, v)
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: del <key>")

		return
	}

	k, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing key: %v\n", err)

		return
	}

	existed, err := r.series.Remove(k)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if existed {
		fmt.Printf("OK: deleted %d\n", k)
	} else {
		fmt.Printf("OK: %d did not exist\n", k)
	}
}

func (r *REPL) cmdFirst() {
	e, err := r.series.First()
	if err != nil {
		fmt.Println("(empty)")

		return
	}

	fmt.Printf("%d -> %q\n", e.Key, e.Value)
}

func (r *REPL) cmdLast() {
	e, err := r.series.Last()
	if err != nil {
		fmt.Println("(empty)")

		return
	}

	fmt.Printf("%d -> %q\n", e.Key, e.Value)
}

func (r *REPL) cmdSeek(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: seek <key> <dir>")

		return
	}

	k, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing key: %v\n", err)

		return
	}

	dir, ok := parseDirection(args[1])
	if !ok {
		fmt.Println("dir must be one of: eq lt le gt ge")

		return
	}

	e, found, pos := r.series.TryFind(k, dir)
	if !found {
		fmt.Printf("(not found, %s)\n", pos)

		return
	}

	fmt.Printf("%d -> %q\n", e.Key, e.Value)
}

func (r *REPL) cmdRange(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: range <key> <dir>")

		return
	}

	k, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing key: %v\n", err)

		return
	}

	dir, ok := parseDirection(args[1])
	if !ok {
		fmt.Println("dir must be one of: eq lt le gt ge")

		return
	}

	removed, err := r.series.RemoveRange(k, dir)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: removed=%v, size now %d\n", removed, r.series.Size())
}

func (r *REPL) cmdScan(args []string) {
	limit := 20

	if len(args) >= 1 {
		var err error

		limit, err = strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("Error parsing limit: %v\n", err)

			return
		}
	}

	cur := r.series.NewCursor()

	ok, err := cur.MoveFirst()
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if !ok {
		fmt.Println("(empty)")

		return
	}

	n := 0

	for {
		e, _ := cur.Current()
		fmt.Printf("%3d. %d -> %q\n", n+1, e.Key, e.Value)

		n++
		if n >= limit {
			fmt.Printf("... (showing first %d, use 'scan <limit>' for more)\n", limit)

			return
		}

		ok, err = cur.MoveNext()
		if err != nil {
			fmt.Printf("Error: %v\n", err)

			return
		}

		if !ok {
			return
		}
	}
}

func (r *REPL) cmdAppend(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: append <other-file> <policy>")

		return
	}

	policy, ok := parseAppendPolicy(args[1])
	if !ok {
		fmt.Println("policy must be one of: throw drop ignore require")

		return
	}

	other, err := snapshot.Load[int64, string](args[0], series.Int64Comparer{}, series.RawInt64Codec{}, series.RawBytesCodec{})
	if err != nil {
		fmt.Printf("Error loading %s: %v\n", args[0], err)

		return
	}

	n, err := r.series.Append(other, policy)
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: appended %d entries\n", n)
}

func (r *REPL) cmdSeal() {
	r.series.Complete()
	fmt.Println("OK: sealed")
}

func (r *REPL) cmdSave(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: save <file>")

		return
	}

	pool := series.NewBufferPool[byte]()

	if err := snapshot.Save[int64, string](args[0], r.series, series.RawInt64Codec{}, series.RawBytesCodec{}, pool); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Printf("OK: saved to %s\n", args[0])
}

func (r *REPL) cmdLoad(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: load <file>")

		return
	}

	loaded, err := snapshot.Load[int64, string](args[0], series.Int64Comparer{}, series.RawInt64Codec{}, series.RawBytesCodec{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	r.series = loaded
	fmt.Printf("OK: loaded from %s (%d entries)\n", args[0], loaded.Size())
}

func (r *REPL) cmdInfo() {
	fmt.Printf("Series Info:\n")
	fmt.Printf("  Size:    %d\n", r.series.Size())
	fmt.Printf("  Sealed:  %v\n", r.series.IsSealed())
}
