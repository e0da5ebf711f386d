// Command asp is the standalone driver for the Asp engine (spec.md §6
// "Standalone CLI"): it loads a compiled .aspe program, runs it to
// completion one Step at a time, and reports the outcome.
//
// Grounded on the teacher's cmd/funxy/main.go, which likewise parses
// os.Args by hand (subcommand/flag dispatch without the flag package)
// rather than declaring a flag.FlagSet, and on
// original_source/standalone/main.cpp for the option set and exit-code
// convention this command mirrors.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/aspembed/asp/internal/appspec"
	"github.com/aspembed/asp/internal/config"
	"github.com/aspembed/asp/internal/engine"
	"github.com/aspembed/asp/internal/heap"
	"github.com/aspembed/asp/internal/tracestore"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: asp [options] script[.aspe] [args...]")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -c n       code buffer size in bytes (0 = auto-size from file)")
	fmt.Fprintln(os.Stderr, "  -d n       data entry count (default 2048)")
	fmt.Fprintln(os.Stderr, "  -p n       code page size in bytes (0 = no paging)")
	fmt.Fprintln(os.Stderr, "  -v         verbose: report version and heap usage")
	fmt.Fprintln(os.Stderr, "  -h         show this help")
	fmt.Fprintln(os.Stderr, "  -t file    trace every Step to a SQLite trace database")
	fmt.Fprintln(os.Stderr, "  -T fd      trace to a temporary SQLite database (fd must be 1 or 2; nothing is written to it)")
	fmt.Fprintln(os.Stderr, "  -u file    dump postmortem heap state to a SQLite database on error")
	fmt.Fprintln(os.Stderr, "  -U fd      dump to a temporary SQLite database; print the dump summary to fd 1 or 2")
}

type options struct {
	codeByteCount     int
	dataEntryCount    int
	codePageByteCount int
	verbose           bool
	traceFile         string
	traceFD           int
	dumpFile          string
	dumpFD            int
}

func parseArgs(args []string) (opts options, scriptPath string, scriptArgs []string, exitCode int, done bool) {
	opts.dataEntryCount = config.DefaultDataEntryCount
	i := 0
	for ; i < len(args); i++ {
		arg := args[i]
		if len(arg) == 0 || arg[0] != '-' || arg == "-" {
			break
		}
		option := arg[1:]
		next := func() (string, bool) {
			i++
			if i >= len(args) {
				return "", false
			}
			return args[i], true
		}
		switch option {
		case "h", "?":
			usage()
			return opts, "", nil, 0, true
		case "c":
			v, ok := next()
			if !ok {
				fmt.Fprintln(os.Stderr, "asp: -c requires a value")
				return opts, "", nil, 1, true
			}
			opts.codeByteCount, _ = strconv.Atoi(v)
		case "d":
			v, ok := next()
			if !ok {
				fmt.Fprintln(os.Stderr, "asp: -d requires a value")
				return opts, "", nil, 1, true
			}
			opts.dataEntryCount, _ = strconv.Atoi(v)
		case "p":
			v, ok := next()
			if !ok {
				fmt.Fprintln(os.Stderr, "asp: -p requires a value")
				return opts, "", nil, 1, true
			}
			opts.codePageByteCount, _ = strconv.Atoi(v)
		case "v":
			opts.verbose = true
		case "t":
			v, ok := next()
			if !ok {
				fmt.Fprintln(os.Stderr, "asp: -t requires a file name")
				return opts, "", nil, 1, true
			}
			opts.traceFile = v
		case "T":
			v, ok := next()
			if !ok {
				fmt.Fprintln(os.Stderr, "asp: -T requires a file descriptor")
				return opts, "", nil, 1, true
			}
			fd, err := strconv.Atoi(v)
			if err != nil || (fd != 1 && fd != 2) {
				fmt.Fprintf(os.Stderr, "asp: invalid trace file descriptor %s\n", v)
				return opts, "", nil, 1, true
			}
			opts.traceFD = fd
		case "u":
			v, ok := next()
			if !ok {
				fmt.Fprintln(os.Stderr, "asp: -u requires a file name")
				return opts, "", nil, 1, true
			}
			opts.dumpFile = v
		case "U":
			v, ok := next()
			if !ok {
				fmt.Fprintln(os.Stderr, "asp: -U requires a file descriptor")
				return opts, "", nil, 1, true
			}
			fd, err := strconv.Atoi(v)
			if err != nil || (fd != 1 && fd != 2) {
				fmt.Fprintf(os.Stderr, "asp: invalid dump file descriptor %s\n", v)
				return opts, "", nil, 1, true
			}
			opts.dumpFD = fd
		default:
			fmt.Fprintf(os.Stderr, "asp: invalid option: %s\n", arg)
			usage()
			return opts, "", nil, 1, true
		}
	}

	if i >= len(args) {
		if opts.verbose {
			return opts, "", nil, 0, true
		}
		fmt.Fprintln(os.Stderr, "asp: no program specified")
		usage()
		return opts, "", nil, 1, true
	}
	return opts, args[i], args[i+1:], 0, false
}

func openExecutable(path string) (*os.File, string, error) {
	if f, err := os.Open(path); err == nil {
		return f, path, nil
	}
	withSuffix := path + ".aspe"
	f, err := os.Open(withSuffix)
	if err != nil {
		return nil, "", err
	}
	return f, withSuffix, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, scriptPath, scriptArgs, exitCode, done := parseArgs(args)
	if done {
		return exitCode
	}

	if opts.verbose {
		v := engine.EngineVersion()
		fmt.Printf("asp engine version %d.%d.%d.%d\n", v.Major, v.Minor, v.Patch, v.Tweak)
	}

	file, resolvedPath, err := openExecutable(scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "asp: error opening %s: %v\n", scriptPath, err)
		return 1
	}
	defer file.Close()

	cfg := engine.DefaultConfig()
	cfg.Heap.Capacity = opts.dataEntryCount

	spec := &appspec.Spec{Version: appspec.CurrentVersion}
	e := engine.New(cfg)
	e.LoadAppSpec(spec)

	var trace *tracestore.Store
	var sessionID string
	if opts.traceFile != "" || opts.traceFD != 0 {
		dbPath := opts.traceFile
		if dbPath == "" {
			dbPath = tempTraceDBPath()
		}
		trace, err = tracestore.Open(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "asp: error opening trace database: %v\n", err)
			return 1
		}
		defer trace.Close()
		sessionID, err = trace.NewSession(resolvedPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "asp: error starting trace session: %v\n", err)
			return 1
		}
		e.SetTraceID(sessionID)
	}

	loadErr := loadCode(e, file, opts)
	if loadErr != nil {
		reportError("asp: load error: %s", loadErr)
		return 2
	}

	if err := e.SetArguments(append([]string{resolvedPath}, scriptArgs...)); err != nil {
		fmt.Fprintf(os.Stderr, "asp: error setting arguments: %s\n", err)
		return 2
	}

	if err := e.Run(0); err != nil {
		reportError("asp: run error: %s", err)
		return 2
	}

	seq := 0
	for e.IsRunnable() {
		state, stepErr := e.Step()
		if trace != nil {
			errKind := ""
			if stepErr != nil {
				errKind = stepErr.Error()
			}
			trace.RecordStep(sessionID, seq, e.ProgramCounter(), state.String(), errKind)
		}
		seq++
		if stepErr != nil {
			reportError("asp: %s", stepErr)
			dumpOnError(e, opts, trace, sessionID)
			return 2
		}
	}

	if e.State() == engine.StateError {
		reportError("asp: %s", e.Err())
		dumpOnError(e, opts, trace, sessionID)
		return 2
	}

	if opts.verbose {
		reportHeapUsage(e)
	}
	return 0
}

func loadCode(e *engine.Engine, file *os.File, opts options) error {
	if opts.codePageByteCount > 0 {
		info, err := file.Stat()
		if err != nil {
			return err
		}
		pageSize := opts.codePageByteCount
		pageCount := int((info.Size() + int64(pageSize) - 1) / int64(pageSize))
		reader := func(id int32, _ int, size int, buf []byte) error {
			off := int64(id) * int64(pageSize)
			n, err := file.ReadAt(buf[:size], off)
			for i := n; i < size; i++ {
				buf[i] = 0
			}
			if err != nil && n == 0 {
				return err
			}
			return nil
		}
		return e.LoadPaged(pageCount, pageSize, reader)
	}

	data, err := readAll(file, opts.codeByteCount)
	if err != nil {
		return err
	}
	return e.LoadBuffer(data)
}

func readAll(file *os.File, hint int) ([]byte, error) {
	if hint > 0 {
		buf := make([]byte, hint)
		n, err := file.Read(buf)
		if err != nil && n == 0 {
			return nil, err
		}
		return buf[:n], nil
	}
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, info.Size())
	_, err = file.Read(buf)
	return buf, err
}

func dumpOnError(e *engine.Engine, opts options, trace *tracestore.Store, sessionID string) {
	if opts.dumpFile == "" && opts.dumpFD == 0 {
		return
	}
	dbPath := opts.dumpFile
	if dbPath == "" {
		dbPath = tempTraceDBPath()
	}
	store := trace
	id := sessionID
	if store == nil || dbPath != "" && opts.traceFile != dbPath {
		var err error
		store, err = tracestore.Open(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "asp: error opening dump database: %v\n", err)
			return
		}
		defer store.Close()
		id, err = store.NewSession("postmortem")
		if err != nil {
			fmt.Fprintf(os.Stderr, "asp: error starting dump session: %v\n", err)
			return
		}
	}

	s := e.Store()
	entries := make([]tracestore.EntrySnapshot, 0, s.Heap.Capacity())
	for idx := heap.Index(1); int(idx) < s.Heap.Capacity(); idx++ {
		if s.Heap.IsFree(idx) {
			continue
		}
		repr, _ := s.Repr(idx)
		entry := s.Heap.At(idx)
		entries = append(entries, tracestore.EntrySnapshot{
			Index:    int32(idx),
			Tag:      strconv.Itoa(int(entry.Tag)),
			UseCount: s.Heap.UseCount(idx),
			Repr:     repr,
		})
	}
	if err := store.DumpHeap(id, entries); err != nil {
		fmt.Fprintf(os.Stderr, "asp: error dumping heap: %v\n", err)
		return
	}
	summary, err := store.Report(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "asp: error summarizing dump: %v\n", err)
		return
	}

	out := os.Stdout
	if opts.dumpFD == 2 {
		out = os.Stderr
	}
	fmt.Fprintf(out, "postmortem: %d steps, last pc %#x, last state %s, %d live entries\n",
		summary.StepCount, summary.LastPC, summary.LastState, summary.EntryCount)
}

func reportHeapUsage(e *engine.Engine) {
	s := e.Store()
	used := s.Heap.Capacity() - s.Heap.FreeCount()
	bytesUsed := uint64(used) * uint64(engine.DataEntrySize())
	bytesTotal := uint64(s.Heap.Capacity()) * uint64(engine.DataEntrySize())
	fmt.Printf("data heap: %s of %s used (low water mark %d entries)\n",
		humanize.Bytes(bytesUsed), humanize.Bytes(bytesTotal), s.Heap.LowWaterMark())
}

func tempTraceDBPath() string {
	f, err := os.CreateTemp("", "asp-trace-*.sqlite")
	if err != nil {
		return "asp-trace.sqlite"
	}
	path := f.Name()
	f.Close()
	return path
}

// supportsANSI reports whether out is a real terminal capable of
// rendering ANSI highlighting.
func supportsANSI(out *os.File) bool {
	return isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())
}

// reportError prints an engine/load error to stderr, highlighted red
// when stderr is an interactive terminal.
func reportError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if supportsANSI(os.Stderr) {
		fmt.Fprintf(os.Stderr, "\x1b[31m%s\x1b[0m\n", msg)
		return
	}
	fmt.Fprintln(os.Stderr, msg)
}
