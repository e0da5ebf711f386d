// Command aspgen compiles a declaration source file into a binary
// appspec (spec.md §4.J) plus a C header of symbol macros a host
// application includes to reference its own variables and functions
// by id.
//
// Grounded on original_source/appspec/generator-output.cpp's
// Generator::WriteCompilerSpec/WriteApplicationHeader (symbol
// assignment order and header macro naming), paired with a small
// hand-written front end (internal/aspsource) standing in for the
// original's full declaration parser, whose grammar/source files were
// not present in the retrieved reference material — see DESIGN.md.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aspembed/asp/internal/appspec"
	"github.com/aspembed/asp/internal/aspsource"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: aspgen [-o outbase] source.asps")
	fmt.Fprintln(os.Stderr, "  -o outbase   output base path (default: input file without extension)")
	fmt.Fprintln(os.Stderr, "writes outbase.aspd (binary appspec) and outbase.h (C header)")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var outBase, sourcePath string
	i := 0
	for ; i < len(args); i++ {
		arg := args[i]
		if arg == "-o" {
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "aspgen: -o requires an argument")
				return 1
			}
			outBase = args[i]
			continue
		}
		if len(arg) == 0 || arg[0] != '-' || arg == "-" {
			break
		}
		usage()
		return 1
	}
	if i >= len(args) {
		usage()
		return 1
	}
	sourcePath = args[i]

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aspgen: reading %s: %v\n", sourcePath, err)
		return 2
	}

	result, err := aspsource.Parse(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "aspgen: %v\n", err)
		return 2
	}

	if outBase == "" {
		outBase = strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	}

	spec := &appspec.Spec{Entries: result.Entries}
	encoded, err := appspec.Encode(spec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aspgen: encoding specification: %v\n", err)
		return 2
	}

	specPath := outBase + ".aspd"
	if err := os.WriteFile(specPath, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "aspgen: writing %s: %v\n", specPath, err)
		return 2
	}

	headerPath := outBase + ".h"
	header := writeHeader(result.BaseName, result.Entries)
	if err := os.WriteFile(headerPath, []byte(header), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "aspgen: writing %s: %v\n", headerPath, err)
		return 2
	}

	return 0
}

// writeHeader renders a C header of ASP_APP_<base>_SYM_<name> macros
// and function prototypes, in the order
// Generator::WriteApplicationHeader writes them: every symbol macro
// first (variables and functions, then parameter names, each written
// once, in assigned-symbol order), followed by one prototype per
// function entry.
func writeHeader(baseName string, entries []appspec.Entry) string {
	var sb strings.Builder
	upper := strings.ToUpper(baseName)

	fmt.Fprintf(&sb, "/*** AUTO-GENERATED; DO NOT EDIT ***/\n\n")
	fmt.Fprintf(&sb, "#ifndef ASP_APP_%s_DEF_H\n", upper)
	fmt.Fprintf(&sb, "#define ASP_APP_%s_DEF_H\n\n", upper)
	fmt.Fprintf(&sb, "#include <asp.h>\n\n")
	fmt.Fprintf(&sb, "#ifdef __cplusplus\n")
	fmt.Fprintf(&sb, "extern \"C\" {\n")
	fmt.Fprintf(&sb, "#endif\n\n")
	fmt.Fprintf(&sb, "extern AspAppSpec AspAppSpec_%s;\n\n", baseName)

	seen := make(map[string]bool)
	writeSymbol := func(name string, id int32) {
		if seen[name] {
			return
		}
		seen[name] = true
		fmt.Fprintf(&sb, "#define ASP_APP_%s_SYM_%s %d\n", upper, name, id)
	}
	for _, e := range entries {
		writeSymbol(e.Name, e.SymbolID)
	}
	for _, e := range entries {
		if e.Kind != appspec.EntryFunction {
			continue
		}
		for _, p := range e.Parameters {
			writeSymbol(p.Name, p.SymbolID)
		}
	}
	sb.WriteString("\n")

	for _, e := range entries {
		if e.Kind != appspec.EntryFunction {
			continue
		}
		fmt.Fprintf(&sb, "AspRunResult asp_%s_%s(AspEngine *engine);\n", baseName, e.Name)
	}

	sb.WriteString("\n#ifdef __cplusplus\n}\n#endif\n\n#endif\n")
	return sb.String()
}
