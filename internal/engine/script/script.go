// Package script drives a symtab.Table from a small line-oriented command
// language. It backs the -script flag and the interactive shell.
//
//	open                 push a scope
//	close                pop the innermost scope
//	decl <name> <type>   declare name in the innermost scope
//	local <name>         look name up in the innermost scope
//	global <name>        look name up through every scope
//	print                dump the table
//	depth                number of open scopes
//	reset                start over with a fresh table
//
// Blank lines and lines starting with '#' are ignored.
package script

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"scopecheck/internal/core/errors"
	"scopecheck/internal/engine/symtab"
)

type Interpreter struct {
	table    *symtab.Table
	observer symtab.Observer
}

// New returns an interpreter over a fresh table. observer may be nil.
func New(observer symtab.Observer) *Interpreter {
	in := &Interpreter{observer: observer}
	in.reset()
	return in
}

func (in *Interpreter) Table() *symtab.Table {
	return in.table
}

func (in *Interpreter) reset() {
	in.table = symtab.New()
	if in.observer != nil {
		in.table.Observe(in.observer)
		in.observer.ScopeOpened(in.table.Depth())
	}
}

var aliases = map[string]string{
	"addscope":     "open",
	"removescope":  "close",
	"adddecl":      "decl",
	"declare":      "decl",
	"lookuplocal":  "local",
	"lookupglobal": "global",
	"dump":         "print",
}

// Exec runs a single command line and returns its output. Table failures
// come back as the table's coded errors.
func (in *Interpreter) Exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil
	}

	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	if canonical, ok := aliases[cmd]; ok {
		cmd = canonical
	}
	args := fields[1:]

	switch cmd {
	case "open":
		if err := arity(cmd, args, 0); err != nil {
			return "", err
		}
		in.table.OpenScope()
		return "", nil
	case "close":
		if err := arity(cmd, args, 0); err != nil {
			return "", err
		}
		return "", in.table.CloseScope()
	case "decl":
		if len(args) < 2 {
			return "", usage("decl <name> <type>")
		}
		sym := symtab.NewSymbol(strings.Join(args[1:], " "))
		sym.Kind = symtab.KindVar
		return "", in.table.Declare(args[0], sym)
	case "local", "global":
		if err := arity(cmd, args, 1); err != nil {
			return "", err
		}
		return in.lookup(cmd, args[0])
	case "print":
		return in.table.String(), nil
	case "depth":
		return fmt.Sprintf("%d\n", in.table.Depth()), nil
	case "reset":
		in.reset()
		return "", nil
	case "help":
		return helpText, nil
	default:
		return "", errors.AddContext(
			errors.New(errors.CodeValidationError, fmt.Sprintf("unknown command %q", fields[0])),
			errors.CtxOperation, "exec")
	}
}

func (in *Interpreter) lookup(mode, name string) (string, error) {
	if mode == "local" {
		sym, ok, err := in.table.LookupLocal(name)
		if err != nil {
			return "", err
		}
		if !ok {
			return fmt.Sprintf("%s: not found\n", name), nil
		}
		return fmt.Sprintf("%s: %s\n", name, sym), nil
	}

	b, ok, err := in.table.Resolve(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("%s: not found\n", name), nil
	}
	return fmt.Sprintf("%s: %s (scope %d)\n", name, b.Symbol, b.Scope), nil
}

// Run executes every line of r, writing command output to w. A failing
// line is reported to w and execution continues; the number of failed
// lines is returned. The error is non-nil only when r or w fails.
func (in *Interpreter) Run(r io.Reader, w io.Writer) (int, error) {
	scanner := bufio.NewScanner(r)
	failures := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		out, err := in.Exec(scanner.Text())
		if err != nil {
			failures++
			slog.Debug("script line failed", "line", lineNo, "error", err)
			if _, werr := fmt.Fprintf(w, "line %d: %v\n", lineNo, err); werr != nil {
				return failures, werr
			}
			continue
		}
		if out == "" {
			continue
		}
		if _, werr := io.WriteString(w, out); werr != nil {
			return failures, werr
		}
	}
	if err := scanner.Err(); err != nil {
		return failures, fmt.Errorf("read script: %w", err)
	}
	return failures, nil
}

func arity(cmd string, args []string, n int) error {
	if len(args) == n {
		return nil
	}
	switch n {
	case 0:
		return usage(cmd)
	default:
		return usage(cmd + " <name>")
	}
}

func usage(form string) error {
	return errors.New(errors.CodeValidationError, "usage: "+form)
}

const helpText = `commands:
  open                 push a scope
  close                pop the innermost scope
  decl <name> <type>   declare name in the innermost scope
  local <name>         look name up in the innermost scope
  global <name>        look name up through every scope
  print                dump the table
  depth                number of open scopes
  reset                start over with a fresh table
`
