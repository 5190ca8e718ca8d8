package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/chazu/sprat/compiler"
	"github.com/chazu/sprat/vm"
)

const (
	historyFile = ".sprat_history"
	promptMain  = "sprat> "
	promptCont  = "  ...> "
	replSource  = "<repl>"
)

const helpText = `REPL Commands:
  :help             Show this help
  :load <file>      Evaluate a file at top level
  :classes          List the classes and interfaces in scope
  :quit, :exit      Exit REPL
Input continues on the next line until it parses as a whole program.
`

func runREPL(v *vm.VM) int {
	fmt.Println("Sprat REPL (type :help for commands, :quit to exit)")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			if done := handleREPLCommand(v, os.Stdout, code); done {
				break
			}
			continue
		}
		evalAndPrint(v, os.Stdout, replSource, code)
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// readByParseProbe reads lines until the buffer parses or fails for a
// reason other than running out of input.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if needsMoreInput(b.String()) {
			continue
		}
		return b.String(), true
	}
}

// needsMoreInput reports whether src is a prefix of a valid program.
func needsMoreInput(src string) bool {
	if strings.HasPrefix(strings.TrimSpace(src), ":") {
		return false
	}
	_, err := compiler.Parse(src)
	return err != nil && compiler.IsIncomplete(err)
}

func handleREPLCommand(v *vm.VM, w io.Writer, line string) (exit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":help", ":h", ":?":
		fmt.Fprint(w, helpText)
	case ":quit", ":exit", ":q":
		return true
	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(w, "usage: :load <file>")
			return false
		}
		data, err := os.ReadFile(fields[1])
		if err != nil {
			fmt.Fprintf(w, "cannot read %s: %v\n", fields[1], err)
			return false
		}
		evalAndPrint(v, w, fields[1], string(data))
	case ":classes":
		for _, c := range v.Classes() {
			kind := "class"
			if c.Interface {
				kind = "interface"
			}
			fmt.Fprintf(w, "%s %s\n", noteColor.Sprint(kind), c.Name)
		}
	default:
		fmt.Fprintf(w, "Unknown command: %s (type :help for commands)\n", fields[0])
	}
	return false
}

// evalAndPrint evaluates code at top level and prints its printString,
// or the diagnostic.
func evalAndPrint(v *vm.VM, w io.Writer, name, code string) {
	result, err := v.EvalNamed(name, code)
	if err != nil {
		fmt.Fprint(w, formatError(err))
		return
	}
	s, err := v.PrintString(result)
	if err != nil {
		fmt.Fprint(w, formatError(err))
		return
	}
	printResult(w, s)
}
