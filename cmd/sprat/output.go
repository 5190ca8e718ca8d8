package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	errorHeader = color.New(color.FgRed, color.Bold)
	caretColor  = color.New(color.FgRed)
	gutterColor = color.New(color.FgBlue)
	resultColor = color.New(color.FgCyan)
	noteColor   = color.New(color.FgGreen)
)

func printError(err error) {
	fmt.Fprint(os.Stderr, formatError(err))
}

// formatError colors a rendered diagnostic: the header line, the source
// gutters and the caret line.
func formatError(err error) string {
	lines := strings.Split(strings.TrimRight(err.Error(), "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		switch {
		case i == 0:
			b.WriteString(errorHeader.Sprint(line))
		case isCaretLine(line):
			bar := strings.Index(line, "|")
			b.WriteString(gutterColor.Sprint(line[:bar+1]))
			b.WriteString(caretColor.Sprint(line[bar+1:]))
		case strings.Contains(line, " | "):
			bar := strings.Index(line, " | ")
			b.WriteString(gutterColor.Sprint(line[:bar+2]))
			b.WriteString(line[bar+2:])
		default:
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func isCaretLine(line string) bool {
	gutter, rest, ok := strings.Cut(line, "|")
	return ok && strings.TrimSpace(gutter) == "" && strings.Contains(rest, "^") &&
		strings.Trim(rest, " ^") == ""
}

func printResult(w io.Writer, s string) {
	fmt.Fprintln(w, resultColor.Sprint(s))
}
