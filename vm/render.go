package vm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chazu/sprat/compiler"
)

const maxSnippetLines = 6

// renderDiagnostic formats msg with a numbered excerpt of source and carets
// under span:
//
//	main.spr:3:6: Unbound variable: foo
//	   2 | let x = 1.
//	   3 | x := foo + 1.
//	     |      ^^^
func renderDiagnostic(name, source string, span compiler.Span, msg string) string {
	var b strings.Builder
	if name == "" {
		name = "<input>"
	}
	fmt.Fprintf(&b, "%s:%d:%d: %s\n", name, span.Start.Line, span.Start.Column, msg)

	lines := strings.Split(source, "\n")
	start := span.Start.Line
	end := span.End.Line
	if end < start {
		end = start
	}
	if start < 1 || start > len(lines) {
		return strings.TrimRight(b.String(), "\n")
	}
	if end > len(lines) {
		end = len(lines)
	}
	if end-start >= maxSnippetLines {
		end = start + maxSnippetLines - 1
	}

	if start > 1 && strings.TrimSpace(lines[start-2]) != "" {
		fmt.Fprintf(&b, "%4d | %s\n", start-1, strings.TrimRight(lines[start-2], "\r"))
	}

	// Byte offset of the first line in the excerpt.
	lineStart := span.Start.Offset - columnBytes(lines[start-1], span.Start.Column)
	for n := start; n <= end; n++ {
		line := strings.TrimRight(lines[n-1], "\r")
		fmt.Fprintf(&b, "%4d | %s\n", n, line)

		from, to := 0, len(line)
		if n == span.Start.Line {
			from = clamp(span.Start.Offset-lineStart, 0, len(line))
		}
		if n == span.End.Line {
			to = clamp(span.End.Offset-lineStart, from, len(line))
		}
		if to <= from {
			to = from + 1
		}
		fmt.Fprintf(&b, "     | %s%s\n", padding(line, from), strings.Repeat("^", caretWidth(line, from, to)))
		lineStart += len(lines[n-1]) + 1
	}
	return strings.TrimRight(b.String(), "\n")
}

// columnBytes converts a 1-based rune column into a byte count into line.
func columnBytes(line string, column int) int {
	n := 0
	for i := 1; i < column && n < len(line); i++ {
		_, size := utf8.DecodeRuneInString(line[n:])
		n += size
	}
	return n
}

// padding reproduces the whitespace before byte offset upto so carets line
// up under tabs as well as spaces.
func padding(line string, upto int) string {
	var b strings.Builder
	for _, r := range line[:upto] {
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func caretWidth(line string, from, to int) int {
	if to > len(line) {
		return utf8.RuneCountInString(line[from:]) + 1
	}
	if w := utf8.RuneCountInString(line[from:to]); w > 0 {
		return w
	}
	return 1
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
