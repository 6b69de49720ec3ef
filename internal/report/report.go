// Package report formats CLI output: markup diffs between two renders and
// short status lines.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	added   = color.New(color.FgGreen)
	removed = color.New(color.FgRed)
	muted   = color.New(color.Faint)
	okMark  = color.New(color.FgGreen, color.Bold).SprintFunc()
	errMark = color.New(color.FgRed, color.Bold).SprintFunc()
)

// Change is one line-level edit between two renders.
type Change struct {
	Op   diffmatchpatch.Operation
	Text string
}

// Diff compares two renders line by line.
func Diff(before, after string) []Change {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	out := make([]Change, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, Change{Op: d.Type, Text: d.Text})
	}
	return out
}

// Changed reports whether any change is an insert or delete.
func Changed(changes []Change) bool {
	for _, c := range changes {
		if c.Op != diffmatchpatch.DiffEqual {
			return true
		}
	}
	return false
}

// WriteDiff prints changes in unified style. Unchanged runs longer than
// context lines are elided.
func WriteDiff(w io.Writer, changes []Change, context int) error {
	for _, c := range changes {
		lines := splitLines(c.Text)
		switch c.Op {
		case diffmatchpatch.DiffInsert:
			for _, line := range lines {
				if _, err := added.Fprintln(w, "+ "+line); err != nil {
					return err
				}
			}
		case diffmatchpatch.DiffDelete:
			for _, line := range lines {
				if _, err := removed.Fprintln(w, "- "+line); err != nil {
					return err
				}
			}
		default:
			if context >= 0 && len(lines) > 2*context+1 {
				head, tail := lines[:context], lines[len(lines)-context:]
				for _, line := range head {
					if _, err := fmt.Fprintln(w, "  "+line); err != nil {
						return err
					}
				}
				if _, err := muted.Fprintf(w, "  ... %d unchanged lines\n", len(lines)-2*context); err != nil {
					return err
				}
				lines = tail
			}
			for _, line := range lines {
				if _, err := fmt.Fprintln(w, "  "+line); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// OK prints a success line.
func OK(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", okMark("ok"), fmt.Sprintf(format, args...))
}

// Fail prints a failure line.
func Fail(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", errMark("error"), fmt.Sprintf(format, args...))
}

// DisableColor turns colour off, for pipes and tests.
func DisableColor() {
	color.NoColor = true
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
