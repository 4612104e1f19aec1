package transcript

import (
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/movekit/transcheck/internal/runerr"
)

// Compare diffs the rendered transcript against the golden file at
// path. With update set, the golden file is rewritten instead — an
// explicit opt-in, never automatic.
func Compare(actual, path string, update bool) error {
	if update {
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			return fmt.Errorf("update golden file: %w", err)
		}
		return nil
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return runerr.New(runerr.CodeExpectedOutputMismatch,
				"golden file %s does not exist; rerun with update to create it", path)
		}
		return fmt.Errorf("read golden file: %w", err)
	}

	if string(expected) == actual {
		return nil
	}
	return runerr.New(runerr.CodeExpectedOutputMismatch,
		"transcript does not match %s\n%s", path, Diff(string(expected), actual))
}

// Diff renders a line-oriented diff between expected and actual,
// expected lines prefixed `-`, actual lines prefixed `+`.
func Diff(expected, actual string) string {
	dmp := diffmatchpatch.New()
	chars1, chars2, lines := dmp.DiffLinesToChars(expected, actual)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lines)

	var b strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
