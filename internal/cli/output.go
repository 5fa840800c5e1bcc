package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"
	"sigs.k8s.io/yaml"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validFormat(format string) error {
	switch strings.ToLower(format) {
	case formatTable, "", formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// writeOutput prints data for the machine formats. It reports false for
// table output, which the caller renders.
func writeOutput(w io.Writer, format string, data interface{}) (bool, error) {
	switch strings.ToLower(format) {
	case formatJSON:
		return true, printJSON(w, data)
	case formatYAML:
		return true, printYAML(w, data)
	case formatTable, "":
		return false, nil
	default:
		return false, fmt.Errorf("unsupported output format %q", format)
	}
}

func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printYAML(w io.Writer, data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func flushTable(tw *tabwriter.Writer) {
	_ = tw.Flush()
}

func humanDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	units := []struct {
		Dur  time.Duration
		Name string
	}{
		{24 * time.Hour, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
	}
	var parts []string
	remainder := d
	for _, unit := range units {
		if remainder >= unit.Dur {
			value := remainder / unit.Dur
			remainder -= value * unit.Dur
			parts = append(parts, fmt.Sprintf("%d%s", value, unit.Name))
			if len(parts) == 2 {
				break
			}
		}
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	diff := time.Since(t)
	suffix := "ago"
	if diff < 0 {
		diff = -diff
		suffix = "from now"
	}
	return fmt.Sprintf("%s %s", humanDuration(diff), suffix)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// lineReader wraps the command input once so successive prompts do not lose
// buffered bytes.
type lineReader struct {
	src io.Reader
	r   *bufio.Reader
}

func newLineReader(src io.Reader) *lineReader {
	return &lineReader{src: src, r: bufio.NewReader(src)}
}

func (l *lineReader) prompt(out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	input, err := l.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// password reads a secret without echo when the input is a terminal, and a
// plain line otherwise.
func (l *lineReader) password(out io.Writer, label string) (string, error) {
	if f, ok := l.src.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, label)
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}
	return l.prompt(io.Discard, label)
}

func (l *lineReader) confirm(out io.Writer, label string) (bool, error) {
	input, err := l.prompt(out, label)
	if err != nil {
		return false, err
	}
	input = strings.ToLower(input)
	return input == "y" || input == "yes", nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
