// Package console provides the interactive prompts of a backup run over a
// line-based reader and writer.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arthur-debert/winbackup/pkg/ui/styles"
	"github.com/pterm/pterm"
)

// Console reads answers from in and writes prompts to out. It satisfies
// selection.Decider and the session's chooser and pauser interfaces.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	styled bool
}

// New creates a console. With styled false no escape sequences are written.
func New(in io.Reader, out io.Writer, styled bool) *Console {
	return &Console{
		in:     bufio.NewReader(in),
		out:    out,
		styled: styled,
	}
}

// Confirm asks a y/N question. Only "y" or "yes" affirm; end of input is
// returned as an error with a false answer.
func (c *Console) Confirm(question string) (bool, error) {
	c.printf("%s ", c.style("Prompt", question+" [y/N]:"))
	answer, err := c.readLine()
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// Decide shows the preview of an optional directory and asks whether to
// back it up.
func (c *Console) Decide(name, preview string) (bool, error) {
	c.printf("\n%s %s\n", c.style("Header", "Directory:"), c.style("Path", name))
	if preview != "" {
		for _, line := range strings.Split(preview, "\n") {
			c.printf("%s\n", c.style("Preview", line))
		}
	}
	return c.Confirm(fmt.Sprintf("Back up '%s'?", name))
}

// ChooseProfiles lists the profiles and reads the selection
func (c *Console) ChooseProfiles(available []string) ([]string, error) {
	c.Section("Available user profiles")
	for i, name := range available {
		c.printf("  %d. %s\n", i+1, c.style("Profile", name))
	}
	c.printf("\n%s ", c.style("Prompt", "Enter profile numbers to back up (space-separated) or 'all':"))
	answer, err := c.readLine()
	if err != nil {
		return nil, err
	}
	return ParseProfileSelection(answer, available), nil
}

// ChooseBaseDir asks for the base directory; an empty answer keeps the
// default.
func (c *Console) ChooseBaseDir(defaultDir string) (string, error) {
	c.printf("\n%s ", c.style("Prompt", fmt.Sprintf("Enter backup base directory [%s]:", defaultDir)))
	answer, err := c.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return defaultDir, nil
	}
	return answer, nil
}

// Pause prints message and waits for Enter. End of input does not block.
func (c *Console) Pause(message string) {
	prompt := "Press Enter to continue..."
	if message != "" {
		prompt = message + " " + prompt
	}
	c.printf("\n%s", prompt)
	_, _ = c.readLine()
}

// Section prints a section header
func (c *Console) Section(title string) {
	if c.styled {
		c.printf("%s", pterm.DefaultSection.Sprintln(title))
		return
	}
	c.printf("\n%s\n", title)
}

// Error prints a styled error line
func (c *Console) Error(message string) {
	c.printf("%s\n", c.style("Error", message))
}

// Println writes a plain line
func (c *Console) Println(message string) {
	c.printf("%s\n", message)
}

// ParseProfileSelection turns "all" or space-separated 1-based indices into
// profile names. Invalid or out-of-range tokens are ignored and repeated
// indices count once; the input order is kept.
func ParseProfileSelection(input string, available []string) []string {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "all") {
		return append([]string(nil), available...)
	}

	seen := make(map[int]bool)
	var selected []string
	for _, token := range strings.Fields(input) {
		n, err := strconv.Atoi(token)
		if err != nil || n < 1 || n > len(available) || seen[n] {
			continue
		}
		seen[n] = true
		selected = append(selected, available[n-1])
	}
	return selected
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) style(name, s string) string {
	if !c.styled {
		return s
	}
	return styles.Render(name, s)
}

func (c *Console) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
