package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
)

// Printer writes CLI output. With Plain set it prints bare lines with
// ✓/✗ markers instead of boxes, which is what pipes and scripts want.
type Printer struct {
	out   io.Writer
	width int
	Plain bool
}

// NewPrinter creates a Printer that writes to w (os.Stdout if nil).
// Output is plain when stdout is not a terminal.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
		Plain: w != os.Stdout || !IsTerminal(),
	}
}

// Width returns the terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Printf writes formatted content
func (p *Printer) Printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// Header prints a command banner
func (p *Printer) Header(title, command string, params ...Param) {
	if p.Plain {
		return
	}
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// Success reports a completed operation
func (p *Printer) Success(title string, details ...Param) {
	if p.Plain {
		p.Printf("%s %s\n", SuccessMarker, title)
		for _, d := range details {
			p.Printf("  %s: %s\n", d.Key, d.Value)
		}
		return
	}
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// Warning reports something the user should look at
func (p *Printer) Warning(title string, details ...Param) {
	if p.Plain {
		p.Printf("%s %s\n", WarningMarker, title)
		for _, d := range details {
			p.Printf("  %s: %s\n", d.Key, d.Value)
		}
		return
	}
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// Failure reports a failed operation with an optional hint
func (p *Printer) Failure(title string, err error, troubleshooting []string) {
	if p.Plain {
		p.Printf("%s %s: %v\n", FailureMarker, title, err)
		for _, tip := range troubleshooting {
			p.Printf("  %s\n", tip)
		}
		return
	}
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// Table prints rows under a header
func (p *Printer) Table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(p.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	if p.Plain {
		table.SetBorder(false)
		table.SetColumnSeparator(" ")
		table.SetCenterSeparator(" ")
		table.SetRowSeparator("")
		table.SetHeaderLine(false)
	}
	table.AppendBulk(rows)
	table.Render()
}
