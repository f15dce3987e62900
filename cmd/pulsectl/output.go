package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// printer writes command results as text tables, JSON or YAML.
type printer struct {
	w      io.Writer
	format string
	color  bool
}

func newPrinter(w io.Writer, format string) *printer {
	p := &printer{w: w, format: format}
	if f, ok := w.(*os.File); ok {
		p.color = term.IsTerminal(int(f.Fd()))
	}
	return p
}

// print writes v in the selected format. text renders the text form; its
// writer aligns tab separated columns.
func (p *printer) print(v interface{}, text func(w io.Writer)) error {
	switch p.format {
	case "json":
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		node, err := yamlNode(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return err
		}
		return enc.Close()
	}
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

// yamlNode converts v to YAML through its JSON form. The protocol types use
// bare struct tags for protocol versions, which yaml.v3 would take as field
// names; going through JSON keeps the same keys in both formats.
func yamlNode(v interface{}) (*yaml.Node, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	blockStyle(&doc)
	return &doc, nil
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// success reports a completed change. Only the text format prints it.
func (p *printer) success(format string, args ...any) {
	if p.format != "text" {
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.paint("32", "✓"), fmt.Sprintf(format, args...))
}

func (p *printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// highlight marks the default device. It must end a table row, since the
// escape codes would throw off column alignment anywhere else.
func (p *printer) highlight(s string) string { return p.paint("33", s) }

// mark renders a flag column.
func mark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
