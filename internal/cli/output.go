package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// printer escreve o resultado em texto (tabelas) ou JSON
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(opts *RootOptions, w io.Writer) printer {
	return printer{format: opts.Format, w: w}
}

func (p printer) json() bool { return p.format == "json" }

func (p printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) Table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(p.w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.AppendBulk(rows)
	table.Render()
}

// KV imprime pares chave/valor em duas colunas
func (p printer) KV(rows [][]string) {
	table := tablewriter.NewWriter(p.w)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

func stamp(t time.Time) string { return t.Local().Format("2006-01-02 15:04") }
