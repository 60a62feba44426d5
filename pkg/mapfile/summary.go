package mapfile

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/ksco/rvmap/pkg/linker"
)

const summaryPadding = "<padding>"

// 每个输入文件在最终输出中占了多少字节，用来排查体积膨胀
type Contribution struct {
	Origin  string
	Bytes   uint64
	Chunks  int
	Symbols int
}

// Summarize 和 map 走同一条遍历路径，所以结果和 map 文件一致
func Summarize(ctx *linker.Context) ([]Contribution, error) {
	byOrigin := make(map[string]*Contribution)
	get := func(origin string) *Contribution {
		c, ok := byOrigin[origin]
		if !ok {
			c = &Contribution{Origin: origin}
			byOrigin[origin] = c
		}
		return c
	}

	var last *Contribution
	rows := NewRowScanner(ctx)
	for rows.Next() {
		switch r := rows.Row().(type) {
		case SectionHeader:
			last = nil
		case ChunkEntry:
			last = get(r.Origin)
			last.Bytes += r.Size
			last.Chunks++
		case SymbolEntry:
			if last != nil {
				last.Symbols++
			}
		case PaddingEntry:
			get(summaryPadding).Bytes += r.Size
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := lo.Map(lo.Values(byOrigin), func(c *Contribution, _ int) Contribution {
		return *c
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Bytes != out[j].Bytes {
			return out[i].Bytes > out[j].Bytes
		}
		return out[i].Origin < out[j].Origin
	})
	return out, nil
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func WriteSummary(w io.Writer, contributions []Contribution) error {
	ew := &errWriter{w: w}
	table := tablewriter.NewWriter(ew)
	table.SetHeader([]string{"Input", "Size", "Bytes", "Chunks", "Symbols"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, c := range contributions {
		table.Append([]string{
			c.Origin,
			humanize.IBytes(c.Bytes),
			fmt.Sprintf("%d", c.Bytes),
			fmt.Sprintf("%d", c.Chunks),
			fmt.Sprintf("%d", c.Symbols),
		})
	}

	total := lo.SumBy(contributions, func(c Contribution) uint64 { return c.Bytes })
	table.SetFooter([]string{"Total", humanize.IBytes(total), fmt.Sprintf("%d", total), "", ""})
	table.Render()
	return ew.err
}
