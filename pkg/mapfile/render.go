package mapfile

import (
	"debug/elf"
	"fmt"
	"io"
	"strings"
)

// 列宽都是常量，和内容无关，保证输出稳定、可以 diff
const (
	addrWidth  = 16
	sizeWidth  = 16
	alignWidth = 8
	scopeWidth = 5
	indent     = 8
)

const (
	paddingLabel         = "<alignment padding>"
	trailingPaddingLabel = "<trailing padding>"
	nonAllocSuffix       = " (non-alloc)"
)

var header = fmt.Sprintf("%-*s %-*s %*s %-*s %-*s%-*s%s\n",
	addrWidth, "Address", sizeWidth, "Size", alignWidth, "Align",
	scopeWidth, "Scope", indent, "Out", indent, "In", "Symbol")

func scopeLabel(bind elf.SymBind, folded bool) string {
	var s string
	switch bind {
	case elf.STB_GLOBAL:
		s = "glob"
	case elf.STB_LOCAL:
		s = "loc"
	case elf.STB_WEAK:
		s = "weak"
	default:
		s = "othr"
	}
	if folded {
		s += "*"
	}
	return s
}

func line(addr, size uint64, align, scope string, level int, desc string) string {
	return fmt.Sprintf("%0*x %0*x %*s %-*s %s%s\n",
		addrWidth, addr, sizeWidth, size, alignWidth, align,
		scopeWidth, scope, strings.Repeat(" ", level*indent), desc)
}

func hexAlign(align uint64) string {
	return fmt.Sprintf("%x", align)
}

// FormatRow 把一行格式化成带换行符的文本，只做格式化，不重新计算任何值
func FormatRow(row Row) string {
	switch r := row.(type) {
	case SectionHeader:
		name := r.Name
		if r.NonAlloc {
			name += nonAllocSuffix
		}
		return line(r.Addr, r.Size, hexAlign(r.Align), "", 0, name)
	case ChunkEntry:
		return line(r.Addr, r.Size, hexAlign(r.Align), "", 1,
			fmt.Sprintf("%s:(%s)", r.Origin, r.Name))
	case SymbolEntry:
		return line(r.Addr, r.Size, "", scopeLabel(r.Bind, r.Folded), 2, r.Name)
	case PaddingEntry:
		label := paddingLabel
		if r.Trailing {
			label = trailingPaddingLabel
		}
		return line(r.Addr, r.Size, "", "", 1, label)
	}
	panic(fmt.Sprintf("mapfile: unknown row type %T", row))
}

// Renderer 把 RowScanner 产生的行写到 w，写失败时返回 *IOError
type Renderer struct {
	w     io.Writer
	dest  string
	rows  int
	bytes int64
}

func NewRenderer(w io.Writer, dest string) *Renderer {
	return &Renderer{w: w, dest: dest}
}

func (r *Renderer) Render(rows *RowScanner) error {
	if err := r.write(header); err != nil {
		return err
	}
	for rows.Next() {
		if err := r.write(FormatRow(rows.Row())); err != nil {
			return err
		}
		r.rows++
	}
	return rows.Err()
}

func (r *Renderer) write(s string) error {
	n, err := io.WriteString(r.w, s)
	r.bytes += int64(n)
	if err != nil {
		return &IOError{Dest: r.dest, Err: err}
	}
	return nil
}

func (r *Renderer) Rows() int {
	return r.rows
}

func (r *Renderer) Bytes() int64 {
	return r.bytes
}
