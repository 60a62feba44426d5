package mapfile

import "debug/elf"

// Row 是 map 中的一行，只有下面四种：
// SectionHeader / ChunkEntry / SymbolEntry / PaddingEntry
type Row interface {
	isRow()
}

type SectionHeader struct {
	Name     string
	Addr     uint64
	Size     uint64
	Align    uint64
	NonAlloc bool
}

// Origin 是 "a.o"、"libb.a(m.o)" 或者 linkerGenerated
type ChunkEntry struct {
	Addr    uint64
	Size    uint64
	Align   uint64
	Origin  string
	Name    string
	Section string
}

// Folded 表示这个名字来自一个 FoldGroup
type SymbolEntry struct {
	Addr   uint64
	Size   uint64
	Name   string
	Bind   elf.SymBind
	Folded bool
}

// Trailing 为 true 时是 section 末尾最后一个 chunk 之后的空洞
type PaddingEntry struct {
	Addr     uint64
	Size     uint64
	Trailing bool
}

func (SectionHeader) isRow() {}
func (ChunkEntry) isRow()    {}
func (SymbolEntry) isRow()   {}
func (PaddingEntry) isRow()  {}
