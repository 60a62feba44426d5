package mapfile

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ksco/rvmap/pkg/linker"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	allocExec  = elf.SHF_ALLOC | elf.SHF_EXECINSTR
	allocWrite = elf.SHF_ALLOC | elf.SHF_WRITE
)

func newSection(ctx *linker.Context, name string, flags elf.SectionFlag, addr, size uint64) *linker.OutputSection {
	osec := linker.AddOutputSection(ctx, name, uint32(elf.SHT_PROGBITS), uint64(flags))
	osec.Shdr.Addr = addr
	osec.Shdr.Size = size
	osec.Shdr.AddrAlign = 16
	return osec
}

func addChunk(osec *linker.OutputSection, name string, file linker.FileID, offset, size uint64) *linker.InputSection {
	isec := linker.NewInputSection(name, file, size, 1)
	isec.Offset = offset
	osec.AddMember(isec)
	return isec
}

func addSymbol(t *testing.T, ctx *linker.Context, name string, bind elf.SymBind, isec *linker.InputSection, addr, size uint64) *linker.Symbol {
	sym := linker.NewSymbol(name)
	sym.Bind = bind
	sym.Value = addr
	sym.Size = size
	sym.SetInputSection(isec)
	require.True(t, linker.AddSymbol(ctx, sym))
	return sym
}

func collectRows(t *testing.T, ctx *linker.Context) []Row {
	t.Helper()
	var rows []Row
	s := NewRowScanner(ctx)
	for s.Next() {
		rows = append(rows, s.Row())
	}
	require.NoError(t, s.Err())
	return rows
}

func scanErr(ctx *linker.Context) error {
	s := NewRowScanner(ctx)
	for s.Next() {
	}
	return s.Err()
}

// 生成 map 文件测试里用的 layout：
// .text 有两个 chunk 和尾部 padding，第二个 chunk 上有一个 FoldGroup，
// 外加一个非 ALLOC 的 .comment
func goldenLayout(t *testing.T) *linker.Context {
	ctx := linker.NewContext()
	a := linker.AddFile(ctx, linker.NewFile("a.o"))
	m := linker.AddFile(ctx, linker.NewArchiveMember(linker.NewFile("libb.a"), "m.o"))

	comment := newSection(ctx, ".comment", 0, 0, 8)
	comment.Shdr.AddrAlign = 1
	addChunk(comment, ".comment", linker.NoFile, 0, 8)

	text := newSection(ctx, ".text", allocExec, 0x1000, 0x20)
	entry := addChunk(text, ".text", a, 0, 0x10)
	entry.P2Align = 2
	foo := addChunk(text, ".text.foo", m, 0x10, 8)
	foo.P2Align = 3

	addSymbol(t, ctx, "main", elf.STB_GLOBAL, entry, 0x1000, 0x10)
	addSymbol(t, ctx, "foo", elf.STB_WEAK, foo, 0x1010, 8)
	addSymbol(t, ctx, "helper", elf.STB_LOCAL, entry, 0x1008, 4)
	linker.AddFoldGroup(ctx, foo, "foo", "foo2")
	return ctx
}
