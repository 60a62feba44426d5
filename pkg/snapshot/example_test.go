package snapshot

import (
	"bytes"
	"debug/elf"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksco/rvmap/pkg/mapfile"
)

func TestHelloWorldMap(t *testing.T) {
	ctx, err := Load(afero.NewOsFs(), "testdata/hello.yaml")
	require.NoError(t, err)
	assert.Equal(t, "hello.map", ctx.Args.MapFile)

	var buf bytes.Buffer
	res, err := mapfile.WriteTo(&buf, ctx.Args.MapFile, ctx)
	require.NoError(t, err)
	out := buf.String()

	for _, row := range []mapfile.Row{
		mapfile.SectionHeader{Name: ".text", Addr: 0x200000, Size: 0x90, Align: 16},
		mapfile.ChunkEntry{Addr: 0x200000, Size: 0x2a, Align: 2, Origin: "crt1.o", Name: ".text", Section: ".text"},
		mapfile.PaddingEntry{Addr: 0x20002a, Size: 2},
		mapfile.SymbolEntry{Addr: 0x20002c, Size: 0x1c, Name: "main", Bind: elf.STB_GLOBAL},
		mapfile.PaddingEntry{Addr: 0x200048, Size: 8},
		mapfile.ChunkEntry{Addr: 0x200050, Size: 0x40, Align: 16, Origin: "libc.a(puts.o)", Name: ".text.puts", Section: ".text"},
		mapfile.SymbolEntry{Addr: 0x200050, Size: 0x40, Name: "_IO_puts", Bind: elf.STB_GLOBAL, Folded: true},
		mapfile.SymbolEntry{Addr: 0x200050, Size: 0x40, Name: "puts", Bind: elf.STB_GLOBAL, Folded: true},
		mapfile.ChunkEntry{Addr: 0x200090, Size: 0x11, Align: 1, Origin: "<linker-generated>", Name: ".rodata.str", Section: ".rodata"},
		mapfile.SectionHeader{Name: ".data", Addr: 0x2000a4, Size: 4, Align: 4},
		mapfile.SectionHeader{Name: ".bss", Addr: 0x2000a8, Size: 0x100, Align: 8},
		mapfile.SymbolEntry{Addr: 0x2001a8, Name: "_end", Bind: elf.STB_GLOBAL},
		mapfile.SectionHeader{Name: ".comment", Size: 0x12, Align: 1, NonAlloc: true},
	} {
		assert.Contains(t, out, mapfile.FormatRow(row))
	}

	assert.NotContains(t, out, ".L.str")
	assert.NotContains(t, out, "buf")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(" puts\n")))
	assert.Equal(t, int64(buf.Len()), res.Bytes)
}
