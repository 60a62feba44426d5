package snapshot

import (
	"debug/elf"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksco/rvmap/pkg/linker"
)

const packedLayout = `
options:
  include_locals: true
  map: out.map
files:
  - {id: a, path: a.o}
  - {id: m, path: m.o, archive: libb.a}
  - {id: n, path: n.o, archive: libb.a}
sections:
  - name: .text
    flags: [alloc, exec]
    chunks:
      - {name: .text, file: a, size: 0x6, align: 4}
      - {name: .text.foo, file: m, size: 0x8, align: 8}
  - name: .rodata
    flags: [SHF_ALLOC]
    align: 0x10
    chunks:
      - {name: .rodata, file: n, size: 3}
    merged:
      name: .rodata.str1.1
      strings: ["hello\0", "hi\0", "hello\0"]
  - name: .comment
    chunks:
      - {name: .comment, file: a, size: 0x20}
symbols:
  - {name: main, section: .text, chunk: 0, value: 0, size: 6}
  - {name: foo, section: .text, chunk: 1, addr: 0x200008, size: 8}
  - {name: msg, bind: local, section: .rodata, fragment: "hello\0"}
  - {name: _end, addr: 0x200030}
folds:
  - {section: .text, chunk: 1, names: [foo, foo_alias]}
`

func TestParsePackedLayout(t *testing.T) {
	ctx, err := Parse([]byte(packedLayout))
	require.NoError(t, err)

	assert.Equal(t, "out.map", ctx.Args.MapFile)
	assert.True(t, ctx.Args.IncludeLocals)

	require.Len(t, ctx.Files, 3)
	assert.Equal(t, "libb.a(m.o)", ctx.Files[1].String())
	assert.Same(t, ctx.Files[1].Parent, ctx.Files[2].Parent)

	require.Len(t, ctx.OutputSections, 3)
	text := ctx.OutputSections[0]
	assert.Equal(t, linker.ImageBase, text.Shdr.Addr)
	assert.Equal(t, uint64(0x10), text.Shdr.Size)
	assert.Equal(t, uint64(8), text.Shdr.AddrAlign)
	assert.Equal(t, uint64(8), text.Members[1].Offset)

	rodata := ctx.OutputSections[1]
	assert.Equal(t, uint64(0x200010), rodata.Shdr.Addr)
	require.Len(t, rodata.Members, 2)
	merged := rodata.Members[1]
	assert.True(t, merged.IsSynthetic())
	assert.Equal(t, ".rodata.str", merged.Name)
	assert.Equal(t, uint64(3), merged.Offset)
	assert.Equal(t, uint64(9), merged.ShSize)
	assert.Equal(t, uint64(12), rodata.Shdr.Size)

	comment := ctx.OutputSections[2]
	assert.Equal(t, uint64(0), comment.Shdr.Addr)
	assert.False(t, comment.Shdr.IsAlloc())
	assert.Equal(t, uint32(elf.SHT_PROGBITS), comment.Shdr.Type)

	require.Len(t, ctx.Symbols, 4)
	assert.Equal(t, uint64(0x200000), ctx.Symbols[0].Value)
	assert.Equal(t, uint64(0x200008), ctx.Symbols[1].Value)
	// "hi\0" 排在 "hello\0" 前面
	assert.Equal(t, uint64(0x200010+3+3), ctx.Symbols[2].Value)
	assert.Same(t, merged, ctx.Symbols[2].InputSection)
	assert.True(t, ctx.Symbols[3].IsAbs())
	assert.Nil(t, linker.GetSymbolByName(ctx, "msg"))

	require.Len(t, ctx.FoldGroups, 1)
	assert.Same(t, text.Members[1], ctx.FoldGroups[0].InputSection)
	assert.Equal(t, []string{"foo", "foo_alias"}, ctx.FoldGroups[0].Names)
}

func TestParseKeepsExplicitLayout(t *testing.T) {
	ctx, err := Parse([]byte(`
sections:
  - name: .data
    flags: [alloc, write]
    addr: 0x8000
    size: 0x40
    align: 8
    chunks:
      - {name: .data, offset: 0x10, size: 4}
`))
	require.NoError(t, err)

	data := ctx.OutputSections[0]
	assert.Equal(t, uint64(0x8000), data.Shdr.Addr)
	assert.Equal(t, uint64(0x40), data.Shdr.Size)
	assert.Equal(t, uint64(8), data.Shdr.AddrAlign)
	assert.Equal(t, uint64(0x10), data.Members[0].Offset)
	assert.Equal(t, linker.NoFile, data.Members[0].File)
}

func TestParseReportsEveryError(t *testing.T) {
	_, err := Parse([]byte(`
files:
  - {id: a, path: a.o}
  - {id: a, path: b.o}
sections:
  - name: .text
    flags: [alloc, bogus]
  - name: .data
    align: 3
  - name: .bss
    chunks:
      - {name: .bss, file: missing, size: 4}
`))
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 4)
	assert.Contains(t, err.Error(), `duplicate id "a"`)
	assert.Contains(t, err.Error(), `unknown section flag "bogus"`)
	assert.Contains(t, err.Error(), "not a power of two")
	assert.Contains(t, err.Error(), `unknown file "missing"`)
}

func TestParseSymbolErrors(t *testing.T) {
	_, err := Parse([]byte(`
sections:
  - name: .text
    flags: [alloc]
    chunks:
      - {name: .text, size: 4}
symbols:
  - {name: a, section: .text}
  - {name: b, section: .text, chunk: 3, addr: 0}
  - {name: c}
  - {name: d, section: .text, chunk: 0, addr: 0x200000}
  - {name: d, section: .text, chunk: 0, addr: 0x200000}
  - {name: e, bind: hidden, addr: 0}
folds:
  - {section: .nope, chunk: 0, names: [x]}
`))
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 6)
	assert.Contains(t, err.Error(), "duplicate symbol d")
	assert.Contains(t, err.Error(), `unknown section ".nope"`)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("sections:\n  - name: .text\n    adress: 0x10\n"))
	require.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(nil)
	require.EqualError(t, err, "empty layout snapshot")
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/layout.yaml", []byte(packedLayout), 0o644))

	ctx, err := Load(fs, "/layout.yaml")
	require.NoError(t, err)
	assert.Len(t, ctx.OutputSections, 3)

	_, err = Load(fs, "/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/missing.yaml")
}
