package linker

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMergedSectionInstance(t *testing.T) {
	ctx := NewContext()
	flags := uint64(elf.SHF_ALLOC | elf.SHF_MERGE | elf.SHF_STRINGS)

	m1 := GetMergedSectionInstance(ctx, ".rodata.str1.1", uint32(elf.SHT_PROGBITS), flags)
	m2 := GetMergedSectionInstance(ctx, ".rodata.str1.8", uint32(elf.SHT_PROGBITS), flags)

	assert.Same(t, m1, m2)
	assert.Equal(t, ".rodata.str", m1.Name)
	assert.Equal(t, uint64(elf.SHF_ALLOC), m1.Shdr.Flags)
	assert.True(t, m1.InputSection.IsSynthetic())
	require.Len(t, ctx.MergedSections, 1)
}

func TestMergedSectionAssignOffsets(t *testing.T) {
	ctx := NewContext()
	m := GetMergedSectionInstance(ctx, ".rodata.str1.1", uint32(elf.SHT_PROGBITS),
		uint64(elf.SHF_ALLOC|elf.SHF_MERGE|elf.SHF_STRINGS))

	hello := m.Insert("hello\x00", 0)
	again := m.Insert("hello\x00", 0)
	hi := m.Insert("hi\x00", 0)
	wide := m.Insert("wide\x00", 2)

	assert.Same(t, hello, again)

	ComputeMergedSectionSizes(ctx)

	assert.Equal(t, uint32(0), hi.Offset)
	assert.Equal(t, uint32(3), hello.Offset)
	assert.Equal(t, uint32(12), wide.Offset)
	assert.Equal(t, uint64(20), m.Shdr.Size)
	assert.Equal(t, uint64(4), m.Shdr.AddrAlign)
	assert.Equal(t, uint64(20), m.InputSection.ShSize)
	assert.Equal(t, uint64(4), m.InputSection.Align())

	osec := AddOutputSection(ctx, ".rodata", uint32(elf.SHT_PROGBITS), uint64(elf.SHF_ALLOC))
	osec.Shdr.Addr = 0x1000
	osec.AddMember(m.InputSection)
	m.InputSection.Offset = 0x10
	assert.Equal(t, uint64(0x101c), wide.GetAddr())
}

func TestOutputSectionName(t *testing.T) {
	assert.Equal(t, ".text", OutputSectionName(".text.main", 0))
	assert.Equal(t, ".rodata.cst", OutputSectionName(".rodata.cst8", uint64(elf.SHF_MERGE)))
	assert.Equal(t, ".rodata", OutputSectionName(".rodata.cst8", 0))
	assert.Equal(t, ".comment", OutputSectionName(".comment", 0))
}
