package linker

import (
	"debug/elf"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/ksco/rvmap/pkg/utils"
)

// 输出中不保留的 section flag
const mergedFlagsMask = uint64(elf.SHF_GROUP | elf.SHF_MERGE | elf.SHF_STRINGS | elf.SHF_COMPRESSED)

/*
 * 多个输入文件里内容相同的字符串/常量合并成一张表
 * @Map: 内容 -> fragment，同样的内容只保留一份
 * @InputSection: 整张表在 OutputSection 中作为一个没有输入文件的 chunk 出现，
 *                大小在 AssignOffsets 之后才确定
 */
type MergedSection struct {
	Chunk
	Map          map[string]*SectionFragment
	InputSection *InputSection
}

func NewMergedSection(name string, typ uint32, flags uint64) *MergedSection {
	m := &MergedSection{
		Chunk:        NewChunk(),
		Map:          make(map[string]*SectionFragment),
		InputSection: NewInputSection(name, NoFile, Unassigned, 1),
	}
	m.Name = name
	m.Shdr.Type = typ
	m.Shdr.Flags = flags
	return m
}

// 按输出名字、类型和去掉 merge 相关 bit 之后的 flags 查找，找不到就新建一个
func GetMergedSectionInstance(ctx *Context, name string, typ uint32, flags uint64) *MergedSection {
	name = OutputSectionName(name, flags)
	flags &^= mergedFlagsMask

	m, ok := lo.Find(ctx.MergedSections, func(m *MergedSection) bool {
		return m.Name == name && m.Shdr.Type == typ && m.Shdr.Flags == flags
	})
	if !ok {
		m = NewMergedSection(name, typ, flags)
		ctx.MergedSections = append(ctx.MergedSections, m)
	}
	return m
}

// 同样的内容插入多次时取最大的对齐
func (m *MergedSection) Insert(key string, p2align uint32) *SectionFragment {
	frag, ok := m.Map[key]
	if !ok {
		frag = NewSectionFragment(m)
		m.Map[key] = frag
	}
	frag.P2Align = max(frag.P2Align, p2align)
	return frag
}

// 按 (对齐, 长度, 内容) 排序之后依次摆放，结果只和内容有关
func (m *MergedSection) AssignOffsets() {
	keys := lo.Keys(m.Map)
	sort.Slice(keys, func(i, j int) bool {
		a, b := m.Map[keys[i]], m.Map[keys[j]]
		switch {
		case a.P2Align != b.P2Align:
			return a.P2Align < b.P2Align
		case len(keys[i]) != len(keys[j]):
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})

	var size uint64
	var p2align uint32
	for _, key := range keys {
		frag := m.Map[key]
		size = utils.AlignTo(size, 1<<frag.P2Align)
		utils.Assert(size <= math.MaxUint32)
		frag.Offset = uint32(size)
		size += uint64(len(key))
		p2align = max(p2align, frag.P2Align)
	}

	m.Shdr.AddrAlign = 1 << p2align
	m.Shdr.Size = utils.AlignTo(size, m.Shdr.AddrAlign)
	m.InputSection.ShSize = m.Shdr.Size
	m.InputSection.P2Align = uint8(p2align)
}
