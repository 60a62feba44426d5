package linker

import "github.com/samber/lo"

// @Members: 该 OutputSection 中的 chunk，按最终输出顺序排列
// @Idx: 本 OutputSection 在 Context::OutputSections 数组中的下标
type OutputSection struct {
	Chunk
	Members []*InputSection
	Idx     uint32
}

func NewOutputSection(
	name string, typ uint32, flags uint64, idx uint32) *OutputSection {
	o := &OutputSection{Chunk: NewChunk()}
	o.Name = name
	o.Shdr.Type = typ
	o.Shdr.Flags = flags
	o.Idx = idx
	return o
}

func AddOutputSection(
	ctx *Context, name string, typ uint32, flags uint64) *OutputSection {
	osec := NewOutputSection(name, typ, flags, uint32(len(ctx.OutputSections)))
	ctx.OutputSections = append(ctx.OutputSections, osec)
	return osec
}

func (o *OutputSection) AddMember(isec *InputSection) {
	isec.OutputSection = o
	o.Members = append(o.Members, isec)
}

// 按名字找第一个匹配的 OutputSection，找不到返回 nil
func FindOutputSection(ctx *Context, name string) *OutputSection {
	osec, _ := lo.Find(ctx.OutputSections, func(o *OutputSection) bool {
		return o.Name == name
	})
	return osec
}
