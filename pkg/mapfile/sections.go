package mapfile

import (
	"iter"
	"sort"

	"github.com/ksco/rvmap/pkg/linker"
)

// SectionWalker 按地址从小到大给出所有 OutputSection
// 非 ALLOC 的 section 没有有意义的地址，排在所有 ALLOC section 之后，保持声明顺序
type SectionWalker struct {
	sections []*linker.OutputSection
}

func NewSectionWalker(ctx *linker.Context) (*SectionWalker, error) {
	sections := make([]*linker.OutputSection, len(ctx.OutputSections))
	copy(sections, ctx.OutputSections)

	rank := func(osec *linker.OutputSection) int {
		if osec.Shdr.IsAlloc() {
			return 0
		}
		return 1
	}

	// 地址相同或者都是非 ALLOC 时按 Idx，即声明顺序
	sort.Slice(sections, func(i, j int) bool {
		x, y := sections[i], sections[j]
		if rank(x) != rank(y) {
			return rank(x) < rank(y)
		}
		if rank(x) == 0 && x.Shdr.Addr != y.Shdr.Addr {
			return x.Shdr.Addr < y.Shdr.Addr
		}
		return x.Idx < y.Idx
	})

	var prev *linker.OutputSection
	for _, osec := range sections {
		shdr := osec.GetShdr()
		if !shdr.IsAlloc() || shdr.IsTbss() || shdr.Size == 0 {
			continue
		}
		if prev != nil && prev.Shdr.End() > shdr.Addr {
			return nil, inconsistent(osec.Name,
				"[%#x, %#x) overlaps section %s [%#x, %#x)",
				shdr.Addr, shdr.End(), prev.Name, prev.Shdr.Addr, prev.Shdr.End())
		}
		prev = osec
	}

	return &SectionWalker{sections: sections}, nil
}

// 每次调用都从头开始
func (w *SectionWalker) All() iter.Seq[*linker.OutputSection] {
	return func(yield func(*linker.OutputSection) bool) {
		for _, osec := range w.sections {
			if !yield(osec) {
				return
			}
		}
	}
}

func (w *SectionWalker) Len() int {
	return len(w.sections)
}

func (w *SectionWalker) At(i int) *linker.OutputSection {
	return w.sections[i]
}
