package linker

import (
	"math"

	"github.com/ksco/rvmap/pkg/utils"
)

const ImageBase uint64 = 0x200000

// 下面几个 pass 只在 layout 没有完全给出时才起作用：它们只填写值为 Unassigned
// 的字段，已经给定的 offset/addr/size/align 原样保留

func ComputeMergedSectionSizes(ctx *Context) {
	for _, osec := range ctx.MergedSections {
		osec.AssignOffsets()
	}
}

// 没有给出 offset 的 chunk 紧跟在前一个 chunk 之后，按自己的对齐要求对齐
func ComputeSectionSizes(ctx *Context) {
	for _, osec := range ctx.OutputSections {
		offset := uint64(0)
		p2align := int64(0)

		for _, isec := range osec.Members {
			if isec.Offset == Unassigned {
				isec.Offset = utils.AlignTo(offset, isec.Align())
			}
			if end := isec.End(); end > offset {
				offset = end
			}
			p2align = int64(math.Max(float64(p2align), float64(isec.P2Align)))
		}

		if osec.Shdr.Size == Unassigned {
			osec.Shdr.Size = offset
		}
		if osec.Shdr.AddrAlign == Unassigned {
			osec.Shdr.AddrAlign = 1 << p2align
		}
	}
}

// 按声明顺序从 ImageBase 开始依次摆放 SHF_ALLOC 的 section
// 非 ALLOC 的 section 不占地址空间，地址为 0
func SetOutputSectionAddrs(ctx *Context) {
	addr := ImageBase
	for _, osec := range ctx.OutputSections {
		shdr := osec.GetShdr()
		if !shdr.IsAlloc() {
			if shdr.Addr == Unassigned {
				shdr.Addr = 0
			}
			continue
		}

		if shdr.Addr == Unassigned {
			shdr.Addr = utils.AlignTo(addr, shdr.AddrAlign)
		}
		addr = shdr.Addr

		if !isTbss(osec) {
			addr += shdr.Size
		}
	}
}

func isTbss(chunk Chunker) bool {
	return chunk.GetShdr().IsTbss()
}
