package mapfile

import "github.com/ksco/rvmap/pkg/linker"

// cursor 是上一个 chunk 的结束偏移（相对于 section 起始地址）
// isec 之前有空洞时返回一个 PaddingEntry，和上一个 chunk 重叠时报错
func gapBefore(osec *linker.OutputSection, cursor uint64, isec *linker.InputSection) (*PaddingEntry, error) {
	switch {
	case isec.Offset < cursor:
		return nil, inconsistent(osec.Name,
			"chunk %s [%#x, %#x) overlaps the previous chunk ending at %#x",
			isec.Name, isec.Offset, isec.End(), cursor)
	case isec.Offset > cursor:
		return &PaddingEntry{
			Addr: osec.Shdr.Addr + cursor,
			Size: isec.Offset - cursor,
		}, nil
	}
	return nil, nil
}

// section 声明的大小超过最后一个 chunk 的结束位置时，剩下的部分是尾部 padding
func trailingPadding(osec *linker.OutputSection, cursor uint64) *PaddingEntry {
	if osec.Shdr.Size <= cursor {
		return nil
	}
	return &PaddingEntry{
		Addr:     osec.Shdr.Addr + cursor,
		Size:     osec.Shdr.Size - cursor,
		Trailing: true,
	}
}

// chunk 自身的不变量：已经分配了 offset 和大小，属于这个 section，没有越过 section 的结尾
func checkChunk(ctx *linker.Context, osec *linker.OutputSection, isec *linker.InputSection) error {
	switch {
	case isec.Offset == linker.Unassigned || isec.ShSize == linker.Unassigned:
		return inconsistent(osec.Name, "chunk %s has no assigned offset or size", isec.Name)
	case isec.OutputSection != osec:
		return inconsistent(osec.Name, "chunk %s is owned by another section", isec.Name)
	case !isec.IsAlive:
		return inconsistent(osec.Name, "dead chunk %s in a finalized layout", isec.Name)
	case !isec.IsSynthetic() && ctx.GetFile(isec.File) == nil:
		return inconsistent(osec.Name, "chunk %s refers to unknown input file %d", isec.Name, isec.File)
	case isec.End() < isec.Offset || isec.End() > osec.Shdr.Size:
		return inconsistent(osec.Name,
			"chunk %s [%#x, %#x) runs past the section size %#x",
			isec.Name, isec.Offset, isec.End(), osec.Shdr.Size)
	}
	return nil
}
