package linker

import "math/bits"

/*
 * 最终 layout 中的一个 chunk：某个输入文件的一个 section 在 OutputSection
 * 中占据的一段连续的字节
 * @File: 所属输入文件在 Context::Files 中的下标，linker 自己生成的为 NoFile
 * @Name: 输入 section 的名字，譬如 ".text.main"
 * @Offset: 相对于 OutputSection 起始地址的偏移
 * @ShSize: 该 chunk 的大小
 * @P2Align: 对齐值的 2 的指数，譬如 sh_addralign = 8 时 P2Align 为 3
 * @IsAlive: 走到这一步时 dead 的 section 已经被上游剔除了，所以总是 true
 * @OutputSection: 该 chunk 所属的 OutputSection
 */
type InputSection struct {
	File    FileID
	Name    string
	Offset  uint64
	ShSize  uint64
	P2Align uint8
	IsAlive bool

	OutputSection *OutputSection
}

func NewInputSection(name string, file FileID, size uint64, align uint64) *InputSection {
	return &InputSection{
		File:    file,
		Name:    name,
		Offset:  Unassigned,
		ShSize:  size,
		P2Align: ToP2Align(align),
		IsAlive: true,
	}
}

func ToP2Align(align uint64) uint8 {
	if align == 0 {
		return 0
	}
	return uint8(bits.TrailingZeros64(align))
}

func (i *InputSection) IsSynthetic() bool {
	return i.File == NoFile
}

func (i *InputSection) Align() uint64 {
	return 1 << i.P2Align
}

// 相对 OutputSection 的结束偏移
func (i *InputSection) End() uint64 {
	return i.Offset + i.ShSize
}

func (i *InputSection) GetAddr() uint64 {
	return i.OutputSection.Shdr.Addr + i.Offset
}
