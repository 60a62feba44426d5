package linker

import (
	"debug/elf"
	"math"
)

// 还没有被分配的 offset/addr/size/align 都用这个值占位
// 真正的值由 passes.go 里的几个 pass 填写
const Unassigned = math.MaxUint64

// map 只关心 ELF section header 中的这几个字段，其余的
// (sh_name/sh_offset/sh_link/...) 在最终 layout 里没有意义
type Shdr struct {
	Type      uint32
	Flags     uint64
	Addr      uint64
	Size      uint64
	AddrAlign uint64
}

func (s *Shdr) IsAlloc() bool {
	return s.Flags&uint64(elf.SHF_ALLOC) != 0
}

func (s *Shdr) IsNobits() bool {
	return s.Type == uint32(elf.SHT_NOBITS)
}

func (s *Shdr) IsTls() bool {
	return s.Flags&uint64(elf.SHF_TLS) != 0
}

// .tbss 不占用地址空间
func (s *Shdr) IsTbss() bool {
	return s.IsNobits() && s.IsTls()
}

func (s *Shdr) End() uint64 {
	return s.Addr + s.Size
}
