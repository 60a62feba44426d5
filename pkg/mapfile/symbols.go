package mapfile

import (
	"debug/elf"
	"sort"

	"github.com/ksco/rvmap/pkg/linker"
)

/*
 * 一个待归属的符号，只保存句柄，SymbolEntry 等到遍历到所在 section 时才生成
 * @sym: 符号表中的项，FoldGroup 中没有出现在符号表里的名字为 nil
 * @name: FoldGroup 中的名字，普通符号为空
 * @rep: FoldGroup 的代表 chunk，普通符号为 nil，按地址归属
 * @order: 地址和名字都相同时按它排序，即 Symbol::SymIdx
 */
type candidate struct {
	sym   *linker.Symbol
	name  string
	rep   *linker.InputSection
	order int
}

func (c *candidate) folded() bool {
	return c.rep != nil
}

func (c *candidate) symName() string {
	if c.folded() {
		return c.name
	}
	return c.sym.Name
}

// 折叠的名字在符号表中的地址落在代表 chunk 里时保留，否则用 chunk 的起始地址和大小
func (c *candidate) addrSize() (uint64, uint64) {
	if !c.folded() {
		return c.sym.GetAddr(), c.sym.Size
	}
	start := c.rep.GetAddr()
	if c.sym != nil {
		if addr := c.sym.GetAddr(); addr >= start && addr < start+c.rep.ShSize {
			return addr, c.sym.Size
		}
	}
	return start, c.rep.ShSize
}

func (c *candidate) entry() SymbolEntry {
	addr, size := c.addrSize()
	bind := elf.STB_GLOBAL
	if c.sym != nil {
		bind = c.sym.Bind
	}
	return SymbolEntry{
		Addr:   addr,
		Size:   size,
		Name:   c.symName(),
		Bind:   bind,
		Folded: c.folded(),
	}
}

// symbolIndex 把所有需要输出的符号按 OutputSection 分组并排好序，
// 真正归属到 chunk 要等到遍历到这个 section 时再做
type symbolIndex struct {
	bySection map[*linker.OutputSection][]candidate
	alloc     []*linker.OutputSection
}

func newSymbolIndex(ctx *linker.Context, walker *SectionWalker) (*symbolIndex, error) {
	idx := &symbolIndex{
		bySection: make(map[*linker.OutputSection][]candidate),
	}

	for osec := range walker.All() {
		shdr := osec.GetShdr()
		if shdr.IsAlloc() && !shdr.IsTbss() && shdr.Size > 0 {
			idx.alloc = append(idx.alloc, osec)
		}
	}

	push := func(osec *linker.OutputSection, c candidate) {
		idx.bySection[osec] = append(idx.bySection[osec], c)
	}

	// 先处理 FoldGroup，记下其中已经输出过的符号，后面不再重复输出
	folded := make(map[string]bool)
	foldedSyms := make(map[*linker.Symbol]bool)
	for _, g := range ctx.FoldGroups {
		rep := g.InputSection
		if rep == nil || rep.OutputSection == nil {
			return nil, inconsistent("", "fold group %v has no representative chunk", g.Names)
		}

		for _, name := range g.Names {
			if folded[name] {
				return nil, inconsistent(rep.OutputSection.Name,
					"symbol %s belongs to more than one fold group", name)
			}
			folded[name] = true

			c := candidate{name: name, rep: rep, order: -1}
			if sym := linker.GetSymbolByName(ctx, name); sym != nil {
				foldedSyms[sym] = true
				c.sym = sym
				c.order = sym.SymIdx
			}
			push(rep.OutputSection, c)
		}
	}

	for _, sym := range ctx.Symbols {
		if foldedSyms[sym] {
			continue
		}
		if sym.IsLocal() && !ctx.Args.IncludeLocals {
			continue
		}

		var osec *linker.OutputSection
		if isec := sym.InputSection; isec != nil {
			osec = isec.OutputSection
			if osec == nil {
				return nil, inconsistent("",
					"symbol %s refers to a chunk outside every section", sym.Name)
			}
			if !insideChunk(isec, sym) {
				return nil, inconsistent(osec.Name,
					"symbol %s at %#x is outside its chunk %s [%#x, %#x)",
					sym.Name, sym.GetAddr(), isec.Name, isec.GetAddr(), isec.GetAddr()+isec.ShSize)
			}
		} else if osec = idx.findSection(sym.GetAddr(), sym.Size); osec == nil {
			return nil, inconsistent("",
				"absolute symbol %s at %#x is outside every section", sym.Name, sym.GetAddr())
		}

		push(osec, candidate{sym: sym, order: sym.SymIdx})
	}

	for _, cands := range idx.bySection {
		sort.SliceStable(cands, func(i, j int) bool {
			x, y := &cands[i], &cands[j]
			xa, _ := x.addrSize()
			ya, _ := y.addrSize()
			if xa != ya {
				return xa < ya
			}
			if x.symName() != y.symName() {
				return x.symName() < y.symName()
			}
			return x.order < y.order
		})
	}

	return idx, nil
}

// 符号必须落在自己声明的 chunk 里；大小为 0 的符号可以正好在 chunk 的结尾
func insideChunk(isec *linker.InputSection, sym *linker.Symbol) bool {
	start := isec.GetAddr()
	end := start + isec.ShSize
	addr := sym.GetAddr()
	if addr < start {
		return false
	}
	return addr < end || (addr == end && sym.Size == 0)
}

// 没有 chunk 的 ABS 符号只能按地址在 ALLOC section 里找
func (idx *symbolIndex) findSection(addr, size uint64) *linker.OutputSection {
	i := sort.Search(len(idx.alloc), func(i int) bool {
		return idx.alloc[i].Shdr.End() > addr
	})
	if i < len(idx.alloc) && idx.alloc[i].Shdr.Addr <= addr {
		return idx.alloc[i]
	}
	if size == 0 && i > 0 && idx.alloc[i-1].Shdr.End() == addr {
		return idx.alloc[i-1]
	}
	return nil
}

// 把 osec 的符号归属到各个 chunk 上，返回值的下标和 osec.Members 一一对应，
// 每个 chunk 的符号已经是按 (地址, 名字) 排好序的
func (idx *symbolIndex) attribute(osec *linker.OutputSection) ([][]SymbolEntry, error) {
	cands := idx.bySection[osec]
	if len(cands) == 0 {
		return nil, nil
	}

	members := make(map[*linker.InputSection]int, len(osec.Members))
	for i, isec := range osec.Members {
		members[isec] = i
	}

	out := make([][]SymbolEntry, len(osec.Members))
	for k := range cands {
		c := &cands[k]
		entry := c.entry()
		var i int
		if c.folded() {
			var ok bool
			if i, ok = members[c.rep]; !ok {
				return nil, inconsistent(osec.Name,
					"folded symbol %s refers to a chunk not listed in the section", entry.Name)
			}
		} else {
			var err error
			if i, err = findChunk(osec, entry); err != nil {
				return nil, err
			}
		}
		out[i] = append(out[i], entry)
	}
	return out, nil
}

// 符号归属到地址区间 [start, end) 包含它的那个 chunk
// 大小为 0 的符号正好落在边界上时，归属到从这个地址开始的 chunk；
// 没有 chunk 从这里开始（后面是 padding 或者 section 结束）时，归属到在这里结束的 chunk
func findChunk(osec *linker.OutputSection, sym SymbolEntry) (int, error) {
	base := osec.Shdr.Addr
	members := osec.Members

	if sym.Addr >= base {
		off := sym.Addr - base

		i := sort.Search(len(members), func(i int) bool {
			return members[i].End() > off
		})
		if i < len(members) && members[i].Offset <= off {
			return i, nil
		}

		if sym.Size == 0 {
			j := sort.Search(len(members), func(j int) bool {
				return members[j].Offset >= off
			})
			if j < len(members) && members[j].Offset == off {
				return j, nil
			}
			if i > 0 && members[i-1].End() == off {
				return i - 1, nil
			}
		}
	}

	return 0, inconsistent(osec.Name,
		"symbol %s at %#x is outside every chunk", sym.Name, sym.Addr)
}
