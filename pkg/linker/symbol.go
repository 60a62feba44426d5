package linker

import "debug/elf"

/*
 * 完成符号解析和 layout 之后的符号
 * @Name: 符号名
 * @Value: 符号的绝对地址（注意不是 Elf_Sym::st_value）
 * @Size: Elf_Sym::st_size，可能为 0
 * @Bind: STB_GLOBAL / STB_LOCAL / STB_WEAK
 * @SymIdx: 符号在 Context::Symbols 中的下标
 * @InputSection: 符号所在的 chunk，ABS 符号为 nil
 */
type Symbol struct {
	Name   string
	Value  uint64
	Size   uint64
	Bind   elf.SymBind
	SymIdx int

	InputSection *InputSection
}

func NewSymbol(name string) *Symbol {
	return &Symbol{
		Name:   name,
		Bind:   elf.STB_GLOBAL,
		SymIdx: -1,
	}
}

func (s *Symbol) SetInputSection(isec *InputSection) {
	s.InputSection = isec
}

func (s *Symbol) IsLocal() bool {
	return s.Bind == elf.STB_LOCAL
}

func (s *Symbol) IsAbs() bool {
	return s.InputSection == nil
}

func (s *Symbol) GetAddr() uint64 {
	return s.Value
}

// LOCAL 符号只放进 Context::Symbols，GLOBAL/WEAK 符号同时登记到 Context::SymbolMap
// 同名的 GLOBAL 符号只保留第一个，返回 false
func AddSymbol(ctx *Context, sym *Symbol) bool {
	if !sym.IsLocal() {
		if _, ok := ctx.SymbolMap[sym.Name]; ok {
			return false
		}
		ctx.SymbolMap[sym.Name] = sym
	}
	sym.SymIdx = len(ctx.Symbols)
	ctx.Symbols = append(ctx.Symbols, sym)
	return true
}

func GetSymbolByName(ctx *Context, name string) *Symbol {
	return ctx.SymbolMap[name]
}
