package linker

// ICF/COMDAT 把内容相同的 section 合并之后，Names 中的所有符号名
// 都解析到同一个代表 chunk InputSection 上
type FoldGroup struct {
	Names        []string
	InputSection *InputSection
}

func AddFoldGroup(ctx *Context, isec *InputSection, names ...string) *FoldGroup {
	g := &FoldGroup{
		Names:        names,
		InputSection: isec,
	}
	ctx.FoldGroups = append(ctx.FoldGroups, g)
	return g
}
