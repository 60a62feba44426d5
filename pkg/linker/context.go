package linker

// @MapFile: map 文件的输出路径，"-" 表示标准输出，空串表示不输出
// @IncludeLocals: 是否把 LOCAL 符号也列出来
// @MapFatal: map 写失败时是否让整个链接失败
type ContextArgs struct {
	MapFile       string
	IncludeLocals bool
	MapFatal      bool
}

/*
 * 完成 layout 之后的链接上下文，生成 map 时只读
 *
 * @Files: 所有输入文件，包括 archive 中 extracted 的 .o 文件
 *         InputSection::File 是这个数组的下标
 * @OutputSections: 输出文件中的 section，按照声明顺序保存，
 *                  OutputSection::Idx 是在这个数组中的下标
 * @MergedSections: 合并后的 string table，每个最终以一个没有输入文件的
 *                  InputSection 的形式出现在某个 OutputSection 中
 * @Symbols: 所有符号，包括 LOCAL 符号，Symbol::SymIdx 是在这个数组中的下标
 * @SymbolMap: GLOBAL 和 WEAK 符号，按名字索引
 * @FoldGroups: ICF/COMDAT 之后被折叠到同一个 chunk 上的符号名
 */
type Context struct {
	Args ContextArgs

	Files          []*File
	OutputSections []*OutputSection
	MergedSections []*MergedSection

	Symbols    []*Symbol
	SymbolMap  map[string]*Symbol
	FoldGroups []*FoldGroup
}

func NewContext() *Context {
	return &Context{
		SymbolMap: make(map[string]*Symbol),
	}
}
