package snapshot

// Snapshot 是一份完成 layout 之后的链接结果，由 YAML 描述
// 数值可以写成十六进制（0x10）
type Snapshot struct {
	Options  Options   `yaml:"options"`
	Files    []File    `yaml:"files"`
	Sections []Section `yaml:"sections"`
	Symbols  []Symbol  `yaml:"symbols"`
	Folds    []Fold    `yaml:"folds"`
}

type Options struct {
	IncludeLocals bool   `yaml:"include_locals"`
	Map           string `yaml:"map"`
	MapFatal      bool   `yaml:"map_fatal"`
}

// Archive 非空时表示 Path 是该 archive 中的一个 member
type File struct {
	ID      string `yaml:"id"`
	Path    string `yaml:"path"`
	Archive string `yaml:"archive"`
}

// Addr/Size/Align 省略时由 linker 的 pass 计算
type Section struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Flags  []string `yaml:"flags"`
	Addr   *uint64  `yaml:"addr"`
	Size   *uint64  `yaml:"size"`
	Align  *uint64  `yaml:"align"`
	Chunks []Chunk  `yaml:"chunks"`
	Merged *Merged  `yaml:"merged"`
}

// File 为空表示 linker 生成的 chunk；Offset 省略时紧跟在上一个 chunk 之后
type Chunk struct {
	Name   string  `yaml:"name"`
	File   string  `yaml:"file"`
	Offset *uint64 `yaml:"offset"`
	Size   uint64  `yaml:"size"`
	Align  uint64  `yaml:"align"`
}

// 去重后的 string table，作为一个 linker 生成的 chunk 追加在 section 的最后
type Merged struct {
	Name    string   `yaml:"name"`
	P2Align uint32   `yaml:"p2align"`
	Strings []string `yaml:"strings"`
}

/*
 * @Section/@Chunk: 符号所在的 chunk，都省略时是 ABS 符号
 * @Addr: 绝对地址
 * @Value: 相对于 chunk 起始地址的偏移，和 Addr 二选一
 * @Fragment: 指向 merged string table 中的某个字符串
 */
type Symbol struct {
	Name     string  `yaml:"name"`
	Bind     string  `yaml:"bind"`
	Size     uint64  `yaml:"size"`
	Addr     *uint64 `yaml:"addr"`
	Value    *uint64 `yaml:"value"`
	Section  string  `yaml:"section"`
	Chunk    *int    `yaml:"chunk"`
	Fragment *string `yaml:"fragment"`
}

type Fold struct {
	Section string   `yaml:"section"`
	Chunk   int      `yaml:"chunk"`
	Names   []string `yaml:"names"`
}
