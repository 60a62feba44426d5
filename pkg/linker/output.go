package linker

import (
	"debug/elf"
	"strings"
)

// 按这些前缀把输入 section 归到同名的输出 section
var outputStems = []string{
	".text", ".data.rel.ro", ".data", ".rodata", ".bss.rel.ro", ".bss",
	".init_array", ".fini_array", ".tbss", ".tdata", ".gcc_except_table",
	".ctors", ".dtors",
}

// ".text.main" -> ".text"
// 可合并的只读数据单独成表：".rodata.str1.1" -> ".rodata.str"，".rodata.cst8" -> ".rodata.cst"
func OutputSectionName(name string, flags uint64) string {
	if flags&uint64(elf.SHF_MERGE) != 0 && inStem(name, ".rodata") {
		if flags&uint64(elf.SHF_STRINGS) != 0 {
			return ".rodata.str"
		}
		return ".rodata.cst"
	}

	for _, stem := range outputStems {
		if inStem(name, stem) {
			return stem
		}
	}
	return name
}

func inStem(name, stem string) bool {
	rest, ok := strings.CutPrefix(name, stem)
	return ok && (rest == "" || rest[0] == '.')
}
