package mapfile

import "github.com/ksco/rvmap/pkg/linker"

const linkerGenerated = "<linker-generated>"

// 优先级：archive member 显示为 "archive(member)"，普通 obj 文件显示路径，
// 没有输入文件的 chunk 显示 linkerGenerated
func Origin(ctx *linker.Context, isec *linker.InputSection) string {
	file := ctx.GetFile(isec.File)
	if file == nil {
		return linkerGenerated
	}
	return file.String()
}

func chunkEntry(ctx *linker.Context, osec *linker.OutputSection, isec *linker.InputSection) ChunkEntry {
	return ChunkEntry{
		Addr:    osec.Shdr.Addr + isec.Offset,
		Size:    isec.ShSize,
		Align:   isec.Align(),
		Origin:  Origin(ctx, isec),
		Name:    isec.Name,
		Section: osec.Name,
	}
}
