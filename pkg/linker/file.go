package linker

import "fmt"

// FileID 是 Context::Files 的下标
// InputSection 通过它反向引用所属的输入文件，多个 InputSection 可以指向同一个 File
type FileID int32

// 没有输入文件的 chunk（linker 自己生成的 thunk、merged string table 等）
const NoFile FileID = -1

// Name: obj 文件路径，或者 archive 中 member 的名字
// Parent: 当一个 obj 文件归属于一个 archive 文件时，Parent 指向 archive 文件
type File struct {
	Name   string
	Parent *File
}

func NewFile(name string) *File {
	return &File{Name: name}
}

func NewArchiveMember(archive *File, member string) *File {
	return &File{Name: member, Parent: archive}
}

func (f *File) IsArchiveMember() bool {
	return f.Parent != nil
}

// 形如 "libfoo.a(bar.o)" 或者 "bar.o"
func (f *File) String() string {
	if f.IsArchiveMember() {
		return fmt.Sprintf("%s(%s)", f.Parent.Name, f.Name)
	}
	return f.Name
}

func AddFile(ctx *Context, f *File) FileID {
	ctx.Files = append(ctx.Files, f)
	return FileID(len(ctx.Files) - 1)
}

// id 为 NoFile 或者越界时返回 nil
func (ctx *Context) GetFile(id FileID) *File {
	if id < 0 || int(id) >= len(ctx.Files) {
		return nil
	}
	return ctx.Files[id]
}
