package linker

// OutputSection 和 MergedSection 都以 Chunk 为基类
type Chunker interface {
	GetShdr() *Shdr
}

type Chunk struct {
	Name string
	Shdr Shdr
}

func NewChunk() Chunk {
	// 默认 AddrAlign 为 1，即 1 字节对齐
	return Chunk{Shdr: Shdr{AddrAlign: 1}}
}

func (c *Chunk) GetShdr() *Shdr {
	return &c.Shdr
}
