package mapfile

import "github.com/ksco/rvmap/pkg/linker"

/*
 * RowScanner 按地址顺序逐行产生 map 的内容，调用方每次 Next 拉取一行，
 * 任何时候最多只缓存一个 chunk 对应的几行
 * 用法和 bufio.Scanner 一样：
 *
 *	rows := NewRowScanner(ctx)
 *	for rows.Next() {
 *		row := rows.Row()
 *	}
 *	if err := rows.Err(); err != nil {
 *	}
 *
 * 只能消费一次，出错后 Next 一直返回 false
 */
type RowScanner struct {
	ctx     *linker.Context
	walker  *SectionWalker
	symbols *symbolIndex
	started bool

	secIdx     int
	osec       *linker.OutputSection
	attributed [][]SymbolEntry
	chunkIdx   int
	cursor     uint64

	pending []Row
	row     Row
	err     error
}

func NewRowScanner(ctx *linker.Context) *RowScanner {
	return &RowScanner{ctx: ctx}
}

func (s *RowScanner) Next() bool {
	if s.err != nil {
		return false
	}

	if !s.started {
		s.started = true
		if s.walker, s.err = NewSectionWalker(s.ctx); s.err != nil {
			return false
		}
		if s.symbols, s.err = newSymbolIndex(s.ctx, s.walker); s.err != nil {
			return false
		}
	}

	for len(s.pending) == 0 {
		if !s.fill() {
			s.row = nil
			return false
		}
	}

	s.row = s.pending[0]
	s.pending = s.pending[1:]
	return true
}

func (s *RowScanner) Row() Row {
	return s.row
}

func (s *RowScanner) Err() error {
	return s.err
}

// 往 pending 中追加下一批行，没有更多内容或者出错时返回 false
func (s *RowScanner) fill() bool {
	if s.osec == nil {
		if s.secIdx >= s.walker.Len() {
			return false
		}
		osec := s.walker.At(s.secIdx)
		s.secIdx++

		attributed, err := s.symbols.attribute(osec)
		if err != nil {
			s.err = err
			return false
		}

		s.osec = osec
		s.attributed = attributed
		s.chunkIdx = 0
		s.cursor = 0
		s.pending = append(s.pending, SectionHeader{
			Name:     osec.Name,
			Addr:     osec.Shdr.Addr,
			Size:     osec.Shdr.Size,
			Align:    osec.Shdr.AddrAlign,
			NonAlloc: !osec.Shdr.IsAlloc(),
		})
		return true
	}

	osec := s.osec
	if s.chunkIdx < len(osec.Members) {
		isec := osec.Members[s.chunkIdx]
		if err := checkChunk(s.ctx, osec, isec); err != nil {
			s.err = err
			return false
		}

		pad, err := gapBefore(osec, s.cursor, isec)
		if err != nil {
			s.err = err
			return false
		}
		if pad != nil {
			s.pending = append(s.pending, *pad)
		}

		s.pending = append(s.pending, chunkEntry(s.ctx, osec, isec))
		if s.attributed != nil {
			for _, sym := range s.attributed[s.chunkIdx] {
				s.pending = append(s.pending, sym)
			}
		}

		s.cursor = isec.End()
		s.chunkIdx++
		return true
	}

	if pad := trailingPadding(osec, s.cursor); pad != nil {
		s.pending = append(s.pending, *pad)
	}
	s.osec = nil
	s.attributed = nil
	return true
}
