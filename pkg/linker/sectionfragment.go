package linker

// 合并表中的一项
// @Merged: 所在的 MergedSection
// @Offset: 在合并表中的偏移，AssignOffsets 之前是非法值
type SectionFragment struct {
	Merged  *MergedSection
	Offset  uint32
	P2Align uint32
}

func NewSectionFragment(m *MergedSection) *SectionFragment {
	return &SectionFragment{Merged: m, Offset: ^uint32(0)}
}

// 合并表对应的 chunk 所在的位置加上表内偏移
func (s *SectionFragment) GetAddr() uint64 {
	return s.Merged.InputSection.GetAddr() + uint64(s.Offset)
}
