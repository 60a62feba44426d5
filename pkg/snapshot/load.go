package snapshot

import (
	"bytes"
	"debug/elf"
	"io"
	"math/bits"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/ksco/rvmap/pkg/linker"
	"github.com/ksco/rvmap/pkg/utils"
)

// Load 读取 path 并构造出完成 layout 的 Context
func Load(fs afero.Fs, path string) (*linker.Context, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading layout snapshot %s", path)
	}
	ctx, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading layout snapshot %s", path)
	}
	return ctx, nil
}

func Parse(data []byte) (*linker.Context, error) {
	var snap Snapshot
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil {
		if err == io.EOF {
			return nil, errors.New("empty layout snapshot")
		}
		return nil, errors.Wrap(err, "decoding yaml")
	}
	return Build(&snap)
}

var sectionTypes = map[string]elf.SectionType{
	"":           elf.SHT_PROGBITS,
	"progbits":   elf.SHT_PROGBITS,
	"nobits":     elf.SHT_NOBITS,
	"note":       elf.SHT_NOTE,
	"init_array": elf.SHT_INIT_ARRAY,
	"fini_array": elf.SHT_FINI_ARRAY,
}

var sectionFlags = map[string]elf.SectionFlag{
	"ALLOC":     elf.SHF_ALLOC,
	"WRITE":     elf.SHF_WRITE,
	"EXEC":      elf.SHF_EXECINSTR,
	"EXECINSTR": elf.SHF_EXECINSTR,
	"MERGE":     elf.SHF_MERGE,
	"STRINGS":   elf.SHF_STRINGS,
	"TLS":       elf.SHF_TLS,
	"GROUP":     elf.SHF_GROUP,
}

var symbolBinds = map[string]elf.SymBind{
	"":       elf.STB_GLOBAL,
	"global": elf.STB_GLOBAL,
	"local":  elf.STB_LOCAL,
	"weak":   elf.STB_WEAK,
}

// 接受 "alloc"、"SHF_ALLOC" 等写法
func parseFlags(names []string) (uint64, error) {
	flags := uint64(0)
	for _, name := range names {
		key, _ := utils.RemovePrefix(strings.ToUpper(name), "SHF_")
		f, ok := sectionFlags[key]
		if !ok {
			return 0, errors.Errorf("unknown section flag %q", name)
		}
		flags |= uint64(f)
	}
	return flags, nil
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && bits.OnesCount64(v) == 1
}

func orUnassigned(v *uint64) uint64 {
	if v == nil {
		return linker.Unassigned
	}
	return *v
}

// Build 相当于链接器的后半段：把 snapshot 中的 section/chunk/symbol 登记到 Context，
// 再用 linker 的 pass 补齐没有给出的 offset/size/addr
// 所有引用错误一次性报告出来
func Build(snap *Snapshot) (*linker.Context, error) {
	ctx := linker.NewContext()
	ctx.Args = linker.ContextArgs{
		MapFile:       snap.Options.Map,
		IncludeLocals: snap.Options.IncludeLocals,
		MapFatal:      snap.Options.MapFatal,
	}

	var errs *multierror.Error

	files := make(map[string]linker.FileID)
	archives := make(map[string]*linker.File)
	for i, f := range snap.Files {
		if f.ID == "" || f.Path == "" {
			errs = multierror.Append(errs, errors.Errorf("files[%d]: id and path are required", i))
			continue
		}
		if _, ok := files[f.ID]; ok {
			errs = multierror.Append(errs, errors.Errorf("files[%d]: duplicate id %q", i, f.ID))
			continue
		}

		file := linker.NewFile(f.Path)
		if f.Archive != "" {
			parent, ok := archives[f.Archive]
			if !ok {
				parent = linker.NewFile(f.Archive)
				archives[f.Archive] = parent
			}
			file = linker.NewArchiveMember(parent, f.Path)
		}
		files[f.ID] = linker.AddFile(ctx, file)
	}

	for i := range snap.Sections {
		if err := addSection(ctx, &snap.Sections[i], files); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "sections[%d]", i))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	linker.ComputeMergedSectionSizes(ctx)
	linker.ComputeSectionSizes(ctx)
	linker.SetOutputSectionAddrs(ctx)

	for i := range snap.Symbols {
		if err := addSymbol(ctx, &snap.Symbols[i]); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "symbols[%d]", i))
		}
	}

	for i, f := range snap.Folds {
		isec, err := findChunk(ctx, f.Section, f.Chunk)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "folds[%d]", i))
			continue
		}
		if len(f.Names) == 0 {
			errs = multierror.Append(errs, errors.Errorf("folds[%d]: no names", i))
			continue
		}
		linker.AddFoldGroup(ctx, isec, f.Names...)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return ctx, nil
}

func addSection(ctx *linker.Context, s *Section, files map[string]linker.FileID) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if linker.FindOutputSection(ctx, s.Name) != nil {
		return errors.Errorf("duplicate section %s", s.Name)
	}

	typ, ok := sectionTypes[strings.ToLower(s.Type)]
	if !ok {
		return errors.Errorf("unknown section type %q", s.Type)
	}
	flags, err := parseFlags(s.Flags)
	if err != nil {
		return err
	}
	if s.Align != nil && !isPowerOfTwo(*s.Align) {
		return errors.Errorf("alignment %#x is not a power of two", *s.Align)
	}

	osec := linker.AddOutputSection(ctx, s.Name, uint32(typ), flags)
	osec.Shdr.Addr = orUnassigned(s.Addr)
	osec.Shdr.Size = orUnassigned(s.Size)
	osec.Shdr.AddrAlign = orUnassigned(s.Align)

	for i, c := range s.Chunks {
		fid := linker.NoFile
		if c.File != "" {
			if fid, ok = files[c.File]; !ok {
				return errors.Errorf("chunks[%d]: unknown file %q", i, c.File)
			}
		}
		align := c.Align
		if align == 0 {
			align = 1
		}
		if !isPowerOfTwo(align) {
			return errors.Errorf("chunks[%d]: alignment %#x is not a power of two", i, align)
		}

		isec := linker.NewInputSection(c.Name, fid, c.Size, align)
		if c.Offset != nil {
			isec.Offset = *c.Offset
		}
		osec.AddMember(isec)
	}

	if s.Merged != nil {
		m := linker.GetMergedSectionInstance(ctx, s.Merged.Name, uint32(typ),
			flags|uint64(elf.SHF_MERGE)|uint64(elf.SHF_STRINGS))
		if m.InputSection.OutputSection != nil {
			return errors.Errorf("merged section %s is already placed in %s",
				m.Name, m.InputSection.OutputSection.Name)
		}
		for _, str := range s.Merged.Strings {
			m.Insert(str, s.Merged.P2Align)
		}
		osec.AddMember(m.InputSection)
	}
	return nil
}

func findChunk(ctx *linker.Context, section string, idx int) (*linker.InputSection, error) {
	osec := linker.FindOutputSection(ctx, section)
	if osec == nil {
		return nil, errors.Errorf("unknown section %q", section)
	}
	if idx < 0 || idx >= len(osec.Members) {
		return nil, errors.Errorf("section %s has no chunk %d", section, idx)
	}
	return osec.Members[idx], nil
}

func addSymbol(ctx *linker.Context, s *Symbol) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	bind, ok := symbolBinds[strings.ToLower(s.Bind)]
	if !ok {
		return errors.Errorf("symbol %s: unknown binding %q", s.Name, s.Bind)
	}

	sym := linker.NewSymbol(s.Name)
	sym.Bind = bind
	sym.Size = s.Size

	switch {
	case s.Fragment != nil:
		osec := linker.FindOutputSection(ctx, s.Section)
		if osec == nil {
			return errors.Errorf("symbol %s: unknown section %q", s.Name, s.Section)
		}
		frag := findFragment(ctx, osec, *s.Fragment)
		if frag == nil {
			return errors.Errorf("symbol %s: section %s has no merged fragment %q", s.Name, s.Section, *s.Fragment)
		}
		sym.SetInputSection(frag.Merged.InputSection)
		sym.Value = frag.GetAddr()
	case s.Section != "" || s.Chunk != nil:
		if s.Chunk == nil {
			return errors.Errorf("symbol %s: chunk index is required with a section", s.Name)
		}
		isec, err := findChunk(ctx, s.Section, *s.Chunk)
		if err != nil {
			return errors.Wrapf(err, "symbol %s", s.Name)
		}
		sym.SetInputSection(isec)
		switch {
		case s.Addr != nil:
			sym.Value = *s.Addr
		case s.Value != nil:
			sym.Value = isec.GetAddr() + *s.Value
		default:
			return errors.Errorf("symbol %s: addr or value is required", s.Name)
		}
	default:
		if s.Addr == nil {
			return errors.Errorf("symbol %s: absolute symbols need an addr", s.Name)
		}
		sym.Value = *s.Addr
	}

	if !linker.AddSymbol(ctx, sym) {
		return errors.Errorf("duplicate symbol %s", s.Name)
	}
	return nil
}

func findFragment(ctx *linker.Context, osec *linker.OutputSection, key string) *linker.SectionFragment {
	for _, m := range ctx.MergedSections {
		if m.InputSection.OutputSection != osec {
			continue
		}
		if frag, ok := m.Map[key]; ok {
			return frag
		}
	}
	return nil
}
