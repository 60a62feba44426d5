package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/afero"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ksco/rvmap/pkg/linker"
	"github.com/ksco/rvmap/pkg/mapfile"
	"github.com/ksco/rvmap/pkg/snapshot"
	"github.com/ksco/rvmap/pkg/utils"
)

var version string

var cfg struct {
	snapshot      string
	mapFile       string
	includeLocals bool
	mapFatal      bool
	summary       bool
	verbose       bool
}

func main() {
	app := kingpin.New(filepath.Base(os.Args[0]), "Generate the link map of a finalized linker layout.").UsageWriter(os.Stdout)
	app.Version(fmt.Sprintf("rvmap %s", version))
	app.HelpFlag.Short('h')
	app.Flag("map", "Write the link map to this path, '-' for stdout.").Short('M').StringVar(&cfg.mapFile)
	app.Flag("include-locals", "Also list local symbols.").BoolVar(&cfg.includeLocals)
	app.Flag("map-fatal", "Exit non-zero when the link map cannot be written.").BoolVar(&cfg.mapFatal)
	app.Flag("summary", "Print the per-input size contribution table to stdout.").BoolVar(&cfg.summary)
	app.Flag("verbose", "Enable debug logging.").Short('v').BoolVar(&cfg.verbose)
	app.Arg("snapshot", "Layout snapshot (YAML).").Required().StringVar(&cfg.snapshot)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if cfg.verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	fs := afero.NewOsFs()
	ctx, err := snapshot.Load(fs, cfg.snapshot)
	utils.MustNo(err)
	level.Debug(logger).Log("msg", "layout loaded", "snapshot", cfg.snapshot,
		"sections", len(ctx.OutputSections), "symbols", len(ctx.Symbols))

	// 命令行选项覆盖 snapshot 中的 options
	if cfg.mapFile != "" {
		ctx.Args.MapFile = cfg.mapFile
	}
	ctx.Args.IncludeLocals = ctx.Args.IncludeLocals || cfg.includeLocals
	ctx.Args.MapFatal = ctx.Args.MapFatal || cfg.mapFatal

	if ctx.Args.MapFile == "" && !cfg.summary {
		utils.Fatal("no map destination, use --map or options.map")
	}
	if cfg.summary && ctx.Args.MapFile == mapfile.Stdout {
		utils.Fatal("--summary and --map=- both write to stdout")
	}

	if ctx.Args.MapFile != "" {
		writeMap(ctx, fs, logger)
	}

	if cfg.summary {
		contributions, err := mapfile.Summarize(ctx)
		utils.MustNo(err)
		utils.MustNo(mapfile.WriteSummary(os.Stdout, contributions))
	}
}

// map 写不出来不应该让整个链接失败，除非指定了 --map-fatal
func writeMap(ctx *linker.Context, fs afero.Fs, logger log.Logger) {
	_, err := mapfile.NewWriter(fs, logger).WriteMap(ctx)
	if err == nil {
		return
	}
	if ctx.Args.MapFatal {
		utils.Fatal(err)
	}

	kind := "io"
	if mapfile.IsLayoutInconsistency(err) {
		kind = "layout"
	}
	level.Warn(logger).Log("msg", "link map not written", "dest", ctx.Args.MapFile, "kind", kind, "err", err)
}
