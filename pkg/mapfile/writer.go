package mapfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/ksco/rvmap/pkg/linker"
)

// Stdout 作为目标时直接写到标准输出，不经过临时文件
const Stdout = "-"

const defaultBufSize = 64 * 1024

// Digest 是输出内容的 xxhash64，供可复现构建的工具比对
type Result struct {
	Rows   int
	Bytes  int64
	Digest uint64
}

// WriteTo 把 ctx 的 link map 写到 w，dest 只用于错误信息
// 出错时 w 中可能已经有部分内容，需要调用方丢弃
func WriteTo(w io.Writer, dest string, ctx *linker.Context) (Result, error) {
	h := xxhash.New()
	r := NewRenderer(io.MultiWriter(w, h), dest)
	if err := r.Render(NewRowScanner(ctx)); err != nil {
		return Result{}, err
	}
	return Result{
		Rows:   r.Rows(),
		Bytes:  r.Bytes(),
		Digest: h.Sum64(),
	}, nil
}

type Writer struct {
	fs      afero.Fs
	stdout  io.Writer
	logger  log.Logger
	bufSize int
	perm    os.FileMode
}

func NewWriter(fs afero.Fs, logger log.Logger) *Writer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Writer{
		fs:      fs,
		stdout:  os.Stdout,
		logger:  logger,
		bufSize: defaultBufSize,
		perm:    0o644,
	}
}

// WriteMap 写到 ctx.Args.MapFile
func (w *Writer) WriteMap(ctx *linker.Context) (Result, error) {
	if ctx.Args.MapFile == Stdout {
		return w.writeStdout(ctx)
	}
	return w.WriteFile(ctx.Args.MapFile, ctx)
}

func (w *Writer) writeStdout(ctx *linker.Context) (Result, error) {
	bw := bufio.NewWriterSize(w.stdout, w.bufSize)
	res, err := WriteTo(bw, Stdout, ctx)
	if err != nil {
		return Result{}, err
	}
	if err := bw.Flush(); err != nil {
		return Result{}, &IOError{Dest: Stdout, Err: err}
	}
	w.logResult(Stdout, res)
	return res, nil
}

// WriteFile 先写到 dest 同目录下的临时文件，全部成功后再 rename 到 dest
// 任何一步失败都会删除临时文件，dest 不会被部分写入或者覆盖
func (w *Writer) WriteFile(dest string, ctx *linker.Context) (Result, error) {
	if err := w.checkDest(dest); err != nil {
		return Result{}, &IOError{Dest: dest, Err: err}
	}

	dir := filepath.Dir(dest)
	tmp, err := afero.TempFile(w.fs, dir, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return Result{}, &IOError{Dest: dest, Err: err}
	}
	tmpPath := tmp.Name()
	level.Debug(w.logger).Log("msg", "writing link map", "dest", dest, "tmp", tmpPath)

	fail := func(err error) (Result, error) {
		_ = tmp.Close()
		_ = w.fs.Remove(tmpPath)
		return Result{}, err
	}

	bw := bufio.NewWriterSize(tmp, w.bufSize)
	res, err := WriteTo(bw, dest, ctx)
	if err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(&IOError{Dest: dest, Err: err})
	}
	if err := tmp.Sync(); err != nil {
		return fail(&IOError{Dest: dest, Err: err})
	}
	if err := tmp.Close(); err != nil {
		_ = w.fs.Remove(tmpPath)
		return Result{}, &IOError{Dest: dest, Err: err}
	}
	_ = w.fs.Chmod(tmpPath, w.perm)
	if err := w.fs.Rename(tmpPath, dest); err != nil {
		_ = w.fs.Remove(tmpPath)
		return Result{}, &IOError{Dest: dest, Err: err}
	}

	w.logResult(dest, res)
	return res, nil
}

// rename 会绕过 dest 自身的权限，已经存在的 dest 必须是可写的普通文件
func (w *Writer) checkDest(dest string) error {
	fi, err := w.fs.Stat(dest)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return err
	case fi.IsDir():
		return errors.Errorf("%s is a directory", dest)
	case fi.Mode().Perm()&0o200 == 0:
		return &os.PathError{Op: "open", Path: dest, Err: os.ErrPermission}
	}
	return nil
}

func (w *Writer) logResult(dest string, res Result) {
	level.Info(w.logger).Log(
		"msg", "link map written",
		"dest", dest,
		"rows", res.Rows,
		"size", humanize.IBytes(uint64(res.Bytes)),
		"digest", fmt.Sprintf("%016x", res.Digest),
	)
}
