package mapfile

import (
	"fmt"

	"github.com/pkg/errors"
)

// LayoutInconsistencyError 表示上游给出的 layout 违反了遍历所依赖的不变量，
// 譬如 chunk 重叠、符号不落在任何 chunk 里。这是上游的 bug，map 无法修复它
type LayoutInconsistencyError struct {
	Section string
	Reason  string
}

func (e *LayoutInconsistencyError) Error() string {
	if e.Section == "" {
		return "layout inconsistency: " + e.Reason
	}
	return fmt.Sprintf("layout inconsistency in section %s: %s", e.Section, e.Reason)
}

func inconsistent(section string, format string, args ...any) error {
	return &LayoutInconsistencyError{
		Section: section,
		Reason:  fmt.Sprintf(format, args...),
	}
}

// IOError 表示目标无法打开或者写入失败，Dest 是目标路径
type IOError struct {
	Dest string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("writing link map to %s: %v", e.Dest, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func IsLayoutInconsistency(err error) bool {
	var target *LayoutInconsistencyError
	return errors.As(err, &target)
}

func IsIOError(err error) bool {
	var target *IOError
	return errors.As(err, &target)
}
