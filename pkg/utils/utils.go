package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var fatalLabel = color.New(color.Bold, color.FgRed).SprintFunc()

func Fatal(v any) {
	fmt.Fprintf(os.Stderr, "rvmap:\n\t%s: %v\n", fatalLabel("fatal"), v)
	os.Exit(1)
}

func MustNo(err error) {
	if err != nil {
		Fatal(err)
	}
}

func Assert(condition bool) {
	if !condition {
		Fatal("assert failed")
	}
}

// align 必须是 2 的幂，0 视同 1
func AlignTo(val, align uint64) uint64 {
	if align == 0 {
		return val
	}
	return (val + align - 1) &^ (align - 1)
}

func RemovePrefix(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
