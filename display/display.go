// Package display prints colored, human readable output for the CLI.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

const separator = "==========================================================="

var (
	title   = color.New(color.FgHiBlue, color.Bold)
	key     = color.New(color.FgHiBlack)
	good    = color.New(color.FgHiGreen)
	bad     = color.New(color.FgHiRed)
	warning = color.New(color.FgHiYellow)

	now = time.Now
)

// PrintfWithTime 打印带时间前缀的一行
func PrintfWithTime(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, "[%s] %s", now().Format("15:04:05"), fmt.Sprintf(format, a...))
}

func Section(w io.Writer, name string) {
	fmt.Fprintln(w, separator)
	title.Fprintln(w, name+":")
}

// Fields prints name/value pairs with the values aligned.
func Fields(w io.Writer, pairs ...[2]string) {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	for _, p := range pairs {
		key.Fprintf(w, "%-*s", width+2, p[0]+":")
		fmt.Fprintf(w, "%s\n", p[1])
	}
}

func Success(w io.Writer, format string, a ...interface{}) {
	good.Fprintf(w, format+"\n", a...)
}

func Failure(w io.Writer, format string, a ...interface{}) {
	bad.Fprintf(w, format+"\n", a...)
}

func Warn(w io.Writer, format string, a ...interface{}) {
	warning.Fprintf(w, format+"\n", a...)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
