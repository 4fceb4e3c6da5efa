// Package cli holds the terminal helpers shared by the screenflow commands:
// banners for report headers and promptui pickers for interactive mode.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/amp-labs/screenflow/envutil"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	dividerLeft    = "┠"
	dividerMiddle  = "─"
	dividerRight   = "┨"
	ellipsis       = "…"
)

// Alignment of banner text.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

const (
	// DefaultTerminalWidth is used when the terminal size can't be read.
	DefaultTerminalWidth = 80

	borderWidth = 2
)

var suppressBanner = sync.OnceValue(func() bool { //nolint:gochecknoglobals
	return envutil.Bool("SCREENSTACK_NO_BANNER", envutil.Default(false)).ValueOrElse(false)
})

func autoWidth() int {
	_, w, err := TerminalDimensions()
	if err != nil || w == 0 {
		return DefaultTerminalWidth
	}

	return int(w) //nolint:gosec
}

// DividerAutoWidth is Divider sized to the terminal.
func DividerAutoWidth() string {
	return Divider(autoWidth())
}

// BannerAutoWidth is Banner sized to the terminal.
func BannerAutoWidth(s string, a Alignment) string {
	return Banner(s, autoWidth(), a)
}

// Divider returns a horizontal rule of the given width, newline terminated.
func Divider(width int) string {
	if width < borderWidth {
		return "\n"
	}

	return dividerLeft + strings.Repeat(dividerMiddle, width-borderWidth) + dividerRight + "\n"
}

// Banner draws s inside a box of the given width. Lines that don't fit are
// truncated with an ellipsis. With SCREENSTACK_NO_BANNER set, s is returned
// as is.
func Banner(s string, width int, alignment Alignment) string {
	if suppressBanner() {
		return s + "\n"
	}

	if width <= borderWidth {
		return ""
	}

	inner := width - borderWidth
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	parts := make([]string, 0, len(lines)+2) //nolint:mnd
	parts = append(parts, boxTopLeft+strings.Repeat(boxTop, inner)+boxTopRight)

	for _, l := range lines {
		parts = append(parts, boxSide+pad(l, inner, alignment)+boxSide)
	}

	parts = append(parts, boxBottomLeft+strings.Repeat(boxBottom, inner)+boxBottomRight)

	return strings.Join(parts, "\n") + "\n"
}

func countGraphic(s string) int {
	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}
	}

	return count
}

// truncateGraphic keeps the first n-1 graphic runes of s and appends an
// ellipsis, so the result is n runes wide.
func truncateGraphic(s string, n int) string {
	var out strings.Builder

	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}

		if count >= n {
			break
		}

		out.WriteRune(r)
	}

	return out.String() + ellipsis
}

func pad(text string, width int, alignment Alignment) string {
	length := countGraphic(text)
	if length > width {
		text = truncateGraphic(text, width)
		length = width
	}

	diff := width - length

	switch alignment {
	case AlignCenter:
		left := diff / 2 //nolint:mnd

		return strings.Repeat(" ", left) + text + strings.Repeat(" ", diff-left)
	case AlignRight:
		return strings.Repeat(" ", diff) + text
	case AlignLeft:
		fallthrough
	default:
		return text + strings.Repeat(" ", diff)
	}
}

// TerminalDimensions returns the controlling terminal's rows and columns.
func TerminalDimensions() (uint, uint, error) {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return 0, 0, err
	}

	defer func() {
		if err := tty.Close(); err != nil {
			slog.Debug("error closing /dev/tty", "error", err)
		}
	}()

	// Outputs: "rows columns"
	cmd := exec.Command("stty", "size")
	cmd.Stdin = tty

	out, err := cmd.Output()
	if err != nil {
		return 0, 0, err
	}

	return parseSize(string(out))
}

func parseSize(input string) (uint, uint, error) {
	fields := strings.Fields(input)
	if len(fields) != 2 { //nolint:mnd
		return 0, 0, fmt.Errorf("%w: unexpected stty output %q", strconv.ErrSyntax, input)
	}

	rows, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}

	cols, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}

	return uint(rows), uint(cols), nil
}
