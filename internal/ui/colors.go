// Package ui holds the ANSI styles of the command line output.
package ui

const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

func style(code, s string) string {
	return code + s + ColorReset
}

func Bold(s string) string { return style(ColorBold, s) }

// Success marks completed actions
func Success(s string) string { return style(ColorGreen, s) }

// Info is for hints next to the real output, such as how to create a session
func Info(s string) string { return style(ColorDim+ColorYellow, s) }

// Warn marks output that is usable but degraded, like a page fetched without the session
func Warn(s string) string { return style(ColorYellow, s) }

func Error(s string) string { return style(ColorRed, s) }

// Dim is for ids, dates and other secondary columns
func Dim(s string) string { return style(ColorDim, s) }
