package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the turnstile banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _                      _   _ _     ", "#818cf8"},
		{"| |_ _   _ _ __ _ __  ___| |_(_) | ___", "#a78bfa"},
		{"| __| | | | '__| '_ \\/ __| __| | |/ _ \\", "#c084fc"},
		{"| |_| |_| | |  | | | \\__ \\ |_| | |  __/", "#e879f9"},
		{" \\__|\\__,_|_|  |_| |_|___/\\__|_|_|\\___|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
