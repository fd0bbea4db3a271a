//go:build !windows

package opener

import (
	"os/exec"
	"runtime"
)

var defaultOpeners = []string{
	"xdg-open",
	"gio",
	"nautilus",
	"dolphin",
	"thunar",
}

func findPlatformOpener(path string) (string, []string) {
	if runtime.GOOS == "darwin" {
		return "open", []string{path}
	}

	for _, program := range defaultOpeners {
		if _, err := exec.LookPath(program); err == nil {
			if program == "gio" {
				return program, []string{"open", path}
			}
			return program, []string{path}
		}
	}
	return "", nil
}
