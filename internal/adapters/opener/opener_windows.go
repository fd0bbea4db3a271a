//go:build windows

package opener

func findPlatformOpener(path string) (string, []string) {
	return "explorer.exe", []string{path}
}
