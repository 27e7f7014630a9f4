package graphing

import (
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

// openCommand returns the platform command that opens path in the default
// browser.
func openCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

// Open shows the rendered page in the default browser without waiting for it.
func Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve plot path %s", path)
	}
	name, args := openCommand(runtime.GOOS, abs)
	if err := exec.Command(name, args...).Start(); err != nil {
		return errors.Wrapf(err, "failed to open plot with %s", name)
	}
	return nil
}
