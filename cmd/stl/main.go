// Command stl is a short alias for steploom.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

const target = "steploom"

func main() {
	self, _ := os.Executable()
	bin, err := resolve(self, exec.LookPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stl: %v\n", err)
		os.Exit(1)
	}
	argv := append([]string{target}, os.Args[1:]...)
	if err := syscall.Exec(bin, argv, os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "stl: exec %s: %v\n", bin, err)
		os.Exit(1)
	}
}

// resolve prefers a steploom binary installed next to self, so a release
// unpacked into one directory works without touching PATH.
func resolve(self string, lookPath func(string) (string, error)) (string, error) {
	if self != "" {
		sibling := filepath.Join(filepath.Dir(self), target)
		if info, err := os.Stat(sibling); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return sibling, nil
		}
	}
	bin, err := lookPath(target)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%s not found next to %s or on PATH", target, filepath.Base(self))
		}
		return "", err
	}
	return bin, nil
}
