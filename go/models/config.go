package models

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	// host directory standing in for the EFI system partition
	ESPRoot string

	Color   bool
	Verbose bool
	Output  io.Writer

	// loader policies
	MergeOverlap   bool
	Rollback       bool
	SkipEntryCheck bool

	BootArgs         bool
	KeepBootServices bool
	PCIe             uint64
}

func (c *Config) resolveSymlink(path string) string {
	link, err := os.Lstat(path)
	if err == nil && link.Mode()&os.ModeSymlink != 0 {
		if linked, err := os.Readlink(path); err == nil {
			if !filepath.IsAbs(linked) {
				linked = filepath.Join(filepath.Dir(path), linked)
			}
			return linked
		}
	}
	return path
}

// PrefixPath maps a firmware path like \EFI\BOOT\x.efi onto the ESP directory.
// Parent references are dropped.
func (c *Config) PrefixPath(path string) string {
	var parts []string
	for _, p := range strings.FieldsFunc(path, func(r rune) bool { return r == '\\' || r == '/' }) {
		if p == "." || p == ".." {
			continue
		}
		parts = append(parts, p)
	}
	rel := filepath.Join(parts...)
	if c.ESPRoot == "" {
		return rel
	}
	return c.resolveSymlink(filepath.Join(c.ESPRoot, rel))
}
