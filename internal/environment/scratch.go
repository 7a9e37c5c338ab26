package environment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/theseusxyz/theseus/internal/eventlog"
)

// NewScratchLocal builds a Local environment rooted at a fresh temporary
// directory, seeded by copying files into it first. Supplemented from
// original_source's TempDirShellEnvironment (SPEC_FULL.md SUPPLEMENTED
// FEATURES #1): useful for sandboxed one-off tool evaluation without
// touching the working tree.
func NewScratchLocal(log *eventlog.Log, seedFiles []string) (*Local, error) {
	dir, err := os.MkdirTemp("", "theseus-scratch-*")
	if err != nil {
		return nil, fmt.Errorf("scratch environment: mkdtemp: %w", err)
	}

	for _, src := range seedFiles {
		if err := copyAnything(src, dir); err != nil {
			return nil, fmt.Errorf("scratch environment: seeding %s: %w", src, err)
		}
	}

	return NewLocal(log, dir), nil
}

// copyAnything mirrors the original's copyanything(): copy a directory
// tree, or fall back to a single file copy.
func copyAnything(src, dstDir string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return copyTree(src, filepath.Join(dstDir, filepath.Base(src)))
	}
	return copyFile(src, filepath.Join(dstDir, filepath.Base(src)))
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
