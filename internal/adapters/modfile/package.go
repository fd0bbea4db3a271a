package modfile

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/renato0307/modshell/internal/domain"
)

// Well-known entries of a mod package
const (
	AOCDir     = "aoc"
	ContentDir = "content"
	MetaFile   = "meta.yml"
	RulesFile  = "rules.txt"
)

var thumbnailNames = []string{"thumb.jpg", "thumb.jpeg", "thumb.png"}

// pkg gives uniform read access to a mod directory or a zip archive.
// Names are slash separated and relative to the package root.
type pkg interface {
	Close() error
	Files() []string
	ReadFile(name string) ([]byte, error)
}

func openPackage(p string) (pkg, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", p, err)
	}

	if info.IsDir() {
		return openDir(p)
	}

	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidArchive, filepath.Base(p), err)
	}
	return &zipPackage{r: zr}, nil
}

type dirPackage struct {
	files []string
	root  string
}

func openDir(root string) (*dirPackage, error) {
	d := &dirPackage{root: root}
	err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		d.files = append(d.files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read mod directory: %w", err)
	}
	slices.Sort(d.files)
	return d, nil
}

func (d *dirPackage) Close() error    { return nil }
func (d *dirPackage) Files() []string { return d.files }

func (d *dirPackage) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.root, filepath.FromSlash(name)))
}

type zipPackage struct {
	r *zip.ReadCloser
}

func (z *zipPackage) Close() error { return z.r.Close() }

func (z *zipPackage) Files() []string {
	var files []string
	for _, f := range z.r.File {
		if !f.FileInfo().IsDir() {
			files = append(files, strings.TrimPrefix(f.Name, "./"))
		}
	}
	slices.Sort(files)
	return files
}

func (z *zipPackage) ReadFile(name string) ([]byte, error) {
	for _, f := range z.r.File {
		if strings.TrimPrefix(f.Name, "./") != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
}

// manifestOf lists the files under content/ and aoc/
func manifestOf(p pkg) domain.Manifest {
	var m domain.Manifest
	for _, f := range p.Files() {
		if rest, ok := strings.CutPrefix(f, ContentDir+"/"); ok && rest != "" {
			m.Content = append(m.Content, rest)
		} else if rest, ok := strings.CutPrefix(f, AOCDir+"/"); ok && rest != "" {
			m.AOC = append(m.AOC, rest)
		}
	}
	return m
}

// copyTree copies every file of p whose name passes keep into dst
func copyTree(p pkg, dst string, keep func(name string) bool) error {
	for _, name := range p.Files() {
		if !keep(name) {
			continue
		}
		target, err := safeJoin(dst, name)
		if err != nil {
			return err
		}
		data, err := p.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
	}
	return nil
}

// safeJoin joins a slash separated archive name to dir, refusing names that
// would escape it
func safeJoin(dir, name string) (string, error) {
	if name == "" || path.IsAbs(name) || slices.Contains(strings.Split(name, "/"), "..") {
		return "", fmt.Errorf("%w: illegal entry %q", domain.ErrInvalidArchive, name)
	}
	return filepath.Join(dir, filepath.FromSlash(path.Clean(name))), nil
}
