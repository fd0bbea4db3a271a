package modfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/ports"
)

// Reader implements ports.ModReader for mod directories and zip archives.
//
// A native mod has a meta.yml at its root and its files under content/
// (base game) and aoc/ (DLC). Anything else has to go through Convert first.
type Reader struct {
	stagingDir string
}

// Verify interface compliance at compile time
var _ ports.ModReader = (*Reader)(nil)

// NewReader creates a Reader that stages converted mods under stagingDir
func NewReader(stagingDir string) *Reader {
	return &Reader{stagingDir: stagingDir}
}

// Parse implements ports.ModReader.Parse
func (r *Reader) Parse(path string) (*domain.Mod, error) {
	logging.Logger.Debug("Parsing mod", "path", path)

	p, err := openPackage(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	data, err := p.ReadFile(MetaFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingMeta, filepath.Base(path))
		}
		return nil, fmt.Errorf("failed to read %s: %w", MetaFile, err)
	}

	var meta domain.Meta
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", MetaFile, err)
	}
	if strings.TrimSpace(meta.Name) == "" {
		return nil, fmt.Errorf("%w: %s has no name", domain.ErrMetaRequired, MetaFile)
	}

	manifest := manifestOf(p)
	if manifest.Len() == 0 {
		return nil, fmt.Errorf("%w: no files under %s/ or %s/", domain.ErrInvalidArchive, ContentDir, AOCDir)
	}

	mod := &domain.Mod{
		Hash:     HashMeta(meta),
		Manifest: manifest,
		Meta:     meta,
		Path:     path,
	}
	mod.EnabledOptions = defaultOptions(meta)

	logging.Logger.Info("Mod parsed", "path", path, "hash", mod.Hash, "files", manifest.Len())
	return mod, nil
}

// Convert implements ports.ModReader.Convert. It turns a graphics pack style
// folder or zip (rules.txt plus content/ and aoc/) into a native mod under
// the staging directory.
func (r *Reader) Convert(path string, meta *domain.Meta) (string, error) {
	logging.Logger.Info("Converting mod", "path", path)

	p, err := openPackage(path)
	if err != nil {
		return "", err
	}
	defer p.Close()

	resolved, err := resolveMeta(p, meta)
	if err != nil {
		return "", err
	}
	if manifestOf(p).Len() == 0 {
		return "", fmt.Errorf("%w: no files under %s/ or %s/", domain.ErrInvalidArchive, ContentDir, AOCDir)
	}

	dst := filepath.Join(r.stagingDir, fmt.Sprintf("%s-%s", slug(resolved.Name), uuid.New().String()[:8]))
	if err := os.MkdirAll(dst, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	keep := func(name string) bool {
		return strings.HasPrefix(name, ContentDir+"/") || strings.HasPrefix(name, AOCDir+"/") || isThumbnail(name)
	}
	if err := copyTree(p, dst, keep); err != nil {
		_ = os.RemoveAll(dst)
		return "", fmt.Errorf("failed to stage mod files: %w", err)
	}

	data, err := yaml.Marshal(resolved)
	if err != nil {
		_ = os.RemoveAll(dst)
		return "", fmt.Errorf("failed to encode %s: %w", MetaFile, err)
	}
	if err := os.WriteFile(filepath.Join(dst, MetaFile), data, 0644); err != nil {
		_ = os.RemoveAll(dst)
		return "", fmt.Errorf("failed to write %s: %w", MetaFile, err)
	}

	logging.Logger.Info("Mod converted", "path", path, "staged", dst, "name", resolved.Name)
	return dst, nil
}

// Install implements ports.ModReader.Install. The mod ends up unpacked in
// dir/<hash>, replacing any previous copy.
func (r *Reader) Install(mod domain.Mod, dir string) (string, error) {
	p, err := openPackage(mod.Path)
	if err != nil {
		return "", err
	}
	defer p.Close()

	dst := filepath.Join(dir, string(mod.Hash))
	if err := os.RemoveAll(dst); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", dst, err)
	}
	if err := copyTree(p, dst, func(string) bool { return true }); err != nil {
		_ = os.RemoveAll(dst)
		return "", fmt.Errorf("failed to install mod %s: %w", mod.Hash, err)
	}

	logging.Logger.Info("Mod installed", "hash", mod.Hash, "path", dst)
	return dst, nil
}

// Preview implements ports.ModReader.Preview
func (r *Reader) Preview(path string) ([]byte, error) {
	p, err := openPackage(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	for _, name := range thumbnailNames {
		data, err := p.ReadFile(name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
	}
	return nil, nil
}

// HashMeta derives a mod's identity from its descriptive metadata
func HashMeta(meta domain.Meta) domain.Hash {
	h := xxhash.New()
	for _, part := range []string{meta.Name, meta.Version, meta.Author, meta.Category} {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0})
	}
	return domain.Hash(fmt.Sprintf("%016x", h.Sum64()))
}

// defaultOptions returns the options enabled by default in each group
func defaultOptions(meta domain.Meta) []string {
	var ids []string
	for _, group := range meta.OptionGroups {
		ids = append(ids, group.Defaults...)
	}
	return ids
}

func resolveMeta(p pkg, override *domain.Meta) (domain.Meta, error) {
	if override != nil {
		if strings.TrimSpace(override.Name) == "" {
			return domain.Meta{}, fmt.Errorf("%w: name is empty", domain.ErrMetaRequired)
		}
		return *override, nil
	}

	data, err := p.ReadFile(RulesFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Meta{}, fmt.Errorf("%w: no %s and no metadata given", domain.ErrMetaRequired, RulesFile)
		}
		return domain.Meta{}, fmt.Errorf("failed to read %s: %w", RulesFile, err)
	}

	meta, err := parseRules(data)
	if err != nil {
		return domain.Meta{}, err
	}
	if meta.Name == "" {
		return domain.Meta{}, fmt.Errorf("%w: %s has no name", domain.ErrMetaRequired, RulesFile)
	}
	return meta, nil
}

// parseRules reads the [Definition] section of a graphics pack rules.txt
func parseRules(data []byte) (domain.Meta, error) {
	var meta domain.Meta
	section := ""

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.Trim(line, "[]"))
			continue
		}
		if section != "definition" {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			meta.Name = value
		case "description":
			meta.Description = strings.ReplaceAll(value, "\\n", "\n")
		case "version":
			meta.Version = value
		case "path":
			// "The Legend of Zelda: Breath of the Wild/Mods/Category/Name"
			parts := strings.Split(value, "/")
			if len(parts) >= 2 {
				meta.Category = parts[len(parts)-2]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.Meta{}, fmt.Errorf("failed to read %s: %w", RulesFile, err)
	}
	return meta, nil
}

func isThumbnail(name string) bool {
	for _, t := range thumbnailNames {
		if name == t {
			return true
		}
	}
	return false
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "mod"
	}
	return s
}
