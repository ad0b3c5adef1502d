// Package photocorpus reads the per-identity photo folders used by a
// provisioning pass.
package photocorpus

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/viant/afs"
	afsurl "github.com/viant/afs/url"
	"go.uber.org/zap"
)

// ErrRootNotFound is returned when the corpus root does not exist.
var ErrRootNotFound = errors.New("photocorpus: root directory not found")

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// IsImage reports whether name carries a recognized image extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// Folder is one identity folder and its ordered photo references.
type Folder struct {
	Name   string
	Photos []string
}

// Manifest is a snapshot of the corpus. Folders without photos are kept so
// that reconciliation still treats their identity as present.
type Manifest struct {
	Root    string
	Folders []Folder
}

// Has reports whether a folder with the given name exists in the snapshot.
func (m Manifest) Has(name string) bool {
	for _, f := range m.Folders {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Names returns all folder names, including empty ones.
func (m Manifest) Names() []string {
	out := make([]string, 0, len(m.Folders))
	for _, f := range m.Folders {
		out = append(out, f.Name)
	}
	return out
}

// ContentRefs maps a corpus file to the reference stored on the profile.
// When PublicBaseURL is set the file is assumed to be uploaded there under
// the same folder/file layout, otherwise StaticPrefix is used.
type ContentRefs struct {
	PublicBaseURL string
	StaticPrefix  string
}

const defaultStaticPrefix = "/uploads"

func (c ContentRefs) Ref(folder, file string) string {
	rel := url.PathEscape(folder) + "/" + url.PathEscape(file)
	if base := strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/"); base != "" {
		return base + "/" + rel
	}
	prefix := strings.TrimRight(strings.TrimSpace(c.StaticPrefix), "/")
	if prefix == "" {
		prefix = defaultStaticPrefix
	}
	return prefix + "/" + rel
}

// Loader enumerates identity folders through an afs.Service, so the root
// may be a local path or any URL afs can list.
type Loader struct {
	fs     afs.Service
	refs   ContentRefs
	logger *zap.Logger
}

func NewLoader(fs afs.Service, refs ContentRefs, logger *zap.Logger) (*Loader, error) {
	if fs == nil {
		return nil, errors.New("photocorpus: file system must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{fs: fs, refs: refs, logger: logger}, nil
}

// Load lists the immediate subdirectories of root and their image files in
// ascending filename order.
func (l *Loader) Load(ctx context.Context, root string) (Manifest, error) {
	root, err := normalizeRoot(root)
	if err != nil {
		return Manifest{}, err
	}
	exists, err := l.fs.Exists(ctx, root)
	if err != nil {
		return Manifest{}, fmt.Errorf("photocorpus: stat %s: %w", root, err)
	}
	if !exists {
		return Manifest{}, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	obj, err := l.fs.Object(ctx, root)
	if err != nil {
		return Manifest{}, fmt.Errorf("photocorpus: stat %s: %w", root, err)
	}
	if !obj.IsDir() {
		return Manifest{}, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}

	entries, err := l.fs.List(ctx, root)
	if err != nil {
		return Manifest{}, fmt.Errorf("photocorpus: list %s: %w", root, err)
	}

	manifest := Manifest{Root: root}
	for _, e := range entries {
		if !e.IsDir() || samePath(e.URL(), root) {
			continue
		}
		photos, err := l.listPhotos(ctx, e.URL(), e.Name())
		if err != nil {
			return Manifest{}, err
		}
		l.logger.Debug("photo folder listed", zap.String("folder", e.Name()), zap.Int("photos", len(photos)))
		manifest.Folders = append(manifest.Folders, Folder{Name: e.Name(), Photos: photos})
	}
	slices.SortFunc(manifest.Folders, func(a, b Folder) int { return strings.Compare(a.Name, b.Name) })
	return manifest, nil
}

func (l *Loader) listPhotos(ctx context.Context, folderURL, folder string) ([]string, error) {
	files, err := l.fs.List(ctx, folderURL)
	if err != nil {
		return nil, fmt.Errorf("photocorpus: list %s: %w", folderURL, err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		if f.IsDir() || !IsImage(f.Name()) {
			continue
		}
		names = append(names, f.Name())
	}
	slices.Sort(names)

	refs := make([]string, 0, len(names))
	for _, name := range names {
		refs = append(refs, l.refs.Ref(folder, name))
	}
	return refs, nil
}

func normalizeRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", fmt.Errorf("%w: empty path", ErrRootNotFound)
	}
	if afsurl.Scheme(root, "") != "" {
		return root, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("photocorpus: resolve %s: %w", root, err)
	}
	return abs, nil
}

// samePath reports whether a listed entry is the listed location itself.
func samePath(a, b string) bool {
	return strings.TrimRight(afsurl.Path(a), "/") == strings.TrimRight(afsurl.Path(b), "/")
}
