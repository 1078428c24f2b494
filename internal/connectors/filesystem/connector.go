// Package filesystem provides a connector that reads documents from a
// local directory tree and watches it for changes with fsnotify.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("filesystem: connector closed")

// connectorType is the connector's type identifier.
const connectorType = "filesystem"

// Connector walks a root directory, skipping hidden files and directories.
type Connector struct {
	sourceID string
	rootPath string
	filter   func(path string) bool

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// Option configures the connector.
type Option func(*Connector)

// WithFilter keeps only files for which keep returns true.
func WithFilter(keep func(path string) bool) Option {
	return func(c *Connector) {
		c.filter = keep
	}
}

// New creates a filesystem connector rooted at rootPath.
func New(sourceID, rootPath string, opts ...Option) *Connector {
	c := &Connector{
		sourceID: sourceID,
		rootPath: rootPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return connectorType
}

// SourceID returns the configured source ID.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// RootPath returns the watched directory.
func (c *Connector) RootPath() string {
	return c.rootPath
}

// Validate checks the root path is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.checkRoot()
}

func (c *Connector) checkRoot() error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("root path does not exist: %s", c.rootPath)
		}
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path is not a directory: %s", c.rootPath)
	}
	return nil
}

func (c *Connector) keep(path string) bool {
	return c.filter == nil || c.filter(path)
}

// FullSync walks the tree and emits every visible file. Unreadable files
// are logged and skipped; a bad root or a cancelled context ends the
// walk with one error. Both channels are closed when the walk finishes.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.checkRoot(); err != nil {
			errs <- err
			return
		}

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("filesystem: skipping %s: %v", path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() || !c.keep(path) {
				return nil
			}

			raw, err := ReadFile(c.sourceID, path)
			if err != nil {
				logger.Warn("filesystem: %v", err)
				return nil
			}

			select {
			case docs <- *raw:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return docs, errs
}

// ReadFile reads one file into a raw document.
func ReadFile(sourceID, path string) (*domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return &domain.RawDocument{
		SourceID: sourceID,
		URI:      path,
		MIMEType: detectMIMEType(path),
		Content:  content,
		Metadata: map[string]any{
			"filename":  filepath.Base(path),
			"extension": strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
			"size":      info.Size(),
			"modified":  info.ModTime(),
		},
	}, nil
}

// Watch emits created, updated and deleted files under the root until
// ctx is cancelled or the connector is closed. New subdirectories are
// watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := c.checkRoot(); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", c.rootPath, err)
	}
	c.watcher = watcher

	changes := make(chan domain.RawDocumentChange)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && !c.hidden(event.Name) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := addTree(watcher, event.Name); err != nil {
							logger.Warn("filesystem: watch %s: %v", event.Name, err)
						}
						continue
					}
				}

				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("filesystem: watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// addTree watches root and every visible directory below it.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return fs.SkipDir
		}
		return watcher.Add(path)
	})
}

// handleFsEvent maps an fsnotify event to a document change.
// Directories, hidden paths, filtered files and chmod-only events yield nil.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	if c.hidden(event.Name) || !c.keep(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.RawDocumentChange{
			Type: domain.ChangeDeleted,
			Document: domain.RawDocument{
				SourceID: c.sourceID,
				URI:      event.Name,
				MIMEType: detectMIMEType(event.Name),
			},
		}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		raw, err := ReadFile(c.sourceID, event.Name)
		if err != nil {
			// Directories and files removed before the read land here.
			return nil
		}
		changeType := domain.ChangeUpdated
		if event.Has(fsnotify.Create) {
			changeType = domain.ChangeCreated
		}
		return &domain.RawDocumentChange{Type: changeType, Document: *raw}
	default:
		return nil
	}
}

// Close stops any active watch. It is safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

// hidden checks path relative to the root, so a root inside a dot
// directory still has visible files.
func (c *Connector) hidden(path string) bool {
	if rel, err := filepath.Rel(c.rootPath, path); err == nil {
		return isHidden(rel)
	}
	return isHidden(path)
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// fallbackMIMETypes covers extensions the system MIME table often lacks.
var fallbackMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".ts":       "text/typescript",
	".tsx":      "text/typescript-jsx",
	".jsx":      "text/javascript-jsx",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".bash":     "text/x-shellscript",
	".sql":      "text/x-sql",
	".txt":      "text/plain",
	".json":     "application/json",
	".xml":      "application/xml",
	".pdf":      domain.MIMETypePDF,
	".docx":     domain.MIMETypeDOCX,
}

// detectMIMEType returns the MIME type for a file name without parameters.
// Files with no extension are treated as plain text.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}
	if mimeType, ok := fallbackMIMETypes[ext]; ok {
		return mimeType
	}
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		if i := strings.IndexByte(mimeType, ';'); i >= 0 {
			mimeType = mimeType[:i]
		}
		return strings.TrimSpace(mimeType)
	}
	return "application/octet-stream"
}
