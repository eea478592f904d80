package core

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"plugin"
	"strings"
)

// Directories never descended into during extension discovery
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"vendor":       true,
	"testdata":     true,
	"node_modules": true,
	"__pycache__":  true,
}

// extensionSymbol is the constructor an extension plugin must export
const extensionSymbol = "NewCommunicator"

// DiscoverExtensions scans directories for communicator extensions built as
// Go plugins (*.so), registering each under its file's base name. One bad
// plugin is logged and skipped; it never blocks discovery of the others.
// Returns the type names registered.
func (r *CommunicatorRegistry) DiscoverExtensions(dirs ...string) ([]string, error) {
	var registered []string

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				r.logger.Warn("Skipping unreadable path during extension discovery", map[string]interface{}{
					"path":  path,
					"error": err.Error(),
				})
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != dir && skipDirs[d.Name()] {
					return fs.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(d.Name(), ".so") {
				return nil
			}

			name := strings.TrimSuffix(d.Name(), ".so")
			if err := r.loadExtension(name, path); err != nil {
				r.logger.Warn("Failed to load communicator extension", map[string]interface{}{
					"path":  path,
					"error": err.Error(),
				})
				return nil
			}
			registered = append(registered, name)
			return nil
		})
		if err != nil {
			return registered, fmt.Errorf("extension discovery failed in %s: %w", dir, err)
		}
	}

	return registered, nil
}

func (r *CommunicatorRegistry) loadExtension(name, path string) error {
	p, err := plugin.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open plugin: %w", err)
	}

	sym, err := p.Lookup(extensionSymbol)
	if err != nil {
		return fmt.Errorf("plugin exports no %s symbol: %w", extensionSymbol, err)
	}

	factory, ok := sym.(func(*Config) (Communicator, error))
	if !ok {
		return fmt.Errorf("plugin symbol %s has wrong type %T", extensionSymbol, sym)
	}

	r.RegisterExtension(name, CommunicatorFactory(factory))
	r.logger.Info("Discovered communicator extension", map[string]interface{}{
		"type": name,
		"path": path,
	})
	return nil
}
