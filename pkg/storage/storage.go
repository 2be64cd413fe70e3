// Package storage is the persistence collaborator: path-based load and save
// of script documents. Format detection is structural, writes are atomic,
// and saved step-based scripts are canonical JSON unless pretty output is
// requested.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maglevlabs/mast/pkg/canonical"
	"github.com/maglevlabs/mast/pkg/migrate"
	"github.com/maglevlabs/mast/pkg/script"
)

// SaveOptions controls how a document is written.
type SaveOptions struct {
	// Pretty writes indented JSON for human editing instead of the
	// canonical single-line form.
	Pretty bool
}

// Load reads and classifies the script file at path. The returned document
// is legacy or step-based per its structure.
func Load(path string) (*script.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := script.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}

// LoadScript reads a step-based script from path. When autoMigrate is set a
// legacy file is converted in memory; otherwise it is an error naming the
// migrate path.
func LoadScript(path string, autoMigrate bool) (*script.TestScript, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	switch doc.Format {
	case script.FormatStep:
		return doc.Script, nil
	case script.FormatLegacy:
		if !autoMigrate {
			return nil, fmt.Errorf("%s is a legacy recording; run the migrate command first", path)
		}
		migrated, err := migrate.Migrate(doc.Legacy)
		if err != nil {
			return nil, fmt.Errorf("auto-migrate %s: %w", path, err)
		}
		return migrated, nil
	default:
		return nil, fmt.Errorf("%s: unrecognized script format", path)
	}
}

// Save writes a document to path atomically.
func Save(path string, doc *script.Document, opts SaveOptions) error {
	if doc == nil {
		return fmt.Errorf("save %s: nil document", path)
	}
	var v any
	switch doc.Format {
	case script.FormatStep:
		if doc.Script == nil {
			return fmt.Errorf("save %s: step document without script", path)
		}
		v = doc.Script
	case script.FormatLegacy:
		if doc.Legacy == nil {
			return fmt.Errorf("save %s: legacy document without script", path)
		}
		v = doc.Legacy
	default:
		return fmt.Errorf("save %s: unknown format %q", path, doc.Format)
	}

	var data []byte
	var err error
	if opts.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	} else {
		data, err = canonical.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return atomicWrite(path, data, 0644)
}

// SaveScript writes a step-based script to path atomically.
func SaveScript(path string, s *script.TestScript, opts SaveOptions) error {
	return Save(path, &script.Document{Format: script.FormatStep, Script: s}, opts)
}

// SaveLegacy writes a legacy script to path atomically.
func SaveLegacy(path string, l *script.LegacyScript, opts SaveOptions) error {
	return Save(path, &script.Document{Format: script.FormatLegacy, Legacy: l}, opts)
}

// atomicWrite lands data at path via a temp file and rename so a crash can
// never leave a half-written script.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-script-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	success = true
	return nil
}
