// Package archive packages a completed job's outputs into a single zip.
//
// Member names inside the archive are fixed literals, never derived from
// user input, so a hostile layout or board name can never smuggle a
// path-escaping entry into the archive.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Fixed member names.
const (
	MemberLayout   = "layout.json"
	MemberKeymap   = "keymap.c"
	MemberConfig   = "config.h"
	MemberLog      = "build.log"
	MemberManifest = "manifest.json"
)

// Member is one entry to package. Name must be one of the fixed literals.
type Member struct {
	Name string
	Data []byte
}

// Manifest describes the archive contents.
type Manifest struct {
	JobID     string    `json:"job_id"`
	BoardID   string    `json:"board_id"`
	Variant   string    `json:"variant,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Members   []string  `json:"members"`
}

// Pack writes the archive to path. The manifest is composed here and always
// appended last.
func Pack(path string, manifest Manifest, members ...Member) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", path, err)
	}
	defer f.Close()

	w := zip.NewWriter(f)

	for _, m := range members {
		if m.Data == nil {
			continue
		}
		manifest.Members = append(manifest.Members, m.Name)
		entry, err := w.Create(m.Name)
		if err != nil {
			return fmt.Errorf("creating archive member %s: %w", m.Name, err)
		}
		if _, err := entry.Write(m.Data); err != nil {
			return fmt.Errorf("writing archive member %s: %w", m.Name, err)
		}
	}

	manifest.Members = append(manifest.Members, MemberManifest)
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	entry, err := w.Create(MemberManifest)
	if err != nil {
		return fmt.Errorf("creating archive member %s: %w", MemberManifest, err)
	}
	if _, err := entry.Write(manifestJSON); err != nil {
		return fmt.Errorf("writing archive member %s: %w", MemberManifest, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return f.Sync()
}
