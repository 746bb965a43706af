// Package archive serializes anchors and journeys to a self-describing
// external file so they survive outside the store.
package archive

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pders01/capstan/internal/errs"
	"github.com/pders01/capstan/internal/models"
	"github.com/pders01/capstan/internal/store"
	"github.com/spf13/afero"
)

// Format identifies the envelope schema.
const Format = "capstan/v1"

// Envelope kinds.
const (
	KindAnchor  = "anchor"
	KindJourney = "journey"
)

// Envelope is the on-disk export format. Anchor envelopes carry the
// referenced blobs inline (base64 by hash) so an exported anchor is
// restorable anywhere; journey envelopes are the journey record itself.
type Envelope struct {
	Format     string            `json:"format"`
	Kind       string            `json:"kind"`
	ExportedAt time.Time         `json:"exported_at"`
	Anchor     *models.Anchor    `json:"anchor,omitempty"`
	Blobs      map[string]string `json:"blobs,omitempty"`
	Journey    *models.Journey   `json:"journey,omitempty"`
}

// ExportAnchor writes an anchor and its blobs to path.
func ExportAnchor(fsys afero.Fs, st *store.Store, a *models.Anchor, path string) error {
	blobs := make(map[string]string)
	for _, f := range a.Files {
		if f.Unreadable || f.Hash == "" {
			continue
		}
		if _, ok := blobs[f.Hash]; ok {
			continue
		}
		data, err := st.Get(f.Hash)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", f.Path, err)
		}
		blobs[f.Hash] = base64.StdEncoding.EncodeToString(data)
	}
	return write(fsys, path, &Envelope{
		Format:     Format,
		Kind:       KindAnchor,
		ExportedAt: time.Now().UTC(),
		Anchor:     a,
		Blobs:      blobs,
	})
}

// ExportJourney writes a journey to path.
func ExportJourney(fsys afero.Fs, j *models.Journey, path string) error {
	return write(fsys, path, &Envelope{
		Format:     Format,
		Kind:       KindJourney,
		ExportedAt: time.Now().UTC(),
		Journey:    j,
	})
}

// Read loads and validates an envelope from path.
func Read(fsys afero.Fs, path string) (*Envelope, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%s is not a capstan archive: %w", path, err)
	}
	if env.Format != Format {
		return nil, fmt.Errorf("%s: unsupported archive format %q", path, env.Format)
	}
	switch env.Kind {
	case KindAnchor:
		if env.Anchor == nil {
			return nil, fmt.Errorf("%s: anchor archive without anchor payload", path)
		}
	case KindJourney:
		if env.Journey == nil {
			return nil, fmt.Errorf("%s: journey archive without journey payload", path)
		}
	default:
		return nil, fmt.Errorf("%s: unknown archive kind %q", path, env.Kind)
	}
	return &env, nil
}

// RestoreBlobs writes an anchor envelope's blobs into the store, verifying
// that each decodes to the hash it was filed under.
func RestoreBlobs(env *Envelope, st *store.Store) error {
	for hash, encoded := range env.Blobs {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("blob %s: %w", hash, errs.ErrDataIntegrity)
		}
		got, err := st.PutBytes(data)
		if err != nil {
			return err
		}
		if got != hash {
			return fmt.Errorf("blob %s hashed to %s on import: %w", hash, got, errs.ErrDataIntegrity)
		}
	}
	return nil
}

func write(fsys afero.Fs, path string, env *Envelope) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal archive: %w", err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
