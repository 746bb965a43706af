package store

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pders01/capstan/internal/errs"
	"github.com/spf13/afero"
	"github.com/zeebo/xxh3"
)

const readBufSize = 32 * 1024 // streaming read buffer, keeps memory flat for large files

// Store is a content-addressed blob store. Blobs are keyed by the xxh3-128
// hash of their content, never by path, so any number of anchors can
// reference the same content without duplication.
type Store struct {
	fs  afero.Fs
	dir string // blob directory, e.g. .capstan/objects
}

// New creates a Store writing blobs under dir.
func New(fsys afero.Fs, dir string) *Store {
	return &Store{fs: fsys, dir: dir}
}

// HashFile streams a file through the hasher in bounded-size chunks and
// returns its content hash and size without storing anything.
func (s *Store) HashFile(path string) (string, int64, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := xxh3.New()
	n, err := io.CopyBuffer(h, f, make([]byte, readBufSize))
	if err != nil {
		return "", 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return hashString(h), n, nil
}

// Put stores the content of the file at path as a blob and returns its hash
// and size. The file is streamed once: bytes go through the hasher and into
// a temp file simultaneously, then the temp file is renamed into place.
// Identical content always lands under the identical key; a key that is
// already occupied by content of a different size is a hash collision and
// aborts with ErrDataIntegrity rather than overwriting.
func (s *Store) Put(path string) (string, int64, error) {
	src, err := s.fs.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create blob dir: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, s.dir, ".tmp-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp blob: %w", err)
	}
	tmpPath := tmp.Name()
	defer s.fs.Remove(tmpPath)

	h := xxh3.New()
	n, err := io.CopyBuffer(io.MultiWriter(h, tmp), src, make([]byte, readBufSize))
	if err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close temp blob: %w", err)
	}

	hash := hashString(h)
	if err := s.commit(tmpPath, hash, n); err != nil {
		return "", 0, err
	}
	return hash, n, nil
}

// PutBytes stores in-memory content under its content hash.
func (s *Store) PutBytes(data []byte) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob dir: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, s.dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp blob: %w", err)
	}
	tmpPath := tmp.Name()
	defer s.fs.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp blob: %w", err)
	}

	sum := xxh3.Hash128(data).Bytes()
	hash := hex.EncodeToString(sum[:])
	if err := s.commit(tmpPath, hash, int64(len(data))); err != nil {
		return "", err
	}
	return hash, nil
}

// commit moves a fully written temp blob to its content address. An existing
// blob under the same key must be byte-identical (dedup); anything else is a
// hash collision and aborts rather than silently dropping one content.
func (s *Store) commit(tmpPath, hash string, size int64) error {
	dst := s.blobPath(hash)
	if fi, err := s.fs.Stat(dst); err == nil {
		if fi.Size() != size {
			return fmt.Errorf("blob %s: size %d on disk, %d incoming: %w",
				hash, fi.Size(), size, errs.ErrDataIntegrity)
		}
		same, err := s.equalFiles(tmpPath, dst)
		if err != nil {
			return fmt.Errorf("failed to verify blob %s: %w", hash, err)
		}
		if !same {
			return fmt.Errorf("blob %s: two distinct contents under one key: %w",
				hash, errs.ErrDataIntegrity)
		}
		return nil
	}
	if err := s.fs.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("failed to commit blob %s: %w", hash, err)
	}
	return nil
}

// equalFiles compares two files byte for byte in bounded-size chunks.
func (s *Store) equalFiles(a, b string) (bool, error) {
	fa, err := s.fs.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()
	fb, err := s.fs.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	bufA := make([]byte, readBufSize)
	bufB := make([]byte, readBufSize)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if errA == nil && errB == nil {
			continue
		}
		if (errA == io.EOF || errA == io.ErrUnexpectedEOF) &&
			(errB == io.EOF || errB == io.ErrUnexpectedEOF) {
			return true, nil
		}
		if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
			return false, errA
		}
		return false, errB
	}
}

// Get retrieves a blob by hash, re-verifying its content on the way out.
func (s *Store) Get(hash string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.blobPath(hash))
	if err != nil {
		if _, statErr := s.fs.Stat(s.blobPath(hash)); statErr != nil {
			return nil, fmt.Errorf("blob %s: %w", hash, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", hash, err)
	}
	sum := xxh3.Hash128(data).Bytes()
	if hex.EncodeToString(sum[:]) != hash {
		return nil, fmt.Errorf("blob %s is corrupted: %w", hash, errs.ErrDataIntegrity)
	}
	return data, nil
}

// Has reports whether a blob exists for hash.
func (s *Store) Has(hash string) bool {
	_, err := s.fs.Stat(s.blobPath(hash))
	return err == nil
}

func (s *Store) blobPath(hash string) string {
	return filepath.Join(s.dir, hash+".bin")
}

func hashString(h *xxh3.Hasher) string {
	sum := h.Sum128().Bytes()
	return hex.EncodeToString(sum[:])
}
