package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Mirror is the remote copy of the archive index. Reads treat the mirror as
// authoritative; writes treat the local file as authoritative and push the
// result back. A nil download result means the mirror has no index yet.
type Mirror interface {
	Download(ctx context.Context) ([]byte, error)
	Upload(ctx context.Context, data []byte) error
}

// FileMirror mirrors the index to a path on a mounted share. It is the
// default Mirror implementation; deployments with object storage supply
// their own.
type FileMirror struct {
	Path string
}

func (m *FileMirror) Download(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(m.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (m *FileMirror) Upload(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(m.Path), 0o755); err != nil {
		return err
	}
	return writeAtomic(m.Path, data)
}

// IndexStore owns the local index file and its optional remote mirror. The
// index is a cross-process shared resource; a single build run holds it as a
// short-lived exclusive checkout (Checkout, mutate in memory, Commit) and
// runs are serialized externally per deployment. There is no fine-grained
// locking inside a checkout.
type IndexStore struct {
	Path   string
	Mirror Mirror // nil when no remote is configured
}

// Checkout loads the current index snapshot. With a mirror configured, the
// remote copy is downloaded first so the snapshot starts from the latest
// state another deployment may have pushed. A missing file on both sides
// yields an empty index, not an error.
func (s *IndexStore) Checkout(ctx context.Context) (*Index, error) {
	if s.Mirror != nil {
		data, err := s.Mirror.Download(ctx)
		if err != nil {
			return nil, fmt.Errorf("downloading archive index mirror: %w", err)
		}
		if data != nil {
			if err := writeAtomic(s.Path, data); err != nil {
				return nil, fmt.Errorf("refreshing local archive index: %w", err)
			}
		}
	}

	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewIndex(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening archive index: %w", err)
	}
	defer f.Close()

	return ParseIndex(f)
}

// Commit writes the snapshot back atomically (temp file + rename) and pushes
// it to the mirror. A failed mirror upload leaves the local file committed;
// the next Checkout re-converges on whichever side is newer by downloading
// before reading.
func (s *IndexStore) Commit(ctx context.Context, ix *Index) error {
	var sb strings.Builder
	if _, err := ix.WriteTo(&sb); err != nil {
		return err
	}
	buf := []byte(sb.String())

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	if err := writeAtomic(s.Path, buf); err != nil {
		return fmt.Errorf("committing archive index: %w", err)
	}

	if s.Mirror != nil {
		if err := s.Mirror.Upload(ctx, buf); err != nil {
			return fmt.Errorf("uploading archive index mirror: %w", err)
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
