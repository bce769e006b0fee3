// Package fardstore implements the content-addressed bundle store
// contract of spec §6: put a value, get back its CID; get a CID, get
// back its value, or ERROR_STORE_MISSING if nothing was ever put under
// it.
//
// This is a structural simplification of the teacher's
// offline/replay.BundleManifest / CreateBundle / VerifyBundle machinery:
// the teacher bundles many checksummed input files (a binary, a worker,
// a test matrix, a vector set) into one tar.gz with a JSON manifest
// because none of those inputs are self-describing on their own. A FARD
// witness is already self-describing — ENC(v) plus its own CID is a
// complete, verifiable unit — so DirStore needs only one file per value,
// written through internal/wfe1's envelope and atomic-rename discipline,
// with no separate manifest file at all.
package fardstore

import (
	"os"
	"path/filepath"

	"github.com/fard-lang/fard/internal/digest"
	"github.com/fard-lang/fard/internal/ferr"
	"github.com/fard-lang/fard/internal/value"
	"github.com/fard-lang/fard/internal/wfe1"
)

// Store is the bundle store contract: content-addressed put/get.
type Store interface {
	Put(v value.V) (string, error)
	Get(cid string) (value.V, error)
}

// MemStore is an in-memory Store, useful for tests and for running a
// bundle without touching disk at all.
type MemStore struct {
	blobs map[string]value.V
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string]value.V)}
}

// Put stores v under its own CID and returns it.
func (s *MemStore) Put(v value.V) (string, error) {
	cid := digest.VDIG(v)
	s.blobs[cid] = v
	return cid, nil
}

// Get returns the value stored under cid.
func (s *MemStore) Get(cid string) (value.V, error) {
	v, ok := s.blobs[cid]
	if !ok {
		return value.V{}, ferr.New(ferr.ErrorStoreMissing, -1, "no value stored under "+cid)
	}
	return v, nil
}

// DirStore is a Store backed by a directory: one WFE1 file per value,
// named after its CID's hex digest.
type DirStore struct {
	dir string
}

// NewDirStore opens (creating if necessary) a directory-backed store.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ferr.Wrap(ferr.InternalIO, -1, "create store directory", err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) pathFor(cid string) string {
	return filepath.Join(s.dir, cidFileName(cid)+".wfe1")
}

// cidFileName strips the "sha256:" scheme prefix from a CID so it is
// safe to use as a bare filename across filesystems.
func cidFileName(cid string) string {
	const prefix = "sha256:"
	if len(cid) > len(prefix) && cid[:len(prefix)] == prefix {
		return cid[len(prefix):]
	}
	return cid
}

// Put writes v to its own file, named by its CID, and returns the CID.
func (s *DirStore) Put(v value.V) (string, error) {
	cid := digest.VDIG(v)
	path := s.pathFor(cid)
	if _, err := os.Stat(path); err == nil {
		return cid, nil // content-addressed: identical content is already stored
	}
	if err := wfe1.WriteWitness(path, v); err != nil {
		return "", ferr.Wrap(ferr.InternalIO, -1, "write store entry", err)
	}
	return cid, nil
}

// Get reads back the value stored under cid.
func (s *DirStore) Get(cid string) (value.V, error) {
	path := s.pathFor(cid)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return value.V{}, ferr.New(ferr.ErrorStoreMissing, -1, "no value stored under "+cid)
		}
		return value.V{}, ferr.Wrap(ferr.InternalIO, -1, "read store entry", err)
	}
	body := data
	if len(body) > 0 && body[len(body)-1] == '\n' {
		body = body[:len(body)-1]
	}
	v, err := value.Decode(body)
	if err != nil {
		return value.V{}, ferr.Wrap(ferr.InternalIO, -1, "decode store entry", err)
	}
	got := digest.VDIG(v)
	if got != cid {
		return value.V{}, ferr.New(ferr.InternalError, -1, "store entry digest mismatch: stored under "+cid+" but content hashes to "+got)
	}
	return v, nil
}
