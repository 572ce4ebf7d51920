package vm

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ByteSource supplies raw class file bytes by binary name.
type ByteSource interface {
	// ClassBytes returns the bytes of the named class, or a *NotFoundError
	// if this source does not have it.
	ClassBytes(name string) ([]byte, error)
}

// DirSource serves classes from .class files under a root directory,
// following the usual package-to-directory mapping.
type DirSource struct {
	Root string
}

func (s *DirSource) ClassBytes(name string) ([]byte, error) {
	path := filepath.Join(s.Root, filepath.FromSlash(name)+".class")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{Name: name}
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// JmodSource serves classes from a .jmod archive such as java.base.jmod. A
// jmod is a zip archive behind a 4-byte magic header, with classes under the
// classes/ prefix. The archive is read once, on first use.
type JmodSource struct {
	Path string

	once    sync.Once
	zr      *zip.Reader
	initErr error
}

// jmod magic: "JM" followed by a 2-byte version
var jmodMagic = []byte{'J', 'M', 0x01, 0x00}

func (s *JmodSource) init() {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		s.initErr = fmt.Errorf("opening jmod %s: %w", s.Path, err)
		return
	}
	if len(data) < len(jmodMagic) || !bytes.Equal(data[:len(jmodMagic)], jmodMagic) {
		s.initErr = fmt.Errorf("jmod %s: missing JM header", s.Path)
		return
	}
	payload := data[len(jmodMagic):]
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		s.initErr = fmt.Errorf("reading jmod %s: %w", s.Path, err)
		return
	}
	s.zr = zr
}

func (s *JmodSource) ClassBytes(name string) ([]byte, error) {
	s.once.Do(s.init)
	if s.initErr != nil {
		return nil, s.initErr
	}
	f, err := s.zr.Open("classes/" + name + ".class")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{Name: name}
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// MultiSource consults sources in order, falling through on NotFoundError
// only. Any other error stops the search.
type MultiSource []ByteSource

func (m MultiSource) ClassBytes(name string) ([]byte, error) {
	for _, s := range m {
		data, err := s.ClassBytes(name)
		if err == nil {
			return data, nil
		}
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}
	return nil, &NotFoundError{Name: name}
}
