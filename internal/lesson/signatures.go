package lesson

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
)

const signaturesFile = ".signatures.json"

// Signatures remembers a content hash of the source files behind every
// section file in an output directory.
type Signatures struct {
	path   string
	hashes map[string]string
}

func LoadSignatures(dir string) (*Signatures, error) {
	s := &Signatures{path: filepath.Join(dir, signaturesFile), hashes: map[string]string{}}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &s.hashes); err != nil {
		return nil, err
	}
	return s, nil
}

// Updated records the signature of sources for output and reports whether
// it differs from the stored one.
func (s *Signatures) Updated(output string, sources []string) (bool, error) {
	sig, err := signature(sources)
	if err != nil {
		return false, err
	}
	name := filepath.Base(output)
	if prev, ok := s.hashes[name]; ok && prev == sig {
		return false, nil
	}
	s.hashes[name] = sig
	return true, nil
}

func (s *Signatures) Save() error {
	data, err := json.MarshalIndent(s.hashes, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

func signature(files []string) (string, error) {
	h := md5.New()
	for _, name := range files {
		if err := hashFile(h, name); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
