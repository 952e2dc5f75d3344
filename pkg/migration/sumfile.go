package migration

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/pkg/errors"
)

// ErrChecksumMismatch is returned by LoadDir when a migration file was edited,
// added or removed since the sum file was written.
var ErrChecksumMismatch = errors.New("migration files do not match the sum file")

const hashPrefix = "h1:"

type (
	// SumFile records a chained SHA256 hash per migration file. Each hash
	// covers the file's content and the previous file's hash, so reordering or
	// removing files changes every following entry.
	//
	// The file format is a total hash line followed by one "<name> h1:<hash>"
	// line per file:
	//
	//	h1:pZGbq4mUQqQ8Hnk6YkqYkNoBAtkBfXy5mAmBQbmyWZw=
	//	20240101120000_create_users.up.sql h1:Yt0K1xq9jV1H5m1yxZq1q2bIAq3nY8xNffWmLwP0kq0=
	SumFile struct {
		entries []sumEntry
	}

	sumEntry struct {
		Name string
		Hash []byte
	}
)

func NewSumFile() *SumFile {
	return &SumFile{}
}

// ComputeSum hashes the migration files of fsys in file name order.
func ComputeSum(fsys fs.FS) (*SumFile, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migrations directory")
	}

	sum := NewSumFile()
	for _, e := range entries {
		if e.IsDir() || !fileName.MatchString(e.Name()) {
			continue
		}

		content, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read migration: %s", e.Name())
		}
		sum.AddFile(e.Name(), content)
	}

	return sum, nil
}

// LoadSumFile parses a sum file and checks its total hash.
func LoadSumFile(r io.Reader) (*SumFile, error) {
	scanner := bufio.NewScanner(r)
	sum := NewSumFile()

	var total string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if total == "" {
			if !strings.HasPrefix(line, hashPrefix) {
				return nil, errors.Errorf("invalid total hash: %s", line)
			}
			total = line
			continue
		}

		name, hash, ok := strings.Cut(line, " ")
		if !ok || !strings.HasPrefix(hash, hashPrefix) {
			return nil, errors.Errorf("invalid sum entry: %s", line)
		}

		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(hash, hashPrefix))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid hash for %s", name)
		}
		sum.entries = append(sum.entries, sumEntry{Name: name, Hash: raw})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read sum file")
	}

	if total != sum.Total() {
		return nil, errors.New("sum file total hash does not match its entries")
	}

	return sum, nil
}

// AddFile appends name with a hash chained to the previous entry.
func (s *SumFile) AddFile(name string, content []byte) {
	h := sha256.New()
	h.Write(content)
	if n := len(s.entries); n > 0 {
		h.Write(s.entries[n-1].Hash)
	}
	s.entries = append(s.entries, sumEntry{Name: name, Hash: h.Sum(nil)})
}

func (s *SumFile) Files() int { return len(s.entries) }

// Total returns the hash over every entry, or "" when there are none.
func (s *SumFile) Total() string {
	if len(s.entries) == 0 {
		return ""
	}

	h := sha256.New()
	for _, e := range s.entries {
		h.Write(e.Hash)
	}
	return hashPrefix + base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Diff returns the first file that differs between s and o. ok is true when
// both record the same files with the same hashes.
func (s *SumFile) Diff(o *SumFile) (name string, ok bool) {
	for i := 0; i < len(s.entries) || i < len(o.entries); i++ {
		switch {
		case i >= len(s.entries):
			return o.entries[i].Name, false
		case i >= len(o.entries):
			return s.entries[i].Name, false
		case s.entries[i].Name != o.entries[i].Name:
			return o.entries[i].Name, false
		case !bytes.Equal(s.entries[i].Hash, o.entries[i].Hash):
			return s.entries[i].Name, false
		}
	}
	return "", true
}

// WriteTo writes the sum file format to w.
func (s *SumFile) WriteTo(w io.Writer) (int64, error) {
	var total int64

	n, err := fmt.Fprintln(w, s.Total())
	total += int64(n)
	if err != nil {
		return total, err
	}

	for _, e := range s.entries {
		n, err := fmt.Fprintf(w, "%s %s%s\n", e.Name, hashPrefix, base64.StdEncoding.EncodeToString(e.Hash))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	return total, nil
}
