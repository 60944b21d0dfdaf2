package memory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// ErrEmptyArchive is returned when a compressed ROM file holds no files.
var ErrEmptyArchive = errors.New("archive contains no files")

// romExtensions are preferred when an archive holds more than one file.
var romExtensions = []string{".gbc", ".gb", ".cgb"}

// ReadROMFile reads a ROM image from disk, decompressing it if the extension
// says it is an archive (.zip, .7z) or a compressed stream (.gz, .xz, .zst).
func ReadROMFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	rom, err := decompress(strings.ToLower(filepath.Ext(path)), data)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return rom, nil
}

func decompress(ext string, data []byte) ([]byte, error) {
	switch ext {
	case ".gz":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case ".xz":
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return io.ReadAll(r)
	case ".zst":
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case ".zip":
		r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		names := make([]string, len(r.File))
		for i, f := range r.File {
			names[i] = f.Name
		}
		i, err := pickROM(names)
		if err != nil {
			return nil, err
		}
		return readAllFrom(r.File[i].Open)
	case ".7z":
		r, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		names := make([]string, len(r.File))
		for i, f := range r.File {
			names[i] = f.Name
		}
		i, err := pickROM(names)
		if err != nil {
			return nil, err
		}
		return readAllFrom(r.File[i].Open)
	default:
		return data, nil
	}
}

// pickROM returns the index of the first entry with a ROM extension, or the
// first entry if none has one.
func pickROM(names []string) (int, error) {
	if len(names) == 0 {
		return 0, ErrEmptyArchive
	}
	for i, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		for _, want := range romExtensions {
			if ext == want {
				return i, nil
			}
		}
	}
	return 0, nil
}

func readAllFrom(open func() (io.ReadCloser, error)) ([]byte, error) {
	rc, err := open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
