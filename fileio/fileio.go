// Package fileio implements Kryptor's file I/O policy: opening input and
// output files, overwriting and deleting plaintext after a successful
// encryption, flagging finished output read-only, deleting partial output on
// failure, and expanding glob patterns into concrete input paths. Built on
// afero.Fs so the policy can be exercised against an in-memory filesystem in
// tests instead of the real disk.
package fileio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/vilshansen/kryptor/kryptorerr"
	"github.com/vilshansen/kryptor/primitives"
)

// Policy bundles the filesystem and the process-scope options that govern
// post-encryption disposal of the input file. It is built once at startup
// and treated as read-only thereafter.
type Policy struct {
	Fs        afero.Fs
	Overwrite bool
}

// NewOSPolicy returns a Policy backed by the real filesystem.
func NewOSPolicy(overwrite bool) Policy {
	return Policy{Fs: afero.NewOsFs(), Overwrite: overwrite}
}

// OpenInput opens path for sequential reading.
func (p Policy) OpenInput(path string) (afero.File, error) {
	f, err := p.Fs.Open(path)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Io, "opening input file", err)
	}
	return f, nil
}

// CreateOutput creates path for writing, truncating any existing file.
func (p Policy) CreateOutput(path string) (afero.File, error) {
	f, err := p.Fs.Create(path)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Io, "creating output file", err)
	}
	return f, nil
}

// Size returns the size in bytes of the file at path.
func (p Policy) Size(path string) (int64, error) {
	info, err := p.Fs.Stat(path)
	if err != nil {
		return 0, kryptorerr.New(kryptorerr.Io, "statting file", err)
	}
	return info.Size(), nil
}

// TempOutputPath returns a secure, collision-free staging name alongside
// finalPath: the engine writes there first and only renames into finalPath
// once the whole operation has succeeded, so a reader never observes a
// half-written file at the real name.
func TempOutputPath(finalPath string) string {
	return finalPath + ".kryptor-tmp-" + uuid.NewString()
}

// FinalizeSuccess applies the post-encryption disposal policy to the input
// file, renames tempPath into finalPath, and flags it read-only.
// wasDirectoryEntry indicates the input path was produced by a directory
// traversal rather than named directly; such inputs are always deleted
// after encryption even when Overwrite is false, since the engine is the
// only writer that will ever see the plaintext copy.
func (p Policy) FinalizeSuccess(inputPath, tempPath, finalPath string, wasDirectoryEntry bool) error {
	switch {
	case p.Overwrite:
		if err := p.overwriteWithRandom(inputPath); err != nil {
			return err
		}
		if err := p.Fs.Remove(inputPath); err != nil {
			return kryptorerr.New(kryptorerr.Io, "deleting overwritten input file", err)
		}
	case wasDirectoryEntry:
		if err := p.Fs.Remove(inputPath); err != nil {
			return kryptorerr.New(kryptorerr.Io, "deleting traversed plaintext file", err)
		}
	}

	if err := p.Fs.Rename(tempPath, finalPath); err != nil {
		return kryptorerr.New(kryptorerr.Io, "committing output file", err)
	}
	if err := p.Fs.Chmod(finalPath, 0o400); err != nil {
		return kryptorerr.New(kryptorerr.Io, "flagging output file read-only", err)
	}
	return nil
}

// FinalizeFailure deletes the partially written temp file after an aborted
// encryption or decryption. A missing temp file is not an error.
func (p Policy) FinalizeFailure(tempPath string) error {
	if err := p.Fs.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		return kryptorerr.New(kryptorerr.Io, "deleting partial output file", err)
	}
	return nil
}

func (p Policy) overwriteWithRandom(path string) error {
	size, err := p.Size(path)
	if err != nil {
		return err
	}

	f, err := p.Fs.OpenFile(path, os.O_WRONLY, 0o600)
	if err != nil {
		return kryptorerr.New(kryptorerr.Io, "opening input file for overwrite", err)
	}
	defer f.Close()

	var remaining int64 = size
	buf := make([]byte, 64*1024)
	defer primitives.Zeroize(buf)

	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		if err := primitives.RandomFill(buf[:n]); err != nil {
			return kryptorerr.New(kryptorerr.Io, "generating random overwrite bytes", err)
		}
		if _, err := f.Write(buf[:n]); err != nil {
			return kryptorerr.New(kryptorerr.Io, "overwriting input file", err)
		}
		remaining -= n
	}
	return nil
}

// ExpandInputPath takes a path or a glob pattern and returns the list of
// matching files it resolves to.
func ExpandInputPath(fs afero.Fs, inputPattern string) ([]string, error) {
	if !strings.ContainsAny(inputPattern, "*?[]") {
		if _, err := fs.Stat(inputPattern); err != nil {
			return nil, kryptorerr.New(kryptorerr.Io, "input path does not exist", err)
		}
		return []string{inputPattern}, nil
	}

	matches, err := afero.Glob(fs, inputPattern)
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Io, "expanding wildcard pattern", err)
	}
	if len(matches) == 0 {
		return nil, kryptorerr.New(kryptorerr.Io, "no match found for pattern: "+inputPattern, nil)
	}
	return matches, nil
}

// WalkDirectory returns every regular file under root, relative to root, in
// the order afero.Walk visits them.
func WalkDirectory(fs afero.Fs, root string) ([]string, error) {
	var files []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, kryptorerr.New(kryptorerr.Io, "walking directory", err)
	}
	return files, nil
}

