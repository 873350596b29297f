package fileio

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func TestFinalizeSuccessOverwritesAndDeletesInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	policy := Policy{Fs: fs, Overwrite: true}

	plaintext := []byte("some plaintext that will be overwritten")
	assert.NoError(t, afero.WriteFile(fs, "in.txt", plaintext, 0o600))
	assert.NoError(t, afero.WriteFile(fs, "out.kryptor.tmp", []byte("ciphertext"), 0o600))

	err := policy.FinalizeSuccess("in.txt", "out.kryptor.tmp", "out.kryptor", false)
	assert.NoError(t, err)

	exists, err := afero.Exists(fs, "in.txt")
	assert.NoError(t, err)
	assert.False(t, exists)

	info, err := fs.Stat("out.kryptor")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0o400), uint32(info.Mode().Perm()))
}

func TestFinalizeSuccessWithoutOverwriteKeepsNamedInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	policy := Policy{Fs: fs, Overwrite: false}

	assert.NoError(t, afero.WriteFile(fs, "in.txt", []byte("keep me"), 0o600))
	assert.NoError(t, afero.WriteFile(fs, "out.kryptor.tmp", []byte("ciphertext"), 0o600))

	err := policy.FinalizeSuccess("in.txt", "out.kryptor.tmp", "out.kryptor", false)
	assert.NoError(t, err)

	exists, err := afero.Exists(fs, "in.txt")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestFinalizeSuccessDeletesDirectoryTraversalEntryEvenWithoutOverwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	policy := Policy{Fs: fs, Overwrite: false}

	assert.NoError(t, afero.WriteFile(fs, "dir/in.txt", []byte("keep me"), 0o600))
	assert.NoError(t, afero.WriteFile(fs, "out.kryptor.tmp", []byte("ciphertext"), 0o600))

	err := policy.FinalizeSuccess("dir/in.txt", "out.kryptor.tmp", "out.kryptor", true)
	assert.NoError(t, err)

	exists, err := afero.Exists(fs, "dir/in.txt")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestTempOutputPathIsUniqueAndAlongsideFinal(t *testing.T) {
	a := TempOutputPath("out.kryptor")
	b := TempOutputPath("out.kryptor")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "out.kryptor")
}

func TestFinalizeFailureDeletesPartialOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	policy := Policy{Fs: fs}

	assert.NoError(t, afero.WriteFile(fs, "out.kryptor", []byte("partial"), 0o600))

	assert.NoError(t, policy.FinalizeFailure("out.kryptor"))

	exists, err := afero.Exists(fs, "out.kryptor")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestFinalizeFailureToleratesMissingOutput(t *testing.T) {
	fs := afero.NewMemMapFs()
	policy := Policy{Fs: fs}

	assert.NoError(t, policy.FinalizeFailure("never-written.kryptor"))
}

func TestExpandInputPathLiteral(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "a.txt", []byte("x"), 0o600))

	matches, err := ExpandInputPath(fs, "a.txt")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, matches)
}

func TestExpandInputPathMissingLiteral(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := ExpandInputPath(fs, "missing.txt")
	assert.Error(t, err)
}

func TestExpandInputPathGlob(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "a.txt", []byte("x"), 0o600))
	assert.NoError(t, afero.WriteFile(fs, "b.txt", []byte("y"), 0o600))
	assert.NoError(t, afero.WriteFile(fs, "c.md", []byte("z"), 0o600))

	matches, err := ExpandInputPath(fs, "*.txt")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, matches)
}

func TestExpandInputPathGlobNoMatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := ExpandInputPath(fs, "*.nope")
	assert.Error(t, err)
}

func TestWalkDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "root/a.txt", []byte("x"), 0o600))
	assert.NoError(t, afero.WriteFile(fs, "root/sub/b.txt", []byte("y"), 0o600))

	files, err := WalkDirectory(fs, "root")
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "sub/b.txt"}, files)
}
