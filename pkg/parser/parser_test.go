package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/filecover/pkg/coverage"
)

const (
	N = coverage.Nonexecutable
	U = coverage.NotCovered
	C = coverage.Covered
)

const addNumsPath = "coverage/main/java/com/example/AddNums.kt"

const addNumsLCOV = `TN:
SF:/tmp/sandbox/execroot/_main/coverage/main/java/com/example/AddNums.kt
FN:7,com/example/AddNums$Companion::sumNumbers
FNDA:1,com/example/AddNums$Companion::sumNumbers
DA:3,0
DA:6,1
DA:7,1
DA:9,1
LH:3
LF:4
end_of_record
SF:coverage/main/java/com/example/Other.kt
DA:1,1
DA:2,1
end_of_record
`

func TestParseLCOV(t *testing.T) {
	t.Run("record of the source file", func(t *testing.T) {
		record, err := ParseLCOV(strings.NewReader(addNumsLCOV), addNumsPath, 13)
		require.NoError(t, err)
		assert.Equal(t, coverage.Record{N, N, U, N, N, C, C, N, C, N, N, N, N}, record)
	})

	t.Run("sections of the same file are summed", func(t *testing.T) {
		data := "SF:" + addNumsPath + "\nDA:3,0\nDA:6,0\nend_of_record\n" +
			"SF:" + addNumsPath + "\nDA:3,2\nDA:6,0\nDA:7,0,abcd\nend_of_record\n"
		record, err := ParseLCOV(strings.NewReader(data), addNumsPath, 8)
		require.NoError(t, err)
		assert.Equal(t, coverage.Record{N, N, C, N, N, U, U, N}, record)
	})

	t.Run("lines out of range are ignored", func(t *testing.T) {
		data := "SF:" + addNumsPath + "\nDA:0,1\nDA:2,1\nDA:99,1\nend_of_record\n"
		record, err := ParseLCOV(strings.NewReader(data), addNumsPath, 3)
		require.NoError(t, err)
		assert.Equal(t, coverage.Record{N, C, N}, record)
	})

	t.Run("no record for the source file", func(t *testing.T) {
		_, err := ParseLCOV(strings.NewReader(addNumsLCOV), "coverage/main/java/com/example/Missing.kt", 13)
		assert.ErrorIs(t, err, ErrNoRecord)
	})

	t.Run("suffix must start at a path boundary", func(t *testing.T) {
		data := "SF:src/MyAddNums.kt\nDA:1,1\nend_of_record\n"
		_, err := ParseLCOV(strings.NewReader(data), "AddNums.kt", 1)
		assert.ErrorIs(t, err, ErrNoRecord)
	})

	t.Run("malformed DA record", func(t *testing.T) {
		data := "SF:" + addNumsPath + "\nDA:x,1\nend_of_record\n"
		_, err := ParseLCOV(strings.NewReader(data), addNumsPath, 3)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoRecord)
	})
}

func TestParseGoProfile(t *testing.T) {
	profile := `mode: count
example.com/m/pkg/foo/foo.go:3.14,5.2 1 2
example.com/m/pkg/foo/foo.go:7.14,8.2 1 0
example.com/m/pkg/foo/foo.go:8.2,9.10 1 1
example.com/m/pkg/bar/bar.go:1.1,2.2 1 1
`
	record, err := ParseGoProfile(strings.NewReader(profile), "pkg/foo/foo.go", 10)
	require.NoError(t, err)
	assert.Equal(t, coverage.Record{N, N, C, C, C, N, U, C, C, N}, record)

	_, err = ParseGoProfile(strings.NewReader(profile), "pkg/baz/baz.go", 10)
	assert.ErrorIs(t, err, ErrNoRecord)

	_, err = ParseGoProfile(strings.NewReader("garbage"), "pkg/foo/foo.go", 10)
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "coverage.dat")
	require.NoError(t, os.WriteFile(filename, []byte(addNumsLCOV), 0644))
	source := &coverage.SourceFile{Path: addNumsPath, Lines: make([]string, 13)}

	record, err := ParseFile(FormatLCOV, filename, source)
	require.NoError(t, err)
	assert.Len(t, record, 13)

	_, err = ParseFile(FormatLCOV, filepath.Join(t.TempDir(), "missing.dat"), source)
	assert.True(t, os.IsNotExist(err))

	_, err = ParseFile(Format("xml"), filename, source)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" LCOV ")
	require.NoError(t, err)
	assert.Equal(t, FormatLCOV, f)

	f, err = ParseFormat("goprofile")
	require.NoError(t, err)
	assert.Equal(t, FormatGoProfile, f)

	_, err = ParseFormat("cobertura")
	assert.Error(t, err)
}

func TestSamePath(t *testing.T) {
	assert.True(t, samePath("a/b/C.kt", "a/b/C.kt"))
	assert.True(t, samePath("/abs/root/a/b/C.kt", "a/b/C.kt"))
	assert.True(t, samePath("b/C.kt", "a/b/C.kt"))
	assert.True(t, samePath(`x\a\b\C.kt`, "a/b/C.kt"))
	assert.False(t, samePath("a/bb/C.kt", "a/b/C.kt"))
	assert.False(t, samePath("XC.kt", "C.kt"))
}
