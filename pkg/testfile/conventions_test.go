package testfile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Azure/filecover/pkg/config"
)

func TestCandidates(t *testing.T) {
	conventions := NewConventions(config.DefaultLayouts(), ".kt")

	testSuites := []struct {
		name     string
		source   string
		expected []TestTarget
	}{
		{
			name:   "app module tries test and shared test roots",
			source: "app/src/main/java/com/example/AddNums.kt",
			expected: []TestTarget{
				{Path: "app/src/test/java/com/example/AddNumsTest.kt", Root: "test", Variant: "Test"},
				{Path: "app/src/test/java/com/example/AddNumsLocalTest.kt", Root: "test", Variant: "LocalTest"},
				{Path: "app/src/sharedTest/java/com/example/AddNumsTest.kt", Root: "sharedTest", Variant: "Test"},
				{Path: "app/src/sharedTest/java/com/example/AddNumsLocalTest.kt", Root: "sharedTest", Variant: "LocalTest"},
			},
		},
		{
			name:   "scripts module",
			source: "scripts/src/java/org/example/Check.kt",
			expected: []TestTarget{
				{Path: "scripts/src/javatests/org/example/CheckTest.kt", Root: "javatests", Variant: "Test"},
			},
		},
		{
			name:   "other module with main sources",
			source: "utility/src/main/java/Foo.kt",
			expected: []TestTarget{
				{Path: "utility/src/test/java/FooTest.kt", Root: "test", Variant: "Test"},
				{Path: "utility/src/sharedTest/java/FooTest.kt", Root: "sharedTest", Variant: "Test"},
			},
		},
		{
			name:   "test next to the source",
			source: "lib/Foo.kt",
			expected: []TestTarget{
				{Path: "lib/FooTest.kt", Root: ".", Variant: "Test"},
			},
		},
		{
			name:     "other extension",
			source:   "lib/Foo.java",
			expected: nil,
		},
	}

	for _, testCase := range testSuites {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, conventions.Candidates(testCase.source))
		})
	}
}

func TestSourceFor(t *testing.T) {
	conventions := NewConventions(config.DefaultLayouts(), ".kt")

	testSuites := []struct {
		testPath string
		source   string
		ok       bool
	}{
		{testPath: "app/src/test/java/com/example/AddNumsTest.kt", source: "app/src/main/java/com/example/AddNums.kt", ok: true},
		{testPath: "app/src/sharedTest/java/com/example/AddNumsLocalTest.kt", source: "app/src/main/java/com/example/AddNums.kt", ok: true},
		{testPath: "scripts/src/javatests/org/example/CheckTest.kt", source: "scripts/src/java/org/example/Check.kt", ok: true},
		{testPath: "utility/src/test/java/FooTest.kt", source: "utility/src/main/java/Foo.kt", ok: true},
		{testPath: "lib/FooTest.kt", source: "lib/Foo.kt", ok: true},
		{testPath: "app/src/main/java/com/example/AddNums.kt", ok: false},
		{testPath: "Test.kt", ok: false},
		{testPath: "lib/FooTest.java", ok: false},
	}

	for _, testCase := range testSuites {
		source, ok := conventions.SourceFor(testCase.testPath)
		assert.Equalf(t, testCase.ok, ok, "SourceFor(%s)", testCase.testPath)
		assert.Equalf(t, testCase.source, source, "SourceFor(%s)", testCase.testPath)
		assert.Equal(t, testCase.ok, conventions.IsTestFile(testCase.testPath))
	}
}

func TestSourceForRoundTrip(t *testing.T) {
	conventions := NewConventions(config.DefaultLayouts(), ".kt")
	for _, source := range []string{
		"app/src/main/java/com/example/AddNums.kt",
		"scripts/src/java/org/example/Check.kt",
		"utility/src/main/java/Foo.kt",
		"lib/Foo.kt",
	} {
		for _, candidate := range conventions.Candidates(source) {
			got, ok := conventions.SourceFor(candidate.Path)
			assert.True(t, ok, candidate.Path)
			assert.Equal(t, source, got, candidate.Path)
		}
	}
}

func TestTestTarget(t *testing.T) {
	target := TestTarget{Path: "app/src/test/java/com/example/AddNumsLocalTest.kt", Root: "test", Variant: "LocalTest"}
	assert.Equal(t, "AddNumsLocalTest", target.Name())
	assert.Equal(t, "app/src/test/java/com/example", target.Package())
	assert.Equal(t, "//app/src/test/java/com/example:AddNumsLocalTest", target.Label())
	assert.Equal(t, target.Path, target.String())

	root := TestTarget{Path: "FooTest.kt", Root: ".", Variant: "Test"}
	assert.Equal(t, "//:FooTest", root.Label())
}
