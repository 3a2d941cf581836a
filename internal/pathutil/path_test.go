package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubPathExactBaseIsTopLevelPackage(t *testing.T) {
	name, err := ValidateSubPath("/base", "/base")
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestValidateSubPathSubPackage(t *testing.T) {
	name, err := ValidateSubPath("/base", "/base/foo/bar")
	require.NoError(t, err)
	assert.Equal(t, "foo.bar", name)
}

func TestValidateSubPathTrailingSeparatorWithEmptyComponentFails(t *testing.T) {
	_, err := ValidateSubPath("/base", "/base/")
	require.ErrorIs(t, err, ErrInvalidPath)

	_, err = ValidateSubPath("/base", "/base\\")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestValidateSubPathNotUnderBase(t *testing.T) {
	_, err := ValidateSubPath("/base", "/tmp/other")
	require.ErrorIs(t, err, ErrNotInBase)
}

func TestValidateSubPathRejectsDotAndDotDotComponents(t *testing.T) {
	_, err := ValidateSubPath("/base", "/base/foo/../bar")
	require.ErrorIs(t, err, ErrInvalidPath)

	_, err = ValidateSubPath("/base", "/base/./bar")
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestValidateSubPathRejectsDoubleSeparator(t *testing.T) {
	_, err := ValidateSubPath("/base", "/base//foo")
	require.ErrorIs(t, err, ErrInvalidPath)
}
