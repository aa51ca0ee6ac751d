package hotpath

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isSubslice reports whether inner's bytes live inside outer's backing
// array. An empty string trivially qualifies.
func isSubslice(outer, inner string) bool {
	if len(inner) == 0 {
		return true
	}
	ob := uintptr(unsafe.Pointer(unsafe.StringData(outer)))
	ib := uintptr(unsafe.Pointer(unsafe.StringData(inner)))
	return ib >= ob && ib+uintptr(len(inner)) <= ob+uintptr(len(outer))
}

func TestParse_Classification(t *testing.T) {
	var p ZeroCopyParser
	input := "user.create --name=alice --dry-run -vf positional1  positional2"

	result, err := p.Parse(input, make([]Option, 0, 8), make([]string, 0, 8))
	require.NoError(t, err)

	require.Len(t, result.Args, 2)
	assert.Equal(t, Option{Key: "name", Value: "alice"}, result.Args[0])
	assert.Equal(t, Option{Key: "dry-run"}, result.Args[1])

	assert.Equal(t, []string{"user.create", "positional1", "positional2"}, result.Positionals)

	assert.True(t, result.HasFlag('v'))
	assert.True(t, result.HasFlag('f'))
	assert.False(t, result.HasFlag('x'))
}

func TestParse_ZeroCopy(t *testing.T) {
	var p ZeroCopyParser
	input := "cmd --key=value -a pos --empty"

	result, err := p.Parse(input, make([]Option, 0, 4), make([]string, 0, 4))
	require.NoError(t, err)

	for _, arg := range result.Args {
		assert.True(t, isSubslice(input, arg.Key), "key %q must alias the input", arg.Key)
		assert.True(t, isSubslice(input, arg.Value), "value %q must alias the input", arg.Value)
	}
	for _, pos := range result.Positionals {
		assert.True(t, isSubslice(input, pos), "positional %q must alias the input", pos)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	var p ZeroCopyParser
	_, err := p.Parse("", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParse_BareDashes(t *testing.T) {
	var p ZeroCopyParser
	result, err := p.Parse("- -- next", make([]Option, 0, 2), make([]string, 0, 4))
	require.NoError(t, err)

	assert.Empty(t, result.Args)
	assert.Zero(t, result.BoolFlags)
	assert.Equal(t, []string{"-", "--", "next"}, result.Positionals)
}

func TestParse_WhitespaceOnly(t *testing.T) {
	var p ZeroCopyParser
	result, err := p.Parse("   \t  ", make([]Option, 0, 1), make([]string, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, result.Args)
	assert.Empty(t, result.Positionals)
}

func TestParse_EqualsInValue(t *testing.T) {
	var p ZeroCopyParser
	result, err := p.Parse("--filter=a=b", make([]Option, 0, 1), nil)
	require.NoError(t, err)
	require.Len(t, result.Args, 1)
	assert.Equal(t, Option{Key: "filter", Value: "a=b"}, result.Args[0], "only the first = splits")
}

func TestParse_NoAllocations(t *testing.T) {
	var p ZeroCopyParser
	input := "user.create --name=alice -vf pos1 pos2"
	argsBuf := make([]Option, 0, 8)
	posBuf := make([]string, 0, 8)

	allocs := testing.AllocsPerRun(100, func() {
		_, err := p.Parse(input, argsBuf, posBuf)
		if err != nil {
			t.Fatal(err)
		}
	})
	assert.Zero(t, allocs)
}
