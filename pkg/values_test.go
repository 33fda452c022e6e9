package detmap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadValues(t *testing.T) {
	text := `# crate slot lo hi model
1 4 0 15 0x80000792   # ADC
1 7 0 63 1073743000

   # empty line above
`
	values, err := ReadValues(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 0, 15, 0x80000792, 1, 7, 0, 63, 1073743000}, values)

	d := NewMap()
	n, err := d.Fill(values, FillModel)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	tdc, err := d.IsTDC(1)
	require.NoError(t, err)
	assert.True(t, tdc)
}

func TestReadValuesInvalid(t *testing.T) {
	_, err := ReadValues(strings.NewReader("1 2 3\n4 five 6\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseFillFlags(t *testing.T) {
	flags, err := ParseFillFlags([]string{"logical", " Model", "refindex", "noclear", ""})
	require.NoError(t, err)
	assert.Equal(t, FillLogicalChannel|FillModel|FillRefIndex|DoNotClear, flags)
	assert.Equal(t, "logical,model,refindex,noclear", flags.String())

	flags, err = ParseFillFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, FillFlags(0), flags)
	assert.Equal(t, "none", flags.String())

	_, err = ParseFillFlags([]string{"crate"})
	assert.Error(t, err)
}
