package recipients

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse(t *testing.T) {
	t.Run("Should keep valid lines in order", func(t *testing.T) {
		input := strings.Join([]string{
			"0x1111111111111111111111111111111111111111",
			"  0xAbCdEf0000000000000000000000000000000002\t",
			"garbage",
			"",
			"0x123",
			"1111111111111111111111111111111111111111",
			"0x1111111111111111111111111111111111111111",
			"0x11111111111111111111111111111111111111111",
			"0xgggggggggggggggggggggggggggggggggggggggg",
		}, "\n")

		addresses, err := Parse(strings.NewReader(input))
		require.Nil(t, err)
		assert.Equal(t, []common.Address{
			common.HexToAddress("0x1111111111111111111111111111111111111111"),
			common.HexToAddress("0xabcdef0000000000000000000000000000000002"),
			common.HexToAddress("0x1111111111111111111111111111111111111111"),
		}, addresses)
	})
	t.Run("Should handle windows line endings", func(t *testing.T) {
		addresses, err := Parse(strings.NewReader("0x1111111111111111111111111111111111111111\r\n0x2222222222222222222222222222222222222222\r\n"))
		require.Nil(t, err)
		assert.Len(t, addresses, 2)
	})
	t.Run("Should strip a byte order mark and unicode spaces", func(t *testing.T) {
		input := "\ufeff0x1111111111111111111111111111111111111111\n\u00a00x2222222222222222222222222222222222222222\u2003\n"
		addresses, err := Parse(strings.NewReader(input))
		require.Nil(t, err)
		assert.Equal(t, []common.Address{
			common.HexToAddress("0x1111111111111111111111111111111111111111"),
			common.HexToAddress("0x2222222222222222222222222222222222222222"),
		}, addresses)
	})
	t.Run("Should read a file saved with a byte order mark", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "recipients.txt")
		require.Nil(t, os.WriteFile(path, []byte("\xef\xbb\xbf0x1111111111111111111111111111111111111111\n0x2222222222222222222222222222222222222222\n"), 0644))

		addresses, err := ReadFile(path)
		require.Nil(t, err)
		assert.Len(t, addresses, 2)
	})
	t.Run("Should return an empty list for an empty input", func(t *testing.T) {
		addresses, err := Parse(strings.NewReader(""))
		require.Nil(t, err)
		assert.Len(t, addresses, 0)
	})
}

func Test_ReadFile(t *testing.T) {
	t.Run("Should read addresses from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "recipients.txt")
		require.Nil(t, os.WriteFile(path, []byte("0x1111111111111111111111111111111111111111\n"), 0644))

		addresses, err := ReadFile(path)
		require.Nil(t, err)
		assert.Len(t, addresses, 1)
	})
	t.Run("Should fail on a missing file", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
		assert.NotNil(t, err)
	})
}

func Test_Root(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")

	rootAB, err := Root([]common.Address{a, b})
	require.Nil(t, err)
	assert.True(t, strings.HasPrefix(rootAB, "0x"))
	assert.Len(t, rootAB, 66)

	again, err := Root([]common.Address{a, b})
	require.Nil(t, err)
	assert.Equal(t, rootAB, again)

	rootBA, err := Root([]common.Address{b, a})
	require.Nil(t, err)
	assert.NotEqual(t, rootAB, rootBA)

	_, err = Root(nil)
	assert.NotNil(t, err)
}
