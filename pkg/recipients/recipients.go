package recipients

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/staketoken/airdrop/pkg/utils"
	"github.com/wealdtech/go-merkletree/v2"
	"github.com/wealdtech/go-merkletree/v2/keccak256"
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// isTrimmed matches unicode white space and the byte order mark.
func isTrimmed(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// Parse returns the addresses of a newline separated list in input order. Lines are trimmed,
// anything that is not a 0x prefixed 20 byte hex address is dropped and duplicates are kept.
func Parse(r io.Reader) ([]common.Address, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	addresses := make([]common.Address, 0)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimFunc(line, isTrimmed)
		if !addressPattern.MatchString(line) {
			continue
		}
		addresses = append(addresses, common.HexToAddress(line))
	}
	return addresses, nil
}

func ReadFile(path string) ([]common.Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read recipients file '%s'", path)
	}
	return Parse(bytes.NewReader(data))
}

// Root is the keccak256 merkle root over the ordered recipient addresses.
func Root(addresses []common.Address) (string, error) {
	if len(addresses) == 0 {
		return "", errors.New("cannot compute the root of an empty recipient list")
	}
	leaves := make([][]byte, 0, len(addresses))
	for _, address := range addresses {
		leaves = append(leaves, address.Bytes())
	}

	tree, err := merkletree.NewTree(
		merkletree.WithData(leaves),
		merkletree.WithHashType(keccak256.New()),
	)
	if err != nil {
		return "", err
	}
	return utils.ConvertBytesToString(tree.Root()), nil
}
