package ledger

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/staketoken/airdrop/pkg/ledger/store"
	"github.com/staketoken/airdrop/pkg/utils"
	"github.com/wealdtech/go-merkletree/v2"
	"github.com/wealdtech/go-merkletree/v2/keccak256"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type slotId string

var (
	merkleLeafPrefix_Params    = []byte("params")
	merkleLeafPrefix_LedgerRow = []byte("row")
)

func addressSlot(address common.Address) string {
	return strings.ToLower(address.Hex())
}

func word(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func uint64Bytes(v uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte{}, v)
}

func encodeParams(p *store.TokenParams) []byte {
	leaf := append([]byte{}, merkleLeafPrefix_Params...)
	leaf = append(leaf, []byte(p.Name)...)
	leaf = append(leaf, 0)
	leaf = append(leaf, []byte(p.Symbol)...)
	leaf = append(leaf, 0, p.Decimals)
	leaf = append(leaf, p.Owner.Bytes()...)
	leaf = append(leaf, word(p.TotalSupply)...)
	for _, v := range []uint64{p.BasePeriod, p.HoldPeriod, p.AnnualPercent, p.AnnualPeriod} {
		leaf = append(leaf, uint64Bytes(v)...)
	}
	return leaf
}

// collectSlots gathers every stored row keyed by a slot id. Slot ids must arrive in
// ascending order.
func collectSlots(tx store.Tx) (*orderedmap.OrderedMap[slotId, []byte], error) {
	om := orderedmap.New[slotId, []byte]()
	add := func(id slotId, value []byte) error {
		if _, found := om.Get(id); found {
			return fmt.Errorf("duplicate slotID %s", id)
		}
		if newest := om.Newest(); newest != nil && newest.Key > id {
			return errors.New("slotIDs are not in order")
		}
		om.Set(id, value)
		return nil
	}

	balances, err := tx.ListBalances()
	if err != nil {
		return nil, err
	}
	for _, b := range balances {
		if err := add(slotId("1_balance_"+addressSlot(b.Address)), word(b.Amount)); err != nil {
			return nil, err
		}
	}

	allowances, err := tx.ListAllowances()
	if err != nil {
		return nil, err
	}
	for _, a := range allowances {
		id := slotId(fmt.Sprintf("2_allowance_%s_%s", addressSlot(a.Owner), addressSlot(a.Spender)))
		if err := add(id, word(a.Amount)); err != nil {
			return nil, err
		}
	}

	minters, err := tx.ListMinters()
	if err != nil {
		return nil, err
	}
	for _, m := range minters {
		if err := add(slotId("3_minter_"+addressSlot(m)), []byte{1}); err != nil {
			return nil, err
		}
	}

	stakes, err := tx.ListStakes()
	if err != nil {
		return nil, err
	}
	for _, s := range stakes {
		value := word(s.Amount)
		value = append(value, uint64Bytes(s.StartTime)...)
		value = append(value, uint64Bytes(s.CancelTime)...)
		value = append(value, word(s.Reward)...)
		if err := add(slotId("4_stake_"+addressSlot(s.Staker)), value); err != nil {
			return nil, err
		}
	}
	return om, nil
}

// StateRoot returns the keccak256 merkle root over the token parameters followed by every
// balance, allowance, minter and stake row in slot order.
func (t *Token) StateRoot(ctx context.Context) (string, error) {
	var root []byte
	err := t.view(ctx, func(tx store.Tx, params *store.TokenParams) error {
		slots, err := collectSlots(tx)
		if err != nil {
			return err
		}

		leaves := [][]byte{encodeParams(params)}
		for pair := slots.Oldest(); pair != nil; pair = pair.Next() {
			leaf := append([]byte{}, merkleLeafPrefix_LedgerRow...)
			leaf = append(leaf, []byte(pair.Key)...)
			leaves = append(leaves, append(leaf, pair.Value...))
		}

		tree, err := merkletree.NewTree(
			merkletree.WithData(leaves),
			merkletree.WithHashType(keccak256.New()),
		)
		if err != nil {
			return err
		}
		root = tree.Root()
		return nil
	})
	if err != nil {
		return "", err
	}
	return utils.ConvertBytesToString(root), nil
}
