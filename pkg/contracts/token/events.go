package token

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/staketoken/airdrop/pkg/clients/ethereum"
)

type TransferEvent struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	LogIndex uint64
}

// ParseTransferEvents decodes the Transfer logs emitted by the token at address. Logs of other
// contracts and other events are skipped.
func ParseTransferEvents(address common.Address, logs []*ethereum.EthereumEventLog) ([]*TransferEvent, error) {
	tokenABI, err := ParsedABI()
	if err != nil {
		return nil, err
	}
	transferEvent := tokenABI.Events["Transfer"]

	events := make([]*TransferEvent, 0)
	for _, log := range logs {
		if log == nil || log.Removed || log.Address.Address() != address {
			continue
		}
		if len(log.Topics) != 3 || log.Topics[0].Hash() != transferEvent.ID {
			continue
		}
		data, err := log.Data.Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to decode data of log %d: %w", log.LogIndex.Value(), err)
		}
		values, err := transferEvent.Inputs.NonIndexed().Unpack(data)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack Transfer log %d: %w", log.LogIndex.Value(), err)
		}
		value, ok := values[0].(*big.Int)
		if !ok {
			return nil, fmt.Errorf("unexpected Transfer value type %T", values[0])
		}
		events = append(events, &TransferEvent{
			From:     common.BytesToAddress(log.Topics[1].Hash().Bytes()),
			To:       common.BytesToAddress(log.Topics[2].Hash().Bytes()),
			Value:    value,
			LogIndex: log.LogIndex.Value(),
		})
	}
	return events, nil
}
