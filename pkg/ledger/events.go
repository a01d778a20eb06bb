package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	EventName_Transfer             = "Transfer"
	EventName_Approval             = "Approval"
	EventName_OwnershipTransferred = "OwnershipTransferred"
	EventName_MinterAdded          = "MinterAdded"
	EventName_MinterRemoved        = "MinterRemoved"
	EventName_StakeCreated         = "StakeCreated"
	EventName_StakeCancelled       = "StakeCancelled"
	EventName_StakeWithdrawn       = "StakeWithdrawn"
)

type Event interface {
	EventName() string
}

type TransferEvent struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

func (TransferEvent) EventName() string { return EventName_Transfer }

type ApprovalEvent struct {
	Owner   common.Address
	Spender common.Address
	Value   *big.Int
}

func (ApprovalEvent) EventName() string { return EventName_Approval }

type OwnershipTransferredEvent struct {
	PreviousOwner common.Address
	NewOwner      common.Address
}

func (OwnershipTransferredEvent) EventName() string { return EventName_OwnershipTransferred }

type MinterAddedEvent struct {
	Account common.Address
}

func (MinterAddedEvent) EventName() string { return EventName_MinterAdded }

type MinterRemovedEvent struct {
	Account common.Address
}

func (MinterRemovedEvent) EventName() string { return EventName_MinterRemoved }

type StakeCreatedEvent struct {
	Staker common.Address
	Amount *big.Int
}

func (StakeCreatedEvent) EventName() string { return EventName_StakeCreated }

type StakeCancelledEvent struct {
	Staker common.Address
	Reward *big.Int
}

func (StakeCancelledEvent) EventName() string { return EventName_StakeCancelled }

type StakeWithdrawnEvent struct {
	Staker common.Address
	Amount *big.Int
	Reward *big.Int
}

func (StakeWithdrawnEvent) EventName() string { return EventName_StakeWithdrawn }

// Receipt lists the events of a successful call in emission order.
type Receipt struct {
	Events []Event
}

func (r *Receipt) emit(e Event) {
	r.Events = append(r.Events, e)
}

func (r *Receipt) Transfers() []*TransferEvent {
	transfers := make([]*TransferEvent, 0)
	for _, e := range r.Events {
		if t, ok := e.(*TransferEvent); ok {
			transfers = append(transfers, t)
		}
	}
	return transfers
}

// EventsByName returns the events called name in emission order.
func (r *Receipt) EventsByName(name string) []Event {
	events := make([]Event, 0)
	for _, e := range r.Events {
		if e.EventName() == name {
			events = append(events, e)
		}
	}
	return events
}
