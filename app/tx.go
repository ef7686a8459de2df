package app

import (
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/crowdfund/types"
)

// EncodeMessage serializes a contract message into a transaction.
func EncodeMessage(m types.Message) (types.Tx, error) {
	data, err := cramberry.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("cramberry marshal: %w", err)
	}
	return data, nil
}

// DecodeMessage parses a transaction.
func DecodeMessage(tx types.Tx) (types.Message, error) {
	var m types.Message
	if len(tx) == 0 {
		return m, fmt.Errorf("empty tx")
	}
	if err := cramberry.Unmarshal(tx, &m); err != nil {
		return m, fmt.Errorf("cramberry unmarshal: %w", err)
	}
	switch m.Kind {
	case types.MsgCreateCrowdfund, types.MsgDonate:
		return m, nil
	default:
		return m, fmt.Errorf("unknown message kind %d", m.Kind)
	}
}

// CreateCrowdfundTx builds a create_crowdfund transaction.
func CreateCrowdfundTx(caller []byte, name, reason string, amountNeeded uint64) types.Tx {
	return mustEncode(types.Message{
		Kind:   types.MsgCreateCrowdfund,
		Caller: caller,
		Name:   name,
		Reason: reason,
		Amount: amountNeeded,
	})
}

// DonateTx builds a donate transaction sending value to owner's campaign.
func DonateTx(caller, owner []byte, value uint64) types.Tx {
	return mustEncode(types.Message{
		Kind:   types.MsgDonate,
		Caller: caller,
		Owner:  owner,
		Value:  value,
	})
}

func mustEncode(m types.Message) types.Tx {
	tx, err := EncodeMessage(m)
	if err != nil {
		panic(err)
	}
	return tx
}
