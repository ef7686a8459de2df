package types_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/blockberries/crowdfund/types"

	"github.com/blockberries/cramberry/pkg/cramberry"
)

// roundTrip marshals v, unmarshals into a new T, and returns it.
func roundTrip[T any](t *testing.T, v T) T {
	t.Helper()
	data, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var out T
	if err := cramberry.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	return out
}

func TestTimestamp_UnixMilli(t *testing.T) {
	ts := types.TimeToTimestamp(time.Date(2024, 6, 15, 12, 30, 45, 123456789, time.UTC))
	got := roundTrip(t, ts)
	if got != ts {
		t.Fatalf("Timestamp round-trip failed: got %+v, want %+v", got, ts)
	}
	want := uint64(time.Date(2024, 6, 15, 12, 30, 45, 123000000, time.UTC).UnixMilli())
	if got.UnixMilli() != want {
		t.Fatalf("UnixMilli = %d, want %d", got.UnixMilli(), want)
	}
	if (types.Timestamp{Seconds: -5}).UnixMilli() != 0 {
		t.Fatal("pre-epoch time should clamp to zero")
	}
}

func TestEvent_RoundTrip(t *testing.T) {
	v := types.Event{
		Kind:   "FundCreated",
		Topics: [][]byte{bytes.Repeat([]byte{1}, 32), make([]byte, 32)},
		Data:   []byte{0xE8, 0x03},
	}
	got := roundTrip(t, v)
	if got.Kind != v.Kind || len(got.Topics) != 2 || !bytes.Equal(got.Data, v.Data) {
		t.Fatalf("Event round-trip failed: %+v", got)
	}
	for i := range v.Topics {
		if !bytes.Equal(got.Topics[i], v.Topics[i]) {
			t.Fatalf("topic %d mismatch", i)
		}
	}
}

func TestBlockOutcome_RoundTrip(t *testing.T) {
	v := types.BlockOutcome{
		TxOutcomes: []types.TxOutcome{
			{Index: 0, Code: 0, Events: []types.Event{{Kind: "FundCreated"}}},
			{Index: 1, Code: 2, Info: "transfer failed"},
		},
		AppHash: types.AppHash{0xAB},
	}
	got := roundTrip(t, v)
	if len(got.TxOutcomes) != 2 || got.AppHash != v.AppHash {
		t.Fatalf("BlockOutcome round-trip failed: %+v", got)
	}
	if !got.TxOutcomes[0].OK() || got.TxOutcomes[1].OK() {
		t.Fatal("OK() disagrees with codes")
	}
	if got.TxOutcomes[1].Info != "transfer failed" {
		t.Fatalf("Info = %q", got.TxOutcomes[1].Info)
	}
}

func TestHandshakeRequest_RoundTrip(t *testing.T) {
	v := types.HandshakeRequest{
		Genesis: &types.GenesisDoc{
			ChainID:       "crowdfund-1",
			InitialHeight: 1,
			AppState:      []byte{1, 2, 3},
		},
	}
	got := roundTrip(t, v)
	if got.LastCommitted != nil || got.Genesis == nil {
		t.Fatalf("HandshakeRequest round-trip failed: %+v", got)
	}
	if got.Genesis.ChainID != "crowdfund-1" || !bytes.Equal(got.Genesis.AppState, v.Genesis.AppState) {
		t.Fatalf("GenesisDoc mismatch: %+v", got.Genesis)
	}
}

func TestMessage_RoundTrip(t *testing.T) {
	v := types.Message{
		Kind:   types.MsgCreateCrowdfund,
		Caller: bytes.Repeat([]byte{7}, 32),
		Name:   "roof",
		Reason: "leaks",
		Amount: 5000,
	}
	got := roundTrip(t, v)
	if got.Kind != v.Kind || got.Name != v.Name || got.Reason != v.Reason || got.Amount != v.Amount {
		t.Fatalf("Message round-trip failed: %+v", got)
	}
	if !bytes.Equal(got.Caller, v.Caller) {
		t.Fatal("caller mismatch")
	}
	if got.Kind.String() != "create_crowdfund" || types.MsgDonate.String() != "donate" {
		t.Fatal("unexpected message kind names")
	}
}

func TestContractState_RoundTrip(t *testing.T) {
	fund := types.FundView{
		Owner:        []byte{1},
		ID:           1,
		Name:         "n",
		AmountNeeded: []byte{10},
		AmountGotten: []byte{0},
		Donors:       [][]byte{{2}, {2}},
	}
	v := types.ContractState{
		Height:          9,
		ContractAccount: []byte{0xCC},
		NextID:          2,
		Owners:          []types.FundView{fund},
		All:             []types.FundView{fund},
		Ledger:          []types.LedgerEntry{{Account: []byte{0xCC}, Amount: []byte{1}}},
		Time:            types.Timestamp{Seconds: 1704067245, Nanos: 7},
	}
	got := roundTrip(t, v)
	if got.Time != v.Time {
		t.Fatalf("block time lost: got %+v, want %+v", got.Time, v.Time)
	}
	if got.Height != 9 || got.NextID != 2 || len(got.All) != 1 || len(got.Ledger) != 1 {
		t.Fatalf("ContractState round-trip failed: %+v", got)
	}
	if len(got.All[0].Donors) != 2 {
		t.Fatalf("duplicate donors lost: %d", len(got.All[0].Donors))
	}
}

func TestImportResult_RetryChunks_RoundTrip(t *testing.T) {
	v := types.ImportResult{
		Status:       types.ImportRetryChunks,
		RetryIndices: []uint32{1, 3},
	}
	got := roundTrip(t, v)
	if got.Status != types.ImportRetryChunks || len(got.RetryIndices) != 2 || got.RetryIndices[1] != 3 {
		t.Fatalf("ImportResult round-trip failed: %+v", got)
	}
}

func TestCapabilities_String(t *testing.T) {
	if got := (types.CapStateSync | types.CapSimulation).String(); got != "StateSync|Simulation" {
		t.Fatalf("String = %q", got)
	}
	if got := types.Capabilities(0).String(); got != "none" {
		t.Fatalf("String = %q", got)
	}
}

// TestDeterminism verifies that the same struct always produces
// the same bytes (cramberry's core guarantee).
func TestDeterminism(t *testing.T) {
	v := types.FinalizedBlock{
		Height:        42,
		Time:          types.Timestamp{Seconds: 1000, Nanos: 500},
		Txs:           []types.Tx{[]byte("a"), []byte("b")},
		LastBlockHash: types.Hash{0xFF},
	}
	data1, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	data2, err := cramberry.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data1, data2) {
		t.Fatal("non-deterministic encoding")
	}
}
