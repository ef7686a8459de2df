package cftest

import (
	"context"
	"sync"
	"testing"

	"github.com/blockberries/crowdfund"
	"github.com/blockberries/crowdfund/types"
)

// garbageTx does not decode as any message.
var garbageTx = types.Tx{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

// RunComplianceSuite checks an application against the lifecycle
// contract every node relies on. The factory must return a fresh
// instance per call; txs are sample transactions valid after
// DefaultGenesis (an undecodable tx is always added).
func RunComplianceSuite(t *testing.T, factory func() crowdfund.Lifecycle, txs ...types.Tx) {
	t.Helper()
	txs = append(txs, garbageTx)

	t.Run("genesis_handshake", func(t *testing.T) {
		h := NewHarness(t, factory())
		resp := h.GenesisDefault()
		if resp.LastBlock != nil {
			t.Error("genesis handshake should return nil LastBlock")
		}
		if resp.AppHash == nil {
			t.Error("genesis handshake should return a non-nil AppHash")
		}
	})

	t.Run("execute_commit_cycle", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		for i := uint64(1); i <= 5; i++ {
			outcome := h.ExecuteAndCommit(MakeEmptyBlock(i))
			if outcome.AppHash == (types.AppHash{}) {
				t.Errorf("height %d: zero app hash", i)
			}
		}
	})

	t.Run("deterministic_with_txs", func(t *testing.T) {
		h1 := NewHarness(t, factory())
		h1.GenesisDefault()
		h2 := NewHarness(t, factory())
		h2.GenesisDefault()

		for i := uint64(1); i <= 3; i++ {
			block := MakeBlock(i, txs...)
			o1 := h1.ExecuteAndCommit(block)
			o2 := h2.ExecuteAndCommit(block)

			if o1.AppHash != o2.AppHash {
				t.Errorf("height %d: non-deterministic: %x != %x", i, o1.AppHash, o2.AppHash)
			}
			for j := range o1.TxOutcomes {
				if o1.TxOutcomes[j].Code != o2.TxOutcomes[j].Code {
					t.Errorf("height %d tx %d: code %d != %d", i, j, o1.TxOutcomes[j].Code, o2.TxOutcomes[j].Code)
				}
			}
		}
	})

	t.Run("tx_outcome_indices", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		outcome := h.ExecuteAndCommit(MakeBlock(1, txs...))
		if len(outcome.TxOutcomes) != len(txs) {
			t.Fatalf("expected %d tx outcomes, got %d", len(txs), len(outcome.TxOutcomes))
		}
		for i, o := range outcome.TxOutcomes {
			if o.Index != uint32(i) {
				t.Errorf("tx %d: expected index %d, got %d", i, i, o.Index)
			}
		}
	})

	t.Run("failed_tx_emits_nothing", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		outcome := h.ExecuteAndCommit(MakeBlock(1, txs...))
		for i, o := range outcome.TxOutcomes {
			if !o.OK() && len(o.Events) > 0 {
				t.Errorf("tx %d failed with code %d but emitted %d events", i, o.Code, len(o.Events))
			}
		}
	})

	t.Run("concurrent_checktx_after_handshake", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.Server().CheckTx(context.Background(), txs[i%len(txs)], types.MempoolFirstSeen)
				if err != nil {
					t.Errorf("concurrent CheckTx failed: %v", err)
				}
			}()
		}
		wg.Wait()
	})

	t.Run("concurrent_query_after_handshake", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.Server().Query(context.Background(), types.StateQuery{
					Path: "/next_id",
				})
				if err != nil {
					t.Errorf("concurrent Query failed: %v", err)
				}
			}()
		}
		wg.Wait()
	})

	t.Run("query_returns_height", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		h.ExecuteAndCommit(MakeEmptyBlock(1))
		h.ExecuteAndCommit(MakeEmptyBlock(2))

		result := h.Query("/next_id", nil)
		if result.Height < 1 {
			t.Errorf("query height should be >= 1 after committing, got %d", result.Height)
		}
	})
}
