package app_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/crowdfund"
	"github.com/blockberries/crowdfund/app"
	"github.com/blockberries/crowdfund/contract"
	"github.com/blockberries/crowdfund/env"
	"github.com/blockberries/crowdfund/internal/metrics"
	"github.com/blockberries/crowdfund/primitives"
	cftest "github.com/blockberries/crowdfund/testing"
	"github.com/blockberries/crowdfund/types"
)

var (
	alice    = cftest.Account(1)
	bob      = cftest.Account(2)
	carol    = cftest.Account(3)
	stranger = cftest.Account(9)
	self     = cftest.Account(cftest.ContractAccountByte)
)

func newDefault(t *testing.T, opts ...app.Option) *app.DefaultApp {
	t.Helper()
	a, err := app.NewDefault(opts...)
	require.NoError(t, err)
	return a
}

func started(t *testing.T, opts ...app.Option) (*app.DefaultApp, *cftest.Harness) {
	t.Helper()
	a := newDefault(t, opts...)
	h := cftest.NewHarness(t, a)
	h.GenesisDefault()
	return a, h
}

func queryFund(t *testing.T, h *cftest.Harness, owner []byte) types.FundView {
	t.Helper()
	res := h.Query(app.PathFund, owner)
	require.Zero(t, res.Code, res.Info)
	var v types.FundView
	require.NoError(t, cramberry.Unmarshal(res.Value, &v))
	return v
}

func queryList(t *testing.T, h *cftest.Harness, path types.QueryPath) []types.FundView {
	t.Helper()
	res := h.Query(path, nil)
	require.Zero(t, res.Code, res.Info)
	var l types.FundList
	require.NoError(t, cramberry.Unmarshal(res.Value, &l))
	return l.Funds
}

func nextID(t *testing.T, h *cftest.Harness) uint64 {
	t.Helper()
	res := h.Query(app.PathNextID, nil)
	require.Zero(t, res.Code, res.Info)
	return binary.BigEndian.Uint64(res.Value)
}

func balance(t *testing.T, h *cftest.Harness, account []byte) uint64 {
	t.Helper()
	res := h.Query(app.PathBalance, account)
	require.Zero(t, res.Code, res.Info)
	v, err := primitives.U128FromBytes(res.Value)
	require.NoError(t, err)
	n, ok := v.Uint64()
	require.True(t, ok)
	return n
}

func u128(v uint64) []byte { return primitives.U128FromUint64(v).Encode() }

func TestDefault_Compliance(t *testing.T) {
	cftest.RunComplianceSuite(t, func() crowdfund.Lifecycle {
		return newDefault(t)
	},
		app.CreateCrowdfundTx(alice, "roof", "leaks", 5000),
		app.DonateTx(bob, alice, 100),
	)
}

func TestCustom_Compliance(t *testing.T) {
	cftest.RunComplianceSuite(t, func() crowdfund.Lifecycle {
		a, err := app.NewCustom()
		require.NoError(t, err)
		return a
	}, app.CreateCrowdfundTx(alice, "roof", "leaks", 5000))
}

func TestCapabilities(t *testing.T) {
	h := cftest.NewHarness(t, newDefault(t))
	resp := h.GenesisDefault()
	assert.True(t, resp.Capabilities.Has(types.CapStateSync))
	assert.True(t, resp.Capabilities.Has(types.CapSimulation))
	assert.NotNil(t, h.Server().AsStateSync())
	assert.NotNil(t, h.Server().AsSimulator())
}

func TestCreateCrowdfund(t *testing.T) {
	_, h := started(t)

	block := cftest.MakeBlock(3, app.CreateCrowdfundTx(alice, "roof", "leaks", 5000))
	out := h.ExecuteAndCommit(block)
	require.True(t, out.TxOutcomes[0].OK(), out.TxOutcomes[0].Info)
	assert.Equal(t, primitives.U64(1).Encode(), out.TxOutcomes[0].Data)

	require.Len(t, out.TxOutcomes[0].Events, 1)
	ev := out.TxOutcomes[0].Events[0]
	assert.Equal(t, contract.EventFundCreated, ev.Kind)
	require.Len(t, ev.Topics, 4)
	pad := func(b []byte) []byte { return append(b, make([]byte, 32-len(b))...) }
	assert.Equal(t, pad(primitives.U32(3).Encode()), ev.Topics[0])
	assert.Equal(t, pad(primitives.U64(block.Time.UnixMilli()).Encode()), ev.Topics[1])
	assert.Equal(t, pad(primitives.U64(1).Encode()), ev.Topics[2])
	assert.Equal(t, make([]byte, 32), ev.Topics[3])
	assert.Equal(t, u128(5000), ev.Data)

	fund := queryFund(t, h, alice)
	assert.Equal(t, alice, fund.Owner)
	assert.Equal(t, uint64(1), fund.ID)
	assert.Equal(t, "roof", fund.Name)
	assert.Equal(t, "leaks", fund.Reason)
	assert.Equal(t, u128(5000), fund.AmountNeeded)
	assert.Equal(t, u128(0), fund.AmountGotten)
	assert.False(t, fund.Completed)
	assert.Empty(t, fund.Donors)

	assert.Equal(t, uint64(2), nextID(t, h))
	assert.Len(t, queryList(t, h, app.PathFunds), 1)
	assert.Empty(t, queryList(t, h, app.PathSuccessful))
	assert.Equal(t, uint64(cftest.Endowment), balance(t, h, self), "self-transfer leaves the balance")
}

func TestCreateCrowdfund_ProbeFailureIsAtomic(t *testing.T) {
	// The contract account holds less than the probe amount.
	gs := cftest.GenesisState(primitives.AccountIDLength)
	gs.Accounts[0].Balance = contract.ProbeAmount - 1
	genesis := cftest.GenesisWithState(gs)

	h := cftest.NewHarness(t, newDefault(t))
	h.Genesis(genesis)
	twin := cftest.NewHarness(t, newDefault(t))
	twin.Genesis(genesis)

	out := h.ExecuteAndCommit(cftest.MakeBlock(1, app.CreateCrowdfundTx(alice, "roof", "leaks", 5000)))
	res := out.TxOutcomes[0]
	assert.Equal(t, app.CodeContractError, res.Code)
	assert.Contains(t, res.Info, "InsufficientBalance")
	assert.Empty(t, res.Events)

	assert.Equal(t, uint64(1), nextID(t, h))
	assert.Empty(t, queryList(t, h, app.PathFunds))
	assert.Equal(t, 1, int(h.Query(app.PathFund, alice).Code))

	empty := twin.ExecuteAndCommit(cftest.MakeEmptyBlock(1))
	assert.Equal(t, empty.AppHash, out.AppHash, "failed invocation leaves no state behind")
}

func TestCreateCrowdfund_SecondCampaignOverwrites(t *testing.T) {
	_, h := started(t)
	h.ExecuteAndCommit(cftest.MakeBlock(1,
		app.CreateCrowdfundTx(alice, "first", "a", 10),
		app.CreateCrowdfundTx(bob, "bob's", "b", 10),
		app.CreateCrowdfundTx(alice, "second", "c", 20),
	))

	fund := queryFund(t, h, alice)
	assert.Equal(t, uint64(3), fund.ID)
	assert.Equal(t, "second", fund.Name)

	all := queryList(t, h, app.PathFunds)
	require.Len(t, all, 3)
	for i, f := range all {
		assert.Equal(t, uint64(i+1), f.ID)
	}
	assert.Equal(t, uint64(4), nextID(t, h))
}

func TestDonate(t *testing.T) {
	_, h := started(t)
	h.ExecuteAndCommit(cftest.MakeBlock(1, app.CreateCrowdfundTx(alice, "roof", "leaks", 300)))

	out := h.ExecuteAndCommit(cftest.MakeBlock(2,
		app.DonateTx(bob, alice, 100),
		app.DonateTx(carol, alice, 200),
	))
	for _, o := range out.TxOutcomes {
		require.True(t, o.OK(), o.Info)
		require.Len(t, o.Events, 1)
		assert.Equal(t, contract.EventDonated, o.Events[0].Kind)
	}
	assert.Equal(t, u128(300), out.TxOutcomes[1].Data)

	fund := queryFund(t, h, alice)
	assert.True(t, fund.Completed)
	assert.Equal(t, u128(300), fund.AmountGotten)
	assert.Equal(t, [][]byte{bob, carol}, fund.Donors)

	successful := queryList(t, h, app.PathSuccessful)
	require.Len(t, successful, 1)
	assert.Equal(t, uint64(1), successful[0].ID)
	assert.Equal(t, fund, queryList(t, h, app.PathFunds)[0])

	assert.Equal(t, uint64(cftest.Endowment-100), balance(t, h, bob))
	assert.Equal(t, uint64(cftest.Endowment-200), balance(t, h, carol))
	assert.Equal(t, uint64(cftest.Endowment+300), balance(t, h, self))
}

func TestDonate_RejectionRefundsValue(t *testing.T) {
	_, h := started(t)
	h.ExecuteAndCommit(cftest.MakeBlock(1, app.CreateCrowdfundTx(alice, "roof", "leaks", 50)))

	out := h.ExecuteAndCommit(cftest.MakeBlock(2,
		app.DonateTx(bob, carol, 10),     // no campaign
		app.DonateTx(bob, alice, 51),     // overshoot
		app.DonateTx(bob, alice, 0),      // zero
		app.DonateTx(stranger, alice, 5), // unfunded donor
	))
	assert.Equal(t, app.CodeContractError, out.TxOutcomes[0].Code)
	assert.Equal(t, app.CodeContractError, out.TxOutcomes[1].Code)
	assert.Equal(t, app.CodeContractError, out.TxOutcomes[2].Code)
	assert.Equal(t, app.CodeInsufficientFunds, out.TxOutcomes[3].Code)
	for _, o := range out.TxOutcomes {
		assert.Empty(t, o.Events)
	}

	assert.Equal(t, uint64(cftest.Endowment), balance(t, h, bob))
	assert.Equal(t, uint64(cftest.Endowment), balance(t, h, self))
	assert.Equal(t, u128(0), queryFund(t, h, alice).AmountGotten)
}

func TestDonate_ContractAccountCannotDonate(t *testing.T) {
	_, h := started(t)
	h.ExecuteAndCommit(cftest.MakeBlock(1, app.CreateCrowdfundTx(alice, "roof", "leaks", 500)))

	out := h.ExecuteAndCommit(cftest.MakeBlock(2, app.DonateTx(self, alice, 500)))
	assert.Equal(t, app.CodeContractError, out.TxOutcomes[0].Code)
	assert.Empty(t, out.TxOutcomes[0].Events)

	fund := queryFund(t, h, alice)
	assert.Equal(t, u128(0), fund.AmountGotten)
	assert.False(t, fund.Completed)
	assert.Empty(t, fund.Donors)
	assert.Empty(t, queryList(t, h, app.PathSuccessful))
	assert.Equal(t, uint64(cftest.Endowment), balance(t, h, self))
}

func TestHostTopicLimit(t *testing.T) {
	p := env.SubstrateProfile
	p.MaxEventTopics = 3
	_, h := started(t, app.WithProfile(p))

	out := h.ExecuteAndCommit(cftest.MakeBlock(1, app.CreateCrowdfundTx(alice, "roof", "leaks", 5000)))
	assert.Equal(t, app.CodeTopicOverflow, out.TxOutcomes[0].Code)
	assert.Empty(t, out.TxOutcomes[0].Events)
	assert.Equal(t, uint64(1), nextID(t, h))
	assert.Equal(t, uint64(cftest.Endowment), balance(t, h, self), "probe transfer rolled back")
}

func TestGenesis_IncompatibleBinding(t *testing.T) {
	a, err := app.NewCompact(app.WithProfile(env.SubstrateProfile))
	require.NoError(t, err)

	genesis := cftest.GenesisWithState(cftest.GenesisState(primitives.ShortAccountIDLength))
	_, err = a.Handshake(context.Background(), types.HandshakeRequest{Genesis: &genesis})
	require.ErrorIs(t, err, env.ErrIncompatible)
	assert.Contains(t, err.Error(), "account id width")
}

func TestGenesis_RejectsBadAccounts(t *testing.T) {
	gs := cftest.GenesisState(primitives.AccountIDLength)
	gs.Accounts = append(gs.Accounts, gs.Accounts[1])
	genesis := cftest.GenesisWithState(gs)
	_, err := newDefault(t).Handshake(context.Background(), types.HandshakeRequest{Genesis: &genesis})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listed twice")

	gs = cftest.GenesisState(primitives.ShortAccountIDLength)
	genesis = cftest.GenesisWithState(gs)
	_, err = newDefault(t).Handshake(context.Background(), types.HandshakeRequest{Genesis: &genesis})
	require.ErrorIs(t, err, primitives.ErrLengthMismatch)
}

func TestCompactBinding(t *testing.T) {
	a, err := app.NewCompact()
	require.NoError(t, err)
	h := cftest.NewHarness(t, a)
	h.Genesis(cftest.GenesisWithState(cftest.GenesisState(primitives.ShortAccountIDLength)))

	owner := cftest.AccountOfWidth(primitives.ShortAccountIDLength, 1)
	donor := cftest.AccountOfWidth(primitives.ShortAccountIDLength, 2)
	out := h.ExecuteAndCommit(cftest.MakeBlock(1,
		app.CreateCrowdfundTx(owner, "roof", "leaks", 10),
		app.DonateTx(donor, owner, 10),
		app.CreateCrowdfundTx(alice, "wide", "caller", 10),
	))
	require.True(t, out.TxOutcomes[0].OK(), out.TxOutcomes[0].Info)
	require.True(t, out.TxOutcomes[1].OK(), out.TxOutcomes[1].Info)
	assert.Equal(t, app.CodeInvalidTx, out.TxOutcomes[2].Code, "32-byte caller on a 16-byte binding")

	fund := queryFund(t, h, owner)
	assert.True(t, fund.Completed)
	assert.Equal(t, primitives.U64(10).Encode(), fund.AmountGotten)
}

func TestBlockNumberOverflowHalts(t *testing.T) {
	_, h := started(t)
	_, err := h.Server().ExecuteBlock(context.Background(), cftest.MakeEmptyBlock(1<<32))

	halt, ok := crowdfund.IsHalt(err)
	require.True(t, ok, "expected halt, got %v", err)
	assert.Equal(t, uint64(1<<32), halt.Height)
	assert.ErrorIs(t, err, primitives.ErrOverflow)

	// The wider binding accepts the same height.
	c, err := app.NewCustom()
	require.NoError(t, err)
	hc := cftest.NewHarness(t, c)
	hc.GenesisDefault()
	hc.ExecuteAndCommit(cftest.MakeEmptyBlock(1 << 32))
}

func TestRestart(t *testing.T) {
	a, h := started(t)
	out := h.ExecuteAndCommit(cftest.MakeBlock(1, app.CreateCrowdfundTx(alice, "roof", "leaks", 10)))

	resp := cftest.NewHarness(t, a).Restart(types.BlockID{Height: 1})
	require.NotNil(t, resp.LastBlock)
	assert.Equal(t, uint64(1), resp.LastBlock.Height)
	assert.Equal(t, out.AppHash, *resp.AppHash)

	_, err := a.Handshake(context.Background(), types.HandshakeRequest{
		LastCommitted: &types.BlockID{Height: 5},
	})
	_, ok := crowdfund.IsHalt(err)
	assert.True(t, ok, "node ahead of app state must halt, got %v", err)
}

func TestCheckTx(t *testing.T) {
	_, h := started(t)
	h.ExecuteAndCommit(cftest.MakeBlock(1, app.CreateCrowdfundTx(alice, "roof", "leaks", 10)))

	h.MustAcceptTx(app.CreateCrowdfundTx(bob, "n", "r", 1))
	h.MustAcceptTx(app.DonateTx(bob, alice, 5))

	h.MustRejectTx(types.Tx{0xFF})
	h.MustRejectTx(app.CreateCrowdfundTx(make([]byte, 16), "n", "r", 1))
	h.MustRejectTx(app.DonateTx(bob, carol, 5))
	h.MustRejectTx(app.DonateTx(stranger, alice, 5))
	h.MustRejectTx(app.DonateTx(bob, alice, 0))
	h.MustRejectTx(app.DonateTx(self, alice, 5))

	v := h.CheckTx(app.DonateTx(bob, alice, 5))
	assert.Equal(t, primitives.AccountID(bob[:32]).String(), v.Sender)
}

func TestSimulate(t *testing.T) {
	_, h := started(t)
	before := h.Query(app.PathNextID, nil)

	out := h.Simulate(app.CreateCrowdfundTx(alice, "roof", "leaks", 10))
	require.True(t, out.OK(), out.Info)
	require.Len(t, out.Events, 1)

	assert.Equal(t, before.Value, h.Query(app.PathNextID, nil).Value, "simulation leaves state untouched")
	assert.Equal(t, 1, int(h.Query(app.PathFund, alice).Code))
}

func TestQuery_Errors(t *testing.T) {
	_, h := started(t)
	assert.NotZero(t, h.Query("/nope", nil).Code)
	assert.NotZero(t, h.Query(app.PathFund, []byte{1, 2, 3}).Code)
	assert.NotZero(t, h.Query(app.PathBalance, nil).Code)

	old := uint64(7)
	res, err := h.Server().Query(context.Background(), types.StateQuery{Path: app.PathNextID, Height: &old})
	require.NoError(t, err)
	assert.NotZero(t, res.Code)
}

func TestStateSync_RoundTrip(t *testing.T) {
	src, h := started(t)
	h.ExecuteAndCommit(cftest.MakeBlock(1,
		app.CreateCrowdfundTx(alice, "roof", "leaks", 10),
		app.CreateCrowdfundTx(bob, "car", "broken", 500),
	))
	last := h.ExecuteAndCommit(cftest.MakeBlock(2, app.DonateTx(carol, alice, 10)))

	ctx := context.Background()
	descs, err := src.AvailableSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.Equal(t, uint64(2), descs[0].Height)

	chunks, desc, err := src.ExportSnapshot(ctx, 2, descs[0].Format)
	require.NoError(t, err)
	assert.Equal(t, descs[0], *desc)

	dst := newDefault(t)
	res, err := dst.ImportSnapshot(ctx, *desc, chunks)
	require.NoError(t, err)
	require.Equal(t, types.ImportOK, res.Status, res.Reason)
	assert.Equal(t, last.AppHash, *res.AppHash)

	hd := cftest.NewHarness(t, dst)
	hd.Restart(types.BlockID{Height: 2})
	assert.Equal(t, queryList(t, h, app.PathFunds), queryList(t, hd, app.PathFunds))
	assert.Equal(t, queryList(t, h, app.PathSuccessful), queryList(t, hd, app.PathSuccessful))
	assert.Equal(t, nextID(t, h), nextID(t, hd))
	assert.Equal(t, balance(t, h, self), balance(t, hd, self))

	// The block time travels with the snapshot.
	simTx := app.CreateCrowdfundTx(carol, "sim", "r", 1)
	assert.Equal(t, h.Simulate(simTx), hd.Simulate(simTx))

	// Both continue identically.
	next := cftest.MakeBlock(3, app.CreateCrowdfundTx(carol, "c", "r", 1))
	assert.Equal(t, h.ExecuteAndCommit(next).AppHash, hd.ExecuteAndCommit(next).AppHash)
}

func TestStateSync_ImportRejections(t *testing.T) {
	src, h := started(t)
	h.ExecuteAndCommit(cftest.MakeBlock(1, app.CreateCrowdfundTx(alice, "roof", "leaks", 10)))
	ctx := context.Background()

	chunks, desc, err := src.ExportSnapshot(ctx, 1, 1)
	require.NoError(t, err)
	var all []types.SnapshotChunk
	for c := range chunks {
		all = append(all, c)
	}
	feed := func(cs ...types.SnapshotChunk) <-chan types.SnapshotChunk {
		ch := make(chan types.SnapshotChunk, len(cs))
		for _, c := range cs {
			ch <- c
		}
		close(ch)
		return ch
	}

	res, err := newDefault(t).ImportSnapshot(ctx, *desc, feed())
	require.NoError(t, err)
	assert.Equal(t, types.ImportRetryChunks, res.Status)
	assert.Equal(t, []uint32{0}, res.RetryIndices)

	bad := *desc
	bad.Hash[0] ^= 0xFF
	res, err = newDefault(t).ImportSnapshot(ctx, bad, feed(all...))
	require.NoError(t, err)
	assert.Equal(t, types.ImportReject, res.Status)

	bad = *desc
	bad.Format = 9
	res, err = newDefault(t).ImportSnapshot(ctx, bad, feed(all...))
	require.NoError(t, err)
	assert.Equal(t, types.ImportReject, res.Status)

	// A snapshot of a wider binding does not restore into a compact one.
	compact, err := app.NewCompact()
	require.NoError(t, err)
	res, err = compact.ImportSnapshot(ctx, *desc, feed(all...))
	require.NoError(t, err)
	assert.Equal(t, types.ImportReject, res.Status)

	_, _, err = src.ExportSnapshot(ctx, 5, 1)
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, h := started(t, app.WithMetrics(metrics.New(reg)))
	h.ExecuteAndCommit(cftest.MakeBlock(1,
		app.CreateCrowdfundTx(alice, "roof", "leaks", 10),
		app.CreateCrowdfundTx(alice, "porch", "rot", 10),
		types.Tx{0xFF},
	))

	families, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]bool{}
	for _, f := range families {
		got[f.GetName()] = true
		if f.GetName() == "crowdfund_contract_campaigns" {
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, 2.0, f.GetMetric()[0].GetGauge().GetValue(), "counts every campaign, not owners")
		}
	}
	for _, name := range []string{
		"crowdfund_contract_invocations_total",
		"crowdfund_contract_events_total",
		"crowdfund_contract_blocks_executed_total",
		"crowdfund_contract_campaigns",
	} {
		assert.True(t, got[name], name)
	}
}

func TestNewByName(t *testing.T) {
	for _, name := range []string{"default", "custom", "compact"} {
		a, err := app.NewByName(name)
		require.NoError(t, err)
		assert.NotNil(t, a)
	}
	_, err := app.NewByName("exotic")
	assert.Error(t, err)
}

func TestNotInitialized(t *testing.T) {
	a := newDefault(t)
	_, err := a.ExecuteBlock(context.Background(), cftest.MakeEmptyBlock(1))
	require.ErrorIs(t, err, app.ErrNotInitialized)
	_, err = a.Simulate(context.Background(), app.CreateCrowdfundTx(alice, "n", "r", 1))
	require.ErrorIs(t, err, app.ErrNotInitialized)
}
