package main

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/crowdfund/types"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEnvCommand(t *testing.T) {
	out, err := run(t, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "account id       32 bytes")
	assert.Contains(t, out, "substrate host       compatible")

	out, err = run(t, "env", "--environment", "compact")
	require.NoError(t, err)
	assert.Contains(t, out, "account id       16 bytes")
	assert.Contains(t, out, "incompatible")

	_, err = run(t, "env", "--environment", "exotic")
	assert.Error(t, err)
}

func TestGenesisCommand(t *testing.T) {
	self := strings.Repeat("c0", 32)
	donor := strings.Repeat("01", 32)
	out, err := run(t, "genesis",
		"--contract-account", "0x"+self,
		"--endowment", "500",
		"--account", "0x"+donor+"=70",
	)
	require.NoError(t, err)

	data, err := hex.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	var gs types.GenesisState
	require.NoError(t, cramberry.Unmarshal(data, &gs))
	require.Len(t, gs.Accounts, 2)
	assert.Equal(t, self, hex.EncodeToString(gs.ContractAccount))
	assert.Equal(t, uint64(500), gs.Accounts[0].Balance)
	assert.Equal(t, donor, hex.EncodeToString(gs.Accounts[1].Account))
	assert.Equal(t, uint64(70), gs.Accounts[1].Balance)

	_, err = run(t, "genesis")
	assert.Error(t, err, "contract account required")

	_, err = run(t, "genesis", "--contract-account", self, "--account", "nope")
	assert.Error(t, err)
}

func TestGenesisCommand_DuplicateAccounts(t *testing.T) {
	self := strings.Repeat("c0", 32)
	donor := strings.Repeat("01", 32)

	_, err := run(t, "genesis", "--contract-account", self, "--account", "0x"+self+"=5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contract account")

	_, err = run(t, "genesis", "--contract-account", self,
		"--account", donor+"=5", "--account", "0x"+donor+"=6")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already funded")
}
