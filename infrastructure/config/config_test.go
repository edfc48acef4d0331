package config

import (
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/orosnet/orosd/domain/chainparams"
)

func TestResolveNetwork(t *testing.T) {
	tests := []struct {
		name           string
		networkFlags   NetworkFlags
		expectedParams *chainparams.Params
		expectsError   bool
	}{
		{
			name:           "no network flag defaults to mainnet",
			networkFlags:   NetworkFlags{},
			expectedParams: &chainparams.MainnetParams,
		},
		{
			name:           "testnet",
			networkFlags:   NetworkFlags{Testnet: true},
			expectedParams: &chainparams.TestnetParams,
		},
		{
			name:           "simnet",
			networkFlags:   NetworkFlags{Simnet: true},
			expectedParams: &chainparams.SimnetParams,
		},
		{
			name:         "multiple networks",
			networkFlags: NetworkFlags{Testnet: true, Simnet: true},
			expectsError: true,
		},
	}

	for _, test := range tests {
		parser := flags.NewParser(&Flags{}, flags.None)
		err := test.networkFlags.ResolveNetwork(parser)
		if test.expectsError {
			if err == nil {
				t.Errorf("%s: expected an error but got none", test.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %s", test.name, err)
			continue
		}
		if test.networkFlags.NetParams() != test.expectedParams {
			t.Errorf("%s: resolved to network %s", test.name,
				test.networkFlags.NetParams().Name)
		}
	}
}

func TestCleanAndExpandPath(t *testing.T) {
	cleaned := cleanAndExpandPath("/tmp/./orosd//data")
	if cleaned != "/tmp/orosd/data" {
		t.Errorf("cleanAndExpandPath returned %s", cleaned)
	}
}
