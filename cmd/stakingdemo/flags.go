package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/yukia3e/unified-staking-poc/internal/config"
)

// envFlags maps command line flags onto the environment variables read by
// the config package.
var envFlags = []struct {
	name  string
	env   string
	def   string
	usage string
}{
	{"chain", "CHAIN", config.DefaultChain, "chain to stake on (solana, ethereum)"},
	{"network", "NETWORK_NAME", config.DefaultNetworkName, "network name"},
	{"address", "STAKER_ADDRESS", "", "staker address"},
	{"amount", "STAKE_AMOUNT", "", "amount in base units, e.g. lamports"},
	{"stake-account", "STAKE_ACCOUNT", "", "stake account to unstake from"},
	{"rpc", "RPC_NODE", config.DefaultSolanaRPCNode, "rpc node used for balance lookups"},
	{"api", "P2P_API_BASE_URL", config.DefaultAPIBaseURL, "unified staking api base url"},
	{"signer", "SIGNER_BACKEND", config.DefaultSignerBackend, "signer backend (local, kms)"},
	{"kms-key", "KMS_KEY_VERSION", "", "kms crypto key version resource name"},
	{"secrets", "SECRET_SOURCE", config.DefaultSecretSource, "secret source (env, file)"},
	{"secret-file", "SECRET_FILE_PATH", "", "path of the secret file"},
}

func bindFlags(fs *flag.FlagSet) {
	for _, f := range envFlags {
		fs.String(f.name, f.def, f.usage)
	}
}

// applyFlags exports every explicitly set flag so that config.Load picks it
// up over the inherited environment.
func applyFlags(fs *flag.FlagSet) error {
	for _, f := range envFlags {
		if !fs.Changed(f.name) {
			continue
		}
		v, err := fs.GetString(f.name)
		if err != nil {
			return err
		}
		if err := os.Setenv(f.env, v); err != nil {
			return fmt.Errorf("failed to set %s: %w", f.env, err)
		}
	}
	return nil
}
