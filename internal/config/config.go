package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	SignerBackendLocal = "local"
	SignerBackendKMS   = "kms"

	SecretSourceEnv  = "env"
	SecretSourceFile = "file"
)

// Config is the static configuration of a staking run. It is loaded once and
// passed by value; nothing mutates it after Load returns.
type Config struct {
	APIBaseURL    string
	RPCNode       string
	NetworkName   string
	Chain         string
	Address       string
	StakeAccount  string
	Amount        string
	SignerBackend string
	KMSKeyVersion string
	SecretSource  string
	SecretFile    string
	HTTPTimeout   time.Duration
	SkipBalance   bool
}

// Load reads the configuration from the environment. STAKER_ADDRESS is
// required and Load panics when it is missing.
func Load() Config {
	return Config{
		APIBaseURL:    GetAPIBaseURL(),
		RPCNode:       GetRPCNode(),
		NetworkName:   GetNetworkName(),
		Chain:         GetChain(),
		Address:       MustGetStakerAddress(),
		StakeAccount:  GetStakeAccount(),
		Amount:        GetAmount(),
		SignerBackend: GetSignerBackend(),
		KMSKeyVersion: GetKMSKeyVersion(),
		SecretSource:  GetSecretSource(),
		SecretFile:    GetSecretFilePath(),
		HTTPTimeout:   GetHTTPTimeout(),
		SkipBalance:   GetSkipBalance(),
	}
}

func (c Config) Validate() error {
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("config.Validate: invalid api base url %q: %w", c.APIBaseURL, err)
	}
	if c.Address == "" {
		return fmt.Errorf("config.Validate: staker address is empty")
	}
	switch c.SignerBackend {
	case SignerBackendLocal:
	case SignerBackendKMS:
		if c.KMSKeyVersion == "" {
			return fmt.Errorf("config.Validate: kms signer backend requires a key version")
		}
	default:
		return fmt.Errorf("config.Validate: unknown signer backend %q", c.SignerBackend)
	}
	switch c.SecretSource {
	case SecretSourceEnv:
	case SecretSourceFile:
		if c.SecretFile == "" {
			return fmt.Errorf("config.Validate: file secret source requires a secret file path")
		}
	default:
		return fmt.Errorf("config.Validate: unknown secret source %q", c.SecretSource)
	}
	return nil
}
