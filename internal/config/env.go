package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultAPIBaseURL    = "https://api-test.p2p.org/api/v1/unified"
	DefaultSolanaRPCNode = "https://api.testnet.solana.com"
	DefaultNetworkName   = "testnet"
	DefaultChain         = "solana"
	DefaultSignerBackend = "local"
	DefaultSecretSource  = "env"
)

func GetEnvironment() string {
	return os.Getenv("APP_ENV")
}

func IsLocal() bool {
	return GetEnvironment() == "local"
}

func IsDevelopment() bool {
	return GetEnvironment() == "local" || GetEnvironment() == "development"
}

func IsStaging() bool {
	return GetEnvironment() == "staging"
}

func IsProduction() bool {
	return GetEnvironment() == "production"
}

func GetLogLevel() string {
	return os.Getenv("LOG_LEVEL")
}

func GetAPIBaseURL() string {
	return getOrDefault("P2P_API_BASE_URL", DefaultAPIBaseURL)
}

func GetRPCNode() string {
	return getOrDefault("RPC_NODE", DefaultSolanaRPCNode)
}

func GetNetworkName() string {
	return getOrDefault("NETWORK_NAME", DefaultNetworkName)
}

func GetChain() string {
	return getOrDefault("CHAIN", DefaultChain)
}

func MustGetStakerAddress() string {
	address := os.Getenv("STAKER_ADDRESS")
	if address == "" {
		panic("STAKER_ADDRESS is not set")
	}

	return address
}

func GetStakeAccount() string {
	return os.Getenv("STAKE_ACCOUNT")
}

func GetAmount() string {
	return os.Getenv("STAKE_AMOUNT")
}

func GetSignerBackend() string {
	return getOrDefault("SIGNER_BACKEND", DefaultSignerBackend)
}

func GetKMSKeyVersion() string {
	return os.Getenv("KMS_KEY_VERSION")
}

func GetSecretSource() string {
	return getOrDefault("SECRET_SOURCE", DefaultSecretSource)
}

func GetSecretFilePath() string {
	return os.Getenv("SECRET_FILE_PATH")
}

func GetCredentialFilePath() string {
	return os.Getenv("GCLOUD_CREDENTIAL_FILE_PATH")
}

func GetHTTPTimeout() time.Duration {
	timeoutStr := os.Getenv("HTTP_TIMEOUT")
	if timeoutStr == "" {
		return 0
	}
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		log.Error().Msg(fmt.Sprintf("config.GetHTTPTimeout: failed to parse http timeout: %v", err.Error()))
		return 0
	}
	return timeout
}

func GetSkipBalance() bool {
	skip, err := strconv.ParseBool(os.Getenv("SKIP_BALANCE"))
	if err != nil {
		return false
	}
	return skip
}

func getOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
