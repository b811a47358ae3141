package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kms "cloud.google.com/go/kms/apiv1"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
	"google.golang.org/api/option"

	"github.com/yukia3e/unified-staking-poc/internal/config"
	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
	"github.com/yukia3e/unified-staking-poc/internal/domain/repository"
	"github.com/yukia3e/unified-staking-poc/internal/infrastructure/chain"
	appHttp "github.com/yukia3e/unified-staking-poc/internal/infrastructure/http"
	"github.com/yukia3e/unified-staking-poc/internal/infrastructure/secret"
	"github.com/yukia3e/unified-staking-poc/internal/infrastructure/signer"
	"github.com/yukia3e/unified-staking-poc/internal/usecase/staking"
	"github.com/yukia3e/unified-staking-poc/internal/util"
)

const packageName = "main"

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain returns the process exit code so that deferred cleanup runs
// before main exits.
func realMain(args []string) int {
	const funcName = "main"

	var only string
	var debug bool
	fs := flag.NewFlagSet("stakingdemo", flag.ContinueOnError)
	bindFlags(fs)
	fs.StringVar(&only, "only", "", "run a single operation: stake, unstake or withdraw")
	fs.BoolVar(&debug, "debug", false, "sets debug level log output")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := config.GetLogLevel()
	if debug {
		level = "debug"
	}
	util.SetupLogger(level, config.IsLocal() || config.IsDevelopment())

	if err := applyFlags(fs); err != nil {
		log.Error().Msg(util.WrapLogMessage(packageName, funcName, fmt.Sprintf("invalid flags: %v", err)))
		return 1
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error().Msg(util.WrapLogMessage(packageName, funcName, fmt.Sprintf("invalid configuration: %v", err)))
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	secrets, err := newSecrets(cfg)
	if err != nil {
		log.Error().Msg(util.WrapLogMessage(packageName, funcName, fmt.Sprintf("failed to load secrets: %v", err)))
		return 1
	}

	var kmsClient signer.KMSClient
	if cfg.SignerBackend == config.SignerBackendKMS {
		var opts []option.ClientOption
		if path := config.GetCredentialFilePath(); path != "" {
			opts = append(opts, option.WithCredentialsFile(path))
		}
		c, err := kms.NewKeyManagementClient(ctx, opts...)
		if err != nil {
			log.Error().Msg(util.WrapLogMessage(packageName, funcName, fmt.Sprintf("failed to create kms client: %v", err)))
			return 1
		}
		defer c.Close()
		kmsClient = c
	}

	api := appHttp.NewStakingClient(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.APIBaseURL, secrets)
	flow := staking.NewFlow(api, signer.NewFactory(cfg, secrets, kmsClient))

	var balance repository.BalanceRepository
	if !cfg.SkipBalance {
		b, closeBalance, err := chain.NewBalance(ctx, model.Chain(cfg.Chain), cfg.RPCNode)
		if err != nil {
			log.Warn().Msg(util.WrapLogMessage(packageName, funcName, fmt.Sprintf("balance lookups disabled: %v", err)))
		} else {
			defer closeBalance()
			balance = b
		}
	}

	logBalance(ctx, balance, cfg.Address, "balance before")

	if err := run(ctx, flow, cfg, only); err != nil {
		log.Error().Bool("signing", staking.IsSigningError(err)).Msg(util.WrapLogMessage(packageName, funcName, fmt.Sprintf("staking flow failed: %v", err)))
		return 1
	}

	logBalance(ctx, balance, cfg.Address, "balance after")

	log.Info().Msg(util.WrapLogMessage(packageName, funcName, "success"))
	return 0
}

func run(ctx context.Context, flow *staking.Flow, cfg config.Config, only string) error {
	c := model.Chain(cfg.Chain)

	var res model.BroadcastResult
	var err error
	switch only {
	case "":
		_, err = flow.RunAll(ctx, staking.Request{
			Chain:        c,
			Network:      cfg.NetworkName,
			Address:      cfg.Address,
			Amount:       cfg.Amount,
			StakeAccount: cfg.StakeAccount,
		})
		return err
	case "stake":
		res, err = flow.Stake(ctx, c, cfg.NetworkName, cfg.Address, cfg.Amount)
	case "unstake":
		res, err = flow.Unstake(ctx, c, cfg.NetworkName, cfg.Address, cfg.Amount, cfg.StakeAccount)
	case "withdraw":
		res, err = flow.Withdraw(ctx, c, cfg.NetworkName, cfg.Address, cfg.Amount)
	default:
		return fmt.Errorf("unknown operation %q", only)
	}
	if err != nil {
		return err
	}

	log.Info().Str("operation", only).Str("response", res.String()).Msg(util.WrapLogMessage(packageName, "run", "done"))
	return nil
}

func newSecrets(cfg config.Config) (repository.SecretRepository, error) {
	if cfg.SecretSource == config.SecretSourceFile {
		return secret.NewFile(cfg.SecretFile)
	}
	return secret.NewEnv(), nil
}

func logBalance(ctx context.Context, balance repository.BalanceRepository, address, msg string) {
	if balance == nil {
		return
	}
	b, err := balance.GetBalance(ctx, address)
	if err != nil {
		log.Warn().Msg(util.WrapLogMessage(packageName, "logBalance", fmt.Sprintf("failed to get balance: %v", err)))
		return
	}
	log.Info().Str("address", address).Str("balance", b.String()).Msg(util.WrapLogMessage(packageName, "logBalance", msg))
}
