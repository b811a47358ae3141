package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/yukia3e/unified-staking-poc/internal/domain/model"
	"github.com/yukia3e/unified-staking-poc/internal/domain/repository"
	"github.com/yukia3e/unified-staking-poc/internal/util"
)

const (
	packageName = "http"

	stakePath     = "/staking/stake"
	unstakePath   = "/staking/unstake"
	withdrawPath  = "/staking/withdraw"
	broadcastPath = "/transaction/broadcast"

	maxErrorBodyBytes = 4096
)

type client struct {
	httpClient *http.Client
	baseURL    string
	secrets    repository.SecretRepository
}

func NewStakingClient(httpClient *http.Client, baseURL string, secrets repository.SecretRepository) repository.StakingAPIRepository {
	return &client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		secrets:    secrets,
	}
}

type unsignedTransactionRes struct {
	Result *struct {
		UnsignedTransactionData *string `json:"unsignedTransactionData"`
	} `json:"result"`
}

func (c *client) Stake(ctx context.Context, req model.StakeRequest) (model.UnsignedTransaction, error) {
	return c.requestUnsignedTransaction(ctx, "Stake", stakePath, req)
}

func (c *client) Unstake(ctx context.Context, req model.UnstakeRequest) (model.UnsignedTransaction, error) {
	return c.requestUnsignedTransaction(ctx, "Unstake", unstakePath, req)
}

func (c *client) Withdraw(ctx context.Context, req model.WithdrawRequest) (model.UnsignedTransaction, error) {
	return c.requestUnsignedTransaction(ctx, "Withdraw", withdrawPath, req)
}

func (c *client) Broadcast(ctx context.Context, req model.BroadcastRequest) (model.BroadcastResult, error) {
	funcName := util.FuncName()

	res, err := c.doRequest(ctx, broadcastPath, req)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("error making request: %w", err))
	}
	defer res.Body.Close()

	if err := checkStatus("Broadcast", res); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, err)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, util.WrapErrorForLog(packageName, funcName, fmt.Errorf("error decoding response body: %w", err))
	}
	log.Debug().Str("response", string(raw)).Msg(util.WrapLogMessage(packageName, funcName, "broadcast response"))

	return model.BroadcastResult(raw), nil
}

func (c *client) requestUnsignedTransaction(ctx context.Context, funcName, path string, body any) (model.UnsignedTransaction, error) {
	res, err := c.doRequest(ctx, path, body)
	if err != nil {
		return "", util.WrapErrorForLog(packageName, funcName, fmt.Errorf("error making request: %w", err))
	}
	defer res.Body.Close()

	if err := checkStatus(funcName, res); err != nil {
		return "", util.WrapErrorForLog(packageName, funcName, err)
	}

	var tmp unsignedTransactionRes
	if err := json.NewDecoder(res.Body).Decode(&tmp); err != nil {
		return "", util.WrapErrorForLog(packageName, funcName, fmt.Errorf("error decoding response body: %w", err))
	}

	if tmp.Result == nil || tmp.Result.UnsignedTransactionData == nil {
		return "", util.WrapErrorForLog(packageName, funcName, fmt.Errorf("error decoding response body: result.unsignedTransactionData is not set"))
	}

	return model.UnsignedTransaction(*tmp.Result.UnsignedTransactionData), nil
}

func (c *client) doRequest(ctx context.Context, path string, body any) (*http.Response, error) {
	token, err := c.secrets.APIToken(ctx)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("error getting api token: %w", err))
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("error encoding request body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("error creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, util.WrapErrorForLog(packageName, util.FuncName(), fmt.Errorf("error do request: %w", err))
	}

	return resp, nil
}

func checkStatus(endpoint string, res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	status := res.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", res.StatusCode, http.StatusText(res.StatusCode))
	}

	var body []byte
	if res.Body != nil {
		body, _ = io.ReadAll(io.LimitReader(res.Body, maxErrorBodyBytes))
	}

	return &model.ServiceError{
		Endpoint:   endpoint,
		StatusCode: res.StatusCode,
		Status:     status,
		Body:       string(body),
	}
}
