// Package evm is the execution collaborator for EVM domains: it turns plan
// steps into signed EIP-1559 transactions and waits for their receipts.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	clierr "github.com/ggonzalez94/defi-router/internal/errors"
	"github.com/ggonzalez94/defi-router/internal/model"
	"github.com/ggonzalez94/defi-router/internal/registry"
	"go.uber.org/zap"
)

// Options tune transaction submission.
type Options struct {
	Simulate      bool
	PollInterval  time.Duration
	StepTimeout   time.Duration
	GasMultiplier float64
	SlippageBps   int64
}

func DefaultOptions() Options {
	return Options{
		Simulate:      true,
		PollInterval:  2 * time.Second,
		StepTimeout:   2 * time.Minute,
		GasMultiplier: 1.2,
		SlippageBps:   50,
	}
}

// Collaborator submits steps on-chain. One dial per step keeps it free of
// per-domain connection state; callers that need pooling wrap it.
type Collaborator struct {
	reg    *registry.Registry
	signer Signer
	opts   Options
	log    *zap.Logger
}

func New(reg *registry.Registry, signer Signer, opts Options, logger *zap.Logger) *Collaborator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = 2 * time.Minute
	}
	if opts.GasMultiplier <= 1 {
		opts.GasMultiplier = 1.2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collaborator{reg: reg, signer: signer, opts: opts, log: logger}
}

func (c *Collaborator) ExecuteSwap(ctx context.Context, step model.ExecutionStep, principalID string) (model.TxHandle, error) {
	call, err := encodeSwap(step, c.signer.Address(), c.opts.SlippageBps)
	if err != nil {
		return "", err
	}
	return c.submit(ctx, step, principalID, call)
}

func (c *Collaborator) ExecuteBridge(ctx context.Context, step model.ExecutionStep, principalID string) (model.TxHandle, error) {
	now := uint32(time.Now().Unix())
	call, err := encodeBridge(step, c.signer.Address(), c.opts.SlippageBps, now, now+3600)
	if err != nil {
		return "", err
	}
	return c.submit(ctx, step, principalID, call)
}

func (c *Collaborator) ExecuteApproval(ctx context.Context, step model.ExecutionStep, principalID string) (model.TxHandle, error) {
	call, err := encodeApproval(step)
	if err != nil {
		return "", err
	}
	return c.submit(ctx, step, principalID, call)
}

func (c *Collaborator) submit(ctx context.Context, step model.ExecutionStep, principalID string, call encodedCall) (model.TxHandle, error) {
	rpcURL, ok := c.reg.RPCURL(step.Domain)
	if !ok {
		return "", clierr.New(clierr.CodeUnsupported, fmt.Sprintf("no rpc endpoint configured for %s", step.Domain))
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUnavailable, "connect rpc", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUnavailable, "read chain id", err)
	}
	if expected, ok := step.Domain.EVMChainID(); ok && chainID.Int64() != expected {
		return "", clierr.New(clierr.CodeExecStep, fmt.Sprintf("rpc serves chain %d, step targets %s (%d)", chainID.Int64(), step.Domain, expected))
	}

	msg := ethereum.CallMsg{From: c.signer.Address(), To: &call.target, Value: call.value, Data: call.data}
	if c.opts.Simulate {
		if _, err := client.CallContract(ctx, msg, nil); err != nil {
			return "", clierr.Wrap(clierr.CodeExecStep, "simulate step (eth_call)", err)
		}
	}

	gasLimit, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeExecStep, "estimate gas", err)
	}
	gasLimit = uint64(float64(gasLimit) * c.opts.GasMultiplier)

	tipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		tipCap = big.NewInt(2_000_000_000) // 2 gwei fallback
	}
	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUnavailable, "fetch latest header", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(1_000_000_000)
	}
	feeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	feeCap.Add(feeCap, tipCap)

	nonce, err := client.PendingNonceAt(ctx, c.signer.Address())
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUnavailable, "fetch nonce", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &call.target,
		Value:     call.value,
		Data:      call.data,
	})
	signed, err := c.signer.SignTx(chainID, tx)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeSigner, "sign transaction", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", clierr.Wrap(clierr.CodeUnavailable, "broadcast transaction", err)
	}

	c.log.Info("step transaction submitted",
		zap.String("principal_id", principalID),
		zap.String("domain", step.Domain.String()),
		zap.String("venue", step.Venue),
		zap.String("tx_hash", signed.Hash().Hex()))

	if err := c.waitReceipt(ctx, client, signed); err != nil {
		return "", err
	}
	return model.TxHandle(signed.Hash().Hex()), nil
}

func (c *Collaborator) waitReceipt(ctx context.Context, client *ethclient.Client, signed *types.Transaction) error {
	waitCtx, cancel := context.WithTimeout(ctx, c.opts.StepTimeout)
	defer cancel()
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	for {
		receipt, err := client.TransactionReceipt(waitCtx, signed.Hash())
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusSuccessful {
				return nil
			}
			return clierr.New(clierr.CodeExecStep, "transaction reverted on-chain")
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && waitCtx.Err() == nil {
			// Transient RPC polling failures are retried until timeout.
			c.log.Debug("receipt poll failed", zap.Error(err))
		}
		select {
		case <-waitCtx.Done():
			return clierr.Wrap(clierr.CodeExecTimeout, "timed out waiting for receipt", waitCtx.Err())
		case <-ticker.C:
		}
	}
}
