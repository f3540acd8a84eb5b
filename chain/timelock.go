package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"lending-deploy/connpool"
	"lending-deploy/core"
)

var (
	ErrNotReady    = errors.New("timelock eta not reached")
	ErrNotQueued   = errors.New("transaction is not queued on the timelock")
	ErrStale       = errors.New("timelock grace period passed")
	ErrChainID     = errors.New("chain id does not match")
	ErrEtaTooEarly = errors.New("eta is earlier than the timelock delay allows")
	ErrNoSigner    = errors.New("no signer configured")
)

// Timelock is a client for a Compound style timelock contract.
type Timelock struct {
	baseContract
	pool   *connpool.EvmPool
	signer Signer
	logger zerolog.Logger
}

func NewTimelock(pool *connpool.EvmPool, address common.Address, signer Signer, logger zerolog.Logger) *Timelock {
	return &Timelock{
		baseContract: baseContract{Address: address, Abi: timelockAbi},
		pool:         pool,
		signer:       signer,
		logger:       logger.With().Str("timelock", address.Hex()).Logger(),
	}
}

func (t *Timelock) Delay(ctx context.Context) (time.Duration, error) {
	var res *big.Int
	err := t.pool.Call(func(c *ethclient.Client, _ *rpc.Client) error {
		return t.call(ctx, c, &res, methodDelay)
	})
	if err != nil {
		return 0, err
	}
	return time.Duration(res.Int64()) * time.Second, nil
}

func (t *Timelock) GracePeriod(ctx context.Context) (time.Duration, error) {
	var res *big.Int
	err := t.pool.Call(func(c *ethclient.Client, _ *rpc.Client) error {
		return t.call(ctx, c, &res, methodGracePeriod)
	})
	if err != nil {
		return 0, err
	}
	return time.Duration(res.Int64()) * time.Second, nil
}

func (t *Timelock) Admin(ctx context.Context) (common.Address, error) {
	var res common.Address
	err := t.pool.Call(func(c *ethclient.Client, _ *rpc.Client) error {
		return t.call(ctx, c, &res, methodAdmin)
	})
	return res, err
}

// IsQueued 查询 timelock 上该交易是否处于 queued 状态
func (t *Timelock) IsQueued(ctx context.Context, tx core.TimelockTransaction) (bool, error) {
	hash, err := tx.TxHash()
	if err != nil {
		return false, err
	}
	var res bool
	err = t.pool.Call(func(c *ethclient.Client, _ *rpc.Client) error {
		return t.call(ctx, c, &res, methodQueuedTransactions, hash)
	})
	return res, err
}

// Prepare fills the chain id, queue time and, when empty, the eta of a draft
// transaction. The eta is now + delay + buffer.
func (t *Timelock) Prepare(ctx context.Context, draft core.TimelockTransaction, now time.Time, buffer time.Duration) (core.TimelockTransaction, error) {
	var chainID *big.Int
	err := t.pool.Call(func(c *ethclient.Client, _ *rpc.Client) error {
		var err error
		chainID, err = c.ChainID(ctx)
		return err
	})
	if err != nil {
		return core.TimelockTransaction{}, err
	}
	if draft.ChainID != 0 && draft.ChainID != chainID.Int64() {
		return core.TimelockTransaction{}, fmt.Errorf("%w: draft %d, node %s", ErrChainID, draft.ChainID, chainID)
	}

	delay, err := t.Delay(ctx)
	if err != nil {
		return core.TimelockTransaction{}, err
	}

	tx := draft
	tx.ChainID = chainID.Int64()
	tx.QueuedAt = strconv.FormatInt(now.Unix(), 10)
	if tx.Value == "" {
		tx.Value = "0"
	}
	if tx.ETA == "" {
		tx.ETA = strconv.FormatInt(now.Add(delay+buffer).Unix(), 10)
	} else {
		eta, err := tx.ETATime()
		if err != nil {
			return core.TimelockTransaction{}, err
		}
		if eta.Before(now.Add(delay)) {
			return core.TimelockTransaction{}, fmt.Errorf("%w: eta %s, delay %s", ErrEtaTooEarly, tx.ETA, delay)
		}
	}
	return tx, nil
}

// Queue 发送 queueTransaction，返回链上交易 hash
func (t *Timelock) Queue(ctx context.Context, tx core.TimelockTransaction) (string, error) {
	return t.send(ctx, methodQueueTransaction, tx, big.NewInt(0))
}

func (t *Timelock) Cancel(ctx context.Context, tx core.TimelockTransaction) (string, error) {
	return t.send(ctx, methodCancelTransaction, tx, big.NewInt(0))
}

// Execute sends executeTransaction once the eta has passed and the
// transaction is still queued.
func (t *Timelock) Execute(ctx context.Context, tx core.TimelockTransaction, now time.Time) (string, error) {
	eta, err := tx.ETATime()
	if err != nil {
		return "", err
	}
	if now.Before(eta) {
		return "", fmt.Errorf("%w: eta %s", ErrNotReady, eta.Format(time.RFC3339))
	}
	grace, err := t.GracePeriod(ctx)
	if err != nil {
		return "", err
	}
	if now.After(eta.Add(grace)) {
		return "", fmt.Errorf("%w: eta %s", ErrStale, eta.Format(time.RFC3339))
	}
	queued, err := t.IsQueued(ctx, tx)
	if err != nil {
		return "", err
	}
	if !queued {
		return "", ErrNotQueued
	}
	value, err := tx.Amount()
	if err != nil {
		return "", err
	}
	return t.send(ctx, methodExecuteTransaction, tx, value)
}

func (t *Timelock) send(ctx context.Context, method string, tx core.TimelockTransaction, value *big.Int) (string, error) {
	if t.signer == nil {
		return "", ErrNoSigner
	}
	args, err := timelockArgs(tx)
	if err != nil {
		return "", err
	}
	msg, err := t.msg(t.signer.Address(), method, args...)
	if err != nil {
		return "", err
	}

	var rawBytes []byte
	err = t.pool.Call(func(c *ethclient.Client, _ *rpc.Client) error {
		rawBytes, err = buildTx(ctx, c, msg, value)
		return err
	})
	if err != nil {
		return "", err
	}

	hash, err := t.signer.SignAndSend(ctx, rawBytes)
	if err != nil {
		return "", err
	}
	t.logger.Info().Str("method", method).Str("tx", hash).Str("signature", tx.Signature).Msg("timelock transaction sent")
	return hash, nil
}

// timelockArgs 返回 queue/cancel/execute 共用的参数 (target, value, signature, data, eta)
func timelockArgs(tx core.TimelockTransaction) ([]interface{}, error) {
	target, err := tx.TargetAddress()
	if err != nil {
		return nil, err
	}
	data, err := tx.EncodedParams()
	if err != nil {
		return nil, err
	}
	value, err := tx.Amount()
	if err != nil {
		return nil, err
	}
	eta, err := tx.ETATime()
	if err != nil {
		return nil, err
	}
	return []interface{}{target, value, tx.Signature, data, big.NewInt(eta.Unix())}, nil
}
