package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"

	"lending-deploy/connpool"
)

var ErrTxFailed = errors.New("transaction failed")

// maxPollErrors 连续查询回执失败的次数上限，未找到回执不计入
const maxPollErrors = 5

// WaitForTx 轮询交易回执直到上链，回执 status 为 0 时返回 ErrTxFailed
func WaitForTx(ctx context.Context, pool *connpool.EvmPool, txHash string, interval time.Duration, logger zerolog.Logger) (*types.Receipt, error) {
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().Str("tx", txHash).Msg("waiting for transaction")
	pollErrors := 0
	for {
		var receipt *types.Receipt
		err := pool.Call(func(c *ethclient.Client, _ *rpc.Client) error {
			var err error
			receipt, err = c.TransactionReceipt(ctx, hash)
			return err
		})
		switch {
		case err == nil && receipt.Status == types.ReceiptStatusSuccessful:
			logger.Info().Str("tx", txHash).Uint64("block", receipt.BlockNumber.Uint64()).Msg("transaction succeeded")
			return receipt, nil
		case err == nil:
			logger.Error().Str("tx", txHash).Msg("transaction failed")
			return receipt, ErrTxFailed
		case isNotFound(err):
			pollErrors = 0
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			pollErrors++
			if pollErrors >= maxPollErrors {
				return nil, fmt.Errorf("poll receipt of %s: %w", txHash, err)
			}
			logger.Warn().Err(err).Str("tx", txHash).Int("attempt", pollErrors).Msg("poll receipt")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
