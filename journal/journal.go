// Package journal keeps the append-only record of timelock transactions of one network.
package journal

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"lending-deploy/core"
)

var (
	ErrNotFound  = errors.New("timelock transaction not found")
	ErrDuplicate = errors.New("timelock transaction already queued")
)

// Journal 对应一个网络的 timelock 交易记录文件，记录只追加不删除
type Journal struct {
	path      string
	validator *core.Validator
	logger    zerolog.Logger
	mu        sync.Mutex
}

type Option func(j *Journal)

func WithLogger(l zerolog.Logger) Option {
	return func(j *Journal) { j.logger = l }
}

func WithValidator(v *core.Validator) Option {
	return func(j *Journal) { j.validator = v }
}

// Open returns a journal backed by path. A missing file is an empty journal
// and is created on the first Append.
func Open(path string, opts ...Option) (*Journal, error) {
	v, err := core.NewValidator()
	if err != nil {
		return nil, err
	}
	j := &Journal{path: path, validator: v, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(j)
	}
	if _, err := j.read(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal) Path() string { return j.path }

func (j *Journal) List() ([]core.TimelockTransaction, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.read()
}

// Pending lists queued transactions that have not been executed yet.
func (j *Journal) Pending() ([]core.TimelockTransaction, error) {
	txs, err := j.List()
	if err != nil {
		return nil, err
	}
	res := make([]core.TimelockTransaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.IsExecuted() {
			res = append(res, tx)
		}
	}
	return res, nil
}

// Ready lists pending transactions whose eta has passed at now.
func (j *Journal) Ready(now time.Time) ([]core.TimelockTransaction, error) {
	pending, err := j.Pending()
	if err != nil {
		return nil, err
	}
	res := make([]core.TimelockTransaction, 0, len(pending))
	for _, tx := range pending {
		eta, err := tx.ETATime()
		if err != nil {
			return nil, err
		}
		if !eta.After(now) {
			res = append(res, tx)
		}
	}
	return res, nil
}

func (j *Journal) Find(hash common.Hash) (core.TimelockTransaction, error) {
	txs, err := j.List()
	if err != nil {
		return core.TimelockTransaction{}, err
	}
	i, err := indexOf(txs, hash)
	if err != nil {
		return core.TimelockTransaction{}, err
	}
	return txs[i], nil
}

// Check reports whether Append would accept tx now. Callers run it before
// sending the queue transaction.
func (j *Journal) Check(tx core.TimelockTransaction) error {
	hash, err := j.hashOf(tx)
	if err != nil {
		return err
	}
	txs, err := j.List()
	if err != nil {
		return err
	}
	return checkDuplicate(txs, hash)
}

// Append validates tx and adds it to the end of the journal. A transaction
// with the same timelock hash that is still pending is rejected.
func (j *Journal) Append(tx core.TimelockTransaction) (common.Hash, error) {
	hash, err := j.hashOf(tx)
	if err != nil {
		return common.Hash{}, err
	}

	unlock, err := j.lock()
	if err != nil {
		return common.Hash{}, err
	}
	defer unlock()

	txs, err := j.read()
	if err != nil {
		return common.Hash{}, err
	}
	if err := checkDuplicate(txs, hash); err != nil {
		return common.Hash{}, err
	}

	txs = append(txs, tx)
	if err := j.write(txs); err != nil {
		return common.Hash{}, err
	}
	j.logger.Info().Str("tx_hash", hash.Hex()).Str("signature", tx.Signature).Str("eta", tx.ETA).Msg("timelock transaction recorded")
	return hash, nil
}

// MarkExecuted records the execution of the pending transaction with hash.
func (j *Journal) MarkExecuted(hash common.Hash, executionTx string, at time.Time) error {
	unlock, err := j.lock()
	if err != nil {
		return err
	}
	defer unlock()

	txs, err := j.read()
	if err != nil {
		return err
	}
	i, err := indexOfPending(txs, hash)
	if err != nil {
		return err
	}
	if err := txs[i].MarkExecuted(executionTx, at); err != nil {
		return err
	}
	if err := j.write(txs); err != nil {
		return err
	}
	j.logger.Info().Str("tx_hash", hash.Hex()).Str("execution_tx", executionTx).Msg("timelock transaction executed")
	return nil
}

func (j *Journal) hashOf(tx core.TimelockTransaction) (common.Hash, error) {
	if err := j.validator.ValidateTransaction(tx); err != nil {
		return common.Hash{}, err
	}
	return tx.TxHash()
}

func checkDuplicate(txs []core.TimelockTransaction, hash common.Hash) error {
	if i, err := indexOf(txs, hash); err == nil && !txs[i].IsExecuted() {
		return fmt.Errorf("%w: %s", ErrDuplicate, hash.Hex())
	}
	return nil
}

// indexOf 返回最后一条匹配 hash 的记录，同一 hash 执行后可以再次 queue
func indexOf(txs []core.TimelockTransaction, hash common.Hash) (int, error) {
	for i := len(txs) - 1; i >= 0; i-- {
		h, err := txs[i].TxHash()
		if err != nil {
			continue
		}
		if h == hash {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrNotFound, hash.Hex())
}

func indexOfPending(txs []core.TimelockTransaction, hash common.Hash) (int, error) {
	i, err := indexOf(txs, hash)
	if err != nil {
		return -1, err
	}
	if txs[i].IsExecuted() {
		return -1, fmt.Errorf("%w: %s", core.ErrAlreadyExecuted, txs[i].ExecutionTransaction)
	}
	return i, nil
}

// lock 持有进程内的 mu 和 journal 旁边的文件锁，多个进程也不会交错改写
func (j *Journal) lock() (func(), error) {
	j.mu.Lock()
	fl := flock.New(j.path + ".lock")
	if err := fl.Lock(); err != nil {
		j.mu.Unlock()
		return nil, fmt.Errorf("lock journal %s: %w", j.path, err)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			j.logger.Warn().Err(err).Str("path", fl.Path()).Msg("unlock journal")
		}
		j.mu.Unlock()
	}, nil
}

func (j *Journal) read() ([]core.TimelockTransaction, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return []core.TimelockTransaction{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []core.TimelockTransaction{}, nil
	}
	var txs []core.TimelockTransaction
	if err := core.Decode(bytes.NewReader(data), core.FormatJSON, &txs); err != nil {
		return nil, fmt.Errorf("failed to parse journal %s: %w", j.path, err)
	}
	return txs, nil
}

func (j *Journal) write(txs []core.TimelockTransaction) error {
	pendingFile, err := renameio.NewPendingFile(j.path)
	if err != nil {
		return fmt.Errorf("create pending journal file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			j.logger.Debug().Err(err).Msg("cleanup pending journal file")
		}
	}()

	if err := core.Encode(pendingFile, core.FormatJSON, txs); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace journal: %w", err)
	}
	return nil
}
