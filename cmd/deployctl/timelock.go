package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lending-deploy/chain"
	"lending-deploy/connpool"
	"lending-deploy/core"
	"lending-deploy/display"
	"lending-deploy/journal"
)

func newTimelockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timelock",
		Short: "Queues, executes and lists timelock transactions",
	}

	cmd.PersistentFlags().String(flagJournal, "timelock.json", "Path to the timelock transaction journal.")
	cmd.PersistentFlags().String(flagRPC, "", "JSON-RPC url of the network node.")

	cmd.AddCommand(
		newTimelockListCommand(),
		newTimelockHashCommand(),
		newTimelockQueueCommand(),
		newTimelockExecuteCommand(),
	)

	return cmd
}

func newTimelockListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lists the journal entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := openJournal(cmd, zerolog.Nop())
			if err != nil {
				return err
			}

			var txs []core.TimelockTransaction
			if pending, _ := cmd.Flags().GetBool(flagPending); pending {
				txs, err = j.Pending()
			} else {
				txs, err = j.List()
			}
			if err != nil {
				return err
			}

			for _, tx := range txs {
				display.Transaction(cmd.OutOrStdout(), tx)
			}

			return nil
		},
	}

	cmd.Flags().Bool(flagPending, false, "Only list transactions not executed yet.")

	return cmd
}

func newTimelockHashCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "hash <draft file>",
		Short:   "Prints the timelock hash and calldata of a transaction file",
		Example: "deployctl timelock hash set-tier.yaml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := readDraft(args[0])
			if err != nil {
				return err
			}

			hash, err := tx.TxHash()
			if err != nil {
				return err
			}
			calldata, err := tx.Calldata()
			if err != nil {
				return err
			}

			display.Fields(cmd.OutOrStdout(),
				[2]string{"txHash", hash.Hex()},
				[2]string{"calldata", hexutil.Encode(calldata)},
			)

			return nil
		},
	}
}

func newTimelockQueueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "queue <draft file>",
		Short:   "Queues a transaction on the timelock and records it in the journal",
		Example: "MNEMONIC=... deployctl timelock queue -c bsc_mainnet.json --rpc https://... set-tier.yaml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := readDraft(args[0])
			if err != nil {
				return err
			}

			return withTimelock(cmd, func(ctx context.Context, tl *chain.Timelock, pool *connpool.EvmPool, j *journal.Journal, logger zerolog.Logger) error {
				buffer, _ := cmd.Flags().GetDuration(flagBuffer)
				q := queuer{tl: tl, pool: pool, j: j, out: cmd.OutOrStdout(), interval: pollInterval(cmd), logger: logger}

				return q.queue(ctx, draft, buffer)
			})
		},
	}

	cmd.Flags().Duration(flagBuffer, 10*time.Minute, "Time added to the timelock delay when the draft has no eta.")
	cmd.Flags().Duration(flagInterval, 3*time.Second, "Receipt polling interval.")

	return cmd
}

func newTimelockExecuteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute <timelock hash>",
		Short: "Executes a queued journal entry whose eta has passed",
		Long: "Executes a queued journal entry whose eta has passed.\n\n" +
			"With --" + flagExecTx + " nothing is sent: the given execute transaction is awaited and recorded, " +
			"for runs that stopped before the receipt arrived.",
		Example: "MNEMONIC=... deployctl timelock execute -c bsc_mainnet.json --rpc https://... 0x1234...",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := common.HexToHash(args[0])
			executionTx, _ := cmd.Flags().GetString(flagExecTx)

			return withTimelock(cmd, func(ctx context.Context, tl *chain.Timelock, pool *connpool.EvmPool, j *journal.Journal, logger zerolog.Logger) error {
				q := queuer{tl: tl, pool: pool, j: j, out: cmd.OutOrStdout(), interval: pollInterval(cmd), logger: logger}

				return q.execute(ctx, hash, executionTx)
			})
		},
	}

	cmd.Flags().Duration(flagInterval, 3*time.Second, "Receipt polling interval.")
	cmd.Flags().String(flagExecTx, "", "Record this already sent execute transaction instead of sending a new one.")

	return cmd
}

// queuer 负责发送 timelock 交易并维护 journal
type queuer struct {
	tl       *chain.Timelock
	pool     *connpool.EvmPool
	j        *journal.Journal
	out      io.Writer
	interval time.Duration
	logger   zerolog.Logger
}

// queue 发送 queueTransaction 后立即写入 journal，再等待回执
func (q queuer) queue(ctx context.Context, draft core.TimelockTransaction, buffer time.Duration) error {
	tx, err := q.tl.Prepare(ctx, draft, time.Now(), buffer)
	if err != nil {
		return err
	}
	if err := q.j.Check(tx); err != nil {
		return err
	}

	txHash, err := q.tl.Queue(ctx, tx)
	if err != nil {
		return err
	}
	display.PrintfWithTime(q.out, "queue tx sent: %s\n", txHash)

	hash, err := q.j.Append(tx)
	if err != nil {
		q.logger.Error().Err(err).Str("tx", txHash).Msg("queue tx sent but not recorded")
		return err
	}

	if _, err := chain.WaitForTx(ctx, q.pool, txHash, q.interval, q.logger); err != nil {
		if errors.Is(err, chain.ErrTxFailed) {
			display.Warn(q.out, "queue tx %s failed, journal entry %s is not queued on the timelock", txHash, hash.Hex())
		} else {
			display.Warn(q.out, "queue tx %s not confirmed yet, journal entry %s is kept", txHash, hash.Hex())
		}
		return err
	}
	display.Transaction(q.out, tx)

	return nil
}

// execute 发送 executeTransaction，回执成功后标记 journal；
// executionTx 非空时只等待并记录这笔已发送的交易
func (q queuer) execute(ctx context.Context, hash common.Hash, executionTx string) error {
	tx, err := q.j.Find(hash)
	if err != nil {
		return err
	}
	if tx.IsExecuted() {
		return fmt.Errorf("%w: %s", core.ErrAlreadyExecuted, tx.ExecutionTransaction)
	}

	if executionTx == "" {
		executionTx, err = q.tl.Execute(ctx, tx, time.Now())
		if err != nil {
			return err
		}
		display.PrintfWithTime(q.out, "execute tx sent: %s\n", executionTx)
	} else {
		q.logger.Info().Str("tx", executionTx).Str("tx_hash", hash.Hex()).Msg("recording sent execute transaction")
	}

	if _, err := chain.WaitForTx(ctx, q.pool, executionTx, q.interval, q.logger); err != nil {
		if !errors.Is(err, chain.ErrTxFailed) {
			display.Warn(q.out, "execute tx %s not confirmed, record it later with --%s %s", executionTx, flagExecTx, executionTx)
		}
		return err
	}

	return q.j.MarkExecuted(hash, executionTx, time.Now())
}

type timelockFunc func(ctx context.Context, tl *chain.Timelock, pool *connpool.EvmPool, j *journal.Journal, logger zerolog.Logger) error

// withTimelock wires config, signer, connection pool and journal for the
// commands that send transactions.
func withTimelock(cmd *cobra.Command, f timelockFunc) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	url, err := rpcURL(cmd)
	if err != nil {
		return err
	}
	timelock, err := core.ParseAddress(conf.Timelock)
	if err != nil {
		return fmt.Errorf("timelock: %w", err)
	}

	e, err := loadEnvironment()
	if err != nil {
		return err
	}

	logger := newLogger(cmd)

	signer, err := chain.NewWalletSigner(e.Mnemonic, url)
	if err != nil {
		return err
	}

	j, err := openJournal(cmd, logger)
	if err != nil {
		return err
	}

	registry := connpool.NewRegistry(cmd.Context(), maxConnections, connpool.WithLogger(logger))
	defer registry.Close()

	pool := registry.Get(url)
	tl := chain.NewTimelock(pool, timelock, signer, logger)

	logger.Info().
		Str("signer", signer.Address().Hex()).
		Str("timelock", conf.Timelock).
		Msg("timelock client ready")

	return f(cmd.Context(), tl, pool, j, logger)
}

func openJournal(cmd *cobra.Command, logger zerolog.Logger) (*journal.Journal, error) {
	path, _ := cmd.Flags().GetString(flagJournal)

	v, err := newValidator(cmd)
	if err != nil {
		return nil, err
	}

	return journal.Open(path, journal.WithLogger(logger), journal.WithValidator(v))
}

// readDraft loads a transaction file in yaml or json.
func readDraft(path string) (core.TimelockTransaction, error) {
	var tx core.TimelockTransaction

	format, err := core.FormatOf(path)
	if err != nil {
		return tx, err
	}

	f, err := os.Open(path)
	if err != nil {
		return tx, err
	}
	defer f.Close()

	err = core.Decode(f, format, &tx)

	return tx, err
}

func pollInterval(cmd *cobra.Command) time.Duration {
	d, _ := cmd.Flags().GetDuration(flagInterval)
	if d <= 0 {
		return 3 * time.Second
	}

	return d
}
