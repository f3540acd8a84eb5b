package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"lending-deploy/connpool"
	"lending-deploy/core"
)

// Report is the result of checking an address book against a node.
type Report struct {
	Checked int
	// Missing holds entries without contract code at the address.
	Missing []core.NamedAddress
	// Malformed holds entries that are not hex addresses.
	Malformed []core.NamedAddress
}

func (r Report) OK() bool {
	return len(r.Missing) == 0 && len(r.Malformed) == 0
}

// verifyConcurrency bounds the CodeAt requests in flight, the pool bounds connections.
const verifyConcurrency = 8

type Verifier struct {
	pool   *connpool.EvmPool
	logger zerolog.Logger
}

func NewVerifier(pool *connpool.EvmPool, logger zerolog.Logger) *Verifier {
	return &Verifier{pool: pool, logger: logger}
}

// Verify 检查地址簿里每个地址在链上都有合约代码，同一地址只查询一次
func (v *Verifier) Verify(ctx context.Context, c core.Config) (Report, error) {
	var (
		report  Report
		entries = c.Addresses()
		index   = make(map[common.Address]int)
		unique  []common.Address
	)
	for _, na := range entries {
		if !common.IsHexAddress(na.Address) {
			report.Malformed = append(report.Malformed, na)
			continue
		}
		addr := common.HexToAddress(na.Address)
		if _, ok := index[addr]; !ok {
			index[addr] = len(unique)
			unique = append(unique, addr)
		}
	}

	deployed := make([]bool, len(unique))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(verifyConcurrency)
	for i, addr := range unique {
		i, addr := i, addr
		eg.Go(func() error {
			return v.pool.Call(func(c *ethclient.Client, _ *rpc.Client) error {
				code, err := c.CodeAt(egCtx, addr, nil)
				if err != nil {
					return fmt.Errorf("code at %s: %w", addr.Hex(), err)
				}
				deployed[i] = len(code) > 0
				return nil
			})
		})
	}
	if err := eg.Wait(); err != nil {
		return Report{}, err
	}
	report.Checked = len(unique)

	for _, na := range entries {
		i, ok := index[common.HexToAddress(na.Address)]
		if !ok || !common.IsHexAddress(na.Address) || deployed[i] {
			continue
		}
		v.logger.Warn().Str("name", na.Name).Str("address", na.Address).Msg("no contract code")
		report.Missing = append(report.Missing, na)
	}
	return report, nil
}
