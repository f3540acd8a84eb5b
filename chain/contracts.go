package chain

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const (
	methodDelay              = "delay"
	methodGracePeriod        = "GRACE_PERIOD"
	methodAdmin              = "admin"
	methodQueuedTransactions = "queuedTransactions"
	methodQueueTransaction   = "queueTransaction"
	methodCancelTransaction  = "cancelTransaction"
	methodExecuteTransaction = "executeTransaction"
)

var (
	//go:embed abi/timelock.json
	timelockAbiJSON []byte

	timelockAbi = mustAbi(timelockAbiJSON)
)

func mustAbi(data []byte) *abi.ABI {
	a, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		panic(err)
	}
	return &a
}

type baseContract struct {
	Address common.Address
	Abi     *abi.ABI
}

// msg 编码方法调用，返回发往合约的 CallMsg
func (c *baseContract) msg(from common.Address, method string, args ...interface{}) (ethereum.CallMsg, error) {
	data, err := c.Abi.Pack(method, args...)
	if err != nil {
		return ethereum.CallMsg{}, fmt.Errorf("pack %s: %w", method, err)
	}
	to := c.Address
	return ethereum.CallMsg{From: from, To: &to, Data: data}, nil
}

// call 执行只读调用并把结果解到 out
func (c *baseContract) call(ctx context.Context, client *ethclient.Client, out interface{}, method string, args ...interface{}) error {
	msg, err := c.msg(common.Address{}, method, args...)
	if err != nil {
		return err
	}
	res, err := client.CallContract(ctx, msg, nil)
	if err != nil {
		return err
	}
	m, ok := c.Abi.Methods[method]
	if !ok {
		return fmt.Errorf("method %s not in abi", method)
	}
	values, err := m.Outputs.Unpack(res)
	if err != nil {
		return fmt.Errorf("unpack %s: %w", method, err)
	}
	return m.Outputs.Copy(out, values)
}

// 费用倍数，MaxPriorityFee = SuggestPriorityFee * priorityRate
// MaxFee = (MaxPriorityFee + BaseFee) * maxFeeRate
var (
	gasLimitRate = decimal.NewFromFloat(1.3)
	priorityRate = decimal.NewFromFloat(1.5)
	maxFeeRate   = decimal.NewFromFloat(1.1)
)

func scale(v *big.Int, rate decimal.Decimal) *big.Int {
	return decimal.NewFromBigInt(v, 0).Mul(rate).BigInt()
}

// suggestFees 返回 (tip, feeCap)；节点没有 base fee 时两者都取 gas price
func suggestFees(ctx context.Context, client *ethclient.Client) (*big.Int, *big.Int, error) {
	head, err := client.HeaderByNumber(ctx, nil)
	if err != nil || head.BaseFee == nil {
		gasPrice, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, nil, err
		}
		price := scale(gasPrice, maxFeeRate)
		return price, price, nil
	}
	tip, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, err
	}
	tip = scale(tip, priorityRate)
	return tip, scale(new(big.Int).Add(tip, head.BaseFee), maxFeeRate), nil
}

// buildTx 获取 nonce、gas 和费用，构造 EIP-1559 交易并 encode 成 []byte，交给 Signer 签名发送
func buildTx(ctx context.Context, client *ethclient.Client, msg ethereum.CallMsg, value *big.Int) ([]byte, error) {
	msg.Value = value
	nonce, err := client.PendingNonceAt(ctx, msg.From)
	if err != nil {
		return nil, err
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	gas, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}
	tip, feeCap, err := suggestFees(ctx, client)
	if err != nil {
		return nil, err
	}

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		To:        msg.To,
		Value:     value,
		Gas:       scale(new(big.Int).SetUint64(gas), gasLimitRate).Uint64(),
		GasFeeCap: feeCap,
		GasTipCap: tip,
		Data:      msg.Data,
	}).MarshalBinary()
}

func isNotFound(err error) bool {
	return errors.Is(err, ethereum.NotFound)
}
