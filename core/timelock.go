package core

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// TimelockTransaction 记录一笔 timelock 治理交易，queue 时创建，execute 后补全执行字段
type TimelockTransaction struct {
	Info                 string   `yaml:"info" json:"info"`
	ChainID              int64    `yaml:"chainId" json:"chainId" validate:"gt=0"`
	QueuedAt             string   `yaml:"queuedAt" json:"queuedAt" validate:"required,timestamp"`
	ExecutedAt           string   `yaml:"executedAt" json:"executedAt" validate:"omitempty,timestamp"`
	ExecutionTransaction string   `yaml:"executionTransaction" json:"executionTransaction"`
	Target               string   `yaml:"target" json:"target" validate:"required,address"`
	Value                string   `yaml:"value" json:"value" validate:"required,amount"`
	Signature            string   `yaml:"signature" json:"signature"`
	ParamTypes           []string `yaml:"paramTypes" json:"paramTypes" validate:"dive,required"`
	Params               []Param  `yaml:"params" json:"params"`
	ETA                  string   `yaml:"eta" json:"eta" validate:"required,timestamp"`
}

func (tx TimelockTransaction) IsExecuted() bool {
	return tx.ExecutionTransaction != ""
}

// MarkExecuted fills the execution fields. It can only happen once.
func (tx *TimelockTransaction) MarkExecuted(txHash string, at time.Time) error {
	if tx.IsExecuted() {
		return fmt.Errorf("%w: %s", ErrAlreadyExecuted, tx.ExecutionTransaction)
	}
	tx.ExecutionTransaction = txHash
	tx.ExecutedAt = strconv.FormatInt(at.Unix(), 10)
	return nil
}

func (tx TimelockTransaction) ETATime() (time.Time, error) {
	return ParseTimestamp(tx.ETA)
}

// Amount 返回 value 的整数值，value 以字符串保存避免精度丢失
func (tx TimelockTransaction) Amount() (*big.Int, error) {
	return parseAmount(tx.Value)
}

func parseAmount(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	if d.Sign() < 0 || !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidValue, s)
	}
	return d.BigInt(), nil
}

// ParseTimestamp accepts unix seconds or RFC 3339.
func ParseTimestamp(s string) (time.Time, error) {
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}

func (tx TimelockTransaction) checkParamCount() error {
	if len(tx.ParamTypes) != len(tx.Params) {
		return fmt.Errorf("%w: %d types, %d params", ErrParamCountMismatch, len(tx.ParamTypes), len(tx.Params))
	}
	return nil
}

// EncodedParams ABI-encodes Params according to ParamTypes, without selector.
// This is the data argument of queueTransaction/executeTransaction.
func (tx TimelockTransaction) EncodedParams() ([]byte, error) {
	if err := tx.checkParamCount(); err != nil {
		return nil, err
	}
	args := make(abi.Arguments, 0, len(tx.ParamTypes))
	values := make([]interface{}, 0, len(tx.Params))
	for i, typ := range tx.ParamTypes {
		t, err := abi.NewType(typ, "", nil)
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		v, err := abiValue(t, tx.Params[i])
		if err != nil {
			return nil, fmt.Errorf("param %d (%s): %w", i, typ, err)
		}
		args = append(args, abi.Argument{Type: t})
		values = append(values, v)
	}
	return args.Pack(values...)
}

// Calldata 返回目标合约最终收到的 calldata；signature 为空时 params 本身即 calldata
func (tx TimelockTransaction) Calldata() ([]byte, error) {
	data, err := tx.EncodedParams()
	if err != nil {
		return nil, err
	}
	if tx.Signature == "" {
		return data, nil
	}
	selector := crypto.Keccak256([]byte(tx.Signature))[:4]
	return append(selector, data...), nil
}

// TargetAddress 解析 target，只接受带 0x 前缀的 40 位十六进制地址
func (tx TimelockTransaction) TargetAddress() (common.Address, error) {
	if !isAddressLiteral(tx.Target) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidTarget, tx.Target)
	}
	return common.HexToAddress(tx.Target), nil
}

// TxHash is the key under which the timelock stores the queued transaction:
// keccak256(abi.encode(target, value, signature, data, eta)).
func (tx TimelockTransaction) TxHash() (common.Hash, error) {
	target, err := tx.TargetAddress()
	if err != nil {
		return common.Hash{}, err
	}
	data, err := tx.EncodedParams()
	if err != nil {
		return common.Hash{}, err
	}
	value, err := tx.Amount()
	if err != nil {
		return common.Hash{}, err
	}
	eta, err := tx.ETATime()
	if err != nil {
		return common.Hash{}, err
	}
	packed, err := txHashArgs.Pack(target, value, tx.Signature, data, big.NewInt(eta.Unix()))
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(packed), nil
}

var txHashArgs = abi.Arguments{
	{Type: mustType("address")},
	{Type: mustType("uint256")},
	{Type: mustType("string")},
	{Type: mustType("bytes")},
	{Type: mustType("uint256")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// abiValue 把 Param 转成 go-ethereum abi 打包所需的 Go 类型
func abiValue(t abi.Type, p Param) (interface{}, error) {
	switch t.T {
	case abi.UintTy, abi.IntTy:
		n, err := paramInteger(p)
		if err != nil {
			return nil, err
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative value for %s", ErrUnsupportedParam, t)
		}
		bits, mag := t.Size, n
		if t.T == abi.IntTy {
			bits--
			if n.Sign() < 0 {
				// -2^(bits) is the smallest value
				mag = new(big.Int).Sub(new(big.Int).Neg(n), big.NewInt(1))
			}
		}
		if mag.BitLen() > bits {
			return nil, fmt.Errorf("%w: %s overflows %s", ErrUnsupportedParam, n, t)
		}
		if t.GetType() == bigIntType {
			return n, nil
		}
		v := reflect.New(t.GetType()).Elem()
		if t.T == abi.UintTy {
			v.SetUint(n.Uint64())
		} else {
			v.SetInt(n.Int64())
		}
		return v.Interface(), nil
	case abi.AddressTy:
		if a, ok := p.Address(); ok {
			return a, nil
		}
		if s, ok := p.Str(); ok && common.IsHexAddress(s) {
			return common.HexToAddress(s), nil
		}
	case abi.BoolTy:
		if b, ok := p.Bool(); ok {
			return b, nil
		}
	case abi.StringTy:
		if s, ok := p.Str(); ok {
			return s, nil
		}
		if a, ok := p.Address(); ok {
			return a.Hex(), nil
		}
	case abi.BytesTy, abi.FixedBytesTy:
		b, err := paramBytes(p)
		if err != nil {
			return nil, err
		}
		if t.T == abi.BytesTy {
			return b, nil
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%w: %d bytes for %s", ErrUnsupportedParam, len(b), t)
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		items, ok := p.Array()
		if !ok {
			break
		}
		var v reflect.Value
		if t.T == abi.SliceTy {
			v = reflect.MakeSlice(t.GetType(), len(items), len(items))
		} else {
			if len(items) != t.Size {
				return nil, fmt.Errorf("%w: %d items for %s", ErrUnsupportedParam, len(items), t)
			}
			v = reflect.New(t.GetType()).Elem()
		}
		for i, item := range items {
			ev, err := abiValue(*t.Elem, item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			v.Index(i).Set(reflect.ValueOf(ev))
		}
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedParam, p.Kind(), t)
}

func paramInteger(p Param) (*big.Int, error) {
	if n, ok := p.Number(); ok {
		return n, nil
	}
	if s, ok := p.Str(); ok {
		d, err := decimal.NewFromString(s)
		if err == nil && d.Equal(d.Truncate(0)) {
			return d.BigInt(), nil
		}
	}
	if b, ok := p.Bool(); ok {
		if b {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	}
	return nil, fmt.Errorf("%w: %s is not an integer", ErrUnsupportedParam, p)
}

func paramBytes(p Param) ([]byte, error) {
	if a, ok := p.Address(); ok {
		return a.Bytes(), nil
	}
	s, ok := p.Str()
	if !ok || !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("%w: %s is not hex bytes", ErrUnsupportedParam, p)
	}
	return hexutil.Decode(s)
}
