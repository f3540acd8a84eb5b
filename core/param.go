package core

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type ParamKind uint8

const (
	ParamInvalid ParamKind = iota
	ParamNumber
	ParamString
	ParamBool
	ParamAddress
	ParamArray
)

func (k ParamKind) String() string {
	switch k {
	case ParamNumber:
		return "number"
	case ParamString:
		return "string"
	case ParamBool:
		return "bool"
	case ParamAddress:
		return "address"
	case ParamArray:
		return "array"
	}
	return "invalid"
}

// Param 是 timelock 交易的一个调用参数，只有与 kind 对应的字段有效
type Param struct {
	kind ParamKind
	num  *big.Int
	str  string
	b    bool
	addr common.Address
	arr  []Param
}

func NumberParam(n *big.Int) Param { return Param{kind: ParamNumber, num: new(big.Int).Set(n)} }

func StringParam(s string) Param { return Param{kind: ParamString, str: s} }

func BoolParam(b bool) Param { return Param{kind: ParamBool, b: b} }

func AddressParam(a common.Address) Param { return Param{kind: ParamAddress, addr: a} }

func ArrayParam(items ...Param) Param {
	arr := make([]Param, len(items))
	copy(arr, items)
	return Param{kind: ParamArray, arr: arr}
}

func (p Param) Kind() ParamKind { return p.kind }

func (p Param) Number() (*big.Int, bool) {
	if p.kind != ParamNumber {
		return nil, false
	}
	return new(big.Int).Set(p.num), true
}

func (p Param) Str() (string, bool) { return p.str, p.kind == ParamString }

func (p Param) Bool() (bool, bool) { return p.b, p.kind == ParamBool }

func (p Param) Address() (common.Address, bool) { return p.addr, p.kind == ParamAddress }

func (p Param) Array() ([]Param, bool) { return p.arr, p.kind == ParamArray }

// Equal compares kind and value, numbers by value.
func (p Param) Equal(o Param) bool {
	if p.kind != o.kind {
		return false
	}
	switch p.kind {
	case ParamNumber:
		return p.num.Cmp(o.num) == 0
	case ParamString:
		return p.str == o.str
	case ParamBool:
		return p.b == o.b
	case ParamAddress:
		return p.addr == o.addr
	case ParamArray:
		if len(p.arr) != len(o.arr) {
			return false
		}
		for i := range p.arr {
			if !p.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	}
	return true
}

func (p Param) String() string {
	switch p.kind {
	case ParamNumber:
		return p.num.String()
	case ParamString:
		return p.str
	case ParamBool:
		return fmt.Sprint(p.b)
	case ParamAddress:
		return p.addr.Hex()
	case ParamArray:
		items := make([]string, len(p.arr))
		for i, it := range p.arr {
			items[i] = it.String()
		}
		return "[" + strings.Join(items, ",") + "]"
	}
	return "<invalid>"
}

// isAddressLiteral 只把带 0x 前缀的 40 位十六进制当作地址
func isAddressLiteral(s string) bool {
	return (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) && common.IsHexAddress(s)
}

// ParseAddress accepts only 0x-prefixed 40 digit hex addresses.
func ParseAddress(s string) (common.Address, error) {
	if !isAddressLiteral(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

func paramFromString(s string) Param {
	if isAddressLiteral(s) {
		return AddressParam(common.HexToAddress(s))
	}
	return StringParam(s)
}

func (p Param) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case ParamNumber:
		return []byte(p.num.String()), nil
	case ParamString:
		return json.Marshal(p.str)
	case ParamBool:
		return json.Marshal(p.b)
	case ParamAddress:
		return json.Marshal(p.addr.Hex())
	case ParamArray:
		return json.Marshal(p.arr)
	}
	return nil, fmt.Errorf("%w: kind %s", ErrUnsupportedParam, p.kind)
}

func (p *Param) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	v, err := paramFromJSONValue(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func paramFromJSONValue(raw interface{}) (Param, error) {
	switch v := raw.(type) {
	case json.Number:
		n, ok := new(big.Int).SetString(v.String(), 10)
		if !ok {
			return Param{}, fmt.Errorf("%w: non-integer number %s", ErrUnsupportedParam, v)
		}
		return Param{kind: ParamNumber, num: n}, nil
	case string:
		return paramFromString(v), nil
	case bool:
		return BoolParam(v), nil
	case []interface{}:
		arr := make([]Param, 0, len(v))
		for _, item := range v {
			p, err := paramFromJSONValue(item)
			if err != nil {
				return Param{}, err
			}
			arr = append(arr, p)
		}
		return Param{kind: ParamArray, arr: arr}, nil
	}
	return Param{}, fmt.Errorf("%w: %T", ErrUnsupportedParam, raw)
}

func (p Param) MarshalYAML() (interface{}, error) {
	switch p.kind {
	case ParamNumber:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: p.num.String()}, nil
	case ParamString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.str}, nil
	case ParamBool:
		return p.b, nil
	case ParamAddress:
		return p.addr.Hex(), nil
	case ParamArray:
		return p.arr, nil
	}
	return nil, fmt.Errorf("%w: kind %s", ErrUnsupportedParam, p.kind)
}

func (p *Param) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!int", "!!float":
			// 前导零较多的地址会被 yaml 解析成 !!int
			if isAddressLiteral(node.Value) {
				*p = AddressParam(common.HexToAddress(node.Value))
				return nil
			}
			// integers wider than 64 bits resolve as !!float
			n, ok := new(big.Int).SetString(node.Value, 0)
			if !ok {
				return fmt.Errorf("%w: integer %s", ErrUnsupportedParam, node.Value)
			}
			*p = Param{kind: ParamNumber, num: n}
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			*p = BoolParam(b)
		case "!!str":
			*p = paramFromString(node.Value)
		default:
			return fmt.Errorf("%w: yaml tag %s", ErrUnsupportedParam, node.ShortTag())
		}
		return nil
	case yaml.SequenceNode:
		arr := make([]Param, len(node.Content))
		for i, child := range node.Content {
			if err := arr[i].UnmarshalYAML(child); err != nil {
				return err
			}
		}
		*p = Param{kind: ParamArray, arr: arr}
		return nil
	}
	return fmt.Errorf("%w: yaml line %d", ErrUnsupportedParam, node.Line)
}
