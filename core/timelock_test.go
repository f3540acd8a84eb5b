package core

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransaction() TimelockTransaction {
	return TimelockTransaction{
		Info:       "set WBNB tier",
		ChainID:    56,
		QueuedAt:   "1672531200",
		Target:     "0x2000000000000000000000000000000000000001",
		Value:      "0",
		Signature:  "setAssetTier(address,uint8)",
		ParamTypes: []string{"address", "uint8"},
		Params: []Param{
			AddressParam(common.HexToAddress("0x3000000000000000000000000000000000000001")),
			NumberParam(big.NewInt(3)),
		},
		ETA: "1672617600",
	}
}

func TestCalldataKnownVector(t *testing.T) {
	tx := TimelockTransaction{
		Signature:  "transfer(address,uint256)",
		ParamTypes: []string{"address", "uint256"},
		Params: []Param{
			StringParam("0x0000000000000000000000000000000000000001"),
			StringParam("1"),
		},
	}

	data, err := tx.Calldata()
	require.NoError(t, err)

	want := "a9059cbb" +
		"0000000000000000000000000000000000000000000000000000000000000001" +
		"0000000000000000000000000000000000000000000000000000000000000001"
	assert.Equal(t, want, hex.EncodeToString(data))

	params, err := tx.EncodedParams()
	require.NoError(t, err)
	assert.Equal(t, want[8:], hex.EncodeToString(params))
}

func TestCalldataWithoutSignature(t *testing.T) {
	tx := testTransaction()
	tx.Signature = ""

	data, err := tx.Calldata()
	require.NoError(t, err)

	params, err := tx.EncodedParams()
	require.NoError(t, err)
	assert.Equal(t, params, data)
}

func TestCalldataArrayParams(t *testing.T) {
	tx := TimelockTransaction{
		Signature:  "setWhitelist(address[],bool)",
		ParamTypes: []string{"address[]", "bool"},
		Params: []Param{
			ArrayParam(
				AddressParam(common.HexToAddress("0x0000000000000000000000000000000000000001")),
				AddressParam(common.HexToAddress("0x0000000000000000000000000000000000000002")),
			),
			BoolParam(true),
		},
	}

	data, err := tx.Calldata()
	require.NoError(t, err)
	// selector + offset + bool + length + 2 items
	assert.Len(t, data, 4+5*32)
}

func TestCalldataRejectsBadParams(t *testing.T) {
	for _, tc := range []struct {
		uc    string
		typ   string
		param Param
		err   error
	}{
		{"uint8 overflow", "uint8", NumberParam(big.NewInt(256)), ErrUnsupportedParam},
		{"negative uint", "uint256", NumberParam(big.NewInt(-1)), ErrUnsupportedParam},
		{"string as address", "address", StringParam("alice"), ErrUnsupportedParam},
		{"array for scalar", "uint256", ArrayParam(), ErrUnsupportedParam},
		{"fixed array size", "uint256[2]", ArrayParam(NumberParam(big.NewInt(1))), ErrUnsupportedParam},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			tx := TimelockTransaction{ParamTypes: []string{tc.typ}, Params: []Param{tc.param}}

			_, err := tx.Calldata()

			assert.ErrorIs(t, err, tc.err)
		})
	}

	tx := TimelockTransaction{ParamTypes: []string{"uint256", "bool"}, Params: []Param{BoolParam(true)}}
	_, err := tx.Calldata()
	assert.ErrorIs(t, err, ErrParamCountMismatch)

	tx = TimelockTransaction{ParamTypes: []string{"uint257"}, Params: []Param{BoolParam(true)}}
	_, err = tx.Calldata()
	assert.Error(t, err)
}

func TestEncodedParamsIntegerRanges(t *testing.T) {
	for _, tc := range []struct {
		uc  string
		typ string
		n   int64
		ok  bool
	}{
		{"int8 min", "int8", -128, true},
		{"int8 max", "int8", 127, true},
		{"int8 below min", "int8", -129, false},
		{"int8 above max", "int8", 128, false},
		{"uint24 max", "uint24", 1<<24 - 1, true},
		{"uint24 overflow", "uint24", 1 << 24, false},
		{"int40 negative", "int40", -5, true},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			tx := TimelockTransaction{ParamTypes: []string{tc.typ}, Params: []Param{NumberParam(big.NewInt(tc.n))}}

			data, err := tx.EncodedParams()

			if !tc.ok {
				assert.ErrorIs(t, err, ErrUnsupportedParam)
				return
			}
			require.NoError(t, err)
			assert.Len(t, data, 32)
		})
	}
}

func TestTxHash(t *testing.T) {
	tx := testTransaction()

	h1, err := tx.TxHash()
	require.NoError(t, err)

	h2, err := tx.TxHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	tx.ETA = "1672617601"
	h3, err := tx.TxHash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)

	tx.ETA = "2023-01-02T00:00:00Z"
	h4, err := tx.TxHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h4, "RFC 3339 eta hashes as the same unix time")

	tx.Value = "abc"
	_, err = tx.TxHash()
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestTxHashKnownVector(t *testing.T) {
	// keccak256(abi.encode(target, value, signature, data, eta)) of testTransaction
	tx := testTransaction()

	hash, err := tx.TxHash()

	require.NoError(t, err)
	assert.Equal(t, "0x5a01856dfc2eda412eee65c7416e1b77b82ce7410498665b72bdf26a35e7ea11", hash.Hex())
}

func TestTxHashRejectsMalformedTarget(t *testing.T) {
	for _, tc := range []struct {
		uc     string
		target string
	}{
		{uc: "21 bytes", target: "0x2000000000000000000000000000000000000001ff"},
		{uc: "19 bytes", target: "0x20000000000000000000000000000000000001"},
		{uc: "not hex", target: "0xFoo"},
		{uc: "no prefix", target: "2000000000000000000000000000000000000001"},
		{uc: "placeholder", target: "timelock"},
	} {
		t.Run(tc.uc, func(t *testing.T) {
			tx := testTransaction()
			tx.Target = tc.target

			_, err := tx.TxHash()
			require.ErrorIs(t, err, ErrInvalidTarget)

			_, err = tx.TargetAddress()
			require.ErrorIs(t, err, ErrInvalidTarget)

			assert.ErrorIs(t, ValidateTransaction(tx), ErrInvalidTarget)
		})
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x000000000000000000000000000000000000dEaD")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xdead"), addr)

	_, err = ParseAddress("0x2000000000000000000000000000000000000001ff")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAmount(t *testing.T) {
	tx := TimelockTransaction{Value: "1000000000000000000000"}

	amount, err := tx.Amount()
	require.NoError(t, err)

	want, _ := new(big.Int).SetString("1000000000000000000000", 10)
	assert.Equal(t, 0, want.Cmp(amount))
}

func TestMarkExecuted(t *testing.T) {
	tx := testTransaction()
	assert.False(t, tx.IsExecuted())

	at := time.Unix(1672617700, 0)
	require.NoError(t, tx.MarkExecuted("0xabc", at))

	assert.True(t, tx.IsExecuted())
	assert.Equal(t, "0xabc", tx.ExecutionTransaction)
	assert.Equal(t, "1672617700", tx.ExecutedAt)

	err := tx.MarkExecuted("0xdef", at)
	assert.ErrorIs(t, err, ErrAlreadyExecuted)
	assert.Equal(t, "0xabc", tx.ExecutionTransaction)
}

func TestTransactionRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			want := testTransaction()
			want.ParamTypes = append(want.ParamTypes, "string", "uint256[]", "bool")
			want.Params = append(want.Params,
				StringParam("12345"),
				ArrayParam(NumberParam(big.NewInt(1)), NumberParam(new(big.Int).Lsh(big.NewInt(1), 100))),
				BoolParam(false),
			)

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, format, want))

			var got TimelockTransaction
			require.NoError(t, Decode(&buf, format, &got))

			require.Len(t, got.Params, len(want.Params))
			for i := range want.Params {
				assert.True(t, want.Params[i].Equal(got.Params[i]), "param %d: %s != %s", i, want.Params[i], got.Params[i])
			}

			got.Params, want.Params = nil, nil
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeYAMLAddressWithLeadingZeros(t *testing.T) {
	// GIVEN
	doc := `
target: "0x2000000000000000000000000000000000000001"
value: "0"
signature: setWhitelist(address,address,uint256)
paramTypes: [address, address, uint256]
params: [0x0000000000000000000000000000000000000001, 0x000000000000000000000000000000000000dEaD, 0x10]
eta: "1672617600"
`

	// WHEN
	var tx TimelockTransaction
	require.NoError(t, Decode(strings.NewReader(doc), FormatYAML, &tx))

	// THEN
	require.Len(t, tx.Params, 3)
	assert.Equal(t, AddressParam(common.HexToAddress("0x01")), tx.Params[0])
	assert.Equal(t, ParamAddress, tx.Params[1].Kind())
	addr, _ := tx.Params[1].Address()
	assert.Equal(t, common.HexToAddress("0xdead"), addr)

	n, ok := tx.Params[2].Number()
	require.True(t, ok, "short hex stays a number")
	assert.Equal(t, int64(16), n.Int64())

	_, err := tx.EncodedParams()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatYAML, tx))
	assert.Contains(t, buf.String(), "0x000000000000000000000000000000000000dEaD")
}

func TestDecodeTransactionFromScriptOutput(t *testing.T) {
	doc := `{
		"info": "set rewarder",
		"chainId": 56,
		"queuedAt": "1672531200",
		"executedAt": "",
		"executionTransaction": "",
		"target": "0x2000000000000000000000000000000000000001",
		"value": "0",
		"signature": "setRewarder(uint256,address[],bool)",
		"paramTypes": ["uint256", "address[]", "bool"],
		"params": [7, ["0x5000000000000000000000000000000000000001"], true],
		"eta": "1672617600"
	}`

	var tx TimelockTransaction
	require.NoError(t, json.NewDecoder(strings.NewReader(doc)).Decode(&tx))

	n, ok := tx.Params[0].Number()
	require.True(t, ok)
	assert.Equal(t, int64(7), n.Int64())

	arr, ok := tx.Params[1].Array()
	require.True(t, ok)
	addr, ok := arr[0].Address()
	require.True(t, ok)
	assert.Equal(t, common.HexToAddress("0x5000000000000000000000000000000000000001"), addr)

	b, ok := tx.Params[2].Bool()
	require.True(t, ok)
	assert.True(t, b)

	assert.False(t, tx.IsExecuted())
	assert.NoError(t, ValidateTransaction(tx))
}

func TestParamRejectsUnsupportedJSON(t *testing.T) {
	var p Param

	assert.ErrorIs(t, json.Unmarshal([]byte(`1.5`), &p), ErrUnsupportedParam)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"a":1}`), &p), ErrUnsupportedParam)
}
