package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// AssetTier 是市场在链上的风险等级编码
type AssetTier uint8

const (
	AssetTierUnlisted AssetTier = iota
	AssetTierIsolate
	AssetTierCross
	AssetTierCollateral
)

// AssetTiers returns every tier in code order.
func AssetTiers() []AssetTier {
	return []AssetTier{AssetTierUnlisted, AssetTierIsolate, AssetTierCross, AssetTierCollateral}
}

// String maps the tier to its canonical label.
func (t AssetTier) String() string {
	switch t {
	case AssetTierUnlisted:
		return "UNLISTED"
	case AssetTierIsolate:
		return "ISOLATE"
	case AssetTierCross:
		return "CROSS"
	case AssetTierCollateral:
		return "COLLATERAL"
	}
	return "AssetTier(" + strconv.Itoa(int(t)) + ")"
}

// Valid reports whether t is one of the four known codes.
func (t AssetTier) Valid() bool {
	return t <= AssetTierCollateral
}

// AssetTierFromCode converts a raw on-chain code.
func AssetTierFromCode(code int) (AssetTier, error) {
	if code < 0 || code > int(AssetTierCollateral) {
		return 0, fmt.Errorf("%w: code %d", ErrUnknownAssetTier, code)
	}
	return AssetTier(code), nil
}

// ParseAssetTier 由标签解析 tier，大小写不敏感
func ParseAssetTier(label string) (AssetTier, error) {
	want := strings.ToUpper(strings.TrimSpace(label))
	for _, t := range AssetTiers() {
		if t.String() == want {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAssetTier, label)
}

func (t AssetTier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: code %d", ErrUnknownAssetTier, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText accepts either the label or the numeric code.
func (t *AssetTier) UnmarshalText(text []byte) error {
	s := string(text)
	if code, err := strconv.Atoi(s); err == nil {
		v, err := AssetTierFromCode(code)
		if err != nil {
			return err
		}
		*t = v
		return nil
	}
	v, err := ParseAssetTier(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// UnmarshalJSON accepts a quoted label, a quoted or bare code, and leaves t unchanged on null.
func (t *AssetTier) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	return t.UnmarshalText(bytes.Trim(data, `"`))
}
