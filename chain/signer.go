package chain

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/coming-chat/wallet-SDK/core/eth"
	"github.com/ethereum/go-ethereum/common"
)

var ErrNoMnemonic = errors.New("mnemonic is empty")

// Signer 签名并广播一笔已编码的交易，返回交易 hash
type Signer interface {
	Address() common.Address
	SignAndSend(ctx context.Context, rawTx []byte) (string, error)
}

// WalletSigner signs with a wallet-SDK account and sends through rpc.
type WalletSigner struct {
	account *eth.Account
	rpc     string
}

func NewWalletSigner(mnemonic, rpc string) (*WalletSigner, error) {
	if mnemonic == "" {
		return nil, ErrNoMnemonic
	}
	account, err := eth.NewAccountWithMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	return &WalletSigner{account: account, rpc: rpc}, nil
}

func (s *WalletSigner) Address() common.Address {
	return common.HexToAddress(s.account.Address())
}

func (s *WalletSigner) SignAndSend(_ context.Context, rawBytes []byte) (string, error) {
	wallet := eth.NewChainWithRpc(s.rpc)
	privateKeyHex, err := s.account.PrivateKeyHex()
	if err != nil {
		return "", err
	}
	tx, err := eth.NewTransactionFromHex(hex.EncodeToString(rawBytes))
	if err != nil {
		return "", err
	}
	signedTx, err := wallet.SignTransaction(privateKeyHex, tx)
	if err != nil {
		return "", err
	}
	return wallet.SendRawTransaction(signedTx.Value)
}
