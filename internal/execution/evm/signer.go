package evm

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	clierr "github.com/ggonzalez94/defi-router/internal/errors"
)

const (
	EnvPrivateKey     = "DEFI_ROUTER_PRIVATE_KEY"
	EnvPrivateKeyFile = "DEFI_ROUTER_PRIVATE_KEY_FILE"
)

// Signer signs transactions for the collaborator. Key management stays at
// this boundary; the routing core never touches it.
type Signer interface {
	Address() common.Address
	SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error)
}

// LocalSigner signs with an in-process secp256k1 key loaded from the
// environment or a key file.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func (s *LocalSigner) Address() common.Address { return s.address }

func (s *LocalSigner) SignTx(chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	if s == nil || s.key == nil {
		return nil, errors.New("local signer is not initialized")
	}
	signer := types.LatestSignerForChainID(chainID)
	return types.SignTx(tx, signer, s.key)
}

// NewLocalSignerFromEnv loads a hex private key from DEFI_ROUTER_PRIVATE_KEY,
// falling back to the file named by DEFI_ROUTER_PRIVATE_KEY_FILE.
func NewLocalSignerFromEnv() (*LocalSigner, error) {
	keyHex := strings.TrimSpace(os.Getenv(EnvPrivateKey))
	if keyHex == "" {
		path := strings.TrimSpace(os.Getenv(EnvPrivateKeyFile))
		if path == "" {
			return nil, clierr.New(clierr.CodeSigner, fmt.Sprintf("no signing key: set %s or %s", EnvPrivateKey, EnvPrivateKeyFile))
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeSigner, "read private key file", err)
		}
		keyHex = strings.TrimSpace(string(buf))
	}
	return NewLocalSignerFromHex(keyHex)
}

func NewLocalSignerFromHex(keyHex string) (*LocalSigner, error) {
	keyHex = strings.TrimPrefix(strings.TrimSpace(keyHex), "0x")
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeSigner, "parse private key", err)
	}
	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}
