package eip3009

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is the signing capability the wallet consumes: produce a
// deterministic 65-byte signature over a 32-byte digest. Key storage and
// generation policy live behind this interface.
type Signer interface {
	// Address returns the address the signatures recover to.
	Address() common.Address

	// SignDigest signs a 32-byte digest and returns the 65-byte
	// signature with V normalized to 27/28.
	SignDigest(digest common.Hash) ([]byte, error)
}

// LocalSigner signs with an in-memory secp256k1 private key.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ Signer = (*LocalSigner)(nil)

// NewLocalSigner creates a signer from a hex-encoded private key, with or
// without a 0x prefix.
func NewLocalSigner(privateKeyHex string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// GenerateLocalSigner creates a signer with a fresh key drawn from the
// given randomness source.
func GenerateLocalSigner(rand io.Reader) (*LocalSigner, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address implements Signer.
func (s *LocalSigner) Address() common.Address {
	return s.address
}

// SignDigest implements Signer.
func (s *LocalSigner) SignDigest(digest common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	// crypto.Sign returns V as 0/1; the wire format expects 27/28.
	sig[64] += 27
	return sig, nil
}

// EncodeSignature renders a 65-byte signature as 0x-prefixed hex.
func EncodeSignature(sig []byte) string {
	return hexutil.Encode(sig)
}

// DecodeSignature parses a 0x-prefixed hex signature back to bytes.
func DecodeSignature(encoded string) ([]byte, error) {
	sig, err := hexutil.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != 65 {
		return nil, errors.New("signature must be 65 bytes")
	}
	return sig, nil
}

// RecoverSigner recovers the address that signed the given digest.
// sig must be 65 bytes (R||S||V); V may be 0/1 or 27/28.
func RecoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, errors.New("signature must be 65 bytes")
	}

	// copy to avoid mutating caller slice
	s := make([]byte, 65)
	copy(s, sig)
	if s[64] >= 27 {
		s[64] -= 27
	}

	pubKey, err := crypto.SigToPub(digest.Bytes(), s)
	if err != nil {
		return common.Address{}, fmt.Errorf("sig to pub failed: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}
