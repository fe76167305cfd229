// Package eip3009 builds and signs EIP-3009 TransferWithAuthorization
// messages. The EIP-712 schema here is fixed by the x402 wire contract:
// field names, types, ordering and the domain/message separation must be
// reproduced exactly or server-side verification fails.
package eip3009

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vitwit/x402-agent/chains"
)

// Type hashes (keccak256 of the type signature strings).
var (
	// EIP712Domain type string - note ordering matters
	domainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

	transferAuthTypeHash = crypto.Keccak256Hash([]byte("TransferWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)"))
)

// Authorization is a single TransferWithAuthorization message: a
// time-boxed, single-use permission to move Value smallest units from
// From to To. Nonce is the per-payment replay guard.
type Authorization struct {
	From        common.Address
	To          common.Address
	Value       *big.Int
	ValidAfter  *big.Int
	ValidBefore *big.Int
	Nonce       [32]byte
}

// Domain is the EIP-712 domain section binding a signature to one asset
// contract on one chain.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// TypedData is the full structured message a signature is computed over.
type TypedData struct {
	Domain  Domain
	Message Authorization
}

// BuildTypedData assembles the structured message for an authorization on
// the given network. Pure transform; the only failure is a malformed
// authorization.
func BuildTypedData(config chains.NetworkConfig, auth Authorization) (TypedData, error) {
	if err := validate(auth); err != nil {
		return TypedData{}, err
	}
	return TypedData{
		Domain: Domain{
			Name:              config.Name,
			Version:           config.Version,
			ChainID:           big.NewInt(config.ChainID),
			VerifyingContract: common.HexToAddress(config.USDCAddress),
		},
		Message: auth,
	}, nil
}

// Digest returns the 32-byte EIP-712 digest of the typed data:
// keccak256("\x19\x01" || domainSeparator || structHash).
func Digest(td TypedData) common.Hash {
	domainSep := domainSeparator(td.Domain)
	structHash := hashAuthorizationStruct(td.Message)

	prefix := []byte{0x19, 0x01}
	return crypto.Keccak256Hash(append(append(prefix, domainSep.Bytes()...), structHash.Bytes()...))
}

// AuthorizationDigest builds the typed data for the network and returns
// its signing digest in one step.
func AuthorizationDigest(config chains.NetworkConfig, auth Authorization) (common.Hash, error) {
	td, err := BuildTypedData(config, auth)
	if err != nil {
		return common.Hash{}, err
	}
	return Digest(td), nil
}

// GenerateNonce draws a fresh random 32-byte nonce from the given source.
func GenerateNonce(rand io.Reader) ([32]byte, error) {
	var nonce [32]byte
	if _, err := io.ReadFull(rand, nonce[:]); err != nil {
		return nonce, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

func validate(auth Authorization) error {
	if auth.Value == nil || auth.Value.Sign() < 0 {
		return errors.New("authorization value must be a non-negative integer")
	}
	if auth.ValidAfter == nil || auth.ValidBefore == nil {
		return errors.New("authorization validity window is required")
	}
	if auth.ValidAfter.Cmp(auth.ValidBefore) >= 0 {
		return errors.New("authorization validAfter must be before validBefore")
	}
	return nil
}

// domainSeparator computes keccak256(abi.encode(domainTypeHash,
// keccak256(name), keccak256(version), chainId, verifyingContract)).
func domainSeparator(d Domain) common.Hash {
	parts := [][]byte{
		domainTypeHash.Bytes(),
		crypto.Keccak256Hash([]byte(d.Name)).Bytes(),
		crypto.Keccak256Hash([]byte(d.Version)).Bytes(),
		padLeft32(d.ChainID),
		addressTo32(d.VerifyingContract),
	}
	return keccak256Concat(parts...)
}

// hashAuthorizationStruct computes keccak256(abi.encode(typeHash, from,
// to, value, validAfter, validBefore, nonce)).
func hashAuthorizationStruct(auth Authorization) common.Hash {
	parts := [][]byte{
		transferAuthTypeHash.Bytes(),
		addressTo32(auth.From),
		addressTo32(auth.To),
		padLeft32(auth.Value),
		padLeft32(auth.ValidAfter),
		padLeft32(auth.ValidBefore),
		auth.Nonce[:], // already 32 bytes
	}
	return keccak256Concat(parts...)
}

// keccak256Concat hashes the concatenation of 32-byte words, matching
// abi.encode for the already-padded EIP-712 encodings used here.
func keccak256Concat(parts ...[]byte) common.Hash {
	joined := []byte{}
	for _, p := range parts {
		joined = append(joined, p...)
	}
	return crypto.Keccak256Hash(joined)
}

// padLeft32 returns a 32-byte right-aligned representation of the given big.Int
func padLeft32(i *big.Int) []byte {
	b := i.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

// addressTo32 left-pads an address into 32 bytes
func addressTo32(a common.Address) []byte {
	out := make([]byte, 32)
	copy(out[12:], a.Bytes())
	return out
}
