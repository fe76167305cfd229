package eip3009

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/x402-agent/chains"
)

// Well-known anvil test key; never holds funds.
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testConfig(t *testing.T) chains.NetworkConfig {
	t.Helper()
	config, err := chains.Resolve(chains.NetworkBaseSepolia)
	require.NoError(t, err)
	return config
}

func testAuthorization(nonce byte) Authorization {
	var n [32]byte
	n[31] = nonce
	return Authorization{
		From:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
		To:          common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Value:       big.NewInt(10_000),
		ValidAfter:  big.NewInt(1_700_000_000),
		ValidBefore: big.NewInt(1_700_000_300),
		Nonce:       n,
	}
}

func TestDigestDeterministic(t *testing.T) {
	config := testConfig(t)

	d1, err := AuthorizationDigest(config, testAuthorization(1))
	require.NoError(t, err)
	d2, err := AuthorizationDigest(config, testAuthorization(1))
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
}

func TestDigestBindsFields(t *testing.T) {
	config := testConfig(t)
	base, err := AuthorizationDigest(config, testAuthorization(1))
	require.NoError(t, err)

	other := testAuthorization(2)
	differentNonce, err := AuthorizationDigest(config, other)
	require.NoError(t, err)
	assert.NotEqual(t, base, differentNonce, "nonce must change the digest")

	other = testAuthorization(1)
	other.Value = big.NewInt(10_001)
	differentValue, err := AuthorizationDigest(config, other)
	require.NoError(t, err)
	assert.NotEqual(t, base, differentValue, "value must change the digest")

	mainnet, err := chains.Resolve(chains.NetworkBase)
	require.NoError(t, err)
	differentChain, err := AuthorizationDigest(mainnet, testAuthorization(1))
	require.NoError(t, err)
	assert.NotEqual(t, base, differentChain, "domain must bind the chain")
}

func TestBuildTypedDataRejectsBadWindow(t *testing.T) {
	config := testConfig(t)

	auth := testAuthorization(1)
	auth.ValidAfter = big.NewInt(1_700_000_300)
	auth.ValidBefore = big.NewInt(1_700_000_000)
	_, err := BuildTypedData(config, auth)
	assert.Error(t, err)

	auth = testAuthorization(1)
	auth.Value = big.NewInt(-1)
	_, err = BuildTypedData(config, auth)
	assert.Error(t, err)
}

func TestSignAndRecover(t *testing.T) {
	config := testConfig(t)

	signer, err := NewLocalSigner(testKey)
	require.NoError(t, err)

	digest, err := AuthorizationDigest(config, testAuthorization(7))
	require.NoError(t, err)

	sig, err := signer.SignDigest(digest)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.True(t, sig[64] == 27 || sig[64] == 28, "v must be normalized to 27/28")

	recovered, err := RecoverSigner(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), recovered)
}

func TestNewLocalSignerAcceptsPrefix(t *testing.T) {
	plain, err := NewLocalSigner(testKey)
	require.NoError(t, err)
	prefixed, err := NewLocalSigner("0x" + testKey)
	require.NoError(t, err)
	assert.Equal(t, plain.Address(), prefixed.Address())
}

func TestNewLocalSignerRejectsGarbage(t *testing.T) {
	_, err := NewLocalSigner("not-a-key")
	assert.Error(t, err)
}

func TestGenerateNonceUsesSource(t *testing.T) {
	src := bytes.NewReader(bytes.Repeat([]byte{0xab}, 32))
	nonce, err := GenerateNonce(src)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0xab}, 32), nonce[:])

	_, err = GenerateNonce(bytes.NewReader(nil))
	assert.Error(t, err, "short randomness source must fail")
}
