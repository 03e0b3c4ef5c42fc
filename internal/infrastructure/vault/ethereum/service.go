package ethereumvault

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/fairplay-vault/sentinel/internal/core/domain"
	"github.com/fairplay-vault/sentinel/internal/core/ports"
)

// service implements ports.VaultService on top of a go-ethereum RPC client
// and a bound contract over the minimal vault ABI.
type service struct {
	client       *ethclient.Client
	contract     *bind.BoundContract
	vaultAbi     abi.ABI
	privKey      *ecdsa.PrivateKey
	address      common.Address
	vaultAddress common.Address
	chainID      *big.Int
	pollInterval time.Duration
}

func NewService(
	rpcURL, vaultAddress, privKeyHex string, chainID uint64, pollInterval time.Duration,
) (ports.VaultService, error) {
	if !common.IsHexAddress(vaultAddress) {
		return nil, fmt.Errorf("invalid vault address %s", vaultAddress)
	}

	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(privKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %s", err)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rpc endpoint: %s", err)
	}

	parsedAbi, err := abi.JSON(strings.NewReader(vaultABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse vault abi: %s", err)
	}

	addr := common.HexToAddress(vaultAddress)
	contract := bind.NewBoundContract(addr, parsedAbi, client, client, client)

	return &service{
		client:       client,
		contract:     contract,
		vaultAbi:     parsedAbi,
		privKey:      privKey,
		address:      crypto.PubkeyToAddress(privKey.PublicKey),
		vaultAddress: addr,
		chainID:      new(big.Int).SetUint64(chainID),
		pollInterval: pollInterval,
	}, nil
}

func (s *service) SentinelAddress() string {
	return strings.ToLower(s.address.Hex())
}

func (s *service) VaultAddress() string {
	return strings.ToLower(s.vaultAddress.Hex())
}

func (s *service) ChainID() uint64 {
	return s.chainID.Uint64()
}

func (s *service) GetPool(ctx context.Context, poolID uint64) (*domain.PoolInfo, error) {
	var out []interface{}
	err := s.contract.Call(
		&bind.CallOpts{Context: ctx}, &out, "pools", new(big.Int).SetUint64(poolID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool %d: %s", poolID, err)
	}

	creator := *abi.ConvertType(out[poolFieldCreator], new(common.Address)).(*common.Address)
	deadline := *abi.ConvertType(out[poolFieldSentinelRevealDeadline], new(uint64)).(*uint64)
	commitHash := *abi.ConvertType(out[poolFieldSentinelCommitHash], new([32]byte)).(*[32]byte)
	sentinel := *abi.ConvertType(out[poolFieldSentinel], new(common.Address)).(*common.Address)
	revealed := *abi.ConvertType(out[poolFieldSentinelRevealed], new(bool)).(*bool)
	drawn := *abi.ConvertType(out[poolFieldDrawn], new(bool)).(*bool)
	canceled := *abi.ConvertType(out[poolFieldCanceled], new(bool)).(*bool)

	return &domain.PoolInfo{
		ID:                     poolID,
		Creator:                strings.ToLower(creator.Hex()),
		Sentinel:               strings.ToLower(sentinel.Hex()),
		SentinelCommitHash:     strings.ToLower(hexutil.Encode(commitHash[:])),
		SentinelRevealDeadline: int64(deadline),
		SentinelRevealed:       revealed,
		Drawn:                  drawn,
		Canceled:               canceled,
	}, nil
}

func (s *service) ChainTime(ctx context.Context) (int64, error) {
	header, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read latest block: %s", err)
	}
	return int64(header.Time), nil
}

func (s *service) RevealSentinel(
	ctx context.Context, poolID uint64, saltHex string,
) (*ports.RevealReceipt, error) {
	saltBytes, err := hexutil.Decode(saltHex)
	if err != nil || len(saltBytes) != 32 {
		return nil, fmt.Errorf("invalid salt for pool %d", poolID)
	}
	var salt [32]byte
	copy(salt[:], saltBytes)

	opts, err := bind.NewKeyedTransactorWithChainID(s.privKey, s.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %s", err)
	}
	opts.Context = ctx

	tx, err := s.contract.Transact(opts, "revealSentinel", new(big.Int).SetUint64(poolID), salt)
	if err != nil {
		return nil, classifyRevealError(err)
	}

	receipt, err := bind.WaitMined(ctx, s.client, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for reveal confirmation: %s", err)
	}
	if receipt.Status != 1 {
		return nil, fmt.Errorf("reveal transaction %s reverted", tx.Hash().Hex())
	}

	return &ports.RevealReceipt{
		TxHash:      tx.Hash().Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}

func (s *service) Close() {
	s.client.Close()
}

// terminal contract rejections, matched against the revert reason in a
// case-insensitive way
var terminalReasons = []string{
	"already revealed",
	"alreadyrevealed",
	"finalized",
	"canceled",
	"cancelled",
	"drawn",
	"deadline",
	"too late",
}

// classifyRevealError flattens a contract-call failure to a plain error and
// wraps terminal rejections in domain.ErrPoolFinalized so the scheduler can
// settle the pool instead of retrying.
func classifyRevealError(err error) error {
	msg := strings.ToLower(err.Error())
	for _, reason := range terminalReasons {
		if strings.Contains(msg, reason) {
			return fmt.Errorf("%w: %s", domain.ErrPoolFinalized, err)
		}
	}
	return fmt.Errorf("reveal submission failed: %s", err)
}
