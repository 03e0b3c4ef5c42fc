package ethereumvault

// Minimal ABI of the Fairplay vault: the PoolCreated event, the pools getter
// and the revealSentinel write. Everything else the contract exposes is not
// needed by this service.
const vaultABI = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "poolId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "creator", "type": "address"},
      {"indexed": false, "internalType": "uint64", "name": "deadline", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "revealDeadline", "type": "uint64"},
      {"indexed": false, "internalType": "uint64", "name": "sentinelRevealDeadline", "type": "uint64"},
      {"indexed": false, "internalType": "uint32", "name": "maxEntries", "type": "uint32"},
      {"indexed": false, "internalType": "uint32", "name": "minEntries", "type": "uint32"},
      {"indexed": false, "internalType": "uint96", "name": "entryPrice", "type": "uint96"},
      {"indexed": false, "internalType": "uint16", "name": "builderFeeBps", "type": "uint16"},
      {"indexed": false, "internalType": "uint16", "name": "protocolFeeBps", "type": "uint16"},
      {"indexed": false, "internalType": "bool", "name": "hasSentinel", "type": "bool"}
    ],
    "name": "PoolCreated",
    "type": "event"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "poolId", "type": "uint256"}],
    "name": "pools",
    "outputs": [
      {"internalType": "address", "name": "creator", "type": "address"},
      {"internalType": "address", "name": "builderFeeRecipient", "type": "address"},
      {"internalType": "uint64", "name": "deadline", "type": "uint64"},
      {"internalType": "uint64", "name": "revealDeadline", "type": "uint64"},
      {"internalType": "uint64", "name": "sentinelRevealDeadline", "type": "uint64"},
      {"internalType": "uint32", "name": "maxEntries", "type": "uint32"},
      {"internalType": "uint32", "name": "minEntries", "type": "uint32"},
      {"internalType": "uint96", "name": "entryPrice", "type": "uint96"},
      {"internalType": "uint16", "name": "builderFeeBps", "type": "uint16"},
      {"internalType": "uint16", "name": "protocolFeeBps", "type": "uint16"},
      {"internalType": "bytes32", "name": "creatorCommitHash", "type": "bytes32"},
      {"internalType": "bytes32", "name": "sentinelCommitHash", "type": "bytes32"},
      {"internalType": "address", "name": "sentinel", "type": "address"},
      {"internalType": "uint96", "name": "creatorBond", "type": "uint96"},
      {"internalType": "uint96", "name": "sentinelBond", "type": "uint96"},
      {"internalType": "uint32", "name": "entries", "type": "uint32"},
      {"internalType": "bool", "name": "creatorRevealed", "type": "bool"},
      {"internalType": "bool", "name": "sentinelRevealed", "type": "bool"},
      {"internalType": "bool", "name": "drawn", "type": "bool"},
      {"internalType": "bool", "name": "canceled", "type": "bool"},
      {"internalType": "address", "name": "winner", "type": "address"},
      {"internalType": "bytes32", "name": "_creatorSalt", "type": "bytes32"},
      {"internalType": "bytes32", "name": "_sentinelSalt", "type": "bytes32"},
      {"internalType": "uint128", "name": "grossCollected", "type": "uint128"}
    ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "poolId", "type": "uint256"},
      {"internalType": "bytes32", "name": "salt", "type": "bytes32"}
    ],
    "name": "revealSentinel",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

// pools() tuple indices used by this service.
const (
	poolFieldCreator                = 0
	poolFieldSentinelRevealDeadline = 4
	poolFieldSentinelCommitHash     = 11
	poolFieldSentinel               = 12
	poolFieldSentinelRevealed       = 17
	poolFieldDrawn                  = 18
	poolFieldCanceled               = 19
)
