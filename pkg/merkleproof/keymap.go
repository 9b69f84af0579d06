package merkleproof

// Field ids used by the compact MerkleProof2019 CBOR encoding.
const (
	keyPath       uint64 = 0
	keyMerkleRoot uint64 = 1
	keyTargetHash uint64 = 2
	keyAnchors    uint64 = 3

	sideLeft  uint64 = 0
	sideRight uint64 = 1
)

var fieldNames = map[uint64]string{
	keyPath:       "path",
	keyMerkleRoot: "merkleRoot",
	keyTargetHash: "targetHash",
	keyAnchors:    "anchors",
}

var sideNames = map[uint64]string{
	sideLeft:  "left",
	sideRight: "right",
}

type chainInfo struct {
	name      string
	hexPrefix bool
	networks  map[uint64]string
}

var chains = map[uint64]chainInfo{
	0: {
		name:     "btc",
		networks: map[uint64]string{1: "mainnet", 3: "testnet"},
	},
	1: {
		name:      "eth",
		hexPrefix: true,
		networks: map[uint64]string{
			1:        "mainnet",
			3:        "ropsten",
			4:        "rinkeby",
			5:        "goerli",
			8995:     "bloxberg",
			11155111: "sepolia",
		},
	},
	2: {
		name:     "mocknet",
		networks: map[uint64]string{},
	},
}

func fieldID(name string) (uint64, bool) {
	for id, n := range fieldNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

func sideID(name string) (uint64, bool) {
	for id, n := range sideNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

func chainByName(name string) (uint64, chainInfo, bool) {
	for id, c := range chains {
		if c.name == name {
			return id, c, true
		}
	}
	return 0, chainInfo{}, false
}

func (c chainInfo) networkID(name string) (uint64, bool) {
	for id, n := range c.networks {
		if n == name {
			return id, true
		}
	}
	return 0, false
}
