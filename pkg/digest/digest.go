package digest

import (
	"crypto/sha256"
	"encoding/hex"

	cid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// Sum returns the lower-case hex SHA-256 of b.
func Sum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// CID renders the SHA-256 of b as a CIDv1 with the raw codec.
func CID(b []byte) (string, error) {
	multihash, err := mh.Sum(b, mh.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, multihash).String(), nil
}
