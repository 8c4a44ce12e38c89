// Package chainhash computes the fingerprint that links one ledger block to
// the block before it.
package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// GenesisHash is the fixed hash recorded for the genesis block.
const GenesisHash = "Genesis"

// ZeroHash is the previous hash recorded for the genesis block.
var ZeroHash = strings.Repeat("0", 64)

// Compute returns the hex encoded SHA-256 of the previous hash, the decimal
// block index and the message concatenated in that order.
func Compute(previousHash string, index uint64, message string) string {
	h := sha256.New()
	h.Write([]byte(previousHash))
	h.Write([]byte(strconv.FormatUint(index, 10)))
	h.Write([]byte(message))

	return hex.EncodeToString(h.Sum(nil))
}

// Link describes the relationship between a block and its predecessor.
type Link struct {
	Index        uint64
	PreviousHash string
	Hash         string
}

// Broken returns the indexes of every link whose previous hash does not
// match the hash of the link before it. Links must be ordered by index.
func Broken(links []Link) []uint64 {
	var broken []uint64
	for i := 1; i < len(links); i++ {
		if links[i].PreviousHash != links[i-1].Hash {
			broken = append(broken, links[i].Index)
		}
	}

	return broken
}
