package sim

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/movekit/transcheck/internal/ledger"
)

// Domain prefixes for content-addressed identity. Every derived
// address and digest in the simulator is SHA256(domain + 0x00 + data);
// the null separator prevents domain/data boundary ambiguity, and the
// version suffix leaves room for algorithm migration.
const (
	domainAccount    = "transcheck/account/v1"
	domainGenesis    = "transcheck/genesis/v1"
	domainObject     = "transcheck/object/v1"
	domainTx         = "transcheck/tx/v1"
	domainCheckpoint = "transcheck/checkpoint/v1"
	domainPackage    = "transcheck/package/v1"
)

func hashWithDomain(domain string, data []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// accountAddress derives the stable address of a named account.
func accountAddress(name string) ledger.Address {
	return ledger.Address(hashWithDomain(domainAccount, []byte(name)))
}

// genesisCoinID derives the ID of an account's genesis gas coin.
func genesisCoinID(name string) ledger.ObjectID {
	return ledger.ObjectID(hashWithDomain(domainGenesis, []byte(name)))
}

// txDigest derives the digest of the tx with the given ordinal.
func txDigest(ordinal uint64) ledger.Digest {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], ordinal)
	return ledger.Digest(hashWithDomain(domainTx, buf[:]))
}

// freshObjectID derives the ID of the n-th object created by a tx.
func freshObjectID(tx ledger.Digest, n uint64) ledger.ObjectID {
	var buf [40]byte
	copy(buf[:32], tx[:])
	binary.BigEndian.PutUint64(buf[32:], n)
	return ledger.ObjectID(hashWithDomain(domainObject, buf[:]))
}

// packageID derives a published package's address from its module
// source and the publishing tx, so re-publication under a new tx yields
// a distinct address.
func packageID(tx ledger.Digest, source []byte) ledger.ObjectID {
	buf := make([]byte, 0, 32+len(source))
	buf = append(buf, tx[:]...)
	buf = append(buf, source...)
	return ledger.ObjectID(hashWithDomain(domainPackage, buf))
}

// checkpointDigest derives the content digest of checkpoint seq.
func checkpointDigest(seq, totalTxs uint64) ledger.Digest {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], seq)
	binary.BigEndian.PutUint64(buf[8:], totalTxs)
	return ledger.Digest(hashWithDomain(domainCheckpoint, buf[:]))
}
