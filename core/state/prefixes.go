package state

import "encoding/binary"

var (
	itemPrefix         = []byte("catalog/item/")
	creatorIndexPrefix = []byte("catalog/creator/")
	itemCounterKey     = []byte("catalog/nextItemId")
	splitsPrefix       = []byte("splits/config/")
	feePolicyKey       = []byte("fees/policy")
	ownerKey           = []byte("market/owner")
	pausesKey          = []byte("market/pauses")
	accountPrefix      = []byte("account/")
	holdingsPrefix     = []byte("holdings/")
)

func itemKey(id uint64) []byte {
	buf := make([]byte, len(itemPrefix)+8)
	copy(buf, itemPrefix)
	binary.BigEndian.PutUint64(buf[len(itemPrefix):], id)
	return buf
}

func creatorIndexKey(creator [20]byte) []byte {
	buf := make([]byte, len(creatorIndexPrefix)+len(creator))
	copy(buf, creatorIndexPrefix)
	copy(buf[len(creatorIndexPrefix):], creator[:])
	return buf
}

func splitsKey(itemID uint64) []byte {
	buf := make([]byte, len(splitsPrefix)+8)
	copy(buf, splitsPrefix)
	binary.BigEndian.PutUint64(buf[len(splitsPrefix):], itemID)
	return buf
}

func accountKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return buf
}

func holdingsKey(addr [20]byte, itemID uint64) []byte {
	buf := make([]byte, len(holdingsPrefix)+len(addr)+1+8)
	copy(buf, holdingsPrefix)
	copy(buf[len(holdingsPrefix):], addr[:])
	buf[len(holdingsPrefix)+len(addr)] = ':'
	binary.BigEndian.PutUint64(buf[len(holdingsPrefix)+len(addr)+1:], itemID)
	return buf
}
