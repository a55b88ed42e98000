package badger

import (
	"encoding/binary"

	"github.com/poiesic/notedb/core"
)

// Key layout. Every key of a store starts with the store name, so several
// stores can share one Badger directory.
//
//	<store>/meta/version                       schema version (mus varint)
//	<store>/meta/fingerprint                   schema fingerprint (mus varint)
//	<store>/meta/table/<table>                 catalog entry (mus)
//	<store>/t/<table>/<id>                     record (JSON)
//	<store>/i/<table>/<index>/<value>\x00<id>  index entry (empty value)
//	<store>/seq/<table>                        id sequence
//
// <id> is the 8 byte big-endian primary key, so forward iteration yields
// primary-key order.
const (
	metaVersionSuffix     = "/meta/version"
	metaFingerprintSuffix = "/meta/fingerprint"
	catalogInfix          = "/meta/table/"
	tableInfix            = "/t/"
	indexInfix            = "/i/"
	sequenceInfix         = "/seq/"

	indexValueSeparator = 0x00
	idSize              = 8
)

// makeStorePrefix returns the prefix shared by every key of a store.
func makeStorePrefix(store string) []byte {
	return []byte(store + "/")
}

func makeVersionKey(store string) []byte {
	return []byte(store + metaVersionSuffix)
}

func makeFingerprintKey(store string) []byte {
	return []byte(store + metaFingerprintSuffix)
}

// makeCatalogKey generates the key of a table's catalog entry.
func makeCatalogKey(store, table string) []byte {
	return []byte(store + catalogInfix + table)
}

// makeCatalogPrefix generates the prefix of every catalog entry.
func makeCatalogPrefix(store string) []byte {
	return []byte(store + catalogInfix)
}

// makeTablePrefix generates the prefix of every record in a table.
func makeTablePrefix(store, table string) []byte {
	return []byte(store + tableInfix + table + "/")
}

// makeRecordKey generates the key of a record by primary key.
// Format: prefix:id
func makeRecordKey(store, table string, id core.ID) []byte {
	prefix := makeTablePrefix(store, table)
	buf := make([]byte, len(prefix)+idSize)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeIndexPrefix generates the prefix of every entry of one index.
func makeIndexPrefix(store, table, index string) []byte {
	return []byte(store + indexInfix + table + "/" + index + "/")
}

// makeIndexValuePrefix generates the prefix of the entries for one value.
// Format: prefix:value:0x00
func makeIndexValuePrefix(store, table, index string, value []byte) []byte {
	prefix := makeIndexPrefix(store, table, index)
	buf := make([]byte, len(prefix)+len(value)+1)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], value)
	buf[offset] = indexValueSeparator
	return buf
}

// makeIndexKey generates a composite key for one index entry.
// Format: prefix:value:0x00:id
func makeIndexKey(store, table, index string, value []byte, id core.ID) []byte {
	prefix := makeIndexValuePrefix(store, table, index, value)
	buf := make([]byte, len(prefix)+idSize)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// idFromKey extracts the trailing primary key of a record or index key.
func idFromKey(key []byte) core.ID {
	if len(key) < idSize {
		return 0
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-idSize:]))
}

// makeSequenceKey generates the key of a table's id sequence.
func makeSequenceKey(store, table string) []byte {
	return []byte(store + sequenceInfix + table)
}
