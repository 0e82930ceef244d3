package multisig

import (
	"encoding/binary"
	"fmt"
)

const multisigPrefix = "multisig"

func configKey() []byte {
	return []byte(multisigPrefix + "/config")
}

func nextIDKey() []byte {
	return []byte(multisigPrefix + "/next-id")
}

func requestKey(id uint32) []byte {
	return []byte(fmt.Sprintf("%s/request/%d", multisigPrefix, id))
}

func pendingIndexKey() []byte {
	return []byte(multisigPrefix + "/pending")
}

func encodeID(id uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], id)
	return buf[:]
}
