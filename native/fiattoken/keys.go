package fiattoken

import "fmt"

const fiatTokenPrefix = "fiattoken"

func settingsKey() []byte {
	return []byte(fiatTokenPrefix + "/settings")
}

func metadataKey() []byte {
	return []byte(fiatTokenPrefix + "/metadata")
}

func controllerKey(controller [20]byte) []byte {
	return []byte(fmt.Sprintf("%s/controller/%x", fiatTokenPrefix, controller[:]))
}

func minterAllowanceKey(minter [20]byte) []byte {
	return []byte(fmt.Sprintf("%s/minter-allowance/%x", fiatTokenPrefix, minter[:]))
}

func spendAllowanceKey(holder, spender [20]byte) []byte {
	return []byte(fmt.Sprintf("%s/allowance/%x/%x", fiatTokenPrefix, holder[:], spender[:]))
}
