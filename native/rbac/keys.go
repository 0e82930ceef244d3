package rbac

import "fmt"

const rbacPrefix = "rbac"

func accountRolesKey(account [20]byte) []byte {
	return []byte(fmt.Sprintf("%s/account/%x", rbacPrefix, account[:]))
}

func roleMembersKey(role Role) []byte {
	return []byte(fmt.Sprintf("%s/members/%d", rbacPrefix, uint8(role)))
}

func catalogKey() []byte {
	return []byte(rbacPrefix + "/catalog")
}
