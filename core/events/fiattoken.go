package events

import (
	"strconv"

	"github.com/holiman/uint256"

	"fiattoken/core/types"
	"fiattoken/crypto"
)

const (
	TypeApprove                 = "approve"
	TypeApprovedForUpgrade      = "approved_for_upgrade"
	TypeBlocklist               = "blocklist"
	TypeBlocklisterChanged      = "blocklister_changed"
	TypeControllerConfigured    = "controller_configured"
	TypeControllerRemoved       = "controller_removed"
	TypeMinterConfigured        = "minter_configured"
	TypeMinterRemoved           = "minter_removed"
	TypeMultisigRequestCreated  = "multisig_request_created"
	TypeMultisigRequestApproved = "multisig_request_approved"
	TypeMultisigRequestExecuted = "multisig_request_executed"
	TypeMultisigRequestRemoved  = "multisig_request_removed"
	TypePaused                  = "paused"
	TypeRoleConfigured          = "role_configured"
	TypeRoleRevoked             = "role_revoked"
	TypeUnblocklist             = "unblocklist"
	TypeUnpaused                = "unpaused"
	TypeTokenMint               = "ft_mint"
	TypeTokenBurn               = "ft_burn"
	TypeTokenTransfer           = "ft_transfer"
)

func account(a [20]byte) string {
	return crypto.AccountString(a)
}

func amount(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// Approve is emitted when a holder sets or adjusts a spender allowance.
type Approve struct {
	Holder    [20]byte
	Spender   [20]byte
	Allowance *uint256.Int
}

func (Approve) EventType() string { return TypeApprove }

func (e Approve) Event() *types.Event {
	return &types.Event{Type: TypeApprove, Attributes: map[string]string{
		"holder_id":  account(e.Holder),
		"spender_id": account(e.Spender),
		"allowance":  amount(e.Allowance),
	}}
}

// ApprovedForUpgrade is emitted when the admins approve a code upgrade.
type ApprovedForUpgrade struct{}

func (ApprovedForUpgrade) EventType() string { return TypeApprovedForUpgrade }

func (ApprovedForUpgrade) Event() *types.Event {
	return &types.Event{Type: TypeApprovedForUpgrade, Attributes: map[string]string{}}
}

// Blocklist is emitted when an account is blocklisted.
type Blocklist struct {
	Account [20]byte
}

func (Blocklist) EventType() string { return TypeBlocklist }

func (e Blocklist) Event() *types.Event {
	return &types.Event{Type: TypeBlocklist, Attributes: map[string]string{"account_id": account(e.Account)}}
}

// Unblocklist is emitted when an account is removed from the blocklist.
type Unblocklist struct {
	Account [20]byte
}

func (Unblocklist) EventType() string { return TypeUnblocklist }

func (e Unblocklist) Event() *types.Event {
	return &types.Event{Type: TypeUnblocklist, Attributes: map[string]string{"account_id": account(e.Account)}}
}

// BlocklisterChanged is emitted when the blocklister role moves.
type BlocklisterChanged struct {
	NewBlocklister [20]byte
}

func (BlocklisterChanged) EventType() string { return TypeBlocklisterChanged }

func (e BlocklisterChanged) Event() *types.Event {
	return &types.Event{Type: TypeBlocklisterChanged, Attributes: map[string]string{
		"new_blocklister_id": account(e.NewBlocklister),
	}}
}

type ControllerConfigured struct {
	Controller [20]byte
	Minter     [20]byte
}

func (ControllerConfigured) EventType() string { return TypeControllerConfigured }

func (e ControllerConfigured) Event() *types.Event {
	return &types.Event{Type: TypeControllerConfigured, Attributes: map[string]string{
		"controller_id": account(e.Controller),
		"minter_id":     account(e.Minter),
	}}
}

type ControllerRemoved struct {
	Controller [20]byte
}

func (ControllerRemoved) EventType() string { return TypeControllerRemoved }

func (e ControllerRemoved) Event() *types.Event {
	return &types.Event{Type: TypeControllerRemoved, Attributes: map[string]string{
		"controller_id": account(e.Controller),
	}}
}

// MinterConfigured carries the absolute allowance after every allowance
// mutation, including increments and decrements.
type MinterConfigured struct {
	Minter    [20]byte
	Allowance *uint256.Int
}

func (MinterConfigured) EventType() string { return TypeMinterConfigured }

func (e MinterConfigured) Event() *types.Event {
	return &types.Event{Type: TypeMinterConfigured, Attributes: map[string]string{
		"minter_id":        account(e.Minter),
		"minter_allowance": amount(e.Allowance),
	}}
}

type MinterRemoved struct {
	Minter [20]byte
}

func (MinterRemoved) EventType() string { return TypeMinterRemoved }

func (e MinterRemoved) Event() *types.Event {
	return &types.Event{Type: TypeMinterRemoved, Attributes: map[string]string{"minter_id": account(e.Minter)}}
}

type MultisigRequestCreated struct {
	RequestID uint32
	Proposer  [20]byte
	Action    string
}

func (MultisigRequestCreated) EventType() string { return TypeMultisigRequestCreated }

func (e MultisigRequestCreated) Event() *types.Event {
	return &types.Event{Type: TypeMultisigRequestCreated, Attributes: map[string]string{
		"request_id":  strconv.FormatUint(uint64(e.RequestID), 10),
		"proposer_id": account(e.Proposer),
		"action":      e.Action,
	}}
}

type MultisigRequestApproved struct {
	RequestID uint32
	Approver  [20]byte
	Approvals uint32
	Action    string
}

func (MultisigRequestApproved) EventType() string { return TypeMultisigRequestApproved }

func (e MultisigRequestApproved) Event() *types.Event {
	return &types.Event{Type: TypeMultisigRequestApproved, Attributes: map[string]string{
		"request_id":  strconv.FormatUint(uint64(e.RequestID), 10),
		"approver_id": account(e.Approver),
		"approvals":   strconv.FormatUint(uint64(e.Approvals), 10),
		"action":      e.Action,
	}}
}

type MultisigRequestExecuted struct {
	RequestID uint32
	Executor  [20]byte
	Action    string
}

func (MultisigRequestExecuted) EventType() string { return TypeMultisigRequestExecuted }

func (e MultisigRequestExecuted) Event() *types.Event {
	return &types.Event{Type: TypeMultisigRequestExecuted, Attributes: map[string]string{
		"request_id":  strconv.FormatUint(uint64(e.RequestID), 10),
		"executor_id": account(e.Executor),
		"action":      e.Action,
	}}
}

type MultisigRequestRemoved struct {
	RequestID uint32
	Remover   [20]byte
	Action    string
}

func (MultisigRequestRemoved) EventType() string { return TypeMultisigRequestRemoved }

func (e MultisigRequestRemoved) Event() *types.Event {
	return &types.Event{Type: TypeMultisigRequestRemoved, Attributes: map[string]string{
		"request_id": strconv.FormatUint(uint64(e.RequestID), 10),
		"remover_id": account(e.Remover),
		"action":     e.Action,
	}}
}

type Paused struct{}

func (Paused) EventType() string { return TypePaused }

func (Paused) Event() *types.Event {
	return &types.Event{Type: TypePaused, Attributes: map[string]string{}}
}

type Unpaused struct{}

func (Unpaused) EventType() string { return TypeUnpaused }

func (Unpaused) Event() *types.Event {
	return &types.Event{Type: TypeUnpaused, Attributes: map[string]string{}}
}

// RoleConfigured is emitted whenever a governance role is granted.
type RoleConfigured struct {
	Role    string
	Account [20]byte
}

func (RoleConfigured) EventType() string { return TypeRoleConfigured }

func (e RoleConfigured) Event() *types.Event {
	return &types.Event{Type: TypeRoleConfigured, Attributes: map[string]string{
		"role":       e.Role,
		"account_id": account(e.Account),
	}}
}

type RoleRevoked struct {
	Role    string
	Account [20]byte
}

func (RoleRevoked) EventType() string { return TypeRoleRevoked }

func (e RoleRevoked) Event() *types.Event {
	return &types.Event{Type: TypeRoleRevoked, Attributes: map[string]string{
		"role":       e.Role,
		"account_id": account(e.Account),
	}}
}

type TokenMint struct {
	Owner  [20]byte
	Amount *uint256.Int
}

func (TokenMint) EventType() string { return TypeTokenMint }

func (e TokenMint) Event() *types.Event {
	return &types.Event{Type: TypeTokenMint, Attributes: map[string]string{
		"owner_id": account(e.Owner),
		"amount":   amount(e.Amount),
	}}
}

type TokenBurn struct {
	Owner  [20]byte
	Amount *uint256.Int
}

func (TokenBurn) EventType() string { return TypeTokenBurn }

func (e TokenBurn) Event() *types.Event {
	return &types.Event{Type: TypeTokenBurn, Attributes: map[string]string{
		"owner_id": account(e.Owner),
		"amount":   amount(e.Amount),
	}}
}

type TokenTransfer struct {
	From   [20]byte
	To     [20]byte
	Amount *uint256.Int
}

func (TokenTransfer) EventType() string { return TypeTokenTransfer }

func (e TokenTransfer) Event() *types.Event {
	return &types.Event{Type: TypeTokenTransfer, Attributes: map[string]string{
		"old_owner_id": account(e.From),
		"new_owner_id": account(e.To),
		"amount":       amount(e.Amount),
	}}
}
