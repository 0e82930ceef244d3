package fiattoken

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"fiattoken/crypto"
	nativecommon "fiattoken/native/common"
	"fiattoken/native/rbac"
)

func maxAmount() *uint256.Int { return nativecommon.MaxU128 }

type actionRecord struct {
	Kind       uint8
	Controller []byte
	Minter     []byte
	Account    []byte
	Role       uint8
	HasAmount  bool
	Amount     []byte
}

// EncodeAction serialises the action for storage inside a request.
func EncodeAction(a Action) ([]byte, error) {
	rec := actionRecord{
		Kind:       uint8(a.Kind),
		Controller: append([]byte(nil), a.Controller[:]...),
		Minter:     append([]byte(nil), a.Minter[:]...),
		Account:    append([]byte(nil), a.Account[:]...),
		Role:       uint8(a.Role),
	}
	if a.Amount != nil {
		rec.HasAmount = true
		rec.Amount = a.Amount.Bytes()
	}
	return rlp.EncodeToBytes(rec)
}

// DecodeAction restores an action produced by EncodeAction.
func DecodeAction(raw []byte) (Action, error) {
	var rec actionRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return Action{}, fmt.Errorf("fiattoken: decode action: %w", err)
	}
	a := Action{Kind: ActionKind(rec.Kind), Role: rbac.Role(rec.Role)}
	if !a.Kind.Valid() {
		return Action{}, fmt.Errorf("fiattoken: decode action: unknown kind %d", rec.Kind)
	}
	for _, field := range []struct {
		dst *[20]byte
		src []byte
	}{{&a.Controller, rec.Controller}, {&a.Minter, rec.Minter}, {&a.Account, rec.Account}} {
		if len(field.src) != 20 {
			return Action{}, fmt.Errorf("fiattoken: decode action: account field has %d bytes", len(field.src))
		}
		copy(field.dst[:], field.src)
	}
	if rec.HasAmount {
		a.Amount = new(uint256.Int).SetBytes(rec.Amount)
	}
	return a, nil
}

// MarshalJSON renders unit actions as a bare string and the others as a
// single-key object keyed by the action name.
func (a Action) MarshalJSON() ([]byte, error) {
	var body map[string]string
	switch a.Kind {
	case ActionApproveForUpgrade, ActionPause, ActionUnpause:
		return json.Marshal(a.Kind.String())
	case ActionConfigureController:
		body = map[string]string{
			"controller_id": crypto.AccountString(a.Controller),
			"minter_id":     crypto.AccountString(a.Minter),
		}
	case ActionRemoveController, ActionRemoveMinter:
		body = map[string]string{"controller_id": crypto.AccountString(a.Controller)}
	case ActionConfigureMinterAllowance:
		body = map[string]string{
			"controller_id":    crypto.AccountString(a.Controller),
			"minter_allowance": amountString(a.Amount),
		}
	case ActionIncreaseMinterAllowance:
		body = map[string]string{
			"controller_id": crypto.AccountString(a.Controller),
			"increment":     amountString(a.Amount),
		}
	case ActionDecreaseMinterAllowance:
		body = map[string]string{
			"controller_id": crypto.AccountString(a.Controller),
			"decrement":     amountString(a.Amount),
		}
	case ActionConfigureMultisigRole, ActionRevokeMultisigRole:
		body = map[string]string{
			"role":       a.Role.String(),
			"account_id": crypto.AccountString(a.Account),
		}
	case ActionUpdateBlocklister:
		body = map[string]string{"new_blocklister_id": crypto.AccountString(a.Account)}
	default:
		return nil, fmt.Errorf("fiattoken: unknown action kind %d", uint8(a.Kind))
	}
	return json.Marshal(map[string]map[string]string{a.Kind.String(): body})
}

// UnmarshalJSON accepts the layout produced by MarshalJSON.
func (a *Action) UnmarshalJSON(data []byte) error {
	var unit string
	if err := json.Unmarshal(data, &unit); err == nil {
		kind, err := parseActionKind(unit)
		if err != nil {
			return err
		}
		switch kind {
		case ActionApproveForUpgrade, ActionPause, ActionUnpause:
			*a = Action{Kind: kind}
			return nil
		default:
			return fmt.Errorf("fiattoken: action %s requires arguments", kind)
		}
	}

	var tagged map[string]map[string]string
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("fiattoken: decode action: %w", err)
	}
	if len(tagged) != 1 {
		return fmt.Errorf("fiattoken: action must have exactly one variant, got %d", len(tagged))
	}
	for name, body := range tagged {
		kind, err := parseActionKind(name)
		if err != nil {
			return err
		}
		decoded, err := decodeActionBody(kind, body)
		if err != nil {
			return fmt.Errorf("fiattoken: decode %s: %w", kind, err)
		}
		*a = decoded
	}
	return nil
}

func decodeActionBody(kind ActionKind, body map[string]string) (Action, error) {
	account := func(field string) ([20]byte, error) {
		value, ok := body[field]
		if !ok {
			return [20]byte{}, fmt.Errorf("missing %s", field)
		}
		return crypto.ParseAccount(value)
	}
	amount := func(field string) (*uint256.Int, error) {
		value, ok := body[field]
		if !ok {
			return nil, fmt.Errorf("missing %s", field)
		}
		return nativecommon.ParseAmount(value)
	}

	out := Action{Kind: kind}
	var err error
	switch kind {
	case ActionApproveForUpgrade, ActionPause, ActionUnpause:
		return out, nil
	case ActionConfigureController:
		if out.Controller, err = account("controller_id"); err != nil {
			return out, err
		}
		out.Minter, err = account("minter_id")
	case ActionRemoveController, ActionRemoveMinter:
		out.Controller, err = account("controller_id")
	case ActionConfigureMinterAllowance, ActionIncreaseMinterAllowance, ActionDecreaseMinterAllowance:
		field := map[ActionKind]string{
			ActionConfigureMinterAllowance: "minter_allowance",
			ActionIncreaseMinterAllowance:  "increment",
			ActionDecreaseMinterAllowance:  "decrement",
		}[kind]
		if out.Controller, err = account("controller_id"); err != nil {
			return out, err
		}
		out.Amount, err = amount(field)
	case ActionConfigureMultisigRole, ActionRevokeMultisigRole:
		role, ok := body["role"]
		if !ok {
			return out, fmt.Errorf("missing role")
		}
		if out.Role, err = rbac.ParseRole(role); err != nil {
			return out, err
		}
		out.Account, err = account("account_id")
	case ActionUpdateBlocklister:
		out.Account, err = account("new_blocklister_id")
	}
	return out, err
}
