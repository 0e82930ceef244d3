package fiattoken

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	fterrors "fiattoken/core/errors"
	"fiattoken/crypto"
	nativecommon "fiattoken/native/common"
	"fiattoken/native/rbac"
)

func TestActionJSONLayout(t *testing.T) {
	raw, err := json.Marshal(PauseAction())
	require.NoError(t, err)
	require.JSONEq(t, `"Pause"`, string(raw))

	raw, err = json.Marshal(ConfigureMinterAllowanceAction(controller1, amount(1000)))
	require.NoError(t, err)
	require.JSONEq(t, `{"ConfigureMinterAllowance":{"controller_id":"`+crypto.AccountString(controller1)+`","minter_allowance":"1000"}}`, string(raw))

	raw, err = json.Marshal(ConfigureMultisigRoleAction(rbac.RolePauser, alice))
	require.NoError(t, err)
	require.JSONEq(t, `{"ConfigureMultisigRole":{"role":"Pauser","account_id":"`+crypto.AccountString(alice)+`"}}`, string(raw))
}

func TestActionJSONDecode(t *testing.T) {
	actions := []Action{
		ApproveForUpgradeAction(),
		ConfigureControllerAction(controller1, minter1),
		RemoveControllerAction(controller2),
		ConfigureMinterAllowanceAction(controller1, amount(0)),
		IncreaseMinterAllowanceAction(controller1, amount(7)),
		DecreaseMinterAllowanceAction(controller1, nativecommon.MaxU128),
		RemoveMinterAction(controller3),
		ConfigureMultisigRoleAction(rbac.RoleMasterMinter, bob),
		RevokeMultisigRoleAction(rbac.RoleAdmin, carol),
		UnpauseAction(),
		UpdateBlocklisterAction(carol),
	}
	for _, want := range actions {
		raw, err := json.Marshal(want)
		require.NoError(t, err)
		var got Action
		require.NoError(t, json.Unmarshal(raw, &got), string(raw))
		require.Equal(t, want.String(), got.String())
		require.Equal(t, want.Kind, got.Kind)
	}
}

func TestActionJSONRejectsMalformed(t *testing.T) {
	for _, input := range []string{
		`"ConfigureController"`,
		`"Mint"`,
		`{"Pause":{},"Unpause":{}}`,
		`{"RemoveMinter":{}}`,
		`{"ConfigureMultisigRole":{"role":"Emperor","account_id":"` + crypto.AccountString(alice) + `"}}`,
		`{"IncreaseMinterAllowance":{"controller_id":"` + crypto.AccountString(alice) + `","increment":"-1"}}`,
	} {
		var out Action
		require.Error(t, json.Unmarshal([]byte(input), &out), input)
	}
}

func TestActionStorageEncoding(t *testing.T) {
	for _, want := range []Action{
		PauseAction(),
		ConfigureMinterAllowanceAction(controller1, amount(0)),
		ConfigureControllerAction(controller1, minter1),
		RevokeMultisigRoleAction(rbac.RoleOwner, alice),
	} {
		raw, err := EncodeAction(want)
		require.NoError(t, err)
		got, err := DecodeAction(raw)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := DecodeAction([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestActionValidate(t *testing.T) {
	require.ErrorIs(t, IncreaseMinterAllowanceAction(controller1, amount(0)).Validate(), fterrors.ErrInvalidAmount)
	require.ErrorIs(t, ConfigureMinterAllowanceAction(controller1, nil).Validate(), fterrors.ErrInvalidAmount)
	require.ErrorIs(t, ConfigureMultisigRoleAction(rbac.RoleMinter, alice).Validate(), fterrors.ErrInvalidRoleGrant)
	require.Error(t, Action{Kind: ActionKind(200)}.Validate())
	require.NoError(t, ConfigureMinterAllowanceAction(controller1, amount(0)).Validate())
}

func TestActionRoleRequired(t *testing.T) {
	cases := []struct {
		action Action
		role   rbac.Role
	}{
		{ApproveForUpgradeAction(), rbac.RoleAdmin},
		{ConfigureControllerAction(controller1, minter1), rbac.RoleMasterMinter},
		{RemoveControllerAction(controller1), rbac.RoleMasterMinter},
		{ConfigureMinterAllowanceAction(controller1, amount(1)), rbac.RoleController},
		{RemoveMinterAction(controller1), rbac.RoleController},
		{PauseAction(), rbac.RolePauser},
		{UnpauseAction(), rbac.RolePauser},
		{UpdateBlocklisterAction(alice), rbac.RoleOwner},
		{ConfigureMultisigRoleAction(rbac.RoleAdmin, alice), rbac.RoleAdmin},
		{RevokeMultisigRoleAction(rbac.RolePauser, alice), rbac.RoleOwner},
	}
	for _, tc := range cases {
		got, err := tc.action.RoleRequired()
		require.NoError(t, err)
		if got != tc.role {
			t.Fatalf("%s: want role %s, got %s", tc.action.Kind, tc.role, got)
		}
	}
}
