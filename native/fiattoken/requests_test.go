package fiattoken

import (
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	fterrors "fiattoken/core/errors"
	"fiattoken/core/events"
	nativecommon "fiattoken/native/common"
	"fiattoken/native/multisig"
	"fiattoken/native/rbac"
)

func TestConfigureControllerScenario(t *testing.T) {
	f := newFixture(t)

	id, err := f.engine.CreateRequest(master1, ConfigureControllerAction(controller1, minter1))
	require.NoError(t, err)
	require.Equal(t, uint32(0), id)

	require.NoError(t, f.engine.ApproveRequest(master1, id))
	err = f.engine.ExecuteRequest(master1, id)
	require.ErrorIs(t, err, fterrors.ErrInsufficientApprovals)

	require.NoError(t, f.engine.ApproveRequest(master2, id))
	require.NoError(t, f.engine.ExecuteRequest(master1, id))

	bound, ok, err := f.engine.ControllerMinter(controller1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, minter1, bound)

	isController, err := f.engine.HasRole(controller1, rbac.RoleController)
	require.NoError(t, err)
	require.True(t, isController)
	marker, err := f.engine.IsMultisigMember(controller1)
	require.NoError(t, err)
	require.True(t, marker)

	isMinter, err := f.engine.IsMinter(minter1)
	require.NoError(t, err)
	require.False(t, isMinter, "minter role is only granted with an allowance")

	_, err = f.engine.Request(id)
	require.ErrorIs(t, err, fterrors.ErrNotFound)

	require.Equal(t, []string{
		events.TypeMultisigRequestCreated,
		events.TypeMultisigRequestApproved,
		events.TypeMultisigRequestApproved,
		events.TypeControllerConfigured,
		events.TypeMultisigRequestExecuted,
	}, f.recorder.Types())
}

func TestConfigureMinterAllowanceScenario(t *testing.T) {
	f := newFixture(t)
	f.bindControllers(t)

	id, err := f.engine.CreateRequest(controller1, ConfigureMinterAllowanceAction(controller1, amount(1000)))
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(controller1, id))
	require.NoError(t, f.engine.ApproveRequest(controller2, id))
	require.NoError(t, f.engine.ExecuteRequest(controller1, id))

	allowance, err := f.engine.MinterAllowance(minter1)
	requireAmount(t, 1000, allowance, err)
	isMinter, err := f.engine.IsMinter(minter1)
	require.NoError(t, err)
	require.True(t, isMinter)

	require.NoError(t, f.engine.Mint(minter1, alice, amount(1000)))
	err = f.engine.Mint(minter1, alice, amount(1))
	require.ErrorIs(t, err, fterrors.ErrExceedsAllowance)

	balance, err := f.engine.BalanceOf(alice)
	requireAmount(t, 1000, balance, err)
	allowance, err = f.engine.MinterAllowance(minter1)
	requireAmount(t, 0, allowance, err)
}

func TestSameApproverCountsOnce(t *testing.T) {
	f := newFixture(t)

	id, err := f.engine.CreateRequest(pauser1, PauseAction())
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(pauser1, id))
	err = f.engine.ApproveRequest(pauser1, id)
	require.ErrorIs(t, err, fterrors.ErrAlreadyApproved)

	err = f.engine.ExecuteRequest(pauser1, id)
	var insufficient *fterrors.InsufficientApprovalsError
	require.True(t, errors.As(err, &insufficient))
	require.Equal(t, uint32(1), insufficient.Current)
	require.Equal(t, uint32(2), insufficient.Required)

	view, err := f.engine.Request(id)
	require.NoError(t, err)
	require.Len(t, view.Approvals, 1)
	require.Equal(t, multisig.StatusPending, view.Status)
}

func TestApprovalDoesNotExecute(t *testing.T) {
	f := newFixture(t)

	id, err := f.engine.CreateRequest(pauser1, PauseAction())
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(pauser1, id))
	require.NoError(t, f.engine.ApproveRequest(pauser2, id))

	paused, err := f.engine.Paused()
	require.NoError(t, err)
	require.False(t, paused)

	view, err := f.engine.Request(id)
	require.NoError(t, err)
	require.Equal(t, multisig.StatusApproved, view.Status)
	require.Equal(t, PauseAction(), view.Action)

	require.NoError(t, f.engine.ExecuteRequest(pauser2, id))
	paused, err = f.engine.Paused()
	require.NoError(t, err)
	require.True(t, paused)
}

func TestRequestRoleChecks(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateRequest(alice, PauseAction())
	require.ErrorIs(t, err, fterrors.ErrUnauthorized)
	_, err = f.engine.CreateRequest(owner1, PauseAction())
	require.ErrorIs(t, err, fterrors.ErrUnauthorized)

	id, err := f.engine.CreateRequest(pauser1, PauseAction())
	require.NoError(t, err)
	require.ErrorIs(t, f.engine.ApproveRequest(admin1, id), fterrors.ErrUnauthorized)
	require.ErrorIs(t, f.engine.ExecuteRequest(admin1, id), fterrors.ErrUnauthorized)

	require.ErrorIs(t, f.engine.ApproveRequest(pauser1, 99), fterrors.ErrNotFound)
	require.ErrorIs(t, f.engine.ExecuteRequest(pauser1, 99), fterrors.ErrNotFound)
	require.ErrorIs(t, f.engine.RemoveRequest(pauser1, 99), fterrors.ErrNotFound)
}

func TestRoleActionRequiredRoles(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateRequest(owner1, ConfigureMultisigRoleAction(rbac.RoleAdmin, alice))
	require.ErrorIs(t, err, fterrors.ErrUnauthorized)
	_, err = f.engine.CreateRequest(admin1, ConfigureMultisigRoleAction(rbac.RoleAdmin, alice))
	require.NoError(t, err)

	for _, role := range []rbac.Role{rbac.RoleMasterMinter, rbac.RoleOwner, rbac.RolePauser} {
		_, err = f.engine.CreateRequest(owner1, ConfigureMultisigRoleAction(role, alice))
		require.NoError(t, err, role.String())
	}
}

func TestInvalidRoleGrantRejectedAtCreate(t *testing.T) {
	f := newFixture(t)

	for _, role := range []rbac.Role{rbac.RoleMinter, rbac.RoleController, rbac.RoleBlocklister, rbac.RoleBlocklisted, rbac.RoleMultisig} {
		_, err := f.engine.CreateRequest(owner1, ConfigureMultisigRoleAction(role, alice))
		require.ErrorIs(t, err, fterrors.ErrInvalidRoleGrant, role.String())
		_, err = f.engine.CreateRequest(owner1, RevokeMultisigRoleAction(role, alice))
		require.ErrorIs(t, err, fterrors.ErrInvalidRoleGrant, role.String())
	}

	next, err := f.engine.NextRequestID()
	require.NoError(t, err)
	require.Equal(t, uint32(0), next)
}

func TestMultisigMarkerFollowsGovernanceRoles(t *testing.T) {
	f := newFixture(t)

	f.pass(t, ConfigureMultisigRoleAction(rbac.RolePauser, carol), owner1, owner1, owner2)
	f.pass(t, ConfigureMultisigRoleAction(rbac.RoleOwner, carol), owner1, owner1, owner2)

	roles, err := f.engine.RolesOf(carol)
	require.NoError(t, err)
	require.Equal(t, []rbac.Role{rbac.RoleMultisig, rbac.RoleOwner, rbac.RolePauser}, roles)

	f.pass(t, RevokeMultisigRoleAction(rbac.RolePauser, carol), owner1, owner1, owner2)
	marker, err := f.engine.IsMultisigMember(carol)
	require.NoError(t, err)
	require.True(t, marker, "owner role still held")

	f.pass(t, RevokeMultisigRoleAction(rbac.RoleOwner, carol), owner1, owner1, carol)
	roles, err = f.engine.RolesOf(carol)
	require.NoError(t, err)
	require.Empty(t, roles)

	_, err = f.engine.CreateRequest(carol, PauseAction())
	require.ErrorIs(t, err, fterrors.ErrUnauthorized)
}

func TestControllerConsistency(t *testing.T) {
	f := newFixture(t)
	f.bindControllers(t)

	id, err := f.engine.CreateRequest(controller1, IncreaseMinterAllowanceAction(controller1, amount(10)))
	require.NoError(t, err)

	err = f.engine.ApproveRequest(controller3, id)
	require.ErrorIs(t, err, fterrors.ErrWrongController)
	err = f.engine.ExecuteRequest(controller3, id)
	require.ErrorIs(t, err, fterrors.ErrWrongController)
	err = f.engine.RemoveRequest(controller3, id)
	require.ErrorIs(t, err, fterrors.ErrWrongController)

	require.NoError(t, f.engine.ApproveRequest(controller2, id))

	// a controller that names no minter cannot anchor a request
	orphan, err := f.engine.CreateRequest(controller1, RemoveMinterAction(carol))
	require.NoError(t, err)
	err = f.engine.ApproveRequest(controller1, orphan)
	require.ErrorIs(t, err, fterrors.ErrNotFound)
}

func TestControllerReassignmentRevokesAuthority(t *testing.T) {
	f := newFixture(t)
	f.bindControllers(t)

	id, err := f.engine.CreateRequest(controller1, ConfigureMinterAllowanceAction(controller1, amount(50)))
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(controller2, id))

	// controller2 now controls minter2 and loses authority over minter1's request
	f.pass(t, ConfigureControllerAction(controller2, minter2), master1, master1, master2)
	err = f.engine.ApproveRequest(controller2, id)
	require.ErrorIs(t, err, fterrors.ErrWrongController)
}

func TestMinterAllowanceAdjustments(t *testing.T) {
	f := newFixture(t)
	f.bindControllers(t)

	f.pass(t, ConfigureMinterAllowanceAction(controller1, amount(1000)), controller1, controller1, controller2)
	f.pass(t, IncreaseMinterAllowanceAction(controller1, amount(500)), controller2, controller1, controller2)
	allowance, err := f.engine.MinterAllowance(minter1)
	requireAmount(t, 1500, allowance, err)

	f.pass(t, DecreaseMinterAllowanceAction(controller1, amount(500)), controller1, controller1, controller2)
	allowance, err = f.engine.MinterAllowance(minter1)
	requireAmount(t, 1000, allowance, err)

	id, err := f.engine.CreateRequest(controller1, DecreaseMinterAllowanceAction(controller1, amount(1001)))
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(controller1, id))
	require.NoError(t, f.engine.ApproveRequest(controller2, id))
	err = f.engine.ExecuteRequest(controller1, id)
	require.ErrorIs(t, err, fterrors.ErrUnderflow)

	allowance, err = f.engine.MinterAllowance(minter1)
	requireAmount(t, 1000, allowance, err)
	view, err := f.engine.Request(id)
	require.NoError(t, err, "failed execution keeps the request")
	require.Equal(t, multisig.StatusApproved, view.Status)
}

func TestMinterAllowanceOverflow(t *testing.T) {
	f := newFixture(t)
	f.bindControllers(t)

	max := new(uint256.Int).Set(nativecommon.MaxU128)
	f.pass(t, ConfigureMinterAllowanceAction(controller1, max), controller1, controller1, controller2)

	id, err := f.engine.CreateRequest(controller1, IncreaseMinterAllowanceAction(controller1, amount(1)))
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(controller1, id))
	require.NoError(t, f.engine.ApproveRequest(controller2, id))
	require.ErrorIs(t, f.engine.ExecuteRequest(controller1, id), fterrors.ErrOverflow)

	allowance, err := f.engine.MinterAllowance(minter1)
	require.NoError(t, err)
	require.True(t, allowance.Eq(max))
}

func TestRemoveMinterClearsQuota(t *testing.T) {
	f := newFixture(t)
	f.bindControllers(t)

	f.pass(t, ConfigureMinterAllowanceAction(controller1, amount(20)), controller1, controller1, controller2)
	f.pass(t, RemoveMinterAction(controller2), controller2, controller1, controller2)

	isMinter, err := f.engine.IsMinter(minter1)
	require.NoError(t, err)
	require.False(t, isMinter)
	allowance, err := f.engine.MinterAllowance(minter1)
	requireAmount(t, 0, allowance, err)
	require.ErrorIs(t, f.engine.Mint(minter1, alice, amount(1)), fterrors.ErrUnauthorized)
}

func TestRemoveControllerDropsMapping(t *testing.T) {
	f := newFixture(t)
	f.bindControllers(t)

	f.pass(t, RemoveControllerAction(controller3), master1, master1, master2)
	_, ok, err := f.engine.ControllerMinter(controller3)
	require.NoError(t, err)
	require.False(t, ok)
	marker, err := f.engine.IsMultisigMember(controller3)
	require.NoError(t, err)
	require.False(t, marker)

	id, err := f.engine.CreateRequest(master1, RemoveControllerAction(controller3))
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(master1, id))
	require.NoError(t, f.engine.ApproveRequest(master2, id))
	require.ErrorIs(t, f.engine.ExecuteRequest(master1, id), fterrors.ErrNotFound)
}

func TestRequestExpiry(t *testing.T) {
	f := newFixture(t)

	id, err := f.engine.CreateRequest(pauser1, PauseAction())
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(pauser1, id))

	err = f.engine.RemoveRequest(pauser2, id)
	require.ErrorIs(t, err, fterrors.ErrRequestStillValid)
	require.ErrorIs(t, err, fterrors.ErrRemovalNotAllowed)

	f.advance(multisig.DefaultConfig().ValidityPeriod)
	require.NoError(t, f.engine.ApproveRequest(pauser2, id), "expiry is exclusive of the boundary")

	f.advance(time.Second)
	view, err := f.engine.Request(id)
	require.NoError(t, err)
	require.Equal(t, multisig.StatusExpired, view.Status)
	require.ErrorIs(t, f.engine.ExecuteRequest(pauser1, id), fterrors.ErrRequestExpired)

	require.NoError(t, f.engine.RemoveRequest(pauser2, id))
	_, err = f.engine.Request(id)
	require.ErrorIs(t, err, fterrors.ErrNotFound)
	require.Contains(t, f.recorder.Types(), events.TypeMultisigRequestRemoved)
}

func TestFailedExecutionKeepsRequest(t *testing.T) {
	f := newFixture(t)

	id, err := f.engine.CreateRequest(pauser1, UnpauseAction())
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(pauser1, id))
	require.NoError(t, f.engine.ApproveRequest(pauser2, id))
	require.ErrorIs(t, f.engine.ExecuteRequest(pauser1, id), fterrors.ErrNotPaused)

	pending, err := f.engine.PendingRequests()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, id, pending[0].ID)

	f.pass(t, PauseAction(), pauser2, pauser1, pauser2)
	require.NoError(t, f.engine.ExecuteRequest(pauser1, id))
	paused, err := f.engine.Paused()
	require.NoError(t, err)
	require.False(t, paused)
}

func TestRequestIDsAreNeverReused(t *testing.T) {
	f := newFixture(t)

	next, err := f.engine.NextRequestID()
	require.NoError(t, err)
	require.Equal(t, uint32(0), next)

	first := f.pass(t, PauseAction(), pauser1, pauser1, pauser2)
	second, err := f.engine.CreateRequest(pauser1, UnpauseAction())
	require.NoError(t, err)
	require.Equal(t, first+1, second)

	next, err = f.engine.NextRequestID()
	require.NoError(t, err)
	require.Equal(t, uint32(2), next)
}

func TestPauseBlocksTokenOperations(t *testing.T) {
	f := newFixture(t)
	f.bindControllers(t)
	f.pass(t, ConfigureMinterAllowanceAction(controller1, amount(100)), controller1, controller1, controller2)
	require.NoError(t, f.engine.Mint(minter1, alice, amount(10)))

	f.pass(t, PauseAction(), pauser1, pauser1, pauser2)
	require.ErrorIs(t, f.engine.Mint(minter1, alice, amount(10)), fterrors.ErrPaused)
	require.ErrorIs(t, f.engine.Transfer(alice, bob, amount(1)), fterrors.ErrPaused)
	require.ErrorIs(t, f.engine.Approve(alice, bob, amount(1)), fterrors.ErrPaused)

	id, err := f.engine.CreateRequest(pauser1, PauseAction())
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(pauser1, id))
	require.NoError(t, f.engine.ApproveRequest(pauser2, id))
	require.ErrorIs(t, f.engine.ExecuteRequest(pauser1, id), fterrors.ErrPaused)

	f.pass(t, UnpauseAction(), pauser2, pauser1, pauser2)
	require.NoError(t, f.engine.Transfer(alice, bob, amount(1)))
}

func TestBlocklistedExecutorCannotPause(t *testing.T) {
	f := newFixture(t)

	id, err := f.engine.CreateRequest(pauser1, PauseAction())
	require.NoError(t, err)
	require.NoError(t, f.engine.ApproveRequest(pauser1, id))
	require.NoError(t, f.engine.ApproveRequest(pauser2, id))
	require.NoError(t, f.engine.Blocklist(blocklister, pauser1))

	require.ErrorIs(t, f.engine.ExecuteRequest(pauser1, id), fterrors.ErrBlocklisted)
	require.NoError(t, f.engine.ExecuteRequest(pauser2, id))
}

func TestUpdateBlocklister(t *testing.T) {
	f := newFixture(t)

	f.pass(t, UpdateBlocklisterAction(carol), owner1, owner1, owner2)
	current, err := f.engine.Blocklister()
	require.NoError(t, err)
	require.Equal(t, carol, current)

	require.ErrorIs(t, f.engine.Blocklist(blocklister, alice), fterrors.ErrUnauthorized)
	require.NoError(t, f.engine.Blocklist(carol, alice))
	blocked, err := f.engine.IsBlocklisted(alice)
	require.NoError(t, err)
	require.True(t, blocked)

	marker, err := f.engine.IsMultisigMember(carol)
	require.NoError(t, err)
	require.False(t, marker, "blocklister is not a governance role")
}

func TestApproveForUpgrade(t *testing.T) {
	f := newFixture(t)

	require.ErrorIs(t, f.engine.AuthorizeUpgrade(admin1), fterrors.ErrNotApprovedForUpgrade)
	f.pass(t, ApproveForUpgradeAction(), admin1, admin1, admin2)

	approved, err := f.engine.ApprovedForUpgrade()
	require.NoError(t, err)
	require.True(t, approved)

	require.ErrorIs(t, f.engine.AuthorizeUpgrade(owner1), fterrors.ErrUnauthorized)
	require.NoError(t, f.engine.AuthorizeUpgrade(admin2))
	require.ErrorIs(t, f.engine.AuthorizeUpgrade(admin2), fterrors.ErrNotApprovedForUpgrade)
}
