package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/holiman/uint256"

	fterrors "fiattoken/core/errors"
	"fiattoken/crypto"
	nativecommon "fiattoken/native/common"
	"fiattoken/native/fiattoken"
	"fiattoken/native/rbac"
)

type handler func(engine *fiattoken.Engine, caller [20]byte, args json.RawMessage) (any, error)

// Method kinds reported by Methods.
const (
	MethodChange = "change"
	MethodView   = "view"
)

// MethodInfo describes one callable method.
type MethodInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

var changeMethods = map[string]handler{
	"create_multisig_request":  createRequest,
	"approve_multisig_request": approveRequest,
	"execute_multisig_request": executeRequest,
	"remove_multisig_request":  removeRequest,
	"mint":                     mint,
	"burn":                     burn,
	"ft_transfer":              transfer,
	"approve":                  approve,
	"increase_allowance":       increaseAllowance,
	"decrease_allowance":       decreaseAllowance,
	"transfer_from":            transferFrom,
	"blocklist":                blocklist,
	"unblocklist":              unblocklist,
	"authorize_upgrade":        authorizeUpgrade,
}

var viewMethods = map[string]handler{
	"get_next_multisig_request_id": nextRequestID,
	"get_multisig_request":         getRequest,
	"list_multisig_requests":       listRequests,
	"multisig_config":              multisigConfig,
	"has_role":                     hasRole,
	"roles_of":                     rolesOf,
	"members_of":                   membersOf,
	"admins":                       membersView(rbac.RoleAdmin),
	"master_minters":               membersView(rbac.RoleMasterMinter),
	"owners":                       membersView(rbac.RoleOwner),
	"pausers":                      membersView(rbac.RolePauser),
	"minter_allowance":             minterAllowance,
	"is_minter":                    isMinter,
	"controller_minter":            controllerMinter,
	"allowance":                    allowance,
	"is_blocklisted":               isBlocklisted,
	"blocklister":                  blocklisterView,
	"paused":                       pausedView,
	"approved_for_upgrade":         approvedForUpgrade,
	"ft_balance_of":                balanceOf,
	"ft_total_supply":              totalSupply,
	"ft_metadata":                  metadataView,
}

// Methods lists every callable method ordered by name.
func Methods() []MethodInfo {
	out := make([]MethodInfo, 0, len(changeMethods)+len(viewMethods))
	for name := range changeMethods {
		out = append(out, MethodInfo{Name: name, Kind: MethodChange})
	}
	for name := range viewMethods {
		out = append(out, MethodInfo{Name: name, Kind: MethodView})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// --- argument decoding ---

func decodeArgs(raw json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", fterrors.ErrInvalidArguments, err)
	}
	return nil
}

func parseAccountArg(field, value string) ([20]byte, error) {
	account, err := crypto.ParseAccount(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %s: %v", fterrors.ErrInvalidArguments, field, err)
	}
	return account, nil
}

func parseAmountArg(field, value string) (*uint256.Int, error) {
	amount, err := nativecommon.ParseAmount(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", fterrors.ErrInvalidArguments, field, err)
	}
	return amount, nil
}

func parseRoleArg(value string) (rbac.Role, error) {
	role, err := rbac.ParseRole(value)
	if err != nil {
		return 0, fmt.Errorf("%w: role: %v", fterrors.ErrInvalidArguments, err)
	}
	return role, nil
}

type requestIDArgs struct {
	RequestID *uint32 `json:"request_id"`
}

func (a requestIDArgs) id() (uint32, error) {
	if a.RequestID == nil {
		return 0, fmt.Errorf("%w: request_id required", fterrors.ErrInvalidArguments)
	}
	return *a.RequestID, nil
}

func decodeRequestID(raw json.RawMessage) (uint32, error) {
	var args requestIDArgs
	if err := decodeArgs(raw, &args); err != nil {
		return 0, err
	}
	return args.id()
}

type accountArgs struct {
	AccountID string `json:"account_id"`
}

func decodeAccount(raw json.RawMessage) ([20]byte, error) {
	var args accountArgs
	if err := decodeArgs(raw, &args); err != nil {
		return [20]byte{}, err
	}
	return parseAccountArg("account_id", args.AccountID)
}

// --- views rendered to clients ---

type requestJSON struct {
	ID        uint32           `json:"id"`
	Action    fiattoken.Action `json:"action"`
	Approvals []string         `json:"approvals"`
	CreatedAt time.Time        `json:"created_at"`
	Status    string           `json:"status"`
}

func renderRequest(view *fiattoken.RequestView) requestJSON {
	return requestJSON{
		ID:        view.ID,
		Action:    view.Action,
		Approvals: renderAccounts(view.Approvals),
		CreatedAt: view.CreatedAt,
		Status:    view.Status.String(),
	}
}

func renderAccounts(accounts [][20]byte) []string {
	out := make([]string, len(accounts))
	for i, account := range accounts {
		out[i] = crypto.AccountString(account)
	}
	return out
}

// --- multisig ---

func createRequest(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	var args struct {
		Action *fiattoken.Action `json:"action"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if args.Action == nil {
		return nil, fmt.Errorf("%w: action required", fterrors.ErrInvalidArguments)
	}
	return engine.CreateRequest(caller, *args.Action)
}

func approveRequest(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	id, err := decodeRequestID(raw)
	if err != nil {
		return nil, err
	}
	return nil, engine.ApproveRequest(caller, id)
}

func executeRequest(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	id, err := decodeRequestID(raw)
	if err != nil {
		return nil, err
	}
	return nil, engine.ExecuteRequest(caller, id)
}

func removeRequest(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	id, err := decodeRequestID(raw)
	if err != nil {
		return nil, err
	}
	return nil, engine.RemoveRequest(caller, id)
}

func nextRequestID(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	if err := decodeArgs(raw, &struct{}{}); err != nil {
		return nil, err
	}
	return engine.NextRequestID()
}

func getRequest(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	id, err := decodeRequestID(raw)
	if err != nil {
		return nil, err
	}
	view, err := engine.Request(id)
	if err != nil {
		return nil, err
	}
	return renderRequest(view), nil
}

func listRequests(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	if err := decodeArgs(raw, &struct{}{}); err != nil {
		return nil, err
	}
	views, err := engine.PendingRequests()
	if err != nil {
		return nil, err
	}
	out := make([]requestJSON, len(views))
	for i, view := range views {
		out[i] = renderRequest(view)
	}
	return out, nil
}

func multisigConfig(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	if err := decodeArgs(raw, &struct{}{}); err != nil {
		return nil, err
	}
	cfg, err := engine.Config()
	if err != nil {
		return nil, err
	}
	return struct {
		ApprovalThreshold     uint32 `json:"approval_threshold"`
		ValidityPeriodSeconds uint64 `json:"validity_period_seconds"`
	}{cfg.ApprovalThreshold, uint64(cfg.ValidityPeriod / time.Second)}, nil
}

// --- roles ---

func hasRole(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	var args struct {
		AccountID string `json:"account_id"`
		Role      string `json:"role"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	account, err := parseAccountArg("account_id", args.AccountID)
	if err != nil {
		return nil, err
	}
	role, err := parseRoleArg(args.Role)
	if err != nil {
		return nil, err
	}
	return engine.HasRole(account, role)
}

func rolesOf(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	account, err := decodeAccount(raw)
	if err != nil {
		return nil, err
	}
	roles, err := engine.RolesOf(account)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(roles))
	for i, role := range roles {
		out[i] = role.String()
	}
	return out, nil
}

func membersOf(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	var args struct {
		Role string `json:"role"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	role, err := parseRoleArg(args.Role)
	if err != nil {
		return nil, err
	}
	members, err := engine.MembersOf(role)
	if err != nil {
		return nil, err
	}
	return renderAccounts(members), nil
}

func membersView(role rbac.Role) handler {
	return func(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
		if err := decodeArgs(raw, &struct{}{}); err != nil {
			return nil, err
		}
		members, err := engine.MembersOf(role)
		if err != nil {
			return nil, err
		}
		return renderAccounts(members), nil
	}
}

// --- minters ---

func minterAllowance(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	var args struct {
		MinterID string `json:"minter_id"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	minter, err := parseAccountArg("minter_id", args.MinterID)
	if err != nil {
		return nil, err
	}
	allowance, err := engine.MinterAllowance(minter)
	if err != nil {
		return nil, err
	}
	return allowance.Dec(), nil
}

func isMinter(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	account, err := decodeAccount(raw)
	if err != nil {
		return nil, err
	}
	return engine.IsMinter(account)
}

func controllerMinter(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	var args struct {
		ControllerID string `json:"controller_id"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	controller, err := parseAccountArg("controller_id", args.ControllerID)
	if err != nil {
		return nil, err
	}
	minter, ok, err := engine.ControllerMinter(controller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return crypto.AccountString(minter), nil
}

// --- token ---

func mint(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	var args struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	to, err := parseAccountArg("to", args.To)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmountArg("amount", args.Amount)
	if err != nil {
		return nil, err
	}
	return nil, engine.Mint(caller, to, amount)
}

func burn(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	var args struct {
		Amount string `json:"amount"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	amount, err := parseAmountArg("amount", args.Amount)
	if err != nil {
		return nil, err
	}
	return nil, engine.Burn(caller, amount)
}

func transfer(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	var args struct {
		ReceiverID string  `json:"receiver_id"`
		Amount     string  `json:"amount"`
		Memo       *string `json:"memo,omitempty"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	receiver, err := parseAccountArg("receiver_id", args.ReceiverID)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmountArg("amount", args.Amount)
	if err != nil {
		return nil, err
	}
	return nil, engine.Transfer(caller, receiver, amount)
}

type spenderArgs struct {
	SpenderID string `json:"spender_id"`
	Value     string `json:"value,omitempty"`
	Increment string `json:"increment,omitempty"`
	Decrement string `json:"decrement,omitempty"`
}

func decodeSpender(raw json.RawMessage, field string) ([20]byte, *uint256.Int, error) {
	var args spenderArgs
	if err := decodeArgs(raw, &args); err != nil {
		return [20]byte{}, nil, err
	}
	spender, err := parseAccountArg("spender_id", args.SpenderID)
	if err != nil {
		return [20]byte{}, nil, err
	}
	value := map[string]string{"value": args.Value, "increment": args.Increment, "decrement": args.Decrement}[field]
	amount, err := parseAmountArg(field, value)
	if err != nil {
		return [20]byte{}, nil, err
	}
	return spender, amount, nil
}

func approve(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	spender, value, err := decodeSpender(raw, "value")
	if err != nil {
		return nil, err
	}
	return nil, engine.Approve(caller, spender, value)
}

func increaseAllowance(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	spender, increment, err := decodeSpender(raw, "increment")
	if err != nil {
		return nil, err
	}
	return nil, engine.IncreaseAllowance(caller, spender, increment)
}

func decreaseAllowance(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	spender, decrement, err := decodeSpender(raw, "decrement")
	if err != nil {
		return nil, err
	}
	return nil, engine.DecreaseAllowance(caller, spender, decrement)
}

func transferFrom(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	var args struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Value string `json:"value"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	from, err := parseAccountArg("from", args.From)
	if err != nil {
		return nil, err
	}
	to, err := parseAccountArg("to", args.To)
	if err != nil {
		return nil, err
	}
	value, err := parseAmountArg("value", args.Value)
	if err != nil {
		return nil, err
	}
	return nil, engine.TransferFrom(caller, from, to, value)
}

func allowance(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	var args struct {
		HolderID  string `json:"holder_id"`
		SpenderID string `json:"spender_id"`
	}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	holder, err := parseAccountArg("holder_id", args.HolderID)
	if err != nil {
		return nil, err
	}
	spender, err := parseAccountArg("spender_id", args.SpenderID)
	if err != nil {
		return nil, err
	}
	value, err := engine.Allowance(holder, spender)
	if err != nil {
		return nil, err
	}
	return value.Dec(), nil
}

func balanceOf(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	account, err := decodeAccount(raw)
	if err != nil {
		return nil, err
	}
	balance, err := engine.BalanceOf(account)
	if err != nil {
		return nil, err
	}
	return balance.Dec(), nil
}

func totalSupply(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	if err := decodeArgs(raw, &struct{}{}); err != nil {
		return nil, err
	}
	supply, err := engine.TotalSupply()
	if err != nil {
		return nil, err
	}
	return supply.Dec(), nil
}

func metadataView(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	if err := decodeArgs(raw, &struct{}{}); err != nil {
		return nil, err
	}
	return engine.Metadata()
}

// --- blocklist and lifecycle ---

func blocklist(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	account, err := decodeAccount(raw)
	if err != nil {
		return nil, err
	}
	return nil, engine.Blocklist(caller, account)
}

func unblocklist(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	account, err := decodeAccount(raw)
	if err != nil {
		return nil, err
	}
	return nil, engine.Unblocklist(caller, account)
}

func isBlocklisted(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	account, err := decodeAccount(raw)
	if err != nil {
		return nil, err
	}
	return engine.IsBlocklisted(account)
}

func blocklisterView(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	if err := decodeArgs(raw, &struct{}{}); err != nil {
		return nil, err
	}
	account, err := engine.Blocklister()
	if err != nil {
		return nil, err
	}
	return crypto.AccountString(account), nil
}

func pausedView(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	if err := decodeArgs(raw, &struct{}{}); err != nil {
		return nil, err
	}
	return engine.Paused()
}

func approvedForUpgrade(engine *fiattoken.Engine, _ [20]byte, raw json.RawMessage) (any, error) {
	if err := decodeArgs(raw, &struct{}{}); err != nil {
		return nil, err
	}
	return engine.ApprovedForUpgrade()
}

func authorizeUpgrade(engine *fiattoken.Engine, caller [20]byte, raw json.RawMessage) (any, error) {
	if err := decodeArgs(raw, &struct{}{}); err != nil {
		return nil, err
	}
	return nil, engine.AuthorizeUpgrade(caller)
}
