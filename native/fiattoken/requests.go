package fiattoken

import (
	"fmt"
	"time"

	"fiattoken/core/events"
	"fiattoken/native/multisig"
	"fiattoken/native/rbac"
)

// RequestView is the externally visible form of a stored request.
type RequestView struct {
	ID        uint32          `json:"id"`
	Action    Action          `json:"action"`
	Approvals [][20]byte      `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	Status    multisig.Status `json:"status"`
}

// authorize checks that caller may act on requests carrying action: it must
// hold the action's role and the Multisig marker.
func (e *Engine) authorize(caller [20]byte, action Action) error {
	role, err := action.RoleRequired()
	if err != nil {
		return err
	}
	if err := e.requireRole(caller, role); err != nil {
		return err
	}
	return e.requireRole(caller, rbac.RoleMultisig)
}

// loadAuthorized loads request id and runs the checks shared by approve,
// execute and remove: existence, then caller role, then controller
// consistency for controller-scoped actions.
func (e *Engine) loadAuthorized(caller [20]byte, id uint32) (*multisig.Request, Action, error) {
	req, err := e.requests.Load(id)
	if err != nil {
		return nil, Action{}, err
	}
	action, err := DecodeAction(req.Action)
	if err != nil {
		return nil, Action{}, err
	}
	if err := e.authorize(caller, action); err != nil {
		return nil, Action{}, err
	}
	if action.ControllerScoped() {
		if err := e.checkController(action, caller); err != nil {
			return nil, Action{}, err
		}
	}
	return req, action, nil
}

// CreateRequest stores a new request for action proposed by proposer and
// returns its id. The proposer is not counted as an approver.
func (e *Engine) CreateRequest(proposer [20]byte, action Action) (uint32, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if err := action.Validate(); err != nil {
		return 0, err
	}
	if err := e.authorize(proposer, action); err != nil {
		return 0, err
	}
	encoded, err := EncodeAction(action)
	if err != nil {
		return 0, err
	}
	req, err := e.requests.Create(encoded, e.now())
	if err != nil {
		return 0, err
	}
	e.emit(events.MultisigRequestCreated{RequestID: req.ID, Proposer: proposer, Action: action.Kind.String()})
	return req.ID, nil
}

// ApproveRequest records approver's approval. Approval never executes the
// request, even when it reaches the threshold.
func (e *Engine) ApproveRequest(approver [20]byte, id uint32) error {
	if err := e.ready(); err != nil {
		return err
	}
	req, action, err := e.loadAuthorized(approver, id)
	if err != nil {
		return err
	}
	if err := e.requests.Approve(req, approver, e.now()); err != nil {
		return err
	}
	e.emit(events.MultisigRequestApproved{RequestID: req.ID, Approver: approver, Approvals: req.ApprovalCount(), Action: action.Kind.String()})
	return nil
}

// ExecuteRequest dispatches the request's action once it has enough
// approvals and consumes the request. When the action fails the request is
// left untouched so it can be retried.
func (e *Engine) ExecuteRequest(executor [20]byte, id uint32) error {
	if err := e.ready(); err != nil {
		return err
	}
	req, action, err := e.loadAuthorized(executor, id)
	if err != nil {
		return err
	}
	if err := e.requests.CheckExecutable(req, e.now()); err != nil {
		return err
	}
	if err := e.dispatch(executor, action); err != nil {
		return fmt.Errorf("execute multisig request %d: %w", id, err)
	}
	if err := e.requests.Complete(req); err != nil {
		return err
	}
	e.emit(events.MultisigRequestExecuted{RequestID: req.ID, Executor: executor, Action: action.Kind.String()})
	return nil
}

// RemoveRequest deletes an expired request.
func (e *Engine) RemoveRequest(remover [20]byte, id uint32) error {
	if err := e.ready(); err != nil {
		return err
	}
	req, action, err := e.loadAuthorized(remover, id)
	if err != nil {
		return err
	}
	if err := e.requests.Remove(req, e.now()); err != nil {
		return err
	}
	e.emit(events.MultisigRequestRemoved{RequestID: req.ID, Remover: remover, Action: action.Kind.String()})
	return nil
}

// NextRequestID returns the id the next created request will receive.
func (e *Engine) NextRequestID() (uint32, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.requests.Store().NextID()
}

// Request returns the stored request with its derived status.
func (e *Engine) Request(id uint32) (*RequestView, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	req, err := e.requests.Load(id)
	if err != nil {
		return nil, err
	}
	return e.view(req)
}

// PendingRequests lists every stored request ordered by id.
func (e *Engine) PendingRequests() ([]*RequestView, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	ids, err := e.requests.Store().Pending()
	if err != nil {
		return nil, err
	}
	out := make([]*RequestView, 0, len(ids))
	for _, id := range ids {
		req, err := e.requests.Load(id)
		if err != nil {
			return nil, err
		}
		view, err := e.view(req)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (e *Engine) view(req *multisig.Request) (*RequestView, error) {
	action, err := DecodeAction(req.Action)
	if err != nil {
		return nil, err
	}
	status, err := e.requests.Status(req, e.now())
	if err != nil {
		return nil, err
	}
	return &RequestView{
		ID:        req.ID,
		Action:    action,
		Approvals: append([][20]byte(nil), req.Approvals...),
		CreatedAt: req.CreatedAt,
		Status:    status,
	}, nil
}
