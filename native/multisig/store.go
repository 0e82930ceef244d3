package multisig

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// State is the key-value surface the store persists through.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVAppend(key []byte, value []byte) error
	KVRemove(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

// Store persists requests, the id counter and the approval policy.
type Store struct {
	state State
}

// NewStore constructs a store over state.
func NewStore(state State) *Store {
	return &Store{state: state}
}

func (s *Store) withState() (State, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("multisig store not initialised")
	}
	return s.state, nil
}

// Config returns the stored approval policy. The boolean is false before
// initialisation.
func (s *Store) Config() (Config, bool, error) {
	state, err := s.withState()
	if err != nil {
		return Config{}, false, err
	}
	var rec configRecord
	ok, err := state.KVGet(configKey(), &rec)
	if err != nil {
		return Config{}, false, fmt.Errorf("multisig: load config: %w", err)
	}
	if !ok {
		return Config{}, false, nil
	}
	return rec.config(), true, nil
}

// PutConfig validates and stores the approval policy.
func (s *Store) PutConfig(cfg Config) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := state.KVPut(configKey(), cfg.record()); err != nil {
		return fmt.Errorf("multisig: persist config: %w", err)
	}
	return nil
}

// NextID returns the id the next created request will receive.
func (s *Store) NextID() (uint32, error) {
	state, err := s.withState()
	if err != nil {
		return 0, err
	}
	var next uint32
	if _, err := state.KVGet(nextIDKey(), &next); err != nil {
		return 0, fmt.Errorf("multisig: load id counter: %w", err)
	}
	return next, nil
}

func (s *Store) allocateID() (uint32, error) {
	state, err := s.withState()
	if err != nil {
		return 0, err
	}
	id, err := s.NextID()
	if err != nil {
		return 0, err
	}
	if id == math.MaxUint32 {
		return 0, fmt.Errorf("multisig: request id space exhausted")
	}
	if err := state.KVPut(nextIDKey(), id+1); err != nil {
		return 0, fmt.Errorf("multisig: persist id counter: %w", err)
	}
	return id, nil
}

// Get loads a request by id.
func (s *Store) Get(id uint32) (*Request, bool, error) {
	state, err := s.withState()
	if err != nil {
		return nil, false, err
	}
	var rec requestRecord
	ok, err := state.KVGet(requestKey(id), &rec)
	if err != nil {
		return nil, false, fmt.Errorf("multisig: load request %d: %w", id, err)
	}
	if !ok {
		return nil, false, nil
	}
	req, err := rec.request()
	if err != nil {
		return nil, false, err
	}
	return req, true, nil
}

// Put writes the request and records it in the pending index.
func (s *Store) Put(req *Request) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	if req == nil {
		return fmt.Errorf("multisig: nil request")
	}
	if err := state.KVPut(requestKey(req.ID), req.record()); err != nil {
		return fmt.Errorf("multisig: persist request %d: %w", req.ID, err)
	}
	if err := state.KVAppend(pendingIndexKey(), encodeID(req.ID)); err != nil {
		return fmt.Errorf("multisig: update pending index: %w", err)
	}
	return nil
}

// Delete removes the request and its index entry. The id counter is never
// rewound.
func (s *Store) Delete(id uint32) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	if err := state.KVDelete(requestKey(id)); err != nil {
		return fmt.Errorf("multisig: delete request %d: %w", id, err)
	}
	if err := state.KVRemove(pendingIndexKey(), encodeID(id)); err != nil {
		return fmt.Errorf("multisig: update pending index: %w", err)
	}
	return nil
}

// Pending lists the ids of stored requests in ascending order.
func (s *Store) Pending() ([]uint32, error) {
	state, err := s.withState()
	if err != nil {
		return nil, err
	}
	var raw [][]byte
	if err := state.KVGetList(pendingIndexKey(), &raw); err != nil {
		return nil, fmt.Errorf("multisig: load pending index: %w", err)
	}
	ids := make([]uint32, 0, len(raw))
	for _, entry := range raw {
		if len(entry) != 4 {
			return nil, fmt.Errorf("multisig: corrupt pending index entry")
		}
		ids = append(ids, binary.BigEndian.Uint32(entry))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
