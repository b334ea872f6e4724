package store

import (
	"sort"
	"sync"

	"github.com/Viyale/KeeperCoin/pkg/governance"
)

// MemoryStore is an in-memory implementation of ProposalStore.
type MemoryStore struct {
	proposals map[uint64]*governance.Proposal
	votes     map[uint64]map[string]bool
	approvals map[uint64][]string
	lastID    uint64
	mutex     sync.RWMutex
}

// NewMemoryStore creates a new memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		proposals: make(map[uint64]*governance.Proposal),
		votes:     make(map[uint64]map[string]bool),
		approvals: make(map[uint64][]string),
	}
}

// SaveProposal saves a proposal to the store.
func (s *MemoryStore) SaveProposal(proposal *governance.Proposal) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.proposals[proposal.ID] = proposal.Clone()
	if proposal.ID > s.lastID {
		s.lastID = proposal.ID
	}
	return nil
}

// GetProposal retrieves a proposal by id, nil if absent.
func (s *MemoryStore) GetProposal(id uint64) (*governance.Proposal, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if proposal, exists := s.proposals[id]; exists {
		return proposal.Clone(), nil
	}
	return nil, nil
}

// ListProposals lists all proposals ordered by id.
func (s *MemoryStore) ListProposals() ([]*governance.Proposal, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	proposals := make([]*governance.Proposal, 0, len(s.proposals))
	for _, proposal := range s.proposals {
		proposals = append(proposals, proposal.Clone())
	}
	sort.Slice(proposals, func(i, j int) bool { return proposals[i].ID < proposals[j].ID })
	return proposals, nil
}

// LastProposalID returns the highest stored proposal id.
func (s *MemoryStore) LastProposalID() (uint64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.lastID, nil
}

// HasVoted reports whether the voter already voted on the proposal.
func (s *MemoryStore) HasVoted(proposalID uint64, voter string) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.votes[proposalID][voter], nil
}

// RecordVote saves the updated tally and the write-once vote record
// under one lock.
func (s *MemoryStore) RecordVote(proposal *governance.Proposal, voter string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.proposals[proposal.ID] = proposal.Clone()
	if proposal.ID > s.lastID {
		s.lastID = proposal.ID
	}
	if s.votes[proposal.ID] == nil {
		s.votes[proposal.ID] = make(map[string]bool)
	}
	s.votes[proposal.ID][voter] = true
	return nil
}

// AddApproval appends an approver to the proposal's sequence.
func (s *MemoryStore) AddApproval(proposalID uint64, approver string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.approvals[proposalID] = append(s.approvals[proposalID], approver)
	return nil
}

// ListApprovals returns the approver sequence in call order.
func (s *MemoryStore) ListApprovals(proposalID uint64) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]string, len(s.approvals[proposalID]))
	copy(out, s.approvals[proposalID])
	return out, nil
}
