// SQLite persistence for proposals, vote records and approver lists.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Viyale/KeeperCoin/pkg/governance"
)

const schema = `
CREATE TABLE IF NOT EXISTS proposals (
	id            INTEGER PRIMARY KEY,
	type          TEXT    NOT NULL,
	proposer      TEXT    NOT NULL,
	payload       TEXT    NOT NULL,
	start_time    INTEGER NOT NULL,
	end_time      INTEGER NOT NULL,
	votes_for     TEXT    NOT NULL,
	votes_against TEXT    NOT NULL,
	unique_voters INTEGER NOT NULL,
	executed      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS votes (
	proposal_id INTEGER NOT NULL,
	voter       TEXT    NOT NULL,
	PRIMARY KEY (proposal_id, voter)
);
CREATE TABLE IF NOT EXISTS approvals (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	proposal_id INTEGER NOT NULL,
	approver    TEXT    NOT NULL
);
`

// SQLiteStore persists governance state in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveProposal inserts or replaces a proposal row.
func (s *SQLiteStore) SaveProposal(proposal *governance.Proposal) error {
	return saveProposal(s.db, proposal)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveProposal(e execer, proposal *governance.Proposal) error {
	payload, err := json.Marshal(proposal.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = e.Exec(`
		INSERT OR REPLACE INTO proposals
			(id, type, proposer, payload, start_time, end_time, votes_for, votes_against, unique_voters, executed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		proposal.ID,
		string(proposal.Type),
		proposal.Proposer,
		string(payload),
		proposal.StartTime.UTC().UnixMilli(),
		proposal.EndTime.UTC().UnixMilli(),
		proposal.VotesFor.String(),
		proposal.VotesAgainst.String(),
		proposal.UniqueVoters,
		boolToInt(proposal.Executed),
	)
	if err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}
	return nil
}

// GetProposal retrieves a proposal by id, nil if absent.
func (s *SQLiteStore) GetProposal(id uint64) (*governance.Proposal, error) {
	row := s.db.QueryRow(`
		SELECT id, type, proposer, payload, start_time, end_time, votes_for, votes_against, unique_voters, executed
		FROM proposals WHERE id = ?`, id)
	proposal, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return proposal, err
}

// ListProposals lists all proposals ordered by id.
func (s *SQLiteStore) ListProposals() ([]*governance.Proposal, error) {
	rows, err := s.db.Query(`
		SELECT id, type, proposer, payload, start_time, end_time, votes_for, votes_against, unique_voters, executed
		FROM proposals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*governance.Proposal
	for rows.Next() {
		proposal, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, proposal)
	}
	return proposals, rows.Err()
}

// LastProposalID returns the highest stored proposal id.
func (s *SQLiteStore) LastProposalID() (uint64, error) {
	var last sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(id) FROM proposals`).Scan(&last); err != nil {
		return 0, fmt.Errorf("last proposal id: %w", err)
	}
	return uint64(last.Int64), nil
}

// HasVoted reports whether the voter already voted on the proposal.
func (s *SQLiteStore) HasVoted(proposalID uint64, voter string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM votes WHERE proposal_id = ? AND voter = ?`, proposalID, voter).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check vote record: %w", err)
	}
	return n > 0, nil
}

// RecordVote writes the updated tally and the write-once vote record
// in one transaction, so a failure loses both or neither.
func (s *SQLiteStore) RecordVote(proposal *governance.Proposal, voter string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin vote transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := saveProposal(tx, proposal); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR IGNORE INTO votes (proposal_id, voter) VALUES (?, ?)`, proposal.ID, voter); err != nil {
		return fmt.Errorf("record vote: %w", err)
	}
	return tx.Commit()
}

// AddApproval appends an approver to the proposal's sequence.
func (s *SQLiteStore) AddApproval(proposalID uint64, approver string) error {
	if _, err := s.db.Exec(`INSERT INTO approvals (proposal_id, approver) VALUES (?, ?)`, proposalID, approver); err != nil {
		return fmt.Errorf("record approval: %w", err)
	}
	return nil
}

// ListApprovals returns the approver sequence in call order.
func (s *SQLiteStore) ListApprovals(proposalID uint64) ([]string, error) {
	rows, err := s.db.Query(`SELECT approver FROM approvals WHERE proposal_id = ? ORDER BY seq`, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var approvers []string
	for rows.Next() {
		var approver string
		if err := rows.Scan(&approver); err != nil {
			return nil, err
		}
		approvers = append(approvers, approver)
	}
	return approvers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*governance.Proposal, error) {
	var (
		proposal     governance.Proposal
		kind         string
		payload      string
		startMillis  int64
		endMillis    int64
		votesFor     string
		votesAgainst string
		executed     int
	)
	err := row.Scan(
		&proposal.ID, &kind, &proposal.Proposer, &payload,
		&startMillis, &endMillis, &votesFor, &votesAgainst,
		&proposal.UniqueVoters, &executed,
	)
	if err != nil {
		return nil, err
	}

	proposal.Type = governance.ProposalType(kind)
	proposal.StartTime = time.UnixMilli(startMillis).UTC()
	proposal.EndTime = time.UnixMilli(endMillis).UTC()
	proposal.Executed = executed != 0

	var ok bool
	proposal.VotesFor, ok = new(big.Int).SetString(votesFor, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt votes_for value %q", votesFor)
	}
	proposal.VotesAgainst, ok = new(big.Int).SetString(votesAgainst, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt votes_against value %q", votesAgainst)
	}

	proposal.Payload, err = unmarshalPayload(proposal.Type, []byte(payload))
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// unmarshalPayload decodes the type-specific payload of a stored
// proposal. Payloads are returned by value so execution dispatch can
// type-switch on the concrete structs.
func unmarshalPayload(kind governance.ProposalType, data []byte) (governance.Payload, error) {
	switch kind {
	case governance.ProposalTypeAnnualBurn:
		var p governance.AnnualBurnPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeAnnualBurnRate:
		var p governance.AnnualBurnRatePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeDeveloperWithdrawal:
		var p governance.DeveloperWithdrawalPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeWithdrawalLimit:
		var p governance.WithdrawalLimitPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeWithdrawalBurn:
		var p governance.WithdrawalBurnPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeTransferFeeRate:
		var p governance.TransferFeeRatePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeEmergencyControl:
		var p governance.EmergencyControlPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeVotingFee:
		var p governance.VotingFeePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeEmergencyThreshold:
		var p governance.EmergencyThresholdPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeDynamicBurnParams:
		var p governance.DynamicBurnParamsPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeTreasurySpending:
		var p governance.TreasurySpendingPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeTreasuryAllocation:
		var p governance.TreasuryAllocationPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeTreasuryVoteWeight:
		var p governance.TreasuryVoteWeightPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeTimelockDelay:
		var p governance.TimelockDelayPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	case governance.ProposalTypeTreasuryParticipation:
		var p governance.TreasuryParticipationPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s payload: %w", kind, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown proposal type %q", kind)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
