// Package api exposes the governance engine over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Viyale/KeeperCoin/pkg/governance"
	"github.com/Viyale/KeeperCoin/pkg/metrics"
)

// WebServer represents the web server instance.
type WebServer struct {
	service  *governance.Service
	ledger   governance.Ledger
	recorder *governance.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger

	address string
	router  *mux.Router
	server  *http.Server
}

// NewWebServer creates a new web server instance.
func NewWebServer(service *governance.Service, ledger governance.Ledger, recorder *governance.Recorder, m *metrics.Metrics, logger *slog.Logger, address string) *WebServer {
	ws := &WebServer{
		service:  service,
		ledger:   ledger,
		recorder: recorder,
		metrics:  m,
		logger:   logger,
		address:  address,
		router:   mux.NewRouter(),
	}
	ws.setupRoutes()
	return ws
}

// enableCORS enables CORS for all routes.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// setupRoutes configures the HTTP routes.
func (ws *WebServer) setupRoutes() {
	ws.router = mux.NewRouter()
	ws.router.Use(enableCORS)

	// Governance routes
	ws.router.HandleFunc("/api/status", ws.getStatus).Methods("GET")
	ws.router.HandleFunc("/api/proposals", ws.createProposal).Methods("POST")
	ws.router.HandleFunc("/api/proposals", ws.listProposals).Methods("GET")
	ws.router.HandleFunc("/api/proposals/{id}", ws.getProposal).Methods("GET")
	ws.router.HandleFunc("/api/proposals/{id}/votes", ws.castVote).Methods("POST")
	ws.router.HandleFunc("/api/proposals/{id}/execute", ws.executeProposal).Methods("POST")
	ws.router.HandleFunc("/api/proposals/{id}/approvals", ws.approveProposal).Methods("POST")
	ws.router.HandleFunc("/api/proposals/{id}/approvals", ws.listApprovals).Methods("GET")

	// Token routes
	ws.router.HandleFunc("/api/transfers", ws.transfer).Methods("POST")
	ws.router.HandleFunc("/api/balances/{address}", ws.getBalance).Methods("GET")

	// State routes
	ws.router.HandleFunc("/api/params", ws.getParams).Methods("GET")
	ws.router.HandleFunc("/api/treasury", ws.getTreasury).Methods("GET")
	ws.router.HandleFunc("/api/vesting", ws.getVesting).Methods("GET")
	ws.router.HandleFunc("/api/vesting/reclaim", ws.reclaimAllocation).Methods("POST")
	ws.router.HandleFunc("/api/unpause", ws.forceUnpause).Methods("POST")
	ws.router.HandleFunc("/api/events", ws.getEvents).Methods("GET")

	ws.router.Handle("/metrics", ws.metrics.Handler()).Methods("GET")
}

// Start runs the server until Stop is called.
func (ws *WebServer) Start() error {
	ws.logger.Info("web server listening", "address", ws.address)

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.router,
	}
	return ws.server.ListenAndServe()
}

// Stop shuts the server down, letting in-flight requests finish.
func (ws *WebServer) Stop() error {
	if ws.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return ws.server.Shutdown(ctx)
	}
	return nil
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ws.logger.Error("failed to encode response", "error", err)
	}
}

func (ws *WebServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, governance.ErrProposalNotFound):
		status = http.StatusNotFound
	case errors.Is(err, governance.ErrValidation),
		errors.Is(err, governance.ErrVotingWindow),
		errors.Is(err, governance.ErrZeroWeight),
		errors.Is(err, governance.ErrInsufficientFunds),
		errors.Is(err, governance.ErrNothingToBurn):
		status = http.StatusBadRequest
	case errors.Is(err, governance.ErrUnauthorized),
		errors.Is(err, governance.ErrIneligibleVoter):
		status = http.StatusForbidden
	case errors.Is(err, governance.ErrDuplicateVote),
		errors.Is(err, governance.ErrAlreadyExecuted),
		errors.Is(err, governance.ErrTimelockNotElapsed),
		errors.Is(err, governance.ErrQuorumNotMet),
		errors.Is(err, governance.ErrWithdrawalWindowActive),
		errors.Is(err, governance.ErrWithdrawalNotOpen),
		errors.Is(err, governance.ErrNotPaused),
		errors.Is(err, governance.ErrForcedUnpauseUnavailable):
		status = http.StatusConflict
	case errors.Is(err, governance.ErrPaused):
		status = http.StatusServiceUnavailable
	}
	ws.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (ws *WebServer) proposalID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid proposal id %q", governance.ErrValidation, raw)
	}
	return id, nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid amount %q", governance.ErrValidation, raw)
	}
	return amount, nil
}

// proposalView is the JSON rendering of a proposal.
type proposalView struct {
	ID           uint64                  `json:"id"`
	Type         governance.ProposalType `json:"type"`
	Proposer     string                  `json:"proposer"`
	Payload      governance.Payload      `json:"payload"`
	StartTime    time.Time               `json:"start_time"`
	EndTime      time.Time               `json:"end_time"`
	VotesFor     string                  `json:"votes_for"`
	VotesAgainst string                  `json:"votes_against"`
	UniqueVoters int                     `json:"unique_voters"`
	Executed     bool                    `json:"executed"`
}

func viewOf(p *governance.Proposal) proposalView {
	return proposalView{
		ID:           p.ID,
		Type:         p.Type,
		Proposer:     p.Proposer,
		Payload:      p.Payload,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		VotesFor:     p.VotesFor.String(),
		VotesAgainst: p.VotesAgainst.String(),
		UniqueVoters: p.UniqueVoters,
		Executed:     p.Executed,
	}
}

func (ws *WebServer) getStatus(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, map[string]any{
		"total_supply":     ws.ledger.TotalSupply().String(),
		"next_annual_burn": ws.service.NextAnnualBurn(),
	})
}

// createProposalRequest carries the union of all proposal kinds'
// fields; only the ones matching the requested type are read.
type createProposalRequest struct {
	Type     governance.ProposalType `json:"type"`
	Proposer string                  `json:"proposer"`

	Enable *bool  `json:"enable,omitempty"`
	Pause  *bool  `json:"pause,omitempty"`
	Rate   uint64 `json:"rate,omitempty"`

	Amount    string `json:"amount,omitempty"`
	Recipient string `json:"recipient,omitempty"`

	Allocation string `json:"allocation,omitempty"`
	Quorum     string `json:"quorum,omitempty"`

	DelaySeconds int64 `json:"delay_seconds,omitempty"`

	MinVoters int    `json:"min_voters,omitempty"`
	MaxWeight string `json:"max_weight,omitempty"`

	Tier1   string `json:"tier1,omitempty"`
	Tier2   string `json:"tier2,omitempty"`
	Tier3   string `json:"tier3,omitempty"`
	MinRate uint64 `json:"min_rate,omitempty"`
	MidRate uint64 `json:"mid_rate,omitempty"`
	MaxRate uint64 `json:"max_rate,omitempty"`
}

func (ws *WebServer) createProposal(w http.ResponseWriter, r *http.Request) {
	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, fmt.Errorf("%w: invalid request body", governance.ErrValidation))
		return
	}

	id, err := ws.dispatchProposal(&req)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (ws *WebServer) dispatchProposal(req *createProposalRequest) (uint64, error) {
	switch req.Type {
	case governance.ProposalTypeAnnualBurn:
		if req.Enable == nil {
			return 0, fmt.Errorf("%w: enable is required", governance.ErrValidation)
		}
		return ws.service.ProposeAnnualBurn(req.Proposer, *req.Enable)

	case governance.ProposalTypeAnnualBurnRate:
		return ws.service.ProposeAnnualBurnRate(req.Proposer, req.Rate)

	case governance.ProposalTypeDeveloperWithdrawal:
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return 0, err
		}
		return ws.service.ProposeDeveloperWithdrawal(req.Proposer, amount)

	case governance.ProposalTypeWithdrawalLimit:
		limit, err := parseAmount(req.Amount)
		if err != nil {
			return 0, err
		}
		return ws.service.ProposeWithdrawalLimit(req.Proposer, limit)

	case governance.ProposalTypeWithdrawalBurn:
		return ws.service.ProposeWithdrawalBurn(req.Proposer, req.Rate)

	case governance.ProposalTypeTransferFeeRate:
		return ws.service.ProposeTransferFeeRate(req.Proposer, req.Rate)

	case governance.ProposalTypeEmergencyControl:
		if req.Pause == nil {
			return 0, fmt.Errorf("%w: pause is required", governance.ErrValidation)
		}
		return ws.service.ProposeEmergencyControl(req.Proposer, *req.Pause)

	case governance.ProposalTypeVotingFee:
		fee, err := parseAmount(req.Amount)
		if err != nil {
			return 0, err
		}
		return ws.service.ProposeVotingFee(req.Proposer, fee)

	case governance.ProposalTypeEmergencyThreshold:
		threshold, err := parseAmount(req.Amount)
		if err != nil {
			return 0, err
		}
		return ws.service.ProposeEmergencyThreshold(req.Proposer, threshold)

	case governance.ProposalTypeDynamicBurnParams:
		tier1, err := parseAmount(req.Tier1)
		if err != nil {
			return 0, err
		}
		tier2, err := parseAmount(req.Tier2)
		if err != nil {
			return 0, err
		}
		tier3, err := parseAmount(req.Tier3)
		if err != nil {
			return 0, err
		}
		return ws.service.ProposeDynamicBurnParams(req.Proposer, governance.DynamicBurnParamsPayload{
			Tier1:   tier1,
			Tier2:   tier2,
			Tier3:   tier3,
			MinRate: req.MinRate,
			MidRate: req.MidRate,
			MaxRate: req.MaxRate,
		})

	case governance.ProposalTypeTreasurySpending:
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return 0, err
		}
		return ws.service.ProposeTreasurySpending(req.Proposer, req.Recipient, amount)

	case governance.ProposalTypeTreasuryAllocation:
		allocation, err := parseAmount(req.Allocation)
		if err != nil {
			return 0, err
		}
		quorum, err := parseAmount(req.Quorum)
		if err != nil {
			return 0, err
		}
		return ws.service.ProposeTreasuryAllocation(req.Proposer, allocation, quorum)

	case governance.ProposalTypeTreasuryVoteWeight:
		return ws.service.ProposeTreasuryVoteWeight(req.Proposer, req.Rate)

	case governance.ProposalTypeTimelockDelay:
		return ws.service.ProposeTimelockDelay(req.Proposer, time.Duration(req.DelaySeconds)*time.Second)

	case governance.ProposalTypeTreasuryParticipation:
		maxWeight, err := parseAmount(req.MaxWeight)
		if err != nil {
			return 0, err
		}
		return ws.service.ProposeTreasuryParticipation(req.Proposer, req.MinVoters, maxWeight)

	default:
		return 0, fmt.Errorf("%w: unknown proposal type %q", governance.ErrValidation, req.Type)
	}
}

func (ws *WebServer) listProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := ws.service.ListProposals()
	if err != nil {
		ws.writeError(w, err)
		return
	}
	views := make([]proposalView, 0, len(proposals))
	for _, p := range proposals {
		views = append(views, viewOf(p))
	}
	ws.writeJSON(w, http.StatusOK, views)
}

func (ws *WebServer) getProposal(w http.ResponseWriter, r *http.Request) {
	id, err := ws.proposalID(r)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	proposal, err := ws.service.GetProposal(id)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, viewOf(proposal))
}

func (ws *WebServer) castVote(w http.ResponseWriter, r *http.Request) {
	id, err := ws.proposalID(r)
	if err != nil {
		ws.writeError(w, err)
		return
	}

	var req struct {
		Voter   string `json:"voter"`
		Support bool   `json:"support"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, fmt.Errorf("%w: invalid request body", governance.ErrValidation))
		return
	}

	if err := ws.service.Vote(id, req.Voter, req.Support); err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "vote recorded"})
}

func (ws *WebServer) executeProposal(w http.ResponseWriter, r *http.Request) {
	id, err := ws.proposalID(r)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	if err := ws.service.Execute(id); err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "executed"})
}

func (ws *WebServer) approveProposal(w http.ResponseWriter, r *http.Request) {
	id, err := ws.proposalID(r)
	if err != nil {
		ws.writeError(w, err)
		return
	}

	var req struct {
		Approver string `json:"approver"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, fmt.Errorf("%w: invalid request body", governance.ErrValidation))
		return
	}

	if err := ws.service.Approve(id, req.Approver); err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "approval recorded"})
}

func (ws *WebServer) listApprovals(w http.ResponseWriter, r *http.Request) {
	id, err := ws.proposalID(r)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	approvers, err := ws.service.Approvals(id)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, approvers)
}

func (ws *WebServer) transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, fmt.Errorf("%w: invalid request body", governance.ErrValidation))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		ws.writeError(w, err)
		return
	}
	if err := ws.service.Transfer(req.From, req.To, amount); err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (ws *WebServer) getBalance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	ws.writeJSON(w, http.StatusOK, map[string]string{
		"address": address,
		"balance": ws.ledger.BalanceOf(address).String(),
	})
}

func (ws *WebServer) getParams(w http.ResponseWriter, r *http.Request) {
	params := ws.service.Params()
	ws.writeJSON(w, http.StatusOK, map[string]any{
		"annual_burn_enabled":       params.AnnualBurnEnabled,
		"annual_burn_rate":          params.AnnualBurnRate,
		"burn_tier1":                params.BurnTier1.String(),
		"burn_tier2":                params.BurnTier2.String(),
		"burn_tier3":                params.BurnTier3.String(),
		"min_burn_rate":             params.MinBurnRate,
		"mid_burn_rate":             params.MidBurnRate,
		"max_burn_rate":             params.MaxBurnRate,
		"transfer_fee_rate":         params.TransferFeeRate,
		"voting_fee":                params.VotingFee.String(),
		"emergency_quorum":          params.EmergencyQuorum.String(),
		"funds_quorum":              params.FundsQuorum.String(),
		"timelock_delay_seconds":    int64(params.TimelockDelay.Seconds()),
		"multisig_approvals":        params.MultiSigApprovals,
		"treasury_vote_weight_rate": params.TreasuryVoteWeightRate,
		"treasury_max_vote_weight":  params.TreasuryMaxVoteWeight.String(),
		"treasury_min_voters":       params.TreasuryMinVoters,
		"withdrawal_limit":          params.WithdrawalLimit.String(),
		"withdrawal_burn_percent":   params.WithdrawalBurnPercent,
		"grace_period_seconds":      int64(params.GracePeriod.Seconds()),
	})
}

func (ws *WebServer) getTreasury(w http.ResponseWriter, r *http.Request) {
	treasury := ws.service.Treasury()
	ws.writeJSON(w, http.StatusOK, map[string]string{
		"allocation": treasury.Allocation.String(),
		"quorum":     treasury.Quorum.String(),
	})
}

func (ws *WebServer) getVesting(w http.ResponseWriter, r *http.Request) {
	vesting := ws.service.Vesting()
	ws.writeJSON(w, http.StatusOK, map[string]any{
		"deployed_at":     vesting.DeployedAt,
		"remaining":       vesting.Remaining.String(),
		"next_withdrawal": vesting.NextWithdrawal,
	})
}

func (ws *WebServer) reclaimAllocation(w http.ResponseWriter, r *http.Request) {
	if err := ws.service.ReclaimExpiredAllocation(); err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "reclaimed"})
}

func (ws *WebServer) forceUnpause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeError(w, fmt.Errorf("%w: invalid request body", governance.ErrValidation))
		return
	}
	if err := ws.service.ForceUnpause(req.Caller); err != nil {
		ws.writeError(w, err)
		return
	}
	ws.writeJSON(w, http.StatusOK, map[string]string{"status": "unpaused"})
}

func (ws *WebServer) getEvents(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, http.StatusOK, ws.recorder.Events())
}
