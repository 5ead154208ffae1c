package rpc

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"fundchain/native/campaign"
	"fundchain/observability"
)

type campaignCreateParams struct {
	Caller     string `json:"caller"`
	Goal       string `json:"goal"`
	StartingAt int64  `json:"startingAt"`
	EndingAt   int64  `json:"endingAt"`
}

type campaignFundParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	Amount string `json:"amount"`
}

type campaignActionParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

type campaignGetParams struct {
	ID uint64 `json:"id"`
}

type campaignContributionParams struct {
	ID          uint64 `json:"id"`
	Contributor string `json:"contributor"`
}

type tokenBalanceParams struct {
	Address string `json:"address"`
}

type campaignCreateResult struct {
	ID uint64 `json:"id"`
}

type campaignResult struct {
	ID           uint64 `json:"id"`
	Creator      string `json:"creator"`
	Goal         string `json:"goal"`
	FundedAmount string `json:"fundedAmount"`
	StartingAt   int64  `json:"startingAt"`
	EndingAt     int64  `json:"endingAt"`
	Status       string `json:"status"`
}

type campaignCountResult struct {
	Count uint64 `json:"count"`
}

type campaignContributionResult struct {
	ID          uint64 `json:"id"`
	Contributor string `json:"contributor"`
	Amount      string `json:"amount"`
}

type campaignVaultResult struct {
	Address string `json:"address"`
}

type campaignMinimumDurationResult struct {
	Seconds int64 `json:"seconds"`
}

type tokenBalanceResult struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func decodeAddress(raw string) ([20]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, errors.New("expected 0x-prefixed 20-byte address")
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, errors.New("amount must be a non-negative base-10 integer")
	}
	return amount, nil
}

func formatCampaign(c *campaign.Campaign) campaignResult {
	goal := "0"
	if c.Goal != nil {
		goal = c.Goal.String()
	}
	funded := "0"
	if c.FundedAmount != nil {
		funded = c.FundedAmount.String()
	}
	return campaignResult{
		ID:           c.ID,
		Creator:      common.Address(c.Creator).Hex(),
		Goal:         goal,
		FundedAmount: funded,
		StartingAt:   c.StartingAt,
		EndingAt:     c.EndingAt,
		Status:       c.Status.String(),
	}
}

func decodeParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "exactly one parameter object expected"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	return nil
}

// writeLedgerError maps engine rejections onto the RPC error taxonomy. Domain
// errors keep their diagnostic message as data so callers can tell a missing
// campaign from a lifecycle violation.
func writeLedgerError(w http.ResponseWriter, id interface{}, err error) {
	var notFound *campaign.NotFoundError
	if errors.As(err, &notFound) {
		writeError(w, http.StatusNotFound, id, codeNotFound, "campaign not found", err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, id, codeRejected, "operation rejected", err.Error())
}

func (s *Server) handleCampaignCreate(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params campaignCreateParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	goal, err := parseAmount(params.Goal)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid goal", err.Error())
		return
	}
	started := time.Now()
	s.mu.Lock()
	id, err := s.engine.Create(caller, goal, params.StartingAt, params.EndingAt)
	s.mu.Unlock()
	observability.Ledger().Observe("create", err, started)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, campaignCreateResult{ID: id})
}

func (s *Server) handleCampaignFund(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params campaignFundParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	started := time.Now()
	s.mu.Lock()
	err = s.engine.Fund(caller, params.ID, amount)
	s.mu.Unlock()
	observability.Ledger().Observe("fund", err, started)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleCampaignRefund(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params campaignActionParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	started := time.Now()
	s.mu.Lock()
	err = s.engine.Refund(caller, params.ID)
	s.mu.Unlock()
	observability.Ledger().Observe("refund", err, started)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleCampaignExit(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params campaignActionParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	started := time.Now()
	s.mu.Lock()
	err = s.engine.Exit(caller, params.ID)
	s.mu.Unlock()
	observability.Ledger().Observe("exit", err, started)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleCampaignClaim(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params campaignActionParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	started := time.Now()
	s.mu.Lock()
	err = s.engine.Claim(caller, params.ID)
	s.mu.Unlock()
	observability.Ledger().Observe("claim", err, started)
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleCampaignGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params campaignGetParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	s.mu.Lock()
	c, err := s.engine.GetCampaign(params.ID)
	s.mu.Unlock()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatCampaign(c))
}

func (s *Server) handleCampaignCount(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.mu.Lock()
	count, err := s.engine.CampaignCount()
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "count unavailable", err.Error())
		return
	}
	writeResult(w, req.ID, campaignCountResult{Count: count})
}

func (s *Server) handleCampaignContribution(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params campaignContributionParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	contributor, err := decodeAddress(params.Contributor)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid contributor address", err.Error())
		return
	}
	s.mu.Lock()
	amount, err := s.engine.Contribution(params.ID, contributor)
	s.mu.Unlock()
	if err != nil {
		writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, campaignContributionResult{
		ID:          params.ID,
		Contributor: common.Address(contributor).Hex(),
		Amount:      amount.String(),
	})
}

func (s *Server) handleCampaignVault(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	writeResult(w, req.ID, campaignVaultResult{Address: common.Address(s.engine.Vault()).Hex()})
}

func (s *Server) handleCampaignMinimumDuration(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	writeResult(w, req.ID, campaignMinimumDurationResult{Seconds: s.engine.MinimumCampaignDuration()})
}

func (s *Server) handleTokenGetBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenBalanceParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	addr, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	s.mu.Lock()
	balance, err := s.token.BalanceOf(addr)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "balance unavailable", err.Error())
		return
	}
	writeResult(w, req.ID, tokenBalanceResult{Address: common.Address(addr).Hex(), Balance: balance.String()})
}
