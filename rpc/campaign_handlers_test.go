package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"fundchain/core/state"
	"fundchain/native/campaign"
	"fundchain/native/token"
	"fundchain/storage"
)

const (
	testBase  = int64(1_000_000)
	testStart = testBase + 3_600
	testEnd   = testStart + campaign.MinimumDuration
)

type testServer struct {
	server *Server
	ledger *token.Ledger
	now    int64
}

func newTestServer(authToken string) *testServer {
	manager := state.NewManager(storage.NewMemDB())
	ledger := token.NewLedger(manager)
	engine := campaign.NewEngine()
	engine.SetState(manager)
	engine.SetToken(ledger)
	var vault [20]byte
	vault[19] = 0xAA
	engine.SetVault(vault)
	ts := &testServer{ledger: ledger, now: testBase}
	engine.SetNowFunc(func() int64 { return ts.now })
	ts.server = NewServer(engine, ledger, authToken)
	return ts
}

func (ts *testServer) call(t *testing.T, method string, params interface{}, headers map[string]string) (*RPCResponse, int) {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	} else {
		payload["params"] = []interface{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	resp := &RPCResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), resp); err != nil {
		t.Fatalf("unmarshal response: %v (body %s)", err, rec.Body.String())
	}
	return resp, rec.Code
}

func (ts *testServer) decodeResult(t *testing.T, resp *RPCResponse, out interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected RPC error: %+v", resp.Error)
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("re-marshal result: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

const (
	creatorHex = "0x0000000000000000000000000000000000000001"
	funderHex  = "0x0000000000000000000000000000000000000002"
)

func TestCampaignLifecycleOverRPC(t *testing.T) {
	ts := newTestServer("")
	var funder [20]byte
	funder[19] = 0x02
	if err := ts.ledger.Mint(funder, big.NewInt(1_000)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	resp, _ := ts.call(t, "campaign_create", campaignCreateParams{
		Caller:     creatorHex,
		Goal:       "100",
		StartingAt: testStart,
		EndingAt:   testEnd,
	}, nil)
	var created campaignCreateResult
	ts.decodeResult(t, resp, &created)
	if created.ID != 0 {
		t.Fatalf("expected id 0, got %d", created.ID)
	}

	ts.now = testStart + 10
	resp, _ = ts.call(t, "campaign_fund", campaignFundParams{Caller: funderHex, ID: 0, Amount: "100"}, nil)
	if resp.Error != nil {
		t.Fatalf("fund rejected: %+v", resp.Error)
	}

	resp, _ = ts.call(t, "campaign_get", campaignGetParams{ID: 0}, nil)
	var record campaignResult
	ts.decodeResult(t, resp, &record)
	if record.FundedAmount != "100" || record.Status != "in_progress" {
		t.Fatalf("unexpected campaign record: %+v", record)
	}

	resp, _ = ts.call(t, "campaign_count", nil, nil)
	var count campaignCountResult
	ts.decodeResult(t, resp, &count)
	if count.Count != 1 {
		t.Fatalf("expected count 1, got %d", count.Count)
	}

	resp, _ = ts.call(t, "campaign_contribution", campaignContributionParams{ID: 0, Contributor: funderHex}, nil)
	var contribution campaignContributionResult
	ts.decodeResult(t, resp, &contribution)
	if contribution.Amount != "100" {
		t.Fatalf("unexpected contribution %q", contribution.Amount)
	}

	ts.now = testEnd + 1
	resp, _ = ts.call(t, "campaign_claim", campaignActionParams{Caller: creatorHex, ID: 0}, nil)
	if resp.Error != nil {
		t.Fatalf("claim rejected: %+v", resp.Error)
	}

	resp, _ = ts.call(t, "token_getBalance", tokenBalanceParams{Address: creatorHex}, nil)
	var balance tokenBalanceResult
	ts.decodeResult(t, resp, &balance)
	if balance.Balance != "100" {
		t.Fatalf("creator balance not credited, got %q", balance.Balance)
	}
}

func TestMutatingMethodsRequireAuth(t *testing.T) {
	ts := newTestServer("secret")

	params := campaignCreateParams{Caller: creatorHex, Goal: "100", StartingAt: testStart, EndingAt: testEnd}
	resp, status := ts.call(t, "campaign_create", params, nil)
	if status != http.StatusUnauthorized || resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized, got status %d error %+v", status, resp.Error)
	}

	headers := map[string]string{"Authorization": "Bearer secret"}
	resp, _ = ts.call(t, "campaign_create", params, headers)
	if resp.Error != nil {
		t.Fatalf("authorized create rejected: %+v", resp.Error)
	}

	// Reads stay open.
	resp, _ = ts.call(t, "campaign_count", nil, nil)
	if resp.Error != nil {
		t.Fatalf("read rejected without auth: %+v", resp.Error)
	}
}

func TestDomainErrorsMapToRPCCodes(t *testing.T) {
	ts := newTestServer("")

	resp, status := ts.call(t, "campaign_get", campaignGetParams{ID: 7}, nil)
	if status != http.StatusNotFound || resp.Error == nil || resp.Error.Code != codeNotFound {
		t.Fatalf("expected not-found mapping, got status %d error %+v", status, resp.Error)
	}

	resp, _ = ts.call(t, "campaign_create", campaignCreateParams{
		Caller: creatorHex, Goal: "0", StartingAt: testStart, EndingAt: testEnd,
	}, nil)
	if resp.Error == nil || resp.Error.Code != codeRejected {
		t.Fatalf("expected rejected mapping for zero goal, got %+v", resp.Error)
	}

	resp, _ = ts.call(t, "campaign_fund", campaignFundParams{Caller: funderHex, ID: 0, Amount: "bogus"}, nil)
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params for bad amount, got %+v", resp.Error)
	}

	resp, _ = ts.call(t, "no_suchMethod", nil, nil)
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp.Error)
	}
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer("")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected method not allowed, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("rejection should still carry the JSON content type, got %q", got)
	}

	body := bytes.NewReader([]byte(`{"jsonrpc":"1.0","method":"campaign_count","params":[],"id":1}`))
	req = httptest.NewRequest(http.MethodPost, "/", body)
	rec = httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	resp := &RPCResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != codeInvalidRequest {
		t.Fatalf("expected invalid request for wrong version, got %+v", resp.Error)
	}
}
