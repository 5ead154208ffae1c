package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"fundchain/native/campaign"
	"fundchain/native/token"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeNotFound       = -32010
	codeRejected       = -32020
)

// Server exposes the campaign ledger over JSON-RPC. All ledger operations run
// under a single mutex: the engine requires exclusive access to its state for
// the duration of each call.
type Server struct {
	mu        sync.Mutex
	engine    *campaign.Engine
	token     *token.Ledger
	authToken string
}

// NewServer constructs a JSON-RPC server around the supplied engine and token
// ledger. An empty authToken disables authentication for mutating methods.
func NewServer(engine *campaign.Engine, ledger *token.Ledger, authToken string) *Server {
	return &Server{engine: engine, token: ledger, authToken: strings.TrimSpace(authToken)}
}

// Start serves JSON-RPC on the supplied address until the listener fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return http.ListenAndServe(addr, mux)
}

// Handler returns the request handler for mounting on an external server.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	supplied := strings.TrimSpace(header[len(prefix):])
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() { _ = reader.Close() }()

	req := &RPCRequest{}
	if err := json.NewDecoder(reader).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", nil)
		return
	}
	switch req.Method {
	case "campaign_create":
		s.handleCampaignCreate(w, r, req)
	case "campaign_fund":
		s.handleCampaignFund(w, r, req)
	case "campaign_refund":
		s.handleCampaignRefund(w, r, req)
	case "campaign_exit":
		s.handleCampaignExit(w, r, req)
	case "campaign_claim":
		s.handleCampaignClaim(w, r, req)
	case "campaign_get":
		s.handleCampaignGet(w, r, req)
	case "campaign_count":
		s.handleCampaignCount(w, r, req)
	case "campaign_contribution":
		s.handleCampaignContribution(w, r, req)
	case "campaign_vault":
		s.handleCampaignVault(w, r, req)
	case "campaign_minimumDuration":
		s.handleCampaignMinimumDuration(w, r, req)
	case "token_getBalance":
		s.handleTokenGetBalance(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method", req.Method)
	}
}
