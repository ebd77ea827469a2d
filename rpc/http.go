package rpc

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"strings"

	"tunemint/core"
	"tunemint/native/catalog"
	"tunemint/native/common"
	"tunemint/native/fees"
	"tunemint/native/settlement"
	"tunemint/native/splits"
	"tunemint/storage"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	authTokenEnv    = "TUNEMINT_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32004
	codePaused         = -32005
	codeReentrant      = -32006
	codeInsufficient   = -32007
)

// Server exposes the market over JSON-RPC 2.0. Mutating methods require the
// bearer token from TUNEMINT_RPC_TOKEN when one is configured.
type Server struct {
	market    *core.Market
	journal   *storage.Journal
	authToken string
}

// NewServer wires a JSON-RPC server around the market. The journal is
// optional; without it the events query answers with an error.
func NewServer(market *core.Market, journal *storage.Journal) *Server {
	return &Server{
		market:    market,
		journal:   journal,
		authToken: strings.TrimSpace(os.Getenv(authTokenEnv)),
	}
}

// Handler returns the http.Handler serving the RPC endpoint.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
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
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	var req RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "malformed request body", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", nil)
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
		return
	}
	if handler.mutating && !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "missing or invalid bearer token", nil)
		return
	}
	handler.fn(w, &req)
}

type methodHandler struct {
	fn       func(http.ResponseWriter, *RPCRequest)
	mutating bool
}

func (s *Server) methods() map[string]methodHandler {
	return map[string]methodHandler{
		"catalog_create":          {s.handleCatalogCreate, true},
		"catalog_update":          {s.handleCatalogUpdate, true},
		"catalog_transferCreator": {s.handleCatalogTransferCreator, true},
		"catalog_get":             {s.handleCatalogGet, false},
		"catalog_creatorItems":    {s.handleCatalogCreatorItems, false},
		"splits_configure":        {s.handleSplitsConfigure, true},
		"splits_lock":             {s.handleSplitsLock, true},
		"splits_get":              {s.handleSplitsGet, false},
		"settlement_mint":         {s.handleSettlementMint, true},
		"settlement_mintBatch":    {s.handleSettlementMintBatch, true},
		"settlement_quote":        {s.handleSettlementQuote, false},
		"fees_policy":             {s.handleFeesPolicy, false},
		"fees_setFee":             {s.handleFeesSetFee, true},
		"fees_setRecipient":       {s.handleFeesSetRecipient, true},
		"fees_pause":              {s.handleFeesPause, true},
		"fees_unpause":            {s.handleFeesUnpause, true},
		"market_transferOwner":    {s.handleMarketTransferOwner, true},
		"market_fund":             {s.handleMarketFund, true},
		"market_balance":          {s.handleMarketBalance, false},
		"market_itemBalance":      {s.handleMarketItemBalance, false},
		"market_events":           {s.handleMarketEvents, false},
	}
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	presented := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return subtle.ConstantTimeCompare([]byte(presented), []byte(s.authToken)) == 1
}

// decodeParams unmarshals the single parameter object every method expects.
func decodeParams(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return false
	}
	return true
}

func decodeAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		trimmed = trimmed[2:]
	}
	if len(trimmed) != 40 {
		return addr, fmt.Errorf("address must be 20 bytes (got %d hex chars)", len(trimmed))
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("decode address: %w", err)
	}
	copy(addr[:], decoded)
	return addr, nil
}

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// writeEngineError maps a native-module failure onto an RPC error envelope.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	status := http.StatusBadRequest
	code := codeInvalidParams
	switch {
	case errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, splits.ErrItemNotFound),
		errors.Is(err, settlement.ErrItemNotFound):
		status, code = http.StatusNotFound, codeNotFound
	case errors.Is(err, catalog.ErrNotAuthorized),
		errors.Is(err, splits.ErrNotAuthorized),
		errors.Is(err, fees.ErrNotAuthorized),
		errors.Is(err, core.ErrNotAuthorized):
		status, code = http.StatusForbidden, codeUnauthorized
	case errors.Is(err, common.ErrPaused):
		status, code = http.StatusServiceUnavailable, codePaused
	case errors.Is(err, settlement.ErrReentrant):
		status, code = http.StatusConflict, codeReentrant
	case errors.Is(err, settlement.ErrInsufficientPayment):
		status, code = http.StatusPaymentRequired, codeInsufficient
	case errors.Is(err, catalog.ErrInvalidInput),
		errors.Is(err, catalog.ErrZeroAddress),
		errors.Is(err, splits.ErrLocked),
		errors.Is(err, splits.ErrAlreadyLocked),
		errors.Is(err, splits.ErrTooManyRecipients),
		errors.Is(err, splits.ErrShareBelowMinimum),
		errors.Is(err, splits.ErrDuplicateRecipient),
		errors.Is(err, splits.ErrZeroAddress),
		errors.Is(err, splits.ErrInvalidTotal),
		errors.Is(err, settlement.ErrInvalidQuantity),
		errors.Is(err, settlement.ErrSupplyExceeded),
		errors.Is(err, settlement.ErrBatchTooLarge),
		errors.Is(err, settlement.ErrArityMismatch),
		errors.Is(err, settlement.ErrOverflow),
		errors.Is(err, settlement.ErrZeroAddress),
		errors.Is(err, fees.ErrFeeExceedsCeiling),
		errors.Is(err, fees.ErrInvalidAmount),
		errors.Is(err, fees.ErrZeroAddress),
		errors.Is(err, fees.ErrNotPaused),
		errors.Is(err, fees.ErrAlreadyPaused),
		errors.Is(err, core.ErrZeroAddress),
		errors.Is(err, core.ErrInvalidAmount):
		// defaults hold
	default:
		status, code = http.StatusInternalServerError, codeServerError
	}
	writeError(w, status, id, code, err.Error(), nil)
}
