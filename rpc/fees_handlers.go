package rpc

import (
	"net/http"
)

type feesSetFeeParams struct {
	Caller string `json:"caller"`
	Fee    string `json:"fee"`
}

type feesSetRecipientParams struct {
	Caller    string `json:"caller"`
	Recipient string `json:"recipient"`
}

type feesCallerParams struct {
	Caller string `json:"caller"`
}

type transferOwnerParams struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}

type fundParams struct {
	Caller  string `json:"caller"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type balanceParams struct {
	Account string `json:"account"`
}

type itemBalanceParams struct {
	Account string `json:"account"`
	ItemID  uint64 `json:"itemId"`
}

type eventsParams struct {
	Limit int `json:"limit"`
}

func (s *Server) handleFeesPolicy(w http.ResponseWriter, req *RPCRequest) {
	policy, err := s.market.FeePolicy()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	paused, err := s.market.Paused()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"fee":       bigString(policy.Fee),
		"recipient": formatAddress(policy.Recipient),
		"paused":    paused,
	})
}

func (s *Server) handleFeesSetFee(w http.ResponseWriter, req *RPCRequest) {
	var params feesSetFeeParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	fee, err := parseAmount(params.Fee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid fee amount", err.Error())
		return
	}
	if err := s.market.SetFee(caller, fee); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"fee": fee.String()})
}

func (s *Server) handleFeesSetRecipient(w http.ResponseWriter, req *RPCRequest) {
	var params feesSetRecipientParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	recipient, err := decodeAddress(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	if err := s.market.SetFeeRecipient(caller, recipient); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"recipient": formatAddress(recipient)})
}

func (s *Server) handleFeesPause(w http.ResponseWriter, req *RPCRequest) {
	var params feesCallerParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.market.Pause(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"paused": true})
}

func (s *Server) handleFeesUnpause(w http.ResponseWriter, req *RPCRequest) {
	var params feesCallerParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.market.Unpause(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"paused": false})
}

func (s *Server) handleMarketTransferOwner(w http.ResponseWriter, req *RPCRequest) {
	var params transferOwnerParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	newOwner, err := decodeAddress(params.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid new owner address", err.Error())
		return
	}
	if err := s.market.TransferOwner(caller, newOwner); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"owner": formatAddress(newOwner)})
}

func (s *Server) handleMarketFund(w http.ResponseWriter, req *RPCRequest) {
	var params fundParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	account, err := decodeAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	if err := s.market.FundAccount(caller, account, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	balance, err := s.market.BalanceOf(account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"account": formatAddress(account),
		"balance": bigString(balance),
	})
}

func (s *Server) handleMarketBalance(w http.ResponseWriter, req *RPCRequest) {
	var params balanceParams
	if !decodeParams(w, req, &params) {
		return
	}
	account, err := decodeAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	balance, err := s.market.BalanceOf(account)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"account": formatAddress(account),
		"balance": bigString(balance),
	})
}

func (s *Server) handleMarketItemBalance(w http.ResponseWriter, req *RPCRequest) {
	var params itemBalanceParams
	if !decodeParams(w, req, &params) {
		return
	}
	account, err := decodeAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	balance, err := s.market.ItemBalanceOf(account, params.ItemID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"account": formatAddress(account),
		"itemId":  params.ItemID,
		"balance": balance,
	})
}

func (s *Server) handleMarketEvents(w http.ResponseWriter, req *RPCRequest) {
	var params eventsParams
	if !decodeParams(w, req, &params) {
		return
	}
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, req.ID, codeServerError, "event journal not configured", nil)
		return
	}
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	records, err := s.journal.Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "read journal", err.Error())
		return
	}
	writeResult(w, req.ID, records)
}
