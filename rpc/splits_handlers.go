package rpc

import (
	"net/http"

	"tunemint/native/splits"
)

type splitEntryParam struct {
	Recipient string `json:"recipient"`
	ShareBps  uint32 `json:"shareBps"`
}

type splitsConfigureParams struct {
	Caller  string            `json:"caller"`
	ItemID  uint64            `json:"itemId"`
	Entries []splitEntryParam `json:"entries"`
}

type splitsLockParams struct {
	Caller string `json:"caller"`
	ItemID uint64 `json:"itemId"`
}

type splitsGetParams struct {
	ItemID uint64 `json:"itemId"`
}

type splitEntryResult struct {
	Recipient string `json:"recipient"`
	ShareBps  uint32 `json:"shareBps"`
}

type splitsResult struct {
	ItemID  uint64             `json:"itemId"`
	Entries []splitEntryResult `json:"entries"`
	Locked  bool               `json:"locked"`
}

func formatEntries(entries []splits.ShareEntry) []splitEntryResult {
	out := make([]splitEntryResult, len(entries))
	for i, entry := range entries {
		out[i] = splitEntryResult{Recipient: formatAddress(entry.Recipient), ShareBps: entry.ShareBps}
	}
	return out
}

func (s *Server) handleSplitsConfigure(w http.ResponseWriter, req *RPCRequest) {
	var params splitsConfigureParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	entries := make([]splits.ShareEntry, len(params.Entries))
	for i, entry := range params.Entries {
		recipient, err := decodeAddress(entry.Recipient)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid split recipient", err.Error())
			return
		}
		entries[i] = splits.ShareEntry{Recipient: recipient, ShareBps: entry.ShareBps}
	}
	cfg, err := s.market.ConfigureSplits(caller, params.ItemID, entries)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, splitsResult{ItemID: cfg.ItemID, Entries: formatEntries(cfg.Entries), Locked: cfg.Locked})
}

func (s *Server) handleSplitsLock(w http.ResponseWriter, req *RPCRequest) {
	var params splitsLockParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.market.LockSplits(caller, params.ItemID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"itemId": params.ItemID, "locked": true})
}

func (s *Server) handleSplitsGet(w http.ResponseWriter, req *RPCRequest) {
	var params splitsGetParams
	if !decodeParams(w, req, &params) {
		return
	}
	entries, err := s.market.GetSplits(params.ItemID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	locked, err := s.market.SplitsLocked(params.ItemID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, splitsResult{ItemID: params.ItemID, Entries: formatEntries(entries), Locked: locked})
}
