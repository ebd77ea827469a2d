package rpc

import (
	"net/http"
	"time"

	"tunemint/native/settlement"
	"tunemint/observability"
)

type mintParams struct {
	Buyer     string `json:"buyer"`
	ItemID    uint64 `json:"itemId"`
	Quantity  uint64 `json:"quantity"`
	Recipient string `json:"recipient"`
}

type mintBatchParams struct {
	Buyer      string   `json:"buyer"`
	ItemIDs    []uint64 `json:"itemIds"`
	Quantities []uint64 `json:"quantities"`
	Recipient  string   `json:"recipient"`
}

type quoteParams struct {
	ItemID   uint64 `json:"itemId"`
	Quantity uint64 `json:"quantity"`
}

type payoutResult struct {
	Payee  string `json:"payee"`
	Amount string `json:"amount"`
	IsFee  bool   `json:"isFee"`
}

type receiptResult struct {
	ItemID    uint64         `json:"itemId"`
	Buyer     string         `json:"buyer"`
	Recipient string         `json:"recipient"`
	Quantity  uint64         `json:"quantity"`
	TotalPaid string         `json:"totalPaid"`
	Payouts   []payoutResult `json:"payouts"`
	MintedAt  int64          `json:"mintedAt"`
}

func formatReceipt(receipt *settlement.Receipt) receiptResult {
	payouts := make([]payoutResult, len(receipt.Payouts))
	for i, payout := range receipt.Payouts {
		payouts[i] = payoutResult{
			Payee:  formatAddress(payout.Payee),
			Amount: bigString(payout.Amount),
			IsFee:  payout.IsFee,
		}
	}
	return receiptResult{
		ItemID:    receipt.ItemID,
		Buyer:     formatAddress(receipt.Buyer),
		Recipient: formatAddress(receipt.Recipient),
		Quantity:  receipt.Quantity,
		TotalPaid: bigString(receipt.TotalPaid),
		Payouts:   payouts,
		MintedAt:  receipt.MintedAt,
	}
}

func (s *Server) handleSettlementMint(w http.ResponseWriter, req *RPCRequest) {
	var params mintParams
	if !decodeParams(w, req, &params) {
		return
	}
	buyer, err := decodeAddress(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid buyer address", err.Error())
		return
	}
	recipient, err := decodeAddress(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	metrics := observability.Settlement()
	start := time.Now()
	receipt, err := s.market.MintSingle(buyer, params.ItemID, params.Quantity, recipient)
	metrics.RecordMint("mint", err)
	metrics.ObserveDuration(time.Since(start).Seconds())
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.RecordIssued(receipt.Quantity, receipt.TotalPaid)
	writeResult(w, req.ID, formatReceipt(receipt))
}

func (s *Server) handleSettlementMintBatch(w http.ResponseWriter, req *RPCRequest) {
	var params mintBatchParams
	if !decodeParams(w, req, &params) {
		return
	}
	buyer, err := decodeAddress(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid buyer address", err.Error())
		return
	}
	recipient, err := decodeAddress(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	metrics := observability.Settlement()
	start := time.Now()
	receipts, err := s.market.MintBatch(buyer, params.ItemIDs, params.Quantities, recipient)
	metrics.RecordMint("mintBatch", err)
	metrics.ObserveDuration(time.Since(start).Seconds())
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	out := make([]receiptResult, len(receipts))
	for i, receipt := range receipts {
		out[i] = formatReceipt(receipt)
		metrics.RecordIssued(receipt.Quantity, receipt.TotalPaid)
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleSettlementQuote(w http.ResponseWriter, req *RPCRequest) {
	var params quoteParams
	if !decodeParams(w, req, &params) {
		return
	}
	cost, err := s.market.QuoteCost(params.ItemID, params.Quantity)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"itemId":    params.ItemID,
		"quantity":  params.Quantity,
		"totalCost": bigString(cost),
	})
}
