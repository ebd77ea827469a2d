package rpc

import (
	"math/big"
	"net/http"

	"tunemint/native/catalog"
)

type catalogCreateParams struct {
	Creator     string `json:"creator"`
	Title       string `json:"title"`
	UnitPrice   string `json:"unitPrice"`
	MaxSupply   uint64 `json:"maxSupply"`
	MetadataRef string `json:"metadataRef"`
}

type catalogUpdateParams struct {
	Caller      string  `json:"caller"`
	ItemID      uint64  `json:"itemId"`
	Title       *string `json:"title,omitempty"`
	MetadataRef *string `json:"metadataRef,omitempty"`
	UnitPrice   *string `json:"unitPrice,omitempty"`
}

type catalogTransferParams struct {
	Caller     string `json:"caller"`
	ItemID     uint64 `json:"itemId"`
	NewCreator string `json:"newCreator"`
}

type catalogGetParams struct {
	ItemID uint64 `json:"itemId"`
}

type catalogCreatorItemsParams struct {
	Creator string `json:"creator"`
}

type itemResult struct {
	ID            uint64 `json:"id"`
	Title         string `json:"title"`
	Creator       string `json:"creator"`
	UnitPrice     string `json:"unitPrice"`
	MaxSupply     uint64 `json:"maxSupply"`
	CurrentSupply uint64 `json:"currentSupply"`
	MetadataRef   string `json:"metadataRef"`
	CreatedAt     uint64 `json:"createdAt"`
}

func formatItem(item *catalog.Item) itemResult {
	return itemResult{
		ID:            item.ID,
		Title:         item.Title,
		Creator:       formatAddress(item.Creator),
		UnitPrice:     bigString(item.UnitPrice),
		MaxSupply:     item.MaxSupply,
		CurrentSupply: item.CurrentSupply,
		MetadataRef:   item.MetadataRef,
		CreatedAt:     item.CreatedAt,
	}
}

func (s *Server) handleCatalogCreate(w http.ResponseWriter, req *RPCRequest) {
	var params catalogCreateParams
	if !decodeParams(w, req, &params) {
		return
	}
	creator, err := decodeAddress(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	price, err := parseAmount(params.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid unit price", err.Error())
		return
	}
	item, err := s.market.CreateItem(creator, params.Title, price, params.MaxSupply, params.MetadataRef)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatItem(item))
}

func (s *Server) handleCatalogUpdate(w http.ResponseWriter, req *RPCRequest) {
	var params catalogUpdateParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	var price *big.Int
	if params.UnitPrice != nil {
		parsed, err := parseAmount(*params.UnitPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid unit price", err.Error())
			return
		}
		price = parsed
	}
	item, err := s.market.UpdateItem(caller, params.ItemID, params.Title, params.MetadataRef, price)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatItem(item))
}

func (s *Server) handleCatalogTransferCreator(w http.ResponseWriter, req *RPCRequest) {
	var params catalogTransferParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	newCreator, err := decodeAddress(params.NewCreator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid new creator address", err.Error())
		return
	}
	item, err := s.market.TransferCreator(caller, params.ItemID, newCreator)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatItem(item))
}

func (s *Server) handleCatalogGet(w http.ResponseWriter, req *RPCRequest) {
	var params catalogGetParams
	if !decodeParams(w, req, &params) {
		return
	}
	item, err := s.market.GetItem(params.ItemID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, formatItem(item))
}

func (s *Server) handleCatalogCreatorItems(w http.ResponseWriter, req *RPCRequest) {
	var params catalogCreatorItemsParams
	if !decodeParams(w, req, &params) {
		return
	}
	creator, err := decodeAddress(params.Creator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid creator address", err.Error())
		return
	}
	ids, err := s.market.CreatorItems(creator)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeResult(w, req.ID, map[string]interface{}{"creator": formatAddress(creator), "items": ids})
}
