package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/ledger-core/internal/auth"
	"github.com/josh-kwaku/ledger-core/internal/ledger"
	"github.com/josh-kwaku/ledger-core/internal/logging"
	"github.com/josh-kwaku/ledger-core/internal/money"
)

const maxPageLimit = 100

type TxHandler struct {
	engine      ledgerEngine
	recentLimit int
}

func NewTxHandler(engine ledgerEngine, recentLimit int) *TxHandler {
	return &TxHandler{engine: engine, recentLimit: recentLimit}
}

type entryRequest struct {
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	ReferenceID   string          `json:"reference_id"`
}

func (r entryRequest) Validate() []FieldError {
	var errs []FieldError
	if r.AccountNumber == "" {
		errs = append(errs, FieldError{Field: "account_number", Message: "required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type transferRequest struct {
	FromAccountNumber string          `json:"from_account_number"`
	ToAccountNumber   string          `json:"to_account_number"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	ReferenceID       string          `json:"reference_id"`
}

func (r transferRequest) Validate() []FieldError {
	var errs []FieldError
	if r.FromAccountNumber == "" {
		errs = append(errs, FieldError{Field: "from_account_number", Message: "required"})
	}
	if r.ToAccountNumber == "" {
		errs = append(errs, FieldError{Field: "to_account_number", Message: "required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

func decodeEntryRequest(w http.ResponseWriter, r *http.Request) (*entryRequest, bool) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return nil, false
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return nil, false
	}
	req.ReferenceID = idempotencyKey(r, req.ReferenceID)
	return &req, true
}

func (h *TxHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	req, ok := decodeEntryRequest(w, r)
	if !ok {
		return
	}

	acct := authorizeAccount(w, r, h.engine, req.AccountNumber, auth.ActionDeposit)
	if acct == nil {
		return
	}

	amount, err := money.ToMinor(req.Amount, acct.Currency)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	res, err := h.engine.Deposit(r.Context(), ledger.DepositRequest{
		AccountNumber: req.AccountNumber,
		Amount:        amount,
		Description:   req.Description,
		ReferenceID:   req.ReferenceID,
	})
	if err != nil {
		log.Warn("deposit failed", "account_number", req.AccountNumber, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toEntryResultDTO(res))
}

func (h *TxHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	req, ok := decodeEntryRequest(w, r)
	if !ok {
		return
	}

	acct := authorizeAccount(w, r, h.engine, req.AccountNumber, auth.ActionWithdraw)
	if acct == nil {
		return
	}

	amount, err := money.ToMinor(req.Amount, acct.Currency)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	res, err := h.engine.Withdraw(r.Context(), ledger.WithdrawRequest{
		AccountNumber: req.AccountNumber,
		Amount:        amount,
		Description:   req.Description,
		ReferenceID:   req.ReferenceID,
	})
	if err != nil {
		log.Warn("withdrawal failed", "account_number", req.AccountNumber, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toEntryResultDTO(res))
}

func (h *TxHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	acct := authorizeAccount(w, r, h.engine, req.FromAccountNumber, auth.ActionTransfer)
	if acct == nil {
		return
	}

	amount, err := money.ToMinor(req.Amount, acct.Currency)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	res, err := h.engine.Transfer(r.Context(), ledger.TransferRequest{
		FromAccountNumber: req.FromAccountNumber,
		ToAccountNumber:   req.ToAccountNumber,
		Amount:            amount,
		Description:       req.Description,
		ReferenceID:       idempotencyKey(r, req.ReferenceID),
	})
	if err != nil {
		log.Warn("transfer failed",
			"from_account", req.FromAccountNumber,
			"to_account", req.ToAccountNumber,
			"error", err,
		)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toTransferDTO(res))
}

// Recent lists the caller's newest entries across all their accounts.
func (h *TxHandler) Recent(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit := h.recentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageLimit {
			RespondValidationError(w, []FieldError{{Field: "limit", Message: "must be between 1 and 100"}})
			return
		}
		limit = n
	}

	entries, err := h.engine.RecentEntries(r.Context(), p.UserID, limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("recent entries lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e.LedgerEntry, e.AccountNumber, e.Currency))
	}
	RespondSuccess(w, http.StatusOK, out)
}

// ByReference shows what a reference committed, limited to entries on
// accounts the caller may view. An empty list means nothing under that
// reference is visible, so a customer told OPERATION_FAILED can tell whether
// to resubmit.
func (h *TxHandler) ByReference(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	ref := r.PathValue("reference")
	entries, err := h.engine.EntriesByReference(r.Context(), ref)
	if err != nil {
		logging.FromContext(r.Context()).Warn("reference lookup failed", "reference_id", ref, "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		if auth.Authorize(p, auth.ActionViewAccount, e.OwnerID) != nil {
			continue
		}
		out = append(out, toEntryDTO(e.LedgerEntry, e.AccountNumber, e.Currency))
	}
	RespondSuccess(w, http.StatusOK, out)
}
