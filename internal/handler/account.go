package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/ledger-core/internal/auth"
	"github.com/josh-kwaku/ledger-core/internal/ledger"
	"github.com/josh-kwaku/ledger-core/internal/logging"
	"github.com/josh-kwaku/ledger-core/internal/money"
)

type AccountHandler struct {
	engine ledgerEngine
}

func NewAccountHandler(engine ledgerEngine) *AccountHandler {
	return &AccountHandler{engine: engine}
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	accounts, err := h.engine.ListAccounts(r.Context(), p.UserID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list accounts", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, 0, len(accounts))
	for i := range accounts {
		dtos = append(dtos, toAccountDTO(&accounts[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	acct := authorizeAccount(w, r, h.engine, r.PathValue("number"), auth.ActionViewAccount)
	if acct == nil {
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTO(acct))
}

// History pages through one account's entries, newest first.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, offset, fields := pageParams(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	acct := authorizeAccount(w, r, h.engine, r.PathValue("number"), auth.ActionViewAccount)
	if acct == nil {
		return
	}

	page, err := h.engine.AccountHistory(r.Context(), acct.AccountNumber, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("account history lookup failed", "account_number", acct.AccountNumber, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toHistoryDTO(page))
}

func pageParams(r *http.Request) (limit, offset int, errs []FieldError) {
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageLimit {
			errs = append(errs, FieldError{Field: "limit", Message: "must be between 1 and 100"})
		}
		limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: "offset", Message: "must be 0 or greater"})
		}
		offset = n
	}
	return limit, offset, errs
}

type createGoalRequest struct {
	AccountNumber string          `json:"account_number"`
	Title         string          `json:"title"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
}

func (r createGoalRequest) Validate() []FieldError {
	var errs []FieldError
	if r.AccountNumber == "" {
		errs = append(errs, FieldError{Field: "account_number", Message: "required"})
	}
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "required"})
	}
	if !r.TargetAmount.IsPositive() {
		errs = append(errs, FieldError{Field: "target_amount", Message: "must be greater than 0"})
	}
	return errs
}

type contributeRequest struct {
	AccountNumber string          `json:"account_number"`
	GoalID        uuid.UUID       `json:"goal_id"`
	Amount        decimal.Decimal `json:"amount"`
}

func (r contributeRequest) Validate() []FieldError {
	var errs []FieldError
	if r.AccountNumber == "" {
		errs = append(errs, FieldError{Field: "account_number", Message: "required"})
	}
	if r.GoalID == uuid.Nil {
		errs = append(errs, FieldError{Field: "goal_id", Message: "required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type createGoalResponse struct {
	Goal  goalDTO   `json:"goal"`
	Goals []goalDTO `json:"goals"`
}

func (h *AccountHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req createGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	acct := authorizeAccount(w, r, h.engine, req.AccountNumber, auth.ActionCreateGoal)
	if acct == nil {
		return
	}

	target, err := money.ToMinor(req.TargetAmount, acct.Currency)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	goal, err := h.engine.CreateGoal(r.Context(), ledger.CreateGoalRequest{
		AccountNumber: req.AccountNumber,
		Title:         req.Title,
		TargetAmount:  target,
	})
	if err != nil {
		log.Warn("goal creation failed", "account_number", req.AccountNumber, "error", err)
		RespondDomainError(w, err)
		return
	}

	goals, err := h.engine.ListGoals(r.Context(), req.AccountNumber)
	if err != nil {
		log.Error("failed to list goals after creation", "account_number", req.AccountNumber, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, createGoalResponse{
		Goal:  toGoalDTO(*goal, acct.Currency),
		Goals: toGoalDTOs(goals, acct.Currency),
	})
}

type contributionDTO struct {
	Goal    goalDTO    `json:"goal"`
	Entry   entryDTO   `json:"entry"`
	Account balanceDTO `json:"account"`
}

func (h *AccountHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req contributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	acct := authorizeAccount(w, r, h.engine, req.AccountNumber, auth.ActionContribute)
	if acct == nil {
		return
	}

	amount, err := money.ToMinor(req.Amount, acct.Currency)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	res, err := h.engine.ContributeToGoal(r.Context(), ledger.ContributionRequest{
		AccountNumber: req.AccountNumber,
		GoalID:        req.GoalID,
		Amount:        amount,
	})
	if err != nil {
		log.Warn("goal contribution failed", "account_number", req.AccountNumber, "goal_id", req.GoalID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, contributionDTO{
		Goal:    toGoalDTO(res.Goal, res.Currency),
		Entry:   toEntryDTO(res.Entry, res.AccountNumber, res.Currency),
		Account: toBalanceDTO(res.AccountNumber, res.Balance, res.Currency),
	})
}

func (h *AccountHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	acct := authorizeAccount(w, r, h.engine, r.PathValue("number"), auth.ActionViewAccount)
	if acct == nil {
		return
	}
	RespondSuccess(w, http.StatusOK, toGoalDTOs(acct.SavingsGoals, acct.Currency))
}
