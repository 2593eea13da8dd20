package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/platform/httpx"
	"github.com/contalibre/contalibre/internal/shared"
)

// Handler wires journal entry and balance endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/entries", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
	})
	r.Get("/companies/{companyID}/balances", h.balances)
	r.Route("/entries/{entryID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/movements", h.replaceMovements)
		r.Post("/apply", h.apply)
		r.Post("/cancel", h.cancel)
	})
}

type movementRequest struct {
	AccountID    string `json:"accountId" validate:"required,uuid4"`
	Debit        string `json:"debit"`
	Credit       string `json:"credit"`
	Description  string `json:"description"`
	BudgetLineID string `json:"budgetLineId" validate:"omitempty,uuid4"`
}

type createEntryRequest struct {
	Date           string            `json:"date" validate:"required"`
	Type           string            `json:"type"`
	CounterpartyID *int64            `json:"counterpartyId"`
	CostCenterID   *int64            `json:"costCenterId"`
	Movements      []movementRequest `json:"movements"`
}

type replaceMovementsRequest struct {
	Movements []movementRequest `json:"movements" validate:"required,min=1"`
}

type movementResponse struct {
	ID           string  `json:"id"`
	AccountID    string  `json:"accountId"`
	Debit        string  `json:"debit"`
	Credit       string  `json:"credit"`
	Description  string  `json:"description,omitempty"`
	Position     int     `json:"position"`
	BudgetLineID *string `json:"budgetLineId,omitempty"`
}

type entryResponse struct {
	ID             string             `json:"id"`
	CompanyID      int64              `json:"companyId"`
	Date           string             `json:"date"`
	Type           string             `json:"type,omitempty"`
	CounterpartyID *int64             `json:"counterpartyId,omitempty"`
	CostCenterID   *int64             `json:"costCenterId,omitempty"`
	Number         int64              `json:"number,omitempty"`
	Status         string             `json:"status"`
	TotalDebit     string             `json:"totalDebit"`
	TotalCredit    string             `json:"totalCredit"`
	Movements      []movementResponse `json:"movements,omitempty"`
}

type listEntriesResponse struct {
	Entries    []entryResponse   `json:"entries"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid company", err.Error())
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	entries, pagination, err := h.service.List(r.Context(), companyID, page, perPage)
	if err != nil {
		h.logger.Error("list entries", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "list entries", "")
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, listEntriesResponse{Entries: out, Pagination: pagination})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid company", err.Error())
		return
	}
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "validation failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}
	movements, err := toMovementInputs(req.Movements)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid movements", err.Error())
		return
	}
	entry, err := h.service.CreateEntry(r.Context(), CreateEntryInput{
		CompanyID:      companyID,
		Date:           date,
		Type:           req.Type,
		CounterpartyID: req.CounterpartyID,
		CostCenterID:   req.CostCenterID,
		Movements:      movements,
	})
	if err != nil {
		if errors.Is(err, coa.ErrAccountNotFound) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "unknown account", err.Error())
			return
		}
		h.logger.Error("create entry", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "create entry", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := entryParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid entry id", err.Error())
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			httpx.Problem(w, http.StatusNotFound, "entry not found", "")
			return
		}
		h.logger.Error("get entry", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "get entry", "")
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) replaceMovements(w http.ResponseWriter, r *http.Request) {
	id, err := entryParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid entry id", err.Error())
		return
	}
	var req replaceMovementsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "validation failed", err.Error())
		return
	}
	movements, err := toMovementInputs(req.Movements)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid movements", err.Error())
		return
	}
	entry, err := h.service.ReplaceMovements(r.Context(), id, movements)
	if err != nil {
		h.entryLifecycleProblem(w, "replace movements", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	id, err := entryParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid entry id", err.Error())
		return
	}
	entry, err := h.service.Apply(r.Context(), id)
	if err != nil {
		h.entryLifecycleProblem(w, "apply entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := entryParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid entry id", err.Error())
		return
	}
	entry, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		h.entryLifecycleProblem(w, "cancel entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid company", err.Error())
		return
	}
	q := r.URL.Query()
	to := q.Get("to")
	if to == "" {
		httpx.Problem(w, http.StatusBadRequest, "invalid period", "to query parameter required")
		return
	}
	periodEnd, err := time.Parse("2006-01-02", to)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}
	var periodStart *time.Time
	if from := q.Get("from"); from != "" {
		start, err := time.Parse("2006-01-02", from)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "invalid period", err.Error())
			return
		}
		periodStart = &start
	}
	balances, err := h.service.Balances(r.Context(), companyID, periodStart, periodEnd)
	if err != nil {
		h.logger.Error("compute balances", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "compute balances", "")
		return
	}
	httpx.JSON(w, http.StatusOK, balances)
}

func (h *Handler) entryLifecycleProblem(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrEntryNotFound):
		httpx.Problem(w, http.StatusNotFound, "entry not found", "")
	case errors.Is(err, ErrNotDraft), errors.Is(err, ErrInvalidStatus):
		httpx.Problem(w, http.StatusConflict, op, err.Error())
	case errors.Is(err, ErrUnbalanced), errors.Is(err, ErrTooFewMovements):
		httpx.Problem(w, http.StatusUnprocessableEntity, op, err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, op, "")
	}
}

func toMovementInputs(reqs []movementRequest) ([]MovementInput, error) {
	out := make([]MovementInput, 0, len(reqs))
	for _, req := range reqs {
		accountID, err := uuid.Parse(req.AccountID)
		if err != nil {
			return nil, err
		}
		in := MovementInput{AccountID: accountID, Description: req.Description, Debit: decimal.Zero, Credit: decimal.Zero}
		if req.Debit != "" {
			if in.Debit, err = decimal.NewFromString(req.Debit); err != nil {
				return nil, err
			}
		}
		if req.Credit != "" {
			if in.Credit, err = decimal.NewFromString(req.Credit); err != nil {
				return nil, err
			}
		}
		if req.BudgetLineID != "" {
			lineID, err := uuid.Parse(req.BudgetLineID)
			if err != nil {
				return nil, err
			}
			in.BudgetLineID = &lineID
		}
		out = append(out, in)
	}
	return out, nil
}

func toEntryResponse(e Entry) entryResponse {
	resp := entryResponse{
		ID:             e.ID.String(),
		CompanyID:      e.CompanyID,
		Date:           e.Date.Format("2006-01-02"),
		Type:           e.Type,
		CounterpartyID: e.CounterpartyID,
		CostCenterID:   e.CostCenterID,
		Number:         e.Number,
		Status:         string(e.Status),
		TotalDebit:     e.TotalDebit.StringFixed(2),
		TotalCredit:    e.TotalCredit.StringFixed(2),
	}
	for _, m := range e.Movements {
		mr := movementResponse{
			ID:          m.ID.String(),
			AccountID:   m.AccountID.String(),
			Debit:       m.Debit.StringFixed(2),
			Credit:      m.Credit.StringFixed(2),
			Description: m.Description,
			Position:    m.Position,
		}
		if m.BudgetLineID != nil {
			s := m.BudgetLineID.String()
			mr.BudgetLineID = &s
		}
		resp.Movements = append(resp.Movements, mr)
	}
	return resp
}

func companyParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
}

func entryParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "entryID"))
}
