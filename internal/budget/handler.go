package budget

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contalibre/contalibre/internal/coa"
	"github.com/contalibre/contalibre/internal/platform/httpx"
)

// Handler wires budget endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the budget handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers budget routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/budget", func(r chi.Router) {
		r.Get("/lines", h.list)
		r.Post("/lines", h.create)
		r.Put("/lines/order", h.reorder)
		r.Get("/execution", h.execution)
		r.Get("/projection", h.projection)
	})
	r.Patch("/budget/lines/{lineID}/active", h.setActive)
}

type createLineRequest struct {
	AccountID      string `json:"accountId" validate:"required,uuid4"`
	CounterpartyID *int64 `json:"counterpartyId"`
	CostCenterID   *int64 `json:"costCenterId"`
	Concept        string `json:"concept" validate:"required"`
	Quantity       string `json:"quantity" validate:"required"`
	UnitPrice      string `json:"unitPrice" validate:"required"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Frequency      string `json:"frequency" validate:"required"`
	Position       int    `json:"position"`
}

type lineResponse struct {
	ID        string `json:"id"`
	CompanyID int64  `json:"companyId"`
	AccountID string `json:"accountId"`
	Concept   string `json:"concept"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Budgeted  string `json:"budgeted"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	Frequency string `json:"frequency"`
	Active    bool   `json:"active"`
	Position  int    `json:"position"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

type reorderRequest struct {
	Positions map[string]int `json:"positions" validate:"required,min=1"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid company", err.Error())
		return
	}
	lines, err := h.service.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list budget lines", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "list budget lines", "")
		return
	}
	out := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, toLineResponse(l))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid company", err.Error())
		return
	}
	var req createLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "validation failed", err.Error())
		return
	}
	input, err := toCreateInput(companyID, req)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	line, err := h.service.Create(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidFrequency), errors.Is(err, ErrInvalidWindow):
			httpx.Problem(w, http.StatusUnprocessableEntity, "cannot create line", err.Error())
		case errors.Is(err, coa.ErrAccountNotFound):
			httpx.Problem(w, http.StatusUnprocessableEntity, "unknown account", err.Error())
		default:
			h.logger.Error("create budget line", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "create budget line", "")
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, toLineResponse(line))
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid line id", err.Error())
		return
	}
	var req setActiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.service.SetActive(r.Context(), id, req.Active); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			httpx.Problem(w, http.StatusNotFound, "line not found", "")
			return
		}
		h.logger.Error("set line active", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "set line active", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "validation failed", err.Error())
		return
	}
	positions := make(map[uuid.UUID]int, len(req.Positions))
	for raw, position := range req.Positions {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "invalid line id", err.Error())
			return
		}
		positions[id] = position
	}
	if err := h.service.Reorder(r.Context(), positions); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			httpx.Problem(w, http.StatusNotFound, "line not found", "")
			return
		}
		h.logger.Error("reorder budget lines", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "reorder budget lines", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) execution(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid company", err.Error())
		return
	}
	executions, err := h.service.Execution(r.Context(), companyID)
	if err != nil {
		h.logger.Error("budget execution", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "budget execution", "")
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		h.writeCSV(w, "budget-execution.csv", ExecutionRows(executions))
		return
	}
	httpx.JSON(w, http.StatusOK, executions)
}

func (h *Handler) projection(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid company", err.Error())
		return
	}
	years, err := parseYears(r.URL.Query().Get("years"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid years", err.Error())
		return
	}
	projection, err := h.service.Projection(r.Context(), companyID, years)
	if err != nil {
		h.logger.Error("budget projection", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "budget projection", "")
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		h.writeCSV(w, "budget-projection.csv", ProjectionRows(projection))
		return
	}
	httpx.JSON(w, http.StatusOK, projection)
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename string, records [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := WriteCSV(w, records); err != nil {
		h.logger.Error("write csv", slog.Any("error", err))
	}
}

func toCreateInput(companyID int64, req createLineRequest) (CreateLineInput, error) {
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return CreateLineInput{}, err
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return CreateLineInput{}, err
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return CreateLineInput{}, err
	}
	input := CreateLineInput{
		CompanyID:      companyID,
		AccountID:      accountID,
		CounterpartyID: req.CounterpartyID,
		CostCenterID:   req.CostCenterID,
		Concept:        req.Concept,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		Frequency:      Frequency(strings.ToUpper(req.Frequency)),
		Position:       req.Position,
	}
	if req.Start != "" {
		start, err := time.Parse("2006-01-02", req.Start)
		if err != nil {
			return CreateLineInput{}, err
		}
		input.Start = &start
	}
	if req.End != "" {
		end, err := time.Parse("2006-01-02", req.End)
		if err != nil {
			return CreateLineInput{}, err
		}
		input.End = &end
	}
	return input, nil
}

func toLineResponse(l Line) lineResponse {
	resp := lineResponse{
		ID:        l.ID.String(),
		CompanyID: l.CompanyID,
		AccountID: l.AccountID.String(),
		Concept:   l.Concept,
		Quantity:  l.Quantity.String(),
		UnitPrice: l.UnitPrice.StringFixed(2),
		Budgeted:  l.Budgeted().StringFixed(2),
		Frequency: string(l.Frequency),
		Active:    l.Active,
		Position:  l.Position,
	}
	if l.Start != nil {
		resp.Start = l.Start.Format("2006-01-02")
	}
	if l.End != nil {
		resp.End = l.End.Format("2006-01-02")
	}
	return resp
}

func parseYears(raw string) ([]int, error) {
	if raw == "" {
		return nil, errors.New("years query parameter required")
	}
	parts := strings.Split(raw, ",")
	years := make([]int, 0, len(parts))
	for _, part := range parts {
		year, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, nil
}

func companyParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
}
