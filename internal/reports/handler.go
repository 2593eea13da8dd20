package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/contalibre/contalibre/internal/platform/httpx"
)

// Handler wires financial statement endpoints. Every statement supports
// format=csv for plain-data export.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/reports", func(r chi.Router) {
		r.Get("/trial-balance", h.trialBalance)
		r.Get("/balance-sheet", h.balanceSheet)
		r.Get("/income-statement", h.incomeStatement)
		r.Get("/cash-flow", h.cashFlow)
	})
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	companyID, periodStart, periodEnd, ok := h.reportParams(w, r)
	if !ok {
		return
	}
	filter := TrialBalanceFilter{}
	if v := r.URL.Query().Get("maxLevel"); v != "" {
		filter.MaxLevel, _ = strconv.Atoi(v)
	}
	filter.OnlyNonZero = r.URL.Query().Get("onlyNonZero") == "true"

	tb, err := h.service.TrialBalance(r.Context(), companyID, periodStart, periodEnd, filter)
	if err != nil {
		h.logger.Error("trial balance", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "trial balance", "")
		return
	}
	if wantsCSV(r) {
		h.writeCSV(w, "trial-balance.csv", TrialBalanceRows(tb))
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	companyID, periodStart, periodEnd, ok := h.reportParams(w, r)
	if !ok {
		return
	}
	bs, err := h.service.BalanceSheet(r.Context(), companyID, periodStart, periodEnd)
	if err != nil {
		h.logger.Error("balance sheet", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "balance sheet", "")
		return
	}
	if wantsCSV(r) {
		h.writeCSV(w, "balance-sheet.csv", BalanceSheetRows(bs))
		return
	}
	httpx.JSON(w, http.StatusOK, bs)
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	companyID, periodStart, periodEnd, ok := h.reportParams(w, r)
	if !ok {
		return
	}
	is, err := h.service.IncomeStatement(r.Context(), companyID, periodStart, periodEnd)
	if err != nil {
		h.logger.Error("income statement", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "income statement", "")
		return
	}
	if wantsCSV(r) {
		h.writeCSV(w, "income-statement.csv", IncomeStatementRows(is))
		return
	}
	httpx.JSON(w, http.StatusOK, is)
}

func (h *Handler) cashFlow(w http.ResponseWriter, r *http.Request) {
	companyID, periodStart, periodEnd, ok := h.reportParams(w, r)
	if !ok {
		return
	}
	cf, err := h.service.CashFlow(r.Context(), companyID, periodStart, periodEnd)
	if err != nil {
		h.logger.Error("cash flow", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "cash flow", "")
		return
	}
	if wantsCSV(r) {
		h.writeCSV(w, "cash-flow.csv", CashFlowRows(cf))
		return
	}
	httpx.JSON(w, http.StatusOK, cf)
}

func (h *Handler) reportParams(w http.ResponseWriter, r *http.Request) (int64, *time.Time, time.Time, bool) {
	companyID, err := strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid company", err.Error())
		return 0, nil, time.Time{}, false
	}
	q := r.URL.Query()
	to := q.Get("to")
	if to == "" {
		httpx.Problem(w, http.StatusBadRequest, "invalid period", "to query parameter required")
		return 0, nil, time.Time{}, false
	}
	periodEnd, err := time.Parse("2006-01-02", to)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid period", err.Error())
		return 0, nil, time.Time{}, false
	}
	var periodStart *time.Time
	if from := q.Get("from"); from != "" {
		start, err := time.Parse("2006-01-02", from)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "invalid period", err.Error())
			return 0, nil, time.Time{}, false
		}
		periodStart = &start
	}
	return companyID, periodStart, periodEnd, true
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename string, records [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := WriteCSV(w, records); err != nil {
		h.logger.Error("write csv", slog.Any("error", err))
	}
}
