package coa

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/contalibre/contalibre/internal/platform/httpx"
)

// Handler wires chart of accounts endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the accounts handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers chart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/companies/{companyID}/accounts", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/suggest", h.suggest)
	})
	r.Delete("/accounts/{accountID}", h.deactivate)
}

type createAccountRequest struct {
	Code           string `json:"code"`
	ParentCode     string `json:"parentCode"`
	Name           string `json:"name" validate:"required"`
	Nature         string `json:"nature" validate:"omitempty,oneof=DEBIT CREDIT"`
	Classification string `json:"classification" validate:"required,oneof=POSTING HEADER"`
}

type accountResponse struct {
	ID             string `json:"id"`
	CompanyID      int64  `json:"companyId"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	Nature         string `json:"nature,omitempty"`
	Classification string `json:"classification"`
	Level          int    `json:"level"`
	Rubro          string `json:"rubro"`
	Active         bool   `json:"active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid company", err.Error())
		return
	}
	accounts, err := h.service.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "list accounts", "")
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, toAccountResponse(acc))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid company", err.Error())
		return
	}
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "validation failed", err.Error())
		return
	}
	acc, err := h.service.Create(r.Context(), CreateAccountInput{
		CompanyID:      companyID,
		Code:           req.Code,
		Name:           req.Name,
		Nature:         Nature(req.Nature),
		Classification: Classification(req.Classification),
	}, req.ParentCode)
	if err != nil {
		switch {
		case errors.Is(err, ErrCodeTaken), errors.Is(err, ErrLeafSegment), errors.Is(err, ErrSegmentExhausted):
			httpx.Problem(w, http.StatusConflict, "cannot create account", err.Error())
		default:
			h.logger.Error("create account", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "create account", "")
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, toAccountResponse(acc))
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid company", err.Error())
		return
	}
	parent := r.URL.Query().Get("parent")
	if parent == "" {
		httpx.Problem(w, http.StatusBadRequest, "invalid parent", "parent query parameter required")
		return
	}
	accounts, err := h.service.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error("suggest child code", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "suggest child code", "")
		return
	}
	codes := make([]string, len(accounts))
	for i, acc := range accounts {
		codes[i] = acc.Code
	}
	code, err := SuggestNextChildCode(parent, codes)
	if err != nil {
		httpx.Problem(w, http.StatusConflict, "cannot suggest code", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"code": code})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid account id", err.Error())
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			httpx.Problem(w, http.StatusNotFound, "account not found", "")
			return
		}
		h.logger.Error("deactivate account", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "deactivate account", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toAccountResponse(acc Account) accountResponse {
	return accountResponse{
		ID:             acc.ID.String(),
		CompanyID:      acc.CompanyID,
		Code:           acc.Code,
		Name:           acc.Name,
		Nature:         string(acc.Nature),
		Classification: string(acc.Classification),
		Level:          acc.Level,
		Rubro:          string(ClassifyRubro(acc.Code)),
		Active:         acc.Active,
	}
}

func companyParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "companyID"), 10, 64)
}
