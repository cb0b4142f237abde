package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "bdexports/internal/errors"
	mw "bdexports/internal/middleware"
	"bdexports/internal/series"
	"bdexports/internal/store"
)

const (
	defaultTopBuyers = 10
	maxMonthlyLimit  = 10000
)

// MonthlyQuery are the filters of GET /monthly.
type MonthlyQuery struct {
	HSCode  string `json:"hs_code" validate:"omitempty,hscode"`
	Country string `json:"country" validate:"omitempty,max=100"`
	From    string `json:"from" validate:"omitempty,yearmonth"`
	To      string `json:"to" validate:"omitempty,yearmonth"`
	Limit   int    `json:"limit" validate:"gte=0,lte=10000"`
}

// TopBuyersQuery are the parameters of GET /hs/{code}/top-buyers.
type TopBuyersQuery struct {
	HSCode string `json:"code" validate:"required,hscode"`
	Top    int    `json:"top" validate:"gte=1,lte=50"`
	From   string `json:"from" validate:"omitempty,yearmonth"`
	To     string `json:"to" validate:"omitempty,yearmonth"`
}

// HSByYearQuery are the parameters of GET /hs-by-year.
type HSByYearQuery struct {
	Country string `json:"country" validate:"omitempty,max=100"`
}

// DataHandler serves the dataset endpoints.
type DataHandler struct {
	store        DataStore
	validator    *mw.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a data handler. A nil store answers every request
// with 503.
func NewDataHandler(s DataStore, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		store:        s,
		validator:    mw.NewValidator(),
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(h.requireStore)

	r.Get("/monthly", h.GetMonthly)
	r.Get("/countries", h.GetCountries)
	r.Get("/hs-codes", h.GetHSCodes)
	r.Get("/hs/{code}/top-buyers", h.GetTopBuyers)
	r.Get("/hs-by-year", h.GetHSByYear)
	return r
}

func (h *DataHandler) requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.store == nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrStoreDisabled)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetMonthly handles GET /monthly.
func (h *DataHandler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	q := MonthlyQuery{
		HSCode:  r.URL.Query().Get("hs_code"),
		Country: r.URL.Query().Get("country"),
		From:    r.URL.Query().Get("from"),
		To:      r.URL.Query().Get("to"),
	}
	var ok bool
	if q.Limit, ok = h.intParam(w, r, "limit", 0); !ok {
		return
	}
	if err := h.validator.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filter := store.MonthlyFilter{HSCode: q.HSCode, Country: q.Country, Limit: q.Limit}
	filter.From, filter.To = monthBounds(q.From, q.To)

	records, err := h.store.QueryMonthly(r.Context(), filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logger.DebugContext(r.Context(), "monthly query",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("rows", len(records)))
	success(w, r, records, len(records))
}

// GetCountries handles GET /countries.
func (h *DataHandler) GetCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.store.ListCountries(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	success(w, r, countries, len(countries))
}

// GetHSCodes handles GET /hs-codes.
func (h *DataHandler) GetHSCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.store.ListHSCodes(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	success(w, r, codes, len(codes))
}

// GetTopBuyers handles GET /hs/{code}/top-buyers: the biggest importing
// countries of one HS code, each with its monthly series.
func (h *DataHandler) GetTopBuyers(w http.ResponseWriter, r *http.Request) {
	q := TopBuyersQuery{
		HSCode: chi.URLParam(r, "code"),
		From:   r.URL.Query().Get("from"),
		To:     r.URL.Query().Get("to"),
	}
	var ok bool
	if q.Top, ok = h.intParam(w, r, "top", defaultTopBuyers); !ok {
		return
	}
	if err := h.validator.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	from, to := monthBounds(q.From, q.To)
	records, err := h.store.QueryMonthly(r.Context(), store.MonthlyFilter{HSCode: q.HSCode, From: from, To: to})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if len(records) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("HS code "+q.HSCode))
		return
	}

	buyers := series.TopBuyers(records, q.HSCode, q.Top, from, to)
	success(w, r, buyers, len(buyers))
}

// GetHSByYear handles GET /hs-by-year.
func (h *DataHandler) GetHSByYear(w http.ResponseWriter, r *http.Request) {
	q := HSByYearQuery{Country: r.URL.Query().Get("country")}
	if err := h.validator.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records, err := h.store.QueryMonthly(r.Context(), store.MonthlyFilter{Country: q.Country})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	totals := series.HSByYear(records, q.Country)
	success(w, r, totals, len(totals))
}

func (h *DataHandler) intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(name, name+" must be an integer"))
		return 0, false
	}
	return n, true
}

// monthBounds converts validated YYYY-MM strings; empty strings stay zero.
func monthBounds(from, to string) (time.Time, time.Time) {
	var f, t time.Time
	if from != "" {
		f, _ = time.Parse(mw.YearMonthLayout, from)
	}
	if to != "" {
		t, _ = time.Parse(mw.YearMonthLayout, to)
	}
	return f, t
}

func success(w http.ResponseWriter, r *http.Request, data interface{}, count int) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
		"count":  count,
	})
}
