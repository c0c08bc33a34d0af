package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/auraflow/internal/api/dto"
	"github.com/radieske/auraflow/internal/history"
	"github.com/radieske/auraflow/internal/ledger"
	"github.com/radieske/auraflow/internal/notify"
	"github.com/radieske/auraflow/internal/registry"
	"github.com/radieske/auraflow/internal/session"
	"github.com/radieske/auraflow/internal/shared/apperr"
	"github.com/radieske/auraflow/internal/store"
	"github.com/radieske/auraflow/internal/wager"
)

// API expõe os comandos e consultas do núcleo em JSON.
// Hub é opcional; sem ele /ws não é registrado.
type API struct {
	Log      *zap.Logger
	Ledger   *ledger.Ledger
	Registry *registry.Registry
	Wagers   *wager.Engine
	Sessions *session.Engine
	History  *history.Service
	Hub      *notify.Hub
}

// Router retorna o roteador HTTP com todas as rotas
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/v1/balance", a.getBalance)

	r.Get("/v1/events", a.listEvents) // ?category=Tech
	r.Post("/v1/events", a.createEvent)
	// só eventos custom e sem apostas
	r.Delete("/v1/events/{id}", a.deleteEvent)
	r.Post("/v1/events/{id}/resolve", a.resolveEvent)

	r.Post("/v1/bets", a.placeBet)
	r.Get("/v1/bets", a.listBets) // ?page=1

	r.Get("/v1/sessions", a.listSessions) // ?page=1
	r.Get("/v1/sessions/current", a.currentSession)
	r.Post("/v1/sessions", a.startSession)
	r.Post("/v1/sessions/stop", a.stopSession)

	r.Get("/v1/stats", a.getStats)
	r.Get("/v1/analytics", a.getAnalytics)
	r.Post("/v1/reset", a.reset)

	if a.Hub != nil {
		r.Get("/ws", a.Hub.HandleWS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor mapeia o tipo de erro para o status HTTP
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindInsufficientFunds:
		return http.StatusConflict
	case apperr.KindEventUnavailable:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		a.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, dto.ErrorResponse{Error: apperr.Message(err), Kind: string(kind)})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.InvalidInput("bad json")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("invalid event id")
	}
	return id, nil
}

func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	p, err := strconv.Atoi(raw)
	if err != nil || p < 1 {
		return 0, apperr.InvalidInput("invalid page")
	}
	return p, nil
}

func (a *API) getBalance(w http.ResponseWriter, r *http.Request) {
	b, err := a.Ledger.Balance(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{Balance: b})
}

func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	list, err := a.Registry.ListActive(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []store.BettingEvent{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) createEvent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	ev, err := a.Registry.CreateEvent(r.Context(), registry.NewEvent{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		OddsYes:     req.OddsYes,
		OddsNo:      req.OddsNo,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (a *API) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Registry.DeleteEvent(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) resolveEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req dto.ResolveEventRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	res, err := a.Wagers.ResolveEvent(r.Context(), id, req.WinningSide)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	wg, err := a.Wagers.PlaceBet(r.Context(), req.EventID, req.Side, req.Amount)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wg)
}

func (a *API) listBets(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	p, err := a.History.Wagers(r.Context(), page)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) listSessions(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	p, err := a.History.Sessions(r.Context(), page)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) currentSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.Sessions.State())
}

func (a *API) startSession(w http.ResponseWriter, r *http.Request) {
	var req dto.StartSessionRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	st, err := a.Sessions.Start(r.Context(), req.DurationMinutes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) stopSession(w http.ResponseWriter, r *http.Request) {
	ws, err := a.Sessions.Stop(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.StopSessionResponse{Stopped: ws != nil, Session: ws})
}

func (a *API) getStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.History.Statistics(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) getAnalytics(w http.ResponseWriter, r *http.Request) {
	an, err := a.History.Analytics(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, an)
}

func (a *API) reset(w http.ResponseWriter, r *http.Request) {
	if st := a.Sessions.State(); st.Status == session.StatusRunning {
		a.writeError(w, r, apperr.InvalidInput("stop the running session before resetting"))
		return
	}
	b, err := a.Ledger.Reset(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ResetResponse{Balance: b})
}
