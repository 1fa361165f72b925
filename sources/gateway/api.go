package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"coinsage/sources/artificial"
	"coinsage/sources/external"
	"coinsage/sources/persistence/entities"
	"coinsage/sources/platform"
	"coinsage/sources/repository"
	"coinsage/sources/tracing"

	"github.com/google/uuid"
)

type APIServer struct {
	log     *tracing.Logger
	config  *GatewayConfig
	advisor *artificial.Advisor
	users   *repository.UsersRepository
	server  *http.Server
}

func NewAPIServer(log *tracing.Logger, config *GatewayConfig, advisor *artificial.Advisor, users *repository.UsersRepository) *APIServer {
	x := &APIServer{log: log, config: config, advisor: advisor, users: users}

	x.server = &http.Server{
		Addr: fmt.Sprintf(":%d", config.APIPort),
		Handler: platform.Curry(http.NewServeMux, func(m *http.ServeMux) {
			m.HandleFunc("GET /api/ai/{userId}/daily-insight", x.dailyInsight)
			m.HandleFunc("GET /api/ai/{userId}/relevant-coins", x.relevantCoins)
			m.HandleFunc("GET /api/ai/{userId}/news-filter", x.newsFilter)
			m.HandleFunc("POST /api/ai/{userId}/sort-coins", x.sortCoins)
			m.HandleFunc("POST /api/ai/{userId}/sort-news", x.sortNews)
		}),
	}

	return x
}

func (x *APIServer) dailyInsight(w http.ResponseWriter, r *http.Request) {
	userID, ok := x.userID(w, r)
	if !ok {
		return
	}

	force := r.URL.Query().Get("force") == "true"

	insight, err := x.advisor.GetDailyInsight(r.Context(), x.log, userID, force)
	if err != nil {
		x.fail(w, err)
		return
	}

	x.reply(w, map[string]string{"insight": insight})
}

func (x *APIServer) relevantCoins(w http.ResponseWriter, r *http.Request) {
	userID, ok := x.userID(w, r)
	if !ok {
		return
	}

	coins, err := x.advisor.GetRelevantCoins(r.Context(), x.log, userID)
	if err != nil {
		x.fail(w, err)
		return
	}

	x.reply(w, map[string][]string{"coins": coins})
}

func (x *APIServer) newsFilter(w http.ResponseWriter, r *http.Request) {
	userID, ok := x.userID(w, r)
	if !ok {
		return
	}

	params, err := x.advisor.GetRelevantNewsFilter(r.Context(), x.log, userID)
	if err != nil {
		x.fail(w, err)
		return
	}

	x.reply(w, params)
}

func (x *APIServer) sortCoins(w http.ResponseWriter, r *http.Request) {
	userID, ok := x.userID(w, r)
	if !ok {
		return
	}

	var body struct {
		Coins []external.CoinMarketEntry `json:"coins"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	sorted := x.advisor.SortCoins(r.Context(), x.log, x.profile(userID), body.Coins)
	x.reply(w, map[string][]external.CoinMarketEntry{"coins": sorted})
}

func (x *APIServer) sortNews(w http.ResponseWriter, r *http.Request) {
	userID, ok := x.userID(w, r)
	if !ok {
		return
	}

	var body struct {
		News []external.NewsItem `json:"news"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	sorted := x.advisor.SortNews(r.Context(), x.log, x.profile(userID), body.News)
	x.reply(w, map[string][]external.NewsItem{"news": sorted})
}

func (x *APIServer) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		http.Error(w, `{"error":"invalid user id"}`, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return userID, true
}

// profile loads the user for ranking; an unknown or unreadable profile
// degrades to anonymous ranking rather than failing the request.
func (x *APIServer) profile(userID uuid.UUID) *entities.User {
	user, err := x.users.GetByID(x.log, userID)
	if err != nil {
		return nil
	}
	return user
}

func (x *APIServer) reply(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		x.log.E("Failed to encode api response", tracing.InnerError, err)
	}
}

func (x *APIServer) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrUserNotFound) {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	x.log.E("API request failed", tracing.InnerError, err)
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}
