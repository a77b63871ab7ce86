package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/standings", handler.GetStandings)
	mux.HandleFunc("GET /v1/standings/best-finish", handler.GetBestFinishStandings)
	mux.HandleFunc("GET /v1/standings/overview", handler.GetStandingsOverview)
	mux.HandleFunc("POST /v1/guest-picks", handler.SubmitGuestPicks)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/picks", RequireAuth(verifier, http.HandlerFunc(handler.SubmitWeekPicks)))
	mux.Handle("GET /v1/picks", RequireAuth(verifier, http.HandlerFunc(handler.ListWeekPicks)))
	mux.Handle("DELETE /v1/picks", RequireAuth(verifier, http.HandlerFunc(handler.RetractWeekPicks)))
	mux.Handle("POST /v1/guest-picks/{setID}/claim", RequireAuth(verifier, http.HandlerFunc(handler.ClaimGuestSet)))
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/contests/{contestID}/score", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ApplyScoreUpdate)))
	mux.Handle("POST /v1/internal/contests/{contestID}/resolve", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ResolveContest)))
	mux.Handle("POST /v1/internal/contests/{contestID}/recompute", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RecomputeContestOutcome)))
	mux.Handle("POST /v1/internal/periods/resolve", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ResolvePeriod)))
	mux.Handle("POST /v1/internal/precedence/override", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.OverridePrecedence)))
	mux.Handle("DELETE /v1/internal/precedence/override", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ClearPrecedenceOverride)))
	mux.Handle("PATCH /v1/internal/guest-picks/{setID}/visibility", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.SetGuestSetVisibility)))
}
