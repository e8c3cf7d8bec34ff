package http

import (
	"net/http"

	"quizpal-service/internal/app"
	"quizpal-service/internal/auth"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// API wires the application services into the REST and websocket surface.
type API struct {
	sessions    *app.SessionService
	scores      *app.ScoreService
	categories  *app.CategoryService
	questions   *app.QuestionService
	targets     *app.TargetService
	authHandler *auth.Handler
	authMW      *auth.Middleware
}

func NewAPI(
	sessions *app.SessionService,
	scores *app.ScoreService,
	categories *app.CategoryService,
	questions *app.QuestionService,
	targets *app.TargetService,
	authHandler *auth.Handler,
	authMW *auth.Middleware,
) *API {
	return &API{
		sessions:    sessions,
		scores:      scores,
		categories:  categories,
		questions:   questions,
		targets:     targets,
		authHandler: authHandler,
		authMW:      authMW,
	}
}

// Router builds the full route table.
func (a *API) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})

	r.HandleFunc("/api/auth/register", a.authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", a.authHandler.Login).Methods(http.MethodPost)

	// Player surface.
	user := r.PathPrefix("/api").Subrouter()
	user.Use(a.authMW.RequireAuth)
	user.HandleFunc("/categories", a.listCategories).Methods(http.MethodGet)
	user.HandleFunc("/sessions", a.startSession).Methods(http.MethodPost)
	user.HandleFunc("/sessions/{id}", a.getSession).Methods(http.MethodGet)
	user.HandleFunc("/sessions/{id}", a.abandonSession).Methods(http.MethodDelete)
	user.HandleFunc("/sessions/{id}/answer", a.submitAnswer).Methods(http.MethodPost)
	user.HandleFunc("/sessions/{id}/advance", a.advanceSession).Methods(http.MethodPost)
	user.HandleFunc("/attempts", a.recordAttempt).Methods(http.MethodPost)
	user.HandleFunc("/profile", a.profile).Methods(http.MethodGet)
	user.HandleFunc("/profile", a.updateProfile).Methods(http.MethodPut)
	user.HandleFunc("/targets", a.listTargets).Methods(http.MethodGet)
	user.HandleFunc("/targets", a.addTarget).Methods(http.MethodPost)
	user.HandleFunc("/targets/{id}/toggle", a.toggleTarget).Methods(http.MethodPost)
	user.HandleFunc("/targets/{id}", a.renameTarget).Methods(http.MethodPut)
	user.HandleFunc("/targets/{id}", a.deleteTarget).Methods(http.MethodDelete)

	// Admin panel surface.
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(a.authMW.RequireAdmin)
	admin.HandleFunc("/categories", a.addCategory).Methods(http.MethodPost)
	admin.HandleFunc("/categories/sync", a.syncCategories).Methods(http.MethodPost)
	admin.HandleFunc("/categories/{id}", a.deleteCategory).Methods(http.MethodDelete)
	admin.HandleFunc("/categories/{id}/questions", a.listQuestions).Methods(http.MethodGet)
	admin.HandleFunc("/questions", a.addQuestion).Methods(http.MethodPost)
	admin.HandleFunc("/questions/{id}", a.getQuestion).Methods(http.MethodGet)
	admin.HandleFunc("/questions/{id}", a.updateQuestion).Methods(http.MethodPut)
	admin.HandleFunc("/questions/{id}", a.deleteQuestion).Methods(http.MethodDelete)

	r.HandleFunc("/ws/play", a.ServePlay)

	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(r)
}
