package httpapi

import (
	"net/http"
	"time"

	"gymcore-backend-go/internal/config"
	"gymcore-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	Service *services.Service
	Config  config.Config
	Tokens  services.TokenService
	Hub     *services.PointsHub
	Log     *zap.Logger
}

func NewServer(svc *services.Service, cfg config.Config, hub *services.PointsHub, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	tokens := services.TokenService{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
	}
	return &Server{
		Service: svc,
		Config:  cfg,
		Tokens:  tokens,
		Hub:     hub,
		Log:     log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.Log))
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(WithAuth(s.Tokens))

		api.Route("/me", func(me chi.Router) {
			me.Get("/", s.Me)
			me.Get("/points", s.PointsHistory)
			me.Post("/ping", s.Ping)
		})
		api.Get("/leaderboard", s.Leaderboard)
		api.Route("/users", func(users chi.Router) {
			users.Get("/", s.ListUsers)
			users.Get("/{id}", s.GetUser)
		})

		api.Route("/gyms", func(rt chi.Router) { mountCatalogue(rt, s, services.Gyms) })
		api.Route("/branches", func(rt chi.Router) { mountCatalogue(rt, s, services.Branches) })
		api.Route("/exercises", func(rt chi.Router) { mountCatalogue(rt, s, services.Exercises) })
		api.Route("/routines", func(rt chi.Router) { mountCatalogue(rt, s, services.Routines) })
		api.Route("/routine-exercises", func(rt chi.Router) { mountCatalogue(rt, s, services.RoutineExercises) })
		api.Route("/sessions", func(sessions chi.Router) {
			sessions.Get("/", s.ListSessions)
			sessions.Post("/", s.CreateSession)
			sessions.Get("/{id}", s.GetSession)
			sessions.Put("/{id}", s.UpdateSession)
			sessions.Delete("/{id}", s.DeleteSession)
		})

		api.Route("/nutrition-plans", func(plans chi.Router) {
			mountCatalogue(plans, s, services.NutritionPlans)
			plans.Post("/{id}/start", s.StartPlan)
			plans.Post("/{id}/assign", s.AssignPlan)
		})
		api.Route("/meal-templates", func(templates chi.Router) {
			mountCatalogue(templates, s, services.MealTemplates)
			templates.Post("/{id}/toggle", s.ToggleMealLog)
		})
		api.Route("/nutrition-meals", func(rt chi.Router) { mountCatalogue(rt, s, services.NutritionMeals) })
		api.Route("/nutrition-items", func(rt chi.Router) { mountCatalogue(rt, s, services.NutritionItems) })
		api.Route("/nutrition-assignments", func(assignments chi.Router) {
			assignments.Get("/", s.ListAssignments)
			assignments.Get("/{id}", s.GetAssignment)
			assignments.Put("/{id}", s.UpdateAssignment)
			assignments.Delete("/{id}", s.DeleteAssignment)
			assignments.Post("/{id}/complete", s.CompleteAssignment)
		})
		api.Route("/meal-logs", func(logs chi.Router) {
			logs.Get("/", s.ListMealLogs)
			logs.Get("/{id}", s.GetMealLog)
		})

		api.Route("/challenges", func(challenges chi.Router) {
			mountCatalogue(challenges, s, services.Challenges)
			challenges.Post("/{id}/join", s.JoinChallenge)
		})
		api.Route("/challenge-participations", func(parts chi.Router) {
			parts.Get("/", s.ListParticipations)
			parts.Get("/{id}", s.GetParticipation)
			parts.Put("/{id}", s.UpdateParticipation)
			parts.Delete("/{id}", s.DeleteParticipation)
		})
		api.Route("/badges", func(rt chi.Router) { mountCatalogue(rt, s, services.Badges) })
		api.Route("/user-badges", func(awards chi.Router) {
			awards.Get("/", s.ListUserBadges)
			awards.Post("/", s.AwardUserBadge)
			awards.Get("/{id}", s.GetUserBadge)
			awards.Delete("/{id}", s.RevokeUserBadge)
		})

		api.Route("/subscription-plans", func(rt chi.Router) { mountCatalogue(rt, s, services.SubscriptionPlans) })
		api.Route("/subscriptions", func(subs chi.Router) {
			subs.Get("/", s.ListSubscriptions)
			subs.Post("/", s.CreateSubscription)
			subs.Get("/{id}", s.GetSubscription)
			subs.Put("/{id}", s.UpdateSubscription)
			subs.Delete("/{id}", s.DeleteSubscription)
		})
		api.Route("/payments", func(payments chi.Router) {
			payments.Get("/", s.ListPayments)
			payments.Get("/{id}", s.GetPayment)
		})
	})

	r.Get("/ws/points", s.PointsSocket)
	return r
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DB.PingContext(r.Context()); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}
