package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pavelgurkov/starfeed/backend/internal/config"
	authsvc "github.com/pavelgurkov/starfeed/backend/internal/services/auth"
	contentsvc "github.com/pavelgurkov/starfeed/backend/internal/services/content"
	ledgersvc "github.com/pavelgurkov/starfeed/backend/internal/services/ledger"
	premiumsvc "github.com/pavelgurkov/starfeed/backend/internal/services/premium"
	promosvc "github.com/pavelgurkov/starfeed/backend/internal/services/promo"
	"github.com/pavelgurkov/starfeed/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService    *authsvc.Service
	LedgerService  *ledgersvc.Service
	PremiumService *premiumsvc.Service
	PromoService   *promosvc.Service
	ContentService *contentsvc.Service
	Logger         *zap.Logger
	Config         config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	starsHandler := handlers.NewStarsHandler(deps.LedgerService)
	premiumHandler := handlers.NewPremiumHandler(deps.PremiumService)
	promoHandler := handlers.NewPromoHandler(deps.PromoService)
	contentHandler := handlers.NewContentHandler(deps.ContentService)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/telegram", authHandler.Telegram)
	})

	r.Route("/stars", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/balance", starsHandler.Balance)
		r.Get("/history", starsHandler.History)
		r.Post("/add", starsHandler.Add)
		r.Post("/withdraw", starsHandler.Withdraw)
		r.Post("/gift", starsHandler.Gift)
	})

	r.With(authMW).Get("/premium", premiumHandler.Status)
	r.With(authMW).Post("/premium/purchase", premiumHandler.Purchase)
	r.With(authMW).Post("/promo/pin", promoHandler.Pin)
	r.With(authMW).Post("/content", contentHandler.Create)
	r.With(authMW).Get("/feed", contentHandler.Feed)
}
