package handlers

import (
	"time"

	"auctions/internal/auth"
	"auctions/internal/config"
	"auctions/internal/events"
	applog "auctions/internal/log"
	"auctions/internal/repos"
	"auctions/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler      *AuthHandler
	CategoryHandler  *CategoryHandler
	ListingHandler   *ListingHandler
	BidHandler       *BidHandler
	WatchlistHandler *WatchlistHandler
	CommentHandler   *CommentHandler

	// LoginLimit caps login attempts per IP in LoginWindow.
	LoginLimit  int
	LoginWindow time.Duration
}

func NewDeps(db *sqlx.DB, cfg config.Config, pub events.Publisher) *Deps {
	if pub == nil {
		pub = events.Nop{}
	}
	userRepo := repos.NewUserRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	listingRepo := repos.NewListingRepo(db)
	bidRepo := repos.NewBidRepo(db)
	watchRepo := repos.NewWatchRepo(db)
	commentRepo := repos.NewCommentRepo(db)

	authSvc := services.NewAuthService(userRepo, auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL))
	listingSvc := services.NewListingService(listingRepo, catRepo, pub)
	bidSvc := services.NewBidService(bidRepo, listingRepo, pub)
	watchSvc := services.NewWatchlistService(watchRepo, listingRepo)
	commentSvc := services.NewCommentService(commentRepo, listingRepo)

	return &Deps{
		Auth:             authSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc},
		CategoryHandler:  &CategoryHandler{Listings: listingSvc},
		ListingHandler:   &ListingHandler{Listings: listingSvc, Watch: watchSvc, Comments: commentSvc},
		BidHandler:       &BidHandler{Bids: bidSvc},
		WatchlistHandler: &WatchlistHandler{Watch: watchSvc},
		CommentHandler:   &CommentHandler{Comments: commentSvc},
		LoginLimit:       5,
		LoginWindow:      10 * time.Minute,
	}
}

// Mount registers the JSON API and the health check on app.
func (d *Deps) Mount(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	api := app.Group("/api/v1", Authenticate(d.Auth))
	requireUser := RequireUser()

	// Auth routes (login throttled)
	api.Post("/register", d.AuthHandler.Register)
	api.Post("/login", limiter.New(limiter.Config{
		Max:        d.LoginLimit,
		Expiration: d.LoginWindow,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later", "code": "RATE_LIMITED"})
		},
	}), d.AuthHandler.Login)
	api.Post("/logout", d.AuthHandler.Logout)
	api.Get("/me", requireUser, d.AuthHandler.Me)

	api.Get("/categories", d.CategoryHandler.List)

	api.Get("/listings", d.ListingHandler.List)
	api.Post("/listings", requireUser, d.ListingHandler.Create)
	api.Get("/listings/:id", d.ListingHandler.Detail)
	api.Post("/listings/:id/close", requireUser, d.ListingHandler.Close)

	api.Get("/listings/:id/bids", d.BidHandler.List)
	api.Post("/listings/:id/bids", requireUser, d.BidHandler.Place)

	api.Get("/listings/:id/comments", d.CommentHandler.List)
	api.Post("/listings/:id/comments", requireUser, d.CommentHandler.Add)

	api.Get("/watchlist", requireUser, d.WatchlistHandler.List)
	api.Post("/watchlist/:id", requireUser, d.WatchlistHandler.Add)
	api.Delete("/watchlist/:id", requireUser, d.WatchlistHandler.Remove)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found", "code": "NOT_FOUND"})
	})
}
