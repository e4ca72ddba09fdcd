package main

import (
	"net/http"

	"github.com/eatmeetclub/api/internal/handler"
	"github.com/eatmeetclub/api/internal/middleware"
	"github.com/eatmeetclub/api/internal/model"
)

type routeDeps struct {
	tokens   middleware.TokenValidator
	db       handler.Pinger
	feed     handler.Feed
	features middleware.FlagChecker // nil leaves every feature on

	auth interface {
		handler.AuthService
		handler.UserAdminService
	}
	restaurants   handler.RestaurantService
	menu          handler.MenuService
	events        handler.DiningEventService
	tickets       handler.TicketService
	payments      handler.PaymentService
	memberships   handler.MembershipService
	signups       handler.SignupService
	billing       handler.BillingService
	templates     handler.TemplateService
	contracts     handler.ContractService
	flags         handler.FlagService
	memories      handler.MemoryService
	notifications handler.NotificationService
}

// routes registers every endpoint. Callers are already identified by the
// global OptionalAuth, so public routes need no wrapping; authed, host and
// admin add the checks.
func routes(d routeDeps) *http.ServeMux {
	healthHandler := handler.NewHealthHandler(d.db)
	authHandler := handler.NewAuthHandler(d.auth)
	adminUsersHandler := handler.NewAdminUsersHandler(d.auth)
	restaurantHandler := handler.NewRestaurantHandler(d.restaurants)
	menuHandler := handler.NewMenuHandler(d.menu)
	eventHandler := handler.NewEventHandler(d.events)
	ticketHandler := handler.NewTicketHandler(d.tickets)
	paymentHandler := handler.NewPaymentHandler(d.payments)
	membershipHandler := handler.NewMembershipHandler(d.memberships)
	signupHandler := handler.NewSignupHandler(d.signups)
	billingHandler := handler.NewBillingHandler(d.billing)
	templateHandler := handler.NewTemplateHandler(d.templates)
	contractHandler := handler.NewContractHandler(d.contracts)
	flagHandler := handler.NewFlagHandler(d.flags)
	memoryHandler := handler.NewMemoryHandler(d.memories)
	notificationHandler := handler.NewNotificationHandler(d.notifications)
	streamHandler := handler.NewStreamHandler(d.feed)

	auth := middleware.Auth(d.tokens)

	authed := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}
	withRole := func(role model.UserRole) func(http.HandlerFunc) http.Handler {
		gate := middleware.RequireRole(role)
		return func(h http.HandlerFunc) http.Handler {
			return middleware.Chain(h, auth, gate)
		}
	}
	host := withRole(model.UserRoleRestaurant)
	admin := withRole(model.UserRoleAdmin)

	feature := func(key string) func(http.Handler) http.Handler {
		if d.features == nil {
			return func(h http.Handler) http.Handler { return h }
		}
		return middleware.RequireFlag(d.features, key)
	}
	memories := feature(model.FlagMemories)
	signup := feature(model.FlagSignup)

	mux := http.NewServeMux()

	// Health checks
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)

	// Auth
	mux.HandleFunc("POST /v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /v1/auth/refresh", authHandler.Refresh)
	mux.Handle("POST /v1/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /v1/auth/me", authed(authHandler.Me))

	// Restaurants and menus
	mux.HandleFunc("GET /v1/restaurants", restaurantHandler.List)
	mux.HandleFunc("GET /v1/restaurants/{restaurantId}", restaurantHandler.Get)
	mux.Handle("POST /v1/restaurants", host(restaurantHandler.Create))
	mux.Handle("PATCH /v1/restaurants/{restaurantId}", host(restaurantHandler.Update))
	mux.Handle("DELETE /v1/restaurants/{restaurantId}", host(restaurantHandler.Delete))
	mux.HandleFunc("GET /v1/restaurants/{restaurantId}/menu", menuHandler.List)
	mux.Handle("POST /v1/restaurants/{restaurantId}/menu", host(menuHandler.Create))
	mux.Handle("PATCH /v1/restaurants/{restaurantId}/menu/{itemId}", host(menuHandler.Update))
	mux.Handle("DELETE /v1/restaurants/{restaurantId}/menu/{itemId}", host(menuHandler.Delete))

	// Dining events
	mux.HandleFunc("GET /v1/events", eventHandler.Discover)
	mux.HandleFunc("GET /v1/events/{eventId}", eventHandler.Get)
	mux.Handle("GET /v1/restaurants/{restaurantId}/events", host(eventHandler.ListForRestaurant))
	mux.Handle("POST /v1/restaurants/{restaurantId}/events", host(eventHandler.Create))
	mux.Handle("PATCH /v1/events/{eventId}", host(eventHandler.Update))
	mux.Handle("POST /v1/events/{eventId}/publish", host(eventHandler.Publish))
	mux.Handle("POST /v1/events/{eventId}/cancel", host(eventHandler.Cancel))
	mux.Handle("GET /v1/events/{eventId}/attendees", host(ticketHandler.Attendees))

	// Tickets
	mux.Handle("POST /v1/events/{eventId}/tickets", authed(ticketHandler.Purchase))
	mux.Handle("GET /v1/tickets", authed(ticketHandler.ListMine))
	mux.Handle("GET /v1/tickets/{ticketId}", authed(ticketHandler.Get))
	mux.Handle("POST /v1/tickets/{ticketId}/cancel", authed(ticketHandler.Cancel))

	// Memories
	mux.Handle("GET /v1/events/{eventId}/memories", memories(http.HandlerFunc(memoryHandler.List)))
	mux.Handle("POST /v1/events/{eventId}/memories", memories(authed(memoryHandler.Create)))
	mux.Handle("DELETE /v1/memories/{memoryId}", memories(authed(memoryHandler.Delete)))

	// Payments. Verify is reachable without a session since the processor
	// redirect may land in a fresh browser.
	mux.Handle("GET /v1/payments/{paymentId}", authed(paymentHandler.Get))
	mux.HandleFunc("POST /v1/payments/{paymentId}/verify", paymentHandler.Verify)
	mux.HandleFunc("POST /v1/payments/webhook", paymentHandler.Webhook)

	// Membership plans and subscriptions
	mux.HandleFunc("GET /v1/plans", membershipHandler.ListPlans)
	mux.HandleFunc("GET /v1/plans/{planId}", membershipHandler.GetPlan)
	mux.Handle("POST /v1/memberships", authed(membershipHandler.Subscribe))
	mux.Handle("GET /v1/memberships/mine", authed(membershipHandler.Mine))
	mux.Handle("POST /v1/memberships/{membershipId}/cancel", authed(membershipHandler.Cancel))
	mux.Handle("POST /v1/memberships/{membershipId}/resume", authed(membershipHandler.Resume))

	// Paid signup wizard
	mux.Handle("POST /v1/signup", signup(http.HandlerFunc(signupHandler.Start)))
	mux.Handle("GET /v1/signup/{signupId}", signup(http.HandlerFunc(signupHandler.Get)))
	mux.Handle("POST /v1/signup/{signupId}/retry", signup(http.HandlerFunc(signupHandler.Retry)))

	// Contracts, restaurant side
	mux.Handle("GET /v1/contracts", host(contractHandler.List))
	mux.Handle("GET /v1/contracts/{contractId}", host(contractHandler.Get))
	mux.Handle("POST /v1/contracts/{contractId}/sign", host(contractHandler.Sign))

	// Feature flags and live updates
	mux.HandleFunc("GET /v1/flags", flagHandler.Map)
	mux.Handle("GET /v1/stream", authed(streamHandler.User))

	// Back office
	mux.Handle("GET /v1/admin/users", admin(adminUsersHandler.ListUsers))
	mux.Handle("GET /v1/admin/users/{userId}", admin(adminUsersHandler.GetUser))
	mux.Handle("PATCH /v1/admin/users/{userId}/role", admin(adminUsersHandler.UpdateRole))

	mux.Handle("GET /v1/admin/payments", admin(paymentHandler.List))
	mux.Handle("GET /v1/admin/billing", admin(billingHandler.Report))
	mux.Handle("GET /v1/admin/stream", admin(streamHandler.Admin))

	mux.Handle("GET /v1/admin/plans", admin(membershipHandler.ListAllPlans))
	mux.Handle("POST /v1/admin/plans", admin(membershipHandler.CreatePlan))
	mux.Handle("PATCH /v1/admin/plans/{planId}", admin(membershipHandler.UpdatePlan))
	mux.Handle("DELETE /v1/admin/plans/{planId}", admin(membershipHandler.RetirePlan))

	mux.Handle("GET /v1/admin/templates", admin(templateHandler.List))
	mux.Handle("POST /v1/admin/templates", admin(templateHandler.Create))
	mux.Handle("GET /v1/admin/templates/{templateId}", admin(templateHandler.Get))
	mux.Handle("PATCH /v1/admin/templates/{templateId}", admin(templateHandler.Update))
	mux.Handle("DELETE /v1/admin/templates/{templateId}", admin(templateHandler.Delete))
	mux.Handle("POST /v1/admin/templates/{templateId}/render", admin(templateHandler.Render))

	mux.Handle("POST /v1/admin/contracts", admin(contractHandler.Create))
	mux.Handle("POST /v1/admin/contracts/{contractId}/send", admin(contractHandler.Send))
	mux.Handle("POST /v1/admin/contracts/{contractId}/void", admin(contractHandler.Void))

	mux.Handle("GET /v1/admin/flags", admin(flagHandler.List))
	mux.Handle("POST /v1/admin/flags", admin(flagHandler.Create))
	mux.Handle("GET /v1/admin/flags/{key}", admin(flagHandler.Get))
	mux.Handle("PATCH /v1/admin/flags/{key}", admin(flagHandler.Update))
	mux.Handle("POST /v1/admin/flags/{key}/toggle", admin(flagHandler.Toggle))
	mux.Handle("DELETE /v1/admin/flags/{key}", admin(flagHandler.Delete))

	mux.Handle("POST /v1/admin/notifications", admin(notificationHandler.Send))

	return mux
}
