package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zaikoworks/zaiko-backend/api/controllers"
	"github.com/zaikoworks/zaiko-backend/api/middleware"
	authsvc "github.com/zaikoworks/zaiko-backend/internal/auth"
	groupsvc "github.com/zaikoworks/zaiko-backend/internal/groups"
	historysvc "github.com/zaikoworks/zaiko-backend/internal/history"
	notificationsvc "github.com/zaikoworks/zaiko-backend/internal/notifications"
	ordersvc "github.com/zaikoworks/zaiko-backend/internal/orders"
	stocksvc "github.com/zaikoworks/zaiko-backend/internal/stocks"
	usersvc "github.com/zaikoworks/zaiko-backend/internal/users"
	"github.com/zaikoworks/zaiko-backend/pkg/auth/session"
	"github.com/zaikoworks/zaiko-backend/pkg/config"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	"github.com/zaikoworks/zaiko-backend/pkg/logger"
	"github.com/zaikoworks/zaiko-backend/pkg/metrics"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions session.AccessSessionChecker
	Pingers  map[string]controllers.Pinger

	HTTPMetrics     *metrics.HTTPMetrics
	MetricsGatherer prometheus.Gatherer

	Auth          authsvc.Service
	Stocks        stocksvc.Service
	Groups        groupsvc.Service
	Orders        ordersvc.Service
	History       historysvc.Service
	Users         usersvc.Service
	Notifications notificationsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.Login(deps.Auth, logg))
		r.Post("/refresh", controllers.Refresh(deps.Auth, logg))
		r.Post("/logout", controllers.Logout(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Get("/dashboard/summary", controllers.DashboardSummary(deps.Stocks, logg))

		r.Route("/stocks", func(r chi.Router) {
			r.Get("/", controllers.ListStocks(deps.Stocks, logg))
			r.Post("/inbound", controllers.RecordInbound(deps.Stocks, logg))
			r.Post("/bulk-adjust", controllers.BulkAdjust(deps.Stocks, logg))
			r.Get("/suppliers", controllers.ListSuppliers(deps.Stocks, logg))
			r.Get("/{stockID}", controllers.GetStockDetail(deps.Stocks, logg))
			r.Patch("/{stockID}", controllers.EditStock(deps.Stocks, logg))
			r.Delete("/{stockID}", controllers.DeleteStock(deps.Stocks, logg))
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", controllers.ListGroups(deps.Groups, logg))
			r.Post("/", controllers.CreateGroup(deps.Groups, logg))
			r.Post("/reorder", controllers.ReorderGroups(deps.Groups, logg))
			r.Patch("/{groupID}", controllers.RenameGroup(deps.Groups, logg))
			r.Delete("/{groupID}", controllers.DeleteGroup(deps.Groups, logg))
			r.Get("/{groupID}/stocks", controllers.ListGroupStocks(deps.Stocks, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Orders, logg))
			r.Post("/", controllers.CreateOrder(deps.Orders, logg))
			r.Get("/board", controllers.OrderBoard(deps.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(deps.Orders, logg))
			r.Post("/{orderID}/confirm", controllers.ConfirmOrder(deps.Orders, logg))
			r.Post("/{orderID}/complete", controllers.CompleteOrder(deps.Orders, logg))
			r.Post("/{orderID}/revert", controllers.RevertOrder(deps.Orders, logg))
		})

		r.Get("/history", controllers.QueryHistory(deps.History, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.SystemRoleAdmin.String(), logg))
			r.Get("/", controllers.ListUsers(deps.Users, logg))
			r.Post("/", controllers.CreateUser(deps.Users, logg))
			r.Get("/{userID}", controllers.GetUser(deps.Users, logg))
			r.Patch("/{userID}", controllers.UpdateUser(deps.Users, logg))
			r.Delete("/{userID}", controllers.DeleteUser(deps.Users, logg))
		})
	})

	return r
}
