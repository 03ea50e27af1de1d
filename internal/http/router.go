package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgeemedia/cse340-backend/internal/handlers"
	"github.com/dgeemedia/cse340-backend/internal/middleware"
	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/static"
)

func NewRouter(
	pageHandler *handlers.PageHandler,
	accountHandler *handlers.AccountHandler,
	inventoryHandler *handlers.InventoryHandler,
	messageHandler *handlers.MessageHandler,
	reviewHandler *handlers.ReviewHandler,
	healthHandler *handlers.HealthHandler,
	realtimeHandler http.Handler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware, middleware.AccessLog)

	// Embedded assets
	assets := http.FileServer(http.FS(static.FS))
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", assets))
	r.PathPrefix("/images/").Handler(assets)

	// Probes and metrics
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/", pageHandler.Home).Methods("GET")

	// Realtime; the handler authenticates the handshake itself
	r.Handle("/ws", realtimeHandler).Methods("GET")

	// Public account pages
	r.HandleFunc("/account/login", accountHandler.LoginPage).Methods("GET")
	r.HandleFunc("/account/login", accountHandler.Login).Methods("POST")
	r.HandleFunc("/account/register", accountHandler.RegisterPage).Methods("GET")
	r.HandleFunc("/account/register", accountHandler.Register).Methods("POST")
	r.HandleFunc("/account/logout", accountHandler.Logout).Methods("GET", "POST")

	// Signed-in account pages
	account := r.PathPrefix("/account").Subrouter()
	account.Use(authMiddleware.RequireAuthenticated)
	account.HandleFunc("/", accountHandler.Management).Methods("GET")
	account.HandleFunc("/update/{id:[0-9]+}", accountHandler.UpdatePage).Methods("GET")
	account.HandleFunc("/update", accountHandler.Update).Methods("POST")
	account.HandleFunc("/password", accountHandler.ChangePassword).Methods("POST")
	account.HandleFunc("/totp", accountHandler.TOTPPage).Methods("GET")
	account.HandleFunc("/totp/setup", accountHandler.TOTPSetup).Methods("POST")
	account.HandleFunc("/totp/enable", accountHandler.TOTPEnable).Methods("POST")
	account.HandleFunc("/totp/disable", accountHandler.TOTPDisable).Methods("POST")

	managers := r.PathPrefix("/account/accounts").Subrouter()
	managers.Use(authMiddleware.RequireRole(models.RoleManager))
	managers.HandleFunc("", accountHandler.AccountsPage).Methods("GET")
	managers.HandleFunc("/{id:[0-9]+}/role", accountHandler.ChangeRole).Methods("POST")

	// Public inventory
	r.HandleFunc("/inv/type/{classificationId:[0-9]+}", inventoryHandler.ByClassification).Methods("GET")
	r.HandleFunc("/inv/detail/{id:[0-9]+}", inventoryHandler.Detail).Methods("GET")
	r.HandleFunc("/inv/detail/{id:[0-9]+}/spec.pdf", inventoryHandler.SpecSheet).Methods("GET")
	r.HandleFunc("/reviews/json/{inv_id:[0-9]+}", reviewHandler.JSON).Methods("GET")

	// Inventory management, staff only
	inv := r.PathPrefix("/inv").Subrouter()
	inv.Use(authMiddleware.RequireStaff)
	inv.HandleFunc("/", inventoryHandler.Management).Methods("GET")
	inv.HandleFunc("/report.pdf", inventoryHandler.Report).Methods("GET")
	inv.HandleFunc("/getInventory/{classification_id:[0-9]+}", inventoryHandler.InventoryJSON).Methods("GET")
	inv.HandleFunc("/add-classification", inventoryHandler.AddClassificationPage).Methods("GET")
	inv.HandleFunc("/add-classification", inventoryHandler.AddClassification).Methods("POST")
	inv.HandleFunc("/add-inventory", inventoryHandler.AddVehiclePage).Methods("GET")
	inv.HandleFunc("/add-inventory", inventoryHandler.AddVehicle).Methods("POST")
	inv.HandleFunc("/edit/{id:[0-9]+}", inventoryHandler.EditPage).Methods("GET")
	inv.HandleFunc("/update", inventoryHandler.UpdateVehicle).Methods("POST")
	inv.HandleFunc("/delete/{id:[0-9]+}", inventoryHandler.DeletePage).Methods("GET")
	inv.HandleFunc("/delete", inventoryHandler.DeleteVehicle).Methods("POST")

	// Messaging
	messages := r.PathPrefix("/messages").Subrouter()
	messages.Use(authMiddleware.RequireAuthenticated)
	messages.HandleFunc("/", messageHandler.Inbox).Methods("GET")
	messages.HandleFunc("/sent", messageHandler.Sent).Methods("GET")
	messages.HandleFunc("/compose", messageHandler.ComposePage).Methods("GET")
	messages.HandleFunc("/send", messageHandler.Send).Methods("POST")
	messages.HandleFunc("/view/{id:[0-9]+}", messageHandler.View).Methods("GET")
	messages.HandleFunc("/mark-read", messageHandler.MarkRead).Methods("POST")
	messages.HandleFunc("/delete/{id:[0-9]+}", messageHandler.Delete).Methods("POST")
	messages.HandleFunc("/unread-count", messageHandler.UnreadCount).Methods("GET")

	// Reviews
	reviews := r.PathPrefix("/reviews").Subrouter()
	reviews.Use(authMiddleware.RequireAuthenticated)
	reviews.HandleFunc("/add", reviewHandler.Add).Methods("POST")
	reviews.HandleFunc("/edit/{id:[0-9]+}", reviewHandler.EditPage).Methods("GET")
	reviews.HandleFunc("/update", reviewHandler.Update).Methods("POST")
	reviews.HandleFunc("/delete/{id:[0-9]+}", reviewHandler.DeletePage).Methods("GET")
	reviews.HandleFunc("/delete", reviewHandler.Delete).Methods("POST")
	reviews.HandleFunc("/reply", reviewHandler.Reply).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(pageHandler.NotFound)
	return r
}
