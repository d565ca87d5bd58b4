package main

import (
	"net/http"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-ledger/internal/auth"
	"github.com/ukydev/fleet-ledger/internal/config"
	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/events"
	"github.com/ukydev/fleet-ledger/internal/handlers"
	"github.com/ukydev/fleet-ledger/internal/ledger"
	"github.com/ukydev/fleet-ledger/internal/middleware"
	"github.com/ukydev/fleet-ledger/internal/models"
	"github.com/ukydev/fleet-ledger/internal/reports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment")
	}
	log.SetFormatter(&log.JSONFormatter{})

	cfg := config.Load()

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	database := client.Database(cfg.MongoDB)
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	vehicleCollection := &db.MongoVehicleCollection{Collection: database.Collection("vehicles")}
	movementCollection := &db.MongoMovementCollection{Collection: database.Collection("movements")}
	fuelCollection := &db.MongoFuelCollection{Collection: database.Collection("fuel_entries")}
	maintenanceCollection := &db.MongoMaintenanceCollection{Collection: database.Collection("maintenance")}
	userCollection := &db.MongoUserCollection{Collection: database.Collection("users")}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.MQTTBrokerURL != "" {
		mqttPublisher, err := events.NewMQTTPublisher(cfg.MQTTBrokerURL, "fleet-ledger")
		if err != nil {
			log.WithError(err).Warn("MQTT broker unreachable, events disabled")
		} else {
			publisher = mqttPublisher
			defer mqttPublisher.Close()
			log.WithField("broker", cfg.MQTTBrokerURL).Info("Connected to MQTT broker")
		}
	}

	registry := ledger.NewRegistry(vehicleCollection)
	movementLedger := ledger.NewMovementLedger(movementCollection, registry, ledger.MovementConfig{
		AutomaticConsumption: cfg.AutomaticConsumption,
		LowFuelPercent:       cfg.LowFuelPercent,
	}, publisher)
	fuelLedger := ledger.NewFuelLedger(fuelCollection, registry, cfg.BlendWeight, publisher)
	maintenanceLedger := ledger.NewMaintenanceLedger(maintenanceCollection, registry, publisher)
	reportsService := reports.NewService(movementCollection, fuelCollection)

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	authHandler := handlers.NewAuthHandler(authService, userCollection)
	vehicleHandler := handlers.NewVehicleHandler(registry)
	movementHandler := handlers.NewMovementHandler(movementLedger)
	fuelHandler := handlers.NewFuelHandler(fuelLedger)
	maintenanceHandler := handlers.NewMaintenanceHandler(maintenanceLedger)
	reportsHandler := handlers.NewReportsHandler(reportsService)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()

	requireRole := func(role models.Role, h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireRole(role)(h)
	}
	requirePermission := func(action string, h http.HandlerFunc) http.Handler {
		return authMiddleware.RequirePermission(action)(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.Handle("/api/auth/profile", http.HandlerFunc(authHandler.GetProfile))
	mux.Handle("/api/auth/password", http.HandlerFunc(authHandler.ChangePassword))

	// Vehicle registration and deactivation are administrator operations;
	// reads go by permission.
	mux.Handle("/api/vehicles", permissionByMethod(
		requireRole(models.RoleAdministrator, vehicleHandler.Collection),
		requirePermission("view_vehicles", vehicleHandler.Collection)))
	mux.Handle("/api/vehicles/", permissionByMethod(
		requireRole(models.RoleAdministrator, vehicleHandler.Item),
		requirePermission("view_vehicles", vehicleHandler.Item)))

	mux.Handle("/api/movements/checkout", requirePermission("checkout_vehicle", movementHandler.Checkout))
	mux.Handle("/api/movements/checkin", requirePermission("checkin_vehicle", movementHandler.Checkin))
	mux.Handle("/api/movements/cancel", requirePermission("cancel_movement", movementHandler.Cancel))
	mux.Handle("/api/movements", requirePermission("view_movements", movementHandler.Collection))
	mux.Handle("/api/movements/", requirePermission("view_movements", movementHandler.Item))

	mux.Handle("/api/fuel", permissionByMethod(
		requirePermission("record_fuel", fuelHandler.Collection),
		requirePermission("view_fuel", fuelHandler.Collection)))
	mux.Handle("/api/fuel/", requirePermission("view_fuel", fuelHandler.Item))

	mux.Handle("/api/maintenance", permissionByMethod(
		requirePermission("schedule_maintenance", maintenanceHandler.Collection),
		requirePermission("view_maintenance", maintenanceHandler.Collection)))
	mux.Handle("/api/maintenance/", permissionByMethod(
		requirePermission("update_maintenance", maintenanceHandler.Item),
		requirePermission("view_maintenance", maintenanceHandler.Item)))

	mux.Handle("/api/reports/movements", requirePermission("view_reports", reportsHandler.Movements))
	mux.Handle("/api/reports/fuel", requirePermission("view_reports", reportsHandler.Fuel))

	handler := rateLimiter.RateLimit(120, 60)(authMiddleware.Authenticate(mux))

	log.WithField("port", cfg.Port).Info("Fleet ledger API listening")
	if err := http.ListenAndServe(":"+cfg.Port, handler); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

// permissionByMethod routes writes (POST/PUT/DELETE) through one guard and
// reads through another.
func permissionByMethod(write, read http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			write.ServeHTTP(w, r)
		default:
			read.ServeHTTP(w, r)
		}
	})
}
