package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"offerhub-backend/cache"
	"offerhub-backend/config"
	"offerhub-backend/database"
	"offerhub-backend/handlers"
	"offerhub-backend/middleware"
	"offerhub-backend/models"
	"offerhub-backend/services"
	"offerhub-backend/websocket"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const wsPath = "/ws/notifications"

func main() {
	// Charger la configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erreur lors du chargement de la configuration: %v", err)
	}

	// Connexion à MongoDB
	if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Fatalf("❌ Erreur de connexion à MongoDB: %v", err)
	}
	defer database.Close()

	// Connexion à Redis (cache, verrou de synchronisation, rate limiting)
	redisClient, err := cache.Connect(context.Background(), cache.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("❌ Erreur de connexion à Redis: %v", err)
	}
	defer redisClient.Close()

	// Firebase Cloud Messaging (optionnel)
	fcmService := services.NewDisabledFCMService()
	if cfg.PushEnabled() {
		svc, err := services.NewFCMService(context.Background(), cfg.FirebaseCredentialsFile, cfg.FirebaseCredentialsJSON)
		if err != nil {
			log.Printf("⚠️  Erreur d'initialisation Firebase: %v", err)
			log.Println("⚠️  Le serveur démarre SANS notifications push")
		} else {
			fcmService = svc
			log.Println("✓ Firebase Cloud Messaging initialisé")
		}
	}

	slackService := services.NewSlackService(cfg.SlackWebhookURL)
	if !slackService.Enabled() {
		log.Println("⚠️  SLACK_WEBHOOK_URL absent, alertes Slack désactivées")
	}

	// Repositories
	userRepo := database.NewUserRepository(database.DB)
	providerRepo := database.NewProviderRepository(database.DB)
	offerRepo := database.NewOfferRepository(database.DB)
	artistRepo := database.NewArtistRepository(database.DB)
	smartLinkRepo := database.NewSmartLinkRepository(database.DB)
	reportRepo := database.NewReportRepository(database.DB)
	deviceRepo := database.NewDeviceRepository(database.DB)
	syncRunRepo := database.NewSyncRunRepository(database.DB)

	jsonCache := cache.NewJSONCache(redisClient, cfg.CacheTTL)

	// Hub WebSocket des notifications
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ Hub WebSocket initialisé et en cours d'exécution")

	notifier := services.NewNotifier(wsHub, deviceRepo, fcmService, slackService)

	// Synchronisation Salesforce
	var querier services.SalesforceQuerier
	if cfg.SalesforceEnabled() {
		querier = services.NewSalesforceClient(cfg.Salesforce)
		log.Printf("✓ Salesforce configuré (%s)", cfg.Salesforce.LoginURL)
	} else {
		log.Println("⚠️  Identifiants Salesforce absents, synchronisation désactivée")
	}
	syncService := services.NewSyncService(services.SyncDeps{
		Salesforce: querier,
		Providers:  providerRepo,
		Offers:     offerRepo,
		Runs:       syncRunRepo,
		Lock:       cache.NewLock(redisClient, services.SyncLockKey, cfg.Salesforce.LockTTL),
		Notifier:   notifier,
		Cache:      jsonCache,
	})

	var scheduler *services.SyncScheduler
	if syncService.Enabled() && cfg.Salesforce.SyncCron != "" {
		scheduler, err = services.NewSyncScheduler(syncService, cfg.Salesforce.SyncCron)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		scheduler.Start()
	}

	rateLimiter := services.NewRateLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)
	rateLimitStats := services.NewRateLimitStats(redisClient, cfg.RateLimitStatsRetention)

	// Handlers
	healthHandler := handlers.NewHealthHandler(cfg.Environment, map[string]handlers.HealthCheck{
		"mongodb": database.Ping,
		"redis": func(ctx context.Context) error {
			return cache.Ping(ctx, redisClient)
		},
	})
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	userHandler := handlers.NewUserHandler(userRepo)
	providerHandler := handlers.NewProviderHandler(providerRepo, offerRepo)
	offerHandler := handlers.NewOfferHandler(offerRepo, providerRepo, jsonCache, notifier)
	salesforceHandler := handlers.NewSalesforceHandler(syncService)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimitStats)
	artistHandler := handlers.NewArtistHandler(artistRepo, smartLinkRepo)
	smartLinkHandler := handlers.NewSmartLinkHandler(smartLinkRepo, artistRepo, jsonCache, notifier)
	reportHandler := handlers.NewReportHandler(reportRepo, jsonCache)
	deviceHandler := handlers.NewDeviceHandler(deviceRepo)
	wsHandler := websocket.NewHandler(wsHub, cfg.JWTSecret, cfg.CORSOrigins)

	// Créer le routeur
	router := mux.NewRouter()

	// Créer un routeur sans middleware pour WebSocket
	rawRouter := mux.NewRouter()

	// Appliquer les middlewares globaux (SAUF pour WebSocket)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging(slackService))
	router.Use(middleware.Metrics)
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.RateLimit(rateLimiter, rateLimitStats, cfg.JWTSecret))

	guest := middleware.Guest(cfg.JWTSecret)
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleManager)
	admin := middleware.RequireRole(models.RoleAdmin)

	const id = "{id:[0-9a-f]{24}}"

	// Routes publiques
	router.Handle("/api/auth/register", guest(http.HandlerFunc(authHandler.Register))).Methods("POST", "OPTIONS")
	router.Handle("/api/auth/login", guest(http.HandlerFunc(authHandler.Login))).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/api/public/smartlinks/{slug}", smartLinkHandler.PublicGet).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/public/smartlinks/{slug}/click", smartLinkHandler.Click).Methods("POST", "OPTIONS")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Routes protégées
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.Auth(cfg.JWTSecret))

	protected.HandleFunc("/auth/me", authHandler.Me).Methods("GET", "OPTIONS")

	// Utilisateurs (admin)
	protected.Handle("/users", admin(http.HandlerFunc(userHandler.List))).Methods("GET", "OPTIONS")
	protected.Handle("/users/"+id, admin(http.HandlerFunc(userHandler.Update))).Methods("PUT", "OPTIONS")
	protected.Handle("/users/"+id, admin(http.HandlerFunc(userHandler.Delete))).Methods("DELETE", "OPTIONS")

	// Prestataires
	protected.HandleFunc("/providers", providerHandler.List).Methods("GET", "OPTIONS")
	protected.Handle("/providers", staff(http.HandlerFunc(providerHandler.Create))).Methods("POST", "OPTIONS")
	protected.HandleFunc("/providers/"+id, providerHandler.Get).Methods("GET", "OPTIONS")
	protected.Handle("/providers/"+id, staff(http.HandlerFunc(providerHandler.Update))).Methods("PUT", "OPTIONS")
	protected.Handle("/providers/"+id, staff(http.HandlerFunc(providerHandler.Delete))).Methods("DELETE", "OPTIONS")

	// Offres
	protected.HandleFunc("/offers", offerHandler.List).Methods("GET", "OPTIONS")
	protected.Handle("/offers", staff(http.HandlerFunc(offerHandler.Create))).Methods("POST", "OPTIONS")
	protected.Handle("/offers/stats", staff(http.HandlerFunc(offerHandler.Stats))).Methods("GET", "OPTIONS")
	protected.HandleFunc("/offers/"+id, offerHandler.Get).Methods("GET", "OPTIONS")
	protected.Handle("/offers/"+id, staff(http.HandlerFunc(offerHandler.Update))).Methods("PUT", "OPTIONS")
	protected.Handle("/offers/"+id, staff(http.HandlerFunc(offerHandler.Delete))).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/offers/"+id+"/use", offerHandler.Use).Methods("POST", "OPTIONS")

	// Synchronisation Salesforce (admin)
	protected.Handle("/salesforce/sync/status", admin(http.HandlerFunc(salesforceHandler.Status))).Methods("GET", "OPTIONS")
	protected.Handle("/salesforce/sync/runs", admin(http.HandlerFunc(salesforceHandler.Runs))).Methods("GET", "OPTIONS")
	protected.Handle("/salesforce/sync/start", admin(http.HandlerFunc(salesforceHandler.Start))).Methods("POST", "OPTIONS")

	// Statistiques du rate limiter (admin)
	protected.Handle("/rate-limit/stats", admin(http.HandlerFunc(rateLimitHandler.Stats))).Methods("GET", "OPTIONS")

	// Artistes
	protected.HandleFunc("/artists", artistHandler.List).Methods("GET", "OPTIONS")
	protected.Handle("/artists", staff(http.HandlerFunc(artistHandler.Create))).Methods("POST", "OPTIONS")
	protected.HandleFunc("/artists/"+id, artistHandler.Get).Methods("GET", "OPTIONS")
	protected.Handle("/artists/"+id, staff(http.HandlerFunc(artistHandler.Update))).Methods("PUT", "OPTIONS")
	protected.Handle("/artists/"+id, staff(http.HandlerFunc(artistHandler.Delete))).Methods("DELETE", "OPTIONS")

	// Smartlinks
	protected.HandleFunc("/smartlinks", smartLinkHandler.List).Methods("GET", "OPTIONS")
	protected.Handle("/smartlinks", staff(http.HandlerFunc(smartLinkHandler.Create))).Methods("POST", "OPTIONS")
	protected.Handle("/smartlinks/stats", staff(http.HandlerFunc(smartLinkHandler.Stats))).Methods("GET", "OPTIONS")
	protected.HandleFunc("/smartlinks/"+id, smartLinkHandler.Get).Methods("GET", "OPTIONS")
	protected.Handle("/smartlinks/"+id, staff(http.HandlerFunc(smartLinkHandler.Update))).Methods("PUT", "OPTIONS")
	protected.Handle("/smartlinks/"+id, staff(http.HandlerFunc(smartLinkHandler.Delete))).Methods("DELETE", "OPTIONS")

	// Reporting
	protected.HandleFunc("/reports/events", reportHandler.Ingest).Methods("POST", "OPTIONS")
	protected.Handle("/reports/events", staff(http.HandlerFunc(reportHandler.List))).Methods("GET", "OPTIONS")
	protected.Handle("/reports/summary", staff(http.HandlerFunc(reportHandler.Summary))).Methods("GET", "OPTIONS")

	// Appareils FCM
	protected.HandleFunc("/devices", deviceHandler.Register).Methods("POST", "OPTIONS")
	protected.HandleFunc("/devices/{token}", deviceHandler.Delete).Methods("DELETE", "OPTIONS")

	// 🔌 WebSocket des notifications: la route doit être sur rawRouter pour éviter le wrapping du ResponseWriter
	rawRouter.HandleFunc(wsPath, wsHandler.ServeWS).Methods("GET")

	mainHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == wsPath {
			rawRouter.ServeHTTP(w, r)
			return
		}
		router.ServeHTTP(w, r)
	})

	// Démarrer le serveur
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           mainHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Serveur démarré sur http://%s", addr)
		log.Printf("📝 Environnement: %s", cfg.Environment)
		log.Printf("🗄️  Base de données: MongoDB (%s)", cfg.MongoDB)
		log.Printf("🚦 Rate limit: %d requêtes / %s", cfg.RateLimitMax, cfg.RateLimitWindow)
		log.Println("\n✨ Le serveur est prêt à recevoir des requêtes!")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Erreur du serveur: %v", err)
		}
	}()

	// Attendre le signal d'arrêt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Arrêt du serveur...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Erreur lors de l'arrêt du serveur: %v", err)
	}
	if scheduler != nil {
		select {
		case <-scheduler.Stop().Done():
		case <-ctx.Done():
		}
	}
	// laisser une synchronisation en cours se terminer et libérer le verrou
	syncService.Wait()
	wsHub.Shutdown()
	log.Println("✓ Serveur arrêté proprement")
}
