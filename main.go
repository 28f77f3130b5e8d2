package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pubtrack/config"
	"pubtrack/models"
	"pubtrack/providers"
	"pubtrack/providers/entrez"
	"pubtrack/providers/reporter"
	"pubtrack/roster"
	"pubtrack/services"
	"pubtrack/storage"
	"pubtrack/store"
)

var (
	harvestRunsCounter   prometheus.Counter
	failedFacultyCounter prometheus.Counter
)

func init() {
	harvestRunsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harvest_runs_total",
		Help: "Total number of completed harvest runs.",
	})
	failedFacultyCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harvest_failed_faculty_total",
		Help: "Total number of faculty members whose harvest cycle failed.",
	})
	prometheus.MustRegister(harvestRunsCounter, failedFacultyCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	once := flag.Bool("once", false, "run a single harvest and exit; exit status reflects failed faculty")
	flag.Parse()

	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	st := store.New(db, logging)
	if err := st.AutoMigrate(); err != nil {
		logging.Fatal("Database auto-migration failed", zap.Error(err))
	}

	// Einmaliger Import der historischen Kurations-Listen. Läuft nie
	// wieder, sobald irgendein Urteil existiert.
	if err := st.SeedLegacyCuration(cfg.LegacySeedPath); err != nil {
		logging.Fatal("Legacy curation seeding failed", zap.Error(err))
	}

	client := providers.NewClient(cfg.HTTPTimeout, providers.RetryPolicy{
		MaxAttempts: cfg.RetryAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
	}, logging)
	entrezFetcher := entrez.NewFetcher(cfg, client, logging)
	reporterFetcher := reporter.NewFetcher(cfg, client, logging)

	harvester := services.NewHarvester(cfg, st, entrezFetcher, reporterFetcher, logging)

	runHarvest := func(ctx context.Context) int {
		faculty, err := roster.Load(cfg.RosterPath)
		if err != nil {
			logging.Error("Failed to load roster", zap.Error(err))
			return 1
		}
		result, err := harvester.Run(ctx, faculty)
		if err != nil {
			logging.Error("Harvest run failed", zap.Error(err))
			return 1
		}
		harvestRunsCounter.Inc()
		failedFacultyCounter.Add(float64(result.Failed))

		data, err := services.WriteDataset(cfg.OutputPath, result.Dataset)
		if err != nil {
			logging.Error("Failed to write dataset", zap.Error(err))
			return result.Failed + 1
		}
		logging.Info("Dataset written", zap.String("path", cfg.OutputPath), zap.Int("faculty", len(result.Dataset.Faculty)))

		if cfg.S3Enabled {
			s3Client, err := storage.NewS3Client(cfg)
			if err != nil {
				logging.Error("S3 client creation failed", zap.Error(err))
			} else if link, err := storage.UploadDataset(ctx, s3Client, cfg, "publications.json", data); err != nil {
				logging.Error("Dataset S3 upload failed", zap.Error(err))
			} else {
				logging.Info("Dataset uploaded", zap.String("link", link))
			}
		}
		return result.Failed
	}

	if *once {
		failed := runHarvest(context.Background())
		logging.Sync()
		if failed > 0 {
			log.Fatalf("harvest finished with %d failed faculty members", failed)
		}
		return
	}

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	setupDatasetRoutes(router, cfg)
	setupCurationRoutes(router, st, logging)
	setupHarvestRoutes(router, runHarvest, logging)

	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled harvest...")
		failed := runHarvest(context.Background())
		logging.Info("Scheduled harvest completed", zap.Int("failed_faculty", failed))
	})
	cronScheduler.Start()

	if cfg.RunOnStart {
		go func() {
			logging.Info("Running initial harvest on start...")
			runHarvest(context.Background())
		}()
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// setupDatasetRoutes liefert das zuletzt geschriebene Ausgabedokument aus.
// Die eigentliche Präsentationsschicht liest nur diese Datei.
func setupDatasetRoutes(router *gin.Engine, cfg *config.Config) {
	router.GET("/dataset", func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		c.File(cfg.OutputPath)
	})
}

// setupCurationRoutes ist der Schreibpfad für menschliche Urteile. Er
// liegt bewusst außerhalb der Pipeline: die Pipeline liest Urteile nur.
func setupCurationRoutes(router *gin.Engine, st *store.Store, log *zap.Logger) {
	rg := router.Group("/curation")

	rg.POST("/", func(c *gin.Context) {
		var req struct {
			FacultyID string `json:"faculty_id" binding:"required"`
			PMID      string `json:"pmid" binding:"required"`
			Verdict   string `json:"verdict" binding:"required"`
			Reason    string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "faculty_id, pmid and verdict are required"})
			return
		}
		if req.Verdict != models.VerdictTruePositive && req.Verdict != models.VerdictFalsePositive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "verdict must be true_positive or false_positive"})
			return
		}
		if err := st.SetVerdict(req.FacultyID, req.PMID, req.Verdict, req.Reason); err != nil {
			log.Error("Failed to save curation verdict", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "verdict saved"})
	})

	rg.GET("/:facultyID", func(c *gin.Context) {
		rows, err := st.CurationList(c.Param("facultyID"))
		if err != nil {
			log.Error("Failed to load curation verdicts", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})
}

// setupHarvestRoutes erlaubt das asynchrone Anstoßen eines Laufs.
func setupHarvestRoutes(router *gin.Engine, runHarvest func(context.Context) int, log *zap.Logger) {
	router.POST("/harvest/run", func(c *gin.Context) {
		go func() {
			failed := runHarvest(context.Background())
			log.Info("Async harvest completed", zap.Int("failed_faculty", failed))
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Harvest triggered."})
	})
}
