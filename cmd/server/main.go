package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ardiansyah/talent-match/internal/cache"
	"github.com/ardiansyah/talent-match/internal/config"
	"github.com/ardiansyah/talent-match/internal/domain/fiber/handler"
	"github.com/ardiansyah/talent-match/internal/middleware"
	"github.com/ardiansyah/talent-match/internal/model"
	"github.com/ardiansyah/talent-match/internal/queue"
	"github.com/ardiansyah/talent-match/internal/repository"
	"github.com/ardiansyah/talent-match/internal/service"
	"github.com/ardiansyah/talent-match/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	queueConfig := config.LoadQueueConfig()
	cacheConfig := config.LoadCacheConfig()

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: appConfig.Env != "production",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(pprof.New(pprof.Config{
		Next: func(c *fiber.Ctx) bool {
			return appConfig.Env != "production"
		},
	}))
	app.Use(healthcheck.New())
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	db := ConnectDB()
	clk := clock.New()

	repos := repository.NewRepos(db)
	txm := repository.NewTxManager(db)

	gemini, err := service.NewGeminiService(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	openRouter := service.NewOpenRouterService()
	compute := service.NewComputeService(gemini, openRouter)

	policy := cache.NewPolicy(cacheConfig, clk)
	store := queue.NewGormStore(db)
	manager := queue.NewManager(store, queueConfig, clk)

	embeddingUC := usecase.NewEmbeddingUsecase(repos, manager, policy, compute, clk)
	scoreUC := usecase.NewScoreUsecase(repos, manager, policy, compute, clk)
	comparisonUC := usecase.NewComparisonUsecase(repos, manager, policy, compute, clk)
	resumeUC := usecase.NewResumeUsecase(repos, txm, manager, clk)
	postingUC := usecase.NewJobPostingUsecase(repos, txm, manager, clk)

	handler.NewResumeHandler(resumeUC, embeddingUC, scoreUC, comparisonUC, postingUC).RegisterRoutes(app)
	handler.NewJobPostingHandler(postingUC, embeddingUC).RegisterRoutes(app)
	handler.NewJobHandler(manager).RegisterRoutes(app)

	bgCtx, cancel := context.WithCancel(context.Background())

	pools := []*queue.Pool{
		queue.NewPool([]string{config.KindResumeEmbedding}, queueConfig.Kinds[config.KindResumeEmbedding],
			queueConfig.PollInterval, store, embeddingUC.ProcessResumeEmbedding, clk),
		queue.NewPool([]string{config.KindJobPostingEmbedding}, queueConfig.Kinds[config.KindJobPostingEmbedding],
			queueConfig.PollInterval, store, embeddingUC.ProcessJobPostingEmbedding, clk),
		queue.NewPool([]string{config.KindResumeScoring}, queueConfig.Kinds[config.KindResumeScoring],
			queueConfig.PollInterval, store, scoreUC.ProcessResumeScore, clk),
		queue.NewPool([]string{config.KindResumeComparison}, queueConfig.Kinds[config.KindResumeComparison],
			queueConfig.PollInterval, store, comparisonUC.ProcessComparison, clk),
	}
	for _, pool := range pools {
		pool.Start(bgCtx)
	}

	sweeper := cache.NewSweeper(cacheConfig, clk)
	sweeper.Track("resume_embeddings", repos.ResumeEmbeddings, cacheConfig.EmbeddingExpiry)
	sweeper.Track("job_posting_embeddings", repos.JobPostingEmbeddings, cacheConfig.EmbeddingExpiry)
	sweeper.Track("resume_scores", repos.ResumeScores, cacheConfig.ScoreExpiry)
	sweeper.Track("resume_job_comparisons", repos.Comparisons, cacheConfig.ComparisonExpiry)
	go sweeper.Run(bgCtx)
	go manager.RunPruner(bgCtx)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}
	}()

	log.Println("Server running on", appConfig.Port)
	if err := app.Listen(appConfig.Port); err != nil {
		log.Fatal(err)
	}

	// The server stopped accepting requests; let in-flight jobs finish.
	cancel()
	for _, pool := range pools {
		pool.Stop()
	}
}

func ConnectDB() *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=Asia/Jakarta",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		log.Fatalf("Could not get database instance: %v", err)
	}
	if appConfig.Env != "production" {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		log.Fatal("pgvector extension: ", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("uuid extension: ", err)
	}

	err = db.AutoMigrate(
		&model.Resume{},
		&model.JobPosting{},
		&model.ResumeEmbedding{},
		&model.JobPostingEmbedding{},
		&model.ResumeScore{},
		&model.ResumeJobComparison{},
		&model.QueueJob{},
	)
	if err != nil {
		log.Fatal("migration failed: ", err)
	}
	return db
}
