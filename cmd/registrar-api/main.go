package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/academica/registrar-api/api/swagger"
	"github.com/academica/registrar-api/internal/handler"
	"github.com/academica/registrar-api/internal/middleware"
	"github.com/academica/registrar-api/internal/migrations"
	"github.com/academica/registrar-api/internal/repository"
	"github.com/academica/registrar-api/internal/service"
	"github.com/academica/registrar-api/pkg/cache"
	"github.com/academica/registrar-api/pkg/config"
	"github.com/academica/registrar-api/pkg/database"
	"github.com/academica/registrar-api/pkg/jobs"
	"github.com/academica/registrar-api/pkg/logger"
	corsmiddleware "github.com/academica/registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/academica/registrar-api/pkg/middleware/requestid"
	"github.com/academica/registrar-api/pkg/storage"
)

// @title Registrar API
// @version 1.0.0
// @description Academic records service: catalog, enrollment and reporting
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if cfg.Migrate.Auto {
		migrator := migrations.NewMigrator(db, logr)
		if err := migrator.Apply(ctx, migrations.Schema()); err != nil {
			logr.Sugar().Fatalw("failed to apply migrations", "error", err)
		}
		if cfg.Migrate.Seed {
			if err := migrations.Seed(ctx, db); err != nil {
				logr.Sugar().Fatalw("failed to seed sample data", "error", err)
			}
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	departmentRepo := repository.NewDepartmentRepository(db)
	programRepo := repository.NewProgramRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	reportingRepo := repository.NewReportingRepository(db)

	metricsSvc := service.NewMetricsService()

	departmentSvc := service.NewDepartmentService(departmentRepo, nil, logr)
	programSvc := service.NewProgramService(programRepo, departmentRepo, nil, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, departmentRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, departmentRepo, nil, logr)
	offeringSvc := service.NewOfferingService(offeringRepo, courseRepo, instructorRepo, nil, logr)
	studentSvc := service.NewStudentService(studentRepo, programRepo, nil, logr)
	reportingSvc := service.NewReportingService(reportingRepo, cacheRepo, metricsSvc, cfg.Reporting.CacheTTL, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, offeringRepo, reportingSvc, nil, logr)

	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	programHandler := handler.NewProgramHandler(programSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	offeringHandler := handler.NewOfferingHandler(offeringSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	reportingHandler := handler.NewReportingHandler(reportingSvc)

	var exportHandler *handler.ExportHandler
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportJobRepo := repository.NewExportJobRepository(db)
		exportSvc := service.NewExportService(exportJobRepo, reportingSvc, store, signer, metricsSvc, nil, logr)

		exportQueue = jobs.NewQueue("exports", exportSvc.Process, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportSvc.AttachQueue(exportQueue)
		exportQueue.Start(ctx)

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					exportSvc.Cleanup(ctx, cfg.Exports.SignedURLTTL)
				}
			}
		}()

		exportHandler = handler.NewExportHandler(exportSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	departments := api.Group("/departments")
	departments.GET("", departmentHandler.List)
	departments.POST("", departmentHandler.Create)
	departments.GET("/:id", departmentHandler.Get)
	departments.PUT("/:id", departmentHandler.Update)
	departments.DELETE("/:id", departmentHandler.Delete)

	programs := api.Group("/programs")
	programs.GET("", programHandler.List)
	programs.POST("", programHandler.Create)
	programs.GET("/:id", programHandler.Get)
	programs.PUT("/:id", programHandler.Update)
	programs.DELETE("/:id", programHandler.Delete)

	instructors := api.Group("/instructors")
	instructors.GET("", instructorHandler.List)
	instructors.POST("", instructorHandler.Create)
	instructors.GET("/:id", instructorHandler.Get)
	instructors.PUT("/:id", instructorHandler.Update)
	instructors.DELETE("/:id", instructorHandler.Delete)

	courses := api.Group("/courses")
	courses.GET("", courseHandler.List)
	courses.POST("", courseHandler.Create)
	courses.GET("/:id", courseHandler.Get)
	courses.PUT("/:id", courseHandler.Update)
	courses.DELETE("/:id", courseHandler.Delete)
	courses.GET("/:id/prerequisites", courseHandler.ListPrerequisites)
	courses.POST("/:id/prerequisites", courseHandler.AddPrerequisite)
	courses.DELETE("/:id/prerequisites/:prerequisiteId", courseHandler.RemovePrerequisite)

	offerings := api.Group("/offerings")
	offerings.GET("", offeringHandler.List)
	offerings.POST("", offeringHandler.Create)
	offerings.GET("/:id", offeringHandler.Get)
	offerings.PUT("/:id", offeringHandler.Update)
	offerings.DELETE("/:id", offeringHandler.Delete)

	students := api.Group("/students")
	students.GET("", studentHandler.List)
	students.POST("", studentHandler.Create)
	students.GET("/:id", studentHandler.Get)
	students.PUT("/:id", studentHandler.Update)
	students.DELETE("/:id", studentHandler.Delete)
	students.POST("/:id/addresses", studentHandler.AddAddress)
	students.DELETE("/:id/addresses/:addressId", studentHandler.RemoveAddress)
	students.POST("/:id/programs", studentHandler.LinkProgram)
	students.DELETE("/:id/programs/:programId", studentHandler.UnlinkProgram)

	enrollments := api.Group("/enrollments")
	enrollments.GET("", enrollmentHandler.List)
	enrollments.POST("", enrollmentHandler.Enroll)
	enrollments.GET("/:id", enrollmentHandler.Get)
	enrollments.DELETE("/:id", enrollmentHandler.Delete)
	enrollments.POST("/:id/drop", enrollmentHandler.Drop)
	enrollments.POST("/:id/withdraw", enrollmentHandler.Withdraw)
	enrollments.POST("/:id/complete", enrollmentHandler.Complete)
	enrollments.PUT("/:id/grade", enrollmentHandler.SetGrade)

	reports := api.Group("/reports")
	reports.GET("/roster", reportingHandler.Roster)
	reports.GET("/transcript/:id", reportingHandler.Transcript)
	reports.GET("/gpa", reportingHandler.GPA)
	reports.GET("/gpa/:id", reportingHandler.GPA)

	if exportHandler != nil {
		exports := api.Group("/exports")
		exports.POST("", exportHandler.Create)
		exports.GET("/:id", exportHandler.Get)
		exports.GET("/download/:token", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown", "error", err)
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
