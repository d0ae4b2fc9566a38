package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"task-system/internal/controllers"
	"task-system/internal/repositories"
	"task-system/internal/services"
	"task-system/pkg/config"
	"task-system/pkg/eventbus"
	"task-system/pkg/middleware"
	"task-system/pkg/service"
)

// InitRouter собирает весь граф зависимостей: репозитории -> сервисы ->
// контроллеры -> маршруты. Единственное место, где слои знают друг о друге.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, logger *zap.Logger, cfg *config.Config) {
	logger.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)
	cronMW := middleware.NewCronAuth(cfg.Scheduler.CronToken, logger)
	txManager := repositories.NewTxManager(dbConn)
	bus := eventbus.New(logger)

	// --- РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, logger)
	teamRepo := repositories.NewTeamRepository(dbConn)
	categoryRepo := repositories.NewCategoryRepository(dbConn)
	requestRepo := repositories.NewRequestRepository(dbConn)
	taskRepo := repositories.NewTaskRepository(dbConn, logger)
	slaPauseRepo := repositories.NewSlaPauseRepository(dbConn)
	assignLogRepo := repositories.NewAssignmentLogRepository(dbConn)
	notificationRepo := repositories.NewNotificationRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- СЕРВИСЫ ---
	notificationService := services.NewNotificationService(notificationRepo, bus, logger)
	workloadService := services.NewWorkloadService(taskRepo, userRepo, cfg.Balancer, logger)
	scorerService := services.NewScorerService(workloadService, taskRepo, assignLogRepo, cfg.Balancer, logger)
	balancerService := services.NewBalancerService(
		taskRepo, userRepo, categoryRepo, assignLogRepo,
		workloadService, scorerService, notificationService,
		cfg.Balancer, logger,
	)
	deadlineService := services.NewDeadlineService(taskRepo, categoryRepo, cacheRepo, cfg.Scheduler, logger)
	slaPauseService := services.NewSlaPauseService(taskRepo, slaPauseRepo, txManager, logger)
	schedulerService := services.NewSchedulerService(
		taskRepo, categoryRepo, teamRepo, userRepo,
		cacheRepo, notificationService, cfg.Scheduler, logger,
	)

	authService := services.NewAuthService(userRepo, jwtSvc, logger)
	userService := services.NewUserService(userRepo, slaPauseService, logger)
	teamService := services.NewTeamService(teamRepo, userRepo, logger)
	categoryService := services.NewCategoryService(categoryRepo, teamRepo, logger)
	requestService := services.NewRequestService(requestRepo, categoryRepo, userRepo, logger)
	taskService := services.NewTaskService(
		taskRepo, requestRepo, categoryRepo, userRepo,
		deadlineService, balancerService, logger,
	)

	// --- КОНТРОЛЛЕРЫ ---
	authController := controllers.NewAuthController(authService, logger)
	userController := controllers.NewUserController(userService, logger)
	teamController := controllers.NewTeamController(teamService, logger)
	categoryController := controllers.NewCategoryController(categoryService, deadlineService, logger)
	requestController := controllers.NewRequestController(requestService, logger)
	taskController := controllers.NewTaskController(taskService, slaPauseService, logger)
	balancerController := controllers.NewBalancerController(balancerService, logger)
	schedulerController := controllers.NewSchedulerController(schedulerService, logger)
	notificationController := controllers.NewNotificationController(notificationService, logger)

	// --- МАРШРУТЫ ---
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, authController)
	runUserRouter(secureGroup, userController)
	runTeamRouter(secureGroup, teamController)
	runCategoryRouter(secureGroup, categoryController)
	runRequestRouter(secureGroup, requestController)
	runTaskRouter(secureGroup, taskController)
	runBalancerRouter(secureGroup, balancerController)
	runNotificationRouter(secureGroup, notificationController)
	runSchedulerRouter(e, schedulerController, cronMW)

	logger.Info("InitRouter: Создание маршрутов завершено")
}
