package main

import (
	"log"
	"quizserver/config"
	"quizserver/controllers/certificateControllers"
	"quizserver/controllers/userControllers"
	"quizserver/database"
	adminRoutes "quizserver/routers/adminRoutes"
	certificateRoutes "quizserver/routers/certificateRoutes"
	userRoutes "quizserver/routers/userRoutes"
	certservice "quizserver/services/certificate"
	"quizserver/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	renderer := certservice.NewPNGRenderer(
		config.AppConfig.CertDir,
		config.AppConfig.CertURLPrefix,
		config.AppConfig.CertFont,
	)
	engine := certservice.NewEngine(database.Database.Db, renderer)
	userControllers.Init(engine)
	certificateControllers.Init(engine)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Generated certificates are served statically so a stored filePath is
	// directly usable as a download link
	app.Static(config.AppConfig.CertURLPrefix, config.AppConfig.CertDir)

	userRoutes.SetupUserRoutes(app)
	certificateRoutes.SetupCertificateRoutes(app)
	adminRoutes.SetupAdminRoutes(app)

	utils.StartStatsScheduler()

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
