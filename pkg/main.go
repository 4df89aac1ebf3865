package main

import (
	"os"
	"os/signal"
	"syscall"

	pkg "github.com/amaurycid/messenger/pkg/internal"
	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/grpc"
	"github.com/amaurycid/messenger/pkg/internal/http"
	"github.com/amaurycid/messenger/pkg/internal/services"
	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	color.New(color.FgHiCyan).Printf("Messenger v%s\n", pkg.AppVersion)

	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Connect to database
	if err := database.NewSource(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	} else if err := database.RunMigration(database.C); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Build the bot registry. Handlers and packages register once here,
	// before anything can take requests.
	registry := services.NewBotRegistry()
	if err := registry.Register(services.ReplyBotHandler{}); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when registering bot handlers.")
	}
	services.SetupBots(registry)

	// Connect external services
	if len(viper.GetString("calling.endpoint")) > 0 {
		services.SetupLiveKit()
	}
	if err := services.SetupBroadcaster(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connecting to broadcaster.")
	}

	// Server
	http.NewServer()
	go http.Listen()

	rpc := grpc.NewGrpc()
	go func() {
		if err := rpc.Listen(); err != nil {
			log.Fatal().Err(err).Msg("An error occurred when starting grpc server.")
		}
	}()

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	quartz.AddFunc("@every 60m", services.DoAutoDatabaseCleanup)
	quartz.Start()

	log.Info().Msgf("Messenger v%s is started...", pkg.AppVersion)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msgf("Messenger v%s is quitting...", pkg.AppVersion)

	quartz.Stop()
}
