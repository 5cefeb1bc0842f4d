package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nmarofsky/DatingApp/internal/config"
	"github.com/nmarofsky/DatingApp/internal/database"
	"github.com/nmarofsky/DatingApp/internal/migration"
	pkglogger "github.com/nmarofsky/DatingApp/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "config file path (default configs/config.<APP_ENV>.yaml)")
	seed := flag.Bool("seed", false, "insert the development users when the users table is empty")
	clearConnections := flag.Bool("clear-connections", false, "delete all hub connection rows; only while no instance is running")
	flag.Parse()

	config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	log := pkglogger.GetLogger()

	path := *configPath
	if path == "" {
		path = fmt.Sprintf("configs/config.%s.yaml", env)
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("config", path).Msg("failed to load config")
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to connect to database")
	}

	if err := migration.Run(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("schema up to date")

	if *clearConnections {
		removed, err := migration.ClearConnections(db)
		if err != nil {
			log.Fatal().Err(err).Msg("clear connections failed")
		}
		log.Info().Int64("removed", removed).Msg("cleared connections")
	}

	if *seed {
		if err := migration.SeedUsers(db, migration.DevUsers()); err != nil {
			log.Fatal().Err(err).Msg("seed users failed")
		}
		log.Info().Msg("seeded users")
	}
}
