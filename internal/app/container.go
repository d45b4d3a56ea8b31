package app

import (
	"context"
	"log"
	"time"

	"skill-board/internal/config"
	"skill-board/internal/database"
	"skill-board/internal/database/migration"
	dbpostgres "skill-board/internal/database/postgres"
	"skill-board/internal/infrastructure/cache"
	"skill-board/internal/infrastructure/slack"
	"skill-board/internal/repository"
	"skill-board/internal/usecase"
	"skill-board/internal/ws"
)

type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Cache *cache.Redis
	Slack *slack.Client
	Hub   *ws.Hub

	Skills      repository.SkillRepository
	Users       repository.UserRepository
	SkillList   usecase.SkillUsecase
	Submissions usecase.SubmissionUsecase
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := migration.Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	for table, columns := range map[string][]string{
		"skills":      {"id", "name"},
		"users":       {"id"},
		"user_skills": {"user_id", "skill_id"},
	} {
		if err := migration.EnsureTableColumns(ctx, db, table, columns...); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	redisCache := cache.NewRedis(cfg.Redis, logger)
	slackClient := slack.NewClient(cfg.Slack, logger)

	hub := ws.NewHub(logger)
	ws.SetDefaultHub(hub)
	go hub.Run()

	skillRepo := repository.NewPostgresSkillRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)

	skillList := usecase.NewSkillUsecase(skillRepo, redisCache, logger)
	resolver := usecase.NewSkillResolver(skillRepo, func(s repository.Skill) {
		skillList.InvalidateList(context.Background())
		ws.NotifySkillCreated(s.Name)
	})

	submissions := usecase.NewSubmissionUsecase(resolver, userRepo, slackClient, slackClient, slackClient, logger)

	return &Container{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Cache:       redisCache,
		Slack:       slackClient,
		Hub:         hub,
		Skills:      skillRepo,
		Users:       userRepo,
		SkillList:   skillList,
		Submissions: submissions,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
