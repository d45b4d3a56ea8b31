package usecase

import (
	"context"
	"log"
	"time"

	"skill-board/internal/infrastructure/cache"
	"skill-board/internal/repository"

	"github.com/google/uuid"
)

const skillListCacheKey = "skills:list"

type SkillItem struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SkillUsecase serves the full skill list used to populate the modal option
// pickers.
type SkillUsecase interface {
	ListSkills(ctx context.Context) ([]SkillItem, error)
	InvalidateList(ctx context.Context)
}

type Skill struct {
	repo   repository.SkillRepository
	cache  *cache.Redis
	logger *log.Logger
}

func NewSkillUsecase(repo repository.SkillRepository, c *cache.Redis, logger *log.Logger) *Skill {
	return &Skill{repo: repo, cache: c, logger: logger}
}

func (u *Skill) ListSkills(ctx context.Context) ([]SkillItem, error) {
	var cached []SkillItem
	if hit, err := u.cache.GetJSON(ctx, skillListCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	items, err := u.repo.GetAllSkills(ctx)
	if err != nil {
		return nil, ErrInternal
	}

	out := make([]SkillItem, 0, len(items))
	for _, it := range items {
		out = append(out, SkillItem{ID: it.ID, Name: it.Name})
	}

	if err := u.cache.SetJSON(ctx, skillListCacheKey, out, 10*time.Minute); err != nil && u.logger != nil {
		u.logger.Printf("[Skills] cache set failed: %v", err)
	}
	return out, nil
}

// InvalidateList drops the cached option list after a new skill is created.
func (u *Skill) InvalidateList(ctx context.Context) {
	if err := u.cache.Delete(ctx, skillListCacheKey); err != nil && u.logger != nil {
		u.logger.Printf("[Skills] cache invalidate failed: %v", err)
	}
}

var _ SkillUsecase = (*Skill)(nil)
