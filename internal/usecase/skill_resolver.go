package usecase

import (
	"context"
	"errors"
	"sync"

	"skill-board/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
)

// SkillResolver maps canonical skill names to stable skill ids, creating a
// skill at most once per name.
type SkillResolver interface {
	ResolveOrCreate(ctx context.Context, name string) (uuid.UUID, error)
	Resolve(ctx context.Context, name string) (uuid.UUID, error)
	ResolveMany(ctx context.Context, names []string) (map[string]uuid.UUID, error)
}

type Resolver struct {
	repo      repository.SkillRepository
	onCreated func(repository.Skill)
}

// NewSkillResolver builds a resolver. onCreated fires once per skill this
// process creates (cache invalidation, live feed); it may be nil.
func NewSkillResolver(repo repository.SkillRepository, onCreated func(repository.Skill)) *Resolver {
	return &Resolver{repo: repo, onCreated: onCreated}
}

// ResolveOrCreate looks the name up and creates the skill if absent. The
// lookup-then-create sequence is advisory: losing a creation race surfaces
// as a unique violation on skills.name, which is recovered by a fresh
// lookup returning the winner's id.
func (r *Resolver) ResolveOrCreate(ctx context.Context, name string) (uuid.UUID, error) {
	name = Canonicalize(name)
	if name == "" {
		return uuid.Nil, ErrInvalidInput
	}

	existing, err := r.repo.FindByName(ctx, name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, repository.ErrSkillNotFound) {
		return uuid.Nil, ErrInternal
	}

	created, err := r.repo.CreateSkill(ctx, name)
	if err == nil {
		if r.onCreated != nil {
			r.onCreated(created)
		}
		return created.ID, nil
	}
	if !isUniqueViolation(err) {
		return uuid.Nil, ErrInternal
	}

	winner, err := r.repo.FindByName(ctx, name)
	if err != nil {
		return uuid.Nil, ErrInternal
	}
	return winner.ID, nil
}

// Resolve is lookup-only; a search must not invent skills.
func (r *Resolver) Resolve(ctx context.Context, name string) (uuid.UUID, error) {
	name = Canonicalize(name)
	if name == "" {
		return uuid.Nil, ErrInvalidInput
	}

	existing, err := r.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrSkillNotFound) {
			return uuid.Nil, ErrSkillNotFound
		}
		return uuid.Nil, ErrInternal
	}
	return existing.ID, nil
}

// ResolveMany resolves a batch concurrently. Input is deduplicated first so
// one batch never races itself on a new name.
func (r *Resolver) ResolveMany(ctx context.Context, names []string) (map[string]uuid.UUID, error) {
	unique := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		key := Canonicalize(n)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}

	out := make(map[string]uuid.UUID, len(unique))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range unique {
		g.Go(func() error {
			id, err := r.ResolveOrCreate(gctx, key)
			if err != nil {
				return err
			}
			mu.Lock()
			out[key] = id
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ SkillResolver = (*Resolver)(nil)
