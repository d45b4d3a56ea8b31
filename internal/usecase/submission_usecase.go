package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"skill-board/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Notifier delivers the outcome text to the submitting user. The Submission
// usecase is the only component that talks to it.
type Notifier interface {
	Notify(ctx context.Context, userID string, text string) error
}

// Dismisser clears a pending form via its response URL.
type Dismisser interface {
	Dismiss(ctx context.Context, responseURL string) error
}

// UserDirectory resolves a platform user id to a display name.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

type DeclareInput struct {
	UserID             string
	SelectedSkillNames []string
	NewSkillsText      string
	ResponseURLs       []string
}

type FindInput struct {
	UserID            string
	TeamID            string
	SelectedSkillName string
}

type OutcomeKind string

const (
	OutcomeAdded         OutcomeKind = "added"
	OutcomeUpdated       OutcomeKind = "updated"
	OutcomeSkillNotFound OutcomeKind = "skill_not_found"
	OutcomeNoHolders     OutcomeKind = "no_holders"
	OutcomeHolderList    OutcomeKind = "holder_list"
)

type Holder struct {
	UserID      string
	DisplayName string
	Link        string
}

// Outcome is the single terminal value of a flow. SkillName carries the
// user-facing (non-canonicalized) name for the find outcomes. Holder order
// is not guaranteed stable.
type Outcome struct {
	Kind      OutcomeKind
	SkillName string
	Holders   []Holder
}

func (o Outcome) Text() string {
	switch o.Kind {
	case OutcomeAdded:
		return "Your skills were added successfully!"
	case OutcomeUpdated:
		return "Skills updated successfully!"
	case OutcomeSkillNotFound:
		return fmt.Sprintf("Skill not found in database '%s'.", o.SkillName)
	case OutcomeNoHolders:
		return fmt.Sprintf("No users found with the skill '%s'.", o.SkillName)
	case OutcomeHolderList:
		lines := make([]string, 0, len(o.Holders))
		for _, h := range o.Holders {
			lines = append(lines, fmt.Sprintf("- <%s|%s>", h.Link, h.DisplayName))
		}
		return fmt.Sprintf("Users with the skill '%s':\n%s", o.SkillName, strings.Join(lines, "\n"))
	}
	return ""
}

type SubmissionUsecase interface {
	DeclareSkills(ctx context.Context, in DeclareInput) (Outcome, error)
	FindHolders(ctx context.Context, in FindInput) (Outcome, error)
}

type Submission struct {
	resolver  SkillResolver
	users     repository.UserRepository
	notifier  Notifier
	dismisser Dismisser
	directory UserDirectory
	logger    *log.Logger
}

func NewSubmissionUsecase(
	resolver SkillResolver,
	users repository.UserRepository,
	notifier Notifier,
	dismisser Dismisser,
	directory UserDirectory,
	logger *log.Logger,
) *Submission {
	return &Submission{
		resolver:  resolver,
		users:     users,
		notifier:  notifier,
		dismisser: dismisser,
		directory: directory,
		logger:    logger,
	}
}

// DeclareSkills runs the declare flow: collect and canonicalize the
// submitted names, resolve them to ids, merge into the user's set, notify
// and dismiss any pending forms. Store errors abort before any
// notification; the merge is a single additive call, so it never applies
// partially from the caller's point of view.
//
// An empty submission touches neither the resolver nor the store, so the
// user's existence is unknown at that point. It deliberately reports the
// updated wording either way rather than reading the store just to pick a
// verb.
func (u *Submission) DeclareSkills(ctx context.Context, in DeclareInput) (Outcome, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Outcome{}, ErrInvalidInput
	}

	names := CollectSkillNames(in.SelectedSkillNames, in.NewSkillsText)

	outcome := Outcome{Kind: OutcomeUpdated}
	if len(names) > 0 {
		existed, err := u.users.Exists(ctx, in.UserID)
		if err != nil {
			u.logf("declare: user lookup failed: %v", err)
			return Outcome{}, ErrInternal
		}

		resolved, err := u.resolver.ResolveMany(ctx, names)
		if err != nil {
			u.logf("declare: skill resolution failed: %v", err)
			return Outcome{}, ErrInternal
		}

		ids := make([]uuid.UUID, 0, len(resolved))
		for _, id := range resolved {
			ids = append(ids, id)
		}

		if err := u.users.MergeSkills(ctx, in.UserID, ids); err != nil {
			u.logf("declare: merge failed: %v", err)
			return Outcome{}, ErrInternal
		}

		if !existed {
			outcome.Kind = OutcomeAdded
		}
	}

	u.notify(ctx, in.UserID, outcome.Text())
	u.dismissAll(ctx, in.ResponseURLs)
	return outcome, nil
}

// FindHolders runs the find flow. The lookup never creates a skill; a
// search for an unknown name must leave the skill table unchanged.
func (u *Submission) FindHolders(ctx context.Context, in FindInput) (Outcome, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Outcome{}, ErrInvalidInput
	}
	displayName := strings.TrimSpace(in.SelectedSkillName)
	if displayName == "" {
		return Outcome{}, ErrInvalidInput
	}

	skillID, err := u.resolver.Resolve(ctx, in.SelectedSkillName)
	if err != nil {
		if errors.Is(err, ErrSkillNotFound) {
			outcome := Outcome{Kind: OutcomeSkillNotFound, SkillName: displayName}
			u.notify(ctx, in.UserID, outcome.Text())
			return outcome, nil
		}
		u.logf("find: skill lookup failed: %v", err)
		return Outcome{}, ErrInternal
	}

	holderIDs, err := u.users.HoldersOf(ctx, skillID)
	if err != nil {
		u.logf("find: holder lookup failed: %v", err)
		return Outcome{}, ErrInternal
	}

	if len(holderIDs) == 0 {
		outcome := Outcome{Kind: OutcomeNoHolders, SkillName: displayName}
		u.notify(ctx, in.UserID, outcome.Text())
		return outcome, nil
	}

	holders := make([]Holder, 0, len(holderIDs))
	for _, id := range holderIDs {
		name, err := u.directory.DisplayName(ctx, id)
		if err != nil || strings.TrimSpace(name) == "" {
			u.logf("find: display name lookup failed for %s: %v", id, err)
			name = id
		}
		holders = append(holders, Holder{
			UserID:      id,
			DisplayName: name,
			Link:        fmt.Sprintf("slack://user?team=%s&id=%s", in.TeamID, id),
		})
	}

	outcome := Outcome{Kind: OutcomeHolderList, SkillName: displayName, Holders: holders}
	u.notify(ctx, in.UserID, outcome.Text())
	return outcome, nil
}

// notify is fire-and-forget relative to the flow: by the time it runs the
// store work has committed, so a delivery failure is logged, not surfaced.
func (u *Submission) notify(ctx context.Context, userID string, text string) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Notify(ctx, userID, text); err != nil {
		u.logf("notify failed for %s: %v", userID, err)
	}
}

// dismissAll issues one dismissal per endpoint, all concurrently, and waits
// for every one. A failed endpoint does not block the others and no error
// reaches the user.
func (u *Submission) dismissAll(ctx context.Context, responseURLs []string) {
	if u.dismisser == nil || len(responseURLs) == 0 {
		return
	}

	var g errgroup.Group
	for _, url := range responseURLs {
		g.Go(func() error {
			if err := u.dismisser.Dismiss(ctx, url); err != nil {
				u.logf("dismiss failed for %s: %v", url, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (u *Submission) logf(format string, args ...any) {
	if u.logger != nil {
		u.logger.Printf(format, args...)
	}
}

var _ SubmissionUsecase = (*Submission)(nil)
