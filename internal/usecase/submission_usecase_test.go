package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type memUserRepo struct {
	mu     sync.Mutex
	skills map[string]map[uuid.UUID]struct{}

	existsCalls int
	mergeCalls  int

	existsErr  error
	mergeErr   error
	holdersErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{skills: map[string]map[uuid.UUID]struct{}{}}
}

func (m *memUserRepo) Exists(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.skills[userID]
	return ok, nil
}

func (m *memUserRepo) MergeSkills(_ context.Context, userID string, skillIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mergeCalls++
	if m.mergeErr != nil {
		return m.mergeErr
	}
	set, ok := m.skills[userID]
	if !ok {
		set = map[uuid.UUID]struct{}{}
		m.skills[userID] = set
	}
	for _, id := range skillIDs {
		set[id] = struct{}{}
	}
	return nil
}

func (m *memUserRepo) SkillsOf(_ context.Context, userID string) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uuid.UUID, 0)
	for id := range m.skills[userID] {
		out = append(out, id)
	}
	return out, nil
}

func (m *memUserRepo) HoldersOf(_ context.Context, skillID uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holdersErr != nil {
		return nil, m.holdersErr
	}
	out := make([]string, 0)
	for userID, set := range m.skills {
		if _, ok := set[skillID]; ok {
			out = append(out, userID)
		}
	}
	return out, nil
}

func (m *memUserRepo) skillCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.skills[userID])
}

type notification struct {
	userID string
	text   string
}

type recordNotifier struct {
	mu    sync.Mutex
	calls []notification
	err   error
}

func (n *recordNotifier) Notify(_ context.Context, userID string, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{userID: userID, text: text})
	return n.err
}

func (n *recordNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func (n *recordNotifier) last() notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return notification{}
	}
	return n.calls[len(n.calls)-1]
}

type recordDismisser struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newRecordDismisser() *recordDismisser {
	return &recordDismisser{calls: map[string]int{}, fail: map[string]bool{}}
}

func (d *recordDismisser) Dismiss(_ context.Context, responseURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[responseURL]++
	if d.fail[responseURL] {
		return errors.New("endpoint unreachable")
	}
	return nil
}

type mapDirectory struct {
	names map[string]string
}

func (d mapDirectory) DisplayName(_ context.Context, userID string) (string, error) {
	name, ok := d.names[userID]
	if !ok {
		return "", fmt.Errorf("unknown user %s", userID)
	}
	return name, nil
}

type fixture struct {
	skills    *memSkillRepo
	users     *memUserRepo
	notifier  *recordNotifier
	dismisser *recordDismisser
	directory mapDirectory
	sub       *Submission
}

func newFixture() *fixture {
	f := &fixture{
		skills:    newMemSkillRepo(),
		users:     newMemUserRepo(),
		notifier:  &recordNotifier{},
		dismisser: newRecordDismisser(),
		directory: mapDirectory{names: map[string]string{}},
	}
	resolver := NewSkillResolver(f.skills, nil)
	f.sub = NewSubmissionUsecase(resolver, f.users, f.notifier, f.dismisser, f.directory, nil)
	return f
}

func TestDeclareSkills_NewUser(t *testing.T) {
	f := newFixture()

	outcome, err := f.sub.DeclareSkills(context.Background(), DeclareInput{
		UserID:        "U1",
		NewSkillsText: "Rust, rust, C++",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if outcome.Kind != OutcomeAdded {
		t.Fatalf("expected added, got %s", outcome.Kind)
	}

	if f.skills.count() != 2 {
		t.Fatalf("expected 2 skill records, got %d", f.skills.count())
	}
	if _, err := f.skills.FindByName(context.Background(), "rust"); err != nil {
		t.Fatalf("rust not canonicalized: %v", err)
	}
	if _, err := f.skills.FindByName(context.Background(), "c++"); err != nil {
		t.Fatalf("c++ missing: %v", err)
	}
	if f.users.skillCount("U1") != 2 {
		t.Fatalf("expected skill set of 2, got %d", f.users.skillCount("U1"))
	}

	if f.notifier.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", f.notifier.count())
	}
	if got := f.notifier.last(); got.userID != "U1" || got.text != "Your skills were added successfully!" {
		t.Fatalf("unexpected notification: %+v", got)
	}
}

func TestDeclareSkills_ExistingUserUnchanged(t *testing.T) {
	f := newFixture()
	f.skills.seed("go")
	goID := f.skills.byName["go"].ID
	if err := f.users.MergeSkills(context.Background(), "U1", []uuid.UUID{goID}); err != nil {
		t.Fatal(err)
	}
	f.users.mergeCalls = 0

	outcome, err := f.sub.DeclareSkills(context.Background(), DeclareInput{
		UserID:             "U1",
		SelectedSkillNames: []string{"go"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if outcome.Kind != OutcomeUpdated {
		t.Fatalf("expected updated, got %s", outcome.Kind)
	}
	if f.skills.creates != 0 {
		t.Fatalf("expected no new skill records, got %d", f.skills.creates)
	}
	if f.users.skillCount("U1") != 1 {
		t.Fatalf("expected skill set unchanged, got %d", f.users.skillCount("U1"))
	}
	if got := f.notifier.last().text; got != "Skills updated successfully!" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestDeclareSkills_RoundTrip(t *testing.T) {
	f := newFixture()

	_, err := f.sub.DeclareSkills(context.Background(), DeclareInput{
		UserID:             "U1",
		SelectedSkillNames: []string{"go", "Go ", " GO"},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.skills.count() != 1 {
		t.Fatalf("expected one skill record, got %d", f.skills.count())
	}
	if f.users.skillCount("U1") != 1 {
		t.Fatalf("expected singleton set, got %d", f.users.skillCount("U1"))
	}
}

func TestDeclareSkills_Idempotent(t *testing.T) {
	f := newFixture()
	in := DeclareInput{UserID: "U1", NewSkillsText: "go, rust"}

	if _, err := f.sub.DeclareSkills(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	before := f.users.skillCount("U1")

	outcome, err := f.sub.DeclareSkills(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != OutcomeUpdated {
		t.Fatalf("expected updated on resubmit, got %s", outcome.Kind)
	}
	if got := f.users.skillCount("U1"); got != before {
		t.Fatalf("set grew on resubmit: %d -> %d", before, got)
	}
	if f.skills.count() != 2 {
		t.Fatalf("expected 2 skill records, got %d", f.skills.count())
	}
}

func TestDeclareSkills_EmptySubmissionSucceedsWithoutStoreCalls(t *testing.T) {
	f := newFixture()

	outcome, err := f.sub.DeclareSkills(context.Background(), DeclareInput{
		UserID:        "U1",
		NewSkillsText: "  ,  ",
	})
	if err != nil {
		t.Fatalf("empty submission must succeed: %v", err)
	}
	if outcome.Kind != OutcomeUpdated {
		t.Fatalf("expected updated, got %s", outcome.Kind)
	}
	if f.users.existsCalls != 0 || f.users.mergeCalls != 0 {
		t.Fatalf("expected no store calls, got exists=%d merge=%d", f.users.existsCalls, f.users.mergeCalls)
	}
	if f.skills.creates != 0 {
		t.Fatalf("expected no resolver calls, got %d creates", f.skills.creates)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", f.notifier.count())
	}
}

func TestDeclareSkills_MissingUserID(t *testing.T) {
	f := newFixture()
	if _, err := f.sub.DeclareSkills(context.Background(), DeclareInput{NewSkillsText: "go"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDeclareSkills_MergeFailureIsNotSilentSuccess(t *testing.T) {
	f := newFixture()
	f.users.mergeErr = errors.New("connection reset")

	_, err := f.sub.DeclareSkills(context.Background(), DeclareInput{
		UserID:        "U1",
		NewSkillsText: "go",
		ResponseURLs:  []string{"https://hooks.example/1"},
	})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if f.notifier.count() != 0 {
		t.Fatalf("user must not be told success, got %d notifications", f.notifier.count())
	}
	if len(f.dismisser.calls) != 0 {
		t.Fatalf("no dismissals on aborted flow, got %v", f.dismisser.calls)
	}
}

func TestDeclareSkills_DismissesEachEndpointOnce(t *testing.T) {
	f := newFixture()
	f.dismisser.fail["https://hooks.example/2"] = true

	_, err := f.sub.DeclareSkills(context.Background(), DeclareInput{
		UserID:        "U1",
		NewSkillsText: "go",
		ResponseURLs: []string{
			"https://hooks.example/1",
			"https://hooks.example/2",
			"https://hooks.example/3",
		},
	})
	if err != nil {
		t.Fatalf("a failed dismissal must not fail the flow: %v", err)
	}

	for _, url := range []string{"https://hooks.example/1", "https://hooks.example/2", "https://hooks.example/3"} {
		if got := f.dismisser.calls[url]; got != 1 {
			t.Fatalf("endpoint %s dismissed %d times, want 1", url, got)
		}
	}
}

func TestDeclareSkills_ConcurrentNewSkill(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []string{"U1", "U2"} {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			_, errs[i] = f.sub.DeclareSkills(context.Background(), DeclareInput{
				UserID:        userID,
				NewSkillsText: "kubernetes",
			})
		}(i, userID)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("submission %d failed: %v", i, err)
		}
	}
	if f.skills.count() != 1 {
		t.Fatalf("expected exactly one kubernetes record, got %d", f.skills.count())
	}

	id := f.skills.byName["kubernetes"].ID
	for _, userID := range []string{"U1", "U2"} {
		ids, err := f.users.SkillsOf(context.Background(), userID)
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) != 1 || ids[0] != id {
			t.Fatalf("user %s does not hold the single id: %v", userID, ids)
		}
	}
}

func TestFindHolders_NotFoundDoesNotCreate(t *testing.T) {
	f := newFixture()

	outcome, err := f.sub.FindHolders(context.Background(), FindInput{
		UserID:            "U1",
		TeamID:            "T1",
		SelectedSkillName: "Elixir",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if outcome.Kind != OutcomeSkillNotFound {
		t.Fatalf("expected not found, got %s", outcome.Kind)
	}
	if outcome.SkillName != "Elixir" {
		t.Fatalf("outcome must carry the user-facing name, got %q", outcome.SkillName)
	}
	if f.skills.count() != 0 {
		t.Fatalf("find must not create skills, have %d", f.skills.count())
	}
	if got := f.notifier.last().text; got != "Skill not found in database 'Elixir'." {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestFindHolders_NoHolders(t *testing.T) {
	f := newFixture()
	f.skills.seed("go")

	outcome, err := f.sub.FindHolders(context.Background(), FindInput{
		UserID:            "U1",
		TeamID:            "T1",
		SelectedSkillName: "go",
	})
	if err != nil {
		t.Fatalf("no holders is not an error: %v", err)
	}
	if outcome.Kind != OutcomeNoHolders {
		t.Fatalf("expected no holders, got %s", outcome.Kind)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", f.notifier.count())
	}
	if got := f.notifier.last().text; got != "No users found with the skill 'go'." {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestFindHolders_HolderList(t *testing.T) {
	f := newFixture()
	f.skills.seed("go")
	goID := f.skills.byName["go"].ID
	for _, u := range []string{"U1", "U2"} {
		if err := f.users.MergeSkills(context.Background(), u, []uuid.UUID{goID}); err != nil {
			t.Fatal(err)
		}
	}
	f.directory.names["U1"] = "Ada Lovelace"
	f.directory.names["U2"] = "Grace Hopper"

	outcome, err := f.sub.FindHolders(context.Background(), FindInput{
		UserID:            "U3",
		TeamID:            "T1",
		SelectedSkillName: "go",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if outcome.Kind != OutcomeHolderList {
		t.Fatalf("expected holder list, got %s", outcome.Kind)
	}

	// Order is not guaranteed; assert as a set.
	got := map[string]Holder{}
	for _, h := range outcome.Holders {
		got[h.UserID] = h
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 holders, got %v", outcome.Holders)
	}
	if got["U1"].DisplayName != "Ada Lovelace" || got["U2"].DisplayName != "Grace Hopper" {
		t.Fatalf("wrong display names: %v", got)
	}
	for _, h := range got {
		if !strings.Contains(h.Link, "team=T1") || !strings.Contains(h.Link, "id="+h.UserID) {
			t.Fatalf("bad link: %q", h.Link)
		}
	}

	text := f.notifier.last().text
	if !strings.HasPrefix(text, "Users with the skill 'go':") {
		t.Fatalf("unexpected header: %q", text)
	}
	if !strings.Contains(text, "Ada Lovelace") || !strings.Contains(text, "Grace Hopper") {
		t.Fatalf("holder names missing: %q", text)
	}
}

func TestFindHolders_DirectoryFailureDegradesToID(t *testing.T) {
	f := newFixture()
	f.skills.seed("go")
	goID := f.skills.byName["go"].ID
	if err := f.users.MergeSkills(context.Background(), "U1", []uuid.UUID{goID}); err != nil {
		t.Fatal(err)
	}

	outcome, err := f.sub.FindHolders(context.Background(), FindInput{
		UserID:            "U2",
		TeamID:            "T1",
		SelectedSkillName: "go",
	})
	if err != nil {
		t.Fatalf("directory failure must not fail the flow: %v", err)
	}
	if len(outcome.Holders) != 1 || outcome.Holders[0].DisplayName != "U1" {
		t.Fatalf("expected id fallback, got %v", outcome.Holders)
	}
}

func TestFindHolders_StoreError(t *testing.T) {
	f := newFixture()
	f.skills.seed("go")
	f.users.holdersErr = errors.New("connection reset")

	_, err := f.sub.FindHolders(context.Background(), FindInput{
		UserID:            "U1",
		TeamID:            "T1",
		SelectedSkillName: "go",
	})
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if f.notifier.count() != 0 {
		t.Fatalf("no notification on aborted flow, got %d", f.notifier.count())
	}
}

func TestFindHolders_InvalidInput(t *testing.T) {
	f := newFixture()
	if _, err := f.sub.FindHolders(context.Background(), FindInput{UserID: "U1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.sub.FindHolders(context.Background(), FindInput{SelectedSkillName: "go"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
