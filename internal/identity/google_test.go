package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/breachlens/breachlens-api/internal/models"
	"github.com/breachlens/breachlens-api/internal/vault"
)

func testAssertion() Assertion {
	return Assertion{
		SubjectID:  "google-sub-123",
		Email:      "alice@example.com",
		GivenName:  "Alice",
		FamilyName: "Liddell",
		PictureURL: "https://example.com/alice.png",
	}
}

func newGoogleStrategy(repo *fakeUserRepo) *GoogleStrategy {
	return NewGoogleStrategy(repo, vault.NewProvisioner(32, 12), zap.NewNop())
}

func TestResolveCreatesNewAccount(t *testing.T) {
	t.Parallel()
	repo := newFakeUserRepo()
	s := newGoogleStrategy(repo)

	user, outcome, err := s.Resolve(context.Background(), testAssertion())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if outcome != OutcomeCreated {
		t.Errorf("outcome = %v, want OutcomeCreated", outcome)
	}
	if user.UserID != "USER1000000001" {
		t.Errorf("UserID = %q, want USER1000000001", user.UserID)
	}
	if user.PasswordHash != nil || user.DateOfBirth != nil {
		t.Error("provider account must not carry password or date of birth")
	}
	if user.AuthProvider != models.AuthProviderGoogle {
		t.Errorf("AuthProvider = %q, want google", user.AuthProvider)
	}

	// The vault is provisioned in the same write, empty, with a salt.
	v, ok := repo.vaults[user.ID]
	if !ok {
		t.Fatal("no vault provisioned for new account")
	}
	if v.Payload != "" {
		t.Errorf("vault payload = %q, want empty", v.Payload)
	}
	if v.Salt == "" {
		t.Error("vault salt is empty")
	}
}

func TestResolveMatchesExistingSubject(t *testing.T) {
	t.Parallel()
	repo := newFakeUserRepo()
	s := newGoogleStrategy(repo)

	first, _, err := s.Resolve(context.Background(), testAssertion())
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	writesAfterCreate := repo.writeCount()

	second, outcome, err := s.Resolve(context.Background(), testAssertion())
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if outcome != OutcomeMatchedSubject {
		t.Errorf("outcome = %v, want OutcomeMatchedSubject", outcome)
	}
	if second.ID != first.ID {
		t.Errorf("second resolution returned a different account: %s vs %s", second.ID, first.ID)
	}
	if repo.writeCount() != writesAfterCreate {
		t.Errorf("idempotent resolution performed %d extra writes", repo.writeCount()-writesAfterCreate)
	}
}

func TestResolveLinksEmailMatchedAccount(t *testing.T) {
	t.Parallel()
	repo := newFakeUserRepo()

	// Seed a local-only account with the same email.
	hash := "$2a$12$existinghash"
	dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	local := &models.User{
		FirstName:    "Alice",
		LastName:     "Liddell",
		Email:        "alice@example.com",
		PasswordHash: &hash,
		DateOfBirth:  &dob,
		AuthProvider: models.AuthProviderLocal,
	}
	if err := provisionAccount(context.Background(), repo, vault.NewProvisioner(32, 12), local); err != nil {
		t.Fatalf("failed to seed local account: %v", err)
	}

	s := newGoogleStrategy(repo)
	user, outcome, err := s.Resolve(context.Background(), testAssertion())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if outcome != OutcomeLinkedEmail {
		t.Errorf("outcome = %v, want OutcomeLinkedEmail", outcome)
	}
	if user.ID != local.ID {
		t.Error("linking created a second account instead of mutating the existing one")
	}
	if user.GoogleID == nil || *user.GoogleID != "google-sub-123" {
		t.Error("google subject id was not attached")
	}
	if user.AuthProvider != models.AuthProviderGoogle {
		t.Errorf("AuthProvider = %q, want google after linking", user.AuthProvider)
	}

	// The stored record keeps its local credentials after linking.
	stored := repo.users[local.ID]
	if stored.PasswordHash == nil || stored.DateOfBirth == nil {
		t.Error("linking must not drop the local password or date of birth")
	}

	// Subsequent resolution takes the subject-id path, not the email path.
	_, outcome, err = s.Resolve(context.Background(), testAssertion())
	if err != nil {
		t.Fatalf("post-link Resolve() error = %v", err)
	}
	if outcome != OutcomeMatchedSubject {
		t.Errorf("post-link outcome = %v, want OutcomeMatchedSubject", outcome)
	}
}

func TestResolveStoreFailureIsAuthFailure(t *testing.T) {
	t.Parallel()
	repo := newFakeUserRepo()
	repo.lookupErr = fmt.Errorf("connection refused")
	s := newGoogleStrategy(repo)

	_, _, err := s.Resolve(context.Background(), testAssertion())
	if !errors.Is(err, ErrResolutionFailed) {
		t.Errorf("Resolve() error = %v, want ErrResolutionFailed", err)
	}
}

func TestResolveRetriesAfterCreateRace(t *testing.T) {
	t.Parallel()
	repo := newFakeUserRepo()

	// Seed the account the concurrent "winner" request created, then hide
	// it: our lookups miss, our insert loses the uniqueness race, and the
	// retry must find the winner via the subject-id path.
	sub := "google-sub-123"
	winner := &models.User{
		Email:        "alice@example.com",
		GoogleID:     &sub,
		AuthProvider: models.AuthProviderGoogle,
	}
	if err := provisionAccount(context.Background(), repo, vault.NewProvisioner(32, 12), winner); err != nil {
		t.Fatalf("failed to seed winner account: %v", err)
	}
	repo.hideUntilCreate = true

	s := newGoogleStrategy(repo)
	user, outcome, err := s.Resolve(context.Background(), testAssertion())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if outcome != OutcomeMatchedSubject {
		t.Errorf("outcome = %v, want OutcomeMatchedSubject after retry", outcome)
	}
	if user.ID != winner.ID {
		t.Error("retry did not resolve to the winning account")
	}
}

func TestConcurrentCreationsAllocateDistinctIDs(t *testing.T) {
	t.Parallel()
	repo := newFakeUserRepo()
	s := newGoogleStrategy(repo)

	const n = 40
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, _, err := s.Resolve(context.Background(), Assertion{
				SubjectID:  fmt.Sprintf("sub-%d", i),
				Email:      fmt.Sprintf("user%d@example.com", i),
				GivenName:  "U",
				FamilyName: strconv.Itoa(i),
			})
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = user.UserID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent Resolve(%d) error = %v", i, err)
		}
	}

	numbers := make([]int, 0, n)
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate user id allocated: %s", id)
		}
		seen[id] = true
		if !strings.HasPrefix(id, "USER") {
			t.Fatalf("malformed user id: %s", id)
		}
		num, err := strconv.Atoi(strings.TrimPrefix(id, "USER"))
		if err != nil {
			t.Fatalf("non-numeric user id suffix: %s", id)
		}
		numbers = append(numbers, num)
	}

	// Exactly n distinct values with no gaps.
	sort.Ints(numbers)
	for i := 1; i < len(numbers); i++ {
		if numbers[i] != numbers[i-1]+1 {
			t.Fatalf("gap in allocated ids: %d then %d", numbers[i-1], numbers[i])
		}
	}
}
