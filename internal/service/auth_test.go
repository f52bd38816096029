package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payoutpilot/mentorchat/internal/domain"
	"github.com/payoutpilot/mentorchat/internal/pkg/idtoken"
	"github.com/payoutpilot/mentorchat/internal/repository"
)

// stubVerifier maps raw tokens to identities; unknown tokens are invalid.
type stubVerifier struct {
	identities map[string]idtoken.Identity
}

func (v *stubVerifier) Verify(_ context.Context, raw string) (idtoken.Identity, error) {
	identity, ok := v.identities[raw]
	if !ok {
		return idtoken.Identity{}, idtoken.ErrInvalidToken
	}

	return identity, nil
}

type memoryUserRepo struct {
	users  map[string]domain.User
	nextID uint

	// createErr, when set, is returned by the next Create call once.
	createErr error

	// findMisses makes that many FindByUID calls report not-found first.
	findMisses int
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		users: make(map[string]domain.User),
	}
}

func (r *memoryUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return domain.User{}, err
	}
	if _, ok := r.users[user.UID]; ok {
		return domain.User{}, repository.ErrUserUIDExists
	}

	r.nextID++
	user.ID = r.nextID
	r.users[user.UID] = user

	return user, nil
}

func (r *memoryUserRepo) FindByUID(_ context.Context, uid string) (domain.User, error) {
	if r.findMisses > 0 {
		r.findMisses--
		return domain.User{}, repository.ErrUserNotFound
	}

	user, ok := r.users[uid]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}

	return user, nil
}

func newAuthFixture() (*AuthService, *memoryUserRepo) {
	verifier := &stubVerifier{
		identities: map[string]idtoken.Identity{
			"token-ada": {Subject: "uid-ada", Email: "ada@example.com", Name: "Ada"},
		},
	}
	repo := newMemoryUserRepo()

	return NewAuthService(verifier, repo), repo
}

func TestAuthRegisterCreatesUser(t *testing.T) {
	svc, repo := newAuthFixture()

	user, err := svc.Register(context.Background(), "token-ada", domain.RoleMentor)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "uid-ada", user.UID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, domain.RoleMentor, user.Role)

	stored, err := repo.FindByUID(context.Background(), "uid-ada")
	require.NoError(t, err)
	assert.Equal(t, user, stored)
}

func TestAuthRegisterExistingSubjectReturnsRecordUnchanged(t *testing.T) {
	svc, _ := newAuthFixture()

	first, err := svc.Register(context.Background(), "token-ada", domain.RoleMentor)
	require.NoError(t, err)

	// A second registration must not change anything, not even the role.
	second, err := svc.Register(context.Background(), "token-ada", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAuthRegisterInvalidToken(t *testing.T) {
	svc, repo := newAuthFixture()

	_, err := svc.Register(context.Background(), "bogus", domain.RoleMentor)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, repo.users)
}

func TestAuthRegisterLostCreateRaceReturnsWinner(t *testing.T) {
	svc, repo := newAuthFixture()

	// Another request inserts the record between FindByUID and Create: the
	// first lookup misses, the create collides, the second lookup finds it.
	repo.findMisses = 1
	repo.createErr = repository.ErrUserUIDExists
	repo.users["uid-ada"] = domain.User{ID: 7, UID: "uid-ada", Email: "ada@example.com", Role: domain.RoleMentor}

	user, err := svc.Register(context.Background(), "token-ada", domain.RoleMentor)
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
}

func TestAuthUserByUID(t *testing.T) {
	svc, _ := newAuthFixture()

	registered, err := svc.Register(context.Background(), "token-ada", domain.RoleMentor)
	require.NoError(t, err)

	user, err := svc.UserByUID(context.Background(), "uid-ada")
	require.NoError(t, err)
	assert.Equal(t, registered, user)

	_, err = svc.UserByUID(context.Background(), "uid-ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
