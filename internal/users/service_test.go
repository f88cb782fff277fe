package users_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oreo-app/oreo/internal/auth"
	"github.com/oreo-app/oreo/internal/platform/httpx"
	"github.com/oreo-app/oreo/internal/users"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	byID    map[int64]*users.User
	byEmail map[string]*users.User
	nextID  int64

	insertErr error
	findErr   error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		byID:    make(map[int64]*users.User),
		byEmail: make(map[string]*users.User),
		nextID:  1,
	}
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.byEmail[email]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) FindByID(ctx context.Context, id int64) (*users.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) Insert(ctx context.Context, user *users.User) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, exists := m.byEmail[user.Email]; exists {
		return httpx.E(httpx.ErrConflict, "Email already exists")
	}
	user.ID = m.nextID
	m.nextID++
	copied := *user
	m.byID[user.ID] = &copied
	m.byEmail[user.Email] = &copied
	return nil
}

func (m *mockRepository) Update(ctx context.Context, user *users.User) error {
	stored, ok := m.byID[user.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	if other, exists := m.byEmail[user.Email]; exists && other.ID != user.ID {
		return httpx.E(httpx.ErrConflict, "Email already exists")
	}
	delete(m.byEmail, stored.Email)
	copied := *user
	m.byID[user.ID] = &copied
	m.byEmail[user.Email] = &copied
	return nil
}

// ============================================================================
// MOCK NOTIFIER
// ============================================================================

type sentMail struct {
	email string
	name  string
	token string
}

type mockNotifier struct {
	welcomes   []sentMail
	recoveries []sentMail
	err        error
}

func (m *mockNotifier) SendWelcome(ctx context.Context, email, name string) error {
	if m.err != nil {
		return m.err
	}
	m.welcomes = append(m.welcomes, sentMail{email: email, name: name})
	return nil
}

func (m *mockNotifier) SendPasswordRecovery(ctx context.Context, email, token string) error {
	if m.err != nil {
		return m.err
	}
	m.recoveries = append(m.recoveries, sentMail{email: email, token: token})
	return nil
}

// ============================================================================
// FIXTURE
// ============================================================================

type fixture struct {
	service  *users.Service
	repo     *mockRepository
	notifier *mockNotifier
	tokens   *auth.TokenService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	blocklist := auth.NewTokenBlocklist(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	repo := newMockRepository()
	notifier := &mockNotifier{}
	tokens := auth.NewTokenService("service-test-secret", 0, 0)
	service := users.NewService(repo, auth.NewBcryptHasher(4), tokens, blocklist, notifier, slog.Default())
	return &fixture{service: service, repo: repo, notifier: notifier, tokens: tokens}
}

func (f *fixture) signup(t *testing.T, email, password, name string) *users.User {
	t.Helper()
	user, _, err := f.service.Signup(context.Background(), email, password, name)
	require.NoError(t, err)
	return user
}

// ============================================================================
// TESTS
// ============================================================================

func TestSignup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, token, err := f.service.Signup(ctx, "a@x.com", "p1-long-enough", "A")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "p1-long-enough", user.PasswordHash)

	claims, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)

	require.Len(t, f.notifier.welcomes, 1)
	assert.Equal(t, "A", f.notifier.welcomes[0].name)
	assert.Equal(t, "a@x.com", f.notifier.welcomes[0].email)
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.signup(t, "a@x.com", "p1-long-enough", "A")
	_, _, err := f.service.Signup(ctx, "a@x.com", "p2-long-enough", "B")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))
	assert.Equal(t, "Email already exists", err.Error())
	assert.Len(t, f.repo.byID, 1, "no second row may exist")
}

func TestSignupNormalizesEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.signup(t, "  Mixed@Case.COM ", "p1-long-enough", "A")
	assert.Equal(t, "mixed@case.com", user.Email)

	_, _, err := f.service.Login(ctx, "MIXED@CASE.com", "p1-long-enough")
	require.NoError(t, err)
}

func TestSignupNotifierFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("queue down")

	_, _, err := f.service.Signup(context.Background(), "a@x.com", "p1-long-enough", "A")
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@x.com", "p1-long-enough", "A")

	user, token, err := f.service.Login(ctx, "a@x.com", "p1-long-enough")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)

	claims, err := f.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@x.com", "p1-long-enough", "A")

	_, _, wrongPassword := f.service.Login(ctx, "a@x.com", "wrong")
	_, _, unknownEmail := f.service.Login(ctx, "b@x.com", "whatever")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.True(t, errors.Is(wrongPassword, httpx.ErrUnauthorized))
	assert.True(t, errors.Is(unknownEmail, httpx.ErrUnauthorized))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestGetCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@x.com", "p1-long-enough", "A")
	_, token, err := f.service.Login(ctx, "a@x.com", "p1-long-enough")
	require.NoError(t, err)

	first, err := f.service.GetCurrent(ctx, token)
	require.NoError(t, err)
	second, err := f.service.GetCurrent(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, first.Public(), second.Public())
}

func TestGetCurrentBadToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, invalidErr := f.service.GetCurrent(ctx, "garbage")
	require.Error(t, invalidErr)

	// A valid token whose account vanished must look exactly like an
	// invalid token.
	orphan, err := f.tokens.IssueSession("ghost@x.com")
	require.NoError(t, err)
	_, orphanErr := f.service.GetCurrent(ctx, orphan)
	require.Error(t, orphanErr)

	assert.True(t, errors.Is(invalidErr, httpx.ErrUnauthorized))
	assert.True(t, errors.Is(orphanErr, httpx.ErrUnauthorized))
	assert.Equal(t, invalidErr.Error(), orphanErr.Error())
}

func TestRequestPasswordRecovery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@x.com", "p1-long-enough", "A")

	require.NoError(t, f.service.RequestPasswordRecovery(ctx, "a@x.com"))
	require.Len(t, f.notifier.recoveries, 1)

	claims, err := f.tokens.Verify(f.notifier.recoveries[0].token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
}

func TestRequestPasswordRecoveryUnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.service.RequestPasswordRecovery(context.Background(), "nobody@x.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
	assert.Equal(t, "User not found", err.Error())
}

func TestResetPasswordFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@x.com", "p1-long-enough", "A")

	require.NoError(t, f.service.RequestPasswordRecovery(ctx, "a@x.com"))
	token := f.notifier.recoveries[0].token

	require.NoError(t, f.service.ResetPassword(ctx, token, "p2-long-enough"))

	_, _, err := f.service.Login(ctx, "a@x.com", "p2-long-enough")
	require.NoError(t, err, "login with the new password must succeed")
	_, _, err = f.service.Login(ctx, "a@x.com", "p1-long-enough")
	require.Error(t, err, "old password must stop working")
}

func TestResetPasswordTokenIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@x.com", "p1-long-enough", "A")

	require.NoError(t, f.service.RequestPasswordRecovery(ctx, "a@x.com"))
	token := f.notifier.recoveries[0].token

	require.NoError(t, f.service.ResetPassword(ctx, token, "p2-long-enough"))
	err := f.service.ResetPassword(ctx, token, "p3-long-enough")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrUnauthorized))
}

func TestResetPasswordRejectsSessionToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@x.com", "p1-long-enough", "A")

	// Session tokens carry no token ID and cannot be consumed.
	token, err := f.tokens.IssueSession("a@x.com")
	require.NoError(t, err)
	err = f.service.ResetPassword(ctx, token, "p2-long-enough")
	assert.True(t, errors.Is(err, httpx.ErrUnauthorized))
}

func TestResetPasswordInvalidToken(t *testing.T) {
	f := newFixture(t)

	err := f.service.ResetPassword(context.Background(), "garbage", "p2-long-enough")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrUnauthorized))
}

func TestResetPasswordUnknownUser(t *testing.T) {
	f := newFixture(t)

	token, err := f.tokens.IssueRecovery("ghost@x.com")
	require.NoError(t, err)
	err = f.service.ResetPassword(context.Background(), token, "p2-long-enough")
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestUpdateUserForbidden(t *testing.T) {
	f := newFixture(t)
	name := "Mallory"

	_, err := f.service.UpdateUser(context.Background(), 5, 7, users.UpdateParams{Name: &name})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestUpdateUserPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.signup(t, "a@x.com", "p1-long-enough", "A")

	name := "Alice"
	updated, err := f.service.UpdateUser(ctx, created.ID, created.ID, users.UpdateParams{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, created.Email, updated.Email)
	assert.Equal(t, created.PasswordHash, updated.PasswordHash, "absent fields stay untouched")
}

func TestUpdateUserPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.signup(t, "a@x.com", "p1-long-enough", "A")

	password := "p2-long-enough"
	_, err := f.service.UpdateUser(ctx, created.ID, created.ID, users.UpdateParams{Password: &password})
	require.NoError(t, err)

	_, _, err = f.service.Login(ctx, "a@x.com", "p2-long-enough")
	require.NoError(t, err)
}

func TestUpdateUserEmailConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@x.com", "p1-long-enough", "A")
	other := f.signup(t, "b@x.com", "p1-long-enough", "B")

	email := "a@x.com"
	_, err := f.service.UpdateUser(ctx, other.ID, other.ID, users.UpdateParams{Email: &email})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}

func TestUpdateUserNotFound(t *testing.T) {
	f := newFixture(t)
	name := "Nobody"

	_, err := f.service.UpdateUser(context.Background(), 42, 42, users.UpdateParams{Name: &name})
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}
