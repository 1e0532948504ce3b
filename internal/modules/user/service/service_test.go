package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"anoa.com/gamingcommunity/internal/entity"
	search "anoa.com/gamingcommunity/internal/modules/search/service"
	"anoa.com/gamingcommunity/internal/modules/user/dto"
	"anoa.com/gamingcommunity/pkg/apperror"
	"anoa.com/gamingcommunity/pkg/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
	blogs map[uuid.UUID][]uuid.UUID
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uuid.UUID]*entity.User{}, blogs: map[uuid.UUID][]uuid.UUID{}}
}

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.JoinedDate = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) find(match func(*entity.User) bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id })
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email })
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username })
}

func (r *memUserRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.users {
		if id != u.ID && (existing.Email == u.Email || existing.Username == u.Username) {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) SetAdmin(_ context.Context, id uuid.UUID, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsAdmin = isAdmin
	return nil
}

func (r *memUserRepo) FindAll(_ context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memUserRepo) Delete(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	delete(r.users, id)
	return r.blogs[id], nil
}

func (r *memUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func newTestAuth(t *testing.T) (AuthService, *memUserRepo, *token.Manager) {
	t.Helper()
	repo := newMemUserRepo()
	tokens := token.NewManager("test-secret", 7*24*time.Hour)
	return NewAuthServiceWithCost(repo, tokens, bcrypt.MinCost), repo, tokens
}

func TestRegisterStoresHash(t *testing.T) {
	svc, repo, _ := newTestAuth(t)

	user, err := svc.Register(context.Background(), dto.RegisterRequest{Username: "ann", Email: "A@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))

	n, _ := repo.Count(context.Background())
	assert.EqualValues(t, 1, n)
}

func TestRegisterConflicts(t *testing.T) {
	svc, repo, _ := newTestAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterRequest{Username: "ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, dto.RegisterRequest{Username: "bob", Email: "a@x.com", Password: "secret1"})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "User already exists", err.Error())

	_, err = svc.Register(ctx, dto.RegisterRequest{Username: "ann", Email: "b@x.com", Password: "secret1"})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Username is already taken", err.Error())

	n, _ := repo.Count(ctx)
	assert.EqualValues(t, 1, n)
}

// racyRepo misses the first lookups, as if a concurrent request inserted
// the row between the uniqueness check and the write.
type racyRepo struct {
	*memUserRepo
	blind int
}

func (r *racyRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if r.blind > 0 {
		r.blind--
		return nil, gorm.ErrRecordNotFound
	}
	return r.memUserRepo.FindByEmail(ctx, email)
}

func (r *racyRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	if r.blind > 0 {
		r.blind--
		return nil, gorm.ErrRecordNotFound
	}
	return r.memUserRepo.FindByUsername(ctx, username)
}

func TestRegisterRejectsPaddedShortUsernames(t *testing.T) {
	svc, repo, _ := newTestAuth(t)
	ctx := context.Background()

	for _, name := range []string{"   ", "  b ", "\tab\n"} {
		_, err := svc.Register(ctx, dto.RegisterRequest{Username: name, Email: "a@x.com", Password: "secret1"})
		require.ErrorIs(t, err, apperror.ErrInvalidInput, "username %q", name)
		assert.Equal(t, "username must be at least 3 characters", err.Error())
	}

	user, err := svc.Register(ctx, dto.RegisterRequest{Username: "  ann  ", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Username)

	n, _ := repo.Count(ctx)
	assert.EqualValues(t, 1, n)
}

func TestRegisterRaceReportsCollidingField(t *testing.T) {
	_, repo, tokens := newTestAuth(t)
	ctx := context.Background()
	racy := &racyRepo{memUserRepo: repo}
	svc := NewAuthServiceWithCost(racy, tokens, bcrypt.MinCost)

	_, err := svc.Register(ctx, dto.RegisterRequest{Username: "ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	racy.blind = 2
	_, err = svc.Register(ctx, dto.RegisterRequest{Username: "ann", Email: "b@x.com", Password: "secret1"})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Username is already taken", err.Error())

	racy.blind = 2
	_, err = svc.Register(ctx, dto.RegisterRequest{Username: "bob", Email: "a@x.com", Password: "secret1"})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "User already exists", err.Error())
}

func TestAccountUpdateRejectsBlankUsername(t *testing.T) {
	auth, repo, _ := newTestAuth(t)
	accounts := NewAccountService(repo, nil)
	ctx := context.Background()

	ann, err := auth.Register(ctx, dto.RegisterRequest{Username: "ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	blank := "    "
	_, err = accounts.Update(ctx, ann.ID, dto.UpdateUserRequest{Username: &blank})
	require.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Equal(t, "username must be at least 3 characters", err.Error())

	padded := " annie "
	res, err := accounts.Update(ctx, ann.ID, dto.UpdateUserRequest{Username: &padded})
	require.NoError(t, err)
	assert.Equal(t, "annie", res.Username)
}

func TestAccountUpdateRaceReportsEmail(t *testing.T) {
	auth, repo, _ := newTestAuth(t)
	ctx := context.Background()

	ann, err := auth.Register(ctx, dto.RegisterRequest{Username: "ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = auth.Register(ctx, dto.RegisterRequest{Username: "bob", Email: "b@x.com", Password: "secret1"})
	require.NoError(t, err)

	accounts := NewAccountService(&racyRepo{memUserRepo: repo, blind: 1}, nil)
	used := "b@x.com"
	_, err = accounts.Update(ctx, ann.ID, dto.UpdateUserRequest{Email: &used})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Email is already in use", err.Error())
}

func TestLoginFailuresLookIdentical(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, dto.RegisterRequest{Username: "ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, wrongPass := svc.Login(ctx, dto.LoginRequest{Email: "a@x.com", Password: "nope123"})
	_, unknown := svc.Login(ctx, dto.LoginRequest{Email: "ghost@x.com", Password: "secret1"})

	require.Error(t, wrongPass)
	require.Error(t, unknown)
	assert.Equal(t, wrongPass.Error(), unknown.Error())
	assert.Equal(t, "Invalid email or password", unknown.Error())
	assert.ErrorIs(t, wrongPass, apperror.ErrUnauthorized)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	ctx := context.Background()
	created, err := svc.Register(ctx, dto.RegisterRequest{Username: "ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, dto.LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, res.User.ID)
	assert.Equal(t, "ann", res.User.Username)

	user, err := svc.Verify(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestVerifyRejectsExpiredAndOrphanedTokens(t *testing.T) {
	repo := newMemUserRepo()
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := issued
	tokens := token.NewManager("s", 7*24*time.Hour).WithClock(func() time.Time { return now })
	svc := NewAuthServiceWithCost(repo, tokens, bcrypt.MinCost)
	ctx := context.Background()

	u, err := svc.Register(ctx, dto.RegisterRequest{Username: "ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	res, err := svc.Login(ctx, dto.LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)

	now = issued.Add(7*24*time.Hour + time.Minute)
	_, err = svc.Verify(ctx, res.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	now = issued.Add(time.Hour)
	_, err = repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, res.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestAccountUpdateConflictsAndPartialFields(t *testing.T) {
	auth, repo, _ := newTestAuth(t)
	accounts := NewAccountService(repo, nil)
	ctx := context.Background()

	ann, err := auth.Register(ctx, dto.RegisterRequest{Username: "ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = auth.Register(ctx, dto.RegisterRequest{Username: "bob", Email: "b@x.com", Password: "secret1"})
	require.NoError(t, err)

	taken := "bob"
	_, err = accounts.Update(ctx, ann.ID, dto.UpdateUserRequest{Username: &taken})
	require.Error(t, err)
	assert.Equal(t, "Username is already taken", err.Error())

	used := "b@x.com"
	_, err = accounts.Update(ctx, ann.ID, dto.UpdateUserRequest{Email: &used})
	require.Error(t, err)
	assert.Equal(t, "Email is already in use", err.Error())

	same := "ann"
	bio := "<b>Speedrunner</b>"
	res, err := accounts.Update(ctx, ann.ID, dto.UpdateUserRequest{Username: &same, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "ann", res.Username)
	assert.Equal(t, "a@x.com", res.Email)
	assert.Equal(t, "Speedrunner", res.Bio)
}

type spyIndexer struct {
	deleted []string
}

func (s *spyIndexer) IndexGames(context.Context, ...*entity.Game) error { return nil }

func (s *spyIndexer) IndexCommunities(context.Context, ...*entity.Community) error { return nil }

func (s *spyIndexer) IndexBlogs(context.Context, ...*entity.Blog) error { return nil }

func (s *spyIndexer) Delete(_ context.Context, kind search.Kind, id string) error {
	s.deleted = append(s.deleted, string(kind)+":"+id)
	return nil
}

func TestAccountDelete(t *testing.T) {
	auth, repo, _ := newTestAuth(t)
	idx := &spyIndexer{}
	accounts := NewAccountService(repo, idx)
	ctx := context.Background()

	ann, err := auth.Register(ctx, dto.RegisterRequest{Username: "ann", Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	blogID := uuid.New()
	repo.blogs[ann.ID] = []uuid.UUID{blogID}

	require.NoError(t, accounts.Delete(ctx, ann.ID))
	assert.Equal(t, []string{string(search.KindBlogs) + ":" + blogID.String()}, idx.deleted)

	err = accounts.Delete(ctx, ann.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
