package identity

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/storefront/internal/apperr"
	"github.com/oakline/storefront/internal/identity/entity"
)

// fakeUserStore implements UserStore in memory with case-insensitive emails,
// mirroring the citext unique column of the real repo.
type fakeUserStore struct {
	users map[string]*entity.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*entity.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, u *entity.User) error {
	key := strings.ToLower(u.Email)
	if _, exists := f.users[key]; exists {
		return apperr.New(apperr.KindConflict, "user already exists")
	}
	f.users[key] = u
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	u, ok := f.users[strings.ToLower(email)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func newTestService(store UserStore) *Service {
	return NewService(store, testTokenConfig(), zap.NewNop().Sugar())
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	svc := newTestService(store)

	err := svc.Register(ctx, RegisterInput{
		Email:           "a@x.com",
		Username:        "alice-w",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)

	stored, err := store.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, stored.Role)
	assert.NotEmpty(t, stored.ID)
	assert.NotContains(t, string(stored.PasswordHash), "secret1", "password must never be stored in plaintext")
	assert.Equal(t, "argon2id", stored.PasswordAlgo)

	session, err := svc.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, session)

	claims, err := ValidateToken(testTokenConfig(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "alice-w", claims.Username)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeUserStore())

	in := RegisterInput{Email: "a@x.com", Username: "alice-w", Password: "secret1", ConfirmPassword: "secret1"}
	require.NoError(t, svc.Register(ctx, in))

	// same email, different case: still a conflict
	in.Email = "A@X.COM"
	err := svc.Register(ctx, in)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "user already exists", apperr.Message(err))
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeUserStore())

	valid := RegisterInput{Email: "a@x.com", Username: "alice-w", Password: "secret1", ConfirmPassword: "secret1"}

	cases := map[string]func(in *RegisterInput){
		"empty email":        func(in *RegisterInput) { in.Email = "" },
		"bad email":          func(in *RegisterInput) { in.Email = "not-an-address" },
		"empty username":     func(in *RegisterInput) { in.Username = "  " },
		"short username":     func(in *RegisterInput) { in.Username = "bob" },
		"long username":      func(in *RegisterInput) { in.Username = strings.Repeat("x", 101) },
		"empty password":     func(in *RegisterInput) { in.Password = "" },
		"short password":     func(in *RegisterInput) { in.Password = "abc"; in.ConfirmPassword = "abc" },
		"long password":      func(in *RegisterInput) { pw := strings.Repeat("x", 101); in.Password = pw; in.ConfirmPassword = pw },
		"empty confirmation": func(in *RegisterInput) { in.ConfirmPassword = "" },
		"confirm mismatch":   func(in *RegisterInput) { in.ConfirmPassword = "secret2" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			err := svc.Register(ctx, in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestLogin_GenericFailures(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeUserStore())

	require.NoError(t, svc.Register(ctx, RegisterInput{
		Email: "a@x.com", Username: "alice-w", Password: "secret1", ConfirmPassword: "secret1",
	}))

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "a@x.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
		assert.Equal(t, "invalid credentials", apperr.Message(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@x.com", "secret1")
		require.Error(t, err)
		// identical kind and message: existence must not leak
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
		assert.Equal(t, "invalid credentials", apperr.Message(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Login(ctx, "", "")
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestLogin_LegacyShaAccount(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	svc := newTestService(store)

	salt, err := GenerateSalt()
	require.NoError(t, err)
	legacy := SHA256Hasher{}
	require.NoError(t, store.Create(ctx, &entity.User{
		ID:           "legacy-1",
		Username:     "bob-the-buyer",
		Email:        "b@x.com",
		PasswordHash: legacy.Hash(salt, "secret1"),
		Salt:         EncodeSalt(salt),
		PasswordAlgo: legacy.Algo(),
		Role:         entity.RoleUser,
	}))

	session, err := svc.Login(ctx, "b@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeUserStore())

	require.NoError(t, svc.Register(ctx, RegisterInput{
		Email: "a@x.com", Username: "alice-w", Password: "secret1", ConfirmPassword: "secret1",
	}))

	u, err := svc.GetUser(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice-w", u.Username)

	// unlike login, a display lookup may surface absence
	_, err = svc.GetUser(ctx, "nobody@x.com")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
