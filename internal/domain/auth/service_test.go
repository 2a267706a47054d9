package auth

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/guillermodiarte/crmsys/internal/core/apperror"
	"github.com/guillermodiarte/crmsys/internal/core/id"
)

type fakeUserRepo struct {
	byEmail map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *User) error {
	if _, ok := r.byEmail[user.Email]; ok {
		return apperror.NewDuplicate("user", "email", user.Email)
	}
	cp := *user
	r.byEmail[user.Email] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	for _, u := range r.byEmail {
		if u.ID == userID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", userID)
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, apperror.NewNotFound("user", email)
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *User) error {
	for email, u := range r.byEmail {
		if u.ID == user.ID {
			delete(r.byEmail, email)
			cp := *user
			r.byEmail[user.Email] = &cp
			return nil
		}
	}
	return apperror.NewNotFound("user", user.ID)
}

func (r *fakeUserRepo) List(ctx context.Context) ([]User, error) {
	users := make([]User, 0, len(r.byEmail))
	for _, u := range r.byEmail {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, userID id.ID) error {
	for email, u := range r.byEmail {
		if u.ID == userID {
			delete(r.byEmail, email)
			return nil
		}
	}
	return apperror.NewNotFound("user", userID)
}

func (r *fakeUserRepo) Exists(ctx context.Context, email string) (bool, error) {
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.byEmail)), nil
}

func newAuthService(repo UserRepository) *Service {
	return NewService(repo, NewJWTService(DefaultJWTConfig("test-secret")), DefaultServiceConfig())
}

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email:    "  Ana@CRM.com ",
		Password: "secret-password",
		Name:     "Ana",
	})
	require.NoError(t, err)

	assert.Equal(t, "ana@crm.com", user.Email)
	assert.Equal(t, RoleUser, user.Role)
	assert.NotEqual(t, "secret-password", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-password")))

	// Same email again is a duplicate.
	_, err = svc.Register(ctx, RegisterRequest{Email: "ana@crm.com", Password: "another-pass"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestRegister_Validation(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"empty email", RegisterRequest{Password: "secret-password"}},
		{"short password", RegisterRequest{Email: "a@b.com", Password: "short"}},
		{"unknown role", RegisterRequest{Email: "a@b.com", Password: "secret-password", Role: "root"}},
		{"invalid email", RegisterRequest{Email: "not-an-email", Password: "secret-password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{
		Email:    "ana@crm.com",
		Password: "secret-password",
		Role:     RoleAdmin,
	})
	require.NoError(t, err)

	result, err := svc.Login(ctx, Credentials{Email: "Ana@crm.com", Password: "secret-password"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, registered.ID, result.User.ID)
	assert.NotEmpty(t, result.AccessToken)

	// The issued token validates and carries the role.
	info, err := NewJWTService(DefaultJWTConfig("test-secret")).ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, info.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "ana@crm.com", Password: "secret-password"})
	require.NoError(t, err)

	// Wrong password and unknown user yield the same unauthorized error.
	for _, creds := range []Credentials{
		{Email: "ana@crm.com", Password: "wrong-password"},
		{Email: "nobody@crm.com", Password: "secret-password"},
	} {
		_, err := svc.Login(ctx, creds)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
		assert.False(t, strings.Contains(appErr.Message, "not found"))
	}
}

func TestListUsers(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "ana@crm.com", Password: "secret-password", Role: RoleAdmin})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterRequest{Email: "berta@crm.com", Password: "secret-password"})
	require.NoError(t, err)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	emails := []string{users[0].Email, users[1].Email}
	assert.Contains(t, emails, "ana@crm.com")
	assert.Contains(t, emails, "berta@crm.com")
}

func TestUpdateUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Email: "ana@crm.com", Password: "secret-password", Name: "Ana"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterRequest{Email: "berta@crm.com", Password: "secret-password"})
	require.NoError(t, err)

	// Another user already owns the target email.
	_, err = svc.UpdateUser(ctx, user.ID, UpdateUserRequest{Email: "berta@crm.com"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)

	// Keeping the own email is fine; a blank password keeps the current hash.
	updated, err := svc.UpdateUser(ctx, user.ID, UpdateUserRequest{Email: "Ana@crm.com", Name: "Ana B"})
	require.NoError(t, err)
	assert.Equal(t, "ana@crm.com", updated.Email)
	assert.Equal(t, "Ana B", updated.Name)

	_, err = svc.Login(ctx, Credentials{Email: "ana@crm.com", Password: "secret-password"})
	require.NoError(t, err)

	// A new password replaces the hash.
	_, err = svc.UpdateUser(ctx, user.ID, UpdateUserRequest{Email: "ana@crm.com", Password: "another-password"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, Credentials{Email: "ana@crm.com", Password: "another-password"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, Credentials{Email: "ana@crm.com", Password: "secret-password"})
	require.Error(t, err)
}

func TestUpdateUser_Validation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Email: "ana@crm.com", Password: "secret-password"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  UpdateUserRequest
	}{
		{"empty email", UpdateUserRequest{}},
		{"short password", UpdateUserRequest{Email: "ana@crm.com", Password: "short"}},
		{"unknown role", UpdateUserRequest{Email: "ana@crm.com", Role: "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateUser(ctx, user.ID, tt.req)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestDeleteUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)
	ctx := context.Background()

	ana, err := svc.Register(ctx, RegisterRequest{Email: "ana@crm.com", Password: "secret-password", Role: RoleAdmin})
	require.NoError(t, err)
	berta, err := svc.Register(ctx, RegisterRequest{Email: "berta@crm.com", Password: "secret-password"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, berta.ID))

	// The last remaining user cannot be deleted.
	err = svc.DeleteUser(ctx, ana.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ana@crm.com", users[0].Email)
}

func TestChangePassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newAuthService(repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{Email: "ana@crm.com", Password: "secret-password"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong-password", "new-password-1")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "secret-password", "new-password-1"))

	_, err = svc.Login(ctx, Credentials{Email: "ana@crm.com", Password: "new-password-1"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, Credentials{Email: "ana@crm.com", Password: "secret-password"})
	require.Error(t, err)
}
