package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/mentorlink/mentorlink-api/services/account-service/internal/config"
	"github.com/mentorlink/mentorlink-api/services/account-service/internal/model"
	"github.com/mentorlink/mentorlink-api/services/account-service/internal/repository"
	"github.com/mentorlink/mentorlink-api/shared/auth"
	"github.com/mentorlink/mentorlink-api/shared/validate"
)

// duplicateKeyError fabricates the write exception Mongo raises on a unique
// index violation, so the fakes exercise the same error paths as the real
// repositories.
func duplicateKeyError(index string) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{
			{
				Code:    11000,
				Message: fmt.Sprintf("E11000 duplicate key error, index: %s dup key", index),
			},
		},
	}
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, duplicateKeyError("email_1")
		}
		if existing.Username == user.Username {
			return nil, duplicateKeyError("username_1")
		}
	}

	stored := *user
	stored.ID = bson.NewObjectID()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[stored.ID.Hex()] = &stored

	out := stored
	return &out, nil
}

func (r *memUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	out := *user
	return &out, nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *memUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == username {
			out := *user
			return &out, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *memUserRepo) UpdateUser(_ context.Context, id string, params repository.UpdateUserParams) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.PasswordHash != nil {
		user.PasswordHash = *params.PasswordHash
	}
	if params.Active != nil {
		user.Active = *params.Active
	}
	user.UpdatedAt = time.Now()

	out := *user
	return &out, nil
}

func (r *memUserRepo) DeleteUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	delete(r.users, id)

	out := *user
	return &out, nil
}

type memCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*model.OneTimeCode
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{codes: make(map[string]*model.OneTimeCode)}
}

func (r *memCodeRepo) Replace(_ context.Context, code *model.OneTimeCode) (*model.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *code
	if stored.ID.IsZero() {
		stored.ID = bson.NewObjectID()
	}
	r.codes[stored.UserID.Hex()] = &stored

	out := stored
	return &out, nil
}

func (r *memCodeRepo) GetByUserID(_ context.Context, userID string) (*model.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	out := *code
	return &out, nil
}

// Consume checks and deletes under one lock, mirroring the atomicity of
// Mongo's FindOneAndDelete. Racing callers see at most one success.
func (r *memCodeRepo) Consume(
	_ context.Context,
	userID, code string,
	purpose model.CodePurpose,
) (*model.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.codes[userID]
	if !ok || stored.Code != code || stored.Purpose != purpose {
		return nil, mongo.ErrNoDocuments
	}

	delete(r.codes, userID)

	out := *stored
	return &out, nil
}

func (r *memCodeRepo) DeleteByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.codes, userID)
	return nil
}

func (r *memCodeRepo) DeleteExpired(_ context.Context, userID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[userID]
	if !ok || code.ExpiresAt.IsZero() || code.ExpiresAt.After(now) {
		return false, nil
	}

	delete(r.codes, userID)
	return true, nil
}

type memTokenRepo struct {
	mu          sync.Mutex
	outstanding map[string]model.OutstandingToken
	blacklisted map[string]time.Time
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{
		outstanding: make(map[string]model.OutstandingToken),
		blacklisted: make(map[string]time.Time),
	}
}

func (r *memTokenRepo) RecordOutstanding(
	_ context.Context,
	token *model.OutstandingToken,
) (*model.OutstandingToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.outstanding[token.JTI]; ok {
		return nil, duplicateKeyError("jti_1")
	}

	stored := *token
	stored.ID = bson.NewObjectID()
	stored.CreatedAt = time.Now()
	r.outstanding[stored.JTI] = stored

	out := stored
	return &out, nil
}

func (r *memTokenRepo) ListOutstandingByUserID(_ context.Context, userID string) ([]model.OutstandingToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tokens []model.OutstandingToken
	for _, token := range r.outstanding {
		if token.UserID.Hex() == userID {
			tokens = append(tokens, token)
		}
	}

	return tokens, nil
}

func (r *memTokenRepo) DeleteOutstandingByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for jti, token := range r.outstanding {
		if token.UserID.Hex() == userID {
			delete(r.outstanding, jti)
		}
	}

	return nil
}

func (r *memTokenRepo) Blacklist(_ context.Context, jti string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.blacklisted[jti]; !ok {
		r.blacklisted[jti] = time.Now()
	}

	return nil
}

func (r *memTokenRepo) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.blacklisted[jti]
	return ok, nil
}

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (r *memProfileRepo) CreateProfile(_ context.Context, profile *model.Profile) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := profile.UserID.Hex()
	if _, ok := r.profiles[key]; ok {
		return nil, duplicateKeyError("user_id_1")
	}

	stored := *profile
	stored.ID = bson.NewObjectID()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.profiles[key] = &stored

	out := stored
	return &out, nil
}

func (r *memProfileRepo) GetProfileByUserID(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	out := *profile
	return &out, nil
}

func (r *memProfileRepo) UpdateProfile(
	_ context.Context,
	userID string,
	params repository.UpdateProfileParams,
) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.Competence != nil {
		profile.Competence = *params.Competence
	}
	if params.Language != nil {
		profile.Language = *params.Language
	}
	if params.SiteURL != nil {
		profile.SiteURL = *params.SiteURL
	}
	if params.TwitterURL != nil {
		profile.TwitterURL = *params.TwitterURL
	}
	if params.FacebookURL != nil {
		profile.FacebookURL = *params.FacebookURL
	}
	if params.LinkedinURL != nil {
		profile.LinkedinURL = *params.LinkedinURL
	}
	if params.YoutubeURL != nil {
		profile.YoutubeURL = *params.YoutubeURL
	}
	if params.Hidden != nil {
		profile.Hidden = *params.Hidden
	}
	if params.HiddenCourses != nil {
		profile.HiddenCourses = *params.HiddenCourses
	}
	if params.Promotions != nil {
		profile.Promotions = *params.Promotions
	}
	if params.MentorAds != nil {
		profile.MentorAds = *params.MentorAds
	}
	if params.EmailAds != nil {
		profile.EmailAds = *params.EmailAds
	}
	profile.UpdatedAt = time.Now()

	out := *profile
	return &out, nil
}

func (r *memProfileRepo) DeleteProfileByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.profiles, userID)
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type sentEmail struct {
	To      []string
	Subject string
	Body    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (n *fakeNotifier) SendHTML(to []string, subject, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, sentEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (n *fakeNotifier) emails() []sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]sentEmail, len(n.sent))
	copy(out, n.sent)
	return out
}

// fixture wires the usecases against in-memory fakes and a controllable
// clock.
type fixture struct {
	users     *memUserRepo
	codes     *memCodeRepo
	tokens    *memTokenRepo
	profiles  *memProfileRepo
	clock     *fakeClock
	notifier  *fakeNotifier
	scheduler *ExpiryScheduler
	cfg       *config.AccountServiceConfig

	accounts AccountUsecase
	resets   PasswordResetUsecase
	sessions SessionUsecase
	profile  ProfileUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := newMemUserRepo()
	codes := newMemCodeRepo()
	tokens := newMemTokenRepo()
	profiles := newMemProfileRepo()
	clock := newFakeClock()
	notifier := &fakeNotifier{}

	logger := zerolog.Nop()

	cfg := &config.AccountServiceConfig{
		AppActivationURL:    "https://app.example.com/activate",
		AppPasswordResetURL: "https://app.example.com/password-reset",
		RecoveryCodeTTL:     120 * time.Second,
		Token: config.TokenConfig{
			Issuer:                "account-service-test",
			AccessTokenSecret:     "access-secret",
			AccessTokenExpiresIn:  15 * time.Minute,
			RefreshTokenSecret:    "refresh-secret",
			RefreshTokenExpiresIn: time.Hour,
		},
	}

	validator, err := validate.New()
	require.NoError(t, err)

	scheduler := NewExpiryScheduler(codes, clock, &logger)
	t.Cleanup(scheduler.Stop)

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer)

	return &fixture{
		users:     users,
		codes:     codes,
		tokens:    tokens,
		profiles:  profiles,
		clock:     clock,
		notifier:  notifier,
		scheduler: scheduler,
		cfg:       cfg,
		accounts:  NewAccountUsecase(users, profiles, tokens, codes, scheduler, notifier, validator, clock, &logger, cfg),
		resets:    NewPasswordResetUsecase(users, codes, scheduler, notifier, validator, clock, &logger, cfg),
		sessions:  NewSessionUsecase(users, tokens, jwtAuth, validator, clock, cfg),
		profile:   NewProfileUsecase(users, profiles, validator),
	}
}

func registerParams(email, username string) RegisterParams {
	return RegisterParams{
		Username:        username,
		FirstName:       "Alice",
		LastName:        "Smith",
		Email:           email,
		Password:        "pw11",
		PasswordConfirm: "pw11",
	}
}

// registerActive registers an account and walks it through activation.
func (f *fixture) registerActive(t *testing.T, email, username string) *model.User {
	t.Helper()

	user, err := f.accounts.Register(context.Background(), registerParams(email, username))
	require.NoError(t, err)

	code, err := f.codes.GetByUserID(context.Background(), user.ID.Hex())
	require.NoError(t, err)

	require.NoError(t, f.accounts.Activate(context.Background(), email, code.Code))

	activated, err := f.users.GetUser(context.Background(), user.ID.Hex())
	require.NoError(t, err)

	return activated
}
