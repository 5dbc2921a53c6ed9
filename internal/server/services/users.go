// Package services contains server-side business logic. UserService owns
// accounts and sessions, TaskService owns tasks and AvatarService owns
// profile images.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage/avatars"
)

// RegisterInput is the payload of a sign-up.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Age      int
}

// UserService handles registration, login, the authentication gate, profile
// updates and account removal.
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	avatars               avatars.Store
	mailer                mailer.Mailer
	hasher                *auth.PasswordHasher
	jwtSecret             []byte
	tokenValidityDuration time.Duration
	logger                logging.Logger

	mailTimeout time.Duration
	mailWG      sync.WaitGroup
}

// defaultMailTimeout bounds a single background email delivery.
const defaultMailTimeout = 10 * time.Second

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, store avatars.Store, mail mailer.Mailer, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		avatars:               store,
		mailer:                mail,
		hasher:                auth.NewPasswordHasher(cfg.BcryptCost),
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
		logger:                logger,
		mailTimeout:           defaultMailTimeout,
	}
}

// sendMail delivers an email in the background so the request does not wait
// on the provider. The delivery context outlives the request but is bounded by
// mailTimeout. Failures are only logged.
func (s *UserService) sendMail(ctx context.Context, kind, userID string, send func(context.Context) error) {
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailTimeout)
	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()
		defer cancel()
		if err := send(mctx); err != nil {
			s.logger.Warn(mctx, kind+" email failed", "user_id", userID, "error", err)
		}
	}()
}

// Wait blocks until every email queued so far has been delivered or has
// timed out.
func (s *UserService) Wait() {
	s.mailWG.Wait()
}

// Register validates the input, stores the user with a hashed password and
// opens its first session. Both rows are written in one transaction.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	p := profile{Name: strings.TrimSpace(in.Name), Email: normalizeEmail(in.Email), Age: in.Age}
	password := strings.TrimSpace(in.Password)
	if err := checkUser(p, password, true); err != nil {
		return nil, "", err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	var (
		user  *models.User
		token string
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			Name: p.Name, Email: p.Email, PasswordHash: hash, Age: p.Age,
		})
		if err != nil {
			return err
		}
		t, err := s.openSession(ctx, tx, u.ID)
		if err != nil {
			return err
		}
		user, token = u, t
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	email, name := user.Email, user.Name
	s.sendMail(ctx, "welcome", user.ID, func(ctx context.Context) error {
		return s.mailer.SendWelcome(ctx, email, name)
	})

	return user, token, nil
}

// Login checks the credentials and opens a new session. An unknown email and
// a wrong password fail with the same common.ErrAuthFailure.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrAuthFailure
		}
		return nil, "", err
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", common.ErrAuthFailure
	}

	token, err := s.openSession(ctx, s.db, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to its user. It fails with
// ErrInvalidToken, ErrUnknownUser or ErrRevokedToken, all of which wrap
// common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownUser
		}
		return nil, err
	}

	active, err := s.repomanager.Sessions(s.db).Exists(ctx, user.ID, token)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, common.ErrRevokedToken
	}

	return user, nil
}

// Logout revokes only the token the request came with.
func (s *UserService) Logout(ctx context.Context, userID, token string) error {
	return s.repomanager.Sessions(s.db).Delete(ctx, userID, token)
}

// LogoutAll revokes every token of the user.
func (s *UserService) LogoutAll(ctx context.Context, userID string) error {
	return s.repomanager.Sessions(s.db).DeleteAll(ctx, userID)
}

// Update applies a partial update. Keys outside name, email, password and age
// reject the whole patch before anything is decoded; a failed validation
// leaves the stored user untouched.
func (s *UserService) Update(ctx context.Context, user *models.User, patch map[string]json.RawMessage) (*models.User, error) {
	if err := checkPatchKeys(patch, "name", "email", "password", "age"); err != nil {
		return nil, err
	}

	p := profile{Name: user.Name, Email: user.Email, Age: user.Age}
	var (
		password   string
		violations []string
	)
	for _, f := range []struct {
		key string
		dst any
	}{{"name", &p.Name}, {"email", &p.Email}, {"password", &password}, {"age", &p.Age}} {
		if msg := decodeField(patch, f.key, f.dst); msg != "" {
			violations = append(violations, msg)
		}
	}
	if len(violations) > 0 {
		return nil, common.NewValidationError(violations...)
	}

	p.Name = strings.TrimSpace(p.Name)
	p.Email = normalizeEmail(p.Email)
	password = strings.TrimSpace(password)
	_, passwordChanged := patch["password"]

	if err := checkUser(p, password, passwordChanged); err != nil {
		return nil, err
	}

	updated := *user
	updated.Name, updated.Email, updated.Age = p.Name, p.Email, p.Age
	if passwordChanged {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return nil, err
		}
		updated.PasswordHash = hash
	}

	return s.repomanager.Users(s.db).Update(ctx, &updated)
}

// Delete removes the user with its sessions and tasks in one transaction,
// then drops the avatar and sends the goodbye email.
func (s *UserService) Delete(ctx context.Context, user *models.User) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Sessions(tx).DeleteAll(ctx, user.ID); err != nil {
			return err
		}
		n, err := s.repomanager.Tasks(tx).DeleteByOwner(ctx, user.ID)
		if err != nil {
			return err
		}
		s.logger.Debug(ctx, "tasks removed with user", "user_id", user.ID, "count", n)
		return s.repomanager.Users(tx).Delete(ctx, user.ID)
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.avatars.Delete(ctx, user.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "avatar cleanup failed", "user_id", user.ID, "error", err)
	}
	email, name := user.Email, user.Name
	s.sendMail(ctx, "cancellation", user.ID, func(ctx context.Context) error {
		return s.mailer.SendCancellation(ctx, email, name)
	})
	return nil
}

func (s *UserService) openSession(ctx context.Context, db dbx.DBTX, userID string) (string, error) {
	token, err := auth.GenerateToken(userID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", err
	}
	if err := s.repomanager.Sessions(db).Create(ctx, userID, token); err != nil {
		return "", err
	}
	return token, nil
}
