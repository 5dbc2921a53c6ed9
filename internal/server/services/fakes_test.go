package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{SecretKey: "k", BcryptCost: bcrypt.MinCost}
}

// --- users ---

type fakeUsersRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.User
	avatars   map[string][]byte
	createErr error
	deleteErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}, avatars: map[string][]byte{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, other := range f.byID {
		if other.Email == u.Email {
			return nil, common.ErrEmailTaken
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) Update(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	for id, other := range f.byID {
		if id != u.ID && other.Email == u.Email {
			return nil, common.ErrEmailTaken
		}
	}
	u.UpdatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	delete(f.avatars, id)
	return nil
}

func (f *fakeUsersRepo) SetAvatar(_ context.Context, id string, avatar []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	f.avatars[id] = avatar
	return nil
}

func (f *fakeUsersRepo) GetAvatar(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.avatars[id]
	if len(a) == 0 {
		return nil, common.ErrorNotFound
	}
	return a, nil
}

// --- sessions ---

type fakeSessionsRepo struct {
	mu     sync.Mutex
	tokens map[string]map[string]bool
}

func newFakeSessionsRepo() *fakeSessionsRepo {
	return &fakeSessionsRepo{tokens: map[string]map[string]bool{}}
}

func (f *fakeSessionsRepo) Create(_ context.Context, userID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tokens[userID] == nil {
		f.tokens[userID] = map[string]bool{}
	}
	f.tokens[userID][token] = true
	return nil
}

func (f *fakeSessionsRepo) Exists(_ context.Context, userID, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[userID][token], nil
}

func (f *fakeSessionsRepo) Delete(_ context.Context, userID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens[userID], token)
	return nil
}

func (f *fakeSessionsRepo) DeleteAll(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, userID)
	return nil
}

func (f *fakeSessionsRepo) count(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens[userID])
}

// --- tasks ---

type fakeTasksRepo struct {
	mu             sync.Mutex
	byID           map[string]*models.Task
	lastOpts       tasks.ListOptions
	getCalls       int
	deleteOwnerErr error
}

func newFakeTasksRepo() *fakeTasksRepo {
	return &fakeTasksRepo{byID: map[string]*models.Task{}}
}

func (f *fakeTasksRepo) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	cp := *t
	f.byID[t.ID] = &cp
	return t, nil
}

func (f *fakeTasksRepo) GetByID(_ context.Context, ownerID, id string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	t, ok := f.byID[id]
	if !ok || t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasksRepo) Update(_ context.Context, t *models.Task) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.byID[t.ID]
	if !ok || cur.OwnerID != t.OwnerID {
		return nil, common.ErrorNotFound
	}
	t.UpdatedAt = time.Now()
	cp := *t
	f.byID[t.ID] = &cp
	return t, nil
}

func (f *fakeTasksRepo) Delete(_ context.Context, ownerID, id string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || t.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	delete(f.byID, id)
	return t, nil
}

func (f *fakeTasksRepo) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteOwnerErr != nil {
		return 0, f.deleteOwnerErr
	}
	var n int64
	for id, t := range f.byID {
		if t.OwnerID == ownerID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeTasksRepo) List(_ context.Context, ownerID string, opts tasks.ListOptions) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastOpts = opts
	out := make([]*models.Task, 0)
	for _, t := range f.byID {
		if t.OwnerID != ownerID {
			continue
		}
		if opts.Completed != nil && t.Completed != *opts.Completed {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTasksRepo) countFor(ownerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.byID {
		if t.OwnerID == ownerID {
			n++
		}
	}
	return n
}

// --- manager ---

type fakeRepoManager struct {
	users    *fakeUsersRepo
	sessions *fakeSessionsRepo
	tasks    *fakeTasksRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:    newFakeUsersRepo(),
		sessions: newFakeSessionsRepo(),
		tasks:    newFakeTasksRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository        { return m.sessions }
func (m *fakeRepoManager) Tasks(dbx.DBTX) tasks.Repository              { return m.tasks }

// --- mailer and avatar store ---

type fakeMailer struct {
	mu        sync.Mutex
	welcomed  []string
	cancelled []string
	err       error
	// release, when set, holds every send until it is closed.
	release chan struct{}
	// sendErrs and deadlines capture the delivery context at send time.
	sendErrs  []error
	deadlines []bool
}

func (f *fakeMailer) record(ctx context.Context, list *[]string, email string) error {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	*list = append(*list, email)
	_, ok := ctx.Deadline()
	f.sendErrs = append(f.sendErrs, ctx.Err())
	f.deadlines = append(f.deadlines, ok)
	return f.err
}

func (f *fakeMailer) SendWelcome(ctx context.Context, email, _ string) error {
	return f.record(ctx, &f.welcomed, email)
}

func (f *fakeMailer) SendCancellation(ctx context.Context, email, _ string) error {
	return f.record(ctx, &f.cancelled, email)
}

func (f *fakeMailer) sent() (welcomed, cancelled []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.welcomed...), append([]string(nil), f.cancelled...)
}

type fakeAvatarStore struct {
	data map[string][]byte
}

func newFakeAvatarStore() *fakeAvatarStore {
	return &fakeAvatarStore{data: map[string][]byte{}}
}

func (f *fakeAvatarStore) Put(_ context.Context, userID string, png []byte) error {
	f.data[userID] = png
	return nil
}

func (f *fakeAvatarStore) Get(_ context.Context, userID string) ([]byte, error) {
	b, ok := f.data[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return b, nil
}

func (f *fakeAvatarStore) Delete(_ context.Context, userID string) error {
	delete(f.data, userID)
	return nil
}

// userFixture wires a UserService over in-memory repositories.
type userFixture struct {
	svc     *UserService
	rm      *fakeRepoManager
	mail    *fakeMailer
	avatars *fakeAvatarStore
	mock    sqlmock.Sqlmock
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := newFakeRepoManager()
	mail := &fakeMailer{}
	store := newFakeAvatarStore()
	return &userFixture{
		svc:     NewUserService(db, rm, store, mail, testConfig(), logging.Discard()),
		rm:      rm,
		mail:    mail,
		avatars: store,
		mock:    mock,
	}
}

// register creates a user through the service, expecting one committed tx.
func (fx *userFixture) register(t *testing.T, name, email string) (*models.User, string) {
	t.Helper()
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	u, tok, err := fx.svc.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: "red12345!", Age: 20})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	fx.svc.Wait()
	return u, tok
}
