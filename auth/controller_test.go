package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cleanflow/go-client-session/auth"
	"github.com/cleanflow/go-client-session/kvstore/memstore"
	"github.com/cleanflow/go-client-session/relations"
	fakeloader "github.com/cleanflow/go-client-session/relations/loaderfake"
	"github.com/cleanflow/go-client-session/sessions"
	"github.com/cleanflow/go-client-session/tabs"
	"github.com/cleanflow/go-client-session/token"
	"github.com/cleanflow/go-client-session/users"
	fakeuserrepo "github.com/cleanflow/go-client-session/users/repofake"
	"github.com/cleanflow/go-client-session/verifier"
)

const (
	secretStr = "test-secret"

	testAdminID       = "admin-1"
	testAdminEmail    = "admin@x.com"
	testAdminPassword = "admin123"

	testClientID       = "client-1"
	testClientEmail    = "client@x.com"
	testClientPassword = "client123"

	testEmployeeID       = "employee-1"
	testEmployeeEmail    = "employee@x.com"
	testEmployeePassword = "employee123"
)

// testFixture holds all test dependencies for one simulated tab
type testFixture struct {
	shared     *memstore.MemStore
	local      *memstore.MemStore
	loader     *fakeloader.FakeLoader
	sessions   *sessions.Store
	registry   *tabs.Registry
	verifier   auth.Verifier
	controller *auth.Controller
}

func seedUsers(t *testing.T) users.Repo {
	t.Helper()

	repo := fakeuserrepo.NewFakeUserRepo()
	seed := []struct {
		id, email, password string
		role                users.RoleType
		active              bool
	}{
		{testAdminID, testAdminEmail, testAdminPassword, users.RoleAdmin, true},
		{testClientID, testClientEmail, testClientPassword, users.RoleClient, true},
		{testEmployeeID, testEmployeeEmail, testEmployeePassword, users.RoleEmployee, true},
		{"inactive-1", "inactive@x.com", "inactive123", users.RoleClient, false},
	}
	for _, u := range seed {
		hash, err := users.HashPassword(u.password)
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(&users.User{
			ID:           u.id,
			Email:        u.email,
			PasswordHash: hash,
			Role:         u.role,
			Active:       u.active,
		}))
	}
	return repo
}

func newLoader() *fakeloader.FakeLoader {
	loader := fakeloader.NewFakeLoader()
	loader.AddCompany(&relations.Company{ID: "company-1", UserID: testClientID, Name: "Acme Cleaning"})
	loader.AddEmployee(&relations.Employee{ID: "emp-rec-1", UserID: testEmployeeID, CompanyID: "company-1"})
	return loader
}

// setupTestFixture wires one tab over fresh stores. Pass a shared store to
// simulate additional tabs of the same origin.
func setupTestFixture(t *testing.T, shared *memstore.MemStore, creds auth.Verifier, loader *fakeloader.FakeLoader) *testFixture {
	t.Helper()

	if shared == nil {
		shared = memstore.New()
	}
	if creds == nil {
		var err error
		creds, err = verifier.New(seedUsers(t))
		require.NoError(t, err)
	}
	if loader == nil {
		loader = newLoader()
	}

	local := memstore.New()
	sessionStore := sessions.NewStore(local)
	registry := tabs.NewRegistry(shared, local, tabs.WithOnEmpty(func() {
		_ = sessionStore.Clear()
	}))

	controller, err := auth.New(auth.Deps{
		Verifier:  creds,
		Relations: loader,
		Sessions:  sessionStore,
		Tabs:      registry,
		Tokens:    token.New(token.NewHMACSigner(secretStr)),
	})
	require.NoError(t, err)

	return &testFixture{
		shared:     shared,
		local:      local,
		loader:     loader,
		sessions:   sessionStore,
		registry:   registry,
		verifier:   creds,
		controller: controller,
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := auth.New(auth.Deps{})
	require.Error(t, err)
}

func TestLogin_Success(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, f.controller.Login(ctx, testAdminEmail, testAdminPassword))

	state := f.controller.Snapshot()
	require.True(t, state.IsAuthenticated)
	require.False(t, state.Loading)
	require.Equal(t, testAdminID, state.User.ID)
	require.True(t, state.IsAdmin())
	require.Equal(t, "/admin", f.controller.DashboardRoute())
}

func TestLogin_ClientGetsCompanyRecord(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)

	require.NoError(t, f.controller.Login(context.Background(), testClientEmail, testClientPassword))

	state := f.controller.Snapshot()
	require.True(t, state.IsClient())
	require.NotNil(t, state.Company)
	require.Equal(t, "Acme Cleaning", state.Company.Name)
	require.Nil(t, state.Employee)
	require.Equal(t, "/client", f.controller.DashboardRoute())
}

func TestLogin_EmployeeGetsEmployeeRecord(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)

	require.NoError(t, f.controller.Login(context.Background(), testEmployeeEmail, testEmployeePassword))

	state := f.controller.Snapshot()
	require.True(t, state.IsEmployee())
	require.NotNil(t, state.Employee)
	require.Nil(t, state.Company)
	require.Equal(t, "/employee", f.controller.DashboardRoute())
}

func TestLogin_WrongPassword(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)

	err := f.controller.Login(context.Background(), "user@x.com", "wrong")
	require.Error(t, err)
	require.Equal(t, "Credenciais inválidas", err.Error())

	state := f.controller.Snapshot()
	require.False(t, state.IsAuthenticated)
	require.Nil(t, state.User)
	require.False(t, state.Loading)
	require.Equal(t, "/login", f.controller.DashboardRoute())
}

func TestLogin_InactiveAccount(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)

	err := f.controller.Login(context.Background(), "inactive@x.com", "inactive123")
	require.Error(t, err)
	require.Equal(t, "Credenciais inválidas", err.Error())
	require.False(t, f.controller.Snapshot().IsAuthenticated)
}

func TestLogin_FailsClosedWhenRelationLoadFails(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)
	f.loader.FailWith(errors.New("backend down"))

	err := f.controller.Login(context.Background(), testClientEmail, testClientPassword)
	require.Error(t, err)

	state := f.controller.Snapshot()
	require.False(t, state.IsAuthenticated)
	require.False(t, state.Loading)
}

func TestLogin_ThenRestoreYieldsSameUser(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, f.controller.Login(ctx, testClientEmail, testClientPassword))
	loggedIn := f.controller.Snapshot()

	f.controller.RestoreSession(ctx)
	restored := f.controller.Snapshot()

	require.True(t, restored.IsAuthenticated)
	require.Equal(t, loggedIn.User.ID, restored.User.ID)
	require.Equal(t, loggedIn.Company.ID, restored.Company.ID)
}

func TestRestoreSession_NoSession(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)

	f.controller.RestoreSession(context.Background())

	state := f.controller.Snapshot()
	require.False(t, state.IsAuthenticated)
	require.False(t, state.Loading)
}

func TestRestoreSession_FailsClosedButKeepsEntry(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, f.controller.Login(ctx, testClientEmail, testClientPassword))

	f.loader.FailWith(errors.New("backend down"))
	f.controller.RestoreSession(ctx)
	require.False(t, f.controller.Snapshot().IsAuthenticated)

	// Transient failure must not destroy the stored session
	require.NotNil(t, f.sessions.Read())

	f.loader.FailWith(nil)
	f.controller.RestoreSession(ctx)
	require.True(t, f.controller.Snapshot().IsAuthenticated)
}

func TestLogout_AlwaysUnauthenticated(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)
	ctx := context.Background()

	t.Run("with active session", func(t *testing.T) {
		require.NoError(t, f.controller.Login(ctx, testAdminEmail, testAdminPassword))
		require.NoError(t, f.controller.Logout(ctx))

		state := f.controller.Snapshot()
		require.False(t, state.IsAuthenticated)
		require.Nil(t, state.User)
		require.Nil(t, f.sessions.Read())
	})

	t.Run("with no session", func(t *testing.T) {
		require.NoError(t, f.controller.Logout(ctx))
		require.False(t, f.controller.Snapshot().IsAuthenticated)
	})
}

func TestLogout_LeavesTabRegistryAlone(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)
	ctx := context.Background()

	f.registry.AddSelf()
	require.NoError(t, f.controller.Login(ctx, testAdminEmail, testAdminPassword))
	require.NoError(t, f.controller.Logout(ctx))

	// Only tab close triggers registry-based clearing
	require.False(t, f.registry.IsEmpty())
}

func TestLogout_CrossTabVisibility(t *testing.T) {
	// Two tabs sharing one session entry (the duplicated-tab case): after
	// tab A logs out, tab B's next restore must see the session gone even
	// though B never initiated the logout.
	f := setupTestFixture(t, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, f.controller.Login(ctx, testAdminEmail, testAdminPassword))

	tabB, err := auth.New(auth.Deps{
		Verifier:  f.verifier,
		Relations: f.loader,
		Sessions:  sessions.NewStore(f.local),
		Tabs:      tabs.NewRegistry(f.shared, memstore.New()),
		Tokens:    token.New(token.NewHMACSigner(secretStr)),
	})
	require.NoError(t, err)

	tabB.RestoreSession(ctx)
	require.True(t, tabB.Snapshot().IsAuthenticated)

	require.NoError(t, f.controller.Logout(ctx))

	tabB.RestoreSession(ctx)
	require.False(t, tabB.Snapshot().IsAuthenticated)
}

func TestSignup_AutoLogin(t *testing.T) {
	loader := newLoader()
	loader.AutoCreateCompanies()
	f := setupTestFixture(t, nil, nil, loader)

	err := f.controller.Signup(context.Background(), users.Registration{
		Email:    "new@x.com",
		Password: "Newuser123",
		Name:     "New User",
		Username: "newuser",
		CPF:      "12345678901",
	})
	require.NoError(t, err)

	state := f.controller.Snapshot()
	require.True(t, state.IsAuthenticated)
	require.True(t, state.IsClient())
	require.NotNil(t, state.Company)
	require.NotNil(t, f.sessions.Read())
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)

	err := f.controller.Signup(context.Background(), users.Registration{
		Email:    testClientEmail,
		Password: "Newuser123",
		Name:     "Dup",
		Username: "dupuser",
		CPF:      "12345678901",
	})
	require.Error(t, err)
	require.Equal(t, "E-mail já cadastrado", err.Error())
	require.False(t, f.controller.Snapshot().IsAuthenticated)
}

func TestLastTabCloseClearsSession(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)
	ctx := context.Background()

	f.registry.AddSelf()
	require.NoError(t, f.controller.Login(ctx, testAdminEmail, testAdminPassword))

	// Two more tabs of the same origin
	others := make([]*tabs.Registry, 0, 2)
	for i := 0; i < 2; i++ {
		r := tabs.NewRegistry(f.shared, memstore.New())
		r.AddSelf()
		others = append(others, r)
	}

	// Closing every other tab leaves the session intact
	for _, r := range others {
		r.RemoveSelf()
	}
	require.NotNil(t, f.sessions.Read())

	// Closing the last tab clears it
	f.registry.RemoveSelf()
	require.Nil(t, f.sessions.Read())
	require.True(t, f.registry.IsEmpty())
}

func TestSubscribe_PublishesStateChanges(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)

	var published []auth.State
	unsubscribe := f.controller.Subscribe(func(state auth.State) {
		published = append(published, state)
	})

	require.NoError(t, f.controller.Login(context.Background(), testAdminEmail, testAdminPassword))

	// Loading publication first, authenticated publication last
	require.NotEmpty(t, published)
	require.True(t, published[0].Loading)
	last := published[len(published)-1]
	require.True(t, last.IsAuthenticated)
	require.False(t, last.Loading)

	// After unsubscribing, further publications are no longer delivered
	unsubscribe()
	countBefore := len(published)
	require.NoError(t, f.controller.Logout(context.Background()))
	require.Equal(t, countBefore, len(published))
}

// blockingVerifier parks Login until released, to hold the in-flight slot.
type blockingVerifier struct {
	inner   auth.Verifier
	entered chan struct{}
	release chan struct{}
}

func (b *blockingVerifier) Login(ctx context.Context, email, password string) (*users.User, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.inner.Login(ctx, email, password)
}

func (b *blockingVerifier) Register(ctx context.Context, registration users.Registration) (*users.User, error) {
	return b.inner.Register(ctx, registration)
}

func TestLogin_SecondCallWhileInFlight(t *testing.T) {
	creds, err := verifier.New(seedUsers(t))
	require.NoError(t, err)
	blocking := &blockingVerifier{
		inner:   creds,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	f := setupTestFixture(t, nil, blocking, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- f.controller.Login(ctx, testAdminEmail, testAdminPassword)
	}()

	<-blocking.entered
	require.ErrorIs(t, f.controller.Login(ctx, testAdminEmail, testAdminPassword), auth.LoginInFlightErr)

	close(blocking.release)
	require.NoError(t, <-done)
	require.True(t, f.controller.Snapshot().IsAuthenticated)
}

func TestDispose_RemovesTabAndRefusesNewLogins(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.controller.Init(ctx)
	require.False(t, f.registry.IsEmpty())
	require.False(t, f.controller.Snapshot().Loading)

	f.controller.Dispose()
	require.True(t, f.registry.IsEmpty())
	require.ErrorIs(t, f.controller.Login(ctx, testAdminEmail, testAdminPassword), auth.ControllerClosedErr)

	// Dispose is idempotent
	f.controller.Dispose()
}

func TestRestoreSession_ExpiredSessionIsNotTrusted(t *testing.T) {
	f := setupTestFixture(t, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, f.controller.Login(ctx, testAdminEmail, testAdminPassword))

	// Rewind the stored expiry into the past
	expired := sessions.NewStore(f.local, sessions.WithNowFunc(func() time.Time {
		return time.Now().Add(48 * time.Hour)
	}))
	require.Nil(t, expired.Read())

	f.controller.RestoreSession(ctx)
	require.False(t, f.controller.Snapshot().IsAuthenticated)
}
