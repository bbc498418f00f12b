package policy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/policy"
	"github.com/hugh/stockroom/internal/tasks"
	"github.com/hugh/stockroom/internal/tenancy"
	"github.com/hugh/stockroom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	payloads []tasks.InvitationEmailPayload
	err      error
}

func (n *recordingNotifier) InvitationCreated(_ context.Context, p tasks.InvitationEmailPayload) error {
	n.payloads = append(n.payloads, p)
	return n.err
}

func newPolicyService(t *testing.T) (*policy.Service, *recordingNotifier, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	logger := testutil.DiscardLogger()
	notifier := &recordingNotifier{}
	authService := auth.NewService(tc.DB, tc.JWTService, logger)
	return policy.NewService(tc.DB, authService, notifier, logger), notifier, tc
}

func TestRequireRole(t *testing.T) {
	admin := tenancy.Scope{Role: models.RoleAdmin}
	member := tenancy.Scope{Role: models.RoleMember}

	assert.NoError(t, policy.RequireRole(admin, models.RoleAdmin))
	assert.NoError(t, policy.RequireRole(admin, models.RoleMember))
	assert.NoError(t, policy.RequireRole(member, models.RoleMember))
	assert.ErrorIs(t, policy.RequireRole(member, models.RoleAdmin), policy.ErrForbidden)
	assert.ErrorIs(t, policy.RequireRole(tenancy.Scope{Role: "owner"}, models.RoleMember), policy.ErrForbidden)
}

func TestService_ListUsers(t *testing.T) {
	svc, _, tc := newPolicyService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)
	tc.SecondTenant("Other")

	_, err := svc.ListUsers(ctx, testutil.ScopeFor(tc.Member))
	assert.ErrorIs(t, err, policy.ErrForbidden)

	users, err := svc.ListUsers(ctx, testutil.ScopeFor(tc.Admin))
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Equal(t, tc.Tenant.ID, u.TenantID)
	}
}

func TestService_Invite(t *testing.T) {
	svc, notifier, tc := newPolicyService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)
	scope := testutil.ScopeFor(tc.Admin)

	t.Run("member cannot invite", func(t *testing.T) {
		_, err := svc.Invite(ctx, testutil.ScopeFor(tc.Member), policy.InviteInput{Email: "x@example.com", Name: "X"})
		assert.ErrorIs(t, err, policy.ErrForbidden)
	})

	t.Run("creates principal with temporary password", func(t *testing.T) {
		inv, err := svc.Invite(ctx, scope, policy.InviteInput{Email: "Hire@Example.com", Name: "Hire"})
		require.NoError(t, err)

		assert.Equal(t, "hire@example.com", inv.User.Email)
		assert.Equal(t, models.RoleMember, inv.User.Role)
		assert.Equal(t, tc.Tenant.ID, inv.User.TenantID)
		assert.True(t, inv.User.IsActive)
		assert.Len(t, inv.TemporaryPassword, 12)

		authService := auth.NewService(tc.DB, tc.JWTService, testutil.DiscardLogger())
		user, err := authService.Authenticate(ctx, "hire@example.com", inv.TemporaryPassword)
		require.NoError(t, err)
		assert.Equal(t, inv.User.ID, user.ID)

		require.Len(t, notifier.payloads, 1)
		p := notifier.payloads[0]
		assert.Equal(t, inv.User.ID, p.UserID)
		assert.Equal(t, tc.Tenant.Code, p.TenantCode)
		assert.Equal(t, inv.TemporaryPassword, p.TemporaryPassword)
		assert.Equal(t, tc.Admin.Name, p.InvitedBy)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Invite(ctx, scope, policy.InviteInput{Email: tc.Member.Email, Name: "Again"})
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Invite(ctx, scope, policy.InviteInput{Email: " ", Name: "X"})
		assert.ErrorIs(t, err, policy.ErrInvalidInvitation)
	})

	t.Run("notifier failure does not undo the invite", func(t *testing.T) {
		notifier.err = errors.New("queue down")
		defer func() { notifier.err = nil }()

		inv, err := svc.Invite(ctx, scope, policy.InviteInput{Email: "second@example.com", Name: "Second", Role: models.RoleAdmin})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, inv.User.Role)
	})
}

func TestService_InviteSeatLimit(t *testing.T) {
	svc, _, tc := newPolicyService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)
	scope := testutil.ScopeFor(tc.Admin)

	require.NoError(t, tc.DB.Model(tc.Tenant).Update("max_users", 3).Error)

	_, err := svc.Invite(ctx, scope, policy.InviteInput{Email: "third@example.com", Name: "Third"})
	require.NoError(t, err)

	_, err = svc.Invite(ctx, scope, policy.InviteInput{Email: "fourth@example.com", Name: "Fourth"})
	assert.ErrorIs(t, err, policy.ErrUserLimitReached)

	var n int64
	require.NoError(t, tc.DB.Model(&models.User{}).Where("tenant_id = ?", tc.Tenant.ID).Count(&n).Error)
	assert.Equal(t, int64(3), n)
}

func TestService_DeleteUser(t *testing.T) {
	svc, _, tc := newPolicyService(t)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)
	scope := testutil.ScopeFor(tc.Admin)
	_, otherAdmin, _ := tc.SecondTenant("Other")

	t.Run("member cannot delete", func(t *testing.T) {
		err := svc.DeleteUser(ctx, testutil.ScopeFor(tc.Member), tc.Admin.ID)
		assert.ErrorIs(t, err, policy.ErrForbidden)
	})

	t.Run("self deletion", func(t *testing.T) {
		err := svc.DeleteUser(ctx, scope, tc.Admin.ID)
		assert.ErrorIs(t, err, policy.ErrSelfDeletion)
	})

	t.Run("other tenant's user is not found", func(t *testing.T) {
		err := svc.DeleteUser(ctx, scope, otherAdmin.ID)
		assert.ErrorIs(t, err, tenancy.ErrNotFound)

		err = svc.DeleteUser(ctx, scope, uuid.New())
		assert.ErrorIs(t, err, tenancy.ErrNotFound)
	})

	t.Run("deletes member", func(t *testing.T) {
		require.NoError(t, svc.DeleteUser(ctx, scope, tc.Member.ID))

		var n int64
		require.NoError(t, tc.DB.Model(&models.User{}).Where("id = ?", tc.Member.ID).Count(&n).Error)
		assert.Zero(t, n)
	})
}
