// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/MarcoDecco/spacefy-mobile/internal/adapter"
	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/mock"
	"github.com/MarcoDecco/spacefy-mobile/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestAuthSvc(t *testing.T, online bool) (AuthService, *sessionService, *mock.MockServerAdapter) {
	t.Helper()
	ctrl := gomock.NewController(t)

	sessions := newTestSessionSvc(t, newTestStorages(t), newClock())
	mockAdapter := mock.NewMockServerAdapter(ctrl)
	mockConnectivity := mock.NewMockConnectivityChecker(ctrl)
	mockConnectivity.EXPECT().IsOnline(gomock.Any()).Return(online).AnyTimes()

	return NewAuthService(sessions, mockAdapter, mockConnectivity, logger.Nop()), sessions, mockAdapter
}

func TestAuthLogin_Online(t *testing.T) {
	ctx := context.Background()
	svc, sessions, mockAdapter := newTestAuthSvc(t, true)

	mockAdapter.EXPECT().
		Login(gomock.Any(), models.Credentials{Email: "a@x.com", Password: "secret"}).
		Return(models.AuthResult{UserID: "u1", Token: "T1"}, nil)

	user, err := svc.Login(ctx, "  A@X.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "T1", user.Token)
	assert.True(t, user.IsLoggedIn)

	current, err := sessions.GetCurrentUser(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "u1", current.ID)
}

func TestAuthLogin_RemoteRejects(t *testing.T) {
	tests := []struct {
		name      string
		remoteErr error
		want      error
	}{
		{
			name:      "wrong password",
			remoteErr: fmt.Errorf("%w: invalid credentials", adapter.ErrUnauthorized),
			want:      ErrInvalidCredentials,
		},
		{
			name:      "unknown user",
			remoteErr: fmt.Errorf("%w: user not found", adapter.ErrNotFound),
			want:      ErrInvalidCredentials,
		},
		{
			name:      "bad request",
			remoteErr: fmt.Errorf("%w: email is required", adapter.ErrBadRequest),
			want:      ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sessions, mockAdapter := newTestAuthSvc(t, true)
			mockAdapter.EXPECT().Login(gomock.Any(), gomock.Any()).Return(models.AuthResult{}, tt.remoteErr)

			_, err := svc.Login(context.Background(), "a@x.com", "secret")
			assert.ErrorIs(t, err, tt.want)

			// отказ сервера не должен создавать локальную сессию
			current, err := sessions.GetCurrentUser(context.Background(), "")
			require.NoError(t, err)
			assert.Nil(t, current)
		})
	}
}

func TestAuthLogin_OfflineFallback(t *testing.T) {
	ctx := context.Background()
	svc, sessions, mockAdapter := newTestAuthSvc(t, true)

	_, err := sessions.SaveSession(ctx, "u1", "a@x.com", "T1")
	require.NoError(t, err)
	require.NoError(t, sessions.Logout(ctx, "u1"))

	mockAdapter.EXPECT().Login(gomock.Any(), gomock.Any()).
		Return(models.AuthResult{}, fmt.Errorf("login request: %w: connection refused", adapter.ErrRemoteUnavailable))
	mockAdapter.EXPECT().SetToken("T1")

	user, err := svc.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, user.IsLoggedIn)
}

func TestAuthLogin_Offline(t *testing.T) {
	ctx := context.Background()

	t.Run("known session", func(t *testing.T) {
		svc, sessions, mockAdapter := newTestAuthSvc(t, false)
		_, err := sessions.SaveSession(ctx, "u1", "a@x.com", "T1")
		require.NoError(t, err)

		mockAdapter.EXPECT().SetToken("T1")

		user, err := svc.Login(ctx, "A@x.com", "whatever")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
	})

	t.Run("no session", func(t *testing.T) {
		svc, _, _ := newTestAuthSvc(t, false)

		_, err := svc.Login(ctx, "a@x.com", "secret")
		assert.ErrorIs(t, err, ErrOfflineLoginUnavailable)
	})
}

func TestAuthLogin_Validation(t *testing.T) {
	svc, _, _ := newTestAuthSvc(t, true)

	_, err := svc.Login(context.Background(), " ", "secret")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Login(context.Background(), "a@x.com", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthLogout(t *testing.T) {
	ctx := context.Background()
	svc, sessions, mockAdapter := newTestAuthSvc(t, false)

	assert.ErrorIs(t, svc.Logout(ctx), ErrNoActiveUser)

	_, err := sessions.SaveSession(ctx, "u1", "a@x.com", "T1")
	require.NoError(t, err)

	mockAdapter.EXPECT().SetToken("")
	require.NoError(t, svc.Logout(ctx))

	ok, err := sessions.IsLoggedIn(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	// токен сохраняется для офлайн-входа
	stored, err := sessions.GetUserSession(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "T1", stored.Token)
}

func TestAuthRestoreSession(t *testing.T) {
	ctx := context.Background()
	svc, sessions, mockAdapter := newTestAuthSvc(t, false)

	user, err := svc.RestoreSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	_, err = sessions.SaveSession(ctx, "u1", "a@x.com", "T1")
	require.NoError(t, err)

	mockAdapter.EXPECT().SetToken("T1")
	user, err = svc.RestoreSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
}
