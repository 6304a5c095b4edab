// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MarcoDecco/spacefy-mobile/internal/adapter"
	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/mock"
	"github.com/MarcoDecco/spacefy-mobile/internal/store"
	"github.com/MarcoDecco/spacefy-mobile/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type favoriteFixture struct {
	svc          *favoriteService
	sessions     *sessionService
	storages     *store.ClientStorages
	adapter      *mock.MockServerAdapter
	connectivity *mock.MockConnectivityChecker
	clock        *clock
}

func newFavoriteFixture(t *testing.T, online bool) *favoriteFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	storages := newTestStorages(t)
	c := newClock()
	sessions := newTestSessionSvc(t, storages, c)
	mockAdapter := mock.NewMockServerAdapter(ctrl)
	mockConnectivity := mock.NewMockConnectivityChecker(ctrl)
	mockConnectivity.EXPECT().IsOnline(gomock.Any()).Return(online).AnyTimes()

	svc := NewFavoriteService(storages, sessions, mockAdapter, mockConnectivity, logger.Nop()).(*favoriteService)
	svc.now = c.Now

	return &favoriteFixture{
		svc:          svc,
		sessions:     sessions,
		storages:     storages,
		adapter:      mockAdapter,
		connectivity: mockConnectivity,
		clock:        c,
	}
}

func (f *favoriteFixture) login(t *testing.T, id, token string) {
	t.Helper()
	_, err := f.sessions.SaveSession(context.Background(), id, id+"@x.com", token)
	require.NoError(t, err)
}

func newSpace(id, name string) models.Space {
	return models.Space{
		ID:        id,
		Name:      name,
		ImageURLs: []string{},
		Amenities: []string{"wifi"},
		WeekDays:  []string{},
		Rules:     []string{},
	}
}

func favoriteIDs(favorites []models.FavoriteSpace) []string {
	ids := make([]string, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.ID)
	}
	return ids
}

// ── ToggleFavorite ───────────────────────────────────────────────────────────

func TestToggleFavorite_OfflineUniqueness(t *testing.T) {
	ctx := context.Background()
	f := newFavoriteFixture(t, false)
	f.login(t, "u1", "T1")

	for i, want := range []bool{true, false, true} {
		got, err := f.svc.ToggleFavorite(ctx, newSpace("s1", "Loft"), models.Identity{})
		require.NoError(t, err, "toggle %d", i)
		assert.Equal(t, want, got, "toggle %d", i)

		fav, err := f.svc.IsFavorite(ctx, "u1", "s1")
		require.NoError(t, err)
		assert.Equal(t, want, fav, "toggle %d", i)
	}

	rows, err := f.storages.Favorites.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestToggleFavorite_RemoteAnswerWins(t *testing.T) {
	ctx := context.Background()
	f := newFavoriteFixture(t, true)
	f.login(t, "u1", "T1")

	// remote already had it favorited twice in a row: one local row only
	f.adapter.EXPECT().ToggleFavorite(gomock.Any(), "u1", "s1", "T1").Return(true, nil).Times(2)

	for i := 0; i < 2; i++ {
		got, err := f.svc.ToggleFavorite(ctx, newSpace("s1", "Loft"), models.Identity{})
		require.NoError(t, err)
		assert.True(t, got)
	}

	rows, err := f.storages.Favorites.FindAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// the remote answer overrides the local inversion
	f.adapter.EXPECT().ToggleFavorite(gomock.Any(), "u1", "s2", "T1").Return(false, nil)
	got, err := f.svc.ToggleFavorite(ctx, newSpace("s2", "Hall"), models.Identity{})
	require.NoError(t, err)
	assert.False(t, got)

	fav, err := f.svc.IsFavorite(ctx, "u1", "s2")
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestToggleFavorite_RemoteFailureInvertsLocalState(t *testing.T) {
	ctx := context.Background()
	f := newFavoriteFixture(t, true)
	f.login(t, "u1", "T1")

	f.adapter.EXPECT().ToggleFavorite(gomock.Any(), "u1", "s1", "T1").
		Return(false, fmt.Errorf("toggle favorite request: %w", adapter.ErrRemoteUnavailable)).Times(2)

	got, err := f.svc.ToggleFavorite(ctx, newSpace("s1", "Loft"), models.Identity{})
	require.NoError(t, err)
	assert.True(t, got)

	got, err = f.svc.ToggleFavorite(ctx, newSpace("s1", "Loft"), models.Identity{})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestToggleFavorite_CachesSpace(t *testing.T) {
	ctx := context.Background()
	f := newFavoriteFixture(t, false)
	f.login(t, "u1", "T1")

	full := newSpace("s1", "Loft")
	full.PricePerHour = 30
	require.NoError(t, f.storages.Spaces.Upsert(ctx, full))

	// a bare id must not blank the cached listing
	_, err := f.svc.ToggleFavorite(ctx, models.Space{ID: "s1"}, models.Identity{})
	require.NoError(t, err)

	cached, err := f.storages.Spaces.FindOne(ctx, store.Eq("id", "s1"))
	require.NoError(t, err)
	assert.Equal(t, "Loft", cached.Name)
	assert.InDelta(t, 30.0, cached.PricePerHour, 1e-9)

	_, err = f.svc.ToggleFavorite(ctx, models.Space{ID: "s9"}, models.Identity{})
	require.NoError(t, err)
	_, err = f.storages.Spaces.FindOne(ctx, store.Eq("id", "s9"))
	require.NoError(t, err)
}

func TestToggleFavorite_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFavoriteFixture(t, false)

	_, err := f.svc.ToggleFavorite(ctx, models.Space{ID: " "}, models.Identity{UserID: "u1"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.ToggleFavorite(ctx, newSpace("s1", "Loft"), models.Identity{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestToggleFavorite_FallbackIdentityNeedsLocalUser(t *testing.T) {
	ctx := context.Background()
	f := newFavoriteFixture(t, false)

	_, err := f.svc.ToggleFavorite(ctx, newSpace("s1", "Loft"), models.Identity{UserID: "u1"})
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	require.NoError(t, f.storages.Users.Upsert(ctx, models.User{ID: "u1", Email: "u1@x.com", Token: "T"}))
	got, err := f.svc.ToggleFavorite(ctx, newSpace("s1", "Loft"), models.Identity{UserID: "u1"})
	require.NoError(t, err)
	assert.True(t, got)
}

// ── ListFavorites ────────────────────────────────────────────────────────────

func TestListFavorites_OfflineFallback(t *testing.T) {
	ctx := context.Background()
	f := newFavoriteFixture(t, true)
	f.login(t, "u1", "T1")

	f.adapter.EXPECT().ToggleFavorite(gomock.Any(), "u1", "s1", "T1").Return(false, errors.New("boom"))
	_, err := f.svc.ToggleFavorite(ctx, newSpace("s1", "Loft"), models.Identity{})
	require.NoError(t, err)

	f.adapter.EXPECT().GetFavorites(gomock.Any(), "u1", "T1").
		Return(nil, fmt.Errorf("get favorites request: %w", adapter.ErrRemoteUnavailable))

	got, err := f.svc.ListFavorites(ctx, models.Identity{})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, favoriteIDs(got))
}

func TestListFavorites_MergesRemote(t *testing.T) {
	ctx := context.Background()
	f := newFavoriteFixture(t, true)
	f.login(t, "u1", "T1")

	// local-only favorite
	require.NoError(t, f.storages.Spaces.Upsert(ctx, newSpace("s3", "Garage")))
	_, err := f.storages.Favorites.Add(ctx, models.Favorite{SpaceID: "s3", UserID: "u1", CreatedAt: f.clock.Now()})
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	remote := []models.Space{newSpace("s1", "Loft"), newSpace("s2", "Hall")}
	f.adapter.EXPECT().GetFavorites(gomock.Any(), "u1", "T1").Return(remote, nil).Times(2)

	got, err := f.svc.ListFavorites(ctx, models.Identity{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2", "s3"}, favoriteIDs(got))

	// merging twice is idempotent
	got, err = f.svc.ListFavorites(ctx, models.Identity{})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	cached, err := f.storages.Spaces.FindOne(ctx, store.Eq("id", "s2"))
	require.NoError(t, err)
	assert.Equal(t, "Hall", cached.Name)
}

func TestListFavorites_NoTokenSkipsRemote(t *testing.T) {
	ctx := context.Background()
	f := newFavoriteFixture(t, true)

	require.NoError(t, f.storages.Users.Upsert(ctx, models.User{ID: "u1", Email: "u1@x.com"}))

	// no adapter expectation: a call would fail the test
	got, err := f.svc.ListFavorites(ctx, models.Identity{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListFavorites_NoIdentity(t *testing.T) {
	f := newFavoriteFixture(t, false)

	_, err := f.svc.ListFavorites(context.Background(), models.Identity{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListFavorites_FallbackWithoutLocalUser(t *testing.T) {
	ctx := context.Background()
	f := newFavoriteFixture(t, true)

	f.adapter.EXPECT().GetFavorites(gomock.Any(), "u9", "T9").Return([]models.Space{newSpace("s1", "Loft")}, nil)

	got, err := f.svc.ListFavorites(ctx, models.Identity{UserID: "u9", Token: "T9"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ── MarkViewed / IsFavorite ──────────────────────────────────────────────────

func TestMarkViewed(t *testing.T) {
	ctx := context.Background()
	f := newFavoriteFixture(t, false)
	f.login(t, "u1", "T1")

	_, err := f.svc.ToggleFavorite(ctx, newSpace("s1", "Loft"), models.Identity{})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	require.NoError(t, f.svc.MarkViewed(ctx, "u1", "s1"))

	got, err := f.svc.ListFavorites(ctx, models.Identity{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].LastViewed.Equal(f.clock.Now()), "last viewed = %v", got[0].LastViewed)

	// not a favorite: nothing to stamp
	require.NoError(t, f.svc.MarkViewed(ctx, "u1", "s2"))

	assert.ErrorIs(t, f.svc.MarkViewed(ctx, "", "s1"), ErrValidation)
	_, err = f.svc.IsFavorite(ctx, "u1", "")
	assert.ErrorIs(t, err, ErrValidation)
}
