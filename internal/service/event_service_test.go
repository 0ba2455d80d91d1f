package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/repository"
)

func newEventFixture(t *testing.T) (EventService, *miniredis.Miniredis, func(*models.Event), func(*models.User)) {
	t.Helper()
	db := setupServiceTestDB(t, &models.User{}, &models.Event{}, &models.CheckIn{})

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	// Fresh leaderboard per test; the shared-cache sqlite DSN spans tests.
	server.FlushAll()

	events := repository.NewEventRepository(db)
	checkIns := repository.NewCheckInRepository(db)
	users := repository.NewUserRepository(db)

	svc := NewEventService(events, checkIns, users, redisClient, testLogger())

	createEvent := func(event *models.Event) {
		require.NoError(t, db.Create(event).Error)
	}
	createUser := func(user *models.User) {
		require.NoError(t, users.Create(context.Background(), user))
	}

	return svc, server, createEvent, createUser
}

func TestEventCheckInAwardsPointsOnce(t *testing.T) {
	svc, _, createEvent, createUser := newEventFixture(t)

	user := models.User{GoogleID: "google-checkin-once", FirstName: "Ada", LastName: "Lovelace"}
	createUser(&user)
	event := models.Event{Name: "Hack Night", Points: 25, StartsAt: time.Now(), EndsAt: time.Now().Add(time.Hour)}
	createEvent(&event)

	auth := AuthContext{User: user}

	require.NoError(t, svc.CheckIn(context.Background(), auth, event.ID))
	require.ErrorIs(t, svc.CheckIn(context.Background(), auth, event.ID), ErrAlreadyCheckedIn)

	board, err := svc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	require.Equal(t, user.ID, board[0].UserID)
	require.Equal(t, 25, board[0].Points)
	require.Equal(t, "Ada Lovelace", board[0].Name)
}

func TestEventCheckInUnknownEvent(t *testing.T) {
	svc, _, _, createUser := newEventFixture(t)

	user := models.User{GoogleID: "google-checkin-unknown"}
	createUser(&user)

	err := svc.CheckIn(context.Background(), AuthContext{User: user}, 999999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEventLeaderboardOrdersByPoints(t *testing.T) {
	svc, _, createEvent, createUser := newEventFixture(t)

	alice := models.User{GoogleID: "google-board-alice", FirstName: "Alice"}
	bob := models.User{GoogleID: "google-board-bob", FirstName: "Bob"}
	createUser(&alice)
	createUser(&bob)

	small := models.Event{Name: "Club Fair", Points: 5, StartsAt: time.Now(), EndsAt: time.Now().Add(time.Hour)}
	big := models.Event{Name: "Career Expo", Points: 50, StartsAt: time.Now(), EndsAt: time.Now().Add(time.Hour)}
	createEvent(&small)
	createEvent(&big)

	require.NoError(t, svc.CheckIn(context.Background(), AuthContext{User: alice}, small.ID))
	require.NoError(t, svc.CheckIn(context.Background(), AuthContext{User: bob}, big.ID))

	board, err := svc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	require.Equal(t, bob.ID, board[0].UserID)
	require.Equal(t, 50, board[0].Points)
	require.Equal(t, alice.ID, board[1].UserID)
}
