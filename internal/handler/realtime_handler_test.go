package handler

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/repository"
	"github.com/campuslink/campuslink-api/internal/service"
	"github.com/campuslink/campuslink-api/pkg/googleauth"
)

type wireFrame struct {
	Event   string               `json:"event"`
	Ack     string               `json:"ack,omitempty"`
	TagName string               `json:"tag_name,omitempty"`
	Message *dto.MessageResponse `json:"message,omitempty"`
	Typing  []string             `json:"typing,omitempty"`
}

type realtimeTestEnv struct {
	conn  *websocket.Conn
	token string
}

func newRealtimeTestEnv(t *testing.T, tagName string) realtimeTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Client{}, &models.User{},
		&models.Tag{}, &models.Subscription{}, &models.Message{},
	))

	logger := zerolog.New(io.Discard)
	clients := repository.NewClientRepository(db)
	users := repository.NewUserRepository(db)
	tags := repository.NewTagRepository(db)
	subscriptions := repository.NewSubscriptionRepository(db)
	messages := repository.NewMessageRepository(db)

	require.NoError(t, tags.Create(context.Background(), &models.Tag{Name: tagName}))

	google := &googleStub{profile: googleauth.Profile{
		GoogleID:  uuid.NewString(),
		FirstName: "Ada",
		LastName:  "Lovelace",
	}}

	tokens := service.NewTokenService("realtime-test-secret", time.Hour)
	auth := service.NewAuthService(clients, users, tokens, google, time.Second, logger)
	registry := service.NewRoomRegistry(logger)
	validate := validator.New(validator.WithRequiredStructEnabled())
	messageService := service.NewMessageService(messages, tags, users, noopDispatcher{}, registry, nil, validate, logger)
	realtime := service.NewRealtimeService(auth, messageService, tags, subscriptions, registry, logger)

	deviceUUID := uuid.NewString()
	_, err = auth.Register(context.Background(), deviceUUID)
	require.NoError(t, err)
	token, err := auth.SignIn(context.Background(), deviceUUID, "good-token")
	require.NoError(t, err)

	app := fiber.New()
	NewRealtimeHandler(realtime, logger).Register(app)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(listener) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+listener.Addr().String()+"/ws", nil)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
	t.Cleanup(func() { _ = conn.Close() })

	return realtimeTestEnv{conn: conn, token: token}
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(job service.NotificationJob) {}

func (env realtimeTestEnv) send(t *testing.T, frame dto.ClientFrame) {
	t.Helper()
	require.NoError(t, env.conn.WriteJSON(frame))
}

func (env realtimeTestEnv) read(t *testing.T) wireFrame {
	t.Helper()
	require.NoError(t, env.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, payload, err := env.conn.ReadMessage()
	require.NoError(t, err)

	var frame wireFrame
	require.NoError(t, json.Unmarshal(payload, &frame))
	return frame
}

func TestRealtimeWireAckLiterals(t *testing.T) {
	env := newRealtimeTestEnv(t, "wire-acks")

	env.send(t, dto.ClientFrame{Event: dto.EventJoinRoom, AuthToken: "garbage", TagName: "wire-acks"})
	frame := env.read(t)
	require.Equal(t, dto.EventJoinRoom, frame.Event)
	require.Equal(t, "Not authorized", frame.Ack)

	env.send(t, dto.ClientFrame{Event: dto.EventJoinRoom, AuthToken: env.token, TagName: "wire-missing"})
	frame = env.read(t)
	require.Equal(t, "Tag does not exist", frame.Ack)

	env.send(t, dto.ClientFrame{Event: dto.EventJoinRoom, AuthToken: env.token, TagName: "wire-acks"})
	frame = env.read(t)
	require.Equal(t, "Success", frame.Ack)

	env.send(t, dto.ClientFrame{Event: dto.EventJoinAllSubscribedRooms, AuthToken: env.token})
	frame = env.read(t)
	require.Equal(t, "No subscriptions", frame.Ack)

	env.send(t, dto.ClientFrame{
		Event:       dto.EventCreateMessage,
		AuthToken:   env.token,
		TagName:     "wire-missing",
		MessageBody: &dto.MessageBody{Type: models.MessageTypeText, Text: "hi"},
	})
	frame = env.read(t)
	require.Equal(t, "Tag does not exist.", frame.Ack)
}

func TestRealtimeWireMessageBroadcast(t *testing.T) {
	env := newRealtimeTestEnv(t, "wire-broadcast")

	env.send(t, dto.ClientFrame{Event: dto.EventJoinRoom, AuthToken: env.token, TagName: "wire-broadcast"})
	require.Equal(t, "Success", env.read(t).Ack)

	env.send(t, dto.ClientFrame{
		Event:       dto.EventCreateMessage,
		AuthToken:   env.token,
		TagName:     "wire-broadcast",
		MessageBody: &dto.MessageBody{Type: models.MessageTypeText, Text: "hello room"},
	})

	// The room broadcast is enqueued before the ack.
	broadcast := env.read(t)
	require.Equal(t, dto.EventNewMessage, broadcast.Event)
	require.NotNil(t, broadcast.Message)
	require.Equal(t, "hello room", broadcast.Message.Text)
	require.Equal(t, "Ada Lovelace", broadcast.Message.AuthorName)

	ack := env.read(t)
	require.Equal(t, dto.EventCreateMessage, ack.Event)
	require.Equal(t, "Success", ack.Ack)
}

func TestRealtimeWireTypingUpdates(t *testing.T) {
	env := newRealtimeTestEnv(t, "wire-typing")

	env.send(t, dto.ClientFrame{Event: dto.EventJoinRoom, AuthToken: env.token, TagName: "wire-typing"})
	require.Equal(t, "Success", env.read(t).Ack)

	env.send(t, dto.ClientFrame{Event: dto.EventStartTyping, AuthToken: env.token, TagName: "wire-typing"})
	update := env.read(t)
	require.Equal(t, dto.EventTypingUpdate, update.Event)
	require.Equal(t, []string{"Ada Lovelace"}, update.Typing)

	ack := env.read(t)
	require.Equal(t, "Success", ack.Ack)

	env.send(t, dto.ClientFrame{Event: dto.EventStopTyping, AuthToken: env.token, TagName: "wire-typing"})
	update = env.read(t)
	require.Equal(t, dto.EventTypingUpdate, update.Event)
	require.Empty(t, update.Typing)

	require.Equal(t, "Success", env.read(t).Ack)
}
