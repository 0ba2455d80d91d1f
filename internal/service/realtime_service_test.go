package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/repository"
)

type authResolverStub struct {
	auth AuthContext
	err  error
}

func (a *authResolverStub) Register(ctx context.Context, deviceUUID string) (bool, error) {
	return false, nil
}

func (a *authResolverStub) SignIn(ctx context.Context, deviceUUID, googleIDToken string) (string, error) {
	return "", nil
}

func (a *authResolverStub) SignOut(ctx context.Context, auth AuthContext) error { return nil }

func (a *authResolverStub) Resolve(ctx context.Context, token string) (AuthContext, error) {
	if a.err != nil {
		return AuthContext{}, a.err
	}
	return a.auth, nil
}

func (a *authResolverStub) RequireModerator(auth AuthContext) error { return nil }
func (a *authResolverStub) RequireAdmin(auth AuthContext) error     { return nil }

func (a *authResolverStub) UpdatePushToken(ctx context.Context, auth AuthContext, pushToken string) error {
	return nil
}

type messagePosterStub struct {
	postErr error
	posted  []dto.MessageBody
	last    *dto.MessageResponse
}

func (m *messagePosterStub) Post(ctx context.Context, auth AuthContext, tagName string, body dto.MessageBody) (dto.MessageResponse, error) {
	if m.postErr != nil {
		return dto.MessageResponse{}, m.postErr
	}
	m.posted = append(m.posted, body)
	return dto.MessageResponse{TagName: tagName}, nil
}

func (m *messagePosterStub) List(ctx context.Context, auth AuthContext, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error) {
	return nil, nil
}

func (m *messagePosterStub) LastMessage(ctx context.Context, tagName string) *dto.MessageResponse {
	return m.last
}

type tagRepoStub struct {
	known map[string]models.Tag
}

func (t *tagRepoStub) FindByName(ctx context.Context, name string) (models.Tag, error) {
	if tag, ok := t.known[name]; ok {
		return tag, nil
	}
	return models.Tag{}, gorm.ErrRecordNotFound
}

func (t *tagRepoStub) List(ctx context.Context) ([]models.Tag, error) { return nil, nil }
func (t *tagRepoStub) Create(ctx context.Context, tag *models.Tag) error {
	return nil
}

type subscriptionRepoStub struct {
	tagNames []string
}

func (s *subscriptionRepoStub) Subscribe(ctx context.Context, userID, tagID uint) error   { return nil }
func (s *subscriptionRepoStub) Unsubscribe(ctx context.Context, userID, tagID uint) error { return nil }

func (s *subscriptionRepoStub) ListTagNamesByUser(ctx context.Context, userID uint) ([]string, error) {
	return s.tagNames, nil
}

func (s *subscriptionRepoStub) ListUserIDsByTag(ctx context.Context, tagID uint) ([]uint, error) {
	return nil, nil
}

func newRealtimeFixture(auth AuthService, messages MessageService, tags repository.TagRepository, subs repository.SubscriptionRepository) (*realtimeService, *realtimeClient) {
	svc := &realtimeService{
		auth:          auth,
		messages:      messages,
		tags:          tags,
		subscriptions: subs,
		registry:      NewRoomRegistry(testLogger()),
		logger:        testLogger(),
		tracer:        otel.Tracer("realtime-test"),
	}
	client := newTestRealtimeClient(8)
	client.service = svc
	return svc, client
}

func TestAckLiteralMapping(t *testing.T) {
	require.Equal(t, "Success", ackLiteral(dto.EventJoinRoom, ackSuccess))
	require.Equal(t, "Not authorized", ackLiteral(dto.EventJoinRoom, ackNotAuthorized))
	require.Equal(t, "Bad request", ackLiteral(dto.EventCreateMessage, ackBadRequest))
	require.Equal(t, "No subscriptions", ackLiteral(dto.EventJoinAllSubscribedRooms, ackNoSubscriptions))
	require.Equal(t, "Server error", ackLiteral(dto.EventJoinRoom, ackServerError))

	// The create-message tag outcome keeps its trailing period.
	require.Equal(t, "Tag does not exist", ackLiteral(dto.EventJoinRoom, ackTagNotFound))
	require.Equal(t, "Tag does not exist.", ackLiteral(dto.EventCreateMessage, ackTagNotFound))
}

func TestRealtimeRejectsUnauthorizedEvent(t *testing.T) {
	svc, client := newRealtimeFixture(
		&authResolverStub{err: ErrUnauthorized},
		&messagePosterStub{},
		&tagRepoStub{},
		&subscriptionRepoStub{},
	)

	kind := svc.process(context.Background(), client, dto.ClientFrame{
		Event:   dto.EventJoinRoom,
		TagName: "lectures",
	})

	require.Equal(t, ackNotAuthorized, kind)
	require.Equal(t, 0, svc.registry.MemberCount("lectures"))
}

func TestRealtimeJoinAllWithoutSubscriptions(t *testing.T) {
	svc, client := newRealtimeFixture(
		&authResolverStub{},
		&messagePosterStub{},
		&tagRepoStub{},
		&subscriptionRepoStub{},
	)

	kind := svc.process(context.Background(), client, dto.ClientFrame{Event: dto.EventJoinAllSubscribedRooms})
	require.Equal(t, ackNoSubscriptions, kind)
}

func TestRealtimeJoinAllJoinsEachSubscribedRoom(t *testing.T) {
	svc, client := newRealtimeFixture(
		&authResolverStub{},
		&messagePosterStub{},
		&tagRepoStub{},
		&subscriptionRepoStub{tagNames: []string{"lectures", "sports"}},
	)

	kind := svc.process(context.Background(), client, dto.ClientFrame{Event: dto.EventJoinAllSubscribedRooms})
	require.Equal(t, ackSuccess, kind)
	require.Equal(t, 1, svc.registry.MemberCount("lectures"))
	require.Equal(t, 1, svc.registry.MemberCount("sports"))
}

func TestRealtimeJoinUnknownTag(t *testing.T) {
	svc, client := newRealtimeFixture(
		&authResolverStub{},
		&messagePosterStub{},
		&tagRepoStub{},
		&subscriptionRepoStub{},
	)

	kind := svc.process(context.Background(), client, dto.ClientFrame{
		Event:   dto.EventJoinRoom,
		TagName: "missing",
	})
	require.Equal(t, ackTagNotFound, kind)
}

func TestRealtimeJoinReplaysLastMessage(t *testing.T) {
	last := &dto.MessageResponse{ID: 9, TagName: "lectures", Text: "welcome"}
	svc, client := newRealtimeFixture(
		&authResolverStub{},
		&messagePosterStub{last: last},
		&tagRepoStub{known: map[string]models.Tag{"lectures": {Name: "lectures"}}},
		&subscriptionRepoStub{},
	)

	kind := svc.process(context.Background(), client, dto.ClientFrame{
		Event:   dto.EventJoinRoom,
		TagName: "lectures",
	})
	require.Equal(t, ackSuccess, kind)
	require.Equal(t, 1, svc.registry.MemberCount("lectures"))

	require.Len(t, client.send, 1)
	frame, ok := (<-client.send).(dto.ServerFrame)
	require.True(t, ok)
	require.Equal(t, dto.EventNewMessage, frame.Event)
	require.Equal(t, last, frame.Message)
}

func TestRealtimeLeaveRequiresExistingTag(t *testing.T) {
	svc, client := newRealtimeFixture(
		&authResolverStub{},
		&messagePosterStub{},
		&tagRepoStub{known: map[string]models.Tag{"lectures": {Name: "lectures"}}},
		&subscriptionRepoStub{},
	)

	kind := svc.process(context.Background(), client, dto.ClientFrame{
		Event:   dto.EventLeaveRoom,
		TagName: "missing",
	})
	require.Equal(t, ackTagNotFound, kind)

	svc.registry.Join(client, "lectures")
	kind = svc.process(context.Background(), client, dto.ClientFrame{
		Event:   dto.EventLeaveRoom,
		TagName: "lectures",
	})
	require.Equal(t, ackSuccess, kind)
	require.Equal(t, 0, svc.registry.MemberCount("lectures"))
}

func TestRealtimeCreateMessageOutcomes(t *testing.T) {
	poster := &messagePosterStub{}
	svc, client := newRealtimeFixture(
		&authResolverStub{},
		poster,
		&tagRepoStub{},
		&subscriptionRepoStub{},
	)

	kind := svc.process(context.Background(), client, dto.ClientFrame{
		Event:   dto.EventCreateMessage,
		TagName: "lectures",
	})
	require.Equal(t, ackBadRequest, kind)

	poster.postErr = ErrTagNotFound
	kind = svc.process(context.Background(), client, dto.ClientFrame{
		Event:       dto.EventCreateMessage,
		TagName:     "missing",
		MessageBody: &dto.MessageBody{Type: models.MessageTypeText, Text: "hi"},
	})
	require.Equal(t, ackTagNotFound, kind)

	poster.postErr = nil
	kind = svc.process(context.Background(), client, dto.ClientFrame{
		Event:       dto.EventCreateMessage,
		TagName:     "lectures",
		MessageBody: &dto.MessageBody{Type: models.MessageTypeText, Text: "hi"},
	})
	require.Equal(t, ackSuccess, kind)
	require.Len(t, poster.posted, 1)
}

func TestRealtimeTypingBroadcastsDuplicates(t *testing.T) {
	svc, typist := newRealtimeFixture(
		&authResolverStub{auth: AuthContext{User: models.User{FirstName: "Ada", LastName: "Lovelace"}}},
		&messagePosterStub{},
		&tagRepoStub{},
		&subscriptionRepoStub{},
	)

	watcher := newTestRealtimeClient(8)
	watcher.service = svc
	svc.registry.Join(watcher, "lectures")

	kind := svc.process(context.Background(), typist, dto.ClientFrame{
		Event:   dto.EventStartTyping,
		TagName: "lectures",
	})
	require.Equal(t, ackSuccess, kind)

	kind = svc.process(context.Background(), typist, dto.ClientFrame{
		Event:   dto.EventStartTyping,
		TagName: "lectures",
	})
	require.Equal(t, ackSuccess, kind)

	require.Len(t, watcher.send, 2)
	<-watcher.send
	frame, ok := (<-watcher.send).(dto.ServerFrame)
	require.True(t, ok)
	require.Equal(t, dto.EventTypingUpdate, frame.Event)
	require.Equal(t, []string{"Ada Lovelace", "Ada Lovelace"}, frame.Typing)

	kind = svc.process(context.Background(), typist, dto.ClientFrame{
		Event:   dto.EventStopTyping,
		TagName: "lectures",
	})
	require.Equal(t, ackSuccess, kind)

	frame, ok = (<-watcher.send).(dto.ServerFrame)
	require.True(t, ok)
	require.Equal(t, []string{"Ada Lovelace"}, frame.Typing)
}

func TestRealtimeUnknownEvent(t *testing.T) {
	svc, client := newRealtimeFixture(
		&authResolverStub{},
		&messagePosterStub{},
		&tagRepoStub{},
		&subscriptionRepoStub{},
	)

	kind := svc.process(context.Background(), client, dto.ClientFrame{Event: "unknownEvent"})
	require.Equal(t, ackBadRequest, kind)
}
