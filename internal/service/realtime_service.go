package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/observability"
	"github.com/campuslink/campuslink-api/internal/repository"
)

// Literal acknowledgement strings. Clients match on these exact values;
// createMessage keeps its historical trailing period on the tag outcome.
const (
	AckSuccess         = "Success"
	AckNotAuthorized   = "Not authorized"
	AckTagNotFound     = "Tag does not exist"
	AckBadRequest      = "Bad request"
	AckNoSubscriptions = "No subscriptions"
	AckServerError     = "Server error"
)

type ackKind int

const (
	ackSuccess ackKind = iota
	ackNotAuthorized
	ackTagNotFound
	ackBadRequest
	ackNoSubscriptions
	ackServerError
)

func ackLiteral(event string, kind ackKind) string {
	switch kind {
	case ackSuccess:
		return AckSuccess
	case ackNotAuthorized:
		return AckNotAuthorized
	case ackTagNotFound:
		if event == dto.EventCreateMessage {
			return AckTagNotFound + "."
		}
		return AckTagNotFound
	case ackNoSubscriptions:
		return AckNoSubscriptions
	case ackServerError:
		return AckServerError
	default:
		return AckBadRequest
	}
}

// RealtimeService serves websocket connections and dispatches the room events.
// Every inbound event re-resolves the session token it carries, so a sign-out
// takes effect on the very next event.
type RealtimeService interface {
	ServeConnection(conn *websocket.Conn, baseCtx context.Context)
}

type realtimeService struct {
	auth          AuthService
	messages      MessageService
	tags          repository.TagRepository
	subscriptions repository.SubscriptionRepository
	registry      *RoomRegistry
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewRealtimeService constructs the realtime session manager.
func NewRealtimeService(auth AuthService, messages MessageService, tags repository.TagRepository, subscriptions repository.SubscriptionRepository, registry *RoomRegistry, logger zerolog.Logger) RealtimeService {
	return &realtimeService{
		auth:          auth,
		messages:      messages,
		tags:          tags,
		subscriptions: subscriptions,
		registry:      registry,
		logger:        logger.With().Str("component", "realtime_service").Logger(),
		tracer:        otel.Tracer("github.com/campuslink/campuslink-api/internal/service/realtime"),
	}
}

func (s *realtimeService) ServeConnection(conn *websocket.Conn, baseCtx context.Context) {
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	client := &realtimeClient{
		conn:    conn,
		send:    make(chan interface{}, realtimeSendBufferSize),
		joined:  make(map[string]struct{}),
		closed:  make(chan struct{}),
		service: s,
	}

	observability.RealtimeConnections().Inc()
	observability.RealtimeConnectionsLive().Inc()

	go client.writer()
	client.reader(baseCtx)
}

func (s *realtimeService) handleFrame(ctx context.Context, client *realtimeClient, frame dto.ClientFrame) {
	kind := s.process(ctx, client, frame)

	ack := ackLiteral(frame.Event, kind)
	observability.RealtimeAcks().WithLabelValues(frame.Event, ack).Inc()
	client.enqueue(dto.AckFrame{Event: frame.Event, Ack: ack})
}

// process runs one inbound event to its outcome. Auth failures mutate nothing.
func (s *realtimeService) process(ctx context.Context, client *realtimeClient, frame dto.ClientFrame) ackKind {
	auth, err := s.auth.Resolve(ctx, frame.AuthToken)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return ackNotAuthorized
		}
		s.logger.Error().Err(err).Str("event", frame.Event).Msg("auth resolution failed")
		return ackServerError
	}

	switch frame.Event {
	case dto.EventJoinAllSubscribedRooms:
		return s.joinAll(ctx, client, auth)
	case dto.EventJoinRoom:
		return s.join(ctx, client, frame.TagName)
	case dto.EventLeaveRoom:
		return s.leave(ctx, client, frame.TagName)
	case dto.EventCreateMessage:
		return s.createMessage(ctx, auth, frame)
	case dto.EventStartTyping:
		return s.typing(client, frame.TagName, auth, true)
	case dto.EventStopTyping:
		return s.typing(client, frame.TagName, auth, false)
	default:
		return ackBadRequest
	}
}

// joinAll joins one room per subscribed tag. Zero subscriptions is a
// non-fatal outcome, not an error.
func (s *realtimeService) joinAll(ctx context.Context, client *realtimeClient, auth AuthContext) ackKind {
	tagNames, err := s.subscriptions.ListTagNamesByUser(ctx, auth.User.ID)
	if err != nil {
		s.logger.Error().Err(err).Uint("user_id", auth.User.ID).Msg("subscription lookup failed")
		return ackServerError
	}

	if len(tagNames) == 0 {
		return ackNoSubscriptions
	}

	for _, tagName := range tagNames {
		s.registry.Join(client, tagName)
	}

	return ackSuccess
}

func (s *realtimeService) join(ctx context.Context, client *realtimeClient, tagName string) ackKind {
	if tagName == "" {
		return ackBadRequest
	}

	if kind := s.requireTag(ctx, tagName); kind != ackSuccess {
		return kind
	}

	s.registry.Join(client, tagName)

	if last := s.messages.LastMessage(ctx, tagName); last != nil {
		client.enqueue(dto.ServerFrame{Event: dto.EventNewMessage, TagName: tagName, Message: last})
	}

	return ackSuccess
}

func (s *realtimeService) leave(ctx context.Context, client *realtimeClient, tagName string) ackKind {
	if tagName == "" {
		return ackBadRequest
	}

	if kind := s.requireTag(ctx, tagName); kind != ackSuccess {
		return kind
	}

	s.registry.Leave(client, tagName)

	return ackSuccess
}

func (s *realtimeService) requireTag(ctx context.Context, tagName string) ackKind {
	if _, err := s.tags.FindByName(ctx, tagName); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ackTagNotFound
		}
		s.logger.Error().Err(err).Str("tag", tagName).Msg("tag lookup failed")
		return ackServerError
	}
	return ackSuccess
}

func (s *realtimeService) createMessage(ctx context.Context, auth AuthContext, frame dto.ClientFrame) ackKind {
	if frame.TagName == "" || frame.MessageBody == nil {
		return ackBadRequest
	}

	spanCtx, span := s.tracer.Start(ctx, "realtime.create_message")
	defer span.End()

	_, err := s.messages.Post(spanCtx, auth, frame.TagName, *frame.MessageBody)
	if err != nil {
		switch {
		case errors.Is(err, ErrTagNotFound):
			return ackTagNotFound
		case errors.Is(err, ErrBadRequest):
			return ackBadRequest
		default:
			span.RecordError(err)
			s.logger.Error().Err(err).Str("tag", frame.TagName).Msg("message post failed")
			return ackServerError
		}
	}

	return ackSuccess
}

func (s *realtimeService) typing(client *realtimeClient, tagName string, auth AuthContext, start bool) ackKind {
	if tagName == "" {
		return ackBadRequest
	}

	displayName := auth.User.DisplayName()

	var names []string
	if start {
		names = s.registry.StartTyping(tagName, displayName)
	} else {
		names = s.registry.StopTyping(tagName, displayName)
	}

	s.registry.Broadcast(tagName, dto.ServerFrame{
		Event:   dto.EventTypingUpdate,
		TagName: tagName,
		Typing:  names,
	})

	return ackSuccess
}

func (c *realtimeClient) enqueue(frame interface{}) {
	select {
	case <-c.closed:
	default:
		select {
		case c.send <- frame:
		default:
			c.service.logger.Warn().Msg("send queue full, dropping frame")
		}
	}
}

func (c *realtimeClient) reader(ctx context.Context) {
	defer c.close()

	for {
		var frame dto.ClientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			c.service.logger.Debug().Err(err).Msg("realtime read loop ended")
			return
		}

		c.service.handleFrame(ctx, c, frame)
	}
}

func (c *realtimeClient) writer() {
	defer c.close()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				c.service.logger.Debug().Err(err).Msg("realtime write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("realtime ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *realtimeClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.registry.Drop(c)
		observability.RealtimeConnectionsLive().Dec()
		_ = c.conn.Close()
	})
}
