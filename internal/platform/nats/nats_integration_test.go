package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/products/internal/platform/messaging"
	"github.com/abgdnv/products/internal/platform/messaging/events"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "PRODUCT_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// PublisherSuite runs the JetStream publisher against a real NATS server.
type PublisherSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *tcnats.NATSContainer
	nc            *nats.Conn
	js            jetstream.JetStream
}

func (s *PublisherSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = tcnats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)

	s.nc, err = NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to get JetStream context")
}

func (s *PublisherSuite) TearDownSuite() {
	s.nc.Close()
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

func TestPublisherIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) TestEnsureStream_Idempotent() {
	streamName := "PRODUCTS_" + uuid.NewString()[:8]

	defer func() { _ = s.js.DeleteStream(s.ctx, streamName) }()

	// when
	err1 := EnsureStream(s.ctx, s.js, streamName)
	err2 := EnsureStream(s.ctx, s.js, streamName)

	// then
	s.Require().NoError(err1)
	s.Require().NoError(err2)
	stream, err := s.js.Stream(s.ctx, streamName)
	s.Require().NoError(err)
	s.Equal([]string{messaging.ProductsSubjects}, stream.CachedInfo().Config.Subjects)
}

func (s *PublisherSuite) TestPublish_StoresEventInStream() {
	// given
	streamName := "PRODUCTS_" + uuid.NewString()[:8]
	s.Require().NoError(EnsureStream(s.ctx, s.js, streamName))
	defer func() { _ = s.js.DeleteStream(s.ctx, streamName) }()

	publisher := NewNatsPublisher(s.js)
	event := events.ProductCreatedEvent{
		ProductID:  uuid.New(),
		Name:       "Product1",
		Price:      100,
		OccurredAt: time.Now().UTC(),
	}

	// when
	err := publisher.Publish(s.ctx, event)

	// then
	s.Require().NoError(err)
	stream, err := s.js.Stream(s.ctx, streamName)
	s.Require().NoError(err)
	msg, err := stream.GetLastMsgForSubject(s.ctx, messaging.ProductsCreatedSubject)
	s.Require().NoError(err)

	var got events.ProductCreatedEvent
	s.Require().NoError(json.Unmarshal(msg.Data, &got))
	s.Equal(event.ProductID, got.ProductID)
	s.Equal(event.Name, got.Name)
	s.Equal(event.Price, got.Price)
}
