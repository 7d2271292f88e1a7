package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/primewheels/agent-service/internal/config"
	"github.com/primewheels/agent-service/internal/events"
)

func TestStartNotificationWorker(t *testing.T) {
	assert.Nil(t, StartNotificationWorker(nil, zap.NewNop(), config.NotificationConfig{}))

	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	svc := StartNotificationWorker(dispatcher, zap.New(core), config.NotificationConfig{})
	require.NotNil(t, svc)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:          events.EventApplicationSubmitted,
		ApplicationID: "app-1",
	}))
	assert.Equal(t, 1, logs.FilterMessage("ApplicationSubmitted").Len())
}
