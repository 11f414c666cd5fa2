package client_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timada-org/taskflow/pkg/client"
)

func TestNewWithoutURL(t *testing.T) {
	_, err := client.New(client.ClientOptions{Topic: "todos"})
	require.Error(t, err)
}

func TestSendWithoutProducer(t *testing.T) {
	c := &client.Client{}
	err := c.Send(context.Background(), &client.Event{Name: client.EventCreated})
	require.EqualError(t, err, "producer not initialized")
}

func TestEventJSON(t *testing.T) {
	b, err := json.Marshal(&client.Event{
		OwnerEmail: "a@b.com",
		Name:       client.EventCreated,
		Data:       map[string]any{"id": 1},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"owner_email":"a@b.com","name":"Created","data":{"id":1}}`, string(b))
}
