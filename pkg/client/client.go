// Package client publishes todo change events to an Apache Pulsar topic.
package client

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/apache/pulsar-client-go/pulsar"
)

const (
	EventCreated = "Created"
)

type Event struct {
	OwnerEmail string `json:"owner_email"`
	Name       string `json:"name"`
	Data       any    `json:"data"`
}

type ClientOptions struct {
	URL   string
	Topic string
	Name  string
}

type Client struct {
	Client   pulsar.Client
	producer pulsar.Producer
}

func New(options ClientOptions) (*Client, error) {
	if options.URL == "" {
		return nil, errors.New("client: broker url is empty")
	}

	client, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: options.URL,
	})
	if err != nil {
		return nil, err
	}

	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic: options.Topic,
		Name:  options.Name,
	})
	if err != nil {
		client.Close()
		return nil, err
	}

	return &Client{
		Client:   client,
		producer: producer,
	}, nil
}

// Send blocks until the broker acknowledges the event. The owner email is
// used as the message key so one owner's events stay ordered.
func (c *Client) Send(ctx context.Context, event *Event) error {
	if c.producer == nil {
		return errors.New("producer not initialized")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = c.producer.Send(ctx, &pulsar.ProducerMessage{
		Key:     event.OwnerEmail,
		Payload: payload,
	})

	return err
}

func (c *Client) Close() {
	if c.producer != nil {
		c.producer.Close()
	}

	c.Client.Close()
}
