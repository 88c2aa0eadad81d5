package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
)

// CollectionMock implements store.Collection for store-fault tests.
type CollectionMock struct {
	mock.Mock
}

func (m *CollectionMock) FindOne(ctx context.Context, field, value string, out any) error {
	args := m.Called(ctx, field, value, out)
	return args.Error(0)
}

func (m *CollectionMock) FindPrefix(ctx context.Context, field, prefix string) ([]json.RawMessage, error) {
	args := m.Called(ctx, field, prefix)
	var docs []json.RawMessage
	if val := args.Get(0); val != nil {
		docs = val.([]json.RawMessage)
	}
	return docs, args.Error(1)
}

func (m *CollectionMock) Upsert(ctx context.Context, field, value string, doc any) error {
	args := m.Called(ctx, field, value, doc)
	return args.Error(0)
}

func (m *CollectionMock) Delete(ctx context.Context, field, value string) error {
	args := m.Called(ctx, field, value)
	return args.Error(0)
}

// PublisherMock implements telemetry.Publisher.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
