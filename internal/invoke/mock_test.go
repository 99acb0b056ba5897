package invoke

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/abandonsearch/place-rater/internal/model"
	"github.com/abandonsearch/place-rater/pkg/anthropic"
	"github.com/abandonsearch/place-rater/pkg/gemini"
)

// MockGeminiClient implements gemini.Client for testing.
type MockGeminiClient struct {
	mock.Mock
}

func (m *MockGeminiClient) Generate(ctx context.Context, req gemini.GenerateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockGeminiClient) Close() error {
	return m.Called().Error(0)
}

// MockAnthropicClient implements anthropic.Client for testing.
type MockAnthropicClient struct {
	mock.Mock
}

func (m *MockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// MockInvoker implements Invoker for testing.
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, backend model.Backend, place model.Place) (string, error) {
	args := m.Called(ctx, backend, place)
	return args.String(0), args.Error(1)
}
