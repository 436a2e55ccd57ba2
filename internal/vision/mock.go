package vision

import "context"

// MockEngine returns a fixed annotation set for every image.
type MockEngine struct {
	result Annotations
}

func NewMockEngine() *MockEngine {
	return &MockEngine{result: Annotations{
		Labels: []Label{{Description: "photograph", Score: 0.9}},
	}}
}

func (m *MockEngine) Analyze(ctx context.Context, _ string) (Annotations, error) {
	select {
	case <-ctx.Done():
		return Annotations{}, ctx.Err()
	default:
	}
	return m.result, nil
}
