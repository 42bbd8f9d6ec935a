package storage

import (
	"context"
	"io"

	"github.com/ruteri/simpleweb/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockProvider mocks the StorageProvider interface
type MockProvider struct {
	mock.Mock
}

// Write mocks the Write method
func (m *MockProvider) Write(ctx context.Context, name string, content io.Reader) (interfaces.StoredObjectRef, error) {
	args := m.Called(ctx, name, content)
	return args.Get(0).(interfaces.StoredObjectRef), args.Error(1)
}

// Read mocks the Read method
func (m *MockProvider) Read(ctx context.Context, ref interfaces.StoredObjectRef) (io.ReadCloser, error) {
	args := m.Called(ctx, ref)
	if rc := args.Get(0); rc != nil {
		return rc.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

// Exists mocks the Exists method
func (m *MockProvider) Exists(ctx context.Context, ref interfaces.StoredObjectRef) bool {
	args := m.Called(ctx, ref)
	return args.Bool(0)
}

// Available mocks the Available method
func (m *MockProvider) Available(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Kind mocks the Kind method
func (m *MockProvider) Kind() interfaces.StorageKind {
	args := m.Called()
	return args.Get(0).(interfaces.StorageKind)
}

// Name mocks the Name method
func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

var _ interfaces.StorageProvider = (*MockProvider)(nil)
