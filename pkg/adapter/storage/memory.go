package storage

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/starfinder/pkg/domain/interfaces"
)

// MemoryClient keeps objects in process memory. It is used when no bucket is configured
// and in tests.
type MemoryClient struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ interfaces.StorageClient = &MemoryClient{}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		objects: make(map[string][]byte),
	}
}

// PutObject buffers writes; the object becomes visible on Close.
func (m *MemoryClient) PutObject(ctx context.Context, object string) io.WriteCloser {
	return &memoryWriter{
		client: m,
		object: object,
	}
}

func (m *MemoryClient) GetObject(ctx context.Context, object string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.objects[object]
	if !exists {
		return nil, goerr.New("object not found", goerr.V("object", object))
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// List returns the sorted names of objects starting with prefix.
func (m *MemoryClient) List(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func (m *MemoryClient) Close(ctx context.Context) {}

type memoryWriter struct {
	client *MemoryClient
	object string
	buffer bytes.Buffer
	closed bool
	mu     sync.Mutex
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, goerr.New("writer is closed", goerr.V("object", w.object))
	}
	return w.buffer.Write(p)
}

func (w *memoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	w.client.mu.Lock()
	w.client.objects[w.object] = bytes.Clone(w.buffer.Bytes())
	w.client.mu.Unlock()

	return nil
}
