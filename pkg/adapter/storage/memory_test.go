package storage_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starfinder/pkg/adapter/storage"
)

func readObject(t *testing.T, client *storage.MemoryClient, name string) string {
	t.Helper()
	rc, err := client.GetObject(context.Background(), name)
	gt.NoError(t, err).Required()
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	gt.NoError(t, err).Required()
	return string(data)
}

func TestMemoryClient(t *testing.T) {
	client := storage.NewMemoryClient()
	ctx := context.Background()
	defer client.Close(ctx)

	t.Run("object visible after close", func(t *testing.T) {
		w := client.PutObject(ctx, "a/one.json")
		_, err := w.Write([]byte("hello"))
		gt.NoError(t, err)

		_, err = client.GetObject(ctx, "a/one.json")
		gt.Error(t, err)

		gt.NoError(t, w.Close())
		gt.Equal(t, readObject(t, client, "a/one.json"), "hello")
	})

	t.Run("overwrite", func(t *testing.T) {
		for _, data := range []string{"first", "second"} {
			w := client.PutObject(ctx, "a/two.json")
			_, err := w.Write([]byte(data))
			gt.NoError(t, err)
			gt.NoError(t, w.Close())
		}
		gt.Equal(t, readObject(t, client, "a/two.json"), "second")
	})

	t.Run("write after close", func(t *testing.T) {
		w := client.PutObject(ctx, "b/closed")
		gt.NoError(t, w.Close())
		gt.NoError(t, w.Close())

		_, err := w.Write([]byte("late"))
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("writer is closed")
	})

	t.Run("list by prefix", func(t *testing.T) {
		gt.Array(t, client.List("a/")).Equal([]string{"a/one.json", "a/two.json"})
		gt.A(t, client.List("missing/")).Length(0)
	})
}

func TestMemoryClientConcurrentWrites(t *testing.T) {
	client := storage.NewMemoryClient()
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := client.PutObject(ctx, fmt.Sprintf("object-%d", i))
			_, _ = w.Write([]byte(fmt.Sprintf("data-%d", i)))
			_ = w.Close()
		}()
	}
	wg.Wait()

	gt.A(t, client.List("object-")).Length(workers)
	for i := range workers {
		gt.Equal(t, readObject(t, client, fmt.Sprintf("object-%d", i)), fmt.Sprintf("data-%d", i))
	}
}
