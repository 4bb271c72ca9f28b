package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"adapt-orchestrator/internal/usecase"
)

func fragmentChannel(frags ...string) chan string {
	ch := make(chan string, len(frags))
	for _, f := range frags {
		ch <- f
	}
	close(ch)
	return ch
}

func collectChunks(t *testing.T, ch <-chan string) []string {
	t.Helper()
	var chunks []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return chunks
			}
			chunks = append(chunks, chunk)
		case <-timeout:
			t.Fatal("timed out draining chunk stream")
		}
	}
}

func TestCoalesce_ZeroWindowIsIdentity(t *testing.T) {
	in := fragmentChannel("Hel", "lo ", "world")

	out := usecase.Coalesce(context.Background(), in, 0)

	assert.Equal(t, (<-chan string)(in), out, "zero window should return the input unchanged")
	assert.Equal(t, []string{"Hel", "lo ", "world"}, collectChunks(t, out))
}

func TestCoalesce_NegativeWindowIsIdentity(t *testing.T) {
	in := fragmentChannel("a", "b")

	out := usecase.Coalesce(context.Background(), in, -time.Second)

	assert.Equal(t, []string{"a", "b"}, collectChunks(t, out))
}

func TestCoalesce_LargeWindowFlushesOnceAtEnd(t *testing.T) {
	in := fragmentChannel("Hel", "lo ", "world")

	chunks := collectChunks(t, usecase.Coalesce(context.Background(), in, time.Hour))

	assert.Equal(t, []string{"Hello world"}, chunks, "stream end must flush buffered content")
}

func TestCoalesce_EmptyStreamYieldsNoChunks(t *testing.T) {
	in := fragmentChannel()

	chunks := collectChunks(t, usecase.Coalesce(context.Background(), in, 50*time.Millisecond))

	assert.Empty(t, chunks)
}

func TestCoalesce_WindowMergesBurst(t *testing.T) {
	in := make(chan string)
	out := usecase.Coalesce(context.Background(), in, 20*time.Millisecond)

	in <- "Hel"
	time.Sleep(50 * time.Millisecond)
	in <- "lo"
	close(in)

	chunks := collectChunks(t, out)

	assert.Equal(t, []string{"Hello"}, chunks, "window check fires on the arrival after the gap")
}

func TestCoalesce_ContentIsPreserved(t *testing.T) {
	frags := []string{"one ", "", "two ", "three", " four"}
	in := fragmentChannel(frags...)

	chunks := collectChunks(t, usecase.Coalesce(context.Background(), in, 10*time.Millisecond))

	assert.Equal(t, strings.Join(frags, ""), strings.Join(chunks, ""),
		"total output bytes must equal total input bytes, in order")
}
