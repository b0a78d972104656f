package widget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/longkey1/shopchat/internal/shopchat/catalog"
	"github.com/longkey1/shopchat/internal/shopchat/chatapi"
	"github.com/stretchr/testify/require"
)

type stubAsker struct {
	mu      sync.Mutex
	calls   []string
	reply   *chatapi.Reply
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *stubAsker) Ask(ctx context.Context, question string) (*chatapi.Reply, error) {
	s.mu.Lock()
	s.calls = append(s.calls, question)
	s.mu.Unlock()

	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	return s.reply, s.err
}

func (s *stubAsker) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestSubmit_BlankQuestionIsIgnored(t *testing.T) {
	asker := &stubAsker{reply: &chatapi.Reply{Message: "hi"}}
	c := New(asker)

	for _, q := range []string{"", "   ", "\n\t"} {
		err := c.Submit(context.Background(), q)
		require.ErrorIs(t, err, ErrEmptyQuestion)
	}
	require.Equal(t, 0, asker.callCount())
	require.Equal(t, 0, c.Len())
	require.True(t, c.Empty())
}

func TestSubmit_SuccessWithoutProducts(t *testing.T) {
	asker := &stubAsker{reply: &chatapi.Reply{Message: "No matches", Products: []catalog.Product{}}}
	c := New(asker)

	require.NoError(t, c.Submit(context.Background(), "  blue scarf  "))
	require.Equal(t, []string{"blue scarf"}, asker.calls)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, RoleUser, msgs[0].Role)
	require.Equal(t, "blue scarf", msgs[0].Text)
	require.Equal(t, RoleBot, msgs[1].Role)
	require.Equal(t, "No matches", msgs[1].Text)
	require.False(t, msgs[1].Loading)
	require.False(t, msgs[1].HasProducts())
	require.False(t, c.Busy())

	ex := c.Exchanges()
	require.Len(t, ex, 1)
	require.Equal(t, "blue scarf", ex[0].Question)
	require.Equal(t, "No matches", ex[0].Response.Message)
}

func TestSubmit_SuccessWithProduct(t *testing.T) {
	asker := &stubAsker{reply: &chatapi.Reply{
		Message:  "Found one",
		Products: []catalog.Product{{ID: 1, Title: "Lamp"}},
	}}
	c := New(asker)

	require.NoError(t, c.Submit(context.Background(), "lamp"))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	require.True(t, msgs[1].HasProducts())
	require.Len(t, msgs[1].Products, 1)
	require.Equal(t, "Lamp", msgs[1].Products[0].Title)
}

func TestSubmit_FailureAppendsOneErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{name: "status", err: &chatapi.StatusError{StatusCode: 500}},
		{name: "transport", err: errors.New("connection refused")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			asker := &stubAsker{err: tc.err}
			c := New(asker)

			err := c.Submit(context.Background(), "lamp")
			require.Error(t, err)
			require.ErrorIs(t, err, tc.err)

			msgs := c.Messages()
			require.Len(t, msgs, 2)
			require.Equal(t, RoleUser, msgs[0].Role)
			require.Equal(t, RoleError, msgs[1].Role)
			require.Equal(t, DefaultErrorText, msgs[1].Text)
			for _, m := range msgs {
				require.False(t, m.Loading)
			}
			require.Empty(t, c.Exchanges())
			require.False(t, c.Busy())
		})
	}
}

func TestSubmit_NilReplyIsFailure(t *testing.T) {
	c := New(&stubAsker{})

	require.Error(t, c.Submit(context.Background(), "lamp"))
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, RoleError, msgs[1].Role)
}

func TestSubmit_CustomErrorText(t *testing.T) {
	c := New(&stubAsker{err: errors.New("boom")}, WithErrorText("Try later"))

	require.Error(t, c.Submit(context.Background(), "lamp"))
	require.Equal(t, "Try later", c.Messages()[1].Text)
}

func TestSubmit_SingleFlight(t *testing.T) {
	asker := &stubAsker{
		reply:   &chatapi.Reply{Message: "done"},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	c := New(asker)

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Submit(context.Background(), "first")
	}()

	select {
	case <-asker.started:
	case <-time.After(2 * time.Second):
		t.Fatal("request was not issued")
	}

	require.True(t, c.Busy())
	msgs := c.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, RoleBot, msgs[1].Role)
	require.True(t, msgs[1].Loading)

	err := c.Submit(context.Background(), "second")
	require.ErrorIs(t, err, ErrInFlight)
	_, err = c.Dispatch(context.Background(), "third")
	require.ErrorIs(t, err, ErrInFlight)
	require.Equal(t, 2, c.Len())

	close(asker.release)
	require.NoError(t, <-errCh)

	require.Equal(t, 1, asker.callCount())
	msgs = c.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "done", msgs[1].Text)
	require.False(t, msgs[1].Loading)
	require.False(t, c.Busy())
}

func TestSubmit_AtMostOneLoadingPlaceholder(t *testing.T) {
	asker := &stubAsker{
		reply:   &chatapi.Reply{Message: "ok"},
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	c := New(asker)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.Submit(context.Background(), "same question")
		}()
	}

	<-asker.started
	loading := 0
	for _, m := range c.Messages() {
		if m.Loading {
			loading++
		}
	}
	require.Equal(t, 1, loading)

	close(asker.release)
	wg.Wait()
	close(results)

	accepted := 0
	for err := range results {
		if err == nil {
			accepted++
			continue
		}
		require.ErrorIs(t, err, ErrInFlight)
	}
	require.Equal(t, 1, accepted)
	require.Equal(t, 1, asker.callCount())
	require.Equal(t, 2, c.Len())
}

func TestDispatch_RecordsReplyInBackground(t *testing.T) {
	asker := &stubAsker{
		reply:   &chatapi.Reply{Message: "later"},
		release: make(chan struct{}),
	}
	c := New(asker)

	done, err := c.Dispatch(context.Background(), "lamp")
	require.NoError(t, err)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	require.True(t, msgs[1].Loading)

	close(asker.release)
	require.NoError(t, <-done)

	msgs = c.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "later", msgs[1].Text)
}

func TestSubmit_SequentialQuestionsAppend(t *testing.T) {
	asker := &stubAsker{reply: &chatapi.Reply{Message: "ok"}}
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	c := New(asker, WithClock(func() time.Time { return fixed }))

	require.NoError(t, c.Submit(context.Background(), "one"))
	require.NoError(t, c.Submit(context.Background(), "two"))

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	require.Equal(t, "one", msgs[0].Text)
	require.Equal(t, "two", msgs[2].Text)
	require.Equal(t, fixed, msgs[3].CreatedAt)
	require.Len(t, c.Exchanges(), 2)

	ids := map[string]bool{}
	for _, m := range msgs {
		require.False(t, ids[m.ID])
		ids[m.ID] = true
	}
}
