package di

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
)

type orderPlaced struct{ id int }

func TestFireDeliversInOrderWithQualifiers(t *testing.T) {
	c := New()
	var got []string
	add := func(name string, qualifiers ...string) {
		t.Helper()
		err := c.AddSubscriber(Subscriber{
			ObservedType: reflect.TypeOf(orderPlaced{}),
			Qualifiers:   NewQualifiers(qualifiers...),
			Notify: func(_ context.Context, event any) error {
				got = append(got, name)
				return nil
			},
		})
		mustNoErr(t, err)
	}
	add("all")
	add("eu", "region=eu")
	add("us", "region=us")
	mustFinalize(t, c)

	mustNoErr(t, c.Fire(context.Background(), orderPlaced{id: 1}))
	mustNoErr(t, c.Fire(context.Background(), orderPlaced{id: 2}, "region=eu"))
	want := []string{"all", "all", "eu"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivery[%d]=%q want %q", i, got[i], want[i])
		}
	}

	if err := c.Fire(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil event")
	}
}

func TestFireStopsOnFirstError(t *testing.T) {
	c := New()
	boom := errors.New("boom")
	var calls atomic.Int32
	for i := 0; i < 2; i++ {
		mustNoErr(t, c.AddSubscriber(Subscriber{
			ObservedType: reflect.TypeOf(orderPlaced{}),
			Notify: func(context.Context, any) error {
				calls.Add(1)
				return boom
			},
		}))
	}
	mustFinalize(t, c)
	if err := c.Fire(context.Background(), orderPlaced{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected delivery to stop, calls=%d", calls.Load())
	}
}

func TestFireAsyncOnlyReachesAsyncSubscribers(t *testing.T) {
	c := New()
	var syncCalls, asyncCalls atomic.Int32
	mustNoErr(t, c.AddSubscriber(Subscriber{
		ObservedType: reflect.TypeOf(orderPlaced{}),
		Notify: func(context.Context, any) error {
			syncCalls.Add(1)
			return nil
		},
	}))
	for i := 0; i < 3; i++ {
		mustNoErr(t, c.AddSubscriber(Subscriber{
			ObservedType: reflect.TypeOf((*any)(nil)).Elem(),
			Async:        true,
			Notify: func(context.Context, any) error {
				asyncCalls.Add(1)
				return nil
			},
		}))
	}
	mustFinalize(t, c)
	mustNoErr(t, c.FireAsync(context.Background(), orderPlaced{}))
	if asyncCalls.Load() != 3 || syncCalls.Load() != 0 {
		t.Fatalf("unexpected calls sync=%d async=%d", syncCalls.Load(), asyncCalls.Load())
	}
}

func TestAddSubscriberValidates(t *testing.T) {
	c := New()
	if err := c.AddSubscriber(Subscriber{}); !errors.Is(err, ErrInvalidBinding) {
		t.Fatalf("expected ErrInvalidBinding, got %v", err)
	}
}
