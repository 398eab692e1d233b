package broadcast

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sourcegraph/conc/panics"
)

type recorder[T comparable] struct {
	mu     sync.Mutex
	values []T
}

func (r *recorder[T]) record(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder[T]) got() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

func TestValue_SubscribeReplaysCurrent(t *testing.T) {
	v := New(true)
	rec := &recorder[bool]{}

	cancel := v.Subscribe(rec.record)
	defer cancel()

	if diff := cmp.Diff([]bool{true}, rec.got()); diff != "" {
		t.Errorf("initial delivery mismatch (-want +got):\n%s", diff)
	}
}

func TestValue_PublishSuppressesDuplicates(t *testing.T) {
	v := New(true)
	rec := &recorder[bool]{}
	v.Subscribe(rec.record)

	v.Publish(true)
	v.Publish(false)
	v.Publish(false)
	v.Publish(true)
	v.Publish(true)

	want := []bool{true, false, true}
	if diff := cmp.Diff(want, rec.got()); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}
}

func TestValue_SetDefersDelivery(t *testing.T) {
	v := New(0)
	rec := &recorder[int]{}
	v.Subscribe(rec.record)

	if !v.Set(1) {
		t.Fatal("Set(1) should report a change")
	}
	if v.Set(1) {
		t.Error("Set(1) twice should not report a change")
	}
	if got := v.Get(); got != 1 {
		t.Errorf("Get() = %d, want 1", got)
	}
	if diff := cmp.Diff([]int{0}, rec.got()); diff != "" {
		t.Errorf("Set should not deliver before Flush (-want +got):\n%s", diff)
	}

	v.Set(2)
	v.Flush()

	if diff := cmp.Diff([]int{0, 1, 2}, rec.got()); diff != "" {
		t.Errorf("Flush should deliver in order (-want +got):\n%s", diff)
	}
}

func TestValue_LateSubscriberSkipsBacklog(t *testing.T) {
	v := New("a")
	v.Set("b")
	v.Set("c")

	rec := &recorder[string]{}
	v.Subscribe(rec.record)
	v.Flush()

	if diff := cmp.Diff([]string{"c"}, rec.got()); diff != "" {
		t.Errorf("late subscriber should only see the latest value (-want +got):\n%s", diff)
	}
}

func TestValue_Unsubscribe(t *testing.T) {
	v := New(false)
	rec := &recorder[bool]{}
	cancel := v.Subscribe(rec.record)

	if v.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", v.SubscriberCount())
	}

	cancel()
	cancel()
	v.Publish(true)

	if v.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", v.SubscriberCount())
	}
	if diff := cmp.Diff([]bool{false}, rec.got()); diff != "" {
		t.Errorf("cancelled subscriber received values (-want +got):\n%s", diff)
	}
}

func TestValue_ReentrantPublish(t *testing.T) {
	v := New(0)
	rec := &recorder[int]{}

	v.Subscribe(func(x int) {
		rec.record(x)
		if x == 1 {
			// Delivered by the outer Flush once this callback returns.
			v.Publish(2)
		}
	})

	v.Publish(1)

	if diff := cmp.Diff([]int{0, 1, 2}, rec.got()); diff != "" {
		t.Errorf("re-entrant publish mismatch (-want +got):\n%s", diff)
	}
}

func TestValue_ConcurrentPublish(t *testing.T) {
	v := New(0)
	rec := &recorder[int]{}
	v.Subscribe(rec.record)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Publish(i)
		}()
	}
	wg.Wait()
	v.Flush()

	got := rec.got()
	for i := 1; i < len(got); i++ {
		if got[i] == got[i-1] {
			t.Fatalf("consecutive duplicate %d at index %d", got[i], i)
		}
	}
	if last := got[len(got)-1]; last != v.Get() {
		t.Errorf("last delivered = %d, want current %d", last, v.Get())
	}
}

func TestValue_SubscriberPanicIsContained(t *testing.T) {
	v := New(0)

	var recovered []any
	v.OnPanic(func(r *panics.Recovered) { recovered = append(recovered, r.Value) })

	cancelBad := v.Subscribe(func(x int) {
		if x == 1 {
			panic("subscriber bug")
		}
	})
	defer cancelBad()

	rec := &recorder[int]{}
	cancel := v.Subscribe(rec.record)
	defer cancel()

	v.Publish(1)
	v.Publish(2)

	if diff := cmp.Diff([]int{0, 1, 2}, rec.got()); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"subscriber bug"}, recovered); diff != "" {
		t.Errorf("recovered panics mismatch (-want +got):\n%s", diff)
	}
}

func TestValue_PanicWithoutHandlerIsDropped(t *testing.T) {
	v := New(false)
	cancel := v.Subscribe(func(x bool) {
		if x {
			panic("boom")
		}
	})
	defer cancel()

	v.Publish(true)

	rec := &recorder[bool]{}
	cancelRec := v.Subscribe(rec.record)
	defer cancelRec()
	v.Publish(false)

	if diff := cmp.Diff([]bool{true, false}, rec.got()); diff != "" {
		t.Errorf("deliveries after panic mismatch (-want +got):\n%s", diff)
	}
}
