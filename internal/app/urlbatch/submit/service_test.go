package submit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urlindex.local/internal/app/urlbatch"
	"urlindex.local/internal/app/urlbatch/events"
	"urlindex.local/internal/app/urlbatch/queue"
	"urlindex.local/internal/app/urlbatch/repo"
)

type fakeLedger struct {
	available int64
	err       error
}

func (f *fakeLedger) Balance(context.Context, int64) (repo.Balance, error) {
	return repo.Balance{CreditsAvailable: f.available}, f.err
}

type fakeTasks struct {
	mu        sync.Mutex
	created   []repo.CreateTaskParams
	failed    []int64
	createErr error
	nextID    int64
}

func (f *fakeTasks) Create(_ context.Context, p repo.CreateTaskParams) (repo.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return repo.Task{}, f.createErr
	}
	f.nextID++
	f.created = append(f.created, p)
	return repo.Task{
		ID:       f.nextID,
		Code:     "code",
		UserID:   p.UserID,
		Title:    p.Title,
		Type:     string(p.Type),
		Status:   repo.StatusQueued,
		URLCount: len(p.URLs),
		Credits:  p.Credits,
	}, nil
}

func (f *fakeTasks) MarkFailed(_ context.Context, id int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	return nil
}

type fakeLock struct {
	held     bool
	released int
}

func (f *fakeLock) Acquire(context.Context, int64) (string, bool, error) {
	if f.held {
		return "", false, nil
	}
	f.held = true
	return "tok", true, nil
}

func (f *fakeLock) Release(context.Context, int64, string) error {
	f.held = false
	f.released++
	return nil
}

func (f *fakeLock) Held(context.Context, int64) (bool, error) {
	return f.held, nil
}

type fakeDispatch struct {
	jobs []queue.DispatchJob
	err  error
}

func (f *fakeDispatch) Enqueue(_ context.Context, job queue.DispatchJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeHints struct {
	seen map[string]bool
}

func (f *fakeHints) Add(_ int64, urls []string) {
	for _, u := range urls {
		f.seen[urlbatch.DedupKey(u)] = true
	}
}

func (f *fakeHints) CountSubmitted(_ int64, urls []string) int {
	n := 0
	for _, u := range urls {
		if f.seen[urlbatch.DedupKey(u)] {
			n++
		}
	}
	return n
}

type fixture struct {
	svc      *Service
	ledger   *fakeLedger
	tasks    *fakeTasks
	lock     *fakeLock
	dispatch *fakeDispatch
	hints    *fakeHints
	events   *events.ChannelCollector
}

func newFixture(available int64) *fixture {
	f := &fixture{
		ledger:   &fakeLedger{available: available},
		tasks:    &fakeTasks{},
		lock:     &fakeLock{},
		dispatch: &fakeDispatch{},
		hints:    &fakeHints{seen: map[string]bool{}},
		events:   events.NewChannelCollector(16),
	}
	f.svc = NewService(Deps{
		Ledger:   f.ledger,
		Tasks:    f.tasks,
		Lock:     f.lock,
		Dispatch: f.dispatch,
		Hints:    f.hints,
		Events:   f.events,
	}, Options{Policy: urlbatch.DefaultPolicy(), BreakerFailures: 2, BreakerTimeout: time.Minute})
	return f
}

func (f *fixture) kinds() []events.Kind {
	f.events.Close()
	var out []events.Kind
	for e := range f.events.Events() {
		out = append(out, e.Kind)
	}
	return out
}

func req(input string) Request {
	return Request{UserID: 1, Title: "weekly", Type: urlbatch.TaskTypeIndexer, Input: input}
}

func TestSubmitCreatesTaskAndDispatches(t *testing.T) {
	f := newFixture(10)

	task, err := f.svc.Submit(context.Background(), req("https://a.com\nhttps://b.com"))
	require.NoError(t, err)

	assert.Equal(t, 2, task.URLCount)
	assert.Equal(t, int64(2), task.Credits)
	require.Len(t, f.tasks.created, 1)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, f.tasks.created[0].URLs)
	require.Len(t, f.dispatch.jobs, 1)
	assert.Equal(t, task.ID, f.dispatch.jobs[0].TaskID)
	assert.Equal(t, 1, f.lock.released)
	assert.False(t, f.lock.held)
	assert.Equal(t, []events.Kind{events.KindCreated}, f.kinds())
}

func TestSubmitRejectsInvalidRequestBeforeLocking(t *testing.T) {
	f := newFixture(10)

	r := req("https://a.com")
	r.Type = "crawler"
	_, err := f.svc.Submit(context.Background(), r)
	assert.ErrorIs(t, err, ErrInvalidTaskType)

	r = req("https://a.com")
	r.Title = "   "
	_, err = f.svc.Submit(context.Background(), r)
	assert.ErrorIs(t, err, ErrInvalidTitle)

	assert.Zero(t, f.lock.released)
}

func TestSubmitReturnsEveryBlockingReason(t *testing.T) {
	f := newFixture(1)

	_, err := f.svc.Submit(context.Background(), req("https://a.com\nhttps://A.com\nexample.com\nhttps://b.com"))
	require.ErrorIs(t, err, ErrNotEligible)

	var ne *NotEligibleError
	require.True(t, errors.As(err, &ne))
	res := ne.Result()
	assert.False(t, res.CanSubmit)
	assert.True(t, res.Has(urlbatch.BlockDuplicatesPresent))
	assert.True(t, res.Has(urlbatch.BlockValidationErrors))
	assert.True(t, res.Has(urlbatch.BlockInsufficientCredits))
	assert.Empty(t, f.tasks.created)
	assert.Equal(t, 1, f.lock.released)
}

func TestSubmitWhileInFlightIsBlocked(t *testing.T) {
	f := newFixture(10)
	f.lock.held = true

	_, err := f.svc.Submit(context.Background(), req("https://a.com"))
	var ne *NotEligibleError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, []urlbatch.BlockCode{urlbatch.BlockInFlight}, ne.Result().Codes)
	// 别人的锁不能被释放
	assert.True(t, f.lock.held)
	assert.Zero(t, f.lock.released)
}

func TestSubmitDispatchFailureRefunds(t *testing.T) {
	f := newFixture(10)
	f.dispatch.err = errors.New("redis down")

	_, err := f.svc.Submit(context.Background(), req("https://a.com"))
	require.ErrorIs(t, err, ErrDispatchFailed)
	assert.Equal(t, []int64{1}, f.tasks.failed)
	assert.Equal(t, []events.Kind{events.KindFailed}, f.kinds())
}

func TestSubmitInsufficientCreditsRaceDoesNotTripBreaker(t *testing.T) {
	f := newFixture(10)
	f.tasks.createErr = repo.ErrInsufficientCredits

	for i := 0; i < 5; i++ {
		_, err := f.svc.Submit(context.Background(), req("https://a.com"))
		require.ErrorIs(t, err, repo.ErrInsufficientCredits)
	}
}

func TestSubmitBreakerOpensOnStoreFailures(t *testing.T) {
	f := newFixture(10)
	f.tasks.createErr = errors.New("connection refused")

	for i := 0; i < 2; i++ {
		_, err := f.svc.Submit(context.Background(), req("https://a.com"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	_, err := f.svc.Submit(context.Background(), req("https://a.com"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPreviewReportsPreviouslySubmitted(t *testing.T) {
	f := newFixture(10)
	_, err := f.svc.Submit(context.Background(), req("https://a.com"))
	require.NoError(t, err)

	pv, err := f.svc.Preview(context.Background(), 1, "https://A.com\nhttps://b.com")
	require.NoError(t, err)
	assert.True(t, pv.Eligibility.CanSubmit)
	assert.Equal(t, 1, pv.PreviouslySubmitted)
	assert.Equal(t, 2, pv.Quote.Required)
	// 预览不建任务
	assert.Len(t, f.tasks.created, 1)
}

func TestPreviewShowsInFlight(t *testing.T) {
	f := newFixture(10)
	f.lock.held = true

	pv, err := f.svc.Preview(context.Background(), 1, "https://a.com")
	require.NoError(t, err)
	assert.True(t, pv.Eligibility.Has(urlbatch.BlockInFlight))
}
