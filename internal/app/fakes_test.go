package app

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"homestock_notifier/internal/domain/grocery"
	"homestock_notifier/internal/domain/notification"
	"homestock_notifier/internal/domain/user"
	idb "homestock_notifier/internal/infra/database"

	"github.com/sirupsen/logrus"
)

var fixedNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func daysFromNow(days int) time.Time {
	return time.Date(fixedNow.Year(), fixedNow.Month(), fixedNow.Day()+days, 12, 0, 0, 0, time.UTC)
}

type fakeGroceryRepo struct {
	mu        sync.Mutex
	items     []*grocery.Grocery
	findErr   error
	markErrs  map[string]error
	findCalls int
	lastEnd   time.Time
}

func (f *fakeGroceryRepo) add(g *grocery.Grocery) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, g)
}

func (f *fakeGroceryRepo) FindExpiringUnnotified(ctx context.Context, windowEnd time.Time) ([]*grocery.Grocery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	f.lastEnd = windowEnd
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]*grocery.Grocery, 0)
	for _, g := range f.items {
		if g.NotificationSent || g.ExpiryDate.After(windowEnd) {
			continue
		}
		cp := *g
		cp.Owner = nil
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeGroceryRepo) MarkNotified(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.markErrs[id]; err != nil {
		return err
	}
	for _, g := range f.items {
		if g.ID == id {
			g.NotificationSent = true
			return nil
		}
	}
	return idb.ErrGroceryNotFound
}

func (f *fakeGroceryRepo) notified() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0)
	for _, g := range f.items {
		if g.NotificationSent {
			ids = append(ids, g.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
	err   error
	calls int
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, idb.ErrUserNotFound
	}
	return u, nil
}

type sendCall struct {
	recipient notification.Recipient
	groceries []string
}

type fakeSender struct {
	channel notification.Channel
	result  bool
	panics  bool
	onSend  func(ctx context.Context, recipient notification.Recipient) bool // Overrides result

	mu    sync.Mutex
	calls []sendCall
}

func newFakeSender(ch notification.Channel, result bool) *fakeSender {
	return &fakeSender{channel: ch, result: result}
}

func (f *fakeSender) Channel() notification.Channel { return f.channel }

func (f *fakeSender) Send(ctx context.Context, recipient notification.Recipient, groceries []*grocery.Grocery) bool {
	ids := make([]string, 0, len(groceries))
	for _, g := range groceries {
		ids = append(ids, g.ID)
	}
	f.mu.Lock()
	f.calls = append(f.calls, sendCall{recipient: recipient, groceries: ids})
	f.mu.Unlock()
	if f.panics {
		panic("transport exploded")
	}
	if f.onSend != nil {
		return f.onSend(ctx, recipient)
	}
	return f.result
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSender) callFor(userID string) (sendCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.recipient.UserID == userID {
			return c, true
		}
	}
	return sendCall{}, false
}

type fakeLock struct {
	acquired bool
	err      error
	token    string
	released []string
}

func (f *fakeLock) Acquire(ctx context.Context) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	return f.token, f.acquired, nil
}

func (f *fakeLock) Release(ctx context.Context, token string) error {
	f.released = append(f.released, token)
	return nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	runs   []string
	sends  map[string]int
	marked int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{sends: make(map[string]int)}
}

func (f *fakeMetrics) ObserveRun(result string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, result)
}

func (f *fakeMetrics) IncChannelSend(ch notification.Channel, outcome notification.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends[string(ch)+"/"+string(outcome)]++
}

func (f *fakeMetrics) AddRecordsMarked(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked += n
}

type emailCall struct {
	to      []string
	subject string
	body    string
}

type fakeEmailTransport struct {
	mu    sync.Mutex
	err   error
	calls []emailCall
}

func (f *fakeEmailTransport) SendEmail(ctx context.Context, to []string, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, emailCall{to: to, subject: subject, body: htmlBody})
	return f.err
}

type messageCall struct {
	from string
	to   string
	body string
}

type fakeMessageTransport struct {
	mu    sync.Mutex
	err   error
	calls []messageCall
}

func (f *fakeMessageTransport) SendMessage(ctx context.Context, from, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messageCall{from: from, to: to, body: body})
	if f.err != nil {
		return "", f.err
	}
	return "SM123", nil
}

var errStoreDown = errors.New("connection refused")
