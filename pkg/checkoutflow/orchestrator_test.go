package checkoutflow

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// 测试用的轮询间隔，保证用例在毫秒级跑完
const (
	testClosedCheck = 5 * time.Millisecond
	testStatusPoll  = 10 * time.Millisecond
)

type fakeSubmitter struct {
	result *SubmitResult
	err    error
	calls  *atomic.Int64
}

func (s *fakeSubmitter) Submit(ctx context.Context, form url.Values) (*SubmitResult, error) {
	if s.calls != nil {
		s.calls.Inc()
	}
	return s.result, s.err
}

type fakeWindow struct {
	closed *atomic.Bool
}

func (w *fakeWindow) Closed() bool { return w.closed.Load() }

type fakeOpener struct {
	window  PopupWindow
	blocked bool
	opened  []string
	mu      sync.Mutex
}

func (o *fakeOpener) Open(link string) (PopupWindow, error) {
	o.mu.Lock()
	o.opened = append(o.opened, link)
	o.mu.Unlock()
	if o.blocked {
		return nil, errors.New("popup blocked")
	}
	return o.window, nil
}

// fakePoller 按调用次序返回预置的状态序列，走完后停在最后一个
type fakePoller struct {
	updates []*StatusUpdate
	idx     *atomic.Int64
}

func (p *fakePoller) Check(ctx context.Context, orderID int64) (*StatusUpdate, error) {
	i := int(p.idx.Inc()) - 1
	if i >= len(p.updates) {
		i = len(p.updates) - 1
	}
	return p.updates[i], nil
}

type fakeNavigator struct {
	mu      sync.Mutex
	targets []string
}

func (n *fakeNavigator) Navigate(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
}

func (n *fakeNavigator) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.targets) == 0 {
		return ""
	}
	return n.targets[len(n.targets)-1]
}

type fakeUI struct {
	mu     sync.Mutex
	errors []string
	busy   bool
}

func (u *fakeUI) ShowError(message string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.errors = append(u.errors, message)
}

func (u *fakeUI) SetBusy(busy bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.busy = busy
}

func (u *fakeUI) isBusy() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.busy
}

func (u *fakeUI) lastError() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.errors) == 0 {
		return ""
	}
	return u.errors[len(u.errors)-1]
}

func checkoutFlowForm() url.Values {
	return url.Values{
		"payment_method": {GatewayID},
		"order_id":       {"42"},
	}
}

func okSubmit() *fakeSubmitter {
	return &fakeSubmitter{result: &SubmitResult{
		Success:     true,
		PaymentLink: "https://pay.simpleso.io/link/abc",
		OrderID:     42,
	}}
}

func TestSubmitCheckoutNotHandled(t *testing.T) {
	o := New(okSubmit(), &fakeOpener{}, &fakePoller{}, &fakeNavigator{}, &fakeUI{})

	form := url.Values{"payment_method": {"cod"}}
	err := o.SubmitCheckout(context.Background(), form)
	assert.ErrorIs(t, err, ErrNotHandled)
}

func TestSubmitCheckoutFailureResetsUI(t *testing.T) {
	submitter := &fakeSubmitter{result: &SubmitResult{Success: false, Message: "Payment error: card declined"}}
	ui := &fakeUI{}
	o := New(submitter, &fakeOpener{}, &fakePoller{}, &fakeNavigator{}, ui)

	require.NoError(t, o.SubmitCheckout(context.Background(), checkoutFlowForm()))
	assert.Equal(t, "Payment error: card declined", ui.lastError())
	assert.False(t, ui.isBusy())

	// 界面恢复后允许重新提交
	require.NoError(t, o.SubmitCheckout(context.Background(), checkoutFlowForm()))
}

func TestSubmitCheckoutTransportErrorShowsGenericMessage(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("connection refused")}
	ui := &fakeUI{}
	o := New(submitter, &fakeOpener{}, &fakePoller{}, &fakeNavigator{}, ui)

	require.NoError(t, o.SubmitCheckout(context.Background(), checkoutFlowForm()))
	assert.Equal(t, "An error occurred during checkout. Please try again.", ui.lastError())
	assert.False(t, ui.isBusy())
}

func TestSubmitCheckoutPopupBlockedNavigatesDirectly(t *testing.T) {
	opener := &fakeOpener{blocked: true}
	navigator := &fakeNavigator{}
	ui := &fakeUI{}
	o := New(okSubmit(), opener, &fakePoller{}, navigator, ui)

	require.NoError(t, o.SubmitCheckout(context.Background(), checkoutFlowForm()))

	// 弹窗被拦截：整页跳到支付链接，界面恢复，无错误提示
	assert.Equal(t, "https://pay.simpleso.io/link/abc", navigator.last())
	assert.False(t, ui.isBusy())
	assert.Empty(t, ui.errors)
}

func TestSubmitCheckoutRejectsConcurrentSubmission(t *testing.T) {
	window := &fakeWindow{closed: atomic.NewBool(false)}
	poller := &fakePoller{updates: []*StatusUpdate{{Status: "pending"}}, idx: atomic.NewInt64(0)}
	o := New(okSubmit(), &fakeOpener{window: window}, poller, &fakeNavigator{}, &fakeUI{},
		WithIntervals(testClosedCheck, testStatusPoll))

	require.NoError(t, o.SubmitCheckout(context.Background(), checkoutFlowForm()))

	err := o.SubmitCheckout(context.Background(), checkoutFlowForm())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	o.Cancel()
	o.Wait()
}

func TestPollingRedirectsOnSuccess(t *testing.T) {
	window := &fakeWindow{closed: atomic.NewBool(false)}
	poller := &fakePoller{
		updates: []*StatusUpdate{
			{Status: "pending"},
			{Status: "pending"},
			{Status: "success", RedirectURL: "https://shop.example/order-received/42/?key=wc_order_abc"},
		},
		idx: atomic.NewInt64(0),
	}
	navigator := &fakeNavigator{}
	o := New(okSubmit(), &fakeOpener{window: window}, poller, navigator, &fakeUI{},
		WithIntervals(testClosedCheck, testStatusPoll))

	require.NoError(t, o.SubmitCheckout(context.Background(), checkoutFlowForm()))
	o.Wait()

	assert.Equal(t, "https://shop.example/order-received/42/?key=wc_order_abc", navigator.last())

	// 终态后允许下一次提交
	assert.True(t, o.inFlight.CAS(false, true))
}

func TestPollingRedirectsOnFailure(t *testing.T) {
	window := &fakeWindow{closed: atomic.NewBool(false)}
	poller := &fakePoller{
		updates: []*StatusUpdate{{Status: "failed", RedirectURL: "https://shop.example/order-received/42/?key=wc_order_abc"}},
		idx:     atomic.NewInt64(0),
	}
	navigator := &fakeNavigator{}
	o := New(okSubmit(), &fakeOpener{window: window}, poller, navigator, &fakeUI{},
		WithIntervals(testClosedCheck, testStatusPoll))

	require.NoError(t, o.SubmitCheckout(context.Background(), checkoutFlowForm()))
	o.Wait()

	assert.Equal(t, "https://shop.example/order-received/42/?key=wc_order_abc", navigator.last())
}

func TestPopupClosedStopsPollingAndResets(t *testing.T) {
	window := &fakeWindow{closed: atomic.NewBool(false)}
	poller := &fakePoller{updates: []*StatusUpdate{{Status: "pending"}}, idx: atomic.NewInt64(0)}
	navigator := &fakeNavigator{}
	ui := &fakeUI{}
	o := New(okSubmit(), &fakeOpener{window: window}, poller, navigator, ui,
		WithIntervals(testClosedCheck, testStatusPoll))

	require.NoError(t, o.SubmitCheckout(context.Background(), checkoutFlowForm()))

	window.closed.Store(true)
	o.Wait()

	// 买家关弹窗：不跳转，界面恢复可再次提交
	assert.Empty(t, navigator.targets)
	assert.False(t, ui.isBusy())
	require.NoError(t, o.SubmitCheckout(context.Background(), checkoutFlowForm()))
	o.Cancel()
	o.Wait()
}

func TestCancelStopsPolling(t *testing.T) {
	window := &fakeWindow{closed: atomic.NewBool(false)}
	poller := &fakePoller{updates: []*StatusUpdate{{Status: "pending"}}, idx: atomic.NewInt64(0)}
	o := New(okSubmit(), &fakeOpener{window: window}, poller, &fakeNavigator{}, &fakeUI{},
		WithIntervals(testClosedCheck, testStatusPoll))

	require.NoError(t, o.SubmitCheckout(context.Background(), checkoutFlowForm()))
	o.Cancel()
	o.Wait()
}
