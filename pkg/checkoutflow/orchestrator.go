// Package checkoutflow 驱动买家侧的托管支付流程：
// 异步提交结账表单，弹窗打开托管支付页，轮询支付状态，终态后跳转。
package checkoutflow

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// GatewayID 本编排器接管的支付方式标识
const GatewayID = "simpleso"

// 轮询节奏：弹窗关闭检查 500ms 一次，支付状态检查 5s 一次
const (
	defaultClosedCheckInterval = 500 * time.Millisecond
	defaultStatusPollInterval  = 5 * time.Second
)

var (
	// ErrNotHandled 所选支付方式不归本编排器管，交还宿主默认提交流程
	ErrNotHandled = errors.New("payment method not handled by this flow")

	// ErrSubmissionInFlight 同一表单实例同时只允许一次提交
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// SubmitResult 结账提交结果
type SubmitResult struct {
	Success     bool
	PaymentLink string
	OrderID     int64
	Message     string
}

// Submitter 结账表单提交接口
type Submitter interface {
	Submit(ctx context.Context, form url.Values) (*SubmitResult, error)
}

// PopupWindow 已打开的支付弹窗
type PopupWindow interface {
	Closed() bool
}

// PopupOpener 弹窗打开接口，被拦截时返回 nil 窗口或错误
type PopupOpener interface {
	Open(link string) (PopupWindow, error)
}

// StatusUpdate 状态轮询结果
type StatusUpdate struct {
	Status      string // success / failed / pending
	RedirectURL string
}

// StatusPoller 支付状态查询接口
type StatusPoller interface {
	Check(ctx context.Context, orderID int64) (*StatusUpdate, error)
}

// Navigator 页面跳转接口
type Navigator interface {
	Navigate(target string)
}

// UI 结账界面回调：错误横幅与提交按钮状态
type UI interface {
	ShowError(message string)
	SetBusy(busy bool)
}

// Orchestrator 结账流程编排器
// 状态机：IDLE → SUBMITTING → AWAITING_POPUP → POLLING → {REDIRECTING | RESET}
type Orchestrator struct {
	submitter Submitter
	popups    PopupOpener
	poller    StatusPoller
	navigator Navigator
	ui        UI

	closedCheckInterval time.Duration
	statusPollInterval  time.Duration

	inFlight *atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option 编排器可选配置
type Option func(*Orchestrator)

// WithIntervals 覆盖默认轮询间隔
func WithIntervals(closedCheck, statusPoll time.Duration) Option {
	return func(o *Orchestrator) {
		o.closedCheckInterval = closedCheck
		o.statusPollInterval = statusPoll
	}
}

// New 创建编排器
func New(submitter Submitter, popups PopupOpener, poller StatusPoller, navigator Navigator, ui UI, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		submitter:           submitter,
		popups:              popups,
		poller:              poller,
		navigator:           navigator,
		ui:                  ui,
		closedCheckInterval: defaultClosedCheckInterval,
		statusPollInterval:  defaultStatusPollInterval,
		inFlight:            atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SubmitCheckout 处理一次结账提交
// 表单里的支付方式不是本网关时返回 ErrNotHandled，由调用方走宿主默认流程
func (o *Orchestrator) SubmitCheckout(ctx context.Context, form url.Values) error {
	if form.Get("payment_method") != GatewayID {
		return ErrNotHandled
	}

	if !o.inFlight.CAS(false, true) {
		return ErrSubmissionInFlight
	}

	o.ui.SetBusy(true)

	result, err := o.submitter.Submit(ctx, form)
	if err != nil {
		o.reset("An error occurred during checkout. Please try again.")
		return nil
	}
	if !result.Success {
		message := result.Message
		if message == "" {
			message = "An error occurred during checkout."
		}
		o.reset(message)
		return nil
	}

	popup, err := o.popups.Open(result.PaymentLink)
	if err != nil || popup == nil {
		// 弹窗被拦截，整页直接跳到支付链接
		o.navigator.Navigate(result.PaymentLink)
		o.resetQuiet()
		return nil
	}

	o.startPolling(ctx, popup, result.OrderID)
	return nil
}

// startPolling 启动两个定时任务：弹窗关闭检查和支付状态轮询
// 共享一个取消上下文，任何一方观察到终态就同时停掉两者
func (o *Orchestrator) startPolling(ctx context.Context, popup PopupWindow, orderID int64) {
	pollCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	o.wg.Add(2)

	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.closedCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				if popup.Closed() {
					// 买家关掉弹窗是唯一的主动取消路径
					cancel()
					o.resetQuiet()
					return
				}
			}
		}
	}()

	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.statusPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
				update, err := o.poller.Check(pollCtx, orderID)
				if err != nil || update == nil {
					continue
				}
				if update.Status == "success" || update.Status == "failed" {
					cancel()
					o.inFlight.Store(false)
					o.navigator.Navigate(update.RedirectURL)
					return
				}
			}
		}
	}()
}

// Wait 等待轮询任务全部退出（终态跳转或弹窗关闭后返回）
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Cancel 停掉仍在运行的轮询任务
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	o.resetQuiet()
}

// reset 失败路径：展示错误并恢复界面
func (o *Orchestrator) reset(message string) {
	o.ui.ShowError(message)
	o.resetQuiet()
}

// resetQuiet 恢复界面，不展示错误
func (o *Orchestrator) resetQuiet() {
	o.inFlight.Store(false)
	o.ui.SetBusy(false)
}
