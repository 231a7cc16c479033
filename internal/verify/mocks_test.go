package verify_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/dashverify/internal/locator"
	"github.com/xkilldash9x/dashverify/internal/verify"
)

// -- Page Mock --

type MockPage struct {
	mock.Mock
}

var _ verify.Page = (*MockPage)(nil)

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockPage) Click(ctx context.Context, loc locator.Locator) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockPage) SetChecked(ctx context.Context, loc locator.Locator, checked bool) error {
	return m.Called(ctx, loc, checked).Error(0)
}

func (m *MockPage) DragTo(ctx context.Context, src, dst locator.Locator) error {
	return m.Called(ctx, src, dst).Error(0)
}

func (m *MockPage) Expect(ctx context.Context, loc locator.Locator, cond locator.Condition, timeout time.Duration) error {
	return m.Called(ctx, loc, cond, timeout).Error(0)
}

func (m *MockPage) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	png, _ := args.Get(0).([]byte)
	return png, args.Error(1)
}

func (m *MockPage) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// -- Launcher Mock --

type MockLauncher struct {
	mock.Mock
}

var _ verify.Launcher = (*MockLauncher)(nil)

func (m *MockLauncher) NewSession(ctx context.Context, opts verify.SessionOptions) (verify.Page, error) {
	args := m.Called(ctx, opts)
	page, _ := args.Get(0).(verify.Page)
	return page, args.Error(1)
}
