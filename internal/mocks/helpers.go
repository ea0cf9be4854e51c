package mocks

import (
	"testing"

	"go.uber.org/mock/gomock"
)

// NewMockSignerForTest creates a new mock Signer for testing
func NewMockSignerForTest(t *testing.T) *MockSigner {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockSigner(ctrl)
}

// NewMockChainReaderForTest creates a new mock ChainReader for testing
func NewMockChainReaderForTest(t *testing.T) *MockChainReader {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockChainReader(ctrl)
}

// NewMockRefresherForTest creates a new mock Refresher for testing
func NewMockRefresherForTest(t *testing.T) *MockRefresher {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockRefresher(ctrl)
}

// NewMockLedgerForTest creates a new mock Ledger for testing
func NewMockLedgerForTest(t *testing.T) *MockLedger {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockLedger(ctrl)
}

// NewMockNotifierForTest creates a new mock Notifier for testing
func NewMockNotifierForTest(t *testing.T) *MockNotifier {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return NewMockNotifier(ctrl)
}
