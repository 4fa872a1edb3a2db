package audit

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockWorkflowClient struct {
	mock.Mock
}

func (m *MockWorkflowClient) ListExecutions(ctx context.Context, stateMachineARN string, limit int32) ([]ListedExecution, error) {
	ret := m.Called(ctx, stateMachineARN, limit)

	var r0 []ListedExecution
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ListedExecution)
	}

	return r0, ret.Error(1)
}

func (m *MockWorkflowClient) DescribeExecution(ctx context.Context, ref string) (*Description, error) {
	ret := m.Called(ctx, ref)

	var r0 *Description
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Description)
	}

	return r0, ret.Error(1)
}

func (m *MockWorkflowClient) GetExecutionHistory(ctx context.Context, ref string) ([]HistoryEvent, error) {
	ret := m.Called(ctx, ref)

	var r0 []HistoryEvent
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]HistoryEvent)
	}

	return r0, ret.Error(1)
}
