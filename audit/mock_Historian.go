package audit

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockHistorian struct {
	mock.Mock
}

func (m *MockHistorian) GetExecutionHistory(ctx context.Context, ref string) ([]HistoryEvent, error) {
	ret := m.Called(ctx, ref)

	var r0 []HistoryEvent
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]HistoryEvent)
	}

	return r0, ret.Error(1)
}
