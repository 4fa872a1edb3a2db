package audit

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockDescriber struct {
	mock.Mock
}

func (m *MockDescriber) DescribeExecution(ctx context.Context, ref string) (*Description, error) {
	ret := m.Called(ctx, ref)

	var r0 *Description
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Description)
	}

	return r0, ret.Error(1)
}
