package audit

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockObjectFetcher struct {
	mock.Mock
}

func (m *MockObjectFetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	ret := m.Called(ctx, bucket, key)

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	return r0, ret.Error(1)
}
