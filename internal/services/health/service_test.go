package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestStatusWithoutDatabase(t *testing.T) {
	st := NewService(nil, "local", "memory").Status(context.Background())
	assert.Equal(t, Status{OK: true, Database: "memory", Store: "local", Queue: "memory"}, st)
}

func TestStatusReportsDatabase(t *testing.T) {
	st := NewService(pinger{}, "s3", "sqs").Status(context.Background())
	assert.True(t, st.OK)
	assert.Equal(t, "postgres", st.Database)

	st = NewService(pinger{err: errors.New("refused")}, "s3", "sqs").Status(context.Background())
	assert.False(t, st.OK)
	assert.Equal(t, "unreachable", st.Database)
}
