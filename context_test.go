package bequest

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendermint/tendermint/libs/log"
)

func TestContext(t *testing.T) {
	bg := context.Background()

	// try logger with default
	newLogger := log.NewTMLogger(os.Stdout)
	ctx := WithLogger(bg, newLogger)
	assert.Equal(t, DefaultLogger, GetLogger(bg))
	assert.Equal(t, newLogger, GetLogger(ctx))

	// caller - uninitialized
	_, ok := GetCaller(ctx)
	assert.False(t, ok)

	// empty address is not a caller
	_, ok = GetCaller(WithCaller(ctx, Address{}))
	assert.False(t, ok)

	caller := NewCondition("test", "account", []byte("alice")).Address()
	got, ok := GetCaller(WithCaller(ctx, caller))
	assert.True(t, ok)
	assert.Equal(t, caller, got)

	// request id
	_, ok = GetRequestID(ctx)
	assert.False(t, ok)
	id, ok := GetRequestID(WithRequestID(ctx, "req-1"))
	assert.True(t, ok)
	assert.Equal(t, "req-1", id)

	// log info keeps the logger chain
	withInfo := WithLogInfo(ctx, "module", "test")
	assert.NotEqual(t, newLogger, GetLogger(withInfo))
}
