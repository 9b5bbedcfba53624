package logging

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev, flags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prev)
		log.SetFlags(flags)
	})
	return &buf
}

func TestLogger(t *testing.T) {
	buf := capture(t)
	ctx := WithRequestID(context.Background(), "r-1")
	assert.Equal(t, "r-1", RequestID(ctx))

	New(ctx).Error("schedule.get", errors.New("boom"))
	New(context.Background()).Infof("chat", "tools=%d", 3)

	assert.Equal(t,
		"[error] request_id=r-1 operation=schedule.get error=boom\n"+
			"[info] request_id=unknown operation=chat tools=3\n",
		buf.String())
}
