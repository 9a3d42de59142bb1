package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLogFields(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		assert.Empty(t, GetLogFields(context.Background()))
	})

	t.Run("with logging meta", func(t *testing.T) {
		ctx := WithServiceName(context.Background(), "arena-service")
		ctx = WithLoggingMeta(ctx, LoggingMeta{
			MottakID:     "0412",
			OrgNr:        "223456789",
			MsgID:        "12314-123124-43252-2344",
			SykmeldingID: "sm-1",
		})

		fields := GetLogFields(ctx)
		assert.Equal(t, []interface{}{
			"service_name", "arena-service",
			"mottak_id", "0412",
			"org_nr", "223456789",
			"msg_id", "12314-123124-43252-2344",
			"sykmelding_id", "sm-1",
		}, fields)
	})

	t.Run("trace and message ids", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "abc")
		ctx = WithMessageID(ctx, "m-1")

		assert.Equal(t, "abc", GetTraceID(ctx))
		assert.Equal(t, "m-1", GetMessageID(ctx))
		assert.Equal(t, []interface{}{"trace_id", "abc", "message_id", "m-1"}, GetLogFields(ctx))
	})
}
