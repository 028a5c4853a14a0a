package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"custody/pkg/domain"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty context yields zero values", func(t *testing.T) {
		assert.Equal(t, domain.ZeroAddress, Caller(ctx))
		assert.Empty(t, RequestID(ctx))
		assert.Empty(t, ClientIP(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("values round trip", func(t *testing.T) {
		caller := common.HexToAddress("0x00000000000000000000000000000000000000a1")
		pinned := time.Unix(1_700_000_000, 0)

		ctx := WithCaller(ctx, caller)
		ctx = WithRequestID(ctx, "req-1")
		ctx = WithClientMetadata(ctx, "192.0.2.1", "curl/8")
		ctx = WithTime(ctx, pinned)

		assert.Equal(t, caller, Caller(ctx))
		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, "192.0.2.1", ClientIP(ctx))
		assert.Equal(t, "curl/8", UserAgent(ctx))
		assert.Equal(t, pinned, Now(ctx))
	})
}
