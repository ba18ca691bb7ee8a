package requestcontext

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "oncofeliz/pkg/domain"
)

func TestActor(t *testing.T) {
	ctx := WithActor(context.Background(), id.UserID(9), "PSICOLOGO")
	assert.Equal(t, id.UserID(9), UserID(ctx))
	assert.Equal(t, "PSICOLOGO", Role(ctx))

	assert.True(t, UserID(context.Background()).IsZero())
	assert.Empty(t, Role(context.Background()))
}

func TestNowFallsBackToWallClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, fixed, Now(WithTime(context.Background(), fixed)))
	assert.WithinDuration(t, time.Now(), Now(context.Background()), time.Second)
}

func TestWarnings(t *testing.T) {
	t.Run("without collector warnings are dropped", func(t *testing.T) {
		ctx := context.Background()
		AddWarning(ctx, "ignored")
		assert.Nil(t, Warnings(ctx))
	})

	t.Run("collects concurrently added warnings", func(t *testing.T) {
		ctx := WithWarnings(context.Background())
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				AddWarning(ctx, "notification failed")
			}()
		}
		wg.Wait()
		assert.Len(t, Warnings(ctx), 20)
	})
}
