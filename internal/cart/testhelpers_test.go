package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/angelmondragon/solecart-backend/internal/events"
	"github.com/angelmondragon/solecart-backend/pkg/db"
	"github.com/angelmondragon/solecart-backend/pkg/db/models"
	"github.com/angelmondragon/solecart-backend/pkg/enums"
	"github.com/angelmondragon/solecart-backend/pkg/migrate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, migrate.AutoMigrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEmitter) Emit(_ context.Context, evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) types() []enums.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]enums.EventType, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.Type)
	}
	return out
}

func newTestService(t *testing.T) (Service, *recordingEmitter, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	emitter := &recordingEmitter{}
	svc, err := NewService(NewRepository(conn), db.FromGorm(conn), emitter)
	require.NoError(t, err)
	return svc, emitter, conn
}

func shoe(id string, price float64, quantity int, checked bool) models.ShoeVariation {
	return models.ShoeVariation{
		ID:        id,
		Name:      "Runner " + id,
		Type:      enums.ShoeTypeMen,
		Size:      9.5,
		Quantity:  quantity,
		Checkmark: checked,
		Price:     decimal.NewFromFloat(price),
	}
}

func requireTotal(t *testing.T, want float64, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.NewFromFloat(want).Equal(got), "expected total %v, got %s", want, got)
}
