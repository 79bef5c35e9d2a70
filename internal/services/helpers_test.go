package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/notify"
	"github.com/anonto42/bazaar/backend/internal/repositories/memory"
	"github.com/stretchr/testify/require"
)

var (
	alice = auth.Identity{UserID: "user-alice", Name: "Alice", Role: models.RoleUser}
	bob   = auth.Identity{UserID: "user-bob", Name: "Bob", Role: models.RoleUser}
	carol = auth.Identity{UserID: "user-carol", Name: "Carol", Role: models.RoleUser}
	admin = auth.Identity{UserID: "user-admin", Name: "Ops", Role: models.RoleAdmin}
)

type fixture struct {
	store         *memory.Store
	emitter       *notify.Emitter
	conversations *ConversationService
	messages      *MessageService
	inbox         *InboxService
	favorites     *FavoriteService
	products      *ProductService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	emitter := notify.NewEmitter(store.Notifications(), log, notify.Options{Workers: 2, Timeout: time.Second})
	emitter.Start()
	t.Cleanup(emitter.Stop)

	conversations := NewConversationService(store.Conversations(), store.Products(), log)
	return &fixture{
		store:         store,
		emitter:       emitter,
		conversations: conversations,
		messages:      NewMessageService(conversations, store.Messages(), emitter, log),
		inbox:         NewInboxService(store.Notifications(), emitter, log),
		favorites:     NewFavoriteService(store.Favorites(), store.Products(), emitter, log),
		products:      NewProductService(store.Products(), store.Favorites(), emitter, log),
	}
}

// flush waits for every queued notification to be written.
func (f *fixture) flush() {
	f.emitter.Stop()
}

func (f *fixture) product(t *testing.T, seller auth.Identity, title string) *models.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), seller, models.CreateProductRequest{Title: title, Price: 10})
	require.NoError(t, err)
	return p
}

func (f *fixture) notificationsFor(userID string) []models.Notification {
	var out []models.Notification
	for _, n := range f.store.Notifications().All() {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}
