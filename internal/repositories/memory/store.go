// Package memory provides in-process implementations of the repository
// interfaces. They enforce the same unique constraints as the MongoDB indexes
// and are used by service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	_ repositories.ProductRepository      = (*ProductRepository)(nil)
	_ repositories.ConversationRepository = (*ConversationRepository)(nil)
	_ repositories.MessageRepository      = (*MessageRepository)(nil)
	_ repositories.NotificationRepository = (*NotificationRepository)(nil)
	_ repositories.FavoriteRepository     = (*FavoriteRepository)(nil)
	_ repositories.UserRepository         = (*UserRepository)(nil)
)

type record[T any] struct {
	seq   int64
	value T
}

// Store holds every collection behind one mutex.
type Store struct {
	mu  sync.Mutex
	seq int64

	products      map[primitive.ObjectID]record[models.Product]
	conversations map[primitive.ObjectID]record[models.Conversation]
	messages      map[primitive.ObjectID]record[models.Message]
	notifications map[primitive.ObjectID]record[models.Notification]
	favorites     map[primitive.ObjectID]record[models.Favorite]
	users         map[string]models.User

	// FailNotifications makes CreateNotification fail, to exercise best-effort paths.
	FailNotifications bool
}

func NewStore() *Store {
	return &Store{
		products:      map[primitive.ObjectID]record[models.Product]{},
		conversations: map[primitive.ObjectID]record[models.Conversation]{},
		messages:      map[primitive.ObjectID]record[models.Message]{},
		notifications: map[primitive.ObjectID]record[models.Notification]{},
		favorites:     map[primitive.ObjectID]record[models.Favorite]{},
		users:         map[string]models.User{},
	}
}

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func parseID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, repositories.ErrNotFound)
	}
	return objID, nil
}

// Products

type ProductRepository struct{ s *Store }

func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

func (r *ProductRepository) CreateProduct(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	if product.Status == "" {
		product.Status = models.ProductStatusActive
	}
	r.s.products[product.ID] = record[models.Product]{seq: r.s.next(), value: *product}
	return nil
}

func (r *ProductRepository) GetProductByID(_ context.Context, id string) (*models.Product, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.products[objID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	product := rec.value
	return &product, nil
}

func (r *ProductRepository) GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	products := []models.Product{}
	for _, id := range ids {
		product, err := r.GetProductByID(ctx, id)
		if err != nil {
			continue
		}
		products = append(products, *product)
	}
	return products, nil
}

func (r *ProductRepository) GetProducts(_ context.Context, filter repositories.ProductFilter, skip, limit int64) ([]models.Product, error) {
	r.s.mu.Lock()
	recs := make([]record[models.Product], 0, len(r.s.products))
	for _, rec := range r.s.products {
		p := rec.value
		if filter.SellerID != "" && p.SellerID != filter.SellerID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		recs = append(recs, rec)
	}
	r.s.mu.Unlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	return page(values(recs), skip, limit), nil
}

func (r *ProductRepository) UpdateProduct(_ context.Context, id string, product *models.Product) error {
	objID, err := parseID(id)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.products[objID]
	if !ok {
		return repositories.ErrNotFound
	}
	product.UpdatedAt = time.Now()
	rec.value.Title = product.Title
	rec.value.Description = product.Description
	rec.value.Price = product.Price
	rec.value.Category = product.Category
	rec.value.Images = product.Images
	rec.value.UpdatedAt = product.UpdatedAt
	r.s.products[objID] = rec
	return nil
}

func (r *ProductRepository) SetStatus(_ context.Context, id, status string) error {
	objID, err := parseID(id)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.products[objID]
	if !ok {
		return repositories.ErrNotFound
	}
	rec.value.Status = status
	rec.value.UpdatedAt = time.Now()
	r.s.products[objID] = rec
	return nil
}

func (r *ProductRepository) DeleteProduct(_ context.Context, id string) error {
	objID, err := parseID(id)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[objID]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.products, objID)
	return nil
}

func (r *ProductRepository) IncrementFavoritesCount(_ context.Context, id string, delta int) error {
	objID, err := parseID(id)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec, ok := r.s.products[objID]; ok {
		rec.value.FavoritesCount += delta
		r.s.products[objID] = rec
	}
	return nil
}

// Conversations

type ConversationRepository struct{ s *Store }

func (s *Store) Conversations() *ConversationRepository { return &ConversationRepository{s: s} }

func (r *ConversationRepository) CreateConversation(_ context.Context, conversation *models.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.conversations {
		if rec.value.ConversationKey == conversation.ConversationKey {
			return fmt.Errorf("conversation_key %q: %w", conversation.ConversationKey, repositories.ErrDuplicate)
		}
	}
	conversation.ID = primitive.NewObjectID()
	stored := *conversation
	stored.Participants = append([]string(nil), conversation.Participants...)
	r.s.conversations[conversation.ID] = record[models.Conversation]{seq: r.s.next(), value: stored}
	return nil
}

func (r *ConversationRepository) GetConversationByID(_ context.Context, id string) (*models.Conversation, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.conversations[objID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	conversation := rec.value
	return &conversation, nil
}

func (r *ConversationRepository) GetConversationByKey(_ context.Context, key string) (*models.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.conversations {
		if rec.value.ConversationKey == key {
			conversation := rec.value
			return &conversation, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *ConversationRepository) GetConversationsByParticipant(_ context.Context, userID string) ([]models.Conversation, error) {
	r.s.mu.Lock()
	conversations := []models.Conversation{}
	for _, rec := range r.s.conversations {
		if rec.value.IsActive && rec.value.HasParticipant(userID) {
			conversations = append(conversations, rec.value)
		}
	}
	r.s.mu.Unlock()

	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})
	return conversations, nil
}

func (r *ConversationRepository) UpdateLastMessage(_ context.Context, conversationID, messageID primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.conversations[conversationID]
	if !ok {
		return repositories.ErrNotFound
	}
	id := messageID
	rec.value.LastMessage = &id
	rec.value.LastMessageAt = at
	r.s.conversations[conversationID] = rec
	return nil
}

// Messages

type MessageRepository struct{ s *Store }

func (s *Store) Messages() *MessageRepository { return &MessageRepository{s: s} }

func (r *MessageRepository) CreateMessage(_ context.Context, message *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	message.ID = primitive.NewObjectID()
	r.s.messages[message.ID] = record[models.Message]{seq: r.s.next(), value: *message}
	return nil
}

func (r *MessageRepository) GetMessagesByConversation(_ context.Context, conversationID primitive.ObjectID) ([]models.Message, error) {
	r.s.mu.Lock()
	recs := []record[models.Message]{}
	for _, rec := range r.s.messages {
		if rec.value.ConversationID == conversationID {
			recs = append(recs, rec)
		}
	}
	r.s.mu.Unlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.value.CreatedAt.Equal(b.value.CreatedAt) {
			return a.value.CreatedAt.Before(b.value.CreatedAt)
		}
		return a.seq < b.seq
	})
	return values(recs), nil
}

func (r *MessageRepository) MarkConversationRead(_ context.Context, conversationID primitive.ObjectID, receiverID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, rec := range r.s.messages {
		if rec.value.ConversationID == conversationID && rec.value.ReceiverID == receiverID && !rec.value.IsRead {
			rec.value.IsRead = true
			r.s.messages[id] = rec
			n++
		}
	}
	return n, nil
}

func (r *MessageRepository) CountUnread(_ context.Context, receiverID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, rec := range r.s.messages {
		if rec.value.ReceiverID == receiverID && !rec.value.IsRead {
			n++
		}
	}
	return n, nil
}

// Notifications

type NotificationRepository struct{ s *Store }

func (s *Store) Notifications() *NotificationRepository { return &NotificationRepository{s: s} }

func (r *NotificationRepository) CreateNotification(_ context.Context, notification *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailNotifications {
		return fmt.Errorf("notifications collection unavailable")
	}
	notification.ID = primitive.NewObjectID()
	r.s.notifications[notification.ID] = record[models.Notification]{seq: r.s.next(), value: *notification}
	return nil
}

func (r *NotificationRepository) GetByUserID(_ context.Context, userID string, limit int64) ([]models.Notification, error) {
	r.s.mu.Lock()
	recs := []record[models.Notification]{}
	for _, rec := range r.s.notifications {
		if rec.value.UserID == userID {
			recs = append(recs, rec)
		}
	}
	r.s.mu.Unlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.value.CreatedAt.Equal(b.value.CreatedAt) {
			return a.value.CreatedAt.After(b.value.CreatedAt)
		}
		return a.seq > b.seq
	})
	return page(values(recs), 0, limit), nil
}

func (r *NotificationRepository) GetUnreadCount(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, rec := range r.s.notifications {
		if rec.value.UserID == userID && !rec.value.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepository) SetRead(_ context.Context, id, userID string, isRead bool) (*models.Notification, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.notifications[objID]
	if !ok || rec.value.UserID != userID {
		return nil, repositories.ErrNotFound
	}
	rec.value.IsRead = isRead
	r.s.notifications[objID] = rec
	notification := rec.value
	return &notification, nil
}

func (r *NotificationRepository) MarkAllAsRead(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, rec := range r.s.notifications {
		if rec.value.UserID == userID && !rec.value.IsRead {
			rec.value.IsRead = true
			r.s.notifications[id] = rec
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepository) DeleteNotification(_ context.Context, id, userID string) error {
	objID, err := parseID(id)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.notifications[objID]
	if !ok || rec.value.UserID != userID {
		return repositories.ErrNotFound
	}
	delete(r.s.notifications, objID)
	return nil
}

// All returns every stored notification, oldest first.
func (r *NotificationRepository) All() []models.Notification {
	r.s.mu.Lock()
	recs := make([]record[models.Notification], 0, len(r.s.notifications))
	for _, rec := range r.s.notifications {
		recs = append(recs, rec)
	}
	r.s.mu.Unlock()
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	return values(recs)
}

// Favorites

type FavoriteRepository struct{ s *Store }

func (s *Store) Favorites() *FavoriteRepository { return &FavoriteRepository{s: s} }

func (r *FavoriteRepository) CreateFavorite(_ context.Context, favorite *models.Favorite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.favorites {
		if rec.value.UserID == favorite.UserID && rec.value.ProductID == favorite.ProductID {
			return fmt.Errorf("favorite %s/%s: %w", favorite.UserID, favorite.ProductID, repositories.ErrDuplicate)
		}
	}
	favorite.ID = primitive.NewObjectID()
	r.s.favorites[favorite.ID] = record[models.Favorite]{seq: r.s.next(), value: *favorite}
	return nil
}

func (r *FavoriteRepository) IsFavorite(_ context.Context, userID, productID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.favorites {
		if rec.value.UserID == userID && rec.value.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *FavoriteRepository) DeleteFavorite(_ context.Context, userID, productID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, rec := range r.s.favorites {
		if rec.value.UserID == userID && rec.value.ProductID == productID {
			delete(r.s.favorites, id)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *FavoriteRepository) GetFavoritesByUser(_ context.Context, userID string) ([]models.Favorite, error) {
	r.s.mu.Lock()
	recs := []record[models.Favorite]{}
	for _, rec := range r.s.favorites {
		if rec.value.UserID == userID {
			recs = append(recs, rec)
		}
	}
	r.s.mu.Unlock()
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	return values(recs), nil
}

func (r *FavoriteRepository) GetUserIDsByProduct(_ context.Context, productID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	userIDs := []string{}
	for _, rec := range r.s.favorites {
		if rec.value.ProductID == productID {
			userIDs = append(userIDs, rec.value.UserID)
		}
	}
	sort.Strings(userIDs)
	return userIDs, nil
}

// Count returns the number of stored favorites.
func (r *FavoriteRepository) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.favorites)
}

// Users

type UserRepository struct{ s *Store }

func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) CreateUser(user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("email %q: %w", user.Email, repositories.ErrDuplicate)
		}
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			user := u
			return &user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *UserRepository) GetUserByID(id string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) GetUserByFirebaseUID(firebaseUID string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == firebaseUID })
}

func (r *UserRepository) UpdateUser(user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	r.s.users[user.ID] = *user
	return nil
}

func values[T any](recs []record[T]) []T {
	out := make([]T, len(recs))
	for i, rec := range recs {
		out[i] = rec.value
	}
	return out
}

func page[T any](items []T, skip, limit int64) []T {
	if skip >= int64(len(items)) {
		return []T{}
	}
	items = items[skip:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}
