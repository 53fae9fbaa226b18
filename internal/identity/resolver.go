// Package identity resolves @usernames to Telegram user ids. Usernames show
// up in admin workflows where only a handle is known; the numeric id is what
// every API call needs.
package identity

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"cvbot_backend/internal/telegram"
	"cvbot_backend/platform/apperr"
	"cvbot_backend/platform/logger"
)

const (
	cacheKeyPrefix = "identity:username:"
	cacheTTL       = 24 * time.Hour
	tierTimeout    = 3 * time.Second
)

// Transport is the slice of the Telegram API the resolver uses.
type Transport interface {
	GetChat(ctx context.Context, ref string) (*telegram.Chat, error)
	GetChatAdministrators(ctx context.Context, chatID int64) ([]telegram.ChatMember, error)
	GetChatMember(ctx context.Context, chatID int64, userRef string) (*telegram.ChatMember, error)
}

// Resolver tries progressively more expensive lookups: cache, then getChat,
// then scanning the admin channel's administrators, then getChatMember
// against the admin channel. Any hit repopulates the cache.
type Resolver struct {
	transport      Transport
	cache          *redis.Client
	adminChannelID int64
	log            *logger.Logger
}

func NewResolver(transport Transport, cache *redis.Client, adminChannelID int64, log *logger.Logger) *Resolver {
	return &Resolver{
		transport:      transport,
		cache:          cache,
		adminChannelID: adminChannelID,
		log:            log,
	}
}

// Resolve maps a username (with or without the leading @) to a user id.
// Returns apperr.KindUnresolvedIdentity when every tier comes up empty.
func (r *Resolver) Resolve(ctx context.Context, username string) (int64, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return 0, apperr.Validation("empty username")
	}
	key := cacheKeyPrefix + strings.ToLower(username)

	if id, ok := r.fromCache(ctx, key); ok {
		return id, nil
	}

	if id, ok := r.viaGetChat(ctx, username); ok {
		r.toCache(ctx, key, id)
		return id, nil
	}
	if id, ok := r.viaChannelAdmins(ctx, username); ok {
		r.toCache(ctx, key, id)
		return id, nil
	}
	if id, ok := r.viaChatMember(ctx, username); ok {
		r.toCache(ctx, key, id)
		return id, nil
	}

	return 0, apperr.UnresolvedIdentity(fmt.Sprintf("could not resolve @%s", username))
}

func (r *Resolver) fromCache(ctx context.Context, key string) (int64, bool) {
	if r.cache == nil {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, tierTimeout)
	defer cancel()

	val, err := r.cache.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		r.log.Warn("identity cache read failed", "error", err)
		return 0, false
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (r *Resolver) toCache(ctx context.Context, key string, id int64) {
	if r.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, tierTimeout)
	defer cancel()

	if err := r.cache.Set(ctx, key, strconv.FormatInt(id, 10), cacheTTL).Err(); err != nil {
		r.log.Warn("identity cache write failed", "error", err)
	}
}

// viaGetChat only trusts private chats: for groups and channels the returned
// id belongs to the chat, not a user.
func (r *Resolver) viaGetChat(ctx context.Context, username string) (int64, bool) {
	ctx, cancel := context.WithTimeout(ctx, tierTimeout)
	defer cancel()

	chat, err := r.transport.GetChat(ctx, "@"+username)
	if err != nil {
		return 0, false
	}
	if chat.Type != "private" {
		return 0, false
	}
	return chat.ID, true
}

func (r *Resolver) viaChannelAdmins(ctx context.Context, username string) (int64, bool) {
	ctx, cancel := context.WithTimeout(ctx, tierTimeout)
	defer cancel()

	admins, err := r.transport.GetChatAdministrators(ctx, r.adminChannelID)
	if err != nil {
		return 0, false
	}
	for _, m := range admins {
		if m.User != nil && strings.EqualFold(m.User.Username, username) {
			return m.User.ID, true
		}
	}
	return 0, false
}

func (r *Resolver) viaChatMember(ctx context.Context, username string) (int64, bool) {
	ctx, cancel := context.WithTimeout(ctx, tierTimeout)
	defer cancel()

	member, err := r.transport.GetChatMember(ctx, r.adminChannelID, "@"+username)
	if err != nil || member.User == nil {
		return 0, false
	}
	return member.User.ID, true
}
