package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"cvbot_backend/internal/telegram"
	"cvbot_backend/platform/apperr"
	"cvbot_backend/platform/logger"
)

type fakeTransport struct {
	chats   map[string]*telegram.Chat
	admins  []telegram.ChatMember
	members map[string]*telegram.ChatMember

	getChatCalls int
}

func (f *fakeTransport) GetChat(_ context.Context, ref string) (*telegram.Chat, error) {
	f.getChatCalls++
	if c, ok := f.chats[ref]; ok {
		return c, nil
	}
	return nil, errors.New("chat not found")
}

func (f *fakeTransport) GetChatAdministrators(_ context.Context, _ int64) ([]telegram.ChatMember, error) {
	if f.admins == nil {
		return nil, errors.New("no access")
	}
	return f.admins, nil
}

func (f *fakeTransport) GetChatMember(_ context.Context, _ int64, ref string) (*telegram.ChatMember, error) {
	if m, ok := f.members[ref]; ok {
		return m, nil
	}
	return nil, errors.New("member not found")
}

func newTestResolver(t *testing.T, transport *fakeTransport) (*Resolver, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewResolver(transport, cache, -100200, logger.New("development")), cache
}

func TestResolveViaGetChatPrivate(t *testing.T) {
	transport := &fakeTransport{
		chats: map[string]*telegram.Chat{
			"@alice": {ID: 111, Type: "private", Username: "alice"},
		},
	}
	r, _ := newTestResolver(t, transport)

	id, err := r.Resolve(context.Background(), "@alice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != 111 {
		t.Fatalf("expected 111, got %d", id)
	}
}

func TestResolveRejectsNonPrivateChat(t *testing.T) {
	transport := &fakeTransport{
		chats: map[string]*telegram.Chat{
			"@devs": {ID: -500, Type: "supergroup", Username: "devs"},
		},
	}
	r, _ := newTestResolver(t, transport)

	if _, err := r.Resolve(context.Background(), "devs"); !apperr.Is(err, apperr.KindUnresolvedIdentity) {
		t.Fatalf("group chat id must never resolve as a user, got %v", err)
	}
}

func TestResolveViaChannelAdmins(t *testing.T) {
	transport := &fakeTransport{
		admins: []telegram.ChatMember{
			{User: &telegram.User{ID: 222, Username: "Bob"}, Status: "administrator"},
		},
	}
	r, _ := newTestResolver(t, transport)

	id, err := r.Resolve(context.Background(), "bob")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != 222 {
		t.Fatalf("expected 222 via admin scan, got %d", id)
	}
}

func TestResolveViaChatMember(t *testing.T) {
	transport := &fakeTransport{
		members: map[string]*telegram.ChatMember{
			"@carol": {User: &telegram.User{ID: 333, Username: "carol"}, Status: "member"},
		},
	}
	r, _ := newTestResolver(t, transport)

	id, err := r.Resolve(context.Background(), "carol")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != 333 {
		t.Fatalf("expected 333 via getChatMember, got %d", id)
	}
}

func TestResolveCachesHits(t *testing.T) {
	transport := &fakeTransport{
		chats: map[string]*telegram.Chat{
			"@alice": {ID: 111, Type: "private"},
		},
	}
	r, cache := newTestResolver(t, transport)

	if _, err := r.Resolve(context.Background(), "alice"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	val, err := cache.Get(context.Background(), "identity:username:alice").Result()
	if err != nil || val != "111" {
		t.Fatalf("expected cached id 111, got %q err %v", val, err)
	}

	calls := transport.getChatCalls
	id, err := r.Resolve(context.Background(), "ALICE")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if id != 111 {
		t.Fatalf("expected 111 from cache, got %d", id)
	}
	if transport.getChatCalls != calls {
		t.Fatal("cache hit must not call the API")
	}
}

func TestResolveExhaustedTiers(t *testing.T) {
	r, _ := newTestResolver(t, &fakeTransport{})

	if _, err := r.Resolve(context.Background(), "ghost"); !apperr.Is(err, apperr.KindUnresolvedIdentity) {
		t.Fatalf("expected unresolved identity, got %v", err)
	}
}

func TestResolveWorksWithoutCache(t *testing.T) {
	transport := &fakeTransport{
		chats: map[string]*telegram.Chat{
			"@alice": {ID: 111, Type: "private"},
		},
	}
	r := NewResolver(transport, nil, -100200, logger.New("development"))

	id, err := r.Resolve(context.Background(), "alice")
	if err != nil {
		t.Fatalf("resolve without cache: %v", err)
	}
	if id != 111 {
		t.Fatalf("expected 111, got %d", id)
	}
}

func TestResolveEmptyUsername(t *testing.T) {
	r, _ := newTestResolver(t, &fakeTransport{})

	if _, err := r.Resolve(context.Background(), "  @ "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
