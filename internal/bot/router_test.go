package bot

import (
	"context"
	"strings"
	"sync"
	"testing"

	"cvbot_backend/internal/notify"
	"cvbot_backend/internal/orders"
	"cvbot_backend/internal/profile"
	"cvbot_backend/internal/session"
	"cvbot_backend/internal/telegram"
	"cvbot_backend/internal/wizard"
	"cvbot_backend/platform/apperr"
	"cvbot_backend/platform/logger"
	"cvbot_backend/platform/validator"
)

const adminChannelID int64 = -100900

type sentMessage struct {
	chatID   int64
	text     string
	keyboard *telegram.InlineKeyboardMarkup
}

type fakeTransport struct {
	mu       sync.Mutex
	messages []sentMessage
	photos   []sentMessage
	captions []string
}

func (f *fakeTransport) SendMessage(_ context.Context, chatID int64, text string, kb *telegram.InlineKeyboardMarkup) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{chatID: chatID, text: text, keyboard: kb})
	return &telegram.Message{MessageID: int64(len(f.messages))}, nil
}

func (f *fakeTransport) SendPhoto(_ context.Context, chatID int64, fileID, caption string, kb *telegram.InlineKeyboardMarkup) (*telegram.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sentMessage{chatID: chatID, text: caption, keyboard: kb})
	return &telegram.Message{MessageID: 500 + int64(len(f.photos))}, nil
}

func (f *fakeTransport) SendDocument(_ context.Context, chatID int64, fileID, caption string, kb *telegram.InlineKeyboardMarkup) (*telegram.Message, error) {
	return &telegram.Message{MessageID: 1}, nil
}

func (f *fakeTransport) SendVideo(_ context.Context, _ int64, _, _ string) error { return nil }

func (f *fakeTransport) SendPhotoBytes(_ context.Context, chatID int64, _ string, _ []byte, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sentMessage{chatID: chatID, text: caption})
	return nil
}

func (f *fakeTransport) EditMessageCaption(_ context.Context, _, _ int64, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captions = append(f.captions, caption)
	return nil
}

func (f *fakeTransport) AnswerCallbackQuery(_ context.Context, _ string) error { return nil }

func (f *fakeTransport) GetFile(_ context.Context, fileID string) (*telegram.File, error) {
	return &telegram.File{FileID: fileID, FilePath: "files/" + fileID}, nil
}

func (f *fakeTransport) DownloadFile(_ context.Context, _ string) ([]byte, error) {
	return []byte("bytes"), nil
}

func (f *fakeTransport) messagesTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.messages {
		if m.chatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

type fakeProfiles struct {
	mu     sync.Mutex
	saved  map[int64]*profile.Profile
	nextID int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{saved: make(map[int64]*profile.Profile)}
}

func (f *fakeProfiles) Save(_ context.Context, p *profile.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		f.nextID++
		p.ID = "cand-" + strings.Repeat("x", f.nextID)
	}
	f.saved[p.TelegramUserID] = p
	return nil
}

func (f *fakeProfiles) GetByTelegramUserID(_ context.Context, userID int64) (*profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.saved[userID]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("profile not found")
}

// memOrderStore is an in-memory orders.Store with the SQL layer's guarded
// transition semantics.
type memOrderStore struct {
	mu     sync.Mutex
	orders map[string]*orders.Order
	nextID int
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{orders: make(map[string]*orders.Order)}
}

func (m *memOrderStore) Create(_ context.Context, o *orders.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		m.nextID++
		o.ID = "ord-" + strings.Repeat("i", m.nextID)
	}
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrderStore) GetByID(_ context.Context, id string) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound("order not found")
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderStore) GetLatestByOwner(_ context.Context, userID int64) (*orders.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *orders.Order
	for _, o := range m.orders {
		if o.TelegramUserID == userID {
			latest = o
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("order not found")
	}
	cp := *latest
	return &cp, nil
}

func (m *memOrderStore) UpdateStatus(_ context.Context, id string, from, to orders.Status, reason *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return apperr.NotFound("order not found")
	}
	if o.Status != from {
		return apperr.InvalidTransition("order is no longer " + string(from))
	}
	o.Status = to
	o.StatusReason = reason
	return nil
}

func (m *memOrderStore) SetEvidence(_ context.Context, id, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return apperr.NotFound("order not found")
	}
	o.EvidenceRef = &ref
	return nil
}

type fakeResolver struct{ ids map[string]int64 }

func (f *fakeResolver) Resolve(_ context.Context, username string) (int64, error) {
	if id, ok := f.ids[strings.TrimPrefix(username, "@")]; ok {
		return id, nil
	}
	return 0, apperr.UnresolvedIdentity("unknown handle")
}

type fixture struct {
	router    *Router
	transport *fakeTransport
	sessions  *session.Store
	store     *memOrderStore
	profiles  *fakeProfiles
	orders    *orders.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New("development")
	transport := &fakeTransport{}
	sessions := session.NewStore()
	store := newMemOrderStore()
	svc := orders.NewService(store, log)
	profiles := newFakeProfiles()
	dispatcher := notify.NewDispatcher(transport, log)
	engine := wizard.NewEngine(validator.New(), 5*1024*1024, log)

	router := NewRouter(
		RouterConfig{AdminChannelID: adminChannelID, PaymentAccount: "CBE 1000123456789"},
		transport, sessions, engine, svc, profiles, dispatcher,
		&fakeResolver{ids: map[string]int64{"abebe": 100}},
		nil, log,
	)
	return &fixture{
		router: router, transport: transport, sessions: sessions,
		store: store, profiles: profiles, orders: svc,
	}
}

func userText(userID int64, text string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		From: &telegram.User{ID: userID},
		Chat: &telegram.Chat{ID: userID, Type: "private"},
		Text: text,
	}}
}

func userPhoto(userID int64, fileID string) telegram.Update {
	return telegram.Update{Message: &telegram.Message{
		From:  &telegram.User{ID: userID},
		Chat:  &telegram.Chat{ID: userID, Type: "private"},
		Photo: []telegram.PhotoSize{{FileID: fileID, FileSize: 1024}},
	}}
}

func userAction(userID int64, data string) telegram.Update {
	return telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:   "cb",
		From: &telegram.User{ID: userID},
		Message: &telegram.Message{
			Chat: &telegram.Chat{ID: userID, Type: "private"},
		},
		Data: data,
	}}
}

// runFullWizard drives a user through the whole flow up to order creation
// and evidence submission, returning the created order id.
func runFullWizard(t *testing.T, f *fixture, userID int64) string {
	t.Helper()
	ctx := context.Background()
	steps := []telegram.Update{
		userText(userID, "/start"),
		userAction(userID, wizard.ActionLangEN),
		userAction(userID, wizard.ActionNewCV),
		userText(userID, "Abebe"),
		userText(userID, "Kebede"),
		userText(userID, "Alemu"),
		userText(userID, "+251911223344"),
		userText(userID, "abebe@example.com"),
		userText(userID, "skip"),
		userText(userID, "Addis Ababa"),
		userText(userID, "Ethiopia"),
		userText(userID, "skip"),
		userAction(userID, wizard.ActionImageContinue),
		userText(userID, "Engineer"),
		userText(userID, "Acme"),
		userText(userID, "Remote"),
		userText(userID, "Built things"),
		userAction(userID, wizard.ActionContinue),
		userText(userID, "BSc"),
		userText(userID, "AAU"),
		userText(userID, "skip"),
		userText(userID, "Systems"),
		userText(userID, "skip"),
		userAction(userID, wizard.ActionContinue),
		userText(userID, "Go"),
		userText(userID, "expert"),
		userAction(userID, wizard.ActionContinue),
		userText(userID, "skip"),
		userText(userID, "skip"),
		userAction(userID, wizard.ActionContinue),
		userText(userID, "CVBot"),
		userText(userID, "A bot"),
		userText(userID, "skip"),
		userAction(userID, wizard.ActionContinue),
		userText(userID, "Amharic"),
		userText(userID, "native"),
		userAction(userID, wizard.ActionContinue),
		userText(userID, "skip"),
		userAction(userID, wizard.ActionConfirm),
		userPhoto(userID, "receipt-1"),
	}
	for _, u := range steps {
		f.router.HandleUpdate(ctx, u)
	}

	sess := f.sessions.Get(userID)
	sess.Lock()
	defer sess.Unlock()
	if sess.ActiveOrderID == "" {
		t.Fatal("wizard run did not create an order")
	}
	return sess.ActiveOrderID
}

func TestFullFlowCreatesOrderAndForwardsEvidence(t *testing.T) {
	f := newFixture(t)
	orderID := runFullWizard(t, f, 100)

	o, err := f.store.GetByID(context.Background(), orderID)
	if err != nil {
		t.Fatalf("order lookup: %v", err)
	}
	if o.Status != orders.StatusPendingVerification {
		t.Fatalf("expected pending_verification after evidence, got %s", o.Status)
	}
	if o.EvidenceRef == nil || *o.EvidenceRef != "receipt-1" {
		t.Fatal("evidence reference not stored")
	}

	p, err := f.profiles.GetByTelegramUserID(context.Background(), 100)
	if err != nil {
		t.Fatalf("profile lookup: %v", err)
	}
	if p.LinkedInProfile != nil {
		t.Fatal("skipped LinkedIn must stay unset in the persisted profile")
	}
	if len(p.WorkExperiences) != 1 {
		t.Fatalf("expected 1 work experience, got %d", len(p.WorkExperiences))
	}

	f.transport.mu.Lock()
	defer f.transport.mu.Unlock()
	var forwarded *sentMessage
	for i := range f.transport.photos {
		if f.transport.photos[i].chatID == adminChannelID {
			forwarded = &f.transport.photos[i]
		}
	}
	if forwarded == nil {
		t.Fatal("evidence must be forwarded to the admin channel")
	}
	if !strings.Contains(forwarded.text, orderIDCaptionPrefix+orderID) {
		t.Fatalf("forwarded caption must carry the order id, got %q", forwarded.text)
	}
	if forwarded.keyboard == nil {
		t.Fatal("forwarded evidence must carry decision buttons")
	}
}

func adminReply(text, evidenceCaption string) telegram.Update {
	return telegram.Update{ChannelPost: &telegram.Message{
		Chat: &telegram.Chat{ID: adminChannelID, Type: "channel"},
		Text: text,
		ReplyTo: &telegram.Message{
			MessageID: 501,
			Chat:      &telegram.Chat{ID: adminChannelID},
			Caption:   evidenceCaption,
		},
	}}
}

func TestAdminRejectReplyScenario(t *testing.T) {
	f := newFixture(t)
	orderID := runFullWizard(t, f, 100)
	caption := "New payment receipt\n" + orderIDCaptionPrefix + orderID + "\nUser: Abebe"

	before := len(f.transport.messagesTo(100))
	f.router.HandleUpdate(context.Background(), adminReply("reject: blurry receipt", caption))

	o, _ := f.store.GetByID(context.Background(), orderID)
	if o.Status != orders.StatusRejected {
		t.Fatalf("expected rejected, got %s", o.Status)
	}
	if o.StatusReason == nil || *o.StatusReason != "blurry receipt" {
		t.Fatalf("expected reason to persist, got %v", o.StatusReason)
	}

	after := f.transport.messagesTo(100)
	if len(after) != before+1 {
		t.Fatalf("owner must be notified exactly once, got %d new messages", len(after)-before)
	}
	if !strings.Contains(after[len(after)-1].text, "blurry receipt") {
		t.Fatal("owner notification must carry the rejection reason")
	}

	// A later approve on the decided order is a no-op.
	f.router.HandleUpdate(context.Background(), adminReply("approve", caption))
	o, _ = f.store.GetByID(context.Background(), orderID)
	if o.Status != orders.StatusRejected {
		t.Fatal("approve after reject must not change the status")
	}
	if got := f.transport.messagesTo(100); len(got) != before+1 {
		t.Fatal("no second notification may be sent")
	}
}

func TestDecisionButtonApprove(t *testing.T) {
	f := newFixture(t)
	orderID := runFullWizard(t, f, 100)

	before := len(f.transport.messagesTo(100))
	cb := telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:   "cb",
		From: &telegram.User{ID: 555}, // the admin pressing the button
		Message: &telegram.Message{
			MessageID: 501,
			Chat:      &telegram.Chat{ID: adminChannelID},
			Caption:   "New payment receipt\n" + orderIDCaptionPrefix + orderID,
		},
		Data: encodeDecisionToken(decisionApprove, 100, orderID),
	}}
	f.router.HandleUpdate(context.Background(), cb)

	o, _ := f.store.GetByID(context.Background(), orderID)
	if o.Status != orders.StatusVerified {
		t.Fatalf("expected verified, got %s", o.Status)
	}

	after := f.transport.messagesTo(100)
	if len(after) != before+1 {
		t.Fatalf("owner must be notified exactly once, got %d new", len(after)-before)
	}

	f.transport.mu.Lock()
	captionEdits := len(f.transport.captions)
	f.transport.mu.Unlock()
	if captionEdits != 1 {
		t.Fatalf("evidence caption must record the decision, got %d edits", captionEdits)
	}
}

func TestMalformedDecisionTokenIgnored(t *testing.T) {
	f := newFixture(t)
	cb := telegram.Update{CallbackQuery: &telegram.CallbackQuery{
		ID:   "cb",
		From: &telegram.User{ID: 555},
		Message: &telegram.Message{
			Chat: &telegram.Chat{ID: adminChannelID},
		},
		Data: "approve_zzz",
	}}
	// Must not panic or send anything.
	f.router.HandleUpdate(context.Background(), cb)
	if len(f.transport.messagesTo(100)) != 0 {
		t.Fatal("malformed token must be dropped")
	}
}

func TestAdminReplyWithoutOrderIDIgnored(t *testing.T) {
	f := newFixture(t)
	runFullWizard(t, f, 100)

	before := len(f.transport.messagesTo(100))
	f.router.HandleUpdate(context.Background(), adminReply("approve", "some unrelated caption"))
	if len(f.transport.messagesTo(100)) != before {
		t.Fatal("reply without an order reference must be ignored")
	}
}

func TestPaymentRetryCommand(t *testing.T) {
	f := newFixture(t)
	orderID := runFullWizard(t, f, 100)

	// Without a rejection the command refuses.
	f.router.HandleUpdate(context.Background(), userText(100, "/payment"))
	msgs := f.transport.messagesTo(100)
	last := msgs[len(msgs)-1]
	if !strings.Contains(last.text, "no rejected payment") {
		t.Fatalf("expected refusal, got %q", last.text)
	}

	caption := "New payment receipt\n" + orderIDCaptionPrefix + orderID
	f.router.HandleUpdate(context.Background(), adminReply("reject: wrong amount", caption))

	f.router.HandleUpdate(context.Background(), userText(100, "/payment"))
	sess := f.sessions.Get(100)
	sess.Lock()
	newOrderID := sess.ActiveOrderID
	notified := sess.Notified
	phase := sess.Phase
	sess.Unlock()

	if newOrderID == orderID || newOrderID == "" {
		t.Fatal("retry must open a fresh order")
	}
	if notified {
		t.Fatal("retry must reset the notified gate")
	}
	if phase != session.PhaseAwaitingEvidence {
		t.Fatal("retry must wait for a new receipt")
	}

	// The new receipt flows through the same evidence path.
	f.router.HandleUpdate(context.Background(), userPhoto(100, "receipt-2"))
	o, err := f.store.GetByID(context.Background(), newOrderID)
	if err != nil {
		t.Fatalf("new order lookup: %v", err)
	}
	if o.Status != orders.StatusPendingVerification {
		t.Fatalf("expected pending after new receipt, got %s", o.Status)
	}
}

func TestCancelCommandTearsDownFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.router.HandleUpdate(ctx, userText(100, "/start"))
	f.router.HandleUpdate(ctx, userAction(100, wizard.ActionLangEN))
	f.router.HandleUpdate(ctx, userAction(100, wizard.ActionNewCV))
	f.router.HandleUpdate(ctx, userText(100, "Abebe"))

	f.router.HandleUpdate(ctx, userText(100, "/cancel"))

	sess := f.sessions.Get(100)
	sess.Lock()
	defer sess.Unlock()
	if sess.Phase != session.PhaseIdle || sess.Profile != nil {
		t.Fatal("cancel must tear down the wizard state")
	}
}

func TestAdminFindCommand(t *testing.T) {
	f := newFixture(t)
	orderID := runFullWizard(t, f, 100)

	post := telegram.Update{ChannelPost: &telegram.Message{
		Chat: &telegram.Chat{ID: adminChannelID, Type: "channel"},
		Text: "/find @abebe",
	}}
	f.router.HandleUpdate(context.Background(), post)

	msgs := f.transport.messagesTo(adminChannelID)
	if len(msgs) == 0 {
		t.Fatal("expected a reply in the admin channel")
	}
	reply := msgs[len(msgs)-1].text
	if !strings.Contains(reply, "100") || !strings.Contains(reply, orderID) {
		t.Fatalf("reply must name the user id and latest order, got %q", reply)
	}

	f.router.HandleUpdate(context.Background(), telegram.Update{ChannelPost: &telegram.Message{
		Chat: &telegram.Chat{ID: adminChannelID, Type: "channel"},
		Text: "/find @ghost",
	}})
	msgs = f.transport.messagesTo(adminChannelID)
	if !strings.Contains(msgs[len(msgs)-1].text, "Could not resolve") {
		t.Fatal("unresolvable handle must be reported to the admin")
	}
}
