// Package bot routes inbound Telegram updates: private chats drive the
// profile wizard, the admin channel drives order decisions, and callback
// buttons serve both. Each update is handled to completion before the next,
// so the only concurrency the session state sees is the background
// reconciler.
package bot

import (
	"context"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"cvbot_backend/internal/i18n"
	"cvbot_backend/internal/notify"
	"cvbot_backend/internal/orders"
	"cvbot_backend/internal/profile"
	"cvbot_backend/internal/session"
	"cvbot_backend/internal/telegram"
	"cvbot_backend/internal/wizard"
	"cvbot_backend/platform/apperr"
	"cvbot_backend/platform/logger"
)

// Transport is the outbound slice of the Telegram client the router uses.
type Transport interface {
	notify.Sender
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string, keyboard *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
	SendDocument(ctx context.Context, chatID int64, fileID, caption string, keyboard *telegram.InlineKeyboardMarkup) (*telegram.Message, error)
	SendVideo(ctx context.Context, chatID int64, fileID, caption string) error
	SendPhotoBytes(ctx context.Context, chatID int64, filename string, data []byte, caption string) error
	EditMessageCaption(ctx context.Context, chatID, messageID int64, caption string) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
	GetFile(ctx context.Context, fileID string) (*telegram.File, error)
	DownloadFile(ctx context.Context, filePath string) ([]byte, error)
}

// ProfileStore is the persistence the router needs for profiles.
type ProfileStore interface {
	Save(ctx context.Context, p *profile.Profile) error
	GetByTelegramUserID(ctx context.Context, userID int64) (*profile.Profile, error)
}

// Resolver maps a @username to a Telegram user id.
type Resolver interface {
	Resolve(ctx context.Context, username string) (int64, error)
}

// EvidenceArchiver optionally copies evidence files into object storage.
type EvidenceArchiver interface {
	Enabled() bool
	Archive(ctx context.Context, orderID string, data []byte, contentType string) (string, error)
}

type RouterConfig struct {
	AdminChannelID       int64
	PaymentAccount       string
	PaymentQREnabled     bool
	TutorialVideoFileID  string
	TutorialVideoCaption string
	SampleFileIDs        []string
	SampleCaptions       []string
}

type Router struct {
	cfg        RouterConfig
	transport  Transport
	sessions   *session.Store
	engine     *wizard.Engine
	orders     *orders.Service
	profiles   ProfileStore
	dispatcher *notify.Dispatcher
	resolver   Resolver
	evidence   EvidenceArchiver
	log        *logger.Logger
}

func NewRouter(
	cfg RouterConfig,
	transport Transport,
	sessions *session.Store,
	engine *wizard.Engine,
	orderService *orders.Service,
	profiles ProfileStore,
	dispatcher *notify.Dispatcher,
	resolver Resolver,
	evidence EvidenceArchiver,
	log *logger.Logger,
) *Router {
	return &Router{
		cfg:        cfg,
		transport:  transport,
		sessions:   sessions,
		engine:     engine,
		orders:     orderService,
		profiles:   profiles,
		dispatcher: dispatcher,
		resolver:   resolver,
		evidence:   evidence,
		log:        log,
	}
}

// HandleUpdate is the single entry point for the poller.
func (r *Router) HandleUpdate(ctx context.Context, u telegram.Update) {
	switch {
	case u.CallbackQuery != nil:
		r.handleCallback(ctx, u.CallbackQuery)
	case u.ChannelPost != nil && u.ChannelPost.Chat != nil && u.ChannelPost.Chat.ID == r.cfg.AdminChannelID:
		r.handleAdminMessage(ctx, u.ChannelPost)
	case u.Message != nil && u.Message.Chat != nil && u.Message.Chat.ID == r.cfg.AdminChannelID:
		r.handleAdminMessage(ctx, u.Message)
	case u.Message != nil && u.Message.Chat != nil && u.Message.Chat.Type == "private":
		r.handleUserMessage(ctx, u.Message)
	}
}

func (r *Router) handleUserMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	sess := r.sessions.Get(msg.From.ID)
	sess.Lock()
	defer sess.Unlock()
	sess.ChatID = msg.Chat.ID

	if cmd := commandOf(msg.Text); cmd != "" {
		r.handleCommand(ctx, sess, cmd)
		return
	}

	ev := wizard.Event{Kind: wizard.EventText, Text: msg.Text}
	if media := mediaOf(msg); media != nil {
		ev = wizard.Event{Kind: wizard.EventMedia, Media: media}
	}
	r.advance(ctx, sess, ev)
}

func commandOf(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	// Commands may arrive as /start@botname in groups.
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	return cmd
}

func mediaOf(msg *telegram.Message) *wizard.Media {
	if len(msg.Photo) > 0 {
		// The last size is the largest rendition.
		best := msg.Photo[len(msg.Photo)-1]
		return &wizard.Media{FileID: best.FileID, Size: best.FileSize, IsPhoto: true}
	}
	if msg.Document != nil {
		return &wizard.Media{
			FileID:   msg.Document.FileID,
			MimeType: msg.Document.MimeType,
			FileName: msg.Document.FileName,
			Size:     msg.Document.FileSize,
		}
	}
	return nil
}

func (r *Router) handleCommand(ctx context.Context, sess *session.Session, cmd string) {
	switch cmd {
	case "/start":
		r.apply(ctx, sess, r.engine.Start(sess))
	case "/help":
		r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeyHelp), nil)
	case "/cancel":
		sess.ResetFlow()
		r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeyCancel), nil)
	case "/payment":
		r.handlePaymentRetry(ctx, sess)
	default:
		r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeyHelp), nil)
	}
}

// handlePaymentRetry reopens a rejected order so the user can submit a new
// receipt.
func (r *Router) handlePaymentRetry(ctx context.Context, sess *session.Session) {
	o, err := r.orders.RetryPayment(ctx, sess.UserID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeyNoRejectedPayment), nil)
			return
		}
		r.log.WithUser(sess.UserID).Error("payment retry failed", "error", err)
		r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeyError), nil)
		return
	}
	sess.ActiveOrderID = o.ID
	sess.Notified = false
	sess.Phase = session.PhaseAwaitingEvidence
	r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeyPaymentRetryInstr), nil)
}

func (r *Router) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if err := r.transport.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		r.log.TransportError("answerCallbackQuery", 0, err)
	}
	if cb.From == nil {
		return
	}

	if token, ok := decodeDecisionToken(cb.Data); ok {
		r.handleDecision(ctx, token, cb.Message)
		return
	}
	if strings.HasPrefix(cb.Data, "approve_") || strings.HasPrefix(cb.Data, "reject_") {
		r.log.Warn("malformed decision token ignored", "data", cb.Data)
		return
	}

	sess := r.sessions.Get(cb.From.ID)
	sess.Lock()
	defer sess.Unlock()
	if cb.Message != nil && cb.Message.Chat != nil {
		sess.ChatID = cb.Message.Chat.ID
	}
	r.advance(ctx, sess, wizard.Event{
		Kind:       wizard.EventAction,
		Action:     cb.Data,
		HasProfile: r.hasProfile(ctx, sess),
	})
}

// hasProfile is only consulted on menu transitions, so one lookup per menu
// interaction is fine.
func (r *Router) hasProfile(ctx context.Context, sess *session.Session) bool {
	if sess.Phase != session.PhaseLanguage && sess.Phase != session.PhaseMenu {
		return false
	}
	_, err := r.profiles.GetByTelegramUserID(ctx, sess.UserID)
	return err == nil
}

// advance feeds one event to the engine and applies the effects. The caller
// holds the session lock.
func (r *Router) advance(ctx context.Context, sess *session.Session, ev wizard.Event) {
	r.apply(ctx, sess, r.engine.Advance(sess, ev))
}

func (r *Router) apply(ctx context.Context, sess *session.Session, effects []wizard.Effect) {
	for _, fx := range effects {
		switch fx.Command {
		case wizard.CmdPersistAndOrder:
			r.persistAndOrder(ctx, sess)
			continue
		case wizard.CmdSubmitEvidence:
			r.submitEvidence(ctx, sess, fx.FileRef)
			continue
		case wizard.CmdSendTutorial:
			r.sendTutorial(ctx, sess)
		case wizard.CmdSendSamples:
			r.sendSamples(ctx, sess)
		case wizard.CmdLoadProfile:
			r.loadProfile(ctx, sess)
		}

		if fx.Summary {
			r.send(ctx, sess, wizard.RenderSummary(sess.Lang, sess.Draft()), renderKeyboard(sess.Lang, fx.Keyboard))
			continue
		}
		if fx.Prompt != "" {
			r.send(ctx, sess, i18n.Tf(sess.Lang, fx.Prompt, fx.Args...), renderKeyboard(sess.Lang, fx.Keyboard))
		}
	}
}

func (r *Router) send(ctx context.Context, sess *session.Session, text string, kb *telegram.InlineKeyboardMarkup) {
	if _, err := r.transport.SendMessage(ctx, sess.ChatID, text, kb); err != nil {
		r.log.TransportError("sendMessage", sess.ChatID, err)
	}
}

// persistAndOrder saves the confirmed profile, opens the payment order and
// sends the payment instructions. Persistence failures roll the session back
// to the summary so confirm can be retried.
func (r *Router) persistAndOrder(ctx context.Context, sess *session.Session) {
	p := sess.Draft()
	if err := r.profiles.Save(ctx, p); err != nil {
		r.log.DatabaseError("save profile", err)
		sess.Phase = session.PhaseSummary
		r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeyError), nil)
		return
	}

	o, err := r.orders.Create(ctx, p.ID, sess.UserID)
	if err != nil {
		r.log.DatabaseError("create order", err)
		sess.Phase = session.PhaseSummary
		r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeyError), nil)
		return
	}
	sess.ActiveOrderID = o.ID
	sess.Notified = false
	r.log.WithUser(sess.UserID).WithOrder(o.ID).Info("order created")

	text := i18n.T(sess.Lang, i18n.KeyPaymentInstr)
	if r.cfg.PaymentAccount != "" {
		text += "\n\n<code>" + r.cfg.PaymentAccount + "</code>"
	}
	r.send(ctx, sess, text, nil)

	if r.cfg.PaymentQREnabled && r.cfg.PaymentAccount != "" {
		png, err := qrcode.Encode(r.cfg.PaymentAccount, qrcode.Medium, 256)
		if err != nil {
			r.log.Error("payment qr encode failed", "error", err)
			return
		}
		if err := r.transport.SendPhotoBytes(ctx, sess.ChatID, "payment.png", png, r.cfg.PaymentAccount); err != nil {
			r.log.TransportError("sendPhoto", sess.ChatID, err)
		}
	}
}

// submitEvidence records the receipt, forwards it to the admin channel with
// decision buttons, and optionally archives a copy.
func (r *Router) submitEvidence(ctx context.Context, sess *session.Session, fileRef string) {
	if sess.ActiveOrderID == "" {
		r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeyError), nil)
		return
	}

	o, err := r.orders.SubmitEvidence(ctx, sess.ActiveOrderID, fileRef)
	if err != nil {
		r.log.WithOrder(sess.ActiveOrderID).Error("evidence submission failed", "error", err)
		r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeyError), nil)
		return
	}

	caption := "New payment receipt\n" +
		orderIDCaptionPrefix + o.ID + "\n" +
		"User: " + sess.Draft().FullName()
	if _, err := r.transport.SendPhoto(ctx, r.cfg.AdminChannelID, fileRef, caption, decisionKeyboard(sess.UserID, o.ID)); err != nil {
		r.log.TransportError("sendPhoto", r.cfg.AdminChannelID, err)
	}

	r.archiveEvidence(ctx, o.ID, fileRef)
	r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeyPaymentReceived), nil)
}

func (r *Router) archiveEvidence(ctx context.Context, orderID, fileRef string) {
	if r.evidence == nil || !r.evidence.Enabled() {
		return
	}
	f, err := r.transport.GetFile(ctx, fileRef)
	if err != nil {
		r.log.WithOrder(orderID).Warn("evidence download skipped", "error", err)
		return
	}
	data, err := r.transport.DownloadFile(ctx, f.FilePath)
	if err != nil {
		r.log.WithOrder(orderID).Warn("evidence download failed", "error", err)
		return
	}
	if _, err := r.evidence.Archive(ctx, orderID, data, ""); err != nil {
		r.log.WithOrder(orderID).Warn("evidence archive failed", "error", err)
	}
}

func (r *Router) sendTutorial(ctx context.Context, sess *session.Session) {
	if r.cfg.TutorialVideoFileID == "" {
		return
	}
	caption := r.cfg.TutorialVideoCaption
	if caption == "" {
		caption = i18n.T(sess.Lang, i18n.KeyTutorialCaption)
	}
	if err := r.transport.SendVideo(ctx, sess.ChatID, r.cfg.TutorialVideoFileID, caption); err != nil {
		r.log.TransportError("sendVideo", sess.ChatID, err)
	}
}

func (r *Router) sendSamples(ctx context.Context, sess *session.Session) {
	if len(r.cfg.SampleFileIDs) == 0 {
		return
	}
	r.send(ctx, sess, i18n.T(sess.Lang, i18n.KeySendingSamples), nil)
	for i, fileID := range r.cfg.SampleFileIDs {
		caption := ""
		if i < len(r.cfg.SampleCaptions) {
			caption = r.cfg.SampleCaptions[i]
		}
		if _, err := r.transport.SendDocument(ctx, sess.ChatID, fileID, caption, nil); err != nil {
			r.log.TransportError("sendDocument", sess.ChatID, err)
		}
	}
}

func (r *Router) loadProfile(ctx context.Context, sess *session.Session) {
	p, err := r.profiles.GetByTelegramUserID(ctx, sess.UserID)
	if err != nil {
		r.log.WithUser(sess.UserID).Error("profile load failed", "error", err)
		return
	}
	sess.Profile = p
}

// handleDecision applies an approve/reject button press from the admin
// channel and notifies the order owner.
func (r *Router) handleDecision(ctx context.Context, token decisionToken, msg *telegram.Message) {
	var (
		o   *orders.Order
		err error
	)
	switch token.Decision {
	case decisionApprove:
		o, err = r.orders.Approve(ctx, token.OrderID)
	case decisionReject:
		o, err = r.orders.Reject(ctx, token.OrderID, defaultRejectReason)
	}
	r.finishDecision(ctx, token.OrderID, token.OwnerID, o, err, msg)
}

// handleAdminMessage applies the free-text decision grammar to replies in
// the admin channel. Non-decision chatter and replies to foreign messages
// are ignored silently.
func (r *Router) handleAdminMessage(ctx context.Context, msg *telegram.Message) {
	if msg.ReplyTo == nil {
		r.handleAdminCommand(ctx, msg)
		return
	}

	d, reason, ok := parseAdminReply(msg.Text)
	if !ok {
		return
	}
	orderID, ok := extractOrderID(msg.ReplyTo.Caption)
	if !ok {
		r.log.Warn("admin reply without order reference ignored")
		return
	}

	var (
		o   *orders.Order
		err error
	)
	switch d {
	case decisionApprove:
		o, err = r.orders.Approve(ctx, orderID)
	case decisionReject:
		o, err = r.orders.Reject(ctx, orderID, reason)
	}

	ownerID := int64(0)
	if o != nil {
		ownerID = o.TelegramUserID
	}
	r.finishDecision(ctx, orderID, ownerID, o, err, msg.ReplyTo)
}

// handleAdminCommand serves channel utilities, currently the /find lookup
// that resolves a @username to an id and the latest order status.
func (r *Router) handleAdminCommand(ctx context.Context, msg *telegram.Message) {
	fields := strings.Fields(msg.Text)
	if len(fields) != 2 || fields[0] != "/find" {
		return
	}

	userID, err := r.resolver.Resolve(ctx, fields[1])
	if err != nil {
		r.adminReply(ctx, "Could not resolve "+fields[1])
		return
	}

	reply := fields[1] + " is user " + strconv.FormatInt(userID, 10)
	if o, err := r.orders.LatestOrderByOwner(ctx, userID); err == nil {
		reply += "\nLatest order " + o.ID + ": " + string(o.Status)
	}
	r.adminReply(ctx, reply)
}

func (r *Router) adminReply(ctx context.Context, text string) {
	if _, err := r.transport.SendMessage(ctx, r.cfg.AdminChannelID, text, nil); err != nil {
		r.log.TransportError("sendMessage", r.cfg.AdminChannelID, err)
	}
}

// finishDecision logs the outcome, updates the evidence caption and runs the
// at-most-once notification.
func (r *Router) finishDecision(ctx context.Context, orderID string, ownerID int64, o *orders.Order, err error, evidenceMsg *telegram.Message) {
	if err != nil {
		if apperr.Is(err, apperr.KindInvalidTransition) {
			// A second decision on the same order is a no-op for the admin.
			r.log.WithOrder(orderID).Warn("decision on already-decided order ignored")
			return
		}
		r.log.WithOrder(orderID).Error("order decision failed", "error", err)
		return
	}

	decided := "approved"
	if o.Status == orders.StatusRejected {
		decided = "rejected"
	}
	r.log.AdminDecision(decided, o.ID, evidenceMsg != nil)

	if evidenceMsg != nil && evidenceMsg.Chat != nil {
		caption := evidenceMsg.Caption + "\n\nDecision: " + decided
		if o.StatusReason != nil {
			caption += " (" + *o.StatusReason + ")"
		}
		if err := r.transport.EditMessageCaption(ctx, evidenceMsg.Chat.ID, evidenceMsg.MessageID, caption); err != nil {
			r.log.TransportError("editMessageCaption", evidenceMsg.Chat.ID, err)
		}
	}

	if ownerID == 0 {
		ownerID = o.TelegramUserID
	}
	sess := r.sessions.Get(ownerID)
	sess.Lock()
	// After a restart the session is empty; rebind it to the decided order
	// so the owner still gets exactly one notification.
	if sess.ChatID == 0 {
		sess.ChatID = ownerID
	}
	if sess.ActiveOrderID == "" {
		sess.ActiveOrderID = o.ID
	}
	sess.Unlock()

	r.dispatcher.TryNotify(ctx, sess, o)
}
