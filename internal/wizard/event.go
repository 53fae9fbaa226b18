package wizard

import "cvbot_backend/internal/i18n"

// EventKind classifies an inbound conversational event.
type EventKind int

const (
	EventText EventKind = iota
	EventMedia
	EventAction
)

// Media describes an uploaded photo or document.
type Media struct {
	FileID   string
	MimeType string
	FileName string
	Size     int64
	IsPhoto  bool
}

// Event is one inbound step of the conversation.
type Event struct {
	Kind   EventKind
	Text   string
	Action string // callback token for EventAction
	Media  *Media

	// HasProfile tells the menu whether "update my profile" has anything
	// to load. The engine itself never touches storage.
	HasProfile bool
}

// Action tokens the engine understands. The dispatch layer maps raw
// callback data onto these.
const (
	ActionLangEN        = "lang_en"
	ActionLangAM        = "lang_am"
	ActionNewCV         = "new_cv"
	ActionUpdateProfile = "update_profile"
	ActionGuideVideo    = "guide_video"
	ActionSamples       = "samples"
	ActionImageContinue = "img_continue"
	ActionAddAnother    = "add_another"
	ActionContinue      = "continue"
	ActionConfirm       = "confirm_order"
	ActionEditRestart   = "edit_restart"
	ActionEditPersonal  = "edit_personal"
	ActionEditContact   = "edit_contact"
	ActionEditImage     = "edit_image"
	ActionEditWork      = "edit_work"
	ActionEditEducation = "edit_education"
	ActionEditSkills    = "edit_skills"
	ActionEditCareer    = "edit_career"
	ActionEditCerts     = "edit_certs"
	ActionEditProjects  = "edit_projects"
	ActionEditLanguages = "edit_languages"
	ActionEditActivity  = "edit_activities"
)

// KeyboardKind names the inline keyboard attached to a prompt. The dispatch
// layer renders it in the session's language.
type KeyboardKind int

const (
	KbNone KeyboardKind = iota
	KbLanguage
	KbMainMenu
	KbContinue
	KbAddAnother
	KbConfirmEdit
	KbEditMenu
)

// Command asks the dispatch layer to perform a side effect the engine cannot
// do itself.
type Command int

const (
	CmdNone Command = iota
	CmdPersistAndOrder // save the profile and open a payment order
	CmdSubmitEvidence  // forward payment evidence carried in FileRef
	CmdSendTutorial
	CmdSendSamples
	CmdLoadProfile // load the stored profile into the session draft
)

// Effect is one outbound consequence of advancing the conversation.
type Effect struct {
	Prompt   i18n.Key
	Args     []any
	Keyboard KeyboardKind
	Summary  bool // render the accumulated profile instead of a catalogue prompt
	Command  Command
	FileRef  string
}

func prompt(key i18n.Key) Effect {
	return Effect{Prompt: key}
}

func promptKb(key i18n.Key, kb KeyboardKind) Effect {
	return Effect{Prompt: key, Keyboard: kb}
}
