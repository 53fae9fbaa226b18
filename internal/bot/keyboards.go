package bot

import (
	"cvbot_backend/internal/i18n"
	"cvbot_backend/internal/telegram"
	"cvbot_backend/internal/wizard"
)

// renderKeyboard materializes the keyboard kind an engine effect names, in
// the session's language.
func renderKeyboard(lang i18n.Lang, kind wizard.KeyboardKind) *telegram.InlineKeyboardMarkup {
	switch kind {
	case wizard.KbLanguage:
		return telegram.Keyboard(
			telegram.Row(telegram.Button("English", wizard.ActionLangEN)),
			telegram.Row(telegram.Button("አማርኛ", wizard.ActionLangAM)),
		)
	case wizard.KbMainMenu:
		return telegram.Keyboard(
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeyCreateNewCV), wizard.ActionNewCV)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeyUpdateProfile), wizard.ActionUpdateProfile)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeyGuideVideo), wizard.ActionGuideVideo)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySamples), wizard.ActionSamples)),
		)
	case wizard.KbContinue:
		return telegram.Keyboard(
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeyContinue), wizard.ActionImageContinue)),
		)
	case wizard.KbAddAnother:
		return telegram.Keyboard(
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeyAddAnother), wizard.ActionAddAnother)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeyContinue), wizard.ActionContinue)),
		)
	case wizard.KbConfirmEdit:
		return telegram.Keyboard(
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeyConfirm), wizard.ActionConfirm)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeyEdit), wizard.ActionEditRestart)),
		)
	case wizard.KbEditMenu:
		return telegram.Keyboard(
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySectionPersonal), wizard.ActionEditPersonal)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySectionContact), wizard.ActionEditContact)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySectionImage), wizard.ActionEditImage)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySectionWork), wizard.ActionEditWork)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySectionEducation), wizard.ActionEditEducation)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySectionSkills), wizard.ActionEditSkills)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySectionCareer), wizard.ActionEditCareer)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySectionCerts), wizard.ActionEditCerts)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySectionProjects), wizard.ActionEditProjects)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySectionLanguages), wizard.ActionEditLanguages)),
			telegram.Row(telegram.Button(i18n.T(lang, i18n.KeySectionActivities), wizard.ActionEditActivity)),
		)
	default:
		return nil
	}
}

// decisionKeyboard builds the approve/reject buttons attached to forwarded
// payment evidence.
func decisionKeyboard(ownerID int64, orderID string) *telegram.InlineKeyboardMarkup {
	return telegram.Keyboard(
		telegram.Row(
			telegram.Button("✅ Approve", encodeDecisionToken(decisionApprove, ownerID, orderID)),
			telegram.Button("❌ Reject", encodeDecisionToken(decisionReject, ownerID, orderID)),
		),
	)
}
