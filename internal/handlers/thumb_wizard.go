package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"thumb-forge-ai/internal/session"
	"thumb-forge-ai/internal/thumb"
)

const wizardCallbackPrefix = "tw"

var similarityPresets = []int{10, 30, 60, 90}

func (h *Handler) startWizard(chatID, userID int64, args string) error {
	brief := strings.TrimSpace(args)

	st := h.sessions.Update(chatID, userID, func(w *session.Wizard) {
		if brief != "" {
			w.Brief = brief
		}
		w.AwaitingBrief = false
		w.Menu = "main"
	})

	msgID, err := h.tg.SendTextWithKeyboard(chatID, wizardText(st), wizardKeyboard(userID, st))
	if err != nil {
		return err
	}
	h.sessions.Update(chatID, userID, func(w *session.Wizard) { w.MessageID = msgID })
	return nil
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil {
		return nil
	}
	data := strings.TrimSpace(q.Data)
	if !strings.HasPrefix(data, wizardCallbackPrefix+":") {
		return nil
	}

	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return nil
	}

	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "Este menu não é seu.", true)
		return nil
	}

	action := parts[2]
	args := parts[3:]
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID

	h.sessions.Update(chatID, ownerID, func(w *session.Wizard) {
		w.MessageID = msgID

		switch action {
		case "menu":
			if len(args) >= 1 {
				w.Menu = args[0]
			}
		case "obj":
			if len(args) >= 1 {
				w.Objective = args[0]
				w.Menu = "main"
			}
		case "sim":
			if len(args) >= 1 {
				if v, err := strconv.Atoi(args[0]); err == nil {
					w.Similarity = thumb.ClampSimilarity(v)
				}
				w.Menu = "main"
			}
		case "brief":
			w.AwaitingBrief = true
			w.Menu = "main"
		case "photos_clear":
			w.PersonFileID = ""
			w.ReferenceFileID = ""
			w.ExtraFileID = ""
			w.Menu = "main"
		case "reset":
			msgID := w.MessageID
			*w = session.Wizard{Objective: "promessa", Similarity: 60, Menu: "main"}
			w.MessageID = msgID
		case "close":
			w.AwaitingBrief = false
			w.Menu = "main"
		}
	})

	switch action {
	case "brief":
		_ = h.tg.AnswerCallback(q.ID, "Envie a instrução (cancelar: /cancel).", false)
		_ = h.tg.SendText(chatID, "📝 Envie a instrução do vídeo (cancelar: /cancel).")
	case "generate":
		_ = h.tg.AnswerCallback(q.ID, "Gerando…", false)
		if err := h.generateFromWizard(ctx, chatID, ownerID); err != nil {
			return err
		}
	default:
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
	}

	return h.renderWizardUI(chatID, ownerID, msgID, true)
}

func (h *Handler) renderWizardUI(chatID, userID int64, messageID int, edit bool) error {
	st := h.sessions.Get(chatID, userID)
	if messageID == 0 {
		messageID = st.MessageID
	}

	text := wizardText(st)
	kb := wizardKeyboard(userID, st)

	if edit && messageID != 0 {
		if err := h.tg.EditTextWithKeyboard(chatID, messageID, text, kb); err == nil {
			return nil
		}
	}

	msgID, err := h.tg.SendTextWithKeyboard(chatID, text, kb)
	if err != nil {
		return err
	}
	h.sessions.Update(chatID, userID, func(w *session.Wizard) { w.MessageID = msgID })
	return nil
}

func wizardText(st session.Wizard) string {
	var b strings.Builder
	b.WriteString("🎬 Gerador de Thumb\n\n")
	b.WriteString("Objetivo: " + st.Objective + "\n")
	b.WriteString(fmt.Sprintf("Semelhança com a referência: %d%%\n", thumb.ClampSimilarity(st.Similarity)))

	if strings.TrimSpace(st.Brief) != "" {
		b.WriteString("Instrução: " + truncateLine(st.Brief, 80) + "\n")
	} else {
		b.WriteString("Instrução: (nenhuma)\n")
	}

	b.WriteString("Fotos: protagonista " + photoMark(st.PersonFileID))
	b.WriteString(" | referência " + photoMark(st.ReferenceFileID))
	b.WriteString(" | extra " + photoMark(st.ExtraFileID) + "\n")

	if st.AwaitingBrief {
		b.WriteString("\n📝 Agora envie a instrução do vídeo (cancelar: /cancel).\n")
	} else {
		b.WriteString("\n📷 Envie fotos a qualquer momento: a ordem define protagonista → referência → extra.\n")
	}

	if st.Menu == "objective" {
		b.WriteString("\nObjetivos:\n")
		for _, o := range thumb.Objectives() {
			b.WriteString("• " + o.Tag + ": " + truncateLine(o.Guidance, 60) + "\n")
		}
	}

	return strings.TrimSpace(b.String())
}

func wizardKeyboard(ownerID int64, st session.Wizard) tgbotapi.InlineKeyboardMarkup {
	switch st.Menu {
	case "objective":
		return objectiveKeyboard(ownerID, st)
	case "similarity":
		return similarityKeyboard(ownerID, st)
	default:
		return mainKeyboard(ownerID)
	}
}

func mainKeyboard(ownerID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Objetivo", cb(ownerID, "menu", "objective")),
			tgbotapi.NewInlineKeyboardButtonData("Semelhança", cb(ownerID, "menu", "similarity")),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("📝 Instrução", cb(ownerID, "brief")),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Fotos", cb(ownerID, "photos_clear")),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🎨 Gerar", cb(ownerID, "generate")),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Reset", cb(ownerID, "reset")),
			tgbotapi.NewInlineKeyboardButtonData("Fechar", cb(ownerID, "close")),
		},
	)
}

func objectiveKeyboard(ownerID int64, st session.Wizard) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, o := range thumb.Objectives() {
		label := o.Tag
		if o.Tag == st.Objective {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "obj", o.Tag)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅ Voltar", cb(ownerID, "menu", "main")),
	})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func similarityKeyboard(ownerID int64, st session.Wizard) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, v := range similarityPresets {
		label := fmt.Sprintf("%d%%", v)
		if st.Similarity == v {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "sim", strconv.Itoa(v))))
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		row,
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("⬅ Voltar", cb(ownerID, "menu", "main")),
		},
	)
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", wizardCallbackPrefix, ownerID, strings.Join(parts, ":"))
}

func photoMark(fileID string) string {
	if strings.TrimSpace(fileID) == "" {
		return "—"
	}
	return "✅"
}

func truncateLine(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
