package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"thumb-forge-ai/internal/gemini"
	"thumb-forge-ai/internal/mediagroup"
	"thumb-forge-ai/internal/session"
	"thumb-forge-ai/internal/telegram"
	"thumb-forge-ai/internal/thumb"
)

type Options struct {
	Telegram *telegram.Client
	Pipeline *thumb.Pipeline
	Sessions *session.Store
	Logger   *slog.Logger
}

type Handler struct {
	tg         *telegram.Client
	pipe       *thumb.Pipeline
	sessions   *session.Store
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tg:       opts.Telegram,
		pipe:     opts.Pipeline,
		sessions: opts.Sessions,
		logger:   logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}

	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		return h.handleCommand(chatID, userID, msg)
	}

	if len(msg.Photo) > 0 {
		return h.handlePhoto(chatID, userID, msg)
	}

	if msg.Text != "" {
		return h.handleText(chatID, userID, msg.Text)
	}

	return nil
}

// HandleMediaGroup assigns the album's photos to the free wizard slots in
// arrival order: person, then reference, then extra asset.
func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	var assigned []string
	h.sessions.Update(group.ChatID, group.UserID, func(w *session.Wizard) {
		for _, fileID := range group.FileIDs {
			if slot := w.AssignPhoto(fileID); slot != "" {
				assigned = append(assigned, slotLabel(slot))
			}
		}
	})

	if len(assigned) == 0 {
		_ = h.tg.SendText(group.ChatID, "⚠️ Todas as imagens do wizard já estão preenchidas. Use Reset para recomeçar.")
		return
	}

	_ = h.tg.SendText(group.ChatID, "📷 Fotos recebidas: "+strings.Join(assigned, ", ")+".")
	if err := h.renderWizardUI(group.ChatID, group.UserID, 0, true); err != nil {
		h.logger.Error("wizard render failed", "err", err)
	}
}

func (h *Handler) handleCommand(chatID, userID int64, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return h.tg.SendText(chatID,
			"🎬 Gerador de Thumb\n\n"+
				"Eu crio thumbnails virais de YouTube a partir da sua foto, "+
				"de uma referência opcional e do objetivo do vídeo.\n\n"+
				"Comandos:\n"+
				"/thumb - Abrir o wizard de criação\n"+
				"/cancel - Cancelar a entrada atual\n"+
				"/help - Ajuda",
		)
	case "help":
		return h.tg.SendText(chatID,
			"🎬 Como funciona\n\n"+
				"1. /thumb abre o wizard.\n"+
				"2. Escolha o objetivo e o nível de semelhança com a referência.\n"+
				"3. Envie as fotos: protagonista, referência (opcional) e um elemento extra (opcional). "+
				"Pode mandar como álbum: a ordem define os papéis.\n"+
				"4. Gerar: você recebe a imagem sem texto e os títulos como camada editável.",
		)
	case "cancel":
		h.sessions.Update(chatID, userID, func(w *session.Wizard) {
			w.AwaitingBrief = false
			w.Menu = "main"
		})
		return h.tg.SendText(chatID, "✅ Entrada cancelada.")
	case "thumb":
		return h.startWizard(chatID, userID, msg.CommandArguments())
	default:
		return h.tg.SendText(chatID, "❌ Comando desconhecido. Use /help.")
	}
}

func (h *Handler) handleText(chatID, userID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	st := h.sessions.Get(chatID, userID)
	if !st.AwaitingBrief {
		return h.tg.SendText(chatID, "Use /thumb para criar uma thumbnail.")
	}

	h.sessions.Update(chatID, userID, func(w *session.Wizard) {
		w.Brief = text
		w.AwaitingBrief = false
	})
	return h.renderWizardUI(chatID, userID, 0, true)
}

func (h *Handler) handlePhoto(chatID, userID int64, msg *tgbotapi.Message) error {
	photo := msg.Photo[len(msg.Photo)-1]

	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			Username:     msg.From.UserName,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       photo.FileID,
		})
		return nil
	}

	var slot string
	h.sessions.Update(chatID, userID, func(w *session.Wizard) {
		slot = w.AssignPhoto(photo.FileID)
	})

	if slot == "" {
		return h.tg.SendText(chatID, "⚠️ As três imagens já estão definidas. Use Reset para recomeçar.")
	}

	_ = h.tg.SendText(chatID, "📷 Foto registrada como "+slotLabel(slot)+".")
	return h.renderWizardUI(chatID, userID, 0, true)
}

func (h *Handler) generateFromWizard(ctx context.Context, chatID, userID int64) error {
	st := h.sessions.Get(chatID, userID)

	personID, referenceID, extraID := st.PhotoSlots()
	if strings.TrimSpace(st.Brief) == "" && personID == "" && referenceID == "" {
		return h.tg.SendText(chatID, "⚠️ Envie pelo menos uma instrução ou uma foto antes de gerar.")
	}

	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, "🎨 Gerando a thumbnail, isso leva alguns segundos...")

	req := thumb.Request{
		Objective:  st.Objective,
		Brief:      st.Brief,
		Similarity: st.Similarity,
	}

	type slotDownload struct {
		fileID string
		dest   **gemini.ImageInput
	}
	slots := []slotDownload{
		{personID, &req.Person},
		{referenceID, &req.Reference},
		{extraID, &req.Extra},
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, s := range slots {
		if s.fileID == "" {
			continue
		}
		s := s
		eg.Go(func() error {
			data, mimeType, err := h.tg.DownloadFile(egCtx, s.fileID)
			if err != nil {
				return err
			}
			*s.dest = &gemini.ImageInput{Data: data, MimeType: mimeType}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("photo download failed", "err", err)
		return h.tg.SendText(chatID, "❌ Não consegui baixar as fotos. Tente novamente.")
	}

	result, err := h.pipe.Generate(ctx, req)
	if err != nil {
		h.logger.Error("thumbnail generation failed", "err", err)

		var se *gemini.SynthesisError
		if errors.As(err, &se) {
			return h.tg.SendText(chatID, "❌ A geração da imagem falhou: "+se.Error())
		}
		return h.tg.SendText(chatID, "❌ Erro ao gerar a thumbnail. Tente novamente.")
	}

	if err := h.tg.SendPhotoBytes(chatID, result.Image, "image/jpeg", resultCaption(st, result)); err != nil {
		return err
	}

	if len(result.Elements) > 0 {
		_ = h.tg.SendText(chatID, overlaySummary(result.Elements))
	}
	return nil
}

func resultCaption(st session.Wizard, result thumb.Result) string {
	caption := fmt.Sprintf("✅ Pronta! objetivo=%s, semelhança=%d%%", st.Objective, thumb.ClampSimilarity(st.Similarity))
	if !result.Analysis.Empty() {
		caption += ", referência analisada"
	}
	return caption
}

// overlaySummary lists the editable text layer, since Telegram delivers the
// background image and the overlay separately.
func overlaySummary(elements []thumb.TextElement) string {
	var b strings.Builder
	b.WriteString("📝 Textos da camada editável:\n")
	for _, el := range elements {
		b.WriteString(fmt.Sprintf("• %q — %s %.0fpx em (%.0f, %.0f)\n", el.Text, el.FontFamily, el.FontSize, el.X, el.Y))
	}
	return strings.TrimSpace(b.String())
}

func slotLabel(slot string) string {
	switch slot {
	case "person":
		return "protagonista"
	case "reference":
		return "referência"
	case "extra":
		return "elemento extra"
	}
	return slot
}
