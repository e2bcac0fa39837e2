package training

import (
	"fmt"
	"strings"

	"speech-training-service/internal/models"
)

// Learner-facing texts.
const (
	textWords         = "Fale as seguintes palavras:"
	textAwaitingAudio = "Estou ouvindo... Grave o áudio com as palavras quando estiver pronto!"
	textNextRound     = "Ótimo! Vamos para a próxima rodada..."
	textResume        = "Ei, você tem uma sessão em andamento! Vamos continuar de onde paramos?"
	textStillWorking  = "Ainda estou analisando seu último áudio. Aguarde um instante!"
	textCancelled     = "Sessão cancelada. Até a próxima!"
	textAudioReceived = "[áudio enviado]"
	textCancelledLog  = "Sessão cancelada pelo usuário"
)

var cycleInstructions = []string{
	"Vamos começar! Vou te mostrar %d palavras. Fale cada uma delas com calma, ok?",
	"Muito bem! Agora vamos para a próxima rodada. Lembre-se: respire fundo e fale devagar!",
	"Última rodada! Você está indo super bem! Vamos lá, concentre-se nessas últimas palavras!",
}

func greetingText(name string) string {
	hello := "Olá"
	if name != "" {
		hello += ", " + name
	}
	return hello + "! Que bom ter você aqui para mais uma sessão de treino. " +
		"Vamos praticar juntos? Preparei algumas palavras especiais para você hoje!"
}

// instructionText picks the first-round text for cycle 1, the last-round text
// for the final cycle and the middle text otherwise.
func instructionText(s *models.Session, cycle int) string {
	switch {
	case cycle <= 1:
		return fmt.Sprintf(cycleInstructions[0], s.WordsPerCycle)
	case cycle >= s.TotalCycles:
		return cycleInstructions[2]
	default:
		return cycleInstructions[1]
	}
}

func wordsLogText(list []string) string {
	return "Palavras: " + strings.Join(list, ", ")
}

// messageBuilder stamps messages for one session with strictly increasing
// timestamps.
type messageBuilder struct {
	svc *Service
	s   *models.Session
	out []models.Message
}

func (svc *Service) messages(s *models.Session) *messageBuilder {
	return &messageBuilder{svc: svc, s: s}
}

func (b *messageBuilder) add(t models.MessageType, text string) *models.Message {
	b.out = append(b.out, models.Message{
		Type:         t,
		SessionID:    b.s.ID,
		CurrentCycle: b.s.CurrentCycle,
		TotalCycles:  b.s.TotalCycles,
		Text:         text,
		Timestamp:    b.svc.clock.Next(),
		Terminal:     b.s.Status.IsTerminal(),
	})
	return &b.out[len(b.out)-1]
}

func (b *messageBuilder) greeting(name string) {
	m := b.add(models.MessageGreeting, greetingText(name))
	m.CurrentCycle = 0
}

func (b *messageBuilder) instruction(text string) {
	b.add(models.MessageInstruction, text)
}

func (b *messageBuilder) words() {
	m := b.add(models.MessageWords, textWords)
	m.Words = b.s.CurrentWords()
}

func (b *messageBuilder) awaitingAudio() {
	m := b.add(models.MessageAwaitingAudio, textAwaitingAudio)
	m.Words = b.s.CurrentWords()
}

func (b *messageBuilder) cycleFeedback(r *models.CycleResult) {
	m := b.add(models.MessageCycleFeedback, r.Feedback)
	m.CurrentCycle = r.Cycle
	m.CycleResult = r
}

func (b *messageBuilder) finalSummary() {
	m := b.add(models.MessageFinalSummary, finalText(b.s.Summary))
	m.Summary = b.s.Summary
}

func (b *messageBuilder) errorMessage(text string, err error) {
	m := b.add(models.MessageError, text)
	if err != nil {
		m.Error = err.Error()
	}
}

func (b *messageBuilder) list() []models.Message {
	return b.out
}

// issueCycle appends the instruction, word list and audio prompt for the
// current cycle.
func (b *messageBuilder) issueCycle() {
	b.instruction(instructionText(b.s, b.s.CurrentCycle))
	b.words()
	b.awaitingAudio()
}
