package training

import (
	"fmt"
	"strings"

	"speech-training-service/internal/models"
	"speech-training-service/internal/service/words"
)

// tier buckets a 0-100 score: 0 best (>=90), 1 (>=70), 2 (>=50), 3 otherwise.
func tier(score float64) int {
	switch {
	case score >= 90:
		return 0
	case score >= 70:
		return 1
	case score >= 50:
		return 2
	default:
		return 3
	}
}

// focus names what the session trains, for learner-facing text.
func focus(difficulty string) string {
	if difficulty == words.TagGeral {
		return "a pronúncia geral"
	}
	return "o fonema " + difficulty
}

func cycleFeedback(r *models.CycleResult) string {
	switch tier(r.Score) {
	case 0:
		return fmt.Sprintf("Excelente! Você mandou muito bem nessa rodada! %d de %d palavras certas!", r.Correct, r.Total)
	case 1:
		return fmt.Sprintf("Muito bom! Você acertou %d de %d palavras. Continue assim!", r.Correct, r.Total)
	case 2:
		return fmt.Sprintf("Bom trabalho! Acertou %d de %d. Vamos melhorar na próxima!", r.Correct, r.Total)
	default:
		return fmt.Sprintf("Não desanime! Acertou %d de %d. A prática leva à perfeição!", r.Correct, r.Total)
	}
}

func overallFeedback(score float64, difficulty string) string {
	f := focus(difficulty)
	switch tier(score) {
	case 0:
		return fmt.Sprintf("Fantástico! Você dominou %s hoje! Continue assim!", f)
	case 1:
		return fmt.Sprintf("Muito bom! Você está evoluindo bem com %s. Pratique um pouco mais!", f)
	case 2:
		return fmt.Sprintf("Bom progresso! Treinar %s é desafiador, mas você está no caminho certo!", f)
	default:
		return fmt.Sprintf("Continue praticando! Treinar %s requer dedicação, mas você vai conseguir!", f)
	}
}

func strengthsAndImprovements(score float64, difficulty string) (strengths, improvements []string) {
	f := focus(difficulty)
	switch tier(score) {
	case 0:
		return []string{"Excelente articulação geral", "Boa pronúncia de " + trimArticle(f)}, []string{}
	case 1:
		return []string{"Boa evolução durante a sessão"}, []string{"Pratique mais " + f}
	case 2:
		return []string{"Persistência ao longo das rodadas"}, []string{"Foque na articulação de " + trimArticle(f)}
	default:
		return []string{}, []string{"Foque na articulação de " + trimArticle(f), "Pratique falar mais devagar"}
	}
}

// trimArticle drops the leading Portuguese article so the phrase can follow
// "de".
func trimArticle(s string) string {
	for _, a := range []string{"o ", "a "} {
		if rest, ok := strings.CutPrefix(s, a); ok {
			return rest
		}
	}
	return s
}

func finalText(s *models.Summary) string {
	switch tier(s.OverallScore) {
	case 0:
		return fmt.Sprintf("Parabéns! Sessão finalizada com sucesso! Você foi incrível hoje! Acertou %d de %d palavras (%.0f%%). Até a próxima sessão!",
			s.TotalCorrect, s.TotalWords, s.OverallScore)
	case 1:
		return fmt.Sprintf("Muito bem! Sessão concluída! Você acertou %d de %d palavras (%.0f%%). Continue praticando e vai melhorar cada vez mais!",
			s.TotalCorrect, s.TotalWords, s.OverallScore)
	case 2:
		return fmt.Sprintf("Sessão concluída! Você acertou %d de %d palavras (%.0f%%). Bom progresso, continue treinando!",
			s.TotalCorrect, s.TotalWords, s.OverallScore)
	default:
		return fmt.Sprintf("Sessão finalizada! Não desanime, você acertou %d de %d palavras (%.0f%%). A prática constante vai te ajudar muito!",
			s.TotalCorrect, s.TotalWords, s.OverallScore)
	}
}
