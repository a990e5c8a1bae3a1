package thumb

import "fmt"

// FidelityTier carries the prompt language for one similarity band.
type FidelityTier struct {
	ID     string
	Header string
	Rule   string
}

// ClampSimilarity bounds the similarity control to [0,100].
func ClampSimilarity(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// TierFor maps a similarity value to its calibration tier: up to 30 the
// reference is mood-only inspiration, up to 70 structure is preserved, above
// that the replication is near-identical.
func TierFor(similarity int) FidelityTier {
	s := ClampSimilarity(similarity)
	switch {
	case s <= 30:
		return FidelityTier{
			ID:     "low",
			Header: "REFERÊNCIA VISUAL — USE COMO INSPIRAÇÃO LEVE:",
			Rule:   fmt.Sprintf("Nível %d%%: Inspire-se APENAS na atmosfera e mood geral. Crie algo original e diferente — layout, cores e tipografia são livres.", s),
		}
	case s <= 70:
		return FidelityTier{
			ID:     "medium",
			Header: "REFERÊNCIA VISUAL — SIGA A ESTRUTURA GERAL:",
			Rule:   fmt.Sprintf("Nível %d%%: Mantenha layout e composição similares. Adapte cores e tipografia ao conteúdo do criador, mas preserve a hierarquia visual.", s),
		}
	default:
		return FidelityTier{
			ID:     "high",
			Header: "REFERÊNCIA VISUAL — REPLIQUE COM MÁXIMA FIDELIDADE:",
			Rule:   fmt.Sprintf("Nível %d%%: Reproduza QUASE IDENTICAMENTE. Mesmo layout, mesmas cores, mesma tipografia, mesma composição. A thumbnail deve parecer criada pelo mesmo designer da referência.", s),
		}
	}
}
