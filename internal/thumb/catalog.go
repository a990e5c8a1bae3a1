package thumb

// Objective guidance sentences, keyed by the fixed briefing tags the product
// exposes. Loaded once, read-only afterwards.
var objectiveContext = map[string]string{
	"dinheiro":      "Resultado financeiro expressivo. Transmite riqueza, conquista e prova social. Usa números grandes, cifrão em destaque, expressão de surpresa ou orgulho.",
	"promessa":      "Promessa clara e irresistível. Transmite transformação rápida e método comprovado. Usa prazo definido, linguagem direta e certeza.",
	"polemica":      "Choque e curiosidade extrema. Quebre expectativas, revele contradições, provoque indignação positiva. Expressão facial de espanto ou revolta.",
	"erro":          "Alerta e prevenção. A pessoa está cometendo um erro que não sabe. Usa símbolos de proibição, expressão de alerta, contraste forte entre certo e errado.",
	"autoridade":    "Credibilidade e expertise. Postura confiante, provas visuais de resultado. Transmite que essa pessoa é a referência no assunto.",
	"transformacao": "Antes vs depois dramático. Contraste visual máximo entre dois estados. Narrativa de superação visível na composição.",
	"tutorial":      "Clareza e didatismo. Estrutura visual organizada, sensação de aprendizado fácil.",
	"historia":      "Conexão emocional e narrativa pessoal. Expressão autêntica, contexto de jornada real.",
}

var objectiveOrder = []string{
	"dinheiro",
	"promessa",
	"polemica",
	"erro",
	"autoridade",
	"transformacao",
	"tutorial",
	"historia",
}

type Objective struct {
	Tag      string `json:"tag"`
	Guidance string `json:"guidance"`
}

// Guidance returns the context sentence for an objective tag, or an empty
// string for unknown tags.
func Guidance(tag string) string {
	return objectiveContext[tag]
}

func Objectives() []Objective {
	out := make([]Objective, 0, len(objectiveOrder))
	for _, tag := range objectiveOrder {
		if ctx, ok := objectiveContext[tag]; ok {
			out = append(out, Objective{Tag: tag, Guidance: ctx})
		}
	}
	return out
}
