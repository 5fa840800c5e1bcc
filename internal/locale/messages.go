package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	MsgQuestions        = "Questions for %q"
	MsgGenerating       = "Generating checklist for %q"
	MsgChecklistReady   = "Checklist ready: %d items"
	MsgStreamFailed     = "Stream failed: %v"
	MsgLoggedInAs       = "Logged in as %s"
	MsgLoggedOut        = "Logged out"
	MsgNotLoggedIn      = "Not logged in"
	MsgCredits          = "Credits: %d"
	MsgLoginRequired    = "Login required. Your goal was saved and will resume after login."
	MsgResumingGoal     = "Resuming %q"
	MsgFallback         = "Streaming unavailable, fetching the full result"
	MsgSaved            = "Saved as %s"
	MsgNoHistory        = "No saved checklists"
	MsgSponsored        = "Sponsored"
	MsgAnswerPrompt     = "Answer"
	MsgPasswordPrompt   = "Password: "
	MsgEnrichmentTips   = "Tips"
	MsgEnrichmentLinks  = "Links"
	MsgEnrichmentPrice  = "Estimated cost"
	MsgNoCreditsLeft    = "No credits left"
	MsgPermissionDenied = "Permission denied"
)

var translations = map[language.Tag]map[string]string{
	language.Spanish: {
		MsgQuestions:        "Preguntas para %q",
		MsgGenerating:       "Generando lista para %q",
		MsgChecklistReady:   "Lista lista: %d elementos",
		MsgStreamFailed:     "Error en la transmisión: %v",
		MsgLoggedInAs:       "Sesión iniciada como %s",
		MsgLoggedOut:        "Sesión cerrada",
		MsgNotLoggedIn:      "No has iniciado sesión",
		MsgCredits:          "Créditos: %d",
		MsgLoginRequired:    "Inicia sesión. Tu objetivo se guardó y se reanudará después.",
		MsgResumingGoal:     "Reanudando %q",
		MsgFallback:         "Transmisión no disponible, obteniendo el resultado completo",
		MsgSaved:            "Guardado como %s",
		MsgNoHistory:        "No hay listas guardadas",
		MsgSponsored:        "Patrocinado",
		MsgAnswerPrompt:     "Respuesta",
		MsgPasswordPrompt:   "Contraseña: ",
		MsgEnrichmentTips:   "Consejos",
		MsgEnrichmentLinks:  "Enlaces",
		MsgEnrichmentPrice:  "Costo estimado",
		MsgNoCreditsLeft:    "No te quedan créditos",
		MsgPermissionDenied: "Permiso denegado",
	},
	language.German: {
		MsgQuestions:        "Fragen zu %q",
		MsgGenerating:       "Erstelle Checkliste für %q",
		MsgChecklistReady:   "Checkliste fertig: %d Punkte",
		MsgStreamFailed:     "Stream fehlgeschlagen: %v",
		MsgLoggedInAs:       "Angemeldet als %s",
		MsgLoggedOut:        "Abgemeldet",
		MsgNotLoggedIn:      "Nicht angemeldet",
		MsgCredits:          "Guthaben: %d",
		MsgLoginRequired:    "Anmeldung erforderlich. Dein Ziel wurde gespeichert und wird danach fortgesetzt.",
		MsgResumingGoal:     "Setze %q fort",
		MsgFallback:         "Streaming nicht verfügbar, lade das vollständige Ergebnis",
		MsgSaved:            "Gespeichert als %s",
		MsgNoHistory:        "Keine gespeicherten Checklisten",
		MsgSponsored:        "Gesponsert",
		MsgAnswerPrompt:     "Antwort",
		MsgPasswordPrompt:   "Passwort: ",
		MsgEnrichmentTips:   "Tipps",
		MsgEnrichmentLinks:  "Links",
		MsgEnrichmentPrice:  "Geschätzte Kosten",
		MsgNoCreditsLeft:    "Kein Guthaben mehr",
		MsgPermissionDenied: "Zugriff verweigert",
	},
	language.French: {
		MsgQuestions:        "Questions pour %q",
		MsgGenerating:       "Génération de la liste pour %q",
		MsgChecklistReady:   "Liste prête : %d éléments",
		MsgStreamFailed:     "Échec du flux : %v",
		MsgLoggedInAs:       "Connecté en tant que %s",
		MsgLoggedOut:        "Déconnecté",
		MsgNotLoggedIn:      "Non connecté",
		MsgCredits:          "Crédits : %d",
		MsgLoginRequired:    "Connexion requise. Votre objectif a été enregistré et reprendra après la connexion.",
		MsgResumingGoal:     "Reprise de %q",
		MsgFallback:         "Flux indisponible, récupération du résultat complet",
		MsgSaved:            "Enregistré sous %s",
		MsgNoHistory:        "Aucune liste enregistrée",
		MsgSponsored:        "Sponsorisé",
		MsgAnswerPrompt:     "Réponse",
		MsgPasswordPrompt:   "Mot de passe : ",
		MsgEnrichmentTips:   "Conseils",
		MsgEnrichmentLinks:  "Liens",
		MsgEnrichmentPrice:  "Coût estimé",
		MsgNoCreditsLeft:    "Plus de crédits",
		MsgPermissionDenied: "Permission refusée",
	},
	language.Russian: {
		MsgQuestions:        "Вопросы для %q",
		MsgGenerating:       "Создаём чек-лист для %q",
		MsgChecklistReady:   "Чек-лист готов: %d пунктов",
		MsgStreamFailed:     "Ошибка потока: %v",
		MsgLoggedInAs:       "Вы вошли как %s",
		MsgLoggedOut:        "Вы вышли",
		MsgNotLoggedIn:      "Вход не выполнен",
		MsgCredits:          "Кредиты: %d",
		MsgLoginRequired:    "Требуется вход. Цель сохранена и продолжится после входа.",
		MsgResumingGoal:     "Продолжаем %q",
		MsgFallback:         "Поток недоступен, загружаем полный результат",
		MsgSaved:            "Сохранено как %s",
		MsgNoHistory:        "Нет сохранённых чек-листов",
		MsgSponsored:        "Реклама",
		MsgAnswerPrompt:     "Ответ",
		MsgPasswordPrompt:   "Пароль: ",
		MsgEnrichmentTips:   "Советы",
		MsgEnrichmentLinks:  "Ссылки",
		MsgEnrichmentPrice:  "Примерная стоимость",
		MsgNoCreditsLeft:    "Кредиты закончились",
		MsgPermissionDenied: "Доступ запрещён",
	},
}

var messages = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range translations {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Printer returns a message printer for the locale's language.
func (l Locale) Printer() *message.Printer {
	return message.NewPrinter(l.Tag, message.Catalog(messages))
}
