package generator

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

const (
	qTimeline     = "When do you want to reach this goal?"
	qBudget       = "What budget do you have in mind?"
	qFocus        = "What matters most to you?"
	qNotes        = "Anything else we should know?"
	optWeek       = "Within a week"
	optMonth      = "Within a month"
	optQuarter    = "Within three months"
	optLater      = "No rush"
	optLow        = "Low"
	optMedium     = "Medium"
	optHigh       = "High"
	optSpeed      = "Speed"
	optCost       = "Cost"
	optQuality    = "Quality"
	stepDefine    = "Define what success looks like for %q"
	stepResearch  = "Research options and collect references"
	stepBudget    = "Set a %s budget and track spending"
	stepSchedule  = "Block time in your calendar (%s)"
	stepGather    = "Gather the tools and materials you need"
	stepFirst     = "Take the first concrete step today"
	stepHelp      = "Ask someone experienced for feedback"
	stepReview    = "Review progress and adjust the plan"
	descDefault   = "Keep it short and specific."
	tipSmall      = "Start small and build momentum."
	tipWriteDown  = "Write it down where you will see it daily."
	tipCompare    = "Compare at least three options before deciding."
	tipFocusSpeed = "Prefer the option you can start today."
	tipFocusCost  = "Look for second-hand or free alternatives."
	tipFocusQual  = "Spend more on the things you use most."
	linkSearch    = "Search the web"
	linkGuide     = "Beginner guide"
	chunkThinking = "Thinking about %q"
	chunkPlanning = "Planning %d steps"
)

var translations = map[language.Tag]map[string]string{
	language.Spanish: {
		qTimeline:     "¿Cuándo quieres alcanzar esta meta?",
		qBudget:       "¿Qué presupuesto tienes en mente?",
		qFocus:        "¿Qué es lo más importante para ti?",
		qNotes:        "¿Algo más que debamos saber?",
		optWeek:       "En una semana",
		optMonth:      "En un mes",
		optQuarter:    "En tres meses",
		optLater:      "Sin prisa",
		optLow:        "Bajo",
		optMedium:     "Medio",
		optHigh:       "Alto",
		optSpeed:      "Rapidez",
		optCost:       "Coste",
		optQuality:    "Calidad",
		stepDefine:    "Define qué significa el éxito para %q",
		stepResearch:  "Investiga opciones y reúne referencias",
		stepBudget:    "Fija un presupuesto %s y controla el gasto",
		stepSchedule:  "Reserva tiempo en tu calendario (%s)",
		stepGather:    "Reúne las herramientas y materiales necesarios",
		stepFirst:     "Da hoy el primer paso concreto",
		stepHelp:      "Pide opinión a alguien con experiencia",
		stepReview:    "Revisa el progreso y ajusta el plan",
		descDefault:   "Sé breve y concreto.",
		tipSmall:      "Empieza poco a poco y gana impulso.",
		tipWriteDown:  "Escríbelo donde lo veas cada día.",
		tipCompare:    "Compara al menos tres opciones antes de decidir.",
		tipFocusSpeed: "Prefiere la opción que puedas empezar hoy.",
		tipFocusCost:  "Busca alternativas gratuitas o de segunda mano.",
		tipFocusQual:  "Invierte más en lo que más usas.",
		linkSearch:    "Buscar en la web",
		linkGuide:     "Guía para principiantes",
		chunkThinking: "Pensando en %q",
		chunkPlanning: "Planificando %d pasos",
	},
	language.German: {
		qTimeline:     "Bis wann möchtest du das Ziel erreichen?",
		qBudget:       "Welches Budget hast du im Kopf?",
		qFocus:        "Was ist dir am wichtigsten?",
		qNotes:        "Sonst noch etwas, das wir wissen sollten?",
		optWeek:       "Innerhalb einer Woche",
		optMonth:      "Innerhalb eines Monats",
		optQuarter:    "Innerhalb von drei Monaten",
		optLater:      "Keine Eile",
		optLow:        "Niedrig",
		optMedium:     "Mittel",
		optHigh:       "Hoch",
		optSpeed:      "Tempo",
		optCost:       "Kosten",
		optQuality:    "Qualität",
		stepDefine:    "Lege fest, was Erfolg für %q bedeutet",
		stepResearch:  "Optionen recherchieren und Referenzen sammeln",
		stepBudget:    "Ein %s Budget festlegen und Ausgaben verfolgen",
		stepSchedule:  "Zeit im Kalender blocken (%s)",
		stepGather:    "Benötigte Werkzeuge und Material besorgen",
		stepFirst:     "Heute den ersten konkreten Schritt machen",
		stepHelp:      "Jemanden mit Erfahrung um Feedback bitten",
		stepReview:    "Fortschritt prüfen und Plan anpassen",
		descDefault:   "Kurz und konkret halten.",
		tipSmall:      "Klein anfangen und Schwung aufbauen.",
		tipWriteDown:  "Schreib es dort auf, wo du es täglich siehst.",
		tipCompare:    "Vergleiche mindestens drei Optionen.",
		tipFocusSpeed: "Wähle die Option, mit der du heute starten kannst.",
		tipFocusCost:  "Suche nach gebrauchten oder kostenlosen Alternativen.",
		tipFocusQual:  "Investiere mehr in das, was du am häufigsten nutzt.",
		linkSearch:    "Im Web suchen",
		linkGuide:     "Einsteigerleitfaden",
		chunkThinking: "Denke über %q nach",
		chunkPlanning: "Plane %d Schritte",
	},
	language.French: {
		qTimeline:     "Quand veux-tu atteindre cet objectif ?",
		qBudget:       "Quel budget envisages-tu ?",
		qFocus:        "Qu'est-ce qui compte le plus pour toi ?",
		qNotes:        "Autre chose à savoir ?",
		optWeek:       "D'ici une semaine",
		optMonth:      "D'ici un mois",
		optQuarter:    "D'ici trois mois",
		optLater:      "Pas pressé",
		optLow:        "Faible",
		optMedium:     "Moyen",
		optHigh:       "Élevé",
		optSpeed:      "Rapidité",
		optCost:       "Coût",
		optQuality:    "Qualité",
		stepDefine:    "Définis ce que signifie réussir %q",
		stepResearch:  "Explore les options et rassemble des références",
		stepBudget:    "Fixe un budget %s et suis tes dépenses",
		stepSchedule:  "Bloque du temps dans ton agenda (%s)",
		stepGather:    "Rassemble les outils et le matériel nécessaires",
		stepFirst:     "Fais le premier pas concret aujourd'hui",
		stepHelp:      "Demande l'avis d'une personne expérimentée",
		stepReview:    "Fais le point et ajuste le plan",
		descDefault:   "Reste bref et précis.",
		tipSmall:      "Commence petit et prends de l'élan.",
		tipWriteDown:  "Note-le là où tu le verras chaque jour.",
		tipCompare:    "Compare au moins trois options avant de choisir.",
		tipFocusSpeed: "Préfère l'option que tu peux lancer aujourd'hui.",
		tipFocusCost:  "Cherche des alternatives gratuites ou d'occasion.",
		tipFocusQual:  "Investis davantage dans ce que tu utilises le plus.",
		linkSearch:    "Rechercher sur le web",
		linkGuide:     "Guide du débutant",
		chunkThinking: "Réflexion sur %q",
		chunkPlanning: "Préparation de %d étapes",
	},
	language.Russian: {
		qTimeline:     "Когда вы хотите достичь цели?",
		qBudget:       "На какой бюджет вы рассчитываете?",
		qFocus:        "Что для вас важнее всего?",
		qNotes:        "Что-нибудь ещё, что нам стоит знать?",
		optWeek:       "За неделю",
		optMonth:      "За месяц",
		optQuarter:    "За три месяца",
		optLater:      "Без спешки",
		optLow:        "Небольшой",
		optMedium:     "Средний",
		optHigh:       "Большой",
		optSpeed:      "Скорость",
		optCost:       "Стоимость",
		optQuality:    "Качество",
		stepDefine:    "Определите, что значит успех для %q",
		stepResearch:  "Изучите варианты и соберите примеры",
		stepBudget:    "Установите бюджет (%s) и следите за расходами",
		stepSchedule:  "Выделите время в календаре (%s)",
		stepGather:    "Подготовьте нужные инструменты и материалы",
		stepFirst:     "Сделайте первый конкретный шаг сегодня",
		stepHelp:      "Попросите совета у опытного человека",
		stepReview:    "Оцените прогресс и скорректируйте план",
		descDefault:   "Коротко и конкретно.",
		tipSmall:      "Начните с малого и наберите темп.",
		tipWriteDown:  "Запишите это там, где будете видеть каждый день.",
		tipCompare:    "Сравните минимум три варианта.",
		tipFocusSpeed: "Выбирайте то, что можно начать сегодня.",
		tipFocusCost:  "Ищите бесплатные или подержанные варианты.",
		tipFocusQual:  "Тратьте больше на то, чем пользуетесь чаще всего.",
		linkSearch:    "Поиск в интернете",
		linkGuide:     "Руководство для начинающих",
		chunkThinking: "Обдумываю %q",
		chunkPlanning: "Планирую шагов: %d",
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
