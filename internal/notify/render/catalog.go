package render

import (
	"fmt"

	"accord/internal/types"
)

// entry holds the title and body producers for one (locale, kind) pair.
// Bodies are closures rather than template strings so each locale applies its
// own plural rules.
type entry struct {
	title func(a Args) string
	body  func(a Args) string
}

// enCount renders an English count phrase: "1 person" / "3 people".
func enCount(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// esCount renders a Spanish count phrase: "1 persona" / "3 personas".
func esCount(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// enDays renders "1 day" / "N days".
func enDays(n int) string { return enCount(n, "day", "days") }

// esDays renders "1 día" / "N días".
func esDays(n int) string { return esCount(n, "día", "días") }

var catalog = map[string]map[types.NotificationKind]entry{
	"en": {
		types.KindTrialDay1Welcome: {
			title: func(a Args) string { return "Your premium trial is live" },
			body: func(a Args) string {
				return fmt.Sprintf("Welcome, %s! Unlimited likes and read receipts are unlocked. Make today count.", a.Name)
			},
		},
		types.KindTrialEngagement: {
			title: func(a Args) string { return "Your trial is working" },
			body: func(a Args) string {
				return fmt.Sprintf("%s liked you and you made %s since your trial started.",
					enCount(a.LikesReceived, "person has", "people have"),
					enCount(a.MatchesMade, "new match", "new matches"))
			},
		},
		types.KindTrialExpiring3Days: {
			title: func(a Args) string { return "3 days left on your trial" },
			body: func(a Args) string {
				return fmt.Sprintf("Your premium trial ends in %s. Keep your streak going.", enDays(a.DaysRemaining))
			},
		},
		types.KindTrialExpiring1Day: {
			title: func(a Args) string { return "Last day of your trial" },
			body: func(a Args) string {
				return fmt.Sprintf("Your premium trial ends in %s. %s liked you so far.",
					enDays(a.DaysRemaining),
					enCount(a.LikesReceived, "person has", "people have"))
			},
		},
		types.KindMatchExpiring5Days: {
			title: func(a Args) string { return "Don't leave them waiting" },
			body: func(a Args) string {
				return fmt.Sprintf("Your match with %s expires in %s. Say hello!", a.OtherName, enDays(a.DaysRemaining))
			},
		},
		types.KindMatchExpiring3Days: {
			title: func(a Args) string { return "Your match is slipping away" },
			body: func(a Args) string {
				return fmt.Sprintf("Only %s left to message %s before the match expires.", enDays(a.DaysRemaining), a.OtherName)
			},
		},
		types.KindMatchExpiring1Day: {
			title: func(a Args) string { return "Last chance with your match" },
			body: func(a Args) string {
				return fmt.Sprintf("Your match with %s expires in less than a day. Send the first message now.", a.OtherName)
			},
		},
		types.KindSwipesRefreshed: {
			title: func(a Args) string { return "Your swipes are back" },
			body: func(a Args) string {
				return "Fresh swipes just dropped. New people are waiting for you."
			},
		},
		types.KindOnboardingReminder: {
			title: func(a Args) string { return "Finish setting up your profile" },
			body: func(a Args) string {
				return fmt.Sprintf("%s, profiles with photos get up to 10x more matches. It only takes a minute.", a.Name)
			},
		},
		types.KindInactiveReminder: {
			title: func(a Args) string { return "You've been missed" },
			body: func(a Args) string {
				if a.NewLikes > 0 {
					return fmt.Sprintf("%s since you were last here. Come see who.",
						enCount(a.NewLikes, "new person has liked you", "new people have liked you"))
				}
				return fmt.Sprintf("It's been %s. New people have joined near you.", enDays(a.DaysInactive))
			},
		},
	},
	"es": {
		types.KindTrialDay1Welcome: {
			title: func(a Args) string { return "Tu prueba premium está activa" },
			body: func(a Args) string {
				return fmt.Sprintf("¡Bienvenido, %s! Likes ilimitados y confirmaciones de lectura desbloqueados.", a.Name)
			},
		},
		types.KindTrialEngagement: {
			title: func(a Args) string { return "Tu prueba está funcionando" },
			body: func(a Args) string {
				return fmt.Sprintf("A %s le has gustado y conseguiste %s desde que empezó tu prueba.",
					esCount(a.LikesReceived, "persona", "personas"),
					esCount(a.MatchesMade, "match nuevo", "matches nuevos"))
			},
		},
		types.KindTrialExpiring3Days: {
			title: func(a Args) string { return "Quedan 3 días de tu prueba" },
			body: func(a Args) string {
				return fmt.Sprintf("Tu prueba premium termina en %s. No pierdas el ritmo.", esDays(a.DaysRemaining))
			},
		},
		types.KindTrialExpiring1Day: {
			title: func(a Args) string { return "Último día de tu prueba" },
			body: func(a Args) string {
				return fmt.Sprintf("Tu prueba premium termina en %s. Ya le gustas a %s.",
					esDays(a.DaysRemaining),
					esCount(a.LikesReceived, "persona", "personas"))
			},
		},
		types.KindMatchExpiring5Days: {
			title: func(a Args) string { return "No les hagas esperar" },
			body: func(a Args) string {
				return fmt.Sprintf("Tu match con %s caduca en %s. ¡Saluda!", a.OtherName, esDays(a.DaysRemaining))
			},
		},
		types.KindMatchExpiring3Days: {
			title: func(a Args) string { return "Tu match se está escapando" },
			body: func(a Args) string {
				return fmt.Sprintf("Solo quedan %s para escribir a %s antes de que caduque el match.", esDays(a.DaysRemaining), a.OtherName)
			},
		},
		types.KindMatchExpiring1Day: {
			title: func(a Args) string { return "Última oportunidad con tu match" },
			body: func(a Args) string {
				return fmt.Sprintf("Tu match con %s caduca en menos de un día. Envía el primer mensaje ahora.", a.OtherName)
			},
		},
		types.KindSwipesRefreshed: {
			title: func(a Args) string { return "Tus swipes han vuelto" },
			body: func(a Args) string {
				return "Swipes nuevos disponibles. Hay gente nueva esperándote."
			},
		},
		types.KindOnboardingReminder: {
			title: func(a Args) string { return "Termina de configurar tu perfil" },
			body: func(a Args) string {
				return fmt.Sprintf("%s, los perfiles con fotos consiguen hasta 10 veces más matches. Solo toma un minuto.", a.Name)
			},
		},
		types.KindInactiveReminder: {
			title: func(a Args) string { return "Te hemos echado de menos" },
			body: func(a Args) string {
				if a.NewLikes > 0 {
					return fmt.Sprintf("Le gustas a %s desde tu última visita. Ven a ver a quién.",
						esCount(a.NewLikes, "persona nueva", "personas nuevas"))
				}
				return fmt.Sprintf("Han pasado %s. Hay gente nueva cerca de ti.", esDays(a.DaysInactive))
			},
		},
	},
}
