package preset

// Builtin returns the canned announcements shipped with the runtime. The
// order here is the order List reports.
func Builtin() []Preset {
	return []Preset{
		{
			ID:          "sicherheitshinweis",
			Title:       "Sicherheitshinweis",
			Description: "Allgemeiner Hinweis auf Gepaeck und Sicherheit im Zug.",
			Text: "Bitte achten Sie auf Ihre Gepaeckstuecke und lassen Sie diese " +
				"nicht unbeaufsichtigt. Verdaechtige Gegenstaende melden Sie bitte dem Zugpersonal.",
		},
		{
			ID:          "verspaetung",
			Title:       "Verspaetungsentschuldigung",
			Description: "Entschuldigung fuer eine Verzoegerung im Betriebsablauf.",
			Text: "Aufgrund einer Verzoegerung im Betriebsablauf verspaetet sich die " +
				"Weiterfahrt um wenige Minuten. Wir bitten um Entschuldigung.",
		},
		{
			ID:          "tueren-schliessen",
			Title:       "Tuerschliessung",
			Description: "Warnung vor dem Schliessen der Tueren bei Abfahrt.",
			Text:        "Bitte Vorsicht bei der Abfahrt des Zuges. Die Tueren schliessen selbsttaetig.",
		},
		{
			ID:          "rauchverbot",
			Title:       "Rauchverbot",
			Description: "Hinweis auf das Rauchverbot im gesamten Zug.",
			Text:        "Wir moechten Sie daran erinnern, dass im gesamten Zug Rauchverbot besteht.",
		},
	}
}
