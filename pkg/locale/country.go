package locale

const DefaultTimezone = "Europe/Lisbon"

type Country struct {
	Code            string // ISO 3166-1 alpha-2 country code (e.g., "PT")
	Name            string // Portuguese display name
	DefaultTimezone string // IANA timezone identifier
}

// Countries lists the markets quote requests usually come from.
var Countries = map[string]Country{
	"PT": {Code: "PT", Name: "Portugal", DefaultTimezone: "Europe/Lisbon"},
	"ES": {Code: "ES", Name: "Espanha", DefaultTimezone: "Europe/Madrid"},
	"FR": {Code: "FR", Name: "França", DefaultTimezone: "Europe/Paris"},
	"BR": {Code: "BR", Name: "Brasil", DefaultTimezone: "America/Sao_Paulo"},
	"GB": {Code: "GB", Name: "Reino Unido", DefaultTimezone: "Europe/London"},
}
