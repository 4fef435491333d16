package service

import (
	"strings"

	"autoquote/pkg/model"
)

const (
	unspecifiedFeminine  = "não especificada"
	unspecifiedMasculine = "não especificado"
)

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// BuildDetails renders the multi-line block describing a quote, one field
// per line, as shown to the requester and sent to the owner.
func BuildDetails(q *model.Quote, phone string) string {
	var b strings.Builder
	b.WriteString("Carro: " + q.CarInfo + "\n")
	b.WriteString("Condição: " + orDefault(q.Condition, unspecifiedFeminine) + "\n")
	b.WriteString("Cor: " + orDefault(q.Color, unspecifiedFeminine) + "\n")
	b.WriteString("Cilindrada: " + orDefault(q.Displacement, unspecifiedFeminine) + "\n")
	b.WriteString("Ano: " + orDefault(q.Year, unspecifiedMasculine) + "\n")
	b.WriteString("Combustível: " + orDefault(q.Fuel, unspecifiedMasculine) + "\n")
	b.WriteString("Contacto: " + phone)
	return b.String()
}
