package keyword

import "github.com/gastolab/centavo/internal/model"

// DefaultSets returns the built-in keyword sets for the closed category set.
// Terms are matched against normalized text, so canonical synonyms
// (alimentacion, combustible, estacionamiento) appear alongside raw words.
func DefaultSets() []KeywordSet {
	return []KeywordSet{
		{
			Category: model.CategoryTransport,
			Weight:   1.0,
			Words: []string{
				"taxi", "transporte", "transporte_publico", "combustible",
				"estacionamiento", "pasaje", "billete", "autobus",
				"colectivo", "micro", "peaje", "moto",
			},
		},
		{
			Category: model.CategoryFood,
			Weight:   1.0,
			Words: []string{
				"alimentacion", "pizza", "hamburguesa", "pollo", "sushi",
				"supermercado", "mercado", "cafe", "panaderia", "tienda",
				"cafeteria", "delivery",
			},
		},
		{
			Category: model.CategoryMisc,
			Weight:   0.8,
			Words: []string{
				"entretenimiento", "regalo", "compra", "varios", "farmacia",
				"medicina", "ropa", "electronico", "libro", "juego",
				"peluqueria", "gimnasio", "zapatos", "bar",
			},
		},
	}
}
