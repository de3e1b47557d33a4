package weather

import (
	"errors"
	"strings"
)

// ErrUnknownCity is returned for names outside the configured city list.
var ErrUnknownCity = errors.New("city is not supported")

// DefaultCities is the built-in list of supported Polish cities.
var DefaultCities = []string{
	"Warszawa", "Kraków", "Łódź", "Wrocław", "Poznań",
	"Gdańsk", "Szczecin", "Bydgoszcz", "Lublin", "Białystok",
	"Katowice", "Gdynia", "Częstochowa", "Radom", "Toruń",
	"Sosnowiec", "Rzeszów", "Kielce", "Gliwice", "Olsztyn",
	"Zabrze", "Bielsko-Biała", "Bytom", "Zielona Góra", "Rybnik",
	"Ruda Śląska", "Opole", "Tychy", "Gorzów Wielkopolski", "Elbląg",
	"Płock", "Wałbrzych", "Włocławek", "Tarnów", "Chorzów",
	"Koszalin", "Kalisz", "Legnica",
}

// CityList is an immutable allow-list with case-insensitive lookup.
type CityList struct {
	names []string
	index map[string]string // lowercased -> canonical
}

// NewCityList builds a list from names, skipping blanks and duplicates.
func NewCityList(names []string) CityList {
	l := CityList{index: make(map[string]string, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		k := strings.ToLower(n)
		if _, dup := l.index[k]; dup {
			continue
		}
		l.index[k] = n
		l.names = append(l.names, n)
	}
	return l
}

// Names returns a copy of the cities in configured order.
func (l CityList) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Resolve returns the canonical spelling of name.
func (l CityList) Resolve(name string) (string, error) {
	if c, ok := l.index[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c, nil
	}
	return "", ErrUnknownCity
}
