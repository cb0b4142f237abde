package cleaning

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// countryAliases maps the spellings found in agency reports to one canonical name.
// Keys are looked up verbatim first, then upper-cased.
var countryAliases = map[string]string{
	"AFGHANISTAN":                            "Afghanistan",
	"ALBANIA":                                "Albania",
	"ALGERIA":                                "Algeria",
	"AMERICAN SAMOA":                         "American Samoa",
	"ANDORRA":                                "Andorra",
	"ANGOLA":                                 "Angola",
	"ARGENTINA":                              "Argentina",
	"ARMENIA":                                "Armenia",
	"ARUBA":                                  "Aruba",
	"AUSTRALIA":                              "Australia",
	"AUSTRIA":                                "Austria",
	"AZERBAIJAN":                             "Azerbaijan",
	"TIMOR":                                  "Timor",
	"CONGO":                                  "Congo",
	"GREAT BRITAIN":                          "United Kingdom",
	"UNITED KINGDOM":                         "United Kingdom",
	"KAMPUCHEA DEMOCRATIC":                   "Cambodia",
	"CAMBODIA":                               "Cambodia",
	"KOREAN REPUBLIC OF":                     "South Korea",
	"KOREA, REPUBLIC OF":                     "South Korea",
	"NORTH KOREA":                            "North Korea",
	"KOREA, DEMOCRATIC PEOPLE'S REPUBLIC OF": "North Korea",
	"RUSSIA":                                 "Russian Federation",
	"RUSSIAN FEDERATION":                     "Russian Federation",
	"VIETNAM":                                "Vietnam",
	"VIET NAM":                               "Vietnam",
	"WESTERN SAMOA":                          "Samoa",
	"SAMOA":                                  "Samoa",
	"BOLIVIA, PLURINATIONAL STATE OF":        "Bolivia",
	"CONGO, THE DEMOCRATIC REPUBLIC OF THE":  "Congo, The Democratic Republic of",
	"IRAN, ISLAMIC REPUBLIC OF":              "Iran",
	"LAO PEOPLE'S DEMOCRATIC REPUBLIC":       "Laos",
	"MOLDOVA, REPUBLIC OF":                   "Moldova",
	"PALESTINIAN TERRITORY, OCCUPIED":        "Palestinian Territory",
	"TAIWAN, PROVINCE OF CHINA":              "Taiwan",
	"TANZANIA, UNITED REPUBLIC OF":           "Tanzania",
	"VENEZUELA, BOLIVARIAN REPUBLIC OF":      "Venezuela",
	"DEMOCRATIC YEMEN":                       "Yemen",
	"YEMEN":                                  "Yemen",
	"LIBYAN ARAB JAMAHIRIYA":                 "Libya",
	"MACEDONIA":                              "North Macedonia",
	"MACEDONIA, THE FORMER YUGOSLAV REPUBLIC OF": "North Macedonia",
	"MICRONESIA, FEDERATED STATES OF":            "Micronesia",
	"SYRIAN ARAB REPUBLIC":                       "Syria",
	"TIMOR LESTE":                                "Timor-Leste",
	"TIMOR-LESTE":                                "Timor-Leste",
	"VIRGIN ISLANDS, US":                         "Virgin Islands, U.S.",
	"VIRGIN ISLANDS, U.S.":                       "Virgin Islands, U.S.",
	"XK":                                         "Kosovo",
	"KOSOVO":                                     "Kosovo",
	"BRUNEI DARUSSALAM":                          "Brunei Darussalam",
	"BURKINA FASO":                               "Burkina Faso",
	"COLOMBIA":                                   "Colombia",
	"COTE D'IVOIRE":                              "Cote d'Ivoire",
	"CÔTE D'IVOIRE":                              "Cote d'Ivoire",
	"GUINEA-BISSAU":                              "Guinea-Bissau",
	"KAZAKHSTAN":                                 "Kazakhstan",
	"LIBERIA":                                    "Liberia",
	"MACAO":                                      "Macao",
	"PAPUA NEW GUINEA":                           "Papua New Guinea",
	"SAO TOME AND PRINCIPE":                      "Sao Tome and Principe",
	"URUGUAY":                                    "Uruguay",
	"NEW ISRAEL":                                 "Israel",
	"NEW TAIWAN":                                 "Taiwan",
	"BOSNIA &AMP":                                "Bosnia and Herzegovina",
	"BOSNIA AND HERZEGOVINA":                     "Bosnia and Herzegovina",
	"RÉUNION":                                    "Reunion",
	"REUNION":                                    "Reunion",
	"Micronesia, Federated State":                "Micronesia",
	"Sao Tome and Principle":                     "Sao Tome and Principe",
	"Uruguayo":                                   "Uruguay",
}

// junkCountries are placeholder destinations dropped from the cleaned dataset.
// Matching is case-insensitive.
var junkCountries = map[string]bool{
	"bangladesh local export":      true,
	"bangladesh local export code": true,
	"european union":               true,
	"not defined":                  true,
	"unknown":                      true,
	"various countries":            true,
	"tp":                           true,
}

// CanonicalCountry returns the canonical spelling of a raw country name.
// Names missing from the alias table are title-cased.
func CanonicalCountry(raw string) string {
	name := strings.TrimSpace(raw)
	if v, ok := countryAliases[name]; ok {
		return v
	}
	if v, ok := countryAliases[strings.ToUpper(name)]; ok {
		return v
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(name)
}

// IsJunkCountry reports whether name is a placeholder rather than a destination.
func IsJunkCountry(name string) bool {
	return junkCountries[strings.ToLower(strings.TrimSpace(name))]
}
