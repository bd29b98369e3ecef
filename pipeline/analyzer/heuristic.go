package analyzer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/guyomx/smartcities-banorte/models"
)

var (
	reAnios = regexp.MustCompile(`\b(20\d{2})\b`)

	// Patrones de montos en texto libre, en orden de preferencia
	rePatronesDinero = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*millones?\s*(?:de\s*)?pesos`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*mil\s*(?:millones?\s*)?pesos`),
		regexp.MustCompile(`(?i)\$\s*(\d+(?:,\d+)*(?:\.\d+)?)\s*(?:millones?|mil)?`),
	}

	// Palabras clave por sector para la clasificación heurística
	sectorKeywords = []struct {
		Sector   string
		Keywords []string
	}{
		{"Agua", []string{"agua", "hidráulico", "presa", "acueducto"}},
		{"Energía", []string{"energía", "electricidad", "solar", "eólico"}},
		{"Transporte", []string{"carretera", "autopista", "transporte", "vial"}},
		{"Salud", []string{"hospital", "salud", "clínica", "médico"}},
		{"Educación", []string{"escuela", "educación", "universidad", "estudiante"}},
	}
)

// HeuristicExtraction es la extracción de respaldo cuando Gemini no está
// disponible o su respuesta no se puede interpretar. Es deliberadamente
// simple: primera línea como nombre, años y montos por regex, sector por
// palabras clave.
func HeuristicExtraction(text, fileName string) *models.ProyectoRecord {
	rec := models.NewProyectoRecord(fileName)
	rec.ExtractionMethod = "fallback_heuristic"

	// Nombre: primera línea no vacía, recortada a 200 caracteres
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			runes := []rune(line)
			if len(runes) > 200 {
				line = string(runes[:200])
			}
			rec.Nombre = models.Str(line)
			break
		}
	}

	// Años: el menor como inicio, el mayor como fin
	if matches := reAnios.FindAllString(text, -1); len(matches) > 0 {
		years := make([]int, 0, len(matches))
		for _, m := range matches {
			if y, err := strconv.Atoi(m); err == nil {
				years = append(years, y)
			}
		}
		sort.Ints(years)
		rec.AnioInicio = models.Int(years[0])
		if len(years) > 1 {
			rec.AnioFin = models.Int(years[len(years)-1])
		}
	}

	// Presupuesto: primer patrón de dinero que haga match
	for _, re := range rePatronesDinero {
		if m := re.FindStringSubmatch(text); m != nil {
			amount := strings.ReplaceAll(m[1], ",", "")
			if f, err := strconv.ParseFloat(amount, 64); err == nil {
				rec.PresupuestoTotalMXN = models.Float(f)
			}
			break
		}
	}

	// Sector por palabras clave
	textLower := strings.ToLower(text)
	for _, sk := range sectorKeywords {
		for _, kw := range sk.Keywords {
			if strings.Contains(textLower, kw) {
				rec.Sector = models.Str(sk.Sector)
				break
			}
		}
		if rec.Sector != nil {
			break
		}
	}

	return rec
}
